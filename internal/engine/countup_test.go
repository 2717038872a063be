package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCountUp_Lifecycle(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewCountUp(DefaultCountUpDuration, 100, 40)

	assert.Equal(t, CountUpIdle, c.State())
	assert.Equal(t, []float64{0, 0}, c.Sample(t0))

	assert.False(t, c.Observe(false, t0), "invisible observation must not trigger")
	assert.Equal(t, CountUpIdle, c.State())

	assert.True(t, c.Observe(true, t0))
	assert.Equal(t, CountUpTriggered, c.State())

	assert.Equal(t, []float64{50, 20}, c.Sample(t0.Add(time.Second)))
	assert.Equal(t, CountUpAnimating, c.State())
	assert.False(t, c.Done())

	assert.Equal(t, []float64{100, 40}, c.Sample(t0.Add(3*time.Second)))
	assert.Equal(t, CountUpSettled, c.State())
	assert.True(t, c.Done())
}

func TestCountUp_LatchNeverResets(t *testing.T) {
	t0 := time.Now()
	c := NewCountUp(time.Second, 10)

	assert.True(t, c.Observe(true, t0))
	assert.False(t, c.Observe(true, t0.Add(500*time.Millisecond)))
	c.Observe(false, t0.Add(600*time.Millisecond))

	assert.Equal(t, []float64{5}, c.Sample(t0.Add(500*time.Millisecond)))
}

func TestCountUp_Teardown(t *testing.T) {
	t0 := time.Now()
	c := NewCountUp(time.Second, 10)
	c.Observe(true, t0)
	c.Sample(t0.Add(250 * time.Millisecond))

	c.Teardown()

	assert.True(t, c.Done())
	assert.Equal(t, []float64{2.5}, c.Sample(t0.Add(2*time.Second)))
}

func TestCountUp_ZeroDuration(t *testing.T) {
	t0 := time.Now()
	c := NewCountUp(0, 7)
	c.Observe(true, t0)

	assert.Equal(t, []float64{7}, c.Sample(t0))
	assert.Equal(t, CountUpSettled, c.State())
}

func TestCountUpState_String(t *testing.T) {
	assert.Equal(t, "idle", CountUpIdle.String())
	assert.Equal(t, "settled", CountUpSettled.String())
}
