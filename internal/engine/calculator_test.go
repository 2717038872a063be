package engine

import (
	"math"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculator_ConcreteCase(t *testing.T) {
	c := NewCalculator()
	c.Set(InputCoalProduction, "100")
	c.Set(InputFuelConsumption, "50")
	c.Set(InputElectricityConsumption, "200")

	out := c.Outputs()
	assert.Equal(t, 585.5, out.TotalEmission.Value)
	assert.Equal(t, "585.50", out.TotalEmission.String())
	assert.Equal(t, 5855.0, out.CarbonCredits.Value)
	assert.Equal(t, "5855.00", out.CarbonCredits.String())
	assert.False(t, out.PerCapitaEmission.Set)
}

func TestCalculator_TotalFormula(t *testing.T) {
	tests := []struct {
		coal, fuel, elec string
		want             float64
	}{
		{"0", "0", "0", 0},
		{"1", "1", "1", 6.09},
		{"12.345", "0", "0", 35.31},
		{"0", "3.3", "7.7", 14.71},
		{"1000000", "0", "0", 2860000},
	}

	for _, tt := range tests {
		c := NewCalculator()
		c.Set(InputCoalProduction, tt.coal)
		c.Set(InputFuelConsumption, tt.fuel)
		c.Set(InputElectricityConsumption, tt.elec)

		out := c.Outputs()
		assert.InDelta(t, tt.want, out.TotalEmission.Value, 1e-9, "coal=%s fuel=%s elec=%s", tt.coal, tt.fuel, tt.elec)
		assert.InDelta(t, round2(out.TotalEmission.Value*10), out.CarbonCredits.Value, 1e-9)
	}
}

func TestCalculator_UnsetInputIsNaN(t *testing.T) {
	c := NewCalculator()
	c.Set(InputCoalProduction, "100")

	out := c.Outputs()
	require.True(t, out.TotalEmission.Set)
	assert.True(t, math.IsNaN(out.TotalEmission.Value))
	assert.True(t, math.IsNaN(out.CarbonCredits.Value))
	assert.Equal(t, "NaN", out.TotalEmission.String())
}

func TestCalculator_NonNumericInputIsNaN(t *testing.T) {
	c := NewCalculator()
	c.Set(InputCoalProduction, "lots")
	c.Set(InputFuelConsumption, "1")
	c.Set(InputElectricityConsumption, "1")

	assert.True(t, math.IsNaN(c.Outputs().TotalEmission.Value))
}

func TestCalculator_NumericPrefix(t *testing.T) {
	c := NewCalculator()
	c.Set(InputCoalProduction, " 10tons")
	c.Set(InputFuelConsumption, "0")
	c.Set(InputElectricityConsumption, ".5e1")

	assert.InDelta(t, 28.6+4.6, c.Outputs().TotalEmission.Value, 1e-9)
}

func TestCalculator_PerCapita(t *testing.T) {
	c := NewCalculator()
	c.Set(InputCoalProduction, "100")
	c.Set(InputFuelConsumption, "50")
	c.Set(InputElectricityConsumption, "200")
	c.Set(InputEmployeeCount, "10")

	out := c.Outputs()
	require.True(t, out.PerCapitaEmission.Set)
	assert.InDelta(t, 58.55, out.PerCapitaEmission.Value, 1e-9)

	// integer parsing of the employee count
	c.Set(InputEmployeeCount, "4.9")
	assert.InDelta(t, 146.38, c.Outputs().PerCapitaEmission.Value, 1e-9)
}

func TestCalculator_PerCapitaStaleOnClear(t *testing.T) {
	c := NewCalculator()
	c.Set(InputCoalProduction, "100")
	c.Set(InputFuelConsumption, "50")
	c.Set(InputElectricityConsumption, "200")
	c.Set(InputEmployeeCount, "10")
	before := c.Outputs().PerCapitaEmission

	c.Clear(InputEmployeeCount)
	assert.Equal(t, before, c.Outputs().PerCapitaEmission)

	c.Set(InputEmployeeCount, "")
	assert.Equal(t, before, c.Outputs().PerCapitaEmission)

	// other inputs still recompute while the per-capita value stays stale
	c.Set(InputCoalProduction, "200")
	assert.InDelta(t, 871.5, c.Outputs().TotalEmission.Value, 1e-9)
	assert.Equal(t, before, c.Outputs().PerCapitaEmission)
}

func TestCalculator_HexEmployeeCount(t *testing.T) {
	c := NewCalculator()
	c.Set(InputCoalProduction, "100")
	c.Set(InputFuelConsumption, "50")
	c.Set(InputElectricityConsumption, "200")
	c.Set(InputEmployeeCount, "0xA")

	assert.Equal(t, "58.55", c.Outputs().PerCapitaEmission.String())
}

func TestParseInt(t *testing.T) {
	tests := map[string]float64{
		"10":       10,
		" 42 ":     42,
		"-7":       -7,
		"12.9":     12,
		"3 people": 3,
		"0x10":     16,
		"0XfF":     255,
		"-0x1A":    -26,
		"+0x1":     1,
		"0x1g":     1,
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, parseInt(in))
		})
	}

	for _, in := range []string{"", "abc", "0x", "-0x", "0xg", "x10"} {
		assert.True(t, math.IsNaN(parseInt(in)), "parseInt(%q)", in)
	}
}

func TestCalculator_ZeroEmployees(t *testing.T) {
	c := NewCalculator()
	c.Set(InputCoalProduction, "1")
	c.Set(InputFuelConsumption, "1")
	c.Set(InputElectricityConsumption, "1")
	c.Set(InputEmployeeCount, "0")

	out := c.Outputs()
	assert.True(t, math.IsInf(out.PerCapitaEmission.Value, 1))
	assert.Equal(t, "Infinity", out.PerCapitaEmission.String())
}

func TestCalculator_SelectEntityDoesNotRecompute(t *testing.T) {
	c := NewCalculator()
	c.Set(InputCoalProduction, "100")
	c.Set(InputFuelConsumption, "50")
	c.Set(InputElectricityConsumption, "200")
	c.Set(InputEmployeeCount, "10")
	n := c.Recomputes()
	outputs := c.Outputs()
	require.Equal(t, "585.50", outputs.TotalEmission.String())

	c.SelectEntity("Jharia")

	assert.Equal(t, n, c.Recomputes())
	assert.Equal(t, outputs, c.Outputs())
	assert.Equal(t, outputs.Describe(), c.Outputs().Describe())
}

func TestCalculator_SelectEntityKeepsUnsetOrNaNOutputs(t *testing.T) {
	c := NewCalculator()
	c.Set(InputCoalProduction, "1")
	n := c.Recomputes()
	before := c.Outputs().Describe()
	require.True(t, math.IsNaN(c.Outputs().TotalEmission.Value))

	c.SelectEntity("Gevra")

	assert.Equal(t, n, c.Recomputes())
	assert.Equal(t, before, c.Outputs().Describe())
	name, ok := c.Input(InputSelectedEntity)
	assert.True(t, ok)
	assert.Equal(t, "Jharia", name)
}

func TestCalculator_Idempotent(t *testing.T) {
	a := NewCalculator()
	b := NewCalculator()
	for _, c := range []*Calculator{a, b} {
		c.Set(InputCoalProduction, "3.14")
		c.Set(InputFuelConsumption, "2.71")
		c.Set(InputElectricityConsumption, "1.41")
	}
	a.Set(InputCoalProduction, "3.14")

	assert.Equal(t, a.Outputs().TotalEmission, b.Outputs().TotalEmission)
	assert.Equal(t, a.Outputs().CarbonCredits, b.Outputs().CarbonCredits)
}

func TestTracks(t *testing.T) {
	assert.True(t, Tracks(InputCoalProduction))
	assert.True(t, Tracks(InputFuelConsumption))
	assert.True(t, Tracks(InputElectricityConsumption))
	assert.True(t, Tracks(InputEmployeeCount))
	assert.False(t, Tracks(InputSelectedEntity))
}

func TestParseInput(t *testing.T) {
	in, ok := ParseInput("employee_count")
	assert.True(t, ok)
	assert.Equal(t, InputEmployeeCount, in)

	_, ok = ParseInput("afforestation_area")
	assert.False(t, ok)
}

func TestCell_MarshalJSON(t *testing.T) {
	out := Outputs{
		TotalEmission:     Cell{Value: 585.5, Set: true},
		PerCapitaEmission: Cell{},
		CarbonCredits:     Cell{Value: math.NaN(), Set: true},
	}

	data, err := json.Marshal(out)
	require.NoError(t, err)
	assert.JSONEq(t, `{"total_emission": 585.50, "per_capita_emission": null, "carbon_credits": "NaN"}`, string(data))
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 1.23, round2(1.234))
	assert.Equal(t, 1.24, round2(1.235))
	assert.Equal(t, -1.24, round2(-1.235))
	assert.True(t, math.IsNaN(round2(math.NaN())))
	assert.True(t, math.IsInf(round2(math.Inf(-1)), -1))
}
