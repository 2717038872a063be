package render

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"emissions-platform/internal/engine"
	"emissions-platform/internal/models"
)

func testSeries() engine.Series {
	return engine.BuildSeries([]models.YearRecord{
		{Year: "2021", FuelEmission: 300, ElectricityEmission: 200, TotalEmission: 500, MethaneEmission: 40},
		{Year: "2019", FuelEmission: 100, ElectricityEmission: 100, TotalEmission: 200, MethaneEmission: 20},
		{Year: "2020", FuelEmission: 1500000, ElectricityEmission: 500000, TotalEmission: 2000000, MethaneEmission: 30},
	})
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatSVG, false},
		{"svg", FormatSVG, false},
		{" PNG ", FormatPNG, false},
		{"gif", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				var vErr *models.ValidationError
				assert.True(t, errors.As(err, &vErr))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
	assert.Equal(t, "image/png", FormatPNG.ContentType())
	assert.Equal(t, "image/svg+xml", FormatSVG.ContentType())
}

func TestYearlyChart_SVG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, YearlyChart(&buf, testSeries(), models.MetricTotalEmission, FormatSVG))

	out := buf.String()
	assert.Contains(t, out, "<svg")
	assert.Contains(t, out, "2021")
	assert.Contains(t, out, "2019")
	assert.Contains(t, out, "tons CO2e")
}

func TestYearlyChart_PNG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, YearlyChart(&buf, testSeries(), models.MetricMethaneEmission, FormatPNG))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")))
}

func TestYearlyChart_Errors(t *testing.T) {
	var buf bytes.Buffer

	err := YearlyChart(&buf, testSeries(), "coal_emission", FormatSVG)
	var vErr *models.ValidationError
	assert.True(t, errors.As(err, &vErr))

	err = YearlyChart(&buf, engine.Series{}, models.MetricTotalEmission, FormatSVG)
	assert.ErrorIs(t, err, ErrEmptySeries)
	assert.Zero(t, buf.Len())
}
