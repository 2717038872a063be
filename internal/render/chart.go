// Package render draws the yearly series as a bar chart image.
package render

import (
	"errors"
	"fmt"
	"io"
	"strings"

	chart "github.com/wcharczuk/go-chart/v2"

	"emissions-platform/internal/engine"
	"emissions-platform/internal/models"
)

// Format is an output image encoding
type Format string

const (
	FormatSVG Format = "svg"
	FormatPNG Format = "png"
)

// ErrEmptySeries is returned when there is nothing to draw
var ErrEmptySeries = errors.New("series has no years to draw")

// ParseFormat accepts "svg" or "png" in any case. The empty string is SVG.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatSVG:
		return FormatSVG, nil
	case FormatPNG:
		return FormatPNG, nil
	default:
		return "", &models.ValidationError{Field: "format", Value: s, Message: "format must be svg or png"}
	}
}

// ContentType returns the MIME type of f
func (f Format) ContentType() string {
	if f == FormatPNG {
		return "image/png"
	}
	return "image/svg+xml"
}

// YearlyChart draws one bar per year for key, with the value axis spanning
// the series domain and ticks labelled by magnitude.
func YearlyChart(w io.Writer, series engine.Series, key models.MetricKey, format Format) error {
	values, ok := series.Values(key)
	if !ok {
		return &models.ValidationError{Field: "metric", Value: string(key), Message: "metric does not resolve on year records"}
	}
	if len(values) == 0 {
		return ErrEmptySeries
	}

	bounds := engine.DomainOf(values)
	if bounds.Upper <= bounds.Lower {
		bounds.Upper = bounds.Lower + 1
	}

	bars := make([]chart.Value, len(series))
	for i := range series {
		bars[i] = chart.Value{Label: series[i].Year, Value: values[i]}
	}

	graph := chart.BarChart{
		Title:      key.Label(),
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		Width:      960,
		Height:     480,
		BarWidth:   48,
		YAxis: chart.YAxis{
			Name:  engine.BaseUnit,
			Range: &chart.ContinuousRange{Min: bounds.Lower, Max: bounds.Upper},
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return engine.FormatMagnitude(f)
				}
				return ""
			},
		},
		Bars: bars,
	}

	provider := chart.SVG
	if format == FormatPNG {
		provider = chart.PNG
	}
	if err := graph.Render(provider, w); err != nil {
		return fmt.Errorf("failed to render %s chart: %w", format, err)
	}
	return nil
}
