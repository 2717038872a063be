package engine

import (
	"fmt"
	"math"
	"strconv"

	"emissions-platform/internal/models"
)

// BaseUnit is appended to every formatted magnitude
const BaseUnit = "tons CO2e"

// Series is the ordered yearly sequence fed to chart consumers.
// Order is the order of the source dataset, not chronological.
type Series []models.YearRecord

// BuildSeries copies records into a Series without reordering them
func BuildSeries(records []models.YearRecord) Series {
	series := make(Series, len(records))
	copy(series, records)
	return series
}

// Values projects the series onto key. ok is false for an unknown key.
func (s Series) Values(key models.MetricKey) (values []float64, ok bool) {
	values = make([]float64, 0, len(s))
	for i := range s {
		v, resolved := ResolveYear(&s[i], key)
		if !resolved {
			return nil, false
		}
		values = append(values, v)
	}
	return values, true
}

// Bounds is a value-axis range
type Bounds struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// Domain computes the value-axis range for key over the series. The lower
// bound sits 5% below the minimum and the upper bound is the maximum itself.
// ok is false when the key is unknown or the series is empty.
func Domain(series Series, key models.MetricKey) (Bounds, bool) {
	values, ok := series.Values(key)
	if !ok || len(values) == 0 {
		return Bounds{}, false
	}
	return DomainOf(values), true
}

// DomainOf applies the domain padding rule to a non-empty slice of values
func DomainOf(values []float64) Bounds {
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}

	var lower float64
	if lo > 0 {
		lower = lo * 0.95
	} else {
		lower = lo - math.Abs(lo)*0.05
	}

	return Bounds{Lower: lower, Upper: hi}
}

// FormatMagnitude renders an axis value as millions, thousands or the raw value
func FormatMagnitude(v float64) string {
	switch {
	case v >= 1_000_000:
		return fmt.Sprintf("%.1fM %s", v/1_000_000, BaseUnit)
	case v >= 1_000:
		return fmt.Sprintf("%.1fK %s", v/1_000, BaseUnit)
	default:
		return strconv.FormatFloat(v, 'f', -1, 64) + " " + BaseUnit
	}
}

// MagnitudeLabels formats every value of key in the series
func MagnitudeLabels(series Series, key models.MetricKey) ([]string, bool) {
	values, ok := series.Values(key)
	if !ok {
		return nil, false
	}
	labels := make([]string, len(values))
	for i, v := range values {
		labels[i] = FormatMagnitude(v)
	}
	return labels, true
}
