// Package engine holds the emission aggregation and derived-metrics logic.
// Every function here is synchronous and never returns an error; missing
// values surface as the ok=false sentinel and bad calculator input as NaN.
package engine

import (
	"emissions-platform/internal/models"
)

// Shape identifies which record layout a value is being resolved from
type Shape int

const (
	ShapeEntity Shape = iota
	ShapeYear
)

func (s Shape) String() string {
	switch s {
	case ShapeEntity:
		return "entity"
	case ShapeYear:
		return "year"
	default:
		return "unknown"
	}
}

// yearLabels maps the display-style labels of the year dataset to canonical keys
var yearLabels = map[string]models.MetricKey{
	"fuel emission":         models.MetricFuelEmission,
	"electricity emission":  models.MetricElectricityEmission,
	"total emission":        models.MetricTotalEmission,
	"methane emission (m3)": models.MetricMethaneEmission,
}

var yearLabelOrder = []string{
	"fuel emission",
	"electricity emission",
	"total emission",
	"methane emission (m3)",
}

// CanonicalKey translates a year-dataset label into its canonical metric key
func CanonicalKey(label string) (models.MetricKey, bool) {
	key, ok := yearLabels[label]
	return key, ok
}

// ResolveEntity returns the field of rec named by key.
// ok is false for an unrecognized key.
func ResolveEntity(rec *models.EntityRecord, key models.MetricKey) (value float64, ok bool) {
	switch key {
	case models.MetricTotalEmission:
		return rec.TotalEmission, true
	case models.MetricMethaneEmission:
		return rec.MethaneEmission, true
	case models.MetricFuelEmission:
		return rec.FuelEmission, true
	case models.MetricElectricityEmission:
		return rec.ElectricityEmission, true
	default:
		return 0, false
	}
}

// ResolveYear returns the field of a canonicalized year record named by key
func ResolveYear(rec *models.YearRecord, key models.MetricKey) (value float64, ok bool) {
	switch key {
	case models.MetricTotalEmission:
		return rec.TotalEmission, true
	case models.MetricMethaneEmission:
		return rec.MethaneEmission, true
	case models.MetricFuelEmission:
		return rec.FuelEmission, true
	case models.MetricElectricityEmission:
		return rec.ElectricityEmission, true
	default:
		return 0, false
	}
}

// ResolveRawYear resolves key against a year entry that still uses display labels.
// A label missing from the entry resolves the same as an unknown key.
func ResolveRawYear(entry *models.RawYearEntry, key models.MetricKey) (value float64, ok bool) {
	for label, canonical := range yearLabels {
		if canonical != key {
			continue
		}
		v, present := entry.Fields[label]
		return v, present
	}
	return 0, false
}

// Resolve dispatches on shape. rec must be *models.EntityRecord for ShapeEntity
// and *models.YearRecord or *models.RawYearEntry for ShapeYear; anything else
// resolves to no value.
func Resolve(rec interface{}, shape Shape, key models.MetricKey) (value float64, ok bool) {
	switch shape {
	case ShapeEntity:
		if r, isEntity := rec.(*models.EntityRecord); isEntity {
			return ResolveEntity(r, key)
		}
	case ShapeYear:
		switch r := rec.(type) {
		case *models.YearRecord:
			return ResolveYear(r, key)
		case *models.RawYearEntry:
			return ResolveRawYear(r, key)
		}
	}
	return 0, false
}

// MissingYearLabels lists the translation-table labels absent from entry,
// in table order. An entry with any missing label has no value for that metric.
func MissingYearLabels(entry *models.RawYearEntry) []string {
	var missing []string
	for _, label := range yearLabelOrder {
		if _, ok := entry.Fields[label]; !ok {
			missing = append(missing, label)
		}
	}
	return missing
}

// CanonicalizeYears converts display-labelled year entries into YearRecords,
// keeping dataset order. Labels outside the translation table are ignored and
// missing ones read as zero; callers drop such entries with MissingYearLabels.
func CanonicalizeYears(raw models.RawYearDataset) []models.YearRecord {
	records := make([]models.YearRecord, 0, len(raw))
	for i := range raw {
		rec := models.YearRecord{Year: raw[i].Label}
		for label, v := range raw[i].Fields {
			key, ok := CanonicalKey(label)
			if !ok {
				continue
			}
			switch key {
			case models.MetricFuelEmission:
				rec.FuelEmission = v
			case models.MetricElectricityEmission:
				rec.ElectricityEmission = v
			case models.MetricTotalEmission:
				rec.TotalEmission = v
			case models.MetricMethaneEmission:
				rec.MethaneEmission = v
			}
		}
		records = append(records, rec)
	}
	return records
}
