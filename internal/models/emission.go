package models

import (
	"fmt"
	"math"
	"strings"
)

// MetricKey is the canonical, shape-independent name of a measured quantity
type MetricKey string

const (
	MetricTotalEmission       MetricKey = "total_emission"
	MetricMethaneEmission     MetricKey = "methane_emission"
	MetricFuelEmission        MetricKey = "fuel_emission"
	MetricElectricityEmission MetricKey = "electricity_emission"
)

// AllMetricKeys lists every canonical metric key in display order
func AllMetricKeys() []MetricKey {
	return []MetricKey{
		MetricTotalEmission,
		MetricFuelEmission,
		MetricElectricityEmission,
		MetricMethaneEmission,
	}
}

// ParseMetricKey returns the canonical key for s and whether it is recognized
func ParseMetricKey(s string) (MetricKey, bool) {
	key := MetricKey(strings.TrimSpace(s))
	for _, k := range AllMetricKeys() {
		if k == key {
			return k, true
		}
	}
	return key, false
}

// Label returns the human-readable name used by selection menus
func (k MetricKey) Label() string {
	switch k {
	case MetricTotalEmission:
		return "Total Carbon Emission"
	case MetricFuelEmission:
		return "Fuel Emission"
	case MetricElectricityEmission:
		return "Electricity Emission"
	case MetricMethaneEmission:
		return "Methane Emission"
	default:
		return string(k)
	}
}

// EntityRecord is one mine's activity record, loaded once at ingest.
// TotalEmission is stored as delivered; totals never read it and derive
// fuel+electricity instead, so the two may disagree.
type EntityRecord struct {
	ID                  int64   `json:"id" db:"id"`
	Name                string  `json:"name" db:"name"`
	FuelEmission        float64 `json:"fuel_emission" db:"fuel_emission"`
	ElectricityEmission float64 `json:"electricity_emission" db:"electricity_emission"`
	MethaneEmission     float64 `json:"methane_emission" db:"methane_emission"`
	TotalEmission       float64 `json:"total_emission" db:"total_emission"`
}

// YearRecord is one year of aggregate measurements after canonicalization
type YearRecord struct {
	Year                string  `json:"year" db:"year"`
	FuelEmission        float64 `json:"fuel_emission" db:"fuel_emission"`
	ElectricityEmission float64 `json:"electricity_emission" db:"electricity_emission"`
	TotalEmission       float64 `json:"total_emission" db:"total_emission"`
	MethaneEmission     float64 `json:"methane_emission" db:"methane_emission"`
}

// YearDatasetKind distinguishes the observed yearly dataset from the predicted one
type YearDatasetKind string

const (
	YearDatasetObserved  YearDatasetKind = "observed"
	YearDatasetPredicted YearDatasetKind = "predicted"
)

// BreakdownRow is the per-entity projection of the three base emission components
type BreakdownRow struct {
	Name                string  `json:"name"`
	FuelEmission        float64 `json:"fuel_emission"`
	ElectricityEmission float64 `json:"electricity_emission"`
	MethaneEmission     float64 `json:"methane_emission"`
}

// RawEntityRecord is one element of the entity dataset as delivered.
// Older exports name the identifier "sno" and the entity "mine_name".
type RawEntityRecord struct {
	ID                  *int64   `json:"id"`
	Sno                 *int64   `json:"sno"`
	Name                string   `json:"name"`
	MineName            string   `json:"mine_name"`
	FuelEmission        *float64 `json:"fuel_emission"`
	ElectricityEmission *float64 `json:"electricity_emission"`
	MethaneEmission     *float64 `json:"methane_emission"`
	TotalEmission       *float64 `json:"total_emission"`
}

// ToEntity converts a raw row into an EntityRecord.
// position is the zero-based index in the dataset and becomes the ID when none is given.
func (r *RawEntityRecord) ToEntity(position int) (*EntityRecord, error) {
	rec := &EntityRecord{
		ID:   int64(position) + 1,
		Name: strings.TrimSpace(r.Name),
	}

	switch {
	case r.ID != nil:
		rec.ID = *r.ID
	case r.Sno != nil:
		rec.ID = *r.Sno
	}

	if rec.Name == "" {
		rec.Name = strings.TrimSpace(r.MineName)
	}
	if rec.Name == "" {
		return nil, &ValidationError{
			Field:   "name",
			Value:   "",
			Message: fmt.Sprintf("record %d has no name", position),
		}
	}

	required := []struct {
		field string
		src   *float64
		dst   *float64
	}{
		{"fuel_emission", r.FuelEmission, &rec.FuelEmission},
		{"electricity_emission", r.ElectricityEmission, &rec.ElectricityEmission},
		{"methane_emission", r.MethaneEmission, &rec.MethaneEmission},
	}
	for _, f := range required {
		if f.src == nil {
			return nil, &ValidationError{
				Field:   f.field,
				Value:   "",
				Message: fmt.Sprintf("record %q is missing %s", rec.Name, f.field),
			}
		}
		if err := checkQuantity(f.field, *f.src); err != nil {
			return nil, err
		}
		*f.dst = *f.src
	}

	// The stored total is optional and never cross-checked against its components.
	if r.TotalEmission != nil {
		if err := checkQuantity("total_emission", *r.TotalEmission); err != nil {
			return nil, err
		}
		rec.TotalEmission = *r.TotalEmission
	}

	return rec, nil
}

func checkQuantity(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return &ValidationError{
			Field:   field,
			Value:   fmt.Sprintf("%v", v),
			Message: fmt.Sprintf("%s must be a non-negative finite number, got %v", field, v),
		}
	}
	return nil
}

// RawYearEntry is one year of the year-keyed dataset, still under display-style labels
type RawYearEntry struct {
	Label  string
	Fields map[string]float64
}

// RawYearDataset keeps the entries in the order they appear in the source document
type RawYearDataset []RawYearEntry

// ValidationError represents a data validation error
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsTransient returns false as validation errors are permanent
func (e *ValidationError) IsTransient() bool {
	return false
}
