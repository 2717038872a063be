package engine

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"emissions-platform/internal/models"
)

// Summary is the aggregate view of the entity dataset
type Summary struct {
	TotalCarbonEmissions      float64               `json:"totalCarbonEmissions"`
	TotalMethaneEmissions     float64               `json:"totalMethaneEmissions"`
	TotalFuelEmissions        float64               `json:"totalFuelEmissions"`
	TotalElectricityEmissions float64               `json:"totalElectricityEmissions"`
	Breakdown                 []models.BreakdownRow `json:"breakdown"`
}

// EmptySummary is the state reported when the entity dataset could not be loaded
func EmptySummary() Summary {
	return Summary{Breakdown: []models.BreakdownRow{}}
}

// Total sums key over records. total_emission is always derived as
// fuel+electricity and never read from the stored total field.
// An unknown key or an empty collection yields 0.
func Total(records []models.EntityRecord, key models.MetricKey) float64 {
	var sum float64
	for i := range records {
		rec := &records[i]
		switch key {
		case models.MetricTotalEmission:
			sum += rec.FuelEmission + rec.ElectricityEmission
		default:
			if v, ok := ResolveEntity(rec, key); ok {
				sum += v
			}
		}
	}
	return sum
}

// Breakdown projects each record onto its three base components, in input order
func Breakdown(records []models.EntityRecord) []models.BreakdownRow {
	rows := make([]models.BreakdownRow, len(records))
	for i := range records {
		rows[i] = models.BreakdownRow{
			Name:                records[i].Name,
			FuelEmission:        records[i].FuelEmission,
			ElectricityEmission: records[i].ElectricityEmission,
			MethaneEmission:     records[i].MethaneEmission,
		}
	}
	return rows
}

// Summarize computes the four totals and the breakdown in one pass over records
func Summarize(records []models.EntityRecord) Summary {
	return Summary{
		TotalCarbonEmissions:      Total(records, models.MetricTotalEmission),
		TotalMethaneEmissions:     Total(records, models.MetricMethaneEmission),
		TotalFuelEmissions:        Total(records, models.MetricFuelEmission),
		TotalElectricityEmissions: Total(records, models.MetricElectricityEmission),
		Breakdown:                 Breakdown(records),
	}
}

// InMillions scales a headline total for display
func InMillions(v float64) float64 {
	return v / 1_000_000
}

// Headline holds the four totals in millions of tons
type Headline struct {
	Carbon      float64 `json:"carbon"`
	Methane     float64 `json:"methane"`
	Fuel        float64 `json:"fuel"`
	Electricity float64 `json:"electricity"`
}

// Millions scales the summary totals for headline display
func (s Summary) Millions() Headline {
	return Headline{
		Carbon:      InMillions(s.TotalCarbonEmissions),
		Methane:     InMillions(s.TotalMethaneEmissions),
		Fuel:        InMillions(s.TotalFuelEmissions),
		Electricity: InMillions(s.TotalElectricityEmissions),
	}
}

// TableMetric reports whether key is one of the two metrics selectable in the table view
func TableMetric(key models.MetricKey) bool {
	return key == models.MetricTotalEmission || key == models.MetricMethaneEmission
}

var displayPrinter = message.NewPrinter(language.English)

// FormatDisplay renders v with thousands separators and at most three fraction digits
func FormatDisplay(v float64) string {
	return displayPrinter.Sprint(number.Decimal(v, number.MaxFractionDigits(3)))
}

// CellValue is the table cell text for rec. Only the table metrics produce a
// value; any other key is an empty cell.
func CellValue(rec *models.EntityRecord, key models.MetricKey) string {
	if !TableMetric(key) {
		return ""
	}
	v, ok := ResolveEntity(rec, key)
	if !ok {
		return ""
	}
	return FormatDisplay(v)
}

// EntityNames returns the distinct entity names in first-seen order
func EntityNames(records []models.EntityRecord) []string {
	seen := make(map[string]struct{}, len(records))
	names := make([]string, 0, len(records))
	for i := range records {
		if _, dup := seen[records[i].Name]; dup {
			continue
		}
		seen[records[i].Name] = struct{}{}
		names = append(names, records[i].Name)
	}
	return names
}
