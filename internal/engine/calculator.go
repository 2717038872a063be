package engine

import (
	"fmt"
	"math"
	"math/big"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

// Emission factors applied by the calculator
const (
	CoalFactor        = 2.86
	FuelFactor        = 2.31
	ElectricityFactor = 0.92
	CreditsPerTon     = 10
)

// Input names one user-editable calculator cell
type Input string

const (
	InputCoalProduction         Input = "coal_production"
	InputFuelConsumption        Input = "fuel_consumption"
	InputElectricityConsumption Input = "electricity_consumption"
	InputEmployeeCount          Input = "employee_count"
	InputSelectedEntity         Input = "selected_entity"
)

// ParseInput maps a cell name to an Input
func ParseInput(s string) (Input, bool) {
	switch in := Input(s); in {
	case InputCoalProduction, InputFuelConsumption, InputElectricityConsumption,
		InputEmployeeCount, InputSelectedEntity:
		return in, true
	}
	return "", false
}

// recomputeDeps is the set of inputs whose mutation triggers a recompute.
// The selected entity is deliberately absent.
var recomputeDeps = map[Input]struct{}{
	InputCoalProduction:         {},
	InputFuelConsumption:        {},
	InputElectricityConsumption: {},
	InputEmployeeCount:          {},
}

// Tracks reports whether a change to in recomputes the outputs
func Tracks(in Input) bool {
	_, ok := recomputeDeps[in]
	return ok
}

// Cell is a derived output: unset, or a number that may be NaN or infinite
type Cell struct {
	Value float64
	Set   bool
}

func setCell(v float64) Cell { return Cell{Value: v, Set: true} }

// String renders the cell the way it is displayed: two decimals, NaN,
// Infinity, or empty when unset.
func (c Cell) String() string {
	switch {
	case !c.Set:
		return ""
	case math.IsNaN(c.Value):
		return "NaN"
	case math.IsInf(c.Value, 1):
		return "Infinity"
	case math.IsInf(c.Value, -1):
		return "-Infinity"
	default:
		return strconv.FormatFloat(c.Value, 'f', 2, 64)
	}
}

// MarshalJSON encodes an unset cell as null, non-finite values as strings
// and finite values as numbers.
func (c Cell) MarshalJSON() ([]byte, error) {
	switch {
	case !c.Set:
		return []byte("null"), nil
	case math.IsNaN(c.Value) || math.IsInf(c.Value, 0):
		return json.Marshal(c.String())
	default:
		return []byte(c.String()), nil
	}
}

// Outputs are the three derived calculator cells
type Outputs struct {
	TotalEmission     Cell `json:"total_emission"`
	PerCapitaEmission Cell `json:"per_capita_emission"`
	CarbonCredits     Cell `json:"carbon_credits"`
}

// Calculator owns one session's input and output cells. It is not safe for
// concurrent use; callers serialize access per instance.
type Calculator struct {
	inputs     map[Input]string
	outputs    Outputs
	recomputes int
}

// NewCalculator returns a calculator with every cell unset
func NewCalculator() *Calculator {
	return &Calculator{inputs: make(map[Input]string)}
}

// Set stores raw text into an input cell and recomputes when the cell is tracked
func (c *Calculator) Set(in Input, raw string) {
	c.inputs[in] = raw
	if Tracks(in) {
		c.recompute()
	}
}

// Clear unsets an input cell and recomputes when the cell is tracked
func (c *Calculator) Clear(in Input) {
	delete(c.inputs, in)
	if Tracks(in) {
		c.recompute()
	}
}

// SelectEntity sets the reference entity. It never affects the outputs.
func (c *Calculator) SelectEntity(name string) {
	c.Set(InputSelectedEntity, name)
}

// Input returns the raw text of a cell and whether it is set
func (c *Calculator) Input(in Input) (string, bool) {
	v, ok := c.inputs[in]
	return v, ok
}

// Inputs returns a copy of the set input cells
func (c *Calculator) Inputs() map[Input]string {
	out := make(map[Input]string, len(c.inputs))
	for k, v := range c.inputs {
		out[k] = v
	}
	return out
}

// Outputs returns the current derived cells
func (c *Calculator) Outputs() Outputs {
	return c.outputs
}

// Recomputes counts how many times the outputs have been derived
func (c *Calculator) Recomputes() int {
	return c.recomputes
}

func (c *Calculator) recompute() {
	c.recomputes++

	coal := parseFloat(c.inputs[InputCoalProduction])
	fuel := parseFloat(c.inputs[InputFuelConsumption])
	elec := parseFloat(c.inputs[InputElectricityConsumption])

	total := round2(coal*CoalFactor + fuel*FuelFactor + elec*ElectricityFactor)
	c.outputs.TotalEmission = setCell(total)
	c.outputs.CarbonCredits = setCell(round2(total * CreditsPerTon))

	// An empty employee count leaves the previous per-capita value in place.
	if employees := c.inputs[InputEmployeeCount]; employees != "" {
		c.outputs.PerCapitaEmission = setCell(round2(total / parseInt(employees)))
	}
}

var (
	floatPrefix = regexp.MustCompile(`^[+-]?(Infinity|(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?)`)
	intPrefix   = regexp.MustCompile(`^[+-]?\d+`)
	hexPrefix   = regexp.MustCompile(`^([+-]?)0[xX]([0-9a-fA-F]*)`)
)

// parseFloat reads the longest numeric prefix of s after leading whitespace.
// Unset or non-numeric text is NaN.
func parseFloat(s string) float64 {
	m := floatPrefix.FindString(strings.TrimSpace(s))
	if m == "" {
		return math.NaN()
	}
	if strings.HasSuffix(m, "Infinity") {
		if strings.HasPrefix(m, "-") {
			return math.Inf(-1)
		}
		return math.Inf(1)
	}
	// overflow yields ±Inf alongside a range error, which is the wanted value
	v, _ := strconv.ParseFloat(m, 64)
	return v
}

// parseInt reads the leading integer of s, in hex after a 0x prefix;
// anything else is NaN
func parseInt(s string) float64 {
	s = strings.TrimSpace(s)
	if h := hexPrefix.FindStringSubmatch(s); h != nil {
		n, ok := new(big.Int).SetString(h[1]+h[2], 16)
		if !ok {
			return math.NaN()
		}
		v, _ := new(big.Float).SetInt(n).Float64()
		return v
	}

	m := intPrefix.FindString(s)
	if m == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// round2 rounds half away from zero to two decimals. Non-finite values pass through.
func round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	r, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return r
}

// Describe is a one-line rendering of the outputs for logs and the CLI
func (o Outputs) Describe() string {
	return fmt.Sprintf("total=%s per_capita=%s credits=%s",
		o.TotalEmission, o.PerCapitaEmission, o.CarbonCredits)
}
