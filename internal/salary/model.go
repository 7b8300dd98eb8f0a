package salary

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
)

// Estimate is the canonical local salary estimate.
type Estimate struct {
	Market   float64 `json:"market"`
	Adjusted float64 `json:"adjusted"`
	Diff     float64 `json:"diff"`
	GapPct   string  `json:"gapPct"`
}

// Model computes deterministic market estimates with a randomized gender
// gap adjustment. The random source is injected so callers control seeding.
type Model struct {
	tables Tables
	rng    *rand.Rand
}

const (
	defaultBase    = 140000.0
	perYearPremium = 2000.0
	maleGap        = 0.005
)

// NewModel constructs a model over the supplied tables. A nil rng falls back
// to a fixed-seed source.
func NewModel(tables Tables, rng *rand.Rand) *Model {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return &Model{tables: tables, rng: rng}
}

// Compute estimates market and gender-adjusted salaries for the inputs.
// Unknown roles use the default base and unknown locations multiplier 1.0,
// so the function is total. Female and Non-binary draws are randomized:
// identical inputs may yield different adjusted values.
func (m *Model) Compute(role, location string, experienceYears float64, gender string) Estimate {
	base, ok := m.tables.RoleBase[strings.TrimSpace(role)]
	if !ok {
		base = defaultBase
	}
	mult, ok := m.tables.LocationMultiplier[strings.TrimSpace(location)]
	if !ok {
		mult = 1.0
	}
	years := experienceYears
	if math.IsNaN(years) || years < 0 {
		years = 0
	}

	market := roundTo500(base*mult + years*perYearPremium)
	gap := m.gapFraction(gender)
	adjusted := roundTo500(market * (1 - gap))

	return Estimate{
		Market:   market,
		Adjusted: adjusted,
		Diff:     market - adjusted,
		GapPct:   fmt.Sprintf("%.1f", gap*100),
	}
}

func (m *Model) gapFraction(gender string) float64 {
	switch gender {
	case "Female":
		return 0.12 + m.rng.Float64()*0.07
	case "Non-binary":
		return 0.07 + m.rng.Float64()*0.05
	default:
		return maleGap
	}
}

func roundTo500(v float64) float64 {
	return math.Round(v/500) * 500
}
