package results

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/dustin/go-humanize"

	"github.com/FathimaMehrinVS/FixTheGap/internal/predict"
	"github.com/FathimaMehrinVS/FixTheGap/internal/session"
)

// significantGap is the absolute currency threshold below which a gap is
// presented as "no significant gap" regardless of its percentage.
const significantGap = 2000.0

// Salary band ratios relative to market.
const (
	entryRatio  = 0.66
	medianRatio = 0.85
	seniorRatio = 1.38
)

// FormContext mirrors the persisted form fields the view renders labels from.
type FormContext struct {
	Role         string   `json:"role"`
	Location     string   `json:"location"`
	Industry     string   `json:"industry"`
	Experience   string   `json:"experience"`
	Gender       string   `json:"gender"`
	ActualSalary *float64 `json:"actualSalary"`
}

// Bars holds the proportional widths (percent) for the animated chart pass.
type Bars struct {
	Market     int `json:"market"`
	Adjusted   int `json:"adjusted"`
	Gap        int `json:"gap"`
	Percentile int `json:"percentile"`
}

// View is the fully computed results page model.
type View struct {
	Demo    bool   `json:"demo"`
	Error   string `json:"error,omitempty"`
	Context string `json:"context"`
	Source  string `json:"source,omitempty"`

	Market   float64 `json:"market"`
	Adjusted float64 `json:"adjusted"`
	Diff     float64 `json:"diff"`
	GapPct   string  `json:"gap_pct"`

	MarketDisplay   string `json:"market_display"`
	AdjustedDisplay string `json:"adjusted_display"`
	DiffDisplay     string `json:"diff_display"`
	GapDisplay      string `json:"gap_display"`
	GapSubText      string `json:"gap_sub_text"`

	HasGap     bool   `json:"has_gap"`
	AlertTitle string `json:"alert_title"`
	AlertBody  string `json:"alert_body"`

	EntryBand  string `json:"entry_band"`
	MedianBand string `json:"median_band"`
	SeniorBand string `json:"senior_band"`

	ActualSalaryDisplay string `json:"actual_salary_display,omitempty"`

	Percentile      int    `json:"percentile"`
	PercentileLabel string `json:"percentile_label"`

	Bars Bars `json:"bars"`
}

// estimate is the normalized input to rendering, one step past the payload
// union.
type estimate struct {
	market        float64
	adjusted      float64
	diff          float64
	gapPct        string
	gapPctDisplay string
	gapSubText    string
}

// Load reads the persisted session state and builds the results view. A
// session with no stored outcome renders the fixed demo dataset.
func Load(store *session.Store, sessionID string) (View, error) {
	outcome, err := store.GetOutcome(sessionID)
	if errors.Is(err, session.ErrNotFound) {
		return demoView(), nil
	}
	if err != nil {
		return View{}, err
	}

	form := FormContext{Role: "Role", Location: "Location", Industry: "Industry", Experience: "0"}
	if sub, err := store.GetSubmission(sessionID); err == nil {
		form = FormContext{
			Role:         sub.Role,
			Location:     sub.Location,
			Industry:     sub.Industry,
			Experience:   sub.Experience,
			Gender:       sub.Gender,
			ActualSalary: sub.ActualSalary,
		}
	}

	return Build(form, []byte(outcome.PayloadJSON)), nil
}

// Build classifies the stored payload (error, backend, or legacy shape) and
// renders the view model.
func Build(form FormContext, payload []byte) View {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(payload, &raw); err != nil {
		return renderError(form, "Stored result could not be read.")
	}

	if msg, ok := raw["error"]; ok {
		var text string
		if err := json.Unmarshal(msg, &text); err != nil {
			text = string(msg)
		}
		return renderError(form, text)
	}

	if _, ok := raw["predicted_salary"]; ok {
		return renderBackend(form, payload)
	}

	return renderLegacy(form, payload)
}

func renderError(form FormContext, message string) View {
	view := render(form, estimate{gapPct: "0.0"}, false, "API")
	view.Error = message
	view.AlertTitle = "Prediction Error"
	view.AlertBody = message
	return view
}

func renderBackend(form FormContext, payload []byte) View {
	parsed, err := predict.ParsePayload(payload)
	if err != nil {
		return renderError(form, "Stored result could not be read.")
	}
	normalized, source := predict.Normalize(parsed)

	est := estimate{
		market:   normalized.Market,
		adjusted: normalized.Adjusted,
		diff:     normalized.Diff,
		gapPct:   normalized.GapPct,
	}

	// An actual salary supplied on the form switches the gap to the
	// actual-vs-predicted comparison.
	if form.ActualSalary != nil && *form.ActualSalary > 0 && normalized.Predicted > 0 {
		actual := *form.ActualSalary
		deltaPct := (actual - normalized.Predicted) / normalized.Predicted * 100
		delta := actual - normalized.Predicted
		direction := "above"
		if delta < 0 {
			direction = "below"
		}
		est.diff = math.Abs(delta)
		est.gapPct = strconv.FormatFloat(math.Abs(deltaPct), 'f', 1, 64)
		est.gapPctDisplay = strconv.FormatFloat(deltaPct, 'f', 1, 64) + "%"
		est.gapSubText = fmt.Sprintf("~ %s %s predicted", formatMoney(math.Abs(delta)), direction)
	}

	return render(form, est, false, source)
}

func renderLegacy(form FormContext, payload []byte) View {
	var legacy struct {
		Role       string `json:"role"`
		Location   string `json:"location"`
		Industry   string `json:"industry"`
		Experience any    `json:"experience"`
		Result     struct {
			Market   float64 `json:"market"`
			Adjusted float64 `json:"adjusted"`
			Diff     float64 `json:"diff"`
			GapPct   string  `json:"gapPct"`
		} `json:"result"`
		APISource string `json:"apiSource"`
	}
	if err := json.Unmarshal(payload, &legacy); err != nil {
		return renderError(form, "Stored result could not be read.")
	}

	legacyForm := FormContext{
		Role:         legacy.Role,
		Location:     legacy.Location,
		Industry:     legacy.Industry,
		Experience:   fmt.Sprintf("%v", legacy.Experience),
		ActualSalary: form.ActualSalary,
	}
	est := estimate{
		market:   legacy.Result.Market,
		adjusted: legacy.Result.Adjusted,
		diff:     legacy.Result.Diff,
		gapPct:   legacy.Result.GapPct,
	}
	return render(legacyForm, est, false, legacy.APISource)
}

func demoView() View {
	form := FormContext{
		Role:       "Senior Software Engineer",
		Location:   "San Francisco, CA",
		Industry:   "Tech / Software",
		Experience: "7",
	}
	est := estimate{market: 195000, adjusted: 167000, diff: 28000, gapPct: "14.4"}
	return render(form, est, true, "")
}

func render(form FormContext, est estimate, demo bool, source string) View {
	if est.gapPct == "" {
		est.gapPct = "0.0"
	}

	context := fmt.Sprintf("%s - %s - %s yrs - %s", form.Role, form.Location, form.Experience, form.Industry)
	if source != "" {
		context += " - Source: " + source
	}

	hasGap := est.diff > significantGap

	view := View{
		Demo:     demo,
		Context:  context,
		Source:   source,
		Market:   est.market,
		Adjusted: est.adjusted,
		Diff:     est.diff,
		GapPct:   est.gapPct,

		MarketDisplay:   formatMoney(est.market),
		AdjustedDisplay: formatMoney(est.adjusted),
		DiffDisplay:     formatMoney(est.diff),

		HasGap: hasGap,

		EntryBand:  formatMoney(math.Round(est.market * entryRatio)),
		MedianBand: formatMoney(math.Round(est.market * medianRatio)),
		SeniorBand: formatMoney(math.Round(est.market * seniorRatio)),
	}

	if hasGap {
		view.GapDisplay = est.gapPctDisplay
		if view.GapDisplay == "" {
			view.GapDisplay = "-" + est.gapPct + "%"
		}
		view.GapSubText = est.gapSubText
		if view.GapSubText == "" {
			view.GapSubText = fmt.Sprintf("~ %s less/yr", formatMoney(est.diff))
		}
		view.AlertTitle = fmt.Sprintf("%s%% Pay Gap Detected", est.gapPct)
		view.AlertBody = fmt.Sprintf(
			"Based on your role, location, and %s years of experience, you may be earning approximately %s less per year than your male counterpart in %s.",
			form.Experience, formatMoney(est.diff), form.Location)
	} else {
		view.GapDisplay = "~ None"
		view.GapSubText = "Aligned with market"
		view.AlertTitle = "No Significant Gap Detected"
		view.AlertBody = "Your estimated salary aligns with market benchmarks for your role and location."
	}

	if form.ActualSalary != nil && *form.ActualSalary > 0 {
		view.ActualSalaryDisplay = formatMoney(*form.ActualSalary)
	}

	adjPct := 0
	if est.market > 0 {
		adjPct = int(math.Round(est.adjusted / est.market * 100))
	}
	gapBar := 0
	if est.market > 0 {
		gapBar = int(math.Round(est.diff / est.market * 100))
	}
	pctile := int(math.Round(float64(adjPct) * 0.6))

	view.Percentile = pctile
	if est.market > 0 {
		view.PercentileLabel = fmt.Sprintf("You ~ %dth percentile", pctile)
	} else {
		view.PercentileLabel = "You ~ N/A percentile"
	}
	view.Bars = Bars{Market: 100, Adjusted: adjPct, Gap: gapBar, Percentile: pctile}

	return view
}

func formatMoney(v float64) string {
	return "$" + humanize.Comma(int64(math.Round(v)))
}
