package predict

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Estimate is the canonical normalized prediction result.
type Estimate struct {
	Market    float64 `json:"market"`
	Adjusted  float64 `json:"adjusted"`
	Diff      float64 `json:"diff"`
	GapPct    string  `json:"gapPct"`
	Predicted float64 `json:"predicted"`
}

// Payload is the duck-typed /predict response body. Fields arrive as any JSON
// scalar and are coerced during normalization.
type Payload struct {
	Error        string
	PredictedRaw any
	AdjustedRaw  any
	PayGapRaw    any
	TavilyAvgRaw any
	TavilySource string
	HasPredicted bool
}

// ParsePayload decodes a response body into the tolerant payload form.
func ParsePayload(body []byte) (Payload, error) {
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return Payload{}, fmt.Errorf("decode prediction response: %w", err)
	}

	var payload Payload
	if v, ok := raw["error"]; ok && v != nil {
		payload.Error = fmt.Sprintf("%v", v)
	}
	payload.PredictedRaw, payload.HasPredicted = raw["predicted_salary"]
	payload.AdjustedRaw = raw["gender_adjusted_salary"]
	payload.PayGapRaw = raw["pay_gap"]
	if tavily, ok := raw["tavily_data"].(map[string]any); ok {
		payload.TavilyAvgRaw = tavily["average_salary"]
		if src, ok := tavily["source"].(string); ok {
			payload.TavilySource = src
		}
	}
	return payload, nil
}

// Normalize collapses the heterogeneous payload into the canonical estimate
// plus a source label. All coercions default rather than fail: predicted
// falls back to 0, adjusted to predicted, diff to max(predicted-adjusted, 0),
// and market to predicted when no positive average salary was supplied.
func Normalize(payload Payload) (Estimate, string) {
	predicted := coerceNumber(payload.PredictedRaw, 0)
	adjusted := coerceNumber(payload.AdjustedRaw, 0)
	if adjusted == 0 {
		adjusted = predicted
	}

	diff := math.Max(predicted-adjusted, 0)
	if payGap, ok := finiteNumber(payload.PayGapRaw); ok {
		diff = payGap
	}

	market := predicted
	if avg, ok := finiteNumber(payload.TavilyAvgRaw); ok && avg > 0 {
		market = avg
	}

	gapPct := "0.0"
	if predicted > 0 {
		gapPct = strconv.FormatFloat(diff/predicted*100, 'f', 1, 64)
	}

	source := payload.TavilySource
	if source == "" {
		source = "API"
	}

	return Estimate{
		Market:    market,
		Adjusted:  adjusted,
		Diff:      diff,
		GapPct:    gapPct,
		Predicted: predicted,
	}, source
}

func coerceNumber(raw any, fallback float64) float64 {
	if v, ok := finiteNumber(raw); ok {
		return v
	}
	return fallback
}

func finiteNumber(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return v, true
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0, false
		}
		return parsed, true
	case string:
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil || math.IsNaN(parsed) || math.IsInf(parsed, 0) {
			return 0, false
		}
		return parsed, true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}
