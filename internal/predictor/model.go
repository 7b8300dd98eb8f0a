package predictor

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
)

// Model is a linear salary regression restored from exported parameters,
// with label encoders for the categorical features. Feature order is
// [experience, role, gender].
type Model struct {
	coef      []float64
	intercept float64
	genders   *labelEncoder
	roles     *labelEncoder
}

const (
	paramsFile        = "linear_model_params.json"
	genderEncoderFile = "gender_encoder.json"
	roleEncoderFile   = "role_encoder.json"
)

type modelParams struct {
	Coef      []float64 `json:"coef"`
	Intercept float64   `json:"intercept"`
	Features  []string  `json:"features"`
}

type encoderParams struct {
	Classes []string `json:"classes"`
}

// Load reads the model parameter and encoder files from dir.
func Load(dir string) (*Model, error) {
	var params modelParams
	if err := readJSON(filepath.Join(dir, paramsFile), &params); err != nil {
		return nil, err
	}
	if len(params.Coef) != 3 {
		return nil, fmt.Errorf("model expects 3 coefficients, got %d", len(params.Coef))
	}

	var genders encoderParams
	if err := readJSON(filepath.Join(dir, genderEncoderFile), &genders); err != nil {
		return nil, err
	}
	var roles encoderParams
	if err := readJSON(filepath.Join(dir, roleEncoderFile), &roles); err != nil {
		return nil, err
	}

	return &Model{
		coef:      params.Coef,
		intercept: params.Intercept,
		genders:   newLabelEncoder(genders.Classes),
		roles:     newLabelEncoder(roles.Classes),
	}, nil
}

// Predict evaluates the regression for one input. Unknown categorical labels
// are an error, matching the encoder behaviour of the training pipeline.
func (m *Model) Predict(gender, role string, experience int) (float64, error) {
	genderEnc, err := m.genders.transform(gender)
	if err != nil {
		return 0, err
	}
	roleEnc, err := m.roles.transform(role)
	if err != nil {
		return 0, err
	}
	value := m.intercept +
		m.coef[0]*float64(experience) +
		m.coef[1]*float64(roleEnc) +
		m.coef[2]*float64(genderEnc)
	return round2(value), nil
}

// Result is one enriched prediction response: the male-baseline estimate,
// the requested-gender estimate, and their gap.
type Result struct {
	Predicted float64
	Adjusted  float64
	PayGap    float64
}

// Evaluate computes the prediction pair for a request. The baseline uses the
// "male" encoding when present; otherwise the requested gender stands in and
// the gap collapses to zero.
func (m *Model) Evaluate(gender, role string, experience int) (Result, error) {
	adjusted, err := m.Predict(gender, role, experience)
	if err != nil {
		return Result{}, err
	}
	predicted := adjusted
	if _, baselineErr := m.genders.transform("male"); baselineErr == nil {
		predicted, err = m.Predict("male", role, experience)
		if err != nil {
			return Result{}, err
		}
	}
	return Result{
		Predicted: predicted,
		Adjusted:  adjusted,
		PayGap:    math.Max(round2(predicted-adjusted), 0),
	}, nil
}

// Roles lists the known role classes in encoder order.
func (m *Model) Roles() []string {
	return append([]string(nil), m.roles.classes...)
}

// Genders lists the known gender classes in encoder order.
func (m *Model) Genders() []string {
	return append([]string(nil), m.genders.classes...)
}

// labelEncoder mirrors sklearn's LabelEncoder: classes sorted, encoding is
// the index within the sorted list.
type labelEncoder struct {
	classes []string
	index   map[string]int
}

func newLabelEncoder(classes []string) *labelEncoder {
	sorted := append([]string(nil), classes...)
	sort.Strings(sorted)
	index := make(map[string]int, len(sorted))
	for i, class := range sorted {
		index[class] = i
	}
	return &labelEncoder{classes: sorted, index: index}
}

func (e *labelEncoder) transform(label string) (int, error) {
	if enc, ok := e.index[label]; ok {
		return enc, nil
	}
	return 0, fmt.Errorf("y contains previously unseen labels: ['%s']", label)
}

func readJSON(path string, out any) error {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("read model file: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("unmarshal %s: %w", filepath.Base(path), err)
	}
	return nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
