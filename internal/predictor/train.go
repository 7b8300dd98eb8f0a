package predictor

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
)

// TrainingRow is one labelled salary observation.
type TrainingRow struct {
	Gender     string
	Role       string
	Experience float64
	Salary     float64
}

// Fit trains the linear regression on the supplied rows and returns a ready
// model. Categorical features are label-encoded the same way Load expects.
func Fit(rows []TrainingRow) (*Model, error) {
	if len(rows) < 4 {
		return nil, errors.New("need at least 4 training rows")
	}

	genders := newLabelEncoder(uniqueLabels(rows, func(r TrainingRow) string { return r.Gender }))
	roles := newLabelEncoder(uniqueLabels(rows, func(r TrainingRow) string { return r.Role }))

	// Ordinary least squares via the normal equations: X has columns
	// [1, experience, role_encoded, gender_encoded].
	const dims = 4
	var xtx [dims][dims]float64
	var xty [dims]float64

	for _, row := range rows {
		genderEnc, err := genders.transform(row.Gender)
		if err != nil {
			return nil, err
		}
		roleEnc, err := roles.transform(row.Role)
		if err != nil {
			return nil, err
		}
		x := [dims]float64{1, row.Experience, float64(roleEnc), float64(genderEnc)}
		for i := 0; i < dims; i++ {
			for j := 0; j < dims; j++ {
				xtx[i][j] += x[i] * x[j]
			}
			xty[i] += x[i] * row.Salary
		}
	}

	theta, err := solveLinearSystem(xtx, xty)
	if err != nil {
		return nil, err
	}

	return &Model{
		coef:      []float64{theta[1], theta[2], theta[3]},
		intercept: theta[0],
		genders:   genders,
		roles:     roles,
	}, nil
}

// Save writes the model parameter and encoder files into dir.
func (m *Model) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create model directory: %w", err)
	}
	params := modelParams{
		Coef:      m.coef,
		Intercept: m.intercept,
		Features:  []string{"experience", "role_encoded", "gender_encoded"},
	}
	if err := writeJSON(filepath.Join(dir, paramsFile), params); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(dir, genderEncoderFile), encoderParams{Classes: m.genders.classes}); err != nil {
		return err
	}
	return writeJSON(filepath.Join(dir, roleEncoderFile), encoderParams{Classes: m.roles.classes})
}

func uniqueLabels(rows []TrainingRow, pick func(TrainingRow) string) []string {
	seen := make(map[string]struct{}, len(rows))
	var out []string
	for _, row := range rows {
		label := pick(row)
		if _, ok := seen[label]; ok {
			continue
		}
		seen[label] = struct{}{}
		out = append(out, label)
	}
	sort.Strings(out)
	return out
}

// solveLinearSystem solves Ax = b for a small dense system with partial
// pivoting.
func solveLinearSystem(a [4][4]float64, b [4]float64) ([4]float64, error) {
	const n = 4
	for col := 0; col < n; col++ {
		pivot := col
		for row := col + 1; row < n; row++ {
			if math.Abs(a[row][col]) > math.Abs(a[pivot][col]) {
				pivot = row
			}
		}
		if math.Abs(a[pivot][col]) < 1e-12 {
			return [4]float64{}, errors.New("training data is degenerate")
		}
		a[col], a[pivot] = a[pivot], a[col]
		b[col], b[pivot] = b[pivot], b[col]

		for row := col + 1; row < n; row++ {
			factor := a[row][col] / a[col][col]
			for k := col; k < n; k++ {
				a[row][k] -= factor * a[col][k]
			}
			b[row] -= factor * b[col]
		}
	}

	var x [4]float64
	for row := n - 1; row >= 0; row-- {
		sum := b[row]
		for k := row + 1; k < n; k++ {
			sum -= a[row][k] * x[k]
		}
		x[row] = sum / a[row][row]
	}
	return x, nil
}

func writeJSON(path string, payload any) error {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}
