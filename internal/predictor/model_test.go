package predictor

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeModelFiles(t *testing.T, dir string) {
	t.Helper()
	files := map[string]string{
		paramsFile:        `{"coef": [2000, 10000, -15000], "intercept": 80000, "features": ["experience", "role_encoded", "gender_encoded"]}`,
		genderEncoderFile: `{"classes": ["female", "male"]}`,
		roleEncoderFile:   `{"classes": ["Data Analyst", "Data Engineer", "Data Scientist"]}`,
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestPredict(t *testing.T) {
	dir := t.TempDir()
	writeModelFiles(t, dir)
	m, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	// female=0, male=1 after sorting; Data Scientist=2.
	got, err := m.Predict("male", "Data Scientist", 5)
	if err != nil {
		t.Fatal(err)
	}
	expected := 80000.0 + 2000*5 + 10000*2 - 15000*1
	if got != expected {
		t.Fatalf("expected %v, got %v", expected, got)
	}
}

func TestPredictUnknownLabel(t *testing.T) {
	dir := t.TempDir()
	writeModelFiles(t, dir)
	m, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}

	_, err = m.Predict("male", "Astronaut", 3)
	if err == nil || !strings.Contains(err.Error(), "previously unseen labels") {
		t.Fatalf("expected unseen label error, got %v", err)
	}
}

func TestEvaluateBaselineGap(t *testing.T) {
	dir := t.TempDir()
	writeModelFiles(t, dir)
	m, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}

	result, err := m.Evaluate("female", "Data Engineer", 4)
	if err != nil {
		t.Fatal(err)
	}
	male, _ := m.Predict("male", "Data Engineer", 4)
	female, _ := m.Predict("female", "Data Engineer", 4)
	if result.Predicted != male || result.Adjusted != female {
		t.Fatalf("baseline mismatch: %+v male=%v female=%v", result, male, female)
	}
	if result.PayGap != math.Max(male-female, 0) {
		t.Fatalf("pay gap mismatch: %v", result.PayGap)
	}
}

func TestFitRecoversLinearData(t *testing.T) {
	// Exact linear data: salary = 50000 + 3000*exp + 20000*role - 8000*gender.
	var rows []TrainingRow
	genders := []string{"female", "male"}
	roles := []string{"Data Analyst", "Data Engineer", "Data Scientist"}
	for gi, gender := range genders {
		for ri, role := range roles {
			for exp := 0; exp <= 6; exp += 2 {
				rows = append(rows, TrainingRow{
					Gender:     gender,
					Role:       role,
					Experience: float64(exp),
					Salary:     50000 + 3000*float64(exp) + 20000*float64(ri) - 8000*float64(gi),
				})
			}
		}
	}

	m, err := Fit(rows)
	if err != nil {
		t.Fatalf("fit: %v", err)
	}

	got, err := m.Predict("male", "Data Scientist", 4)
	if err != nil {
		t.Fatal(err)
	}
	expected := 50000 + 3000*4.0 + 20000*2 - 8000*1
	if math.Abs(got-expected) > 1 {
		t.Fatalf("expected ~%v, got %v", expected, got)
	}
}

func TestFitSaveLoadRoundTrip(t *testing.T) {
	rows := []TrainingRow{
		{"female", "Data Analyst", 1, 60000},
		{"male", "Data Analyst", 1, 65000},
		{"female", "Data Scientist", 3, 90000},
		{"male", "Data Scientist", 3, 98000},
		{"female", "Data Analyst", 5, 72000},
		{"male", "Data Scientist", 7, 120000},
	}
	m, err := Fit(rows)
	if err != nil {
		t.Fatalf("fit: %v", err)
	}

	dir := t.TempDir()
	if err := m.Save(dir); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	want, _ := m.Predict("male", "Data Scientist", 3)
	got, err := loaded.Predict("male", "Data Scientist", 3)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(want-got) > 0.01 {
		t.Fatalf("round trip drift: %v vs %v", want, got)
	}
}
