package main

import (
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/FathimaMehrinVS/FixTheGap/internal/predictor"
	"github.com/FathimaMehrinVS/FixTheGap/internal/util"
)

func main() {
	var (
		dataPath = flag.String("data", filepath.FromSlash("data/salaries.csv"), "Path to salary observations CSV")
		outDir   = flag.String("out", "models", "Directory to write model parameter files")
	)
	flag.Parse()

	timer := util.StartTimer()

	rows, skipped, err := readTrainingCSV(*dataPath)
	if err != nil {
		logrus.Fatalf("read training data: %v", err)
	}
	if skipped > 0 {
		logrus.WithField("rows", skipped).Warn("skipped unparseable training rows")
	}

	model, err := predictor.Fit(rows)
	if err != nil {
		logrus.Fatalf("fit model: %v", err)
	}
	if err := model.Save(*outDir); err != nil {
		logrus.Fatalf("save model: %v", err)
	}

	logrus.WithFields(logrus.Fields{
		"rows":     len(rows),
		"roles":    len(model.Roles()),
		"genders":  len(model.Genders()),
		"out":      *outDir,
		"duration": timer.Elapsed().Round(time.Millisecond),
	}).Info("model parameters written")
}

func readTrainingCSV(path string) ([]predictor.TrainingRow, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	columns := map[string]int{}
	headerProcessed := false
	var rows []predictor.TrainingRow
	skipped := 0

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, skipped, fmt.Errorf("read csv: %w", err)
		}
		if len(record) == 0 {
			continue
		}

		if !headerProcessed {
			headerProcessed = true
			columns = detectColumns(record)
			if len(columns) == 4 {
				continue // header row, move to next record
			}
			// Headerless file, assume gender,role,experience,salary order.
			columns = map[string]int{"gender": 0, "role": 1, "experience": 2, "salary": 3}
		}

		row, ok := parseRow(record, columns)
		if !ok {
			skipped++
			continue
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, skipped, errors.New("no usable training rows found")
	}
	return rows, skipped, nil
}

func detectColumns(record []string) map[string]int {
	columns := make(map[string]int, 4)
	for idx, value := range record {
		switch strings.ToLower(strings.TrimSpace(value)) {
		case "gender":
			columns["gender"] = idx
		case "role", "job_role", "job role":
			columns["role"] = idx
		case "experience", "years_experience", "years of experience":
			columns["experience"] = idx
		case "salary", "annual_salary":
			columns["salary"] = idx
		}
	}
	return columns
}

func parseRow(record []string, columns map[string]int) (predictor.TrainingRow, bool) {
	field := func(name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	gender := strings.ToLower(field("gender"))
	role := field("role")
	if gender == "" || role == "" {
		return predictor.TrainingRow{}, false
	}
	experience, err := strconv.ParseFloat(field("experience"), 64)
	if err != nil || experience < 0 {
		return predictor.TrainingRow{}, false
	}
	salary, err := strconv.ParseFloat(field("salary"), 64)
	if err != nil || salary <= 0 {
		return predictor.TrainingRow{}, false
	}

	return predictor.TrainingRow{
		Gender:     gender,
		Role:       role,
		Experience: experience,
		Salary:     salary,
	}, true
}
