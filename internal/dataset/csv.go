// Package dataset reads and writes the durable training-set snapshot.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Rob190501/iWalk/internal/domain"
)

const (
	ColumnSteps           = "Steps"
	ColumnExerciseMinutes = "ExerciseMinutes"
	ColumnCalories        = "Calories"
)

// Header returns the CSV header for the feature set.
func Header(features domain.FeatureSet) []string {
	if features == domain.FeaturesCaloriesOnly {
		return []string{ColumnSteps, ColumnCalories}
	}
	return []string{ColumnSteps, ColumnExerciseMinutes, ColumnCalories}
}

// WriteCSV encodes records with the header matching features.
func WriteCSV(w io.Writer, records []domain.DailyRecord, features domain.FeatureSet) error {
	header := Header(features)
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	row := make([]string, len(header))
	for _, r := range records {
		row[0] = strconv.Itoa(r.Steps)
		if len(header) == 3 {
			row[1] = strconv.Itoa(r.ExerciseMinutes)
			row[2] = strconv.Itoa(r.Calories)
		} else {
			row[1] = strconv.Itoa(r.Calories)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV decodes a snapshot written by WriteCSV and reports which header variant it used.
// Dates are not part of the snapshot and come back zero.
func ReadCSV(r io.Reader) ([]domain.DailyRecord, domain.FeatureSet, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, "", fmt.Errorf("%w: empty dataset", domain.ErrPersistence)
		}
		return nil, "", fmt.Errorf("%w: read header: %v", domain.ErrPersistence, err)
	}
	features, err := featuresFromHeader(header)
	if err != nil {
		return nil, "", err
	}

	records := make([]domain.DailyRecord, 0, 256)
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, "", fmt.Errorf("%w: line %d: %v", domain.ErrPersistence, line, err)
		}
		values := make([]int, len(row))
		for i, cell := range row {
			v, err := strconv.Atoi(strings.TrimSpace(cell))
			if err != nil || v < 0 {
				return nil, "", fmt.Errorf("%w: line %d column %s: invalid value %q", domain.ErrPersistence, line, header[i], cell)
			}
			values[i] = v
		}
		rec := domain.DailyRecord{Steps: values[0]}
		if features == domain.FeaturesCaloriesOnly {
			rec.Calories = values[1]
		} else {
			rec.ExerciseMinutes = values[1]
			rec.Calories = values[2]
		}
		records = append(records, rec)
	}
	return records, features, nil
}

func featuresFromHeader(header []string) (domain.FeatureSet, error) {
	joined := strings.Join(header, ",")
	joined = strings.TrimPrefix(joined, "\ufeff")
	switch joined {
	case strings.Join(Header(domain.FeaturesCaloriesAndExercise), ","):
		return domain.FeaturesCaloriesAndExercise, nil
	case strings.Join(Header(domain.FeaturesCaloriesOnly), ","):
		return domain.FeaturesCaloriesOnly, nil
	default:
		return "", fmt.Errorf("%w: unexpected header %q", domain.ErrPersistence, joined)
	}
}

// SaveCSV atomically replaces the snapshot at path.
func SaveCSV(path string, records []domain.DailyRecord, features domain.FeatureSet) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".dataset-*.csv")
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	defer os.Remove(tmp.Name())

	if err := WriteCSV(tmp, records, features); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: write %s: %v", domain.ErrPersistence, path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	return nil
}

// LoadCSV reads the snapshot at path.
func LoadCSV(path string) ([]domain.DailyRecord, domain.FeatureSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	defer f.Close()
	return ReadCSV(f)
}
