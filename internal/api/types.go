package api

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Rob190501/iWalk/internal/coach"
	"github.com/Rob190501/iWalk/internal/domain"
)

const dateLayout = "2006-01-02"

// RecordView is the wire form of a daily record.
type RecordView struct {
	Date            string `json:"date"`
	Steps           int    `json:"steps"`
	ExerciseMinutes int    `json:"exercise_minutes"`
	Calories        int    `json:"calories"`
	Synthetic       bool   `json:"synthetic,omitempty"`
}

// FetchRequest is the payload for POST /v1/dataset and the fetch variant of POST /v1/model.
// Zero fields fall back to the service defaults. A negative min_calories disables the
// calorie floor.
type FetchRequest struct {
	Years             int     `json:"years"`
	RemoveOutliers    bool    `json:"remove_outliers"`
	OutlierMethod     string  `json:"outlier_method"`
	Tolerance         float64 `json:"tolerance"`
	MinCalories       int     `json:"min_calories"`
	GenerateSynthetic bool    `json:"generate_synthetic"`
	SyntheticCount    int     `json:"synthetic_count"`
	SyntheticRatio    float64 `json:"synthetic_ratio"`
	SimpleScaling     bool    `json:"simple_scaling"`
}

// Options validates the request and converts it to service options.
func (r FetchRequest) Options() (coach.FetchOptions, error) {
	if r.Years < 0 {
		return coach.FetchOptions{}, errors.New("years must be >= 0")
	}
	if r.SyntheticCount < 0 || r.SyntheticRatio < 0 {
		return coach.FetchOptions{}, errors.New("synthetic_count and synthetic_ratio must be >= 0")
	}
	if r.Tolerance < 0 {
		return coach.FetchOptions{}, errors.New("tolerance must be >= 0")
	}
	var method domain.OutlierMethod
	if strings.TrimSpace(r.OutlierMethod) != "" {
		parsed, err := domain.ParseOutlierMethod(r.OutlierMethod)
		if err != nil {
			return coach.FetchOptions{}, err
		}
		method = parsed
	}
	return coach.FetchOptions{
		Years:             r.Years,
		RemoveOutliers:    r.RemoveOutliers,
		OutlierMethod:     method,
		Tolerance:         r.Tolerance,
		MinCalories:       r.MinCalories,
		GenerateSynthetic: r.GenerateSynthetic,
		SyntheticCount:    r.SyntheticCount,
		SyntheticRatio:    r.SyntheticRatio,
		SimpleScaling:     r.SimpleScaling,
	}, nil
}

// BuildModelRequest is the payload for POST /v1/model. Exactly one of Records or Fetch is set.
type BuildModelRequest struct {
	Records []RecordView  `json:"records"`
	Fetch   *FetchRequest `json:"fetch"`
}

// Validate ensures request correctness.
func (r BuildModelRequest) Validate() error {
	if (len(r.Records) == 0) == (r.Fetch == nil) {
		return errors.New("exactly one of records or fetch is required")
	}
	return nil
}

// DomainRecords converts the inline records, rejecting bad dates and negative quantities.
func (r BuildModelRequest) DomainRecords() ([]domain.DailyRecord, error) {
	out := make([]domain.DailyRecord, 0, len(r.Records))
	for i, view := range r.Records {
		record := domain.DailyRecord{
			Steps:           view.Steps,
			ExerciseMinutes: view.ExerciseMinutes,
			Calories:        view.Calories,
			Synthetic:       view.Synthetic,
		}
		if view.Date != "" {
			day, err := time.Parse(dateLayout, view.Date)
			if err != nil {
				return nil, fmt.Errorf("records[%d]: invalid date %q", i, view.Date)
			}
			record.Date = day
		}
		if !record.Valid() {
			return nil, fmt.Errorf("records[%d]: quantities must be >= 0", i)
		}
		out = append(out, record)
	}
	return out, nil
}

// DatasetResponse describes a prepared dataset.
type DatasetResponse struct {
	Records   []RecordView `json:"records"`
	Real      int          `json:"real"`
	Synthetic int          `json:"synthetic"`
}

// ListRecordsResponse packages a page of stored records.
type ListRecordsResponse struct {
	Items      []RecordView `json:"items"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

// Coefficients exposes the fitted linear terms.
type Coefficients struct {
	Intercept       float64 `json:"intercept"`
	Calories        float64 `json:"calories"`
	ExerciseMinutes float64 `json:"exercise_minutes"`
}

// ModelView describes the active model.
type ModelView struct {
	ModelID      string       `json:"model_id"`
	Features     string       `json:"features"`
	Rows         int          `json:"rows"`
	Coefficients Coefficients `json:"coefficients"`
	TrainedAt    string       `json:"trained_at"`
}

// PredictionResponse answers GET /v1/predictions.
type PredictionResponse struct {
	Steps int `json:"steps"`
}

// StepsToGoResponse answers GET /v1/steps-to-go.
type StepsToGoResponse struct {
	StepsToGo int `json:"steps_to_go"`
}
