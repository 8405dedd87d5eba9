// Package events defines the Kafka payloads exchanged with the step coach and the producer
// that publishes them.
package events

import "time"

// Event types carried in the event_type header.
const (
	TypeDailyActivityRecorded = "daily_activity.recorded"
	TypeModelRetrained        = "model.retrained"
)

// DailyActivityRecorded is pushed by the health data collector once per day and source sync.
type DailyActivityRecorded struct {
	Date            string    `json:"date"`
	Steps           int       `json:"steps"`
	ExerciseMinutes int       `json:"exercise_minutes"`
	Calories        int       `json:"calories"`
	Source          string    `json:"source,omitempty"`
	RecordedAt      time.Time `json:"recorded_at"`
}

// ModelRetrained announces a newly active steps model.
type ModelRetrained struct {
	EventID             string    `json:"event_id"`
	ModelID             string    `json:"model_id"`
	Features            string    `json:"features"`
	Rows                int       `json:"rows"`
	Intercept           float64   `json:"intercept"`
	CaloriesCoef        float64   `json:"calories_coef"`
	ExerciseMinutesCoef float64   `json:"exercise_minutes_coef"`
	TrainedAt           time.Time `json:"trained_at"`
}
