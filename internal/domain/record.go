// Package domain defines the records and error taxonomy shared by the step coach pipeline.
package domain

import (
	"sort"
	"time"
)

// DailyRecord aggregates one calendar day of steps, exercise minutes, and active-energy calories.
type DailyRecord struct {
	Date            time.Time
	Steps           int
	ExerciseMinutes int
	Calories        int
	Synthetic       bool
}

// Day truncates t to the start of its calendar day in UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// CaloriesPerStep returns the active-energy ratio used by outlier detection.
// ok is false when the record carries no steps.
func (r DailyRecord) CaloriesPerStep() (ratio float64, ok bool) {
	if r.Steps <= 0 {
		return 0, false
	}
	return float64(r.Calories) / float64(r.Steps), true
}

// Valid reports whether every measured quantity is non-negative.
func (r DailyRecord) Valid() bool {
	return r.Steps >= 0 && r.ExerciseMinutes >= 0 && r.Calories >= 0
}

// Snapshot returns a copy of records so callers can hand them across component boundaries.
func Snapshot(records []DailyRecord) []DailyRecord {
	out := make([]DailyRecord, len(records))
	copy(out, records)
	return out
}

// SortByDate orders records by calendar day, keeping the relative order of equal dates.
func SortByDate(records []DailyRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Date.Before(records[j].Date)
	})
}

// Today is the partial activity recorded so far for the current day.
type Today struct {
	Steps           int
	ExerciseMinutes int
}
