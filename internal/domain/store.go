package domain

import (
	"context"
	"errors"
	"time"
)

// ErrRecordNotFound is returned when no record exists for the requested day.
var ErrRecordNotFound = errors.New("daily record not found")

// Cursor models the pagination token for newest-first record listings.
type Cursor struct {
	Date time.Time
}

// RecordStore persists daily records, keyed by calendar day.
type RecordStore interface {
	Upsert(ctx context.Context, records []DailyRecord) error
	Range(ctx context.Context, from, to time.Time) ([]DailyRecord, error)
	List(ctx context.Context, cursor *Cursor, limit int) ([]DailyRecord, *Cursor, error)
	Get(ctx context.Context, day time.Time) (*DailyRecord, error)
}
