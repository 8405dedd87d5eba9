// Package healthsource adapts activity providers to the daily series consumed by the coach.
package healthsource

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Rob190501/iWalk/internal/domain"
)

// Source yields daily activity history and the partial totals recorded so far today.
type Source interface {
	Daily(ctx context.Context, from, to time.Time) ([]domain.DailyRecord, error)
	Today(ctx context.Context) (domain.Today, error)
}

// StoreSource reads from a record store populated by the ingestion consumer.
type StoreSource struct {
	store domain.RecordStore
	now   func() time.Time
}

// NewStoreSource constructs a StoreSource. A nil clock defaults to time.Now.
func NewStoreSource(store domain.RecordStore, now func() time.Time) *StoreSource {
	if now == nil {
		now = time.Now
	}
	return &StoreSource{store: store, now: now}
}

// Daily returns stored records with from <= day < to.
func (s *StoreSource) Daily(ctx context.Context, from, to time.Time) ([]domain.DailyRecord, error) {
	records, err := s.store.Range(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDataUnavailable, err)
	}
	return records, nil
}

// Today returns the stored totals for the current day, zero when nothing has arrived yet.
func (s *StoreSource) Today(ctx context.Context) (domain.Today, error) {
	record, err := s.store.Get(ctx, s.now())
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return domain.Today{}, nil
		}
		return domain.Today{}, fmt.Errorf("%w: %v", domain.ErrDataUnavailable, err)
	}
	return domain.Today{Steps: record.Steps, ExerciseMinutes: record.ExerciseMinutes}, nil
}
