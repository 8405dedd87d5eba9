// Package memory provides an in-process record store for the CLI and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Rob190501/iWalk/internal/domain"
)

// RecordStore keeps daily records in a map keyed by calendar day.
type RecordStore struct {
	mu      sync.RWMutex
	records map[time.Time]domain.DailyRecord
}

// NewRecordStore constructs an empty store, optionally seeded with records.
func NewRecordStore(seed ...domain.DailyRecord) *RecordStore {
	store := &RecordStore{records: make(map[time.Time]domain.DailyRecord)}
	for _, record := range seed {
		record.Date = domain.Day(record.Date)
		store.records[record.Date] = record
	}
	return store
}

// Upsert implements domain.RecordStore. A later record for the same day replaces the earlier one.
func (s *RecordStore) Upsert(ctx context.Context, records []domain.DailyRecord) error {
	for _, record := range records {
		if !record.Valid() {
			return fmt.Errorf("record for %s has negative quantities", record.Date.Format("2006-01-02"))
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, record := range records {
		record.Date = domain.Day(record.Date)
		s.records[record.Date] = record
	}
	return nil
}

// Range returns records with from <= day < to, oldest first.
func (s *RecordStore) Range(ctx context.Context, from, to time.Time) ([]domain.DailyRecord, error) {
	from, to = domain.Day(from), domain.Day(to)

	s.mu.RLock()
	out := make([]domain.DailyRecord, 0)
	for day, record := range s.records {
		if !day.Before(from) && day.Before(to) {
			out = append(out, record)
		}
	}
	s.mu.RUnlock()

	domain.SortByDate(out)
	return out, nil
}

// List returns up to limit records strictly older than the cursor, newest first.
func (s *RecordStore) List(ctx context.Context, cursor *domain.Cursor, limit int) ([]domain.DailyRecord, *domain.Cursor, error) {
	s.mu.RLock()
	all := make([]domain.DailyRecord, 0, len(s.records))
	for day, record := range s.records {
		if cursor == nil || day.Before(domain.Day(cursor.Date)) {
			all = append(all, record)
		}
	}
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool { return all[i].Date.After(all[j].Date) })
	if limit <= 0 || len(all) <= limit {
		return all, nil, nil
	}
	page := all[:limit]
	return page, &domain.Cursor{Date: page[len(page)-1].Date}, nil
}

// Get returns the record for the given day or domain.ErrRecordNotFound.
func (s *RecordStore) Get(ctx context.Context, day time.Time) (*domain.DailyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[domain.Day(day)]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	return &record, nil
}

// Len reports how many days are stored.
func (s *RecordStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
