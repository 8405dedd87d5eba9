package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Rob190501/iWalk/internal/domain"
	"github.com/Rob190501/iWalk/internal/events"
)

// IngestHandler upserts daily activity messages into a record store. Other event types are
// acknowledged without effect.
type IngestHandler struct {
	store domain.RecordStore
}

// NewIngestHandler constructs a handler writing to store.
func NewIngestHandler(store domain.RecordStore) *IngestHandler {
	return &IngestHandler{store: store}
}

// Handle implements Handler.
func (h *IngestHandler) Handle(ctx context.Context, msg Message) error {
	if msg.EventType != events.TypeDailyActivityRecorded {
		recordOutcome(outcomeIgnored)
		return nil
	}

	record, err := decodeDailyActivity(msg.Payload)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPermanent, err)
	}
	if err := h.store.Upsert(ctx, []domain.DailyRecord{record}); err != nil {
		return err
	}
	recordOutcome(outcomeUpserted)
	recordDayStored(record.Date)
	return nil
}

func decodeDailyActivity(payload json.RawMessage) (domain.DailyRecord, error) {
	var evt events.DailyActivityRecorded
	if err := json.Unmarshal(payload, &evt); err != nil {
		return domain.DailyRecord{}, err
	}
	day, err := time.Parse("2006-01-02", evt.Date)
	if err != nil {
		return domain.DailyRecord{}, fmt.Errorf("invalid date %q: %w", evt.Date, err)
	}
	record := domain.DailyRecord{
		Date:            day,
		Steps:           evt.Steps,
		ExerciseMinutes: evt.ExerciseMinutes,
		Calories:        evt.Calories,
	}
	if !record.Valid() {
		return domain.DailyRecord{}, fmt.Errorf("negative quantities for %s", evt.Date)
	}
	return record, nil
}
