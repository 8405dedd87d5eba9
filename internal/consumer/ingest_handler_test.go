package consumer

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/Rob190501/iWalk/internal/domain"
	"github.com/Rob190501/iWalk/internal/events"
	"github.com/Rob190501/iWalk/internal/store/memory"
)

func TestIngestHandlerUpsertsDailyRecord(t *testing.T) {
	ctx := context.Background()
	store := memory.NewRecordStore()
	handler := NewIngestHandler(store)
	before := testutil.ToFloat64(ingestCounter.WithLabelValues(outcomeUpserted))

	payload, err := json.Marshal(events.DailyActivityRecorded{Date: "2025-03-01", Steps: 8000, ExerciseMinutes: 35, Calories: 410})
	require.NoError(t, err)
	require.NoError(t, handler.Handle(ctx, Message{EventType: events.TypeDailyActivityRecorded, Payload: payload}))

	record, err := store.Get(ctx, time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Equal(t, domain.DailyRecord{
		Date:            time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC),
		Steps:           8000,
		ExerciseMinutes: 35,
		Calories:        410,
	}, *record)
	require.Equal(t, before+1, testutil.ToFloat64(ingestCounter.WithLabelValues(outcomeUpserted)))
	require.GreaterOrEqual(t, testutil.ToFloat64(latestDayGauge), float64(record.Date.Unix()))
}

func TestLatestDayGaugeIgnoresOlderDays(t *testing.T) {
	newer := time.Date(2031, time.January, 2, 0, 0, 0, 0, time.UTC)
	recordDayStored(newer)
	recordDayStored(newer.AddDate(0, 0, -10))
	require.Equal(t, float64(newer.Unix()), testutil.ToFloat64(latestDayGauge))
}

func TestIngestHandlerIgnoresOtherEvents(t *testing.T) {
	store := memory.NewRecordStore()
	before := testutil.ToFloat64(ingestCounter.WithLabelValues(outcomeIgnored))
	err := NewIngestHandler(store).Handle(context.Background(), Message{EventType: events.TypeModelRetrained, Payload: json.RawMessage(`{}`)})
	require.NoError(t, err)
	require.Zero(t, store.Len())
	require.Equal(t, before+1, testutil.ToFloat64(ingestCounter.WithLabelValues(outcomeIgnored)))
}

func TestIngestHandlerRejectsInvalidPayloads(t *testing.T) {
	handler := NewIngestHandler(memory.NewRecordStore())
	for _, payload := range []string{
		`{"date":"03/01/2025","steps":1,"calories":1}`,
		`{"date":"2025-03-01","steps":-5,"calories":1}`,
		`{"date":"2025-03-01","steps":"many"}`,
	} {
		err := handler.Handle(context.Background(), Message{EventType: events.TypeDailyActivityRecorded, Payload: json.RawMessage(payload)})
		require.ErrorIs(t, err, ErrPermanent, payload)
	}
}
