package healthsource

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Rob190501/iWalk/internal/domain"
	"github.com/Rob190501/iWalk/internal/store/memory"
)

func TestStoreSource(t *testing.T) {
	now := time.Date(2025, time.June, 10, 15, 0, 0, 0, time.UTC)
	store := memory.NewRecordStore(
		domain.DailyRecord{Date: now.AddDate(0, 0, -2), Steps: 7000, ExerciseMinutes: 30, Calories: 320},
		domain.DailyRecord{Date: now.AddDate(0, 0, -1), Steps: 9000, ExerciseMinutes: 45, Calories: 410},
		domain.DailyRecord{Date: now, Steps: 2500, ExerciseMinutes: 12, Calories: 90},
	)
	source := NewStoreSource(store, func() time.Time { return now })

	history, err := source.Daily(context.Background(), now.AddDate(0, 0, -7), now)
	require.NoError(t, err)
	require.Len(t, history, 2)

	today, err := source.Today(context.Background())
	require.NoError(t, err)
	require.Equal(t, domain.Today{Steps: 2500, ExerciseMinutes: 12}, today)
}

func TestStoreSourceTodayWithoutData(t *testing.T) {
	source := NewStoreSource(memory.NewRecordStore(), nil)
	today, err := source.Today(context.Background())
	require.NoError(t, err)
	require.Equal(t, domain.Today{}, today)
}
