package outlier

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Rob190501/iWalk/internal/domain"
)

func day(offset int) time.Time {
	return time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, offset)
}

func TestFilterRemovesLowRatioOutlier(t *testing.T) {
	records := []domain.DailyRecord{
		{Date: day(0), Steps: 1000, Calories: 50},
		{Date: day(1), Steps: 1200, Calories: 60},
		{Date: day(2), Steps: 900, Calories: 45},
		{Date: day(3), Steps: 5000, Calories: 40},
	}

	kept, err := Filter(records, Config{Method: domain.OutlierIQR})
	require.NoError(t, err)
	require.Equal(t, records[:3], kept)
}

func TestFilterKeepsSubsetWithinBounds(t *testing.T) {
	records := []domain.DailyRecord{
		{Date: day(0), Steps: 8000, ExerciseMinutes: 30, Calories: 400},
		{Date: day(1), Steps: 9500, ExerciseMinutes: 42, Calories: 460},
		{Date: day(2), Steps: 4000, ExerciseMinutes: 10, Calories: 210},
		{Date: day(3), Steps: 12000, ExerciseMinutes: 61, Calories: 590},
		{Date: day(4), Steps: 300, ExerciseMinutes: 55, Calories: 700},
		{Date: day(5), Steps: 7000, ExerciseMinutes: 20, Calories: 20},
		{Date: day(6), Steps: 0, ExerciseMinutes: 20, Calories: 300},
		{Date: day(7), Steps: 6100, ExerciseMinutes: 25, Calories: 320},
	}

	kept, bounds, err := FilterWithBounds(records, Config{})
	require.NoError(t, err)
	require.NotEmpty(t, kept)

	for _, record := range kept {
		require.Contains(t, records, record)
		ratio, ok := record.CaloriesPerStep()
		require.True(t, ok)
		require.True(t, bounds.Contains(ratio), "ratio %f outside [%f, %f]", ratio, bounds.Lower, bounds.Upper)
	}
	require.NotContains(t, kept, records[4], "2.3 kcal/step day should be discarded")
	require.NotContains(t, kept, records[5], "calorie floor should drop the day")
	require.NotContains(t, kept, records[6], "zero-step day should be dropped")
}

func TestFilterRequiresTwoRatios(t *testing.T) {
	records := []domain.DailyRecord{
		{Date: day(0), Steps: 1000, Calories: 50},
		{Date: day(1), Steps: 1000, Calories: 30},
		{Date: day(2), Steps: 0, Calories: 80},
	}

	kept, err := Filter(records, Config{})
	require.ErrorIs(t, err, domain.ErrDataUnavailable)
	require.Empty(t, kept)

	kept, err = Filter(nil, Config{})
	require.ErrorIs(t, err, domain.ErrDataUnavailable)
	require.Empty(t, kept)
}

func TestFilterToleranceBand(t *testing.T) {
	records := []domain.DailyRecord{
		{Date: day(0), Steps: 1000, Calories: 50},
		{Date: day(1), Steps: 1000, Calories: 60},
		{Date: day(2), Steps: 1000, Calories: 40},
		{Date: day(3), Steps: 1000, Calories: 150},
	}

	// mean ratio is 0.075; a 0.03 band keeps [0.045, 0.105].
	kept, err := Filter(records, Config{Method: domain.OutlierToleranceBand, Tolerance: 0.03})
	require.NoError(t, err)
	require.Equal(t, []domain.DailyRecord{records[0], records[1]}, kept)

	_, err = Filter(records, Config{Method: domain.OutlierToleranceBand})
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestFilterCustomCalorieFloor(t *testing.T) {
	records := []domain.DailyRecord{
		{Date: day(0), Steps: 1000, Calories: 50},
		{Date: day(1), Steps: 1100, Calories: 55},
		{Date: day(2), Steps: 1200, Calories: 60},
	}

	kept, err := Filter(records, Config{MinCalories: 52})
	require.NoError(t, err)
	require.Equal(t, records[1:], kept)
}

func TestPercentileInterpolates(t *testing.T) {
	sorted := []float64{1, 2, 3, 4}
	require.InDelta(t, 1.75, Percentile(sorted, 25), 1e-12)
	require.InDelta(t, 3.25, Percentile(sorted, 75), 1e-12)
	require.InDelta(t, 1, Percentile(sorted, 0), 1e-12)
	require.InDelta(t, 4, Percentile(sorted, 100), 1e-12)
	require.InDelta(t, 7, Percentile([]float64{7}, 50), 1e-12)
}

func TestFilterWithoutCalorieFloor(t *testing.T) {
	records := []domain.DailyRecord{
		{Date: day(0), Steps: 1000, Calories: 20},
		{Date: day(1), Steps: 1100, Calories: 22},
		{Date: day(2), Steps: 800, Calories: 0},
		{Date: day(3), Steps: 1200, Calories: 24},
	}

	_, err := Filter(records, Config{})
	require.ErrorIs(t, err, domain.ErrDataUnavailable)

	kept, err := Filter(records, Config{MinCalories: NoCalorieFloor})
	require.NoError(t, err)
	require.Equal(t, []domain.DailyRecord{records[0], records[1], records[3]}, kept)
}
