package regression

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Rob190501/iWalk/internal/domain"
)

func linearFixture() []domain.DailyRecord {
	base := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	calories := []int{120, 250, 310, 95, 480, 205, 390, 150}
	minutes := []int{10, 35, 5, 0, 60, 22, 41, 17}
	out := make([]domain.DailyRecord, len(calories))
	for i := range calories {
		out[i] = domain.DailyRecord{
			Date:            base.AddDate(0, 0, i),
			Steps:           2*calories[i] + 10,
			ExerciseMinutes: minutes[i],
			Calories:        calories[i],
		}
	}
	return out
}

func TestTrainRecoversNoiselessRelationship(t *testing.T) {
	records := linearFixture()

	for _, features := range []domain.FeatureSet{domain.FeaturesCaloriesOnly, domain.FeaturesCaloriesAndExercise} {
		t.Run(string(features), func(t *testing.T) {
			model, err := NewTrainer(features).Train(records)
			require.NoError(t, err)
			require.Equal(t, features, model.Features)
			require.Equal(t, len(records), model.Rows)
			require.NotEmpty(t, model.ID)

			require.InDelta(t, 2.0, model.CaloriesCoef, 1e-9)
			require.InDelta(t, 10.0, model.Intercept, 1e-6)
			require.InDelta(t, 0.0, model.ExerciseMinutesCoef, 1e-9)

			for _, r := range records {
				require.InDelta(t, float64(r.Steps), model.Estimate(r.ExerciseMinutes, r.Calories), 1e-6)
			}
		})
	}
}

func TestTrainTwoFeatures(t *testing.T) {
	base := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	var records []domain.DailyRecord
	for i, pair := range [][2]int{{10, 100}, {20, 150}, {5, 300}, {40, 220}, {0, 90}, {33, 410}} {
		minutes, calories := pair[0], pair[1]
		records = append(records, domain.DailyRecord{
			Date:            base.AddDate(0, 0, i),
			Steps:           50*minutes + 12*calories + 300,
			ExerciseMinutes: minutes,
			Calories:        calories,
		})
	}

	model, err := NewTrainer(domain.FeaturesCaloriesAndExercise).Train(records)
	require.NoError(t, err)
	require.InDelta(t, 50, model.ExerciseMinutesCoef, 1e-8)
	require.InDelta(t, 12, model.CaloriesCoef, 1e-8)
	require.InDelta(t, 300, model.Intercept, 1e-6)
	require.InDelta(t, float64(50*12+12*200+300), model.Estimate(12, 200), 1e-6)
}

func TestTrainInsufficientData(t *testing.T) {
	records := linearFixture()

	_, err := NewTrainer(domain.FeaturesCaloriesAndExercise).Train(nil)
	require.ErrorIs(t, err, domain.ErrInsufficientData)

	_, err = NewTrainer(domain.FeaturesCaloriesAndExercise).Train(records[:2])
	require.ErrorIs(t, err, domain.ErrInsufficientData)

	_, err = NewTrainer(domain.FeaturesCaloriesOnly).Train(records[:2])
	require.NoError(t, err)
}

func TestTrainSingularDesignFails(t *testing.T) {
	records := linearFixture()
	for i := range records {
		records[i].ExerciseMinutes = 30
	}

	_, err := NewTrainer(domain.FeaturesCaloriesAndExercise).Train(records)
	require.ErrorIs(t, err, domain.ErrTrainingFailed)

	constant := []domain.DailyRecord{
		{Steps: 1000, Calories: 80},
		{Steps: 1100, Calories: 80},
		{Steps: 900, Calories: 80},
	}
	_, err = NewTrainer(domain.FeaturesCaloriesOnly).Train(constant)
	require.ErrorIs(t, err, domain.ErrTrainingFailed)
}

func TestEstimateStepsFloorsAtZero(t *testing.T) {
	model := &Model{Features: domain.FeaturesCaloriesOnly, Intercept: -500, CaloriesCoef: 2}
	require.Equal(t, 0, model.EstimateSteps(0, 100))
	require.Equal(t, 100, model.EstimateSteps(99, 300))
	require.InDelta(t, -300.0, model.Estimate(0, 100), 1e-12)
}
