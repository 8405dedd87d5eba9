package validation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Rob190501/iWalk/internal/domain"
	"github.com/Rob190501/iWalk/internal/regression"
)

func noisyRecords(n int) []domain.DailyRecord {
	base := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	out := make([]domain.DailyRecord, n)
	for i := 0; i < n; i++ {
		calories := 150 + (i*37)%400
		minutes := (i * 13) % 70
		noise := (i%5 - 2) * 40
		out[i] = domain.DailyRecord{
			Date:            base.AddDate(0, 0, i),
			Steps:           18*calories + 25*minutes + 500 + noise,
			ExerciseMinutes: minutes,
			Calories:        calories,
		}
	}
	return out
}

type countingTrainer struct {
	inner *regression.Trainer
	sizes []int
	err   error
}

func (c *countingTrainer) Train(records []domain.DailyRecord) (*regression.Model, error) {
	c.sizes = append(c.sizes, len(records))
	if c.err != nil {
		return nil, c.err
	}
	return c.inner.Train(records)
}

func TestKFoldRejectsInvalidK(t *testing.T) {
	v := NewValidator(regression.NewTrainer(domain.FeaturesCaloriesAndExercise), WithSeed(1))
	records := noisyRecords(6)

	for _, k := range []int{-1, 0, 1, 7} {
		_, err := v.KFold(context.Background(), records, k)
		require.ErrorIs(t, err, domain.ErrInvalidFoldCount, "k=%d", k)
	}
}

func TestKFoldFoldSizes(t *testing.T) {
	records := noisyRecords(23)
	trainer := &countingTrainer{inner: regression.NewTrainer(domain.FeaturesCaloriesAndExercise)}
	var folds []Fold
	v := NewValidator(trainer, WithSeed(5), WithFoldHook(func(f Fold) { folds = append(folds, f) }))

	report, err := v.KFold(context.Background(), records, 5)
	require.NoError(t, err)
	require.Equal(t, 5, report.FoldCount)
	require.Len(t, report.FoldErrors, 5)
	require.GreaterOrEqual(t, report.MeanAbsoluteError, 0)

	foldSize := len(records) / 5
	require.Len(t, folds, 5)
	for i, f := range folds {
		require.Equal(t, i, f.Index)
		require.Equal(t, foldSize, f.TestRows)
		require.Equal(t, len(records)-foldSize, f.TrainingRows)
		require.Equal(t, len(records)-foldSize, trainer.sizes[i])
		require.GreaterOrEqual(t, f.MAE, 0.0)
	}
}

func TestKFoldNoiselessDataHasZeroError(t *testing.T) {
	var records []domain.DailyRecord
	for i := 0; i < 12; i++ {
		calories := 100 + i*31
		records = append(records, domain.DailyRecord{Steps: 2*calories + 10, Calories: calories, ExerciseMinutes: (i * 7) % 20})
	}
	v := NewValidator(regression.NewTrainer(domain.FeaturesCaloriesOnly), WithSeed(11))

	report, err := v.KFold(context.Background(), records, 4)
	require.NoError(t, err)
	require.Equal(t, 0, report.MeanAbsoluteError)
	for _, e := range report.FoldErrors {
		require.InDelta(t, 0, e, 1e-6)
	}
}

func TestKFoldIsDeterministicWithSeed(t *testing.T) {
	records := noisyRecords(30)
	trainer := regression.NewTrainer(domain.FeaturesCaloriesAndExercise)

	first, err := NewValidator(trainer, WithSeed(123)).KFold(context.Background(), records, 3)
	require.NoError(t, err)
	second, err := NewValidator(trainer, WithSeed(123)).KFold(context.Background(), records, 3)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestKFoldPropagatesTrainingFailure(t *testing.T) {
	trainer := &countingTrainer{err: domain.ErrTrainingFailed}
	v := NewValidator(trainer, WithSeed(2))

	_, err := v.KFold(context.Background(), noisyRecords(10), 2)
	require.ErrorIs(t, err, domain.ErrTrainingFailed)
	require.Len(t, trainer.sizes, 1)
}

func TestKFoldStopsOnCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	trainer := &countingTrainer{inner: regression.NewTrainer(domain.FeaturesCaloriesAndExercise)}
	v := NewValidator(trainer, WithSeed(9), WithFoldHook(func(f Fold) {
		if f.Index == 1 {
			cancel()
		}
	}))

	report, err := v.KFold(ctx, noisyRecords(40), 8)
	require.True(t, errors.Is(err, context.Canceled))
	require.Empty(t, report.FoldErrors)
	require.Len(t, trainer.sizes, 2)
}

func TestMeanAbsoluteError(t *testing.T) {
	model := &regression.Model{Features: domain.FeaturesCaloriesOnly, CaloriesCoef: 10}
	records := []domain.DailyRecord{
		{Steps: 1100, Calories: 100},
		{Steps: 1900, Calories: 200},
	}
	require.InDelta(t, 100, MeanAbsoluteError(model, records), 1e-12)
	require.Zero(t, MeanAbsoluteError(model, nil))
}
