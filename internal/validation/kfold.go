// Package validation estimates model quality with k-fold cross-validation.
package validation

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/Rob190501/iWalk/internal/domain"
	"github.com/Rob190501/iWalk/internal/regression"
)

// Trainer fits a fresh model per fold.
type Trainer interface {
	Train(records []domain.DailyRecord) (*regression.Model, error)
}

// Report summarises one k-fold run.
type Report struct {
	FoldCount         int       `json:"fold_count"`
	MeanAbsoluteError int       `json:"mean_absolute_error"`
	FoldErrors        []float64 `json:"fold_errors"`
}

// Fold describes the rows used by one iteration.
type Fold struct {
	Index        int
	TrainingRows int
	TestRows     int
	MAE          float64
}

// Option configures a Validator.
type Option func(*Validator)

// WithSeed makes the shuffle reproducible.
func WithSeed(seed int64) Option {
	return func(v *Validator) {
		v.rng = rand.New(rand.NewSource(seed))
	}
}

// WithFoldHook registers a callback invoked after each completed fold.
func WithFoldHook(hook func(Fold)) Option {
	return func(v *Validator) {
		v.onFold = hook
	}
}

// Validator runs k-fold cross-validation against a Trainer.
type Validator struct {
	trainer Trainer
	mu      sync.Mutex
	rng     *rand.Rand
	onFold  func(Fold)
}

// NewValidator constructs a Validator.
func NewValidator(trainer Trainer, opts ...Option) *Validator {
	v := &Validator{
		trainer: trainer,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// KFold shuffles records once, splits them into k contiguous folds of len/k rows and trains
// on the remaining rows of each. Rows past k*(len/k) are never held out. The reported error is
// the truncated mean of the per-fold mean absolute errors. The context is checked between
// folds; a cancelled run returns no report.
func (v *Validator) KFold(ctx context.Context, records []domain.DailyRecord, k int) (Report, error) {
	n := len(records)
	if k < 2 || k > n {
		return Report{}, fmt.Errorf("%w: k=%d for %d records", domain.ErrInvalidFoldCount, k, n)
	}

	shuffled := domain.Snapshot(records)
	v.mu.Lock()
	v.rng.Shuffle(n, func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
	v.mu.Unlock()

	foldSize := n / k
	foldErrors := make([]float64, 0, k)
	for i := 0; i < k; i++ {
		if err := ctx.Err(); err != nil {
			return Report{}, err
		}

		start := i * foldSize
		end := min((i+1)*foldSize, n)
		test := shuffled[start:end]

		training := make([]domain.DailyRecord, 0, n-len(test))
		training = append(training, shuffled[:start]...)
		training = append(training, shuffled[end:]...)

		model, err := v.trainer.Train(training)
		if err != nil {
			return Report{}, fmt.Errorf("fold %d: %w", i, err)
		}

		mae := MeanAbsoluteError(model, test)
		foldErrors = append(foldErrors, mae)
		if v.onFold != nil {
			v.onFold(Fold{Index: i, TrainingRows: len(training), TestRows: len(test), MAE: mae})
		}
	}

	var sum float64
	for _, e := range foldErrors {
		sum += e
	}
	return Report{
		FoldCount:         k,
		MeanAbsoluteError: int(sum / float64(k)),
		FoldErrors:        foldErrors,
	}, nil
}

// MeanAbsoluteError averages |predicted - actual| steps over records.
func MeanAbsoluteError(model *regression.Model, records []domain.DailyRecord) float64 {
	if len(records) == 0 {
		return 0
	}
	var sum float64
	for _, r := range records {
		sum += math.Abs(model.Estimate(r.ExerciseMinutes, r.Calories) - float64(r.Steps))
	}
	return sum / float64(len(records))
}
