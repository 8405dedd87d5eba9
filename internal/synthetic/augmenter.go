// Package synthetic enlarges sparse training sets with perturbed copies of real days.
package synthetic

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/Rob190501/iWalk/internal/domain"
)

const (
	// MinVariation and MaxVariation bound the joint multiplicative perturbation.
	MinVariation = 0.85
	MaxVariation = 1.15
)

// Estimator re-derives steps from perturbed features, typically a regression model fitted
// on the real records.
type Estimator interface {
	Estimate(exerciseMinutes, calories int) float64
}

// Option configures an Augmenter.
type Option func(*Augmenter)

// WithSeed makes the random draws reproducible.
func WithSeed(seed int64) Option {
	return func(a *Augmenter) {
		a.rng = rand.New(rand.NewSource(seed))
	}
}

// WithClock overrides the clock used to date synthetic records.
func WithClock(now func() time.Time) Option {
	return func(a *Augmenter) {
		a.now = now
	}
}

// Augmenter fabricates plausible records by perturbing real ones.
type Augmenter struct {
	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

// NewAugmenter constructs an Augmenter seeded from the wall clock unless WithSeed is given.
func NewAugmenter(opts ...Option) *Augmenter {
	a := &Augmenter{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Augment returns count synthetic records drawn from real. With a nil estimator the source
// steps are scaled by the same factor as the features; otherwise steps are imputed by the
// estimator, truncated and floored at zero. Every synthetic record is dated at the start of
// the current UTC day.
func (a *Augmenter) Augment(real []domain.DailyRecord, count int, estimator Estimator) []domain.DailyRecord {
	if len(real) == 0 || count <= 0 {
		return []domain.DailyRecord{}
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	today := domain.Day(a.now())
	out := make([]domain.DailyRecord, 0, count)
	for i := 0; i < count; i++ {
		source := real[a.rng.Intn(len(real))]
		v := MinVariation + a.rng.Float64()*(MaxVariation-MinVariation)

		minutes := scale(source.ExerciseMinutes, v)
		calories := scale(source.Calories, v)

		var steps int
		if estimator == nil {
			steps = scale(source.Steps, v)
		} else {
			steps = floorSteps(estimator.Estimate(minutes, calories))
		}

		out = append(out, domain.DailyRecord{
			Date:            today,
			Steps:           steps,
			ExerciseMinutes: minutes,
			Calories:        calories,
			Synthetic:       true,
		})
	}
	return out
}

// CountFor converts a multiplier of the real record count (0.5x, 1x, 2x...) into a record count.
func CountFor(ratio float64, realCount int) int {
	if ratio <= 0 || realCount <= 0 || math.IsNaN(ratio) {
		return 0
	}
	return int(ratio * float64(realCount))
}

func scale(value int, v float64) int {
	return int(math.Round(float64(value) * v))
}

func floorSteps(estimate float64) int {
	if math.IsNaN(estimate) || estimate <= 0 {
		return 0
	}
	return int(estimate)
}
