package regression

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"

	"github.com/Rob190501/iWalk/internal/domain"
)

// MaxCondition is the largest design-matrix condition number accepted before a fit is
// reported as singular.
const MaxCondition = 1e12

// Trainer fits ordinary least squares of steps on the configured feature set.
type Trainer struct {
	Features domain.FeatureSet
	// Now stamps TrainedAt; defaults to time.Now.
	Now func() time.Time
}

// NewTrainer constructs a Trainer for the feature set.
func NewTrainer(features domain.FeatureSet) *Trainer {
	if features == "" {
		features = domain.FeaturesCaloriesAndExercise
	}
	return &Trainer{Features: features, Now: time.Now}
}

// Train fits a model to records. No regularisation or feature scaling is applied.
func (t *Trainer) Train(records []domain.DailyRecord) (*Model, error) {
	features := t.Features
	if features == "" {
		features = domain.FeaturesCaloriesAndExercise
	}
	cols := features.Count() + 1
	if len(records) < cols {
		return nil, fmt.Errorf("%w: %d rows for %d coefficients", domain.ErrInsufficientData, len(records), cols)
	}

	x := mat.NewDense(len(records), cols, nil)
	y := mat.NewVecDense(len(records), nil)
	for i, r := range records {
		x.Set(i, 0, 1)
		x.Set(i, 1, float64(r.Calories))
		if cols == 3 {
			x.Set(i, 2, float64(r.ExerciseMinutes))
		}
		y.SetVec(i, float64(r.Steps))
	}

	var qr mat.QR
	qr.Factorize(x)
	if cond := qr.Cond(); cond > MaxCondition {
		return nil, fmt.Errorf("%w: design matrix is singular (condition number %.3g)", domain.ErrTrainingFailed, cond)
	}

	var beta mat.VecDense
	if err := qr.SolveVecTo(&beta, false, y); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrTrainingFailed, err)
	}

	now := time.Now
	if t.Now != nil {
		now = t.Now
	}
	model := &Model{
		ID:           uuid.NewString(),
		Features:     features,
		Intercept:    beta.AtVec(0),
		CaloriesCoef: beta.AtVec(1),
		Rows:         len(records),
		TrainedAt:    now().UTC(),
	}
	if cols == 3 {
		model.ExerciseMinutesCoef = beta.AtVec(2)
	}
	if !model.Finite() {
		return nil, fmt.Errorf("%w: non-finite coefficients", domain.ErrTrainingFailed)
	}
	return model, nil
}
