// Package regression fits and evaluates the linear steps model.
package regression

import (
	"math"
	"time"

	"github.com/Rob190501/iWalk/internal/domain"
)

// Model is a fitted linear function steps = a*exerciseMinutes + b*calories + c.
// ExerciseMinutesCoef is always zero for the calories-only feature set.
type Model struct {
	ID                  string            `json:"id"`
	Features            domain.FeatureSet `json:"features"`
	Intercept           float64           `json:"intercept"`
	ExerciseMinutesCoef float64           `json:"exercise_minutes_coef"`
	CaloriesCoef        float64           `json:"calories_coef"`
	Rows                int               `json:"rows"`
	TrainedAt           time.Time         `json:"trained_at"`
}

// Estimate evaluates the model for one feature vector.
func (m *Model) Estimate(exerciseMinutes, calories int) float64 {
	steps := m.Intercept + m.CaloriesCoef*float64(calories)
	if m.Features != domain.FeaturesCaloriesOnly {
		steps += m.ExerciseMinutesCoef * float64(exerciseMinutes)
	}
	return steps
}

// EstimateSteps truncates the estimate toward zero and floors it at zero steps.
func (m *Model) EstimateSteps(exerciseMinutes, calories int) int {
	steps := m.Estimate(exerciseMinutes, calories)
	if math.IsNaN(steps) || steps <= 0 {
		return 0
	}
	return int(steps)
}

// Finite reports whether every coefficient is a usable number.
func (m *Model) Finite() bool {
	for _, v := range []float64{m.Intercept, m.ExerciseMinutesCoef, m.CaloriesCoef} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
