// Package predictor answers "steps needed" queries against the most recently trained model.
package predictor

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/Rob190501/iWalk/internal/domain"
	"github.com/Rob190501/iWalk/internal/regression"
)

// Trainer fits the replacement model used by Retrain.
type Trainer interface {
	Train(records []domain.DailyRecord) (*regression.Model, error)
}

// Predictor caches one model for the lifetime of the process. Readers always observe either
// the previous or the new complete model; a failed retrain leaves the slot untouched.
type Predictor struct {
	model   atomic.Pointer[regression.Model]
	trainer Trainer
	writeMu sync.Mutex
}

// New constructs an empty Predictor.
func New(trainer Trainer) *Predictor {
	return &Predictor{trainer: trainer}
}

// Ready reports whether a model has been trained or loaded.
func (p *Predictor) Ready() bool {
	return p.model.Load() != nil
}

// Current returns the active model, or nil before the first train/load.
func (p *Predictor) Current() *regression.Model {
	return p.model.Load()
}

// Load installs an already fitted model, e.g. one read back from disk.
func (p *Predictor) Load(model *regression.Model) error {
	if model == nil || !model.Finite() {
		return fmt.Errorf("%w: refusing to load an unusable model", domain.ErrTrainingFailed)
	}
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	p.model.Store(model)
	return nil
}

// Retrain fits a new model on records and swaps it in only once training succeeds. A non-nil
// commit runs with the fitted model before the swap, typically to persist it; its error
// leaves the slot untouched.
func (p *Predictor) Retrain(records []domain.DailyRecord, commit func(*regression.Model) error) (*regression.Model, error) {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	model, err := p.trainer.Train(records)
	if err != nil {
		return nil, err
	}
	if commit != nil {
		if err := commit(model); err != nil {
			return nil, err
		}
	}
	p.model.Store(model)
	return model, nil
}

// PredictSteps returns the steps needed to burn calories given today's exercise minutes.
// Non-positive calories (target already met) and negative minutes yield zero without touching
// the model. Predictions are truncated and never negative.
func (p *Predictor) PredictSteps(calories, exerciseMinutes int) (int, error) {
	if calories <= 0 || exerciseMinutes < 0 {
		return 0, nil
	}
	model := p.model.Load()
	if model == nil {
		return 0, domain.ErrModelNotInitialized
	}
	return model.EstimateSteps(exerciseMinutes, calories), nil
}
