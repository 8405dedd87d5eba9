package domain

import "errors"

var (
	// ErrDataUnavailable indicates no usable records remain, e.g. fewer than two survive outlier removal.
	ErrDataUnavailable = errors.New("no activity data available")
	// ErrInsufficientData is returned when there are too few rows to fit the requested model.
	ErrInsufficientData = errors.New("insufficient data to fit model")
	// ErrTrainingFailed reports a singular or ill-conditioned regression.
	ErrTrainingFailed = errors.New("model training failed")
	// ErrModelNotInitialized is returned by predictions issued before any model was trained or loaded.
	ErrModelNotInitialized = errors.New("model not initialized")
	// ErrInvalidFoldCount is returned when k is outside [2, len(records)].
	ErrInvalidFoldCount = errors.New("invalid fold count")
	// ErrPersistence wraps dataset and model artifact read/write failures.
	ErrPersistence = errors.New("persistence failure")
)
