// Package coach orchestrates dataset preparation, model builds and step predictions.
package coach

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"sync"
	"time"

	"github.com/Rob190501/iWalk/internal/dataset"
	"github.com/Rob190501/iWalk/internal/domain"
	"github.com/Rob190501/iWalk/internal/healthsource"
	"github.com/Rob190501/iWalk/internal/observability"
	"github.com/Rob190501/iWalk/internal/outlier"
	"github.com/Rob190501/iWalk/internal/predictor"
	"github.com/Rob190501/iWalk/internal/regression"
	"github.com/Rob190501/iWalk/internal/synthetic"
	"github.com/Rob190501/iWalk/internal/validation"
)

// ModelStore persists fitted models between process runs.
type ModelStore interface {
	Save(model *regression.Model) error
	Load() (*regression.Model, error)
}

// Publisher announces a newly active model.
type Publisher interface {
	PublishModelRetrained(ctx context.Context, model *regression.Model) error
}

// pendingSuffix marks a training snapshot that has not yet produced an active model.
const pendingSuffix = ".pending"

// Config carries the service settings. Defaults fills FetchOptions fields left at zero.
type Config struct {
	DatasetPath string
	Features    domain.FeatureSet
	Defaults    FetchOptions
}

// Option customises a Service.
type Option func(*Service)

// WithLogger overrides the default logger.
func WithLogger(logger *log.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the wall clock used for history windows and synthetic dates.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithSeed makes augmentation and cross-validation reproducible.
func WithSeed(seed int64) Option {
	return func(s *Service) {
		s.seed = &seed
	}
}

// WithPublisher registers the model event publisher.
func WithPublisher(publisher Publisher) Option {
	return func(s *Service) {
		s.publisher = publisher
	}
}

// Service is the query surface used by the HTTP API and the CLI.
type Service struct {
	source    healthsource.Source
	models    ModelStore
	predictor *predictor.Predictor
	trainer   *regression.Trainer
	augmenter *synthetic.Augmenter
	publisher Publisher

	cfg    Config
	seed   *int64
	now    func() time.Time
	logger *log.Logger

	buildMu sync.Mutex
}

// NewService constructs a Service.
func NewService(source healthsource.Source, models ModelStore, cfg Config, opts ...Option) *Service {
	if cfg.Features == "" {
		cfg.Features = domain.FeaturesCaloriesAndExercise
	}
	s := &Service{
		source: source,
		models: models,
		cfg:    cfg,
		now:    time.Now,
		logger: log.New(log.Writer(), "[coach] ", log.LstdFlags|log.Lshortfile),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.trainer = regression.NewTrainer(cfg.Features)
	s.trainer.Now = s.now
	s.predictor = predictor.New(s.trainer)

	augmenterOpts := []synthetic.Option{synthetic.WithClock(s.now)}
	if s.seed != nil {
		augmenterOpts = append(augmenterOpts, synthetic.WithSeed(*s.seed))
	}
	s.augmenter = synthetic.NewAugmenter(augmenterOpts...)
	return s
}

// Predictor exposes the model slot, mainly for readiness checks.
func (s *Service) Predictor() *predictor.Predictor {
	return s.predictor
}

// Restore installs the persisted model, if any. A missing artifact is not an error.
func (s *Service) Restore(ctx context.Context) error {
	model, err := s.models.Load()
	if err != nil {
		if errors.Is(err, domain.ErrModelNotInitialized) {
			s.logger.Printf("no persisted model yet")
			return nil
		}
		return err
	}
	if err := s.predictor.Load(model); err != nil {
		return err
	}
	s.logger.Printf("restored model %s trained on %d rows", model.ID, model.Rows)
	return nil
}

// FetchOptions controls dataset preparation.
type FetchOptions struct {
	Years             int                  `json:"years"`
	RemoveOutliers    bool                 `json:"remove_outliers"`
	OutlierMethod     domain.OutlierMethod `json:"outlier_method,omitempty"`
	Tolerance         float64              `json:"tolerance,omitempty"`
	MinCalories       int                  `json:"min_calories,omitempty"`
	GenerateSynthetic bool                 `json:"generate_synthetic"`
	SyntheticCount    int                  `json:"synthetic_count,omitempty"`
	SyntheticRatio    float64              `json:"synthetic_ratio,omitempty"`
	// SimpleScaling co-scales source steps instead of imputing them from a model fitted on
	// the real records.
	SimpleScaling     bool                 `json:"simple_scaling,omitempty"`
}

func (o FetchOptions) withDefaults(d FetchOptions) FetchOptions {
	if o.Years <= 0 {
		o.Years = d.Years
	}
	if o.OutlierMethod == "" {
		o.OutlierMethod = d.OutlierMethod
	}
	if o.Tolerance <= 0 {
		o.Tolerance = d.Tolerance
	}
	if o.MinCalories == 0 {
		o.MinCalories = d.MinCalories
	}
	if o.SyntheticCount <= 0 && o.SyntheticRatio <= 0 {
		o.SyntheticRatio = d.SyntheticRatio
	}
	return o
}

// Dataset is a prepared training set: real records by date, then synthetic ones.
type Dataset struct {
	Records   []domain.DailyRecord
	Real      int
	Synthetic int
	Bounds    *outlier.Bounds
}

// FetchDataset pulls history from the health source and prepares it for training.
// Synthetic records are only generated on top of an outlier-filtered dataset.
func (s *Service) FetchDataset(ctx context.Context, opts FetchOptions) (Dataset, error) {
	opts = opts.withDefaults(s.cfg.Defaults)
	years := opts.Years
	if years <= 0 {
		years = 1
	}
	to := domain.Day(s.now())
	from := to.AddDate(-years, 0, 0)

	history, err := s.source.Daily(ctx, from, to)
	if err != nil {
		return Dataset{}, fmt.Errorf("fetch history: %w", err)
	}
	observed := domain.Snapshot(history)
	domain.SortByDate(observed)

	result := Dataset{}
	if opts.RemoveOutliers {
		method := opts.OutlierMethod
		if method == "" {
			method = domain.OutlierIQR
		}
		kept, bounds, err := outlier.FilterWithBounds(observed, outlier.Config{
			Method:      method,
			MinCalories: opts.MinCalories,
			Tolerance:   opts.Tolerance,
		})
		if err != nil {
			return Dataset{}, fmt.Errorf("filter outliers: %w", err)
		}
		observed = kept
		result.Bounds = &bounds
	}
	if len(observed) == 0 {
		return Dataset{}, fmt.Errorf("%w: no records between %s and %s", domain.ErrDataUnavailable, from.Format("2006-01-02"), to.Format("2006-01-02"))
	}

	records := observed
	if opts.RemoveOutliers && opts.GenerateSynthetic {
		count := opts.SyntheticCount
		if count <= 0 {
			count = synthetic.CountFor(opts.SyntheticRatio, len(observed))
		}
		estimator, err := s.imputer(observed, !opts.SimpleScaling)
		if err != nil {
			return Dataset{}, err
		}
		generated := s.augmenter.Augment(observed, count, estimator)
		records = append(domain.Snapshot(observed), generated...)
		result.Synthetic = len(generated)
	}
	result.Records = records
	result.Real = len(observed)

	observability.RecordDataset(result.Real, result.Synthetic)
	s.logger.Printf("prepared dataset real=%d synthetic=%d", result.Real, result.Synthetic)
	return result, nil
}

// imputer fits a throwaway model on the real records so synthetic steps follow the fitted
// relationship. A nil estimator selects simple scaling.
func (s *Service) imputer(observed []domain.DailyRecord, enabled bool) (synthetic.Estimator, error) {
	if !enabled {
		return nil, nil
	}
	model, err := s.trainer.Train(observed)
	if err != nil {
		return nil, fmt.Errorf("impute synthetic steps: %w", err)
	}
	return model, nil
}

// BuildModel snapshots records to a pending CSV, trains on the snapshot as read back,
// persists the model, promotes the snapshot to DatasetPath and makes the model active.
// Builds are serialised; on any failure the previous model and snapshot stay in place.
func (s *Service) BuildModel(ctx context.Context, records []domain.DailyRecord) (model *regression.Model, err error) {
	s.buildMu.Lock()
	defer s.buildMu.Unlock()

	started := time.Now()
	defer func() {
		rows := 0
		if model != nil {
			rows = model.Rows
		}
		observability.RecordTraining(started, rows, err)
	}()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pending := s.cfg.DatasetPath + pendingSuffix
	defer os.Remove(pending)

	if err := dataset.SaveCSV(pending, records, s.cfg.Features); err != nil {
		return nil, fmt.Errorf("write training snapshot: %w", err)
	}
	snapshot, _, err := dataset.LoadCSV(pending)
	if err != nil {
		return nil, fmt.Errorf("read training snapshot: %w", err)
	}

	model, err = s.predictor.Retrain(snapshot, func(trained *regression.Model) error {
		if err := s.models.Save(trained); err != nil {
			return fmt.Errorf("persist model: %w", err)
		}
		if err := os.Rename(pending, s.cfg.DatasetPath); err != nil {
			return fmt.Errorf("%w: promote training snapshot: %v", domain.ErrPersistence, err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("build model: %w", err)
	}
	s.logger.Printf("model %s active: rows=%d intercept=%.3f calories=%.4f minutes=%.4f",
		model.ID, model.Rows, model.Intercept, model.CaloriesCoef, model.ExerciseMinutesCoef)

	if s.publisher != nil {
		if perr := s.publisher.PublishModelRetrained(ctx, model); perr != nil {
			s.logger.Printf("publish model %s: %v", model.ID, perr)
		}
	}
	return model, nil
}

// Predict returns the steps needed to burn calories given exerciseMinutes of exercise.
func (s *Service) Predict(ctx context.Context, calories, exerciseMinutes int) (int, error) {
	steps, err := s.predictor.PredictSteps(calories, exerciseMinutes)
	switch {
	case err != nil:
		observability.RecordPrediction("error")
	case calories <= 0 || exerciseMinutes < 0:
		observability.RecordPrediction("short_circuit")
	default:
		observability.RecordPrediction("model")
	}
	return steps, err
}

// StepsToGo predicts the steps still needed today to burn caloriesToBurn, net of the steps
// already walked.
func (s *Service) StepsToGo(ctx context.Context, caloriesToBurn int) (int, error) {
	today, err := s.source.Today(ctx)
	if err != nil {
		return 0, fmt.Errorf("read today: %w", err)
	}
	predicted, err := s.Predict(ctx, caloriesToBurn, today.ExerciseMinutes)
	if err != nil {
		return 0, err
	}
	if remaining := predicted - today.Steps; remaining > 0 {
		return remaining, nil
	}
	return 0, nil
}

// Validate runs k-fold cross-validation over the last training snapshot.
func (s *Service) Validate(ctx context.Context, k int) (validation.Report, error) {
	if _, err := os.Stat(s.cfg.DatasetPath); errors.Is(err, fs.ErrNotExist) {
		return validation.Report{}, fmt.Errorf("%w: no training snapshot at %s", domain.ErrDataUnavailable, s.cfg.DatasetPath)
	}
	records, features, err := dataset.LoadCSV(s.cfg.DatasetPath)
	if err != nil {
		return validation.Report{}, fmt.Errorf("read training snapshot: %w", err)
	}

	var opts []validation.Option
	if s.seed != nil {
		opts = append(opts, validation.WithSeed(*s.seed))
	}
	report, err := validation.NewValidator(regression.NewTrainer(features), opts...).KFold(ctx, records, k)
	if err != nil {
		return validation.Report{}, err
	}
	observability.RecordValidation(report.MeanAbsoluteError)
	s.logger.Printf("validated %d records with k=%d: mae=%d", len(records), k, report.MeanAbsoluteError)
	return report, nil
}
