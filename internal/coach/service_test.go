package coach

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Rob190501/iWalk/internal/domain"
	"github.com/Rob190501/iWalk/internal/modelstore"
	"github.com/Rob190501/iWalk/internal/regression"
)

var fixedNow = time.Date(2025, time.July, 1, 10, 0, 0, 0, time.UTC)

type stubSource struct {
	records []domain.DailyRecord
	today   domain.Today
	err     error
}

func (s *stubSource) Daily(ctx context.Context, from, to time.Time) ([]domain.DailyRecord, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([]domain.DailyRecord, 0, len(s.records))
	for _, record := range s.records {
		if !record.Date.Before(from) && record.Date.Before(to) {
			out = append(out, record)
		}
	}
	return out, nil
}

func (s *stubSource) Today(ctx context.Context) (domain.Today, error) {
	return s.today, s.err
}

type recordingPublisher struct {
	mu     sync.Mutex
	models []*regression.Model
	err    error
}

func (p *recordingPublisher) PublishModelRetrained(ctx context.Context, model *regression.Model) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.models = append(p.models, model)
	return p.err
}

// linearHistory returns days where steps = 2*calories + 10 exactly, newest last.
func linearHistory(n int) []domain.DailyRecord {
	records := make([]domain.DailyRecord, 0, n)
	for i := 0; i < n; i++ {
		calories := 100 + 10*i
		records = append(records, domain.DailyRecord{
			Date:            domain.Day(fixedNow).AddDate(0, 0, -(n - i)),
			Steps:           2*calories + 10,
			ExerciseMinutes: 10 + (i*7)%13,
			Calories:        calories,
		})
	}
	return records
}

func newTestService(t *testing.T, source *stubSource, opts ...Option) (*Service, *modelstore.FileStore) {
	t.Helper()
	dir := t.TempDir()
	store := modelstore.NewFileStore(filepath.Join(dir, "models"))
	base := []Option{
		WithClock(func() time.Time { return fixedNow }),
		WithSeed(7),
		WithLogger(log.New(io.Discard, "", 0)),
	}
	svc := NewService(source, store, Config{DatasetPath: filepath.Join(dir, "dataset.csv")}, append(base, opts...)...)
	return svc, store
}

func TestFetchDatasetFiltersAndAugments(t *testing.T) {
	history := linearHistory(20)
	history = append(history,
		domain.DailyRecord{Date: domain.Day(fixedNow).AddDate(0, 0, -40), Steps: 100, ExerciseMinutes: 60, Calories: 500},
		domain.DailyRecord{Date: domain.Day(fixedNow).AddDate(0, 0, -41), Steps: 3000, ExerciseMinutes: 5, Calories: 20},
	)
	svc, _ := newTestService(t, &stubSource{records: history})

	ds, err := svc.FetchDataset(context.Background(), FetchOptions{
		Years:             1,
		RemoveOutliers:    true,
		GenerateSynthetic: true,
		SyntheticRatio:    0.5,
	})
	require.NoError(t, err)
	require.Equal(t, 20, ds.Real)
	require.Equal(t, 10, ds.Synthetic)
	require.Len(t, ds.Records, 30)
	require.NotNil(t, ds.Bounds)

	for i, record := range ds.Records {
		require.Equal(t, i >= 20, record.Synthetic)
		if i > 0 && i < 20 {
			require.False(t, record.Date.Before(ds.Records[i-1].Date))
		}
	}
	require.True(t, ds.Records[25].Date.Equal(domain.Day(fixedNow)))
}

func TestFetchDatasetSkipsSyntheticWithoutFiltering(t *testing.T) {
	svc, _ := newTestService(t, &stubSource{records: linearHistory(6)})

	ds, err := svc.FetchDataset(context.Background(), FetchOptions{GenerateSynthetic: true, SyntheticCount: 4})
	require.NoError(t, err)
	require.Equal(t, 6, ds.Real)
	require.Zero(t, ds.Synthetic)
	require.Nil(t, ds.Bounds)
}

func TestFetchDatasetImputesSyntheticSteps(t *testing.T) {
	svc, _ := newTestService(t, &stubSource{records: linearHistory(20)})

	ds, err := svc.FetchDataset(context.Background(), FetchOptions{
		RemoveOutliers:    true,
		GenerateSynthetic: true,
		SyntheticCount:    5,
	})
	require.NoError(t, err)
	require.Equal(t, 5, ds.Synthetic)
	for _, record := range ds.Records[ds.Real:] {
		require.InDelta(t, 2*record.Calories+10, record.Steps, 1)
	}
}

func constantMinutesHistory() []domain.DailyRecord {
	records := linearHistory(3)
	for i := range records {
		records[i].ExerciseMinutes = 20
	}
	return records
}

func TestFetchDatasetFailsWhenImputationCannotFit(t *testing.T) {
	svc, _ := newTestService(t, &stubSource{records: constantMinutesHistory()})

	_, err := svc.FetchDataset(context.Background(), FetchOptions{
		RemoveOutliers:    true,
		GenerateSynthetic: true,
		SyntheticCount:    4,
	})
	require.ErrorIs(t, err, domain.ErrTrainingFailed)

	svc, _ = newTestService(t, &stubSource{records: linearHistory(2)})
	_, err = svc.FetchDataset(context.Background(), FetchOptions{
		RemoveOutliers:    true,
		GenerateSynthetic: true,
		SyntheticCount:    4,
	})
	require.ErrorIs(t, err, domain.ErrInsufficientData)
}

func TestFetchDatasetSimpleScalingSkipsImputation(t *testing.T) {
	history := constantMinutesHistory()
	svc, _ := newTestService(t, &stubSource{records: history})

	ds, err := svc.FetchDataset(context.Background(), FetchOptions{
		RemoveOutliers:    true,
		GenerateSynthetic: true,
		SyntheticCount:    4,
		SimpleScaling:     true,
	})
	require.NoError(t, err)
	require.Equal(t, 3, ds.Real)
	require.Equal(t, 4, ds.Synthetic)
	for _, record := range ds.Records[ds.Real:] {
		require.True(t, record.Synthetic)
		require.GreaterOrEqual(t, record.Steps, int(0.85*float64(history[0].Steps))-1)
		require.LessOrEqual(t, record.Steps, int(1.15*float64(history[2].Steps))+1)
	}
}

func TestFetchDatasetEmptyHistory(t *testing.T) {
	svc, _ := newTestService(t, &stubSource{})

	_, err := svc.FetchDataset(context.Background(), FetchOptions{})
	require.ErrorIs(t, err, domain.ErrDataUnavailable)

	_, err = svc.FetchDataset(context.Background(), FetchOptions{RemoveOutliers: true})
	require.ErrorIs(t, err, domain.ErrDataUnavailable)
}

func TestFetchDatasetSourceFailure(t *testing.T) {
	svc, _ := newTestService(t, &stubSource{err: domain.ErrDataUnavailable})

	_, err := svc.FetchDataset(context.Background(), FetchOptions{})
	require.ErrorIs(t, err, domain.ErrDataUnavailable)
}

func TestBuildModelActivatesPersistsAndPublishes(t *testing.T) {
	publisher := &recordingPublisher{}
	svc, store := newTestService(t, &stubSource{}, WithPublisher(publisher))

	model, err := svc.BuildModel(context.Background(), linearHistory(30))
	require.NoError(t, err)
	require.Equal(t, 30, model.Rows)
	require.InDelta(t, 2.0, model.CaloriesCoef, 1e-6)
	require.InDelta(t, 10.0, model.Intercept, 1e-4)
	require.Same(t, model, svc.Predictor().Current())

	persisted, err := store.Load()
	require.NoError(t, err)
	require.Equal(t, model.ID, persisted.ID)

	require.Len(t, publisher.models, 1)
	require.Equal(t, model.ID, publisher.models[0].ID)
}

func TestBuildModelIgnoresPublishFailure(t *testing.T) {
	svc, _ := newTestService(t, &stubSource{}, WithPublisher(&recordingPublisher{err: errors.New("broker down")}))

	_, err := svc.BuildModel(context.Background(), linearHistory(10))
	require.NoError(t, err)
	require.True(t, svc.Predictor().Ready())
}

func TestBuildModelFailureKeepsPreviousModel(t *testing.T) {
	svc, _ := newTestService(t, &stubSource{})

	first, err := svc.BuildModel(context.Background(), linearHistory(10))
	require.NoError(t, err)

	before, err := os.ReadFile(svc.cfg.DatasetPath)
	require.NoError(t, err)

	_, err = svc.BuildModel(context.Background(), linearHistory(2))
	require.ErrorIs(t, err, domain.ErrInsufficientData)
	require.Same(t, first, svc.Predictor().Current())

	after, err := os.ReadFile(svc.cfg.DatasetPath)
	require.NoError(t, err)
	require.Equal(t, before, after)
	_, err = os.Stat(svc.cfg.DatasetPath + pendingSuffix)
	require.ErrorIs(t, err, fs.ErrNotExist)

	report, err := svc.Validate(context.Background(), 2)
	require.NoError(t, err)
	require.Equal(t, 2, report.FoldCount)
}

type failingModelStore struct {
	*modelstore.FileStore
	err error
}

func (f failingModelStore) Save(*regression.Model) error {
	return f.err
}

func TestBuildModelPersistFailureKeepsSnapshot(t *testing.T) {
	dir := t.TempDir()
	datasetPath := filepath.Join(dir, "dataset.csv")
	store := failingModelStore{FileStore: modelstore.NewFileStore(dir), err: domain.ErrPersistence}
	svc := NewService(&stubSource{}, store, Config{DatasetPath: datasetPath}, WithLogger(log.New(io.Discard, "", 0)))

	_, err := svc.BuildModel(context.Background(), linearHistory(10))
	require.ErrorIs(t, err, domain.ErrPersistence)
	require.False(t, svc.Predictor().Ready())

	_, err = os.Stat(datasetPath)
	require.ErrorIs(t, err, fs.ErrNotExist)
	_, err = svc.Validate(context.Background(), 2)
	require.ErrorIs(t, err, domain.ErrDataUnavailable)
}

func TestPredictWithoutModel(t *testing.T) {
	svc, _ := newTestService(t, &stubSource{})

	steps, err := svc.Predict(context.Background(), 0, 30)
	require.NoError(t, err)
	require.Zero(t, steps)

	_, err = svc.Predict(context.Background(), 250, 30)
	require.ErrorIs(t, err, domain.ErrModelNotInitialized)
}

func TestStepsToGoSubtractsTodaysSteps(t *testing.T) {
	source := &stubSource{today: domain.Today{Steps: 150, ExerciseMinutes: 12}}
	svc, _ := newTestService(t, source)
	_, err := svc.BuildModel(context.Background(), linearHistory(30))
	require.NoError(t, err)

	predicted, err := svc.Predict(context.Background(), 300, 12)
	require.NoError(t, err)

	remaining, err := svc.StepsToGo(context.Background(), 300)
	require.NoError(t, err)
	require.Equal(t, predicted-150, remaining)

	source.today.Steps = 100000
	remaining, err = svc.StepsToGo(context.Background(), 300)
	require.NoError(t, err)
	require.Zero(t, remaining)
}

func TestValidateUsesTrainingSnapshot(t *testing.T) {
	svc, _ := newTestService(t, &stubSource{})

	_, err := svc.Validate(context.Background(), 5)
	require.ErrorIs(t, err, domain.ErrDataUnavailable)

	_, err = svc.BuildModel(context.Background(), linearHistory(30))
	require.NoError(t, err)

	report, err := svc.Validate(context.Background(), 5)
	require.NoError(t, err)
	require.Equal(t, 5, report.FoldCount)
	require.Len(t, report.FoldErrors, 5)
	require.Zero(t, report.MeanAbsoluteError)

	_, err = svc.Validate(context.Background(), 31)
	require.ErrorIs(t, err, domain.ErrInvalidFoldCount)
}

func TestRestore(t *testing.T) {
	svc, _ := newTestService(t, &stubSource{})
	require.NoError(t, svc.Restore(context.Background()))
	require.False(t, svc.Predictor().Ready())

	dir := t.TempDir()
	store := modelstore.NewFileStore(dir)
	trained, err := regression.NewTrainer(domain.FeaturesCaloriesAndExercise).Train(linearHistory(10))
	require.NoError(t, err)
	require.NoError(t, store.Save(trained))

	restored := NewService(&stubSource{}, store, Config{DatasetPath: filepath.Join(dir, "dataset.csv")}, WithLogger(log.New(io.Discard, "", 0)))
	require.NoError(t, restored.Restore(context.Background()))
	require.Equal(t, trained.ID, restored.Predictor().Current().ID)
}
