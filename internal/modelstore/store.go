// Package modelstore persists fitted models as a serialized artifact plus a compiled counterpart.
package modelstore

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/Rob190501/iWalk/internal/domain"
	"github.com/Rob190501/iWalk/internal/regression"
)

const (
	SerializedName = "StepsPredictor.json"
	CompiledName   = "StepsPredictor.bin"
)

// compiledMagic prefixes the compiled artifact; the trailing byte is the layout version.
var compiledMagic = [4]byte{'S', 'P', 'M', 1}

// FileStore keeps artifacts in a directory.
type FileStore struct {
	dir string
}

// NewFileStore constructs a FileStore rooted at dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// Dir returns the artifact directory.
func (s *FileStore) Dir() string {
	return s.dir
}

// Save writes the serialized model and then its compiled form, each atomically.
func (s *FileStore) Save(model *regression.Model) error {
	if model == nil {
		return fmt.Errorf("%w: nil model", domain.ErrPersistence)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}

	serialized, err := json.MarshalIndent(model, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode model: %v", domain.ErrPersistence, err)
	}
	if err := writeAtomic(filepath.Join(s.dir, SerializedName), serialized); err != nil {
		return err
	}
	return s.compile(model)
}

// Load returns the stored model. The compiled artifact is preferred; when it is missing or
// unreadable the serialized artifact is decoded and recompiled. With no artifacts at all the
// error wraps domain.ErrModelNotInitialized.
func (s *FileStore) Load() (*regression.Model, error) {
	if model, err := s.loadCompiled(); err == nil {
		return model, nil
	}

	raw, err := os.ReadFile(filepath.Join(s.dir, SerializedName))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: no model artifact in %s", domain.ErrModelNotInitialized, s.dir)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	var model regression.Model
	if err := json.Unmarshal(raw, &model); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", domain.ErrPersistence, SerializedName, err)
	}
	if !model.Finite() {
		return nil, fmt.Errorf("%w: %s holds non-finite coefficients", domain.ErrPersistence, SerializedName)
	}
	if err := s.compile(&model); err != nil {
		return nil, err
	}
	return &model, nil
}

func (s *FileStore) compile(model *regression.Model) error {
	data, err := marshalCompiled(model)
	if err != nil {
		return fmt.Errorf("%w: compile model: %v", domain.ErrPersistence, err)
	}
	return writeAtomic(filepath.Join(s.dir, CompiledName), data)
}

func (s *FileStore) loadCompiled() (*regression.Model, error) {
	raw, err := os.ReadFile(filepath.Join(s.dir, CompiledName))
	if err != nil {
		return nil, err
	}
	return unmarshalCompiled(raw)
}

// compiledLayout is the fixed-width little-endian body following the magic header.
type compiledLayout struct {
	Features            uint8
	Rows                uint32
	TrainedAtUnixNano   int64
	Intercept           float64
	ExerciseMinutesCoef float64
	CaloriesCoef        float64
	ID                  [36]byte
}

func marshalCompiled(model *regression.Model) ([]byte, error) {
	layout := compiledLayout{
		Rows:                uint32(model.Rows),
		TrainedAtUnixNano:   model.TrainedAt.UnixNano(),
		Intercept:           model.Intercept,
		ExerciseMinutesCoef: model.ExerciseMinutesCoef,
		CaloriesCoef:        model.CaloriesCoef,
	}
	if model.Features == domain.FeaturesCaloriesOnly {
		layout.Features = 1
	} else {
		layout.Features = 2
	}
	if len(model.ID) > len(layout.ID) {
		return nil, fmt.Errorf("model id %q too long", model.ID)
	}
	copy(layout.ID[:], model.ID)

	var buf bytes.Buffer
	buf.Write(compiledMagic[:])
	if err := binary.Write(&buf, binary.LittleEndian, layout); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func unmarshalCompiled(raw []byte) (*regression.Model, error) {
	if len(raw) < len(compiledMagic) || !bytes.Equal(raw[:len(compiledMagic)], compiledMagic[:]) {
		return nil, errors.New("compiled model has an unknown header")
	}
	var layout compiledLayout
	if err := binary.Read(bytes.NewReader(raw[len(compiledMagic):]), binary.LittleEndian, &layout); err != nil {
		return nil, err
	}

	model := &regression.Model{
		ID:                  string(bytes.TrimRight(layout.ID[:], "\x00")),
		Features:            domain.FeaturesCaloriesAndExercise,
		Intercept:           layout.Intercept,
		ExerciseMinutesCoef: layout.ExerciseMinutesCoef,
		CaloriesCoef:        layout.CaloriesCoef,
		Rows:                int(layout.Rows),
		TrainedAt:           time.Unix(0, layout.TrainedAtUnixNano).UTC(),
	}
	if layout.Features == 1 {
		model.Features = domain.FeaturesCaloriesOnly
	}
	if math.IsNaN(model.Intercept) || !model.Finite() {
		return nil, errors.New("compiled model holds non-finite coefficients")
	}
	return model, nil
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: write %s: %v", domain.ErrPersistence, path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	return nil
}
