// Package outlier discards implausible daily records before model training.
package outlier

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/Rob190501/iWalk/internal/domain"
)

// DefaultMinCalories is the active-energy floor below which a day is considered degenerate.
const DefaultMinCalories = 30

// NoCalorieFloor disables the calorie floor; days still need positive calories to carry a ratio.
const NoCalorieFloor = -1

// ErrInvalidConfig reports an unusable filter configuration.
var ErrInvalidConfig = errors.New("invalid outlier filter configuration")

// iqrMultiplier widens the interquartile range into the accepted band.
const iqrMultiplier = 1.5

// Config selects the filtering rule.
type Config struct {
	Method domain.OutlierMethod
	// MinCalories drops days with calories at or below it. Zero selects DefaultMinCalories;
	// any negative value, such as NoCalorieFloor, keeps every day with positive calories.
	MinCalories int
	// Tolerance is the half-width of the kcal/step band used by the tolerance method.
	Tolerance float64
}

// Bounds is the inclusive calories-per-step band a record must fall into to be kept.
type Bounds struct {
	Lower float64
	Upper float64
}

// Contains reports whether ratio lies in the band.
func (b Bounds) Contains(ratio float64) bool {
	return ratio >= b.Lower && ratio <= b.Upper
}

// Filter returns the subset of records whose calories-per-step ratio is plausible.
// Input order is preserved. When fewer than two records carry a usable ratio the result is
// empty and the error wraps domain.ErrDataUnavailable.
func Filter(records []domain.DailyRecord, cfg Config) ([]domain.DailyRecord, error) {
	kept, _, err := FilterWithBounds(records, cfg)
	return kept, err
}

// FilterWithBounds behaves like Filter and also reports the band that was applied.
func FilterWithBounds(records []domain.DailyRecord, cfg Config) ([]domain.DailyRecord, Bounds, error) {
	minCalories := cfg.MinCalories
	switch {
	case minCalories == 0:
		minCalories = DefaultMinCalories
	case minCalories < 0:
		minCalories = 0
	}

	candidates := make([]domain.DailyRecord, 0, len(records))
	ratios := make([]float64, 0, len(records))
	for _, record := range records {
		if record.Calories <= minCalories {
			continue
		}
		// A day with energy burned but no steps is itself anomalous.
		ratio, ok := record.CaloriesPerStep()
		if !ok {
			continue
		}
		candidates = append(candidates, record)
		ratios = append(ratios, ratio)
	}

	if len(candidates) < 2 {
		return []domain.DailyRecord{}, Bounds{}, fmt.Errorf("%w: %d records left after calorie floor of %d", domain.ErrDataUnavailable, len(candidates), minCalories)
	}

	var (
		bounds Bounds
		err    error
	)
	switch cfg.Method {
	case "", domain.OutlierIQR:
		bounds = iqrBounds(ratios)
	case domain.OutlierToleranceBand:
		bounds, err = toleranceBounds(ratios, cfg.Tolerance)
	default:
		err = fmt.Errorf("%w: unsupported method %q", ErrInvalidConfig, cfg.Method)
	}
	if err != nil {
		return nil, Bounds{}, err
	}

	out := make([]domain.DailyRecord, 0, len(candidates))
	for i, record := range candidates {
		if bounds.Contains(ratios[i]) {
			out = append(out, record)
		}
	}
	return out, bounds, nil
}

func iqrBounds(ratios []float64) Bounds {
	sorted := append([]float64(nil), ratios...)
	sort.Float64s(sorted)

	q1 := Percentile(sorted, 25)
	q3 := Percentile(sorted, 75)
	iqr := q3 - q1
	return Bounds{
		Lower: q1 - iqrMultiplier*iqr,
		Upper: q3 + iqrMultiplier*iqr,
	}
}

// toleranceBounds is the legacy band of mean ratio plus or minus a caller-supplied tolerance.
func toleranceBounds(ratios []float64, tolerance float64) (Bounds, error) {
	if tolerance <= 0 || math.IsNaN(tolerance) {
		return Bounds{}, fmt.Errorf("%w: tolerance must be > 0, got %v", ErrInvalidConfig, tolerance)
	}
	var sum float64
	for _, r := range ratios {
		sum += r
	}
	mean := sum / float64(len(ratios))
	return Bounds{Lower: mean - tolerance, Upper: mean + tolerance}, nil
}

// Percentile interpolates linearly between the order statistics surrounding p/100*(n-1).
// sorted must be in ascending order and non-empty.
func Percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	index := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(index))
	hi := int(math.Ceil(index))
	lower, upper := sorted[lo], sorted[hi]
	return lower + (upper-lower)*(index-math.Floor(index))
}
