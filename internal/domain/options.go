package domain

import (
	"fmt"
	"strings"
)

// FeatureSet selects the regressors used to explain steps.
type FeatureSet string

const (
	FeaturesCaloriesOnly        FeatureSet = "calories"
	FeaturesCaloriesAndExercise FeatureSet = "calories_exercise"
)

// Count returns the number of regressors, excluding the intercept.
func (f FeatureSet) Count() int {
	if f == FeaturesCaloriesOnly {
		return 1
	}
	return 2
}

// ParseFeatureSet maps configuration strings onto a FeatureSet; empty selects both features.
func ParseFeatureSet(value string) (FeatureSet, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", string(FeaturesCaloriesAndExercise), "two", "both":
		return FeaturesCaloriesAndExercise, nil
	case string(FeaturesCaloriesOnly), "single", "one":
		return FeaturesCaloriesOnly, nil
	default:
		return "", fmt.Errorf("unsupported feature set %q (expected calories|calories_exercise)", value)
	}
}

// OutlierMethod selects the rule used to discard implausible days.
type OutlierMethod string

const (
	OutlierIQR           OutlierMethod = "iqr"
	OutlierToleranceBand OutlierMethod = "tolerance"
)

// ParseOutlierMethod maps configuration strings onto an OutlierMethod; empty selects IQR.
func ParseOutlierMethod(value string) (OutlierMethod, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", string(OutlierIQR):
		return OutlierIQR, nil
	case string(OutlierToleranceBand), "tolerance_band", "band":
		return OutlierToleranceBand, nil
	default:
		return "", fmt.Errorf("unsupported outlier method %q (expected iqr|tolerance)", value)
	}
}
