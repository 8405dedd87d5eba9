package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Rob190501/iWalk/internal/coach"
	"github.com/Rob190501/iWalk/internal/dataset"
	"github.com/Rob190501/iWalk/internal/domain"
	"github.com/Rob190501/iWalk/internal/healthsource"
)

// preparationFlags are shared by the commands that turn a history into a training dataset.
type preparationFlags struct {
	out            string
	years          int
	noOutliers     bool
	method         string
	tolerance      float64
	syntheticRatio float64
	syntheticCount int
	noImpute       bool
	minCalories    int
	features       string
}

func (f *preparationFlags) register(cmd *cobra.Command, defaultFeatures domain.FeatureSet) {
	cmd.Flags().StringVar(&f.out, "out", "dataset.csv", "Output dataset CSV")
	cmd.Flags().IntVar(&f.years, "years", 0, "Years of history to include (0 = configured default)")
	cmd.Flags().BoolVar(&f.noOutliers, "no-outliers", false, "Keep every day, skipping outlier removal and augmentation")
	cmd.Flags().StringVar(&f.method, "outlier-method", "", "Outlier rule: iqr or tolerance")
	cmd.Flags().Float64Var(&f.tolerance, "tolerance", 0, "Half-width of the kcal/step band for the tolerance rule")
	cmd.Flags().Float64Var(&f.syntheticRatio, "synthetic-ratio", 0, "Synthetic records as a multiple of real ones (e.g. 0.5, 2)")
	cmd.Flags().IntVar(&f.syntheticCount, "synthetic-count", 0, "Exact number of synthetic records (overrides --synthetic-ratio)")
	cmd.Flags().BoolVar(&f.noImpute, "no-impute", false, "Co-scale source steps instead of imputing them from a model fitted on the real days")
	cmd.Flags().IntVar(&f.minCalories, "min-calories", 0, "Calorie floor for outlier removal (0 = configured default, negative = none)")
	cmd.Flags().StringVar(&f.features, "features", string(defaultFeatures), "Feature set: calories or calories_exercise")
}

// prepare runs the dataset pipeline over source and writes the result to --out.
func (f *preparationFlags) prepare(cmd *cobra.Command, opts *rootOptions, source healthsource.Source) error {
	featureSet, err := domain.ParseFeatureSet(f.features)
	if err != nil {
		return err
	}
	fetch := coach.FetchOptions{
		Years:             f.years,
		RemoveOutliers:    !f.noOutliers,
		Tolerance:         f.tolerance,
		GenerateSynthetic: f.syntheticRatio > 0 || f.syntheticCount > 0,
		SyntheticRatio:    f.syntheticRatio,
		SyntheticCount:    f.syntheticCount,
		MinCalories:       f.minCalories,
		SimpleScaling:     f.noImpute,
	}
	if f.method != "" {
		if fetch.OutlierMethod, err = domain.ParseOutlierMethod(f.method); err != nil {
			return err
		}
	}

	svc := opts.service(cmd, source, opts.cfg.ModelDir, f.out, featureSet)
	ds, err := svc.FetchDataset(cmd.Context(), fetch)
	if err != nil {
		return err
	}
	if err := dataset.SaveCSV(f.out, ds.Records, featureSet); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %d records (%d real, %d synthetic) to %s\n", len(ds.Records), ds.Real, ds.Synthetic, f.out)
	return nil
}

func newImportFITCmd(opts *rootOptions) *cobra.Command {
	var (
		dir   string
		flags preparationFlags
	)

	cmd := &cobra.Command{
		Use:   "import-fit",
		Short: "Aggregate FIT activity exports into a training dataset CSV",
		Long: `Decode every .fit file under --dir, aggregate sessions per calendar day,
drop implausible days and optionally append synthetic records.

Examples:
  stepcoach import-fit --dir ./exports --out dataset.csv
  stepcoach import-fit --dir ./exports --out dataset.csv --synthetic-ratio 1.5 --no-impute`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return flags.prepare(cmd, opts, healthsource.NewFITSource(dir, nil))
		},
	}

	cmd.Flags().StringVar(&dir, "dir", opts.cfg.FITDir, "Directory containing FIT activity files")
	flags.register(cmd, opts.cfg.Features)
	return cmd
}
