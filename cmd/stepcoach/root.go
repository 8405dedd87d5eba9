package main

import (
	"io"
	"log"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Rob190501/iWalk/internal/coach"
	"github.com/Rob190501/iWalk/internal/config"
	"github.com/Rob190501/iWalk/internal/domain"
	"github.com/Rob190501/iWalk/internal/healthsource"
	"github.com/Rob190501/iWalk/internal/modelstore"
)

// trainingSnapshotName is the CSV kept next to the model artifacts it produced.
const trainingSnapshotName = "training.csv"

type rootOptions struct {
	cfg     config.Config
	seed    int64
	verbose bool
}

func newRootCmd(cfg config.Config) *cobra.Command {
	opts := &rootOptions{cfg: cfg}

	root := &cobra.Command{
		Use:   "stepcoach",
		Short: "Build and query the daily steps model",
		Long: `stepcoach works on dataset files, FIT activity exports and model artifacts.

It turns activity history into a cleaned training dataset, fits the linear
steps model, cross-validates it and answers "how many steps to burn N kcal".`,
		SilenceUsage: true,
	}
	root.PersistentFlags().Int64Var(&opts.seed, "seed", cfg.Seed, "Random seed for augmentation and fold shuffling (0 = clock)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log pipeline progress to stderr")

	root.AddCommand(
		newImportFITCmd(opts),
		newImportParquetCmd(opts),
		newTrainCmd(opts),
		newValidateCmd(opts),
		newPredictCmd(opts),
		newExportCmd(opts),
	)
	return root
}

// service assembles a coach over source, storing artifacts in modelDir.
func (o *rootOptions) service(cmd *cobra.Command, source healthsource.Source, modelDir, datasetPath string, features domain.FeatureSet) *coach.Service {
	logOut := io.Discard
	if o.verbose {
		logOut = cmd.ErrOrStderr()
	}
	serviceOpts := []coach.Option{coach.WithLogger(log.New(logOut, "[coach] ", log.LstdFlags))}
	if o.seed != 0 {
		serviceOpts = append(serviceOpts, coach.WithSeed(o.seed))
	}
	if source == nil {
		source = healthsource.NewFITSource(o.cfg.FITDir, nil)
	}
	return coach.NewService(source, modelstore.NewFileStore(modelDir), coach.Config{
		DatasetPath: datasetPath,
		Features:    features,
		Defaults: coach.FetchOptions{
			Years:          o.cfg.HistoryYears,
			OutlierMethod:  o.cfg.OutlierMethod,
			Tolerance:      o.cfg.Tolerance,
			MinCalories:    o.cfg.MinCalories,
			SyntheticRatio: o.cfg.SyntheticRatio,
		},
	}, serviceOpts...)
}

func snapshotPath(modelDir string) string {
	return filepath.Join(modelDir, trainingSnapshotName)
}
