package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Rob190501/iWalk/internal/dataset"
	"github.com/Rob190501/iWalk/internal/domain"
)

func newTrainCmd(opts *rootOptions) *cobra.Command {
	var (
		datasetPath string
		modelDir    string
		features    string
	)

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Fit the steps model on a dataset CSV and store the artifacts",
		RunE: func(cmd *cobra.Command, args []string) error {
			records, csvFeatures, err := dataset.LoadCSV(datasetPath)
			if err != nil {
				return err
			}
			featureSet := csvFeatures
			if features != "" {
				if featureSet, err = domain.ParseFeatureSet(features); err != nil {
					return err
				}
			}

			svc := opts.service(cmd, nil, modelDir, snapshotPath(modelDir), featureSet)
			model, err := svc.BuildModel(cmd.Context(), records)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "model %s trained on %d rows (%s)\n", model.ID, model.Rows, model.Features)
			fmt.Fprintf(out, "steps = %.4f*calories", model.CaloriesCoef)
			if model.Features != domain.FeaturesCaloriesOnly {
				fmt.Fprintf(out, " + %.4f*exercise_minutes", model.ExerciseMinutesCoef)
			}
			fmt.Fprintf(out, " + %.4f\n", model.Intercept)
			return nil
		},
	}

	cmd.Flags().StringVar(&datasetPath, "dataset", opts.cfg.DatasetPath, "Dataset CSV to train on")
	cmd.Flags().StringVar(&modelDir, "model-dir", opts.cfg.ModelDir, "Directory for model artifacts")
	cmd.Flags().StringVar(&features, "features", "", "Feature set override (defaults to the dataset header)")
	return cmd
}
