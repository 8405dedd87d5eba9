package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPredictCmd(opts *rootOptions) *cobra.Command {
	var (
		modelDir string
		calories int
		minutes  int
	)

	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Predict the steps needed to burn a calorie target",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := opts.service(cmd, nil, modelDir, snapshotPath(modelDir), "")
			if err := svc.Restore(cmd.Context()); err != nil {
				return err
			}
			steps, err := svc.Predict(cmd.Context(), calories, minutes)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d\n", steps)
			return nil
		},
	}

	cmd.Flags().StringVar(&modelDir, "model-dir", opts.cfg.ModelDir, "Directory holding model artifacts")
	cmd.Flags().IntVar(&calories, "calories", 0, "Active-energy target in kcal")
	cmd.Flags().IntVar(&minutes, "minutes", 0, "Exercise minutes already done today")
	_ = cmd.MarkFlagRequired("calories")
	return cmd
}
