package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newValidateCmd(opts *rootOptions) *cobra.Command {
	var (
		datasetPath string
		k           int
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Estimate the model error with k-fold cross-validation",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := opts.service(cmd, nil, opts.cfg.ModelDir, datasetPath, "")
			report, err := svc.Validate(cmd.Context(), k)
			if err != nil {
				return err
			}

			folds := make([]string, 0, len(report.FoldErrors))
			for _, mae := range report.FoldErrors {
				folds = append(folds, fmt.Sprintf("%.1f", mae))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "k=%d mean absolute error: %d steps (folds: %s)\n",
				report.FoldCount, report.MeanAbsoluteError, strings.Join(folds, ", "))
			return nil
		},
	}

	cmd.Flags().StringVar(&datasetPath, "dataset", opts.cfg.DatasetPath, "Dataset CSV to cross-validate")
	cmd.Flags().IntVarP(&k, "folds", "k", 5, "Number of folds")
	return cmd
}
