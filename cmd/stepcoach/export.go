package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Rob190501/iWalk/internal/dataset"
	"github.com/Rob190501/iWalk/internal/domain"
	"github.com/Rob190501/iWalk/internal/healthsource"
)

func newExportCmd(opts *rootOptions) *cobra.Command {
	var (
		datasetPath string
		fitDir      string
		years       int
		out         string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a Parquet snapshot of a dataset CSV or of raw FIT history",
		Long: `Without --fit-dir the dataset CSV is converted as is. With --fit-dir the
unfiltered daily history, dates included, is exported so it can later be
prepared with import-parquet.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				records []domain.DailyRecord
				err     error
			)
			if fitDir != "" {
				if years <= 0 {
					years = opts.cfg.HistoryYears
				}
				to := domain.Day(time.Now())
				records, err = healthsource.NewFITSource(fitDir, nil).Daily(cmd.Context(), to.AddDate(-years, 0, 0), to)
			} else {
				records, _, err = dataset.LoadCSV(datasetPath)
			}
			if err != nil {
				return err
			}
			if err := dataset.WriteParquet(out, records); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d records to %s\n", len(records), out)
			return nil
		},
	}

	cmd.Flags().StringVar(&datasetPath, "dataset", opts.cfg.DatasetPath, "Dataset CSV to export")
	cmd.Flags().StringVar(&fitDir, "fit-dir", "", "Export raw daily history from this FIT directory instead")
	cmd.Flags().IntVar(&years, "years", 0, "Years of FIT history to export (0 = configured default)")
	cmd.Flags().StringVar(&out, "out", "dataset.parquet", "Output Parquet file")
	return cmd
}
