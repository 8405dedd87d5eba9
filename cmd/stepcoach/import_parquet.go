package main

import (
	"github.com/spf13/cobra"

	"github.com/Rob190501/iWalk/internal/dataset"
	"github.com/Rob190501/iWalk/internal/healthsource"
	"github.com/Rob190501/iWalk/internal/store/memory"
)

func newImportParquetCmd(opts *rootOptions) *cobra.Command {
	var (
		in    string
		flags preparationFlags
	)

	cmd := &cobra.Command{
		Use:   "import-parquet",
		Short: "Prepare a training dataset CSV from a Parquet history snapshot",
		Long: `Load daily records previously written by "stepcoach export" and run them
through the same filtering and augmentation as import-fit.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := dataset.ReadParquet(in)
			if err != nil {
				return err
			}
			store := memory.NewRecordStore(records...)
			return flags.prepare(cmd, opts, healthsource.NewStoreSource(store, nil))
		},
	}

	cmd.Flags().StringVar(&in, "in", "dataset.parquet", "Parquet snapshot to read")
	flags.register(cmd, opts.cfg.Features)
	return cmd
}
