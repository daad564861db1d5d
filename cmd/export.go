package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/gridsight/feedermatrix/internal/export"
	"github.com/gridsight/feedermatrix/internal/pipeline"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export intermediate or stored build artifacts",
}

var exportZipsOut string

// export zips rebuilds the ZIP load table from current inputs without
// touching the store. Handy when only the long-form table is wanted.
var exportZipsCmd = &cobra.Command{
	Use:   "zips",
	Short: "Write the long-form ZIP load table to CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		in, err := pipeline.LoadInputs(ctx, cfg.Inputs)
		if err != nil {
			return err
		}

		p := pipeline.New(cfg)
		res, err := p.Run(ctx, in)
		if err != nil {
			return err
		}

		return export.WriteZipLoadsCSVFile(exportZipsOut, res.ZipLoads)
	},
}

var (
	exportMatrixRun string
	exportMatrixOut string
)

// export matrix re-exports a previously stored matrix by run id.
var exportMatrixCmd = &cobra.Command{
	Use:   "matrix",
	Short: "Write a stored feature matrix to CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		table, err := st.GetMatrix(ctx, exportMatrixRun)
		if err != nil {
			return err
		}

		return export.WriteCSVFile(exportMatrixOut, table, cfg.Output.ColumnPrefix)
	},
}

func init() {
	exportZipsCmd.Flags().StringVar(&exportZipsOut, "out", "out/zip_loads.csv", "output CSV path")

	exportMatrixCmd.Flags().StringVar(&exportMatrixRun, "run", "", "run id to export (required)")
	exportMatrixCmd.Flags().StringVar(&exportMatrixOut, "out", "out/feeder_load_features.csv", "output CSV path")
	_ = exportMatrixCmd.MarkFlagRequired("run")

	exportCmd.AddCommand(exportZipsCmd)
	exportCmd.AddCommand(exportMatrixCmd)
	rootCmd.AddCommand(exportCmd)
}
