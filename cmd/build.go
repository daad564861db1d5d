package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gridsight/feedermatrix/internal/export"
	"github.com/gridsight/feedermatrix/internal/model"
	"github.com/gridsight/feedermatrix/internal/pipeline"
	"github.com/gridsight/feedermatrix/internal/store"
)

var buildNoStore bool

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the feeder feature matrix from configured inputs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		in, err := pipeline.LoadInputs(ctx, cfg.Inputs)
		if err != nil {
			return err
		}

		var st store.Store
		var runID string
		if !buildNoStore {
			st, err = initStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck
			if err := st.Migrate(ctx); err != nil {
				return eris.Wrap(err, "migrate store")
			}
			run, err := st.CreateRun(ctx)
			if err != nil {
				return err
			}
			runID = run.ID
		}

		p := pipeline.New(cfg)
		res, err := p.Run(ctx, in)
		if err != nil {
			if st != nil {
				_ = st.FinishRun(ctx, runID, model.RunStatusFailed, &model.RunSummary{Error: err.Error()})
			}
			return err
		}

		if err := export.WriteCSVFile(cfg.Output.MatrixCSV, res.Matrix, cfg.Output.ColumnPrefix); err != nil {
			return err
		}
		if cfg.Output.MatrixXLSX != "" {
			if err := export.WriteXLSXFile(cfg.Output.MatrixXLSX, res.Matrix, cfg.Output.ColumnPrefix); err != nil {
				return err
			}
		}
		if cfg.Output.ZipLoadsCSV != "" {
			if err := export.WriteZipLoadsCSVFile(cfg.Output.ZipLoadsCSV, res.ZipLoads); err != nil {
				return err
			}
		}

		summary := &model.RunSummary{
			MatrixRows:    len(res.Matrix.Rows),
			ProfileCols:   len(res.Matrix.Profiles),
			FeedersMapped: len(res.FeederZips),
			ZipsMapped:    len(res.Assignments),
		}

		if st != nil {
			if err := st.SaveMatrix(ctx, runID, res.Matrix); err != nil {
				_ = st.FinishRun(ctx, runID, model.RunStatusFailed, &model.RunSummary{Error: err.Error()})
				return err
			}
			if err := st.FinishRun(ctx, runID, model.RunStatusComplete, summary); err != nil {
				return err
			}
		}

		zap.L().Info("build finished",
			zap.String("run_id", runID),
			zap.Int("matrix_rows", summary.MatrixRows),
			zap.Int("profile_cols", summary.ProfileCols),
			zap.Int("feeders_mapped", summary.FeedersMapped))

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res.Coverage)
	},
}

func init() {
	buildCmd.Flags().BoolVar(&buildNoStore, "no-store", false, "skip persisting the run and matrix to the store")
	rootCmd.AddCommand(buildCmd)
}
