package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gridsight/feedermatrix/internal/pipeline"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Run the build without writing outputs and report input coverage",
	Long:  "Executes every join stage and prints how many zones, ZIPs, feeders, and profiles survived each one. Useful for vetting new input drops before a real build.",
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

		formatCoverage(os.Stdout, res.Coverage)
		return nil
	},
}

func formatCoverage(out io.Writer, cov pipeline.Coverage) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Climate zones:\t%d\n", cov.ZonesTotal)
	_, _ = fmt.Fprintf(w, "ZIP polygons:\t%d\n", cov.ZipsTotal)
	_, _ = fmt.Fprintf(w, "ZIPs with climate group:\t%d\n", cov.ZipsResolved)
	_, _ = fmt.Fprintf(w, "Feeders:\t%d\n", cov.FeedersTotal)
	_, _ = fmt.Fprintf(w, "Feeders mapped to a ZIP:\t%d\n", cov.FeedersMapped)
	_, _ = fmt.Fprintf(w, "Profile columns:\t%d\n", cov.CatalogProfiles)
	_, _ = fmt.Fprintf(w, "Matrix rows:\t%d\n", cov.MatrixRows)
	if len(cov.UncoveredGroups) > 0 {
		_, _ = fmt.Fprintf(w, "Groups without profiles:\t%s\n", strings.Join(cov.UncoveredGroups, ", "))
	}
	_ = w.Flush()
}

func init() {
	rootCmd.AddCommand(auditCmd)
}
