// Package pipeline chains the build stages from raw inputs to the
// feeder feature matrix.
package pipeline

import (
	"context"
	"runtime"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/gridsight/feedermatrix/internal/climate"
	"github.com/gridsight/feedermatrix/internal/config"
	"github.com/gridsight/feedermatrix/internal/feeder"
	"github.com/gridsight/feedermatrix/internal/loadshape"
	"github.com/gridsight/feedermatrix/internal/matrix"
	"github.com/gridsight/feedermatrix/internal/model"
)

// Result is the output of one build.
type Result struct {
	Matrix      *matrix.Table
	ZipLoads    []matrix.ZipLoadRow
	Assignments []model.ZipClimate
	FeederZips  []model.FeederZip
	Coverage    Coverage
}

// Coverage summarizes how much of each input survived the joins.
type Coverage struct {
	ZonesTotal      int      `json:"zones_total"`
	ZipsTotal       int      `json:"zips_total"`
	ZipsResolved    int      `json:"zips_resolved"`
	FeedersTotal    int      `json:"feeders_total"`
	FeedersMapped   int      `json:"feeders_mapped"`
	CatalogProfiles int      `json:"catalog_profiles"`
	MatrixRows      int      `json:"matrix_rows"`
	UncoveredGroups []string `json:"uncovered_groups,omitempty"`
}

// Pipeline runs the build stages with shared configuration.
type Pipeline struct {
	season  loadshape.Season
	workers int
}

// New creates a Pipeline from configuration.
func New(cfg *config.Config) *Pipeline {
	workers := cfg.Build.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Pipeline{
		season: loadshape.Season{
			StartMonth: cfg.Season.StartMonth,
			EndMonth:   cfg.Season.EndMonth,
		},
		workers: workers,
	}
}

// Run executes the full build against loaded inputs.
func (p *Pipeline) Run(ctx context.Context, in *Inputs) (*Result, error) {
	log := zap.L()
	start := time.Now()

	in.Zones = climate.MapZones(in.Zones)

	assignments, err := climate.ResolveZips(ctx, in.Zips, in.Zones, p.workers)
	if err != nil {
		return nil, err
	}
	if len(assignments) == 0 {
		return nil, eris.New("pipeline: no zip codes resolved to a climate group")
	}

	catalog := loadshape.BuildCatalog(in.ResProfiles, in.NonResProfiles)
	if len(catalog) == 0 {
		return nil, eris.New("pipeline: load profile catalog is empty")
	}

	pairs := loadshape.ExpandZipProfiles(assignments, catalog)
	loads := loadshape.Aggregate(in.Observations, p.season)

	// Only ZIPs that carry a climate assignment participate in the
	// feeder join.
	assigned := make(map[string]bool, len(assignments))
	for _, a := range assignments {
		assigned[a.ZipCode] = true
	}
	joinZips := make([]model.ZipArea, 0, len(in.Zips))
	for _, z := range in.Zips {
		if assigned[z.ZipCode] {
			joinZips = append(joinZips, z)
		}
	}

	feederZips, err := feeder.ResolveZips(ctx, in.Feeders, joinZips, p.workers)
	if err != nil {
		return nil, err
	}

	table, err := matrix.Build(ctx, pairs, loads, feederZips, catalog, p.workers)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Matrix:      table,
		ZipLoads:    matrix.BuildZipLoads(pairs, loads),
		Assignments: assignments,
		FeederZips:  feederZips,
		Coverage:    p.coverage(in, assignments, feederZips, catalog, table),
	}

	log.Info("build complete",
		zap.Int("matrix_rows", len(table.Rows)),
		zap.Int("profile_cols", len(table.Profiles)),
		zap.Int("feeders_mapped", len(feederZips)),
		zap.Duration("elapsed", time.Since(start)))
	return res, nil
}

func (p *Pipeline) coverage(in *Inputs, assignments []model.ZipClimate, feederZips []model.FeederZip, catalog []model.LoadProfile, table *matrix.Table) Coverage {
	cov := Coverage{
		ZonesTotal:      len(in.Zones),
		ZipsTotal:       len(in.Zips),
		ZipsResolved:    len(assignments),
		FeedersTotal:    len(in.Feeders),
		FeedersMapped:   len(feederZips),
		CatalogProfiles: len(table.Profiles),
		MatrixRows:      len(table.Rows),
	}

	covered := make(map[string]bool, len(catalog))
	for _, prof := range catalog {
		covered[prof.SegmentGroup] = true
	}
	seen := make(map[string]bool)
	for _, a := range assignments {
		if !covered[a.Group] && !seen[a.Group] {
			seen[a.Group] = true
			cov.UncoveredGroups = append(cov.UncoveredGroups, a.Group)
		}
	}
	return cov
}
