// Package matrix chains the resolution layers into the final feeder feature
// matrix: one row per (feeder, month, hour), one numeric column per load
// profile in the catalog.
package matrix

import (
	"context"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gridsight/feedermatrix/internal/loadshape"
	"github.com/gridsight/feedermatrix/internal/model"
)

// Table is the wide feature matrix. Profiles is the full column domain in
// sorted order; every row's Values slice is aligned with it, zero-filled
// where a feeder has no contribution from a profile in that month-hour.
type Table struct {
	Profiles []string
	Rows     []Row
}

// Row is one (feeder, month, hour) cell of the matrix with the feeder's ZIP
// re-attached as a descriptive column.
type Row struct {
	FeederID string
	ZipCode  string
	Month    int
	Hour     int
	Values   []float64
}

// Build produces the feature matrix:
//
//  1. restrict ZIP-profile pairs to ZIPs that have a feeder,
//  2. join the pairs to the feeder assignments on ZIP, yielding
//     feeder-profile pairs,
//  3. join feeder-profile pairs to the aggregated loads on profile id,
//  4. pivot the profile axis into columns over (feeder, month, hour),
//     filling absent combinations with 0.0.
//
// The column domain is the distinct profile-id set of the whole catalog,
// computed once before the feeder partitions are built so every partition
// shares an identical schema. Rows come out sorted by (feeder, month, hour)
// so re-runs are bit-identical.
func Build(ctx context.Context, pairs []model.ZipProfile, loads []model.AggregatedLoad, feederZips []model.FeederZip, catalog []model.LoadProfile, workers int) (*Table, error) {
	profiles := loadshape.ProfileIDs(catalog)
	sort.Strings(profiles)
	colIdx := make(map[string]int, len(profiles))
	for i, p := range profiles {
		colIdx[p] = i
	}

	zipHasFeeder := make(map[string]bool, len(feederZips))
	for _, fz := range feederZips {
		zipHasFeeder[fz.ZipCode] = true
	}

	// ZIP -> candidate profiles, restricted to ZIPs with a feeder. Pairs with
	// no profile (uncovered climate groups) are discarded here: a profile is
	// required from this point on.
	zipProfiles := make(map[string][]string)
	zipSeen := make(map[model.ZipProfile]bool, len(pairs))
	for _, p := range pairs {
		if p.ProfileID == "" || !zipHasFeeder[p.ZipCode] || zipSeen[p] {
			continue
		}
		zipSeen[p] = true
		zipProfiles[p.ZipCode] = append(zipProfiles[p.ZipCode], p.ProfileID)
	}

	loadsByProfile := make(map[string][]model.AggregatedLoad)
	for _, l := range loads {
		loadsByProfile[l.ProfileID] = append(loadsByProfile[l.ProfileID], l)
	}

	if len(feederZips) == 0 {
		return &Table{Profiles: profiles}, nil
	}
	if workers < 1 {
		workers = 1
	}
	if workers > len(feederZips) {
		workers = len(feederZips)
	}

	// Each feeder's rows depend only on its own ZIP, so the pivot is built
	// per feeder partition and concatenated.
	results := make([][]Row, workers)
	chunk := (len(feederZips) + workers - 1) / workers

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		start := w * chunk
		end := min(start+chunk, len(feederZips))
		if start >= end {
			break
		}
		g.Go(func() error {
			var out []Row
			for _, fz := range feederZips[start:end] {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				out = append(out, feederRows(fz, zipProfiles[fz.ZipCode], loadsByProfile, colIdx, len(profiles))...)
			}
			results[w] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var rows []Row
	for _, r := range results {
		rows = append(rows, r...)
	}

	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.FeederID != b.FeederID {
			return a.FeederID < b.FeederID
		}
		if a.Month != b.Month {
			return a.Month < b.Month
		}
		return a.Hour < b.Hour
	})

	zap.L().Info("matrix: built feeder feature matrix",
		zap.Int("feeders", len(feederZips)),
		zap.Int("rows", len(rows)),
		zap.Int("profile_columns", len(profiles)),
	)

	return &Table{Profiles: profiles, Rows: rows}, nil
}

// feederRows pivots one feeder: every (month, hour) slot reachable through
// any of the feeder's candidate profiles becomes a row with the full column
// set, 0.0 where a profile contributed nothing.
func feederRows(fz model.FeederZip, profiles []string, loadsByProfile map[string][]model.AggregatedLoad, colIdx map[string]int, cols int) []Row {
	type slot struct{ month, hour int }
	cells := make(map[slot][]float64)

	for _, p := range profiles {
		col, ok := colIdx[p]
		if !ok {
			continue
		}
		for _, l := range loadsByProfile[p] {
			k := slot{month: l.Month, hour: l.Hour}
			vals, ok := cells[k]
			if !ok {
				vals = make([]float64, cols)
				cells[k] = vals
			}
			vals[col] = l.MeanKWH
		}
	}

	rows := make([]Row, 0, len(cells))
	for k, vals := range cells {
		rows = append(rows, Row{
			FeederID: fz.FeederID,
			ZipCode:  fz.ZipCode,
			Month:    k.month,
			Hour:     k.hour,
			Values:   vals,
		})
	}
	return rows
}

// ColumnName returns the output column name for a profile id, prefixed so
// profile columns can never collide with the index columns.
func ColumnName(prefix, profileID string) string {
	return prefix + profileID
}
