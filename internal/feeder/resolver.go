// Package feeder assigns distribution feeders to ZIP codes by centroid
// containment.
package feeder

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gridsight/feedermatrix/internal/gis"
	"github.com/gridsight/feedermatrix/internal/model"
)

// ResolveZips assigns each feeder to the ZIP polygon containing the feeder
// line's centroid, with the smallest enclosure winning when polygons overlap.
// The result carries exactly one ZIP per feeder: duplicate feeder ids keep
// their first assignment in input order. Feeders whose centroid matches no
// ZIP are dropped. The ZIP list is expected to be pre-filtered to ZIPs that
// survived climate resolution, so a feeder landing in an unassigned ZIP never
// reaches the feature matrix.
func ResolveZips(ctx context.Context, feeders []model.FeederLine, zips []model.ZipArea, workers int) ([]model.FeederZip, error) {
	if len(feeders) == 0 || len(zips) == 0 {
		return nil, nil
	}

	if err := checkSRIDs(feeders, zips); err != nil {
		return nil, err
	}

	zipGeoms := make([]geom.T, len(zips))
	for i, z := range zips {
		zipGeoms[i] = z.Geometry
	}

	if workers < 1 {
		workers = 1
	}
	if workers > len(feeders) {
		workers = len(feeders)
	}

	results := make([][]model.FeederZip, workers)
	chunk := (len(feeders) + workers - 1) / workers

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		start := w * chunk
		end := min(start+chunk, len(feeders))
		if start >= end {
			break
		}
		g.Go(func() error {
			out := make([]model.FeederZip, 0, end-start)
			for _, f := range feeders[start:end] {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				if f.Geometry == nil {
					continue
				}
				c, err := gis.Centroid(f.Geometry)
				if err != nil {
					return eris.Wrapf(err, "feeder: centroid of feeder %s", f.FeederID)
				}
				idx := gis.SmallestContaining(zipGeoms, c)
				if idx < 0 {
					continue
				}
				out = append(out, model.FeederZip{FeederID: f.FeederID, ZipCode: zips[idx].ZipCode})
			}
			results[w] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Deduplicate by feeder id, first assignment in input order wins.
	seen := make(map[string]bool)
	var assigned []model.FeederZip
	for _, r := range results {
		for _, fz := range r {
			if seen[fz.FeederID] {
				continue
			}
			seen[fz.FeederID] = true
			assigned = append(assigned, fz)
		}
	}

	zap.L().Info("feeder: resolved feeder ZIP assignments",
		zap.Int("feeders", len(feeders)),
		zap.Int("assigned", len(assigned)),
		zap.Int("dropped", len(feeders)-len(assigned)),
	)

	return assigned, nil
}

func checkSRIDs(feeders []model.FeederLine, zips []model.ZipArea) error {
	var feederGeom, zipGeom geom.T
	for _, f := range feeders {
		if f.Geometry != nil {
			feederGeom = f.Geometry
			break
		}
	}
	for _, z := range zips {
		if z.Geometry != nil {
			zipGeom = z.Geometry
			break
		}
	}
	return gis.EnsureSameSRID(feederGeom, zipGeom, "feeder zip join")
}
