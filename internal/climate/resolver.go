package climate

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gridsight/feedermatrix/internal/gis"
	"github.com/gridsight/feedermatrix/internal/model"
)

// ResolveZips assigns each ZIP polygon to the climate zone group whose
// polygon contains the ZIP's centroid. When the centroid falls inside more
// than one zone polygon, the smallest enclosure wins. Zone polygons with an
// unmapped code are ignored entirely, so an unmapped overlay cannot shadow a
// mapped zone that also contains the centroid. ZIPs whose centroid falls in
// no mapped zone polygon are dropped from the output. Output order follows
// input order.
func ResolveZips(ctx context.Context, zips []model.ZipArea, zones []model.ClimateZone, workers int) ([]model.ZipClimate, error) {
	if len(zips) == 0 || len(zones) == 0 {
		return nil, nil
	}

	if err := checkSRIDs(zips, zones); err != nil {
		return nil, err
	}

	var zoneGeoms []geom.T
	var groups []string
	for _, z := range zones {
		if z.Group == "" {
			continue
		}
		zoneGeoms = append(zoneGeoms, z.Geometry)
		groups = append(groups, z.Group)
	}

	if workers < 1 {
		workers = 1
	}
	if workers > len(zips) {
		workers = len(zips)
	}

	// Partition the ZIP list into contiguous chunks; each chunk resolves
	// independently and results are concatenated in input order.
	results := make([][]model.ZipClimate, workers)
	chunk := (len(zips) + workers - 1) / workers

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		start := w * chunk
		end := min(start+chunk, len(zips))
		if start >= end {
			break
		}
		g.Go(func() error {
			out := make([]model.ZipClimate, 0, end-start)
			for _, za := range zips[start:end] {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				if za.Geometry == nil {
					continue
				}
				c, err := gis.Centroid(za.Geometry)
				if err != nil {
					return eris.Wrapf(err, "climate: centroid of ZIP %s", za.ZipCode)
				}
				idx := gis.SmallestContaining(zoneGeoms, c)
				if idx < 0 {
					continue
				}
				out = append(out, model.ZipClimate{ZipCode: za.ZipCode, Group: groups[idx]})
			}
			results[w] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var assigned []model.ZipClimate
	for _, r := range results {
		assigned = append(assigned, r...)
	}

	zap.L().Info("climate: resolved ZIP climate groups",
		zap.Int("zips", len(zips)),
		zap.Int("assigned", len(assigned)),
		zap.Int("dropped", len(zips)-len(assigned)),
	)

	return assigned, nil
}

// checkSRIDs enforces the shared coordinate reference system precondition for
// the ZIP/zone containment join.
func checkSRIDs(zips []model.ZipArea, zones []model.ClimateZone) error {
	var zipGeom, zoneGeom geom.T
	for _, z := range zips {
		if z.Geometry != nil {
			zipGeom = z.Geometry
			break
		}
	}
	for _, z := range zones {
		if z.Geometry != nil {
			zoneGeom = z.Geometry
			break
		}
	}
	return gis.EnsureSameSRID(zipGeom, zoneGeom, "zip climate join")
}
