// Package gis provides the planar geometry operations the resolution stages
// rely on: shapefile-to-geometry conversion, centroids, point-in-polygon
// containment, and the coordinate-system precondition guard.
package gis

import (
	"math"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
	"go.uber.org/zap"
)

// FromShape converts a go-shp geometry to a go-geom geometry tagged with the
// given SRID. Returns nil, nil for unsupported or nil shapes.
func FromShape(shape shp.Shape, srid int) (geom.T, error) {
	if shape == nil {
		return nil, nil
	}

	switch s := shape.(type) {
	case *shp.Point:
		return geom.NewPointFlat(geom.XY, []float64{s.X, s.Y}).SetSRID(srid), nil

	case *shp.PolyLine:
		return polyLineToMultiLineString(s, srid), nil

	case *shp.Polygon:
		return polygonToMultiPolygon(s, srid), nil

	default:
		return nil, nil
	}
}

// polyLineToMultiLineString converts a shapefile PolyLine to a geom.MultiLineString.
func polyLineToMultiLineString(pl *shp.PolyLine, srid int) geom.T {
	if pl == nil || pl.NumParts == 0 || len(pl.Points) == 0 {
		return nil
	}

	mls := geom.NewMultiLineString(geom.XY).SetSRID(srid)

	for i := int32(0); i < pl.NumParts; i++ {
		start := pl.Parts[i]
		var end int32
		if i+1 < pl.NumParts {
			end = pl.Parts[i+1]
		} else {
			end = int32(len(pl.Points))
		}

		flat := make([]float64, 0, 2*(end-start))
		for j := start; j < end; j++ {
			flat = append(flat, pl.Points[j].X, pl.Points[j].Y)
		}

		ls := geom.NewLineStringFlat(geom.XY, flat)
		if err := mls.Push(ls); err != nil {
			zap.L().Debug("gis: skipping malformed linestring part", zap.Int32("part", i), zap.Error(err))
			continue
		}
	}

	if mls.NumLineStrings() == 0 {
		return nil
	}
	return mls
}

// polygonToMultiPolygon converts a shapefile Polygon to a geom.MultiPolygon.
// Each shapefile part becomes a single-ring polygon.
func polygonToMultiPolygon(p *shp.Polygon, srid int) geom.T {
	if p == nil || p.NumParts == 0 || len(p.Points) == 0 {
		return nil
	}

	mp := geom.NewMultiPolygon(geom.XY).SetSRID(srid)

	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		var end int32
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		} else {
			end = int32(len(p.Points))
		}

		flat := make([]float64, 0, 2*(end-start))
		for j := start; j < end; j++ {
			flat = append(flat, p.Points[j].X, p.Points[j].Y)
		}

		ring := geom.NewLinearRingFlat(geom.XY, flat)
		poly := geom.NewPolygon(geom.XY)
		if err := poly.Push(ring); err != nil {
			zap.L().Debug("gis: skipping malformed polygon ring", zap.Int32("part", i), zap.Error(err))
			continue
		}

		if err := mp.Push(poly); err != nil {
			zap.L().Debug("gis: skipping malformed polygon part", zap.Int32("part", i), zap.Error(err))
			continue
		}
	}

	if mp.NumPolygons() == 0 {
		return nil
	}
	return mp
}

// Centroid computes the centroid of a geometry.
func Centroid(g geom.T) (geom.Coord, error) {
	switch t := g.(type) {
	case *geom.Point:
		return t.Coords(), nil
	case *geom.LineString:
		return xy.LinesCentroid(t), nil
	case *geom.MultiLineString:
		return xy.MultiLineCentroid(t), nil
	case *geom.Polygon:
		return xy.PolygonsCentroid(t), nil
	case *geom.MultiPolygon:
		return xy.MultiPolygonCentroid(t), nil
	default:
		return nil, eris.Errorf("gis: centroid of unsupported geometry type %T", g)
	}
}

// Contains reports whether a polygonal geometry contains the point c.
// For polygons with holes, a point inside a hole is not contained.
func Contains(g geom.T, c geom.Coord) bool {
	switch t := g.(type) {
	case *geom.Polygon:
		return polygonContains(t, c)
	case *geom.MultiPolygon:
		for i := 0; i < t.NumPolygons(); i++ {
			if polygonContains(t.Polygon(i), c) {
				return true
			}
		}
	}
	return false
}

func polygonContains(p *geom.Polygon, c geom.Coord) bool {
	if p.NumLinearRings() == 0 {
		return false
	}
	if !xy.IsPointInRing(p.Layout(), c, p.LinearRing(0).FlatCoords()) {
		return false
	}
	// Interior rings are holes.
	for i := 1; i < p.NumLinearRings(); i++ {
		if xy.IsPointInRing(p.Layout(), c, p.LinearRing(i).FlatCoords()) {
			return false
		}
	}
	return true
}

// Area returns the absolute planar area of a polygonal geometry, used as the
// containment tie-break: when a centroid falls inside more than one polygon
// the smallest enclosure wins.
func Area(g geom.T) float64 {
	switch t := g.(type) {
	case *geom.Polygon:
		return math.Abs(t.Area())
	case *geom.MultiPolygon:
		return math.Abs(t.Area())
	}
	return 0
}

// SmallestContaining returns the index of the smallest-area geometry in gs
// that contains c, or -1 when no geometry contains it. Ties on area are
// broken by the earlier index, so results are stable for a given input order.
func SmallestContaining(gs []geom.T, c geom.Coord) int {
	best := -1
	var bestArea float64
	for i, g := range gs {
		if g == nil || !Contains(g, c) {
			continue
		}
		a := Area(g)
		if best == -1 || a < bestArea {
			best = i
			bestArea = a
		}
	}
	return best
}

// EnsureSameSRID verifies that two geometries are in the same coordinate
// reference system before a spatial join. Joining mismatched systems would
// produce spatially meaningless assignments, so this fails fast.
func EnsureSameSRID(a, b geom.T, stage string) error {
	if a == nil || b == nil {
		return nil
	}
	if a.SRID() != b.SRID() {
		return eris.Errorf("gis: %s: mismatched coordinate reference systems (SRID %d vs %d)", stage, a.SRID(), b.SRID())
	}
	return nil
}
