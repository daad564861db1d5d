// Package source loads the pipeline's input collaborators: polygon and line
// shapefiles and the tabular profile-characteristics and load-shape files.
// A required key column missing from a file is a structural violation and
// fails fast; individual malformed records are skipped and counted.
package source

import (
	"strconv"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/gridsight/feedermatrix/internal/gis"
	"github.com/gridsight/feedermatrix/internal/model"
)

// fieldIndex returns the index of a named DBF field, or -1. Shapefile field
// names are fixed-width and NUL padded.
func fieldIndex(reader *shp.Reader, name string) int {
	for i, f := range reader.Fields() {
		got := strings.TrimRight(f.String(), "\x00")
		if strings.EqualFold(got, name) {
			return i
		}
	}
	return -1
}

// attribute returns the current record's value for field idx, trimmed of the
// padding DBF storage carries.
func attribute(reader *shp.Reader, idx int) string {
	return strings.TrimSpace(strings.TrimRight(reader.Attribute(idx), "\x00"))
}

// ClimateZones reads a climate zone polygon shapefile. zoneField names the
// DBF column holding the numeric zone code. Group labels are not assigned
// here; the climate catalog maps them afterwards.
func ClimateZones(path, zoneField string, srid int) ([]model.ClimateZone, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "source: open climate zone shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	zoneIdx := fieldIndex(reader, zoneField)
	if zoneIdx < 0 {
		return nil, eris.Errorf("source: %s: missing required column %q", path, zoneField)
	}

	var zones []model.ClimateZone
	var skipped int
	for reader.Next() {
		_, shape := reader.Shape()

		g, err := gis.FromShape(shape, srid)
		if err != nil || g == nil {
			skipped++
			continue
		}

		code, err := strconv.Atoi(attribute(reader, zoneIdx))
		if err != nil {
			skipped++
			continue
		}

		zones = append(zones, model.ClimateZone{ZoneCode: code, Geometry: g})
	}

	logSkipped("climate zones", path, skipped)
	return zones, nil
}

// ZipAreas reads a ZIP polygon shapefile. zipField names the DBF column
// holding the ZIP code.
func ZipAreas(path, zipField string, srid int) ([]model.ZipArea, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "source: open ZIP shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	zipIdx := fieldIndex(reader, zipField)
	if zipIdx < 0 {
		return nil, eris.Errorf("source: %s: missing required column %q", path, zipField)
	}

	var zips []model.ZipArea
	var skipped int
	for reader.Next() {
		_, shape := reader.Shape()

		g, err := gis.FromShape(shape, srid)
		if err != nil || g == nil {
			skipped++
			continue
		}

		code := attribute(reader, zipIdx)
		if code == "" {
			skipped++
			continue
		}

		zips = append(zips, model.ZipArea{ZipCode: code, Geometry: g})
	}

	logSkipped("ZIP areas", path, skipped)
	return zips, nil
}

// Feeders reads a feeder line shapefile. idField names the DBF column
// holding the feeder id.
func Feeders(path, idField string, srid int) ([]model.FeederLine, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "source: open feeder shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	idIdx := fieldIndex(reader, idField)
	if idIdx < 0 {
		return nil, eris.Errorf("source: %s: missing required column %q", path, idField)
	}

	var feeders []model.FeederLine
	var skipped int
	for reader.Next() {
		_, shape := reader.Shape()

		g, err := gis.FromShape(shape, srid)
		if err != nil || g == nil {
			skipped++
			continue
		}

		id := attribute(reader, idIdx)
		if id == "" {
			skipped++
			continue
		}

		feeders = append(feeders, model.FeederLine{FeederID: id, Geometry: g})
	}

	logSkipped("feeders", path, skipped)
	return feeders, nil
}

func logSkipped(what, path string, skipped int) {
	if skipped > 0 {
		zap.L().Debug("source: skipped shapefile records",
			zap.String("input", what),
			zap.String("path", path),
			zap.Int("skipped", skipped),
		)
	}
}
