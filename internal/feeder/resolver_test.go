package feeder

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/gridsight/feedermatrix/internal/model"
)

func zipSquare(t *testing.T, code string, minX, minY, size float64, srid int) model.ZipArea {
	t.Helper()
	p := geom.NewPolygon(geom.XY).SetSRID(srid)
	require.NoError(t, p.Push(geom.NewLinearRingFlat(geom.XY, []float64{
		minX, minY,
		minX + size, minY,
		minX + size, minY + size,
		minX, minY + size,
		minX, minY,
	})))
	return model.ZipArea{ZipCode: code, Geometry: p}
}

func feederLine(id string, srid int, flat ...float64) model.FeederLine {
	mls := geom.NewMultiLineString(geom.XY).SetSRID(srid)
	if err := mls.Push(geom.NewLineStringFlat(geom.XY, flat)); err != nil {
		panic(err)
	}
	return model.FeederLine{FeederID: id, Geometry: mls}
}

func TestResolveZips_Basic(t *testing.T) {
	feeders := []model.FeederLine{
		feederLine("F1", 4326, 1, 1, 3, 1), // centroid (2,1) inside 90210
		feederLine("F2", 4326, 11, 1, 13, 1),
	}
	zips := []model.ZipArea{
		zipSquare(t, "90210", 0, 0, 10, 4326),
		zipSquare(t, "95603", 10, 0, 10, 4326),
	}

	got, err := ResolveZips(context.Background(), feeders, zips, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, model.FeederZip{FeederID: "F1", ZipCode: "90210"}, got[0])
	assert.Equal(t, model.FeederZip{FeederID: "F2", ZipCode: "95603"}, got[1])
}

func TestResolveZips_UnmatchedDropped(t *testing.T) {
	feeders := []model.FeederLine{
		feederLine("F1", 4326, 1, 1, 3, 1),
		feederLine("F9", 4326, 100, 100, 102, 100),
	}
	zips := []model.ZipArea{zipSquare(t, "90210", 0, 0, 10, 4326)}

	got, err := ResolveZips(context.Background(), feeders, zips, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "F1", got[0].FeederID)
}

func TestResolveZips_ExactlyOneZipPerFeeder(t *testing.T) {
	// Duplicate feeder records keep only the first assignment.
	feeders := []model.FeederLine{
		feederLine("F1", 4326, 1, 1, 3, 1),
		feederLine("F1", 4326, 11, 1, 13, 1),
	}
	zips := []model.ZipArea{
		zipSquare(t, "90210", 0, 0, 10, 4326),
		zipSquare(t, "95603", 10, 0, 10, 4326),
	}

	got, err := ResolveZips(context.Background(), feeders, zips, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, model.FeederZip{FeederID: "F1", ZipCode: "90210"}, got[0])
}

func TestResolveZips_SmallestZipWins(t *testing.T) {
	feeders := []model.FeederLine{feederLine("F1", 4326, 1, 1, 3, 1)}
	zips := []model.ZipArea{
		zipSquare(t, "90000", 0, 0, 100, 4326),
		zipSquare(t, "90210", 0, 0, 5, 4326),
	}

	got, err := ResolveZips(context.Background(), feeders, zips, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "90210", got[0].ZipCode)
}

func TestResolveZips_SRIDMismatch(t *testing.T) {
	feeders := []model.FeederLine{feederLine("F1", 3310, 1, 1, 3, 1)}
	zips := []model.ZipArea{zipSquare(t, "90210", 0, 0, 10, 4326)}

	_, err := ResolveZips(context.Background(), feeders, zips, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mismatched coordinate reference systems")
}

func TestResolveZips_Empty(t *testing.T) {
	got, err := ResolveZips(context.Background(), nil, nil, 2)
	assert.NoError(t, err)
	assert.Empty(t, got)
}
