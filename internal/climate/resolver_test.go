package climate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/gridsight/feedermatrix/internal/model"
)

func polygon(t *testing.T, srid int, flat ...float64) *geom.Polygon {
	t.Helper()
	p := geom.NewPolygon(geom.XY).SetSRID(srid)
	require.NoError(t, p.Push(geom.NewLinearRingFlat(geom.XY, flat)))
	return p
}

func zipSquare(t *testing.T, code string, minX, minY, size float64, srid int) model.ZipArea {
	t.Helper()
	return model.ZipArea{
		ZipCode: code,
		Geometry: polygon(t, srid,
			minX, minY,
			minX+size, minY,
			minX+size, minY+size,
			minX, minY+size,
			minX, minY,
		),
	}
}

func zoneSquare(t *testing.T, code int, group string, minX, minY, size float64, srid int) model.ClimateZone {
	t.Helper()
	z := zipSquare(t, "", minX, minY, size, srid)
	return model.ClimateZone{ZoneCode: code, Group: group, Geometry: z.Geometry}
}

func TestResolveZips_Basic(t *testing.T) {
	zips := []model.ZipArea{
		zipSquare(t, "90210", 1, 1, 2, 4326),  // centroid (2,2) in Coastal zone
		zipSquare(t, "95603", 11, 1, 2, 4326), // centroid (12,2) in Inland zone
	}
	zones := []model.ClimateZone{
		zoneSquare(t, 1, "Coastal", 0, 0, 10, 4326),
		zoneSquare(t, 2, "Inland", 10, 0, 10, 4326),
	}

	got, err := ResolveZips(context.Background(), zips, zones, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, model.ZipClimate{ZipCode: "90210", Group: "Coastal"}, got[0])
	assert.Equal(t, model.ZipClimate{ZipCode: "95603", Group: "Inland"}, got[1])
}

func TestResolveZips_UnresolvedDropped(t *testing.T) {
	zips := []model.ZipArea{
		zipSquare(t, "90210", 1, 1, 2, 4326),
		zipSquare(t, "99999", 100, 100, 2, 4326), // centroid outside every zone
	}
	zones := []model.ClimateZone{
		zoneSquare(t, 1, "Coastal", 0, 0, 10, 4326),
	}

	got, err := ResolveZips(context.Background(), zips, zones, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "90210", got[0].ZipCode)
}

func TestResolveZips_UnmappedZoneDropped(t *testing.T) {
	// Zone code 7 has no group label: ZIPs landing there carry no group and
	// must not appear in the output.
	zips := []model.ZipArea{zipSquare(t, "93555", 1, 1, 2, 4326)}
	zones := []model.ClimateZone{zoneSquare(t, 7, "", 0, 0, 10, 4326)}

	got, err := ResolveZips(context.Background(), zips, zones, 1)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestResolveZips_UnmappedZoneDoesNotShadowMapped(t *testing.T) {
	// The centroid (2,2) lies in a small zone with no group label and in a
	// larger mapped zone. The unmapped polygon is ignored, not picked as the
	// smallest enclosure, so the ZIP still resolves to the mapped group.
	zips := []model.ZipArea{zipSquare(t, "93555", 1, 1, 2, 4326)}
	zones := []model.ClimateZone{
		zoneSquare(t, 7, "", 0, 0, 5, 4326),
		zoneSquare(t, 1, "Coastal", 0, 0, 100, 4326),
	}

	got, err := ResolveZips(context.Background(), zips, zones, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, model.ZipClimate{ZipCode: "93555", Group: "Coastal"}, got[0])
}

func TestResolveZips_SmallestZoneWins(t *testing.T) {
	// Centroid (2,2) lies in both a large and a small zone polygon; the
	// smaller enclosure decides the group.
	zips := []model.ZipArea{zipSquare(t, "94102", 1, 1, 2, 4326)}
	zones := []model.ClimateZone{
		zoneSquare(t, 2, "Inland", 0, 0, 100, 4326),
		zoneSquare(t, 1, "Coastal", 0, 0, 5, 4326),
	}

	got, err := ResolveZips(context.Background(), zips, zones, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Coastal", got[0].Group)
}

func TestResolveZips_AtMostOneGroupPerZip(t *testing.T) {
	zips := []model.ZipArea{
		zipSquare(t, "90210", 1, 1, 2, 4326),
		zipSquare(t, "90211", 2, 2, 2, 4326),
		zipSquare(t, "95603", 11, 1, 2, 4326),
	}
	zones := []model.ClimateZone{
		zoneSquare(t, 1, "Coastal", 0, 0, 10, 4326),
		zoneSquare(t, 3, "Coastal", 0, 0, 8, 4326),
		zoneSquare(t, 2, "Inland", 10, 0, 10, 4326),
	}

	got, err := ResolveZips(context.Background(), zips, zones, 3)
	require.NoError(t, err)

	seen := map[string]string{}
	for _, a := range got {
		prev, dup := seen[a.ZipCode]
		assert.False(t, dup, "zip %s assigned twice (%s and %s)", a.ZipCode, prev, a.Group)
		seen[a.ZipCode] = a.Group
	}
}

func TestResolveZips_SRIDMismatch(t *testing.T) {
	zips := []model.ZipArea{zipSquare(t, "90210", 1, 1, 2, 4326)}
	zones := []model.ClimateZone{zoneSquare(t, 1, "Coastal", 0, 0, 10, 3310)}

	_, err := ResolveZips(context.Background(), zips, zones, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mismatched coordinate reference systems")
}

func TestResolveZips_Empty(t *testing.T) {
	got, err := ResolveZips(context.Background(), nil, nil, 4)
	assert.NoError(t, err)
	assert.Empty(t, got)
}
