package matrix

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridsight/feedermatrix/internal/model"
)

func coastalInlandFixture() ([]model.ZipProfile, []model.AggregatedLoad, []model.FeederZip, []model.LoadProfile) {
	pairs := []model.ZipProfile{
		{ZipCode: "90210", ProfileID: "P1"},
		{ZipCode: "95603", ProfileID: "P2"},
	}
	loads := []model.AggregatedLoad{
		{ProfileID: "P1", Month: 5, Hour: 0, MeanKWH: 0.15},
	}
	feederZips := []model.FeederZip{
		{FeederID: "F1", ZipCode: "90210"},
	}
	catalog := []model.LoadProfile{
		{ProfileID: "P1", SegmentGroup: "Coastal", Type: model.CustomerResidential},
		{ProfileID: "P2", SegmentGroup: "Inland", Type: model.CustomerResidential},
	}
	return pairs, loads, feederZips, catalog
}

func TestBuild_Scenario(t *testing.T) {
	pairs, loads, feederZips, catalog := coastalInlandFixture()

	tbl, err := Build(context.Background(), pairs, loads, feederZips, catalog, 2)
	require.NoError(t, err)

	assert.Equal(t, []string{"P1", "P2"}, tbl.Profiles)
	require.Len(t, tbl.Rows, 1)

	row := tbl.Rows[0]
	assert.Equal(t, "F1", row.FeederID)
	assert.Equal(t, "90210", row.ZipCode)
	assert.Equal(t, 5, row.Month)
	assert.Equal(t, 0, row.Hour)
	require.Len(t, row.Values, 2)
	assert.InDelta(t, 0.15, row.Values[0], 1e-12) // kwh_P1
	assert.Equal(t, 0.0, row.Values[1])           // kwh_P2 zero-filled
}

func TestBuild_RestrictsToFeederZips(t *testing.T) {
	// Profiles for a ZIP with no feeder must not produce rows.
	pairs := []model.ZipProfile{
		{ZipCode: "90210", ProfileID: "P1"},
		{ZipCode: "95603", ProfileID: "P2"},
	}
	loads := []model.AggregatedLoad{
		{ProfileID: "P1", Month: 6, Hour: 1, MeanKWH: 1.0},
		{ProfileID: "P2", Month: 6, Hour: 1, MeanKWH: 2.0},
	}
	feederZips := []model.FeederZip{{FeederID: "F1", ZipCode: "90210"}}
	catalog := []model.LoadProfile{
		{ProfileID: "P1", SegmentGroup: "Coastal"},
		{ProfileID: "P2", SegmentGroup: "Inland"},
	}

	tbl, err := Build(context.Background(), pairs, loads, feederZips, catalog, 1)
	require.NoError(t, err)
	require.Len(t, tbl.Rows, 1)
	assert.Equal(t, "F1", tbl.Rows[0].FeederID)
	assert.Equal(t, []float64{1.0, 0.0}, tbl.Rows[0].Values)
}

func TestBuild_NoNullCells(t *testing.T) {
	pairs := []model.ZipProfile{
		{ZipCode: "90210", ProfileID: "P1"},
		{ZipCode: "90210", ProfileID: "P3"},
	}
	loads := []model.AggregatedLoad{
		{ProfileID: "P1", Month: 5, Hour: 0, MeanKWH: 0.5},
		{ProfileID: "P1", Month: 5, Hour: 1, MeanKWH: 0.6},
		{ProfileID: "P3", Month: 5, Hour: 0, MeanKWH: 0.7},
	}
	feederZips := []model.FeederZip{{FeederID: "F1", ZipCode: "90210"}}
	catalog := []model.LoadProfile{
		{ProfileID: "P1", SegmentGroup: "Coastal"},
		{ProfileID: "P2", SegmentGroup: "Coastal"},
		{ProfileID: "P3", SegmentGroup: "Coastal"},
	}

	tbl, err := Build(context.Background(), pairs, loads, feederZips, catalog, 1)
	require.NoError(t, err)

	// Every row carries the full column set.
	require.Len(t, tbl.Profiles, 3)
	for _, row := range tbl.Rows {
		assert.Len(t, row.Values, 3)
	}

	// (F1, 5, 1) lacks a P3 contribution: explicit 0.0, not a missing cell.
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, []float64{0.5, 0.0, 0.7}, tbl.Rows[0].Values)
	assert.Equal(t, []float64{0.6, 0.0, 0.0}, tbl.Rows[1].Values)
}

func TestBuild_FullCatalogColumnDomain(t *testing.T) {
	// A profile observed nowhere in the join chain still becomes a column.
	pairs, loads, feederZips, catalog := coastalInlandFixture()
	catalog = append(catalog, model.LoadProfile{ProfileID: "P0", SegmentGroup: "South Central Valley"})

	tbl, err := Build(context.Background(), pairs, loads, feederZips, catalog, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"P0", "P1", "P2"}, tbl.Profiles)
	require.Len(t, tbl.Rows, 1)
	assert.Equal(t, []float64{0.0, 0.15, 0.0}, tbl.Rows[0].Values)
}

func TestBuild_RowsSorted(t *testing.T) {
	pairs := []model.ZipProfile{
		{ZipCode: "90210", ProfileID: "P1"},
		{ZipCode: "95603", ProfileID: "P1"},
	}
	loads := []model.AggregatedLoad{
		{ProfileID: "P1", Month: 6, Hour: 2, MeanKWH: 1.0},
		{ProfileID: "P1", Month: 5, Hour: 3, MeanKWH: 2.0},
		{ProfileID: "P1", Month: 5, Hour: 1, MeanKWH: 3.0},
	}
	feederZips := []model.FeederZip{
		{FeederID: "F2", ZipCode: "95603"},
		{FeederID: "F1", ZipCode: "90210"},
	}
	catalog := []model.LoadProfile{{ProfileID: "P1", SegmentGroup: "Coastal"}}

	tbl, err := Build(context.Background(), pairs, loads, feederZips, catalog, 2)
	require.NoError(t, err)
	require.Len(t, tbl.Rows, 6)

	for i := 1; i < len(tbl.Rows); i++ {
		a, b := tbl.Rows[i-1], tbl.Rows[i]
		less := a.FeederID < b.FeederID ||
			(a.FeederID == b.FeederID && (a.Month < b.Month ||
				(a.Month == b.Month && a.Hour < b.Hour)))
		assert.True(t, less, "rows out of order at %d", i)
	}
}

func TestBuild_Idempotent(t *testing.T) {
	pairs, loads, feederZips, catalog := coastalInlandFixture()

	first, err := Build(context.Background(), pairs, loads, feederZips, catalog, 3)
	require.NoError(t, err)
	second, err := Build(context.Background(), pairs, loads, feederZips, catalog, 1)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestBuild_EmptyFeeders(t *testing.T) {
	pairs, loads, _, catalog := coastalInlandFixture()

	tbl, err := Build(context.Background(), pairs, loads, nil, catalog, 4)
	require.NoError(t, err)
	assert.Equal(t, []string{"P1", "P2"}, tbl.Profiles)
	assert.Empty(t, tbl.Rows)
}

func TestBuild_EmptyProfilePairDiscarded(t *testing.T) {
	// A ZIP row with no candidate profile never reaches the matrix.
	pairs := []model.ZipProfile{{ZipCode: "90210"}}
	feederZips := []model.FeederZip{{FeederID: "F1", ZipCode: "90210"}}
	catalog := []model.LoadProfile{{ProfileID: "P1", SegmentGroup: "Inland"}}

	tbl, err := Build(context.Background(), pairs, nil, feederZips, catalog, 1)
	require.NoError(t, err)
	assert.Empty(t, tbl.Rows)
}

func TestColumnName(t *testing.T) {
	assert.Equal(t, "kwh_P1", ColumnName("kwh_", "P1"))
}

func TestBuildZipLoads(t *testing.T) {
	pairs := []model.ZipProfile{
		{ZipCode: "95603", ProfileID: "P2"},
		{ZipCode: "90210", ProfileID: "P1"},
		{ZipCode: "90210"}, // uncovered group: dropped
	}
	loads := []model.AggregatedLoad{
		{ProfileID: "P1", Month: 5, Hour: 0, MeanKWH: 0.15},
		{ProfileID: "P1", Month: 5, Hour: 1, MeanKWH: 0.25},
	}

	rows := BuildZipLoads(pairs, loads)
	require.Len(t, rows, 2)

	assert.Equal(t, ZipLoadRow{ZipCode: "90210", ProfileID: "P1", Month: 5, Hour: 0, KWH: 0.15}, rows[0])
	assert.Equal(t, ZipLoadRow{ZipCode: "90210", ProfileID: "P1", Month: 5, Hour: 1, KWH: 0.25}, rows[1])
}

func TestBuildZipLoads_NoLoadData(t *testing.T) {
	pairs := []model.ZipProfile{{ZipCode: "90210", ProfileID: "P1"}}

	rows := BuildZipLoads(pairs, nil)
	assert.Empty(t, rows)
}
