package loadshape

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridsight/feedermatrix/internal/model"
)

func TestBuildCatalog(t *testing.T) {
	res := []model.LoadProfile{
		{ProfileID: "1_1_NS_C", SegmentGroup: "Coastal"},
		{ProfileID: "2_1_NS_I", SegmentGroup: "Inland"},
	}
	nonres := []model.LoadProfile{
		{ProfileID: "COM_5_C", SegmentGroup: "Coastal"},
	}

	catalog := BuildCatalog(res, nonres)
	require.Len(t, catalog, 3)

	assert.Equal(t, model.CustomerResidential, catalog[0].Type)
	assert.Equal(t, model.CustomerResidential, catalog[1].Type)
	assert.Equal(t, model.CustomerNonResidential, catalog[2].Type)
	assert.Equal(t, "COM_5_C", catalog[2].ProfileID)
}

func TestBuildCatalog_DuplicateIDKept(t *testing.T) {
	// The same id in both inputs stays as two entries; no merge happens.
	res := []model.LoadProfile{{ProfileID: "P1", SegmentGroup: "Coastal"}}
	nonres := []model.LoadProfile{{ProfileID: "P1", SegmentGroup: "Coastal"}}

	catalog := BuildCatalog(res, nonres)
	require.Len(t, catalog, 2)
	assert.Equal(t, model.CustomerResidential, catalog[0].Type)
	assert.Equal(t, model.CustomerNonResidential, catalog[1].Type)
}

func TestBuildCatalog_Empty(t *testing.T) {
	assert.Empty(t, BuildCatalog(nil, nil))
}

func TestProfileIDs(t *testing.T) {
	catalog := []model.LoadProfile{
		{ProfileID: "P2"},
		{ProfileID: "P1"},
		{ProfileID: "P2"}, // duplicate collapses
		{ProfileID: ""},   // blank ignored
	}

	assert.Equal(t, []string{"P2", "P1"}, ProfileIDs(catalog))
}
