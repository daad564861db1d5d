// Package climate maps climate zone codes to group labels and assigns each
// ZIP polygon to the group containing its centroid.
package climate

import "github.com/gridsight/feedermatrix/internal/model"

// zoneGroups maps numeric building climate zone codes to the group labels
// used by the load-study segmentation.
var zoneGroups = map[int]string{
	1:  "Coastal",
	3:  "Coastal",
	5:  "Coastal",
	2:  "Inland",
	4:  "Inland",
	11: "North Central Valley",
	12: "North Central Valley",
	13: "South Central Valley",
}

// GroupForZone returns the group label for a zone code. Codes absent from the
// catalog yield ok=false; the caller carries the record forward without a
// group rather than treating this as an error.
func GroupForZone(code int) (string, bool) {
	g, ok := zoneGroups[code]
	return g, ok
}

// MapZones returns a copy of the zone polygons with group labels filled in
// from the zone-code catalog. Polygons with unmapped codes keep an empty
// group and are dropped later during ZIP resolution.
func MapZones(zones []model.ClimateZone) []model.ClimateZone {
	out := make([]model.ClimateZone, len(zones))
	for i, z := range zones {
		z.Group, _ = GroupForZone(z.ZoneCode)
		out[i] = z
	}
	return out
}
