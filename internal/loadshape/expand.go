package loadshape

import (
	"go.uber.org/zap"

	"github.com/gridsight/feedermatrix/internal/model"
)

// ExpandZipProfiles joins ZIP climate assignments to the catalog by group
// label and explodes each ZIP's candidate list into one row per (ZIP,
// profile) pair. A ZIP whose group has no catalog coverage yields a single
// row with an empty ProfileID so the miss stays visible until the stage that
// requires a profile discards it. Output order follows assignment order,
// with candidates in catalog order.
func ExpandZipProfiles(assignments []model.ZipClimate, catalog []model.LoadProfile) []model.ZipProfile {
	byGroup := make(map[string][]string)
	for _, p := range catalog {
		if p.ProfileID == "" {
			continue
		}
		byGroup[p.SegmentGroup] = append(byGroup[p.SegmentGroup], p.ProfileID)
	}

	var pairs []model.ZipProfile
	for _, a := range assignments {
		candidates := byGroup[a.Group]
		if len(candidates) == 0 {
			pairs = append(pairs, model.ZipProfile{ZipCode: a.ZipCode})
			continue
		}
		for _, id := range candidates {
			pairs = append(pairs, model.ZipProfile{ZipCode: a.ZipCode, ProfileID: id})
		}
	}

	zap.L().Info("loadshape: expanded ZIP profile candidates",
		zap.Int("zips", len(assignments)),
		zap.Int("pairs", len(pairs)),
	)

	return pairs
}
