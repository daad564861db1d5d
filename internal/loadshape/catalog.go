// Package loadshape builds the load-profile catalog, expands ZIP climate
// assignments into candidate profiles, and aggregates raw hourly load
// observations into seasonal month-hour means.
package loadshape

import (
	"go.uber.org/zap"

	"github.com/gridsight/feedermatrix/internal/model"
)

// BuildCatalog combines residential and non-residential profile
// characteristics into one catalog, tagging each entry with its customer
// type. Entries are not deduplicated across the two inputs: a profile id
// appearing in both stays as two distinct entries, matching the source data
// convention, but a warning is logged since ids are expected unique overall.
func BuildCatalog(res, nonres []model.LoadProfile) []model.LoadProfile {
	catalog := make([]model.LoadProfile, 0, len(res)+len(nonres))

	seen := make(map[string]model.CustomerType, len(res)+len(nonres))
	add := func(entries []model.LoadProfile, typ model.CustomerType) {
		for _, e := range entries {
			e.Type = typ
			if prev, dup := seen[e.ProfileID]; dup {
				zap.L().Warn("loadshape: duplicate profile id in catalog",
					zap.String("profile", e.ProfileID),
					zap.String("first_type", string(prev)),
					zap.String("second_type", string(typ)),
				)
			} else {
				seen[e.ProfileID] = typ
			}
			catalog = append(catalog, e)
		}
	}

	add(res, model.CustomerResidential)
	add(nonres, model.CustomerNonResidential)

	zap.L().Info("loadshape: built profile catalog",
		zap.Int("residential", len(res)),
		zap.Int("nonresidential", len(nonres)),
		zap.Int("total", len(catalog)),
	)

	return catalog
}

// ProfileIDs returns the distinct profile ids of the catalog in input order.
func ProfileIDs(catalog []model.LoadProfile) []string {
	seen := make(map[string]bool, len(catalog))
	ids := make([]string, 0, len(catalog))
	for _, p := range catalog {
		if p.ProfileID == "" || seen[p.ProfileID] {
			continue
		}
		seen[p.ProfileID] = true
		ids = append(ids, p.ProfileID)
	}
	return ids
}
