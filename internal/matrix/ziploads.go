package matrix

import (
	"sort"

	"go.uber.org/zap"

	"github.com/gridsight/feedermatrix/internal/model"
)

// ZipLoadRow is one cell of the long-format ZIP load table: a ZIP's
// candidate profile with its seasonal mean for one month-hour slot.
type ZipLoadRow struct {
	ZipCode   string
	ProfileID string
	Month     int
	Hour      int
	KWH       float64
}

// BuildZipLoads joins ZIP-profile pairs with the aggregated loads on profile
// id, producing one row per (zip, profile, month, hour). Pairs with no
// profile, and profiles with no aggregated data, contribute nothing: a join
// miss stays absent here, zero-filling is the pivot's job. Rows are sorted
// for stable output.
func BuildZipLoads(pairs []model.ZipProfile, loads []model.AggregatedLoad) []ZipLoadRow {
	byProfile := make(map[string][]model.AggregatedLoad)
	for _, l := range loads {
		byProfile[l.ProfileID] = append(byProfile[l.ProfileID], l)
	}

	var rows []ZipLoadRow
	seen := make(map[model.ZipProfile]bool, len(pairs))
	for _, p := range pairs {
		if p.ProfileID == "" || seen[p] {
			continue
		}
		seen[p] = true
		for _, l := range byProfile[p.ProfileID] {
			rows = append(rows, ZipLoadRow{
				ZipCode:   p.ZipCode,
				ProfileID: p.ProfileID,
				Month:     l.Month,
				Hour:      l.Hour,
				KWH:       l.MeanKWH,
			})
		}
	}

	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.ZipCode != b.ZipCode {
			return a.ZipCode < b.ZipCode
		}
		if a.ProfileID != b.ProfileID {
			return a.ProfileID < b.ProfileID
		}
		if a.Month != b.Month {
			return a.Month < b.Month
		}
		return a.Hour < b.Hour
	})

	zap.L().Info("matrix: built ZIP load table",
		zap.Int("pairs", len(pairs)),
		zap.Int("rows", len(rows)),
	)

	return rows
}
