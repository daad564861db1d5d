package loadshape

import (
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/gridsight/feedermatrix/internal/model"
)

// Season is the inclusive month window observations are restricted to before
// aggregation.
type Season struct {
	StartMonth int
	EndMonth   int
}

// CongestionSeason is the May through October window the congestion analysis
// is defined over.
var CongestionSeason = Season{StartMonth: 5, EndMonth: 10}

// Contains reports whether the calendar month m falls inside the window.
func (s Season) Contains(m time.Month) bool {
	return int(m) >= s.StartMonth && int(m) <= s.EndMonth
}

type slotKey struct {
	profile string
	month   int
	hour    int
}

// Aggregate filters observations to the season window and reduces them to
// one arithmetic mean per (profile, month, hour). The mean represents a
// typical hour, not cumulative seasonal energy. Slots with no observations
// are simply absent; zero-filling happens only at the final pivot. Output is
// sorted by (profile, month, hour) so repeated runs produce identical
// results.
func Aggregate(obs []model.Observation, season Season) []model.AggregatedLoad {
	sums := make(map[slotKey]float64)
	counts := make(map[slotKey]int)

	kept := 0
	for _, o := range obs {
		if !season.Contains(o.Date.Month()) {
			continue
		}
		kept++
		k := slotKey{profile: o.ProfileID, month: int(o.Date.Month()), hour: o.Hour}
		sums[k] += o.KWH
		counts[k]++
	}

	out := make([]model.AggregatedLoad, 0, len(sums))
	for k, sum := range sums {
		out = append(out, model.AggregatedLoad{
			ProfileID: k.profile,
			Month:     k.month,
			Hour:      k.hour,
			MeanKWH:   sum / float64(counts[k]),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.ProfileID != b.ProfileID {
			return a.ProfileID < b.ProfileID
		}
		if a.Month != b.Month {
			return a.Month < b.Month
		}
		return a.Hour < b.Hour
	})

	zap.L().Info("loadshape: aggregated seasonal load shapes",
		zap.Int("observations", len(obs)),
		zap.Int("in_season", kept),
		zap.Int("slots", len(out)),
	)

	return out
}
