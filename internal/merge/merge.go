// Package merge combines the historical earthquake catalog with freshly
// fetched recent events and rebuilds the persisted artifacts.
package merge

import (
	"sort"

	"github.com/couchcryptid/quake-globe-data/internal/domain"
)

// Result reports the observable outcome of a merge for operators. The
// admitted-but-new features themselves ride along for downstream
// notification; they are not part of the serialized report.
type Result struct {
	Added   int `json:"added"`
	Skipped int `json:"skipped"`
	Total   int `json:"total"`

	AddedFeatures []domain.Feature `json:"-"`
}

// Merge deduplicates recent events against the historical set by stable ID
// and returns the combined features sorted ascending by time.
//
// Historical records win: a recent record whose ID is already present is
// skipped even if the feed might carry corrected fields — the existing
// record is treated as authoritative. Recent records must first pass the
// admission filter (magnitude ≥ 2.5, two numeric coordinates). Records
// without an ID cannot be deduplicated and are dropped from the mergeable
// set on both sides; this is a documented limitation.
//
// An empty recent set is a no-op merge that still re-sorts, so re-encoding
// afterwards recomputes derived time bounds from scratch.
func Merge(historic, recent []domain.Feature) ([]domain.Feature, Result) {
	seen := make(map[string]struct{}, len(historic))
	merged := make([]domain.Feature, 0, len(historic)+len(recent))

	for _, f := range historic {
		if f.ID == "" {
			continue
		}
		if _, dup := seen[f.ID]; dup {
			continue
		}
		seen[f.ID] = struct{}{}
		merged = append(merged, f)
	}

	var result Result
	for _, f := range recent {
		if !domain.Admit(f) || f.ID == "" {
			continue
		}
		if _, dup := seen[f.ID]; dup {
			result.Skipped++
			continue
		}
		seen[f.ID] = struct{}{}
		merged = append(merged, f)
		result.AddedFeatures = append(result.AddedFeatures, f)
		result.Added++
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return featureTime(merged[i]) < featureTime(merged[j])
	})

	result.Total = len(merged)
	return merged, result
}

func featureTime(f domain.Feature) int64 {
	if f.Properties.Time == nil {
		return 0
	}
	return int64(*f.Properties.Time)
}
