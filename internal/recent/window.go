// Package recent derives the rolling 7-day event window served to the
// globe's live view. It works directly from the weekly feed and is
// independent of the historical binary.
package recent

import (
	"sort"
	"time"

	"github.com/couchcryptid/quake-globe-data/internal/domain"
)

const dayMs = int64(24 * time.Hour / time.Millisecond)

// Range is the UTC day span of a window: StartMs is the start of the
// earliest included day, EndMs the start of the latest (anchor) day.
type Range struct {
	StartMs int64 `json:"startMs"`
	EndMs   int64 `json:"endMs"`
}

// Window is the recent view payload: the events of the trailing seven UTC
// days, their summary stats, and the day range. Stats and Range are nil for
// an empty window — a valid terminal state consumers render as a
// placeholder, not a fault.
type Window struct {
	Events []domain.Event `json:"events"`
	Stats  *domain.Stats  `json:"stats"`
	Range  *Range         `json:"range"`
}

// BuildWindow validates and admits raw feed features, sorts them by time,
// and keeps the most recent UTC calendar day present plus the six preceding
// full UTC days. The window anchors to the latest event, not wall-clock
// now: [latestDayStart − 6d, latestDayStart + 1d). An event exactly on the
// lower boundary is included; one millisecond earlier is not.
func BuildWindow(features []domain.Feature) Window {
	admitted := make([]domain.Feature, 0, len(features))
	for _, f := range features {
		if domain.Admit(f) {
			admitted = append(admitted, f)
		}
	}

	events, _ := domain.Normalize(admitted)
	sortByTime(events)

	if len(events) == 0 {
		return Window{Events: []domain.Event{}}
	}

	endDayMs := startOfUTCDay(events[len(events)-1].Time)
	startDayMs := endDayMs - 6*dayMs
	boundaryMs := endDayMs + dayMs

	windowed := make([]domain.Event, 0, len(events))
	for _, ev := range events {
		if ev.Time >= startDayMs && ev.Time < boundaryMs {
			windowed = append(windowed, ev)
		}
	}

	stats := buildStats(windowed)
	return Window{
		Events: windowed,
		Stats:  &stats,
		Range:  &Range{StartMs: startDayMs, EndMs: endDayMs},
	}
}

// buildStats summarizes a non-empty, time-sorted window.
func buildStats(events []domain.Event) domain.Stats {
	stats := domain.Stats{
		TotalCount:   len(events),
		MinMagnitude: events[0].Mag,
		MaxMagnitude: events[0].Mag,
		StartYear:    time.UnixMilli(events[0].Time).UTC().Year(),
		EndYear:      time.UnixMilli(events[len(events)-1].Time).UTC().Year(),
	}

	haveDepth := false
	for _, ev := range events {
		if ev.Mag < stats.MinMagnitude {
			stats.MinMagnitude = ev.Mag
		}
		if ev.Mag > stats.MaxMagnitude {
			stats.MaxMagnitude = ev.Mag
		}
		if ev.Depth < 0 {
			continue
		}
		if !haveDepth || ev.Depth < stats.MinDepth {
			stats.MinDepth = ev.Depth
		}
		if !haveDepth || ev.Depth > stats.MaxDepth {
			stats.MaxDepth = ev.Depth
		}
		haveDepth = true
	}

	return stats
}

func sortByTime(events []domain.Event) {
	// Stable so same-millisecond events keep feed order.
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Time < events[j].Time
	})
}

func startOfUTCDay(ms int64) int64 {
	t := time.UnixMilli(ms).UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC).UnixMilli()
}
