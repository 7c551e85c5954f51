package domain

import "math"

// DropReport counts records excluded or defaulted during normalization.
// Dropping is not an error — the pipeline proceeds with the valid subset —
// but the counts are surfaced for observability.
type DropReport struct {
	Dropped            int // records missing usable coordinates or time
	DefaultedMagnitude int // records whose magnitude fell back to DefaultMagnitude
	DefaultedDepth     int // records whose depth fell back to UnknownDepth
}

// Normalize filters raw features to those with usable coordinates and a
// numeric timestamp, filling defaults for missing magnitude, depth, and
// place. Input order is preserved; sorting is the merge engine's job.
// Malformed records are silently excluded and tallied in the report.
func Normalize(features []Feature) ([]Event, DropReport) {
	events := make([]Event, 0, len(features))
	var report DropReport

	for _, f := range features {
		event, ok := normalizeFeature(f, &report)
		if !ok {
			report.Dropped++
			continue
		}
		events = append(events, event)
	}

	return events, report
}

// Admit reports whether a live-feed feature passes the admission filter:
// a numeric magnitude of at least MinFeedMagnitude (boundary inclusive) and
// at least two numeric coordinate components. Features failing the filter
// are discarded before dedup.
func Admit(f Feature) bool {
	mag, ok := numeric(f.Properties.Mag)
	if !ok || mag < MinFeedMagnitude {
		return false
	}
	if _, ok := coordAt(f.Geometry.Coordinates, 0); !ok {
		return false
	}
	if _, ok := coordAt(f.Geometry.Coordinates, 1); !ok {
		return false
	}
	return true
}

func normalizeFeature(f Feature, report *DropReport) (Event, bool) {
	lon, okLon := coordAt(f.Geometry.Coordinates, 0)
	lat, okLat := coordAt(f.Geometry.Coordinates, 1)
	if !okLon || !okLat {
		return Event{}, false
	}

	eventTime, ok := numeric(f.Properties.Time)
	if !ok {
		return Event{}, false
	}

	mag, ok := numeric(f.Properties.Mag)
	if !ok {
		mag = DefaultMagnitude
		report.DefaultedMagnitude++
	}

	depth, ok := coordAt(f.Geometry.Coordinates, 2)
	if !ok {
		depth = UnknownDepth
		report.DefaultedDepth++
	}

	place := f.Properties.Place
	if place == "" {
		place = UnknownPlace
	}

	return Event{
		Lat:   lat,
		Lon:   lon,
		Depth: depth,
		Mag:   mag,
		Time:  int64(eventTime),
		Place: place,
	}, true
}

// coordAt returns the i-th coordinate component if present and finite.
func coordAt(coords []*float64, i int) (float64, bool) {
	if i >= len(coords) {
		return 0, false
	}
	return numeric(coords[i])
}

func numeric(v *float64) (float64, bool) {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return 0, false
	}
	return *v, true
}
