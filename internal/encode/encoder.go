// Package encode packs normalized earthquake events into the stride-6
// float32 point binary consumed by the globe renderer, and derives the
// companion stats document.
package encode

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/couchcryptid/quake-globe-data/internal/domain"
)

const (
	// Stride is the number of float32 fields per encoded point:
	// [x, y, z, mag, depth, normalizedTime].
	Stride = 6

	// RowBytes is the byte width of one encoded point. The binary has no
	// header or length prefix; point count is fileSize / RowBytes.
	RowBytes = Stride * 4
)

// Historical corpus time bounds, 1900-01-01 through 2026-12-31 UTC.
var (
	historicalStartMs = time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC).UnixMilli()
	historicalEndMs   = time.Date(2026, time.December, 31, 0, 0, 0, 0, time.UTC).UnixMilli()
)

// TimeRangePolicy selects the bounds used to normalize event times into
// [0, 1]. It is a closed tagged variant: either fixed dataset-wide bounds or
// bounds derived from the record set being encoded. Making the policy an
// explicit parameter keeps the two paths from being silently mixed during
// incremental rebuilds.
type TimeRangePolicy struct {
	derived bool
	startMs int64
	endMs   int64
}

// FixedRange normalizes against the given epoch-millisecond bounds
// regardless of the event times actually present.
func FixedRange(startMs, endMs int64) TimeRangePolicy {
	return TimeRangePolicy{startMs: startMs, endMs: endMs}
}

// HistoricalRange is the fixed policy for the full historical corpus.
func HistoricalRange() TimeRangePolicy {
	return FixedRange(historicalStartMs, historicalEndMs)
}

// DerivedRange normalizes against the min/max event time of the input.
// Used on the incremental rebuild path, where bounds must be recomputed
// from the merged set on every run rather than cached from a prior one.
func DerivedRange() TimeRangePolicy {
	return TimeRangePolicy{derived: true}
}

// bounds resolves the policy against the input events.
func (p TimeRangePolicy) bounds(events []domain.Event) (startMs, endMs int64) {
	if !p.derived {
		return p.startMs, p.endMs
	}
	if len(events) == 0 {
		return 0, 0
	}
	startMs, endMs = events[0].Time, events[0].Time
	for _, ev := range events[1:] {
		if ev.Time < startMs {
			startMs = ev.Time
		}
		if ev.Time > endMs {
			endMs = ev.Time
		}
	}
	return startMs, endMs
}

// Encode projects each event onto a sphere of the given radius and packs the
// stride-6 rows as little-endian float32, accumulating stats along the way.
// Output is byte-identical for identical input order and policy. An empty
// input yields a zero-length buffer and neutral (zero) stats extrema —
// unresolved infinities must never reach persisted output.
func Encode(events []domain.Event, radius float64, policy TimeRangePolicy) ([]byte, domain.Stats) {
	startMs, endMs := policy.bounds(events)

	buf := make([]byte, len(events)*RowBytes)
	acc := newStatsAccumulator()

	offset := 0
	for _, ev := range events {
		x, y, z := domain.Project(ev.Lat, ev.Lon, radius)
		nt := normalizeTime(ev.Time, startMs, endMs)

		offset = putFloat32(buf, offset, x)
		offset = putFloat32(buf, offset, y)
		offset = putFloat32(buf, offset, z)
		offset = putFloat32(buf, offset, ev.Mag)
		offset = putFloat32(buf, offset, ev.Depth)
		offset = putFloat32(buf, offset, nt)

		acc.observe(ev.Mag, ev.Depth)
	}

	return buf, acc.stats(len(events), startMs, endMs)
}

// Row is one decoded stride-6 point.
type Row struct {
	X, Y, Z float32
	Mag     float32
	Depth   float32
	Time    float32 // normalized to [0, 1]
}

// Decode unpacks a point binary back into rows. Used to re-derive the stats
// document when it has gone stale relative to the binary.
func Decode(buf []byte) ([]Row, error) {
	if len(buf)%RowBytes != 0 {
		return nil, fmt.Errorf("decode points: %d bytes is not a multiple of the %d-byte row size", len(buf), RowBytes)
	}

	rows := make([]Row, len(buf)/RowBytes)
	for i := range rows {
		o := i * RowBytes
		rows[i] = Row{
			X:     getFloat32(buf, o),
			Y:     getFloat32(buf, o+4),
			Z:     getFloat32(buf, o+8),
			Mag:   getFloat32(buf, o+12),
			Depth: getFloat32(buf, o+16),
			Time:  getFloat32(buf, o+20),
		}
	}
	return rows, nil
}

// StatsFromRows rebuilds a stats document from decoded rows. Year bounds
// come from the caller since normalized times cannot recover them.
func StatsFromRows(rows []Row, startYear, endYear int) domain.Stats {
	acc := newStatsAccumulator()
	for _, r := range rows {
		acc.observe(float64(r.Mag), float64(r.Depth))
	}
	stats := acc.stats(len(rows), 0, 0)
	stats.StartYear = startYear
	stats.EndYear = endYear
	return stats
}

// normalizeTime maps t into [0, 1] within the range, clamping on both ends.
// A degenerate range (end <= start) maps everything to 0.
func normalizeTime(t, startMs, endMs int64) float64 {
	duration := endMs - startMs
	if duration <= 0 {
		return 0
	}
	nt := float64(t-startMs) / float64(duration)
	return math.Min(math.Max(nt, 0), 1)
}

type statsAccumulator struct {
	minMag, maxMag     float64
	minDepth, maxDepth float64
	measuredDepths     bool
	observations       bool
}

func newStatsAccumulator() *statsAccumulator {
	return &statsAccumulator{
		minMag:   math.Inf(1),
		maxMag:   math.Inf(-1),
		minDepth: math.Inf(1),
		maxDepth: math.Inf(-1),
	}
}

func (a *statsAccumulator) observe(mag, depth float64) {
	a.observations = true
	a.minMag = math.Min(a.minMag, mag)
	a.maxMag = math.Max(a.maxMag, mag)

	// Sentinel depths (unknown) never reach the depth extrema.
	if depth >= 0 {
		a.measuredDepths = true
		a.minDepth = math.Min(a.minDepth, depth)
		a.maxDepth = math.Max(a.maxDepth, depth)
	}
}

func (a *statsAccumulator) stats(count int, startMs, endMs int64) domain.Stats {
	stats := domain.Stats{TotalCount: count}

	if a.observations {
		stats.MinMagnitude = round2(a.minMag)
		stats.MaxMagnitude = round2(a.maxMag)
		stats.StartYear = time.UnixMilli(startMs).UTC().Year()
		stats.EndYear = time.UnixMilli(endMs).UTC().Year()
	}
	if a.measuredDepths {
		stats.MinDepth = round2(a.minDepth)
		stats.MaxDepth = round2(a.maxDepth)
	}

	return stats
}

// round2 matches the two-decimal precision of the persisted stats artifact.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func putFloat32(buf []byte, offset int, v float64) int {
	binary.LittleEndian.PutUint32(buf[offset:], math.Float32bits(float32(v)))
	return offset + 4
}

func getFloat32(buf []byte, offset int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(buf[offset:]))
}
