package domain

// Feature is an untrusted GeoJSON-like earthquake record as delivered by the
// USGS feed or the persisted catalog. Every field is optional at the wire
// level; validation happens in Normalize.
type Feature struct {
	ID         string     `json:"id,omitempty"`
	Geometry   Geometry   `json:"geometry"`
	Properties Properties `json:"properties"`
}

// Geometry carries the [lon, lat, depth] coordinate triple. Depth (km) is
// optional. Pointer elements distinguish "absent/null" from zero.
type Geometry struct {
	Type        string     `json:"type,omitempty"`
	Coordinates []*float64 `json:"coordinates"`
}

// Properties holds the subset of USGS event properties the pipeline uses.
type Properties struct {
	Mag   *float64 `json:"mag,omitempty"`
	Time  *float64 `json:"time,omitempty"` // epoch milliseconds
	Place string   `json:"place,omitempty"`
}

// Catalog is a GeoJSON-like feature collection, the persisted historical
// record document.
type Catalog struct {
	Type     string    `json:"type,omitempty"`
	Features []Feature `json:"features"`
}

// Event is a validated, normalized earthquake record.
type Event struct {
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	Depth float64 `json:"depth"` // km, UnknownDepth when unreported
	Mag   float64 `json:"mag"`
	Time  int64   `json:"time"` // epoch milliseconds
	Place string  `json:"place"`
}

// Stats summarizes an encoded point set. Field names match the persisted
// stats artifact consumed by the globe UI.
type Stats struct {
	TotalCount   int     `json:"totalCount"`
	MinMagnitude float64 `json:"minMagnitude"`
	MaxMagnitude float64 `json:"maxMagnitude"`
	MinDepth     float64 `json:"minDepth"`
	MaxDepth     float64 `json:"maxDepth"`
	StartYear    int     `json:"startYear"`
	EndYear      int     `json:"endYear"`
}

const (
	// DefaultMagnitude substitutes for a missing or non-numeric magnitude.
	// Historical corpus convention; the substitution count is reported so
	// the masking stays observable.
	DefaultMagnitude = 6.0

	// UnknownDepth marks a record whose depth was absent or non-numeric.
	// Excluded from depth extrema, never clamped to 0.
	UnknownDepth = -1.0

	// UnknownPlace substitutes for a missing place description.
	UnknownPlace = "Unknown"

	// MinFeedMagnitude is the admission threshold for live-feed events,
	// matching the magnitude floor of the historical corpus. Inclusive.
	MinFeedMagnitude = 2.5

	// PointRadius is the sphere scale factor applied uniformly to every
	// encoded dataset so historical and recent points stay comparable.
	PointRadius = 1.02
)
