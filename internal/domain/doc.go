// Package domain models USGS earthquake catalog data.
//
// # Data Source
//
// Records originate from USGS GeoJSON feeds (summary feeds at
// https://earthquake.usgs.gov/earthquakes/feed/v1.0/) and from the persisted
// historical catalog, which uses the same feature shape. Each feature carries
// an optional stable "id", a geometry with [lon, lat, depth] coordinates
// (depth in kilometers, optional), and properties with "mag", "time" (epoch
// milliseconds), and "place".
//
// # Field Conventions
//
// Coordinates:
//
//	GeoJSON order is [longitude, latitude, depth]. Longitude and latitude
//	must both be numeric for a record to be usable; depth is optional.
//
// Magnitude:
//
//	Missing or non-numeric magnitudes default to 6 ([DefaultMagnitude]), the
//	historical corpus convention for pre-instrumental events whose magnitude
//	was estimated but not recorded in the source dataset. [Normalize] counts
//	each substitution so downstream consumers can see how much data was
//	defaulted.
//
// Depth:
//
//	Missing or non-numeric depths become the sentinel −1 ([UnknownDepth]),
//	meaning "depth unknown". The sentinel is carried through encoding so the
//	renderer can distinguish unknown from surface-level, and it is excluded
//	from depth statistics — treating unknown as 0 km would skew the extrema.
//
// Time:
//
//	Epoch milliseconds UTC. A record without a numeric time is unusable and
//	is dropped during normalization.
//
// Admission threshold:
//
//	The historical corpus only contains events of magnitude 2.5 and above,
//	so live-feed records below that floor are rejected by [Admit] before
//	they can be merged. The boundary is inclusive: 2.5 is admitted, 2.4 is
//	not.
//
// # Projection
//
// [Project] maps latitude/longitude onto a sphere using one fixed
// spherical-to-Cartesian convention shared by every encoded dataset. The
// point radius of 1.02 lifts points slightly off the unit globe surface.
package domain
