package domain

import "math"

const degToRad = math.Pi / 180

// Project maps a latitude/longitude pair (degrees) onto a sphere of the
// given radius:
//
//	x = r·cos(lat)·cos(lon)
//	y = r·sin(lat)
//	z = −r·cos(lat)·sin(lon)
//
// This is the single canonical convention used for every encoded dataset;
// mixing conventions would misalign historical and live points on the globe.
// The function is pure and deterministic — identical inputs produce
// bit-identical outputs, which keeps encoded binaries byte-reproducible.
// Callers must pre-validate that lat and lon are finite.
func Project(lat, lon, radius float64) (x, y, z float64) {
	latRad := lat * degToRad
	lonRad := lon * degToRad

	cosLat := math.Cos(latRad)

	x = radius * cosLat * math.Cos(lonRad)
	y = radius * math.Sin(latRad)
	z = -radius * cosLat * math.Sin(lonRad)
	return x, y, z
}
