// Command genmock generates a deterministic synthetic earthquake catalog
// for development and test fixtures. Events are spread across the requested
// time span with plausible magnitude and depth distributions; the generator
// is seeded, so identical flags produce byte-identical fixtures.
//
// Usage:
//
//	go run ./cmd/genmock -out data/earthquakes.json -count 5000
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	json "github.com/goccy/go-json"

	"github.com/couchcryptid/quake-globe-data/internal/domain"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output path for the catalog fixture")
	count := flag.Int("count", 1000, "number of synthetic events")
	seed := flag.Int64("seed", 1, "random seed")
	startYear := flag.Int("start-year", 1900, "first event year (UTC)")
	endYear := flag.Int("end-year", 2026, "last event year (UTC)")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}
	if *count <= 0 || *endYear < *startYear {
		return fmt.Errorf("invalid -count or year range")
	}

	catalog := generate(*count, *seed, *startYear, *endYear)

	data, err := json.Marshal(catalog)
	if err != nil {
		return fmt.Errorf("encoding catalog: %w", err)
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil {
		return fmt.Errorf("writing catalog: %w", err)
	}

	log.Printf("wrote %d events: %s", len(catalog.Features), *out)
	return nil
}

func generate(count int, seed int64, startYear, endYear int) domain.Catalog {
	rng := rand.New(rand.NewSource(seed))

	startMs := time.Date(startYear, time.January, 1, 0, 0, 0, 0, time.UTC).UnixMilli()
	endMs := time.Date(endYear, time.December, 31, 0, 0, 0, 0, time.UTC).UnixMilli()

	features := make([]domain.Feature, count)
	for i := range features {
		lon := rng.Float64()*360 - 180
		lat := rng.Float64()*180 - 90
		depth := rng.Float64() * 700 // down to the deepest recorded events
		// Magnitudes cluster near the admission floor, thinning upward.
		mag := domain.MinFeedMagnitude + rng.ExpFloat64()*0.8
		if mag > 9.5 {
			mag = 9.5
		}
		eventMs := float64(startMs + rng.Int63n(endMs-startMs+1))

		coords := []*float64{&lon, &lat, &depth}
		features[i] = domain.Feature{
			ID:       fmt.Sprintf("mock%08d", i),
			Geometry: domain.Geometry{Type: "Point", Coordinates: coords},
			Properties: domain.Properties{
				Mag:   &mag,
				Time:  &eventMs,
				Place: fmt.Sprintf("Synthetic region %d", i%50),
			},
		}
	}

	return domain.Catalog{Type: "FeatureCollection", Features: features}
}
