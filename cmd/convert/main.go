// Command convert performs the one-shot conversion of a historical
// earthquake catalog into the stride-6 point binary and stats artifacts,
// normalizing times against the fixed 1900–2026 corpus range.
//
// Usage:
//
//	go run ./cmd/convert -data-dir ./data
//
// The data directory must contain earthquakes.json; earthquakes.bin and
// earthquakes-stats.json are written next to it.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/couchcryptid/quake-globe-data/internal/domain"
	"github.com/couchcryptid/quake-globe-data/internal/encode"
	"github.com/couchcryptid/quake-globe-data/internal/store"
)

func main() {
	dataDir := flag.String("data-dir", "", "directory containing earthquakes.json; artifacts are written alongside it")
	flag.Parse()

	if *dataDir == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*dataDir); code != 0 {
		os.Exit(code)
	}
}

func run(dataDir string) int {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	artifacts := store.New(dataDir, logger)

	catalog, err := artifacts.LoadCatalog()
	if err != nil {
		fmt.Fprintln(os.Stderr, "load catalog:", err)
		return 1
	}

	events, report := domain.Normalize(catalog.Features)
	buf, stats := encode.Encode(events, domain.PointRadius, encode.HistoricalRange())

	if err := artifacts.SaveBinary(buf); err != nil {
		fmt.Fprintln(os.Stderr, "write binary:", err)
		return 1
	}
	// Stats last, matching the refresh persistence order.
	if err := artifacts.SaveStats(stats); err != nil {
		fmt.Fprintln(os.Stderr, "write stats:", err)
		return 1
	}

	fmt.Printf("encoded %d points (%d bytes)\n", len(events), len(buf))
	if report.Dropped > 0 {
		fmt.Printf("dropped %d records without usable coordinates or time\n", report.Dropped)
	}
	if report.DefaultedMagnitude > 0 {
		fmt.Printf("defaulted %d missing magnitudes to %g\n", report.DefaultedMagnitude, float64(domain.DefaultMagnitude))
	}
	fmt.Printf("stats: %+v\n", stats)
	return 0
}
