// Package store persists the pipeline's artifacts: the historical catalog
// document, the stride-6 point binary, and the stats document.
package store

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	json "github.com/goccy/go-json"

	"github.com/couchcryptid/quake-globe-data/internal/domain"
	"github.com/couchcryptid/quake-globe-data/internal/encode"
)

// Artifact file names within the data directory.
const (
	CatalogFile = "earthquakes.json"
	BinaryFile  = "earthquakes.bin"
	StatsFile   = "earthquakes-stats.json"
)

// Store reads and writes artifacts under a single data directory. Writes go
// to a temp file in the same directory and rename into place, so a reader
// never observes a torn artifact.
type Store struct {
	dir    string
	logger *slog.Logger
}

// New creates a Store rooted at dir.
func New(dir string, logger *slog.Logger) *Store {
	return &Store{dir: dir, logger: logger}
}

// LoadCatalog reads and decodes the historical catalog document.
// Individually undecodable features are dropped and logged, not fatal.
func (s *Store) LoadCatalog() (domain.Catalog, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, CatalogFile))
	if err != nil {
		return domain.Catalog{}, fmt.Errorf("read catalog: %w", err)
	}

	catalog, dropped, err := domain.DecodeCatalog(data)
	if err != nil {
		return domain.Catalog{}, err
	}
	if dropped > 0 {
		s.logger.Warn("catalog contains undecodable features", "dropped", dropped)
	}
	return catalog, nil
}

// SaveCatalog writes the catalog compactly (no indentation, to keep the
// multi-megabyte document small).
func (s *Store) SaveCatalog(catalog domain.Catalog) error {
	data, err := json.Marshal(catalog)
	if err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}
	return s.writeAtomic(CatalogFile, data)
}

// LoadBinary reads the point binary.
func (s *Store) LoadBinary() ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, BinaryFile))
	if err != nil {
		return nil, fmt.Errorf("read point binary: %w", err)
	}
	return data, nil
}

// SaveBinary writes the point binary.
func (s *Store) SaveBinary(buf []byte) error {
	return s.writeAtomic(BinaryFile, buf)
}

// LoadStats reads the stats document.
func (s *Store) LoadStats() (domain.Stats, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, StatsFile))
	if err != nil {
		return domain.Stats{}, fmt.Errorf("read stats: %w", err)
	}
	var stats domain.Stats
	if err := json.Unmarshal(data, &stats); err != nil {
		return domain.Stats{}, fmt.Errorf("decode stats: %w", err)
	}
	return stats, nil
}

// SaveStats writes the stats document pretty-printed for human inspection;
// the indentation is insignificant to machine consumers.
func (s *Store) SaveStats(stats domain.Stats) error {
	data, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return fmt.Errorf("encode stats: %w", err)
	}
	return s.writeAtomic(StatsFile, data)
}

// HasArtifacts reports whether the binary and stats artifacts both exist.
// Used as the service readiness check.
func (s *Store) HasArtifacts() error {
	for _, name := range []string{BinaryFile, StatsFile} {
		if _, err := os.Stat(filepath.Join(s.dir, name)); err != nil {
			return fmt.Errorf("artifact %s not available: %w", name, err)
		}
	}
	return nil
}

// EnsureConsistentStats detects a stats document that is stale relative to
// the binary — the state left by a crash between persisting the two — and
// recovers by re-deriving stats from the binary plus the catalog's time
// range. Returns the authoritative stats either way.
//
// Staleness is detected by point count only; a crash that swapped in a
// binary with the same count but different contents passes undetected.
func (s *Store) EnsureConsistentStats() (domain.Stats, error) {
	buf, err := s.LoadBinary()
	if err != nil {
		return domain.Stats{}, err
	}
	pointCount := len(buf) / encode.RowBytes

	stats, err := s.LoadStats()
	if err == nil && stats.TotalCount == pointCount {
		return stats, nil
	}
	if err != nil {
		s.logger.Warn("stats artifact unreadable, re-deriving from binary", "error", err)
	} else {
		s.logger.Warn("stats artifact stale relative to binary, re-deriving",
			"stats_count", stats.TotalCount, "binary_count", pointCount)
	}

	return s.RederiveStats(buf)
}

// RederiveStats rebuilds and persists the stats document from the given
// point binary. Year bounds come from the catalog, since normalized times
// cannot recover them.
func (s *Store) RederiveStats(buf []byte) (domain.Stats, error) {
	rows, err := encode.Decode(buf)
	if err != nil {
		return domain.Stats{}, err
	}

	startYear, endYear := s.catalogYearRange()
	stats := encode.StatsFromRows(rows, startYear, endYear)

	if err := s.SaveStats(stats); err != nil {
		return domain.Stats{}, err
	}
	return stats, nil
}

// catalogYearRange returns the UTC year span of the catalog's events, or
// zeros when the catalog is unavailable or empty.
func (s *Store) catalogYearRange() (startYear, endYear int) {
	catalog, err := s.LoadCatalog()
	if err != nil {
		s.logger.Warn("catalog unavailable for year range", "error", err)
		return 0, 0
	}

	events, _ := domain.Normalize(catalog.Features)
	if len(events) == 0 {
		return 0, 0
	}

	minMs, maxMs := events[0].Time, events[0].Time
	for _, ev := range events[1:] {
		if ev.Time < minMs {
			minMs = ev.Time
		}
		if ev.Time > maxMs {
			maxMs = ev.Time
		}
	}
	return time.UnixMilli(minMs).UTC().Year(), time.UnixMilli(maxMs).UTC().Year()
}

// writeAtomic writes data to a temp file in the data directory and renames
// it over the target.
func (s *Store) writeAtomic(name string, data []byte) error {
	tmp, err := os.CreateTemp(s.dir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp artifact: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(tmpName, filepath.Join(s.dir, name)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", name, err)
	}
	return nil
}
