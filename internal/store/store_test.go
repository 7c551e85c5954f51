package store

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/quake-globe-data/internal/domain"
	"github.com/couchcryptid/quake-globe-data/internal/encode"
)

func fl(v float64) *float64 { return &v }

func testStore(t *testing.T) *Store {
	t.Helper()
	return New(t.TempDir(), slog.New(slog.DiscardHandler))
}

func testCatalog() domain.Catalog {
	return domain.Catalog{
		Type: "FeatureCollection",
		Features: []domain.Feature{
			{
				ID: "us001",
				Geometry: domain.Geometry{
					Type:        "Point",
					Coordinates: []*float64{fl(10), fl(20), fl(5)},
				},
				Properties: domain.Properties{
					Mag:   fl(6.2),
					Time:  fl(1_600_000_000_000),
					Place: "somewhere deep",
				},
			},
		},
	}
}

func TestStoreCatalog(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		s := testStore(t)
		require.NoError(t, s.SaveCatalog(testCatalog()))

		loaded, err := s.LoadCatalog()
		require.NoError(t, err)
		require.Len(t, loaded.Features, 1)
		assert.Equal(t, "us001", loaded.Features[0].ID)
		assert.Equal(t, 6.2, *loaded.Features[0].Properties.Mag)
	})

	t.Run("missing file is an error", func(t *testing.T) {
		s := testStore(t)
		_, err := s.LoadCatalog()
		require.Error(t, err)
	})
}

func TestStoreBinary(t *testing.T) {
	s := testStore(t)
	buf := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	require.NoError(t, s.SaveBinary(buf))

	loaded, err := s.LoadBinary()
	require.NoError(t, err)
	assert.Equal(t, buf, loaded)
}

func TestStoreStats(t *testing.T) {
	s := testStore(t)
	stats := domain.Stats{
		TotalCount:   3,
		MinMagnitude: 2.5,
		MaxMagnitude: 7.1,
		MinDepth:     0.5,
		MaxDepth:     600,
		StartYear:    1900,
		EndYear:      2026,
	}
	require.NoError(t, s.SaveStats(stats))

	loaded, err := s.LoadStats()
	require.NoError(t, err)
	assert.Equal(t, stats, loaded)
}

func TestHasArtifacts(t *testing.T) {
	s := testStore(t)
	require.Error(t, s.HasArtifacts())

	require.NoError(t, s.SaveBinary([]byte{1}))
	require.Error(t, s.HasArtifacts())

	require.NoError(t, s.SaveStats(domain.Stats{}))
	require.NoError(t, s.HasArtifacts())
}

func TestEnsureConsistentStats(t *testing.T) {
	encoded := func(t *testing.T, s *Store) ([]byte, domain.Stats) {
		t.Helper()
		catalog := testCatalog()
		require.NoError(t, s.SaveCatalog(catalog))
		events, _ := domain.Normalize(catalog.Features)
		buf, stats := encode.Encode(events, domain.PointRadius, encode.DerivedRange())
		require.NoError(t, s.SaveBinary(buf))
		return buf, stats
	}

	t.Run("consistent artifacts pass through", func(t *testing.T) {
		s := testStore(t)
		_, stats := encoded(t, s)
		require.NoError(t, s.SaveStats(stats))

		got, err := s.EnsureConsistentStats()
		require.NoError(t, err)
		assert.Equal(t, stats, got)
	})

	t.Run("stale stats re-derived from binary", func(t *testing.T) {
		s := testStore(t)
		_, want := encoded(t, s)
		// A crash between persisting the binary and the stats leaves the old
		// count behind.
		require.NoError(t, s.SaveStats(domain.Stats{TotalCount: 999}))

		got, err := s.EnsureConsistentStats()
		require.NoError(t, err)
		assert.Equal(t, want.TotalCount, got.TotalCount)
		assert.Equal(t, want.MinMagnitude, got.MinMagnitude)
		assert.Equal(t, want.MaxDepth, got.MaxDepth)

		// The repaired document is persisted, not just returned.
		persisted, err := s.LoadStats()
		require.NoError(t, err)
		assert.Equal(t, got, persisted)
	})

	t.Run("missing stats re-derived from binary", func(t *testing.T) {
		s := testStore(t)
		_, want := encoded(t, s)

		got, err := s.EnsureConsistentStats()
		require.NoError(t, err)
		assert.Equal(t, want.TotalCount, got.TotalCount)
	})

	t.Run("missing binary is an error", func(t *testing.T) {
		s := testStore(t)
		_, err := s.EnsureConsistentStats()
		require.Error(t, err)
	})
}

func TestWriteAtomic(t *testing.T) {
	dir := t.TempDir()
	s := New(dir, slog.New(slog.DiscardHandler))

	require.NoError(t, s.SaveBinary([]byte{1, 2}))
	require.NoError(t, s.SaveBinary([]byte{3, 4}))

	loaded, err := s.LoadBinary()
	require.NoError(t, err)
	assert.Equal(t, []byte{3, 4}, loaded)

	// No temp files left behind after the rename.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.Equal(t, BinaryFile, filepath.Base(e.Name()))
	}
}
