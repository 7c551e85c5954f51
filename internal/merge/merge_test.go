package merge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/quake-globe-data/internal/domain"
)

func fl(v float64) *float64 { return &v }

func feature(id string, lon, lat float64, mag, timeMs float64) domain.Feature {
	return domain.Feature{
		ID: id,
		Geometry: domain.Geometry{
			Type:        "Point",
			Coordinates: []*float64{fl(lon), fl(lat), fl(10)},
		},
		Properties: domain.Properties{
			Mag:   fl(mag),
			Time:  fl(timeMs),
			Place: "somewhere",
		},
	}
}

func ids(features []domain.Feature) []string {
	out := make([]string, len(features))
	for i, f := range features {
		out[i] = f.ID
	}
	return out
}

func TestMerge(t *testing.T) {
	t.Run("new recent events are appended", func(t *testing.T) {
		historic := []domain.Feature{feature("us001", 10, 20, 6.0, 1000)}
		recent := []domain.Feature{
			feature("us002", 11, 21, 4.0, 3000),
			feature("us003", 12, 22, 5.0, 2000),
		}

		merged, result := Merge(historic, recent)

		assert.Equal(t, 2, result.Added)
		assert.Equal(t, 0, result.Skipped)
		assert.Equal(t, 3, result.Total)
		assert.Len(t, merged, 3)
	})

	t.Run("historical record wins on duplicate id", func(t *testing.T) {
		historic := []domain.Feature{feature("us001", 10, 20, 6.0, 1000)}
		// Same ID with revised magnitude; the feed copy must be skipped.
		revised := feature("us001", 10, 20, 6.3, 1000)
		recent := []domain.Feature{revised}

		merged, result := Merge(historic, recent)

		require.Len(t, merged, 1)
		assert.Equal(t, 6.0, *merged[0].Properties.Mag)
		assert.Equal(t, 0, result.Added)
		assert.Equal(t, 1, result.Skipped)
		assert.Equal(t, 1, result.Total)
	})

	t.Run("repeat merge is idempotent", func(t *testing.T) {
		historic := []domain.Feature{feature("us001", 10, 20, 6.0, 1000)}
		recent := []domain.Feature{feature("us002", 11, 21, 4.0, 2000)}

		merged, first := Merge(historic, recent)
		assert.Equal(t, 1, first.Added)

		again, second := Merge(merged, recent)
		assert.Equal(t, 0, second.Added)
		assert.Equal(t, 1, second.Skipped)
		assert.Equal(t, first.Total, second.Total)
		assert.Equal(t, ids(merged), ids(again))
	})

	t.Run("admission threshold is inclusive", func(t *testing.T) {
		recent := []domain.Feature{
			feature("weak", 10, 20, 2.4, 1000),
			feature("edge", 10, 20, 2.5, 2000),
		}

		merged, result := Merge(nil, recent)

		assert.Equal(t, []string{"edge"}, ids(merged))
		assert.Equal(t, 1, result.Added)
		// Inadmissible records are neither added nor counted as skipped.
		assert.Equal(t, 0, result.Skipped)
	})

	t.Run("output sorted ascending by time", func(t *testing.T) {
		historic := []domain.Feature{
			feature("late", 10, 20, 6.0, 5000),
			feature("early", 10, 20, 6.0, 1000),
		}
		recent := []domain.Feature{feature("mid", 11, 21, 4.0, 3000)}

		merged, _ := Merge(historic, recent)

		assert.Equal(t, []string{"early", "mid", "late"}, ids(merged))
	})

	t.Run("records without id are dropped", func(t *testing.T) {
		historic := []domain.Feature{feature("", 10, 20, 6.0, 1000)}
		recent := []domain.Feature{feature("", 11, 21, 4.0, 2000)}

		merged, result := Merge(historic, recent)

		assert.Empty(t, merged)
		assert.Equal(t, 0, result.Added)
		assert.Equal(t, 0, result.Total)
	})

	t.Run("duplicate historical ids collapse to first", func(t *testing.T) {
		historic := []domain.Feature{
			feature("us001", 10, 20, 6.0, 1000),
			feature("us001", 10, 20, 7.0, 2000),
		}

		merged, result := Merge(historic, nil)

		require.Len(t, merged, 1)
		assert.Equal(t, 6.0, *merged[0].Properties.Mag)
		assert.Equal(t, 1, result.Total)
	})

	t.Run("empty recent set is a no-op", func(t *testing.T) {
		historic := []domain.Feature{
			feature("b", 10, 20, 6.0, 2000),
			feature("a", 10, 20, 6.0, 1000),
		}

		merged, result := Merge(historic, nil)

		assert.Equal(t, 0, result.Added)
		assert.Equal(t, 2, result.Total)
		// Still re-sorted even when nothing was added.
		assert.Equal(t, []string{"a", "b"}, ids(merged))
	})

	t.Run("added features ride along for publishing", func(t *testing.T) {
		recent := []domain.Feature{
			feature("new", 10, 20, 4.0, 1000),
			feature("weak", 10, 20, 1.0, 2000),
		}

		_, result := Merge(nil, recent)

		require.Len(t, result.AddedFeatures, 1)
		assert.Equal(t, "new", result.AddedFeatures[0].ID)
	})
}
