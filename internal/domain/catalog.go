package domain

import (
	"fmt"

	json "github.com/goccy/go-json"
)

// DecodeCatalog parses a GeoJSON-like feature collection from untrusted
// bytes. Features are decoded individually so one malformed record drops
// only itself, not the whole document; the number of undecodable features
// is returned alongside the catalog. A document without a features array is
// an error — there is nothing to proceed with.
func DecodeCatalog(data []byte) (Catalog, int, error) {
	var raw struct {
		Type     string            `json:"type"`
		Features []json.RawMessage `json:"features"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Catalog{}, 0, fmt.Errorf("decode catalog: %w", err)
	}

	catalog := Catalog{
		Type:     raw.Type,
		Features: make([]Feature, 0, len(raw.Features)),
	}

	dropped := 0
	for _, rf := range raw.Features {
		var f Feature
		if err := json.Unmarshal(rf, &f); err != nil {
			dropped++
			continue
		}
		catalog.Features = append(catalog.Features, f)
	}

	return catalog, dropped, nil
}
