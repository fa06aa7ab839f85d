package database

import (
	"encoding/json"
	"fmt"
	"io"
)

// CatalogEntry is one row of the external event catalog. The feed is
// a JSON array of 4-element arrays: [name, date, price, seats], with
// the date given as a unix timestamp.
type CatalogEntry struct {
	Name           string
	Date           float64
	Price          float64
	SeatsAvailable int64
}

// UnmarshalJSON decodes the positional tuple form used by the
// catalog feed.
func (e *CatalogEntry) UnmarshalJSON(data []byte) error {
	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return err
	}
	if len(parts) != 4 {
		return fmt.Errorf("catalog entry has %d fields, want 4", len(parts))
	}
	if err := json.Unmarshal(parts[0], &e.Name); err != nil {
		return fmt.Errorf("catalog entry name: %w", err)
	}
	if err := json.Unmarshal(parts[1], &e.Date); err != nil {
		return fmt.Errorf("catalog entry date: %w", err)
	}
	if err := json.Unmarshal(parts[2], &e.Price); err != nil {
		return fmt.Errorf("catalog entry price: %w", err)
	}
	if err := json.Unmarshal(parts[3], &e.SeatsAvailable); err != nil {
		return fmt.Errorf("catalog entry seats: %w", err)
	}
	return nil
}

// DecodeCatalog reads the full catalog feed from r.
func DecodeCatalog(r io.Reader) ([]CatalogEntry, error) {
	var entries []CatalogEntry
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return entries, nil
}
