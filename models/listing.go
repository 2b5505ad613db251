package models

import (
	"encoding/json"
	"time"
)

// ListingRecord is the normalized output schema, one per discovered ad.
// Pointer fields stay nil when the upstream item did not carry the value.
type ListingRecord struct {
	ID       int64           `json:"id" db:"id"`
	Title    *string         `json:"title" db:"title"`
	Price    *int64          `json:"price" db:"price"`
	City     *string         `json:"city" db:"city"`
	Province *string         `json:"province" db:"province"`
	URL      string          `json:"url" db:"url"`
	Raw      json.RawMessage `json:"raw" db:"raw"`
}

// StoredListing is a ListingRecord as persisted locally, with the
// bookkeeping columns the stores maintain.
type StoredListing struct {
	ListingRecord
	SearchID    string    `json:"search_id" db:"search_id"`
	Fingerprint string    `json:"fingerprint" db:"fingerprint"`
	FirstSeenAt time.Time `json:"first_seen_at" db:"first_seen_at"`
	LastSeenAt  time.Time `json:"last_seen_at" db:"last_seen_at"`
	TimesSeen   int       `json:"times_seen" db:"times_seen"`
	IsActive    bool      `json:"is_active" db:"is_active"`
	Enriched    bool      `json:"enriched" db:"enriched"`
}

// PageRequest identifies one page fetch. Derived per page, stateless.
type PageRequest struct {
	LocationID int64
	Offset     int
	Filters    FilterSet
}

// Location is a resolved upstream location.
type Location struct {
	ID    int64
	Label string
	Type  string
}

// Location candidate types as tagged by the autocomplete endpoint.
const (
	LocationTypeCity         = "city"
	LocationTypeNeighborhood = "neighborhood"
)
