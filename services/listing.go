package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/thewebalchemist76/immobiliare3/identity"
	"github.com/thewebalchemist76/immobiliare3/models"
	"github.com/thewebalchemist76/immobiliare3/storage"
)

// ListingService persists each emitted record: first-seen detection,
// content-change detection via fingerprint, and mirroring to the optional
// Postgres sink. Idempotent per record.
type ListingService struct {
	store *storage.SQLiteStore
	pg    *storage.PostgresStore
}

func NewListingService(store *storage.SQLiteStore, pg *storage.PostgresStore) *ListingService {
	return &ListingService{store: store, pg: pg}
}

// ProcessResult contains the outcome of processing one listing.
type ProcessResult struct {
	IsNew        bool
	PriceChanged bool
	Updated      bool
}

// ProcessStats aggregates results across a run.
type ProcessStats struct {
	ListingsProcessed int
	ListingsNew       int
	PriceChanges      int
	Errors            int
}

func (s *ProcessStats) Aggregate(r *ProcessResult) {
	s.ListingsProcessed++
	if r.IsNew {
		s.ListingsNew++
	}
	if r.PriceChanged {
		s.PriceChanges++
	}
}

func (s *ProcessStats) ToJSON() json.RawMessage {
	data, _ := json.Marshal(s)
	return data
}

func (s *ListingService) ProcessListing(ctx context.Context, rec models.ListingRecord, searchID string, runID *int64) (*ProcessResult, error) {
	result := &ProcessResult{}
	now := time.Now()

	fingerprint := identity.Fingerprint(rec)
	stored := &models.StoredListing{
		ListingRecord: rec,
		SearchID:      searchID,
		Fingerprint:   fingerprint,
		FirstSeenAt:   now,
		LastSeenAt:    now,
		TimesSeen:     1,
		IsActive:      true,
		Enriched:      rec.City != nil,
	}

	existing, err := s.store.GetListing(rec.ID)
	if err != nil {
		return nil, fmt.Errorf("get listing %d: %w", rec.ID, err)
	}

	if existing == nil {
		if err := s.store.InsertListing(stored); err != nil {
			return nil, fmt.Errorf("insert listing %d: %w", rec.ID, err)
		}
		result.IsNew = true
	} else {
		stored.FirstSeenAt = existing.FirstSeenAt
		if existing.Fingerprint != fingerprint {
			result.Updated = true
			result.PriceChanged = priceChanged(existing.Price, rec.Price)
		}
		if err := s.store.UpdateListing(stored); err != nil {
			return nil, fmt.Errorf("update listing %d: %w", rec.ID, err)
		}
	}

	if s.pg != nil {
		if err := s.pg.UpsertListing(ctx, stored); err != nil {
			// The local store already has the record; the mirror can catch
			// up on the next run.
			log.Printf("Postgres mirror failed for ad %d: %v", rec.ID, err)
		}
	}

	return result, nil
}

func priceChanged(old, new *int64) bool {
	switch {
	case old == nil && new == nil:
		return false
	case old == nil || new == nil:
		return true
	default:
		return *old != *new
	}
}
