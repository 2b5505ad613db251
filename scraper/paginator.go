package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/thewebalchemist76/immobiliare3/models"
)

// PageFetcher returns the raw items of one result page. Implemented by
// both the direct API path and the browser path.
type PageFetcher interface {
	FetchPage(ctx context.Context, req models.PageRequest) ([]json.RawMessage, error)
}

// LocationResolver is the one-shot location lookup performed before the
// first page fetch.
type LocationResolver interface {
	Resolve(ctx context.Context, filters models.FilterSet) (models.Location, error)
}

// EmitFunc receives each normalized record as soon as its page is parsed.
type EmitFunc func(rec models.ListingRecord) error

// RunSummary reports what a pagination run did before it stopped.
type RunSummary struct {
	Location models.Location
	Pages    int
	Emitted  int
}

// Paginator drives a scrape session: resolve the location once, then fetch
// sequential fixed-size pages until an empty page or the page cap, feeding
// each item through the normalizer and out via emit. Not restartable: every
// Run re-resolves and starts at offset 0.
type Paginator struct {
	resolver LocationResolver
	fetcher  PageFetcher
	retry    RetryPolicy
	pageSize int
}

func NewPaginator(resolver LocationResolver, fetcher PageFetcher, retry RetryPolicy) *Paginator {
	return &Paginator{
		resolver: resolver,
		fetcher:  fetcher,
		retry:    retry,
		pageSize: pageSize,
	}
}

// Run executes one session. Resolve failures abort without retry: they are
// configuration errors, not transient ones. Page fetch failures follow the
// session's RetryPolicy and otherwise terminate the whole run; records
// already emitted stand.
func (p *Paginator) Run(ctx context.Context, filters models.FilterSet, maxPages int, emit EmitFunc) (RunSummary, error) {
	summary := RunSummary{}

	loc, err := p.resolver.Resolve(ctx, filters)
	if err != nil {
		return summary, err
	}
	summary.Location = loc

	// An id seen once in this session is never emitted again, even if the
	// upstream repeats it across pages.
	seen := make(map[int64]bool)

	for page := 0; maxPages <= 0 || page < maxPages; page++ {
		req := models.PageRequest{
			LocationID: loc.ID,
			Offset:     page * p.pageSize,
			Filters:    filters,
		}

		var items []json.RawMessage
		err := p.retry.Do(ctx, fmt.Sprintf("page %d", page+1), func() error {
			var ferr error
			items, ferr = p.fetcher.FetchPage(ctx, req)
			return ferr
		})
		if err != nil {
			return summary, err
		}

		summary.Pages++
		log.Printf("Page %d: %d items (offset %d)", page+1, len(items), req.Offset)

		if len(items) == 0 {
			break
		}

		for _, raw := range items {
			rec := Normalize(raw)
			if rec.ID != 0 {
				if seen[rec.ID] {
					continue
				}
				seen[rec.ID] = true
			}
			if err := emit(rec); err != nil {
				return summary, err
			}
			summary.Emitted++
		}
	}

	return summary, nil
}
