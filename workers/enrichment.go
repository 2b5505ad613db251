package workers

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/thewebalchemist76/immobiliare3/models"
	"github.com/thewebalchemist76/immobiliare3/scraper"
	"github.com/thewebalchemist76/immobiliare3/storage"
)

// DetailFetcher retrieves the full payload of a single ad.
type DetailFetcher interface {
	FetchDetail(ctx context.Context, id int64) (json.RawMessage, error)
}

// EnrichmentWorker backfills geography for listings the list call left
// incomplete, which is the common case for records discovered through the
// browser path (link extraction yields only id and title).
type EnrichmentWorker struct {
	store     *storage.SQLiteStore
	fetcher   DetailFetcher
	triggerCh chan struct{}
	logFn     LogFunc
}

func NewEnrichmentWorker(store *storage.SQLiteStore, fetcher DetailFetcher) *EnrichmentWorker {
	return &EnrichmentWorker{
		store:     store,
		fetcher:   fetcher,
		triggerCh: make(chan struct{}, 1),
		logFn:     NoOpLogger,
	}
}

func (w *EnrichmentWorker) SetLogger(fn LogFunc) {
	w.logFn = fn
}

// Trigger requests an immediate batch without waiting for the ticker.
func (w *EnrichmentWorker) Trigger() {
	select {
	case w.triggerCh <- struct{}{}:
	default:
	}
}

func (w *EnrichmentWorker) Run(ctx context.Context, batchSize int, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.processBatch(ctx, batchSize)
		case <-w.triggerCh:
			w.processBatch(ctx, batchSize)
		}
	}
}

func (w *EnrichmentWorker) processBatch(ctx context.Context, batchSize int) {
	pending, err := w.store.GetUnenriched(batchSize)
	if err != nil {
		log.Printf("Enrichment: failed to load pending listings: %v", err)
		return
	}
	if len(pending) == 0 {
		return
	}

	log.Printf("Enrichment: processing %d listings", len(pending))

	for _, sl := range pending {
		if ctx.Err() != nil {
			return
		}

		raw, err := w.fetcher.FetchDetail(ctx, sl.ID)
		if err != nil {
			log.Printf("Enrichment: detail fetch for ad %d failed: %v", sl.ID, err)
			w.logFn(models.LogLevelWarn, "enrichment", err.Error())
			continue
		}

		rec := scraper.Normalize(raw)
		if err := w.store.MarkEnriched(sl.ID, rec.City, rec.Province); err != nil {
			log.Printf("Enrichment: update for ad %d failed: %v", sl.ID, err)
			continue
		}

		// Keep per-item pacing gentle; the detail endpoint rate-limits.
		time.Sleep(time.Second)
	}
}
