package scraper

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/thewebalchemist76/immobiliare3/config"
	"github.com/thewebalchemist76/immobiliare3/httputil"
	"github.com/thewebalchemist76/immobiliare3/models"
	"github.com/thewebalchemist76/immobiliare3/proxy"
	"github.com/thewebalchemist76/immobiliare3/services"
	"github.com/thewebalchemist76/immobiliare3/storage"
)

// Orchestrator runs every configured search end to end: one paginator
// session per search, each record handed to the listing service as soon as
// it is normalized. Partial results stand; a failed run keeps whatever was
// emitted before the fatal error.
type Orchestrator struct {
	cfg      *config.Config
	store    *storage.SQLiteStore
	listings *services.ListingService
	proxies  *proxy.Pool
}

func NewOrchestrator(cfg *config.Config, store *storage.SQLiteStore, listings *services.ListingService) *Orchestrator {
	return &Orchestrator{
		cfg:      cfg,
		store:    store,
		listings: listings,
		proxies:  proxy.NewPool(cfg.Proxy.URLs),
	}
}

func (o *Orchestrator) RunAll(ctx context.Context) error {
	for id := range o.cfg.Searches {
		if err := o.RunSearch(ctx, id); err != nil {
			log.Printf("Error running search %s: %v", id, err)
		}
	}
	return nil
}

func (o *Orchestrator) RunSearch(ctx context.Context, searchID string) error {
	searchCfg, ok := o.cfg.Searches[searchID]
	if !ok {
		return fmt.Errorf("unknown search: %s", searchID)
	}
	return o.RunConfigured(ctx, searchCfg)
}

// RunConfigured executes one session for a search config, whether it came
// from the searches directory or a one-shot task-runner input.
func (o *Orchestrator) RunConfigured(ctx context.Context, searchCfg *config.SearchConfig) error {
	run := &models.ScrapeRun{
		SearchID:  searchCfg.ID,
		StartedAt: time.Now(),
		Status:    models.RunStatusRunning,
	}
	runID, err := o.store.CreateRun(run)
	if err != nil {
		return err
	}
	run.ID = runID

	o.log(run.ID, models.LogLevelInfo, fmt.Sprintf("Starting scrape for %s", searchCfg.Name), searchCfg.ID)

	// Each session owns its own client and handlers: nothing is shared
	// across concurrent sessions.
	client := httputil.NewScrapingClient("", o.cfg.Scraper.RequestTimeout)
	api := NewAPIHandler(searchCfg, client)
	fetcher := NewFetcher(searchCfg, client, o.proxies)
	if bh, ok := fetcher.(*BrowserHandler); ok {
		defer bh.Close()
	}

	paginator := NewPaginator(NewResolver(api), fetcher, RetryPolicyFor(searchCfg, fetcher))

	stats := &services.ProcessStats{}
	summary, runErr := paginator.Run(ctx, searchCfg.Filters, searchCfg.MaxPages, func(rec models.ListingRecord) error {
		result, perr := o.listings.ProcessListing(ctx, rec, searchCfg.ID, &run.ID)
		if perr != nil {
			o.log(run.ID, models.LogLevelError, fmt.Sprintf("Process error for ad %d: %v", rec.ID, perr), searchCfg.ID)
			run.ErrorsCount++
			stats.Errors++
			return nil // one bad record does not end the session
		}
		stats.Aggregate(result)
		return nil
	})

	now := time.Now()
	run.FinishedAt = &now
	run.PagesFetched = summary.Pages
	run.ListingsFound = summary.Emitted
	run.ListingsNew = stats.ListingsNew
	run.PriceChanges = stats.PriceChanges

	if runErr != nil {
		run.Status = models.RunStatusFailed
		run.LastError = runErr.Error()
		run.ErrorsCount++
		o.log(run.ID, models.LogLevelError, fmt.Sprintf("Scrape failed after %d pages: %v", summary.Pages, runErr), searchCfg.ID)
	} else {
		run.Status = models.RunStatusCompleted
		o.log(run.ID, models.LogLevelInfo,
			fmt.Sprintf("Completed: %d pages, %d found, %d new, %d price changes",
				summary.Pages, summary.Emitted, stats.ListingsNew, stats.PriceChanges), searchCfg.ID)
	}

	if err := o.store.UpdateRun(run); err != nil {
		log.Printf("Error updating run %d: %v", run.ID, err)
	}
	if err := o.store.UpdateSearchStats(searchCfg.ID); err != nil {
		log.Printf("Error updating stats for %s: %v", searchCfg.ID, err)
	}

	return runErr
}

func (o *Orchestrator) SearchIDs() []string {
	var ids []string
	for id := range o.cfg.Searches {
		ids = append(ids, id)
	}
	return ids
}

func (o *Orchestrator) log(runID int64, level models.LogLevel, message, searchID string) {
	log.Printf("[%s] %s: %s", level, searchID, message)
	o.store.Log(&runID, level, message, searchID)
}
