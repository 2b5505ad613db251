package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/thewebalchemist76/immobiliare3/config"
	"github.com/thewebalchemist76/immobiliare3/httputil"
	"github.com/thewebalchemist76/immobiliare3/logging"
	"github.com/thewebalchemist76/immobiliare3/models"
	"github.com/thewebalchemist76/immobiliare3/scheduler"
	"github.com/thewebalchemist76/immobiliare3/scraper"
	"github.com/thewebalchemist76/immobiliare3/services"
	"github.com/thewebalchemist76/immobiliare3/storage"
	"github.com/thewebalchemist76/immobiliare3/workers"
)

var (
	scrapeNow = flag.Bool("scrape", false, "Run all configured searches once and exit")
	searchID  = flag.String("search", "", "Run a single configured search once and exit")
	inputPath = flag.String("input", "", "Run a one-shot search from a task-runner input JSON file and exit")
)

func main() {
	flag.Parse()
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	logFile, err := logging.Setup("scraper.log")
	if err != nil {
		log.Printf("Warning: could not set up file logging: %v", err)
	} else {
		defer logFile.Close()
	}

	log.Println("Starting immobiliare scraper...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	log.Printf("Loaded %d search configs", len(cfg.Searches))
	for id, search := range cfg.Searches {
		log.Printf("  - %s (%s, %s path)", search.Name, id, search.Handler)
	}

	ctx := context.Background()

	store, err := storage.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open SQLite: %v", err)
	}
	defer store.Close()
	log.Printf("SQLite database: %s", cfg.DBPath)

	var pgStore *storage.PostgresStore
	if cfg.Postgres.DBURL != "" {
		pgStore, err = storage.NewPostgresStore(ctx, cfg.Postgres.DBURL)
		if err != nil {
			log.Fatalf("Failed to connect to Postgres: %v", err)
		}
		defer pgStore.Close()
		log.Println("Postgres sink connected")
	}

	listingService := services.NewListingService(store, pgStore)
	orchestrator := scraper.NewOrchestrator(cfg, store, listingService)

	// One-shot modes
	if *inputPath != "" {
		search, err := config.LoadInput(*inputPath)
		if err != nil {
			log.Fatalf("Failed to load input: %v", err)
		}
		if err := orchestrator.RunConfigured(ctx, search); err != nil {
			log.Fatalf("Scrape failed: %v", err)
		}
		log.Println("Scrape complete!")
		return
	}

	if *searchID != "" {
		if err := orchestrator.RunSearch(ctx, *searchID); err != nil {
			log.Fatalf("Scrape failed: %v", err)
		}
		log.Println("Scrape complete!")
		return
	}

	if *scrapeNow {
		log.Println("Running all searches...")
		if err := orchestrator.RunAll(ctx); err != nil {
			log.Fatalf("Scrape failed: %v", err)
		}
		log.Println("Scrape complete!")
		return
	}

	// Daemon mode
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	detailCfg := &config.SearchConfig{ID: "enrichment"}
	detailCfg.ApplyDefaults()
	detailAPI := scraper.NewAPIHandler(detailCfg, httputil.NewScrapingClient("", cfg.Scraper.RequestTimeout))

	enrichmentWorker := workers.NewEnrichmentWorker(store, detailAPI)
	enrichmentWorker.SetLogger(func(level models.LogLevel, source, message string) {
		store.Log(nil, level, message, source)
	})
	go enrichmentWorker.Run(ctx, 10, 5*time.Minute)
	log.Println("Enrichment worker started")

	sched := scheduler.New(cfg, orchestrator)
	sched.SetEnrichmentWorker(enrichmentWorker)
	if err := sched.Start(ctx); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	log.Println("Daemon running. Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("Shutting down...")
	sched.Stop()
	log.Println("Goodbye!")
}
