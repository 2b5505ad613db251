package models

import "time"

type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

type ScrapeRun struct {
	ID            int64      `json:"id" db:"id"`
	SearchID      string     `json:"search_id" db:"search_id"`
	StartedAt     time.Time  `json:"started_at" db:"started_at"`
	FinishedAt    *time.Time `json:"finished_at" db:"finished_at"`
	Status        RunStatus  `json:"status" db:"status"`
	PagesFetched  int        `json:"pages_fetched" db:"pages_fetched"`
	ListingsFound int        `json:"listings_found" db:"listings_found"`
	ListingsNew   int        `json:"listings_new" db:"listings_new"`
	PriceChanges  int        `json:"price_changes" db:"price_changes"`
	ErrorsCount   int        `json:"errors_count" db:"errors_count"`
	LastError     string     `json:"last_error" db:"last_error"`
}

type SearchStats struct {
	SearchID      string     `json:"search_id" db:"search_id"`
	LastRunAt     *time.Time `json:"last_run_at" db:"last_run_at"`
	LastRunStatus string     `json:"last_run_status" db:"last_run_status"`
	TotalListings int        `json:"total_listings" db:"total_listings"`
	TotalRuns     int        `json:"total_runs" db:"total_runs"`
}
