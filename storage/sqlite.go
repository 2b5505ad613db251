package storage

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/thewebalchemist76/immobiliare3/models"
)

// SQLiteStore is the local operational store: discovered listings, scrape
// runs, and their log rows.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS listings (
		id INTEGER PRIMARY KEY,
		search_id TEXT NOT NULL,
		title TEXT,
		price INTEGER,
		city TEXT,
		province TEXT,
		url TEXT,
		raw JSON,
		fingerprint TEXT,
		first_seen_at DATETIME,
		last_seen_at DATETIME,
		times_seen INTEGER DEFAULT 1,
		is_active BOOLEAN DEFAULT TRUE,
		enriched BOOLEAN DEFAULT FALSE
	);

	CREATE TABLE IF NOT EXISTS scrape_runs (
		id INTEGER PRIMARY KEY,
		search_id TEXT,
		started_at DATETIME,
		finished_at DATETIME,
		status TEXT,
		pages_fetched INTEGER,
		listings_found INTEGER,
		listings_new INTEGER,
		price_changes INTEGER,
		errors_count INTEGER,
		last_error TEXT
	);

	CREATE TABLE IF NOT EXISTS scrape_logs (
		id INTEGER PRIMARY KEY,
		run_id INTEGER,
		timestamp DATETIME,
		level TEXT,
		message TEXT,
		search_id TEXT
	);

	CREATE TABLE IF NOT EXISTS search_stats (
		search_id TEXT PRIMARY KEY,
		last_run_at DATETIME,
		last_run_status TEXT,
		total_listings INTEGER,
		total_runs INTEGER
	);

	CREATE INDEX IF NOT EXISTS idx_listings_search ON listings(search_id);
	CREATE INDEX IF NOT EXISTS idx_logs_run ON scrape_logs(run_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) GetListing(id int64) (*models.StoredListing, error) {
	row := s.db.QueryRow(`
		SELECT id, search_id, title, price, city, province, url, raw, fingerprint,
		       first_seen_at, last_seen_at, times_seen, is_active, enriched
		FROM listings WHERE id = ?`, id)

	sl, err := scanListing(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return sl, nil
}

func (s *SQLiteStore) InsertListing(sl *models.StoredListing) error {
	_, err := s.db.Exec(`
		INSERT INTO listings (id, search_id, title, price, city, province, url, raw,
		                      fingerprint, first_seen_at, last_seen_at, times_seen, is_active, enriched)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, TRUE, ?)`,
		sl.ID, sl.SearchID, sl.Title, sl.Price, sl.City, sl.Province, sl.URL, string(sl.Raw),
		sl.Fingerprint, sl.FirstSeenAt, sl.LastSeenAt, sl.TimesSeen, sl.Enriched)
	return err
}

// UpdateListing refreshes the mutable columns of a listing seen again.
func (s *SQLiteStore) UpdateListing(sl *models.StoredListing) error {
	_, err := s.db.Exec(`
		UPDATE listings
		SET title = ?, price = ?, city = ?, province = ?, raw = ?, fingerprint = ?,
		    last_seen_at = ?, times_seen = times_seen + 1, is_active = TRUE
		WHERE id = ?`,
		sl.Title, sl.Price, sl.City, sl.Province, string(sl.Raw), sl.Fingerprint,
		sl.LastSeenAt, sl.ID)
	return err
}

// GetUnenriched returns listings still missing geography, oldest first.
func (s *SQLiteStore) GetUnenriched(limit int) ([]models.StoredListing, error) {
	rows, err := s.db.Query(`
		SELECT id, search_id, title, price, city, province, url, raw, fingerprint,
		       first_seen_at, last_seen_at, times_seen, is_active, enriched
		FROM listings
		WHERE enriched = FALSE AND city IS NULL
		ORDER BY first_seen_at ASC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.StoredListing
	for rows.Next() {
		sl, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *sl)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) MarkEnriched(id int64, city, province *string) error {
	_, err := s.db.Exec(`
		UPDATE listings SET city = COALESCE(?, city), province = COALESCE(?, province), enriched = TRUE
		WHERE id = ?`, city, province, id)
	return err
}

func (s *SQLiteStore) GetListingCount(searchID string) (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM listings WHERE search_id = ?`, searchID).Scan(&count)
	return count, err
}

func (s *SQLiteStore) CreateRun(run *models.ScrapeRun) (int64, error) {
	res, err := s.db.Exec(`
		INSERT INTO scrape_runs (search_id, started_at, status, pages_fetched, listings_found,
		                         listings_new, price_changes, errors_count, last_error)
		VALUES (?, ?, ?, 0, 0, 0, 0, 0, '')`,
		run.SearchID, run.StartedAt, run.Status)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *SQLiteStore) UpdateRun(run *models.ScrapeRun) error {
	_, err := s.db.Exec(`
		UPDATE scrape_runs
		SET finished_at = ?, status = ?, pages_fetched = ?, listings_found = ?,
		    listings_new = ?, price_changes = ?, errors_count = ?, last_error = ?
		WHERE id = ?`,
		run.FinishedAt, run.Status, run.PagesFetched, run.ListingsFound,
		run.ListingsNew, run.PriceChanges, run.ErrorsCount, run.LastError, run.ID)
	return err
}

func (s *SQLiteStore) Log(runID *int64, level models.LogLevel, message, searchID string) error {
	_, err := s.db.Exec(`
		INSERT INTO scrape_logs (run_id, timestamp, level, message, search_id)
		VALUES (?, ?, ?, ?, ?)`,
		runID, time.Now(), level, message, searchID)
	return err
}

func (s *SQLiteStore) UpdateSearchStats(searchID string) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO search_stats (search_id, last_run_at, last_run_status, total_listings, total_runs)
		SELECT
			?,
			(SELECT started_at FROM scrape_runs WHERE search_id = ? ORDER BY id DESC LIMIT 1),
			(SELECT status FROM scrape_runs WHERE search_id = ? ORDER BY id DESC LIMIT 1),
			(SELECT COUNT(*) FROM listings WHERE search_id = ?),
			(SELECT COUNT(*) FROM scrape_runs WHERE search_id = ?)`,
		searchID, searchID, searchID, searchID, searchID)
	return err
}

func (s *SQLiteStore) GetLastRunTime(searchID string) (time.Time, error) {
	var t sql.NullTime
	err := s.db.QueryRow(`
		SELECT started_at FROM scrape_runs WHERE search_id = ? ORDER BY id DESC LIMIT 1`,
		searchID).Scan(&t)
	if err == sql.ErrNoRows || !t.Valid {
		return time.Time{}, nil
	}
	return t.Time, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanListing(row rowScanner) (*models.StoredListing, error) {
	var sl models.StoredListing
	var title, city, province, raw, fingerprint sql.NullString
	var price sql.NullInt64
	var firstSeen, lastSeen sql.NullTime

	err := row.Scan(&sl.ID, &sl.SearchID, &title, &price, &city, &province, &sl.URL,
		&raw, &fingerprint, &firstSeen, &lastSeen, &sl.TimesSeen, &sl.IsActive, &sl.Enriched)
	if err != nil {
		return nil, err
	}

	if title.Valid {
		sl.Title = &title.String
	}
	if price.Valid {
		sl.Price = &price.Int64
	}
	if city.Valid {
		sl.City = &city.String
	}
	if province.Valid {
		sl.Province = &province.String
	}
	if raw.Valid {
		sl.Raw = []byte(raw.String)
	}
	if fingerprint.Valid {
		sl.Fingerprint = fingerprint.String
	}
	if firstSeen.Valid {
		sl.FirstSeenAt = firstSeen.Time
	}
	if lastSeen.Valid {
		sl.LastSeenAt = lastSeen.Time
	}

	return &sl, nil
}
