package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/thewebalchemist76/immobiliare3/models"
)

// PostgresStore is the optional durable sink. When configured, every
// discovered listing is mirrored there for downstream consumers; the
// SQLite store stays authoritative for the scraper itself.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = 30 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) Pool() *pgxpool.Pool {
	return s.pool
}

// UpsertListing writes one listing, keyed by the upstream ad id.
func (s *PostgresStore) UpsertListing(ctx context.Context, sl *models.StoredListing) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO listings (id, search_id, title, price, city, province, url, raw,
		                      fingerprint, first_seen_at, last_seen_at, times_seen)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 1)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			price = EXCLUDED.price,
			city = EXCLUDED.city,
			province = EXCLUDED.province,
			raw = EXCLUDED.raw,
			fingerprint = EXCLUDED.fingerprint,
			last_seen_at = EXCLUDED.last_seen_at,
			times_seen = listings.times_seen + 1`,
		sl.ID, sl.SearchID, sl.Title, sl.Price, sl.City, sl.Province, sl.URL,
		sl.Raw, sl.Fingerprint, sl.FirstSeenAt, sl.LastSeenAt)
	return err
}

func (s *PostgresStore) GetListing(ctx context.Context, id int64) (*models.StoredListing, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, search_id, title, price, city, province, url, raw, fingerprint,
		       first_seen_at, last_seen_at, times_seen
		FROM listings WHERE id = $1`, id)

	var sl models.StoredListing
	err := row.Scan(&sl.ID, &sl.SearchID, &sl.Title, &sl.Price, &sl.City, &sl.Province,
		&sl.URL, &sl.Raw, &sl.Fingerprint, &sl.FirstSeenAt, &sl.LastSeenAt, &sl.TimesSeen)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sl, nil
}
