// Package postgres persists profile records with most-recent-wins upserts.
// It is the sole writer of the profiles table.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"gramscout/internal/model"
)

// Store wraps a connection pool plus the profile queries. Open acquires the
// pool once; Close must run on every exit path (the CLI defers it right
// after Open).
type Store struct {
	pool *pgxpool.Pool
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS profiles (
  username     TEXT PRIMARY KEY,
  followers    BIGINT NOT NULL CHECK (followers >= 0),
  following    BIGINT NOT NULL CHECK (following >= 0),
  posts_count  BIGINT NOT NULL CHECK (posts_count >= 0),
  engagement   NUMERIC NOT NULL DEFAULT 0,
  last_updated TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

const upsertSQL = `
INSERT INTO profiles (username, followers, following, posts_count, engagement, last_updated)
VALUES ($1, $2, $3, $4, $5, CURRENT_TIMESTAMP)
ON CONFLICT (username) DO UPDATE SET
  followers    = EXCLUDED.followers,
  following    = EXCLUDED.following,
  posts_count  = EXCLUDED.posts_count,
  engagement   = EXCLUDED.engagement,
  last_updated = CURRENT_TIMESTAMP`

// Open connects to dsn, verifies the connection, and ensures the schema.
func Open(ctx context.Context, dsn string, maxConns int32) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	s := &Store{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() { s.pool.Close() }

func (s *Store) migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schemaSQL)
	return err
}

// runInTx executes fn inside a transaction; a failed fn rolls back and no
// partial write is visible.
func (s *Store) runInTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// UpsertOne inserts or updates a single record keyed by username in its own
// transaction. The input is normalized onto a copy first (engagement
// default 0); rec itself is never mutated. On success the persisted
// username, followers, and engagement are returned for observability.
func (s *Store) UpsertOne(ctx context.Context, rec model.ProfileRecord) (model.PersistedSummary, error) {
	var sum model.PersistedSummary
	norm, err := model.Normalize(rec)
	if err != nil {
		return sum, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	err = s.runInTx(ctx, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, upsertSQL+" RETURNING username, followers, engagement",
			norm.Username, norm.Followers, norm.Following, norm.PostsCount, norm.Engagement)
		return row.Scan(&sum.Username, &sum.Followers, &sum.Engagement)
	})
	if err != nil {
		return model.PersistedSummary{}, wrapPersistence("upsert @"+norm.Username, err)
	}
	return sum, nil
}

// UpsertBatch applies the upsert to every record inside one transaction:
// either all of them commit or none do. Records are normalized onto copies
// before any SQL runs, so a malformed row fails the batch without touching
// the store. When a username repeats within the batch, the last occurrence
// in iteration order wins. Returns the number of rows written.
func (s *Store) UpsertBatch(ctx context.Context, recs []model.ProfileRecord) (int, error) {
	if len(recs) == 0 {
		return 0, nil
	}
	normed := make([]model.ProfileRecord, len(recs))
	for i, rec := range recs {
		norm, err := model.Normalize(rec)
		if err != nil {
			return 0, fmt.Errorf("%w: record %d: %v", ErrMalformedRecord, i, err)
		}
		normed[i] = norm
	}
	err := s.runInTx(ctx, func(tx pgx.Tx) error {
		b := &pgx.Batch{}
		for _, rec := range normed {
			b.Queue(upsertSQL, rec.Username, rec.Followers, rec.Following, rec.PostsCount, rec.Engagement)
		}
		br := tx.SendBatch(ctx, b)
		for range normed {
			if _, err := br.Exec(); err != nil {
				_ = br.Close()
				return err
			}
		}
		return br.Close()
	})
	if err != nil {
		return 0, wrapPersistence(fmt.Sprintf("batch upsert of %d records", len(normed)), err)
	}
	return len(normed), nil
}

// ListAll returns every record sorted by followers descending. Pure read.
func (s *Store) ListAll(ctx context.Context) ([]model.ProfileRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT username, followers, following, posts_count, engagement, last_updated
		 FROM profiles ORDER BY followers DESC`)
	if err != nil {
		return nil, wrapPersistence("list profiles", err)
	}
	defer rows.Close()
	var out []model.ProfileRecord
	for rows.Next() {
		var r model.ProfileRecord
		if err := rows.Scan(&r.Username, &r.Followers, &r.Following, &r.PostsCount, &r.Engagement, &r.LastUpdated); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Get looks up one record by exact username. Absence is (zero, false, nil),
// never an error.
func (s *Store) Get(ctx context.Context, username string) (model.ProfileRecord, bool, error) {
	var r model.ProfileRecord
	err := s.pool.QueryRow(ctx,
		`SELECT username, followers, following, posts_count, engagement, last_updated
		 FROM profiles WHERE username = $1`, username).
		Scan(&r.Username, &r.Followers, &r.Following, &r.PostsCount, &r.Engagement, &r.LastUpdated)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.ProfileRecord{}, false, nil
	}
	if err != nil {
		return model.ProfileRecord{}, false, wrapPersistence("get @"+username, err)
	}
	return r, true, nil
}
