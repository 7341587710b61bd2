// Package postgres implements the store interfaces using PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"finsweep/internal/store"
)

// DefaultStaleClaimAfter is how long a processing claim is honored before a
// later sweep may take it over. Recovery from a crashed run happens through
// this expiry plus the occurrence dedup key, not through manual repair.
const DefaultStaleClaimAfter = 10 * time.Minute

// DefaultQueryTimeout bounds individual storage operations so one slow
// statement surfaces as a per-rule failure instead of hanging the sweep.
const DefaultQueryTimeout = 30 * time.Second

// Store provides PostgreSQL-backed implementations of all repositories.
type Store struct {
	db *sql.DB

	staleClaimAfter time.Duration
	queryTimeout    time.Duration
}

// Option configures a Store.
type Option func(*Store)

// WithStaleClaimAfter overrides the stale-claim takeover threshold.
func WithStaleClaimAfter(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.staleClaimAfter = d
		}
	}
}

// WithQueryTimeout overrides the per-statement timeout.
func WithQueryTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.queryTimeout = d
		}
	}
}

// New creates a new PostgreSQL store and verifies connectivity.
func New(ctx context.Context, databaseURL string, opts ...Option) (*Store, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{
		db:              db,
		staleClaimAfter: DefaultStaleClaimAfter,
		queryTimeout:    DefaultQueryTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}

	pingCtx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return s, nil
}

// DB exposes the underlying pool for migrations.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Ping checks database connectivity for readiness probes.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// BeginTx starts a database transaction.
func (s *Store) BeginTx(ctx context.Context) (store.Tx, error) {
	return s.db.BeginTx(ctx, nil)
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) getExecutor(tx store.DBTransaction) store.DBTransaction {
	if tx != nil {
		return tx
	}
	return s.db
}

// opContext derives a bounded context for a single storage operation.
func (s *Store) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.queryTimeout)
}
