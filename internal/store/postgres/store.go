// Package postgres provides the PostgreSQL implementation of the store
// interfaces.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/scribehub/scribe-server/internal/store"
)

// Config holds PostgreSQL connection configuration.
type Config struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig(dsn string) *Config {
	return &Config{
		DSN:             dsn,
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
		ConnMaxIdleTime: 1 * time.Minute,
	}
}

// PostgresStore implements the Store interface using PostgreSQL.
type PostgresStore struct {
	db     *sql.DB
	logger *slog.Logger

	documents     *DocumentStore
	invitations   *InvitationStore
	versions      *VersionStore
	contributions *ContributionStore
}

// NewPostgresStore creates a new PostgreSQL store with the given
// configuration, verifies connectivity and applies migrations.
func NewPostgresStore(cfg *Config, logger *slog.Logger) (*PostgresStore, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("pgx", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	if err := migrate(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating schema: %w", err)
	}

	s := &PostgresStore{
		db:     db,
		logger: logger,
	}
	s.documents = &DocumentStore{db: db, logger: logger}
	s.invitations = &InvitationStore{db: db, logger: logger}
	s.versions = &VersionStore{db: db, logger: logger}
	s.contributions = &ContributionStore{db: db, logger: logger}

	logger.Info("connected to PostgreSQL database")
	return s, nil
}

// NewWithDB wraps an existing database handle without running migrations.
// Used by tests that stub the connection.
func NewWithDB(db *sql.DB, logger *slog.Logger) *PostgresStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresStore{
		db:            db,
		logger:        logger,
		documents:     &DocumentStore{db: db, logger: logger},
		invitations:   &InvitationStore{db: db, logger: logger},
		versions:      &VersionStore{db: db, logger: logger},
		contributions: &ContributionStore{db: db, logger: logger},
	}
}

// Documents returns the DocumentStore.
func (s *PostgresStore) Documents() store.DocumentStore {
	return s.documents
}

// Invitations returns the InvitationStore.
func (s *PostgresStore) Invitations() store.InvitationStore {
	return s.invitations
}

// Versions returns the VersionStore.
func (s *PostgresStore) Versions() store.VersionStore {
	return s.versions
}

// Contributions returns the ContributionStore.
func (s *PostgresStore) Contributions() store.ContributionStore {
	return s.contributions
}

// WithTx executes the given function within a database transaction.
func (s *PostgresStore) WithTx(ctx context.Context, fn func(store.Store) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	txs := &txStore{tx: tx, logger: s.logger}

	if err := fn(txs); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Error("failed to rollback transaction", "error", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Ping verifies the database connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *PostgresStore) Close() error {
	s.logger.Info("closing PostgreSQL connection")
	return s.db.Close()
}

// txStore wraps a transaction and implements the Store interface.
type txStore struct {
	tx     *sql.Tx
	logger *slog.Logger

	documents     *DocumentStore
	invitations   *InvitationStore
	versions      *VersionStore
	contributions *ContributionStore
}

func (s *txStore) Documents() store.DocumentStore {
	if s.documents == nil {
		s.documents = &DocumentStore{tx: s.tx, logger: s.logger}
	}
	return s.documents
}

func (s *txStore) Invitations() store.InvitationStore {
	if s.invitations == nil {
		s.invitations = &InvitationStore{tx: s.tx, logger: s.logger}
	}
	return s.invitations
}

func (s *txStore) Versions() store.VersionStore {
	if s.versions == nil {
		s.versions = &VersionStore{tx: s.tx, logger: s.logger}
	}
	return s.versions
}

func (s *txStore) Contributions() store.ContributionStore {
	if s.contributions == nil {
		s.contributions = &ContributionStore{tx: s.tx, logger: s.logger}
	}
	return s.contributions
}

func (s *txStore) WithTx(ctx context.Context, fn func(store.Store) error) error {
	// Already in a transaction, just execute the function.
	return fn(s)
}

func (s *txStore) Ping(ctx context.Context) error { return nil }

func (s *txStore) Close() error { return nil }

// queryable is an interface that both *sql.DB and *sql.Tx implement.
type queryable interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
