// Package postgres provides a Postgres-backed persistent store that mirrors
// the in-memory semantics, snapshotting the full state after every commit.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
	"go.uber.org/zap"

	"opscore/internal/infra/persistence/memory"
	"opscore/pkg/domain"
)

// Compile-time contract assertion ensuring the store satisfies the domain interface.
var _ domain.PersistentStore = (*Store)(nil)

const (
	defaultDriver = "pgx"
	defaultDSN    = "postgres://localhost/opscore?sslmode=disable"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// Store persists state to Postgres while reusing the in-memory implementation
// for transactions. Snapshot write failures degrade to memory-only.
type Store struct {
	*memory.Store
	db       *sql.DB
	mu       sync.Mutex
	logger   *zap.Logger
	degraded bool
}

// NewStore opens a Postgres-backed store using the provided DSN (falls back
// to defaultDSN), ensures the snapshot table exists, and hydrates the
// in-memory store from any existing snapshot.
func NewStore(dsn string, engine *domain.RulesEngine, logger *zap.Logger) (*Store, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	openMu.Lock()
	db, err := sqlOpen(defaultDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload JSONB NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("ensure state table: %w", err)
	}
	mem := memory.NewStore(engine)
	snapshot, err := loadSnapshot(ctx, db)
	if err != nil {
		logger.Warn("postgres snapshot unreadable, starting empty", zap.Error(err))
	} else {
		mem.ImportState(snapshot)
	}
	return &Store{Store: mem, db: db, logger: logger}, nil
}

// RunInTransaction applies fn within a transaction, then snapshots to
// Postgres. A failed snapshot write is logged; the in-memory commit stands.
func (s *Store) RunInTransaction(ctx context.Context, fn func(domain.Tx) error) (domain.Result, error) {
	res, err := s.Store.RunInTransaction(ctx, fn)
	if err != nil {
		return res, err
	}
	if pErr := s.persist(ctx); pErr != nil {
		s.mu.Lock()
		already := s.degraded
		s.degraded = true
		s.mu.Unlock()
		if !already {
			s.logger.Error("postgres snapshot write failed, continuing in memory",
				zap.Error(domain.PersistenceError{Op: "save", Err: pErr}))
		}
	}
	return res, nil
}

// Degraded reports whether a snapshot write has failed this session.
func (s *Store) Degraded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.degraded
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

var postgresBuckets = []string{
	"todos",
	"products",
	"customers",
	"transactions",
	"coupons",
	"leads",
	"followups",
	"notes",
	"activities",
	"clients",
	"appointments",
	"reminders",
	"parcels",
}

func snapshotTargets(snapshot *memory.Snapshot) map[string]any {
	return map[string]any{
		"todos":        &snapshot.Todos,
		"products":     &snapshot.Products,
		"customers":    &snapshot.Customers,
		"transactions": &snapshot.Transactions,
		"coupons":      &snapshot.Coupons,
		"leads":        &snapshot.Leads,
		"followups":    &snapshot.FollowUps,
		"notes":        &snapshot.Notes,
		"activities":   &snapshot.Activities,
		"clients":      &snapshot.Clients,
		"appointments": &snapshot.Appointments,
		"reminders":    &snapshot.Reminders,
		"parcels":      &snapshot.Parcels,
	}
}

func snapshotSources(snapshot memory.Snapshot) map[string]any {
	return map[string]any{
		"todos":        snapshot.Todos,
		"products":     snapshot.Products,
		"customers":    snapshot.Customers,
		"transactions": snapshot.Transactions,
		"coupons":      snapshot.Coupons,
		"leads":        snapshot.Leads,
		"followups":    snapshot.FollowUps,
		"notes":        snapshot.Notes,
		"activities":   snapshot.Activities,
		"clients":      snapshot.Clients,
		"appointments": snapshot.Appointments,
		"reminders":    snapshot.Reminders,
		"parcels":      snapshot.Parcels,
	}
}

func loadSnapshot(ctx context.Context, db *sql.DB) (memory.Snapshot, error) {
	rows, err := db.QueryContext(ctx, `SELECT bucket, payload FROM state`)
	if err != nil {
		return memory.Snapshot{}, fmt.Errorf("select state: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var snapshot memory.Snapshot
	targets := snapshotTargets(&snapshot)
	for rows.Next() {
		var bucket string
		var payload []byte
		if err := rows.Scan(&bucket, &payload); err != nil {
			return memory.Snapshot{}, fmt.Errorf("scan state: %w", err)
		}
		if len(payload) == 0 {
			continue
		}
		if target, ok := targets[bucket]; ok {
			if err := json.Unmarshal(payload, target); err != nil {
				return memory.Snapshot{}, fmt.Errorf("decode %s: %w", bucket, err)
			}
		}
	}
	if err := rows.Err(); err != nil {
		return memory.Snapshot{}, fmt.Errorf("iterate state: %w", err)
	}
	return snapshot, nil
}

func (s *Store) persist(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.ExportState()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	sources := snapshotSources(snapshot)
	for _, bucket := range postgresBuckets {
		data, err := json.Marshal(sources[bucket])
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO state(bucket,payload) VALUES($1,$2) ON CONFLICT(bucket) DO UPDATE SET payload=EXCLUDED.payload`, bucket, data); err != nil {
			return fmt.Errorf("upsert %s: %w", bucket, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	committed = true
	return nil
}

// OverrideSQLOpen swaps the sqlOpen function for tests and returns a restore function.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	openMu.Lock()
	defer openMu.Unlock()
	prev := sqlOpen
	sqlOpen = fn
	return func() {
		openMu.Lock()
		defer openMu.Unlock()
		sqlOpen = prev
	}
}
