// Package sqlite persists the in-memory state to a single SQLite table as
// JSON blobs, snapshotting the full state after every successful transaction.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	_ "modernc.org/sqlite" // pure go sqlite driver

	"opscore/internal/infra/persistence/memory"
	"opscore/pkg/domain"
)

// Compile-time contract assertion ensuring the store satisfies the domain interface.
var _ domain.PersistentStore = (*Store)(nil)

// Store mirrors the in-memory store into SQLite. The in-memory state stays
// authoritative; a failed snapshot write degrades the store to memory-only
// for the rest of the session instead of failing the mutation.
type Store struct {
	*memory.Store
	db       *sql.DB
	mu       sync.Mutex
	path     string
	logger   *zap.Logger
	degraded bool
}

// NewStore constructs a snapshotting SQLite-backed persistent store. A nil
// logger falls back to zap.NewNop().
func NewStore(path string, engine *domain.RulesEngine, logger *zap.Logger) (*Store, error) {
	if path == "" {
		path = "opscore.db"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("create state table: %w", err)
	}
	s := &Store{Store: memory.NewStore(engine), db: db, path: path, logger: logger}
	if err := s.load(); err != nil {
		// Unparsable or unreadable prior state seeds an empty store rather
		// than failing startup.
		s.logger.Warn("sqlite snapshot unreadable, starting empty",
			zap.String("path", path), zap.Error(err))
	}
	return s, nil
}

type bucketCodec struct {
	name   string
	decode func(*memory.Snapshot, []byte) error
	encode func(memory.Snapshot) ([]byte, error)
}

var buckets = []bucketCodec{
	{"todos",
		func(s *memory.Snapshot, b []byte) error { return json.Unmarshal(b, &s.Todos) },
		func(s memory.Snapshot) ([]byte, error) { return json.Marshal(s.Todos) }},
	{"products",
		func(s *memory.Snapshot, b []byte) error { return json.Unmarshal(b, &s.Products) },
		func(s memory.Snapshot) ([]byte, error) { return json.Marshal(s.Products) }},
	{"customers",
		func(s *memory.Snapshot, b []byte) error { return json.Unmarshal(b, &s.Customers) },
		func(s memory.Snapshot) ([]byte, error) { return json.Marshal(s.Customers) }},
	{"transactions",
		func(s *memory.Snapshot, b []byte) error { return json.Unmarshal(b, &s.Transactions) },
		func(s memory.Snapshot) ([]byte, error) { return json.Marshal(s.Transactions) }},
	{"coupons",
		func(s *memory.Snapshot, b []byte) error { return json.Unmarshal(b, &s.Coupons) },
		func(s memory.Snapshot) ([]byte, error) { return json.Marshal(s.Coupons) }},
	{"leads",
		func(s *memory.Snapshot, b []byte) error { return json.Unmarshal(b, &s.Leads) },
		func(s memory.Snapshot) ([]byte, error) { return json.Marshal(s.Leads) }},
	{"followups",
		func(s *memory.Snapshot, b []byte) error { return json.Unmarshal(b, &s.FollowUps) },
		func(s memory.Snapshot) ([]byte, error) { return json.Marshal(s.FollowUps) }},
	{"notes",
		func(s *memory.Snapshot, b []byte) error { return json.Unmarshal(b, &s.Notes) },
		func(s memory.Snapshot) ([]byte, error) { return json.Marshal(s.Notes) }},
	{"activities",
		func(s *memory.Snapshot, b []byte) error { return json.Unmarshal(b, &s.Activities) },
		func(s memory.Snapshot) ([]byte, error) { return json.Marshal(s.Activities) }},
	{"clients",
		func(s *memory.Snapshot, b []byte) error { return json.Unmarshal(b, &s.Clients) },
		func(s memory.Snapshot) ([]byte, error) { return json.Marshal(s.Clients) }},
	{"appointments",
		func(s *memory.Snapshot, b []byte) error { return json.Unmarshal(b, &s.Appointments) },
		func(s memory.Snapshot) ([]byte, error) { return json.Marshal(s.Appointments) }},
	{"reminders",
		func(s *memory.Snapshot, b []byte) error { return json.Unmarshal(b, &s.Reminders) },
		func(s memory.Snapshot) ([]byte, error) { return json.Marshal(s.Reminders) }},
	{"parcels",
		func(s *memory.Snapshot, b []byte) error { return json.Unmarshal(b, &s.Parcels) },
		func(s memory.Snapshot) ([]byte, error) { return json.Marshal(s.Parcels) }},
}

func (s *Store) load() error {
	rows, err := s.db.Query(`SELECT bucket, payload FROM state`)
	if err != nil {
		return fmt.Errorf("select state: %w", err)
	}
	defer func() { _ = rows.Close() }()
	payloads := map[string][]byte{}
	for rows.Next() {
		var bucket string
		var payload []byte
		if err := rows.Scan(&bucket, &payload); err != nil {
			return fmt.Errorf("scan: %w", err)
		}
		payloads[bucket] = payload
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate state: %w", err)
	}
	if len(payloads) == 0 {
		return nil
	}
	snapshot := memory.Snapshot{}
	for _, bucket := range buckets {
		payload, ok := payloads[bucket.name]
		if !ok {
			continue
		}
		if err := bucket.decode(&snapshot, payload); err != nil {
			return fmt.Errorf("decode %s: %w", bucket.name, err)
		}
	}
	s.ImportState(snapshot)
	return nil
}

func (s *Store) persist() (retErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.ExportState()
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	for _, bucket := range buckets {
		data, err := bucket.encode(snapshot)
		if err != nil {
			retErr = err
			return retErr
		}
		if _, err := tx.Exec(`INSERT INTO state(bucket,payload) VALUES(?,?) ON CONFLICT(bucket) DO UPDATE SET payload=excluded.payload`, bucket.name, data); err != nil {
			retErr = fmt.Errorf("upsert %s: %w", bucket.name, err)
			return retErr
		}
	}
	return tx.Commit()
}

// RunInTransaction applies fn within a transaction, then snapshots state to
// SQLite. Snapshot failure is logged and degrades the store to memory-only;
// the committed in-memory mutation stands.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx domain.Tx) error) (domain.Result, error) {
	res, err := s.Store.RunInTransaction(ctx, fn)
	if err != nil {
		return res, err
	}
	if pErr := s.persist(); pErr != nil {
		s.noteDegraded(pErr)
	}
	return res, nil
}

func (s *Store) noteDegraded(err error) {
	s.mu.Lock()
	already := s.degraded
	s.degraded = true
	s.mu.Unlock()
	if !already {
		s.logger.Error("sqlite snapshot write failed, continuing in memory",
			zap.String("path", s.path),
			zap.Error(domain.PersistenceError{Op: "save", Err: err}))
	}
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

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }
