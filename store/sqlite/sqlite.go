/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements generic.TxStore and generic.JournalReader using SQLite. Vault
  state is a key/value table addressed by generic.Key strings; the
  transaction log and events are append-only tables.

INTERFACES IMPLEMENTED:
  generic.Store:         Key/value state, AppendLog, Emit
  generic.TxStore:       All-or-nothing invocations (WithTx)
  generic.JournalReader: Reading back log entries and events

KEY TABLES:
  state:            One row per generic.Key, JSON value
  transaction_log:  Immutable audit trail (append-only)
  events:           Published events (append-only)

APPEND-ONLY ENFORCEMENT:
  - No UPDATE or DELETE statements on transaction_log or events
  - Reset() is the only exception and exists for tests/dev

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. WithTx holds the write lock for the
  whole invocation, so invocations are serialized the way a host ledger
  serializes contract calls. The pool is capped at one connection, which
  also keeps ":memory:" databases coherent.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging):
  - Readers don't block the writer
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/vault.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  v := vault.New(store, authenticator)

SEE ALSO:
  - generic/store.go: Interface definitions
  - generic/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/asset-vault/generic"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Vault state (one row per generic.Key)
	CREATE TABLE IF NOT EXISTS state (
		key TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		value BLOB NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_state_kind
		ON state(kind, key);

	-- Transaction log (append-only)
	CREATE TABLE IF NOT EXISTS transaction_log (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		from_addr TEXT NOT NULL,
		to_addr TEXT NOT NULL,
		amount TEXT NOT NULL,
		timestamp INTEGER NOT NULL,
		tx_type TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_transaction_log_from
		ON transaction_log(from_addr);
	CREATE INDEX IF NOT EXISTS idx_transaction_log_to
		ON transaction_log(to_addr);
	CREATE INDEX IF NOT EXISTS idx_transaction_log_type
		ON transaction_log(tx_type);

	-- Events (append-only)
	CREATE TABLE IF NOT EXISTS events (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		topic TEXT NOT NULL,
		subject TEXT NOT NULL,
		data_json TEXT NOT NULL,
		timestamp INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_topic_subject
		ON events(topic, subject);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// STATE (generic.Store interface)
// =============================================================================

func (s *Store) Get(ctx context.Context, key generic.Key) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return get(ctx, s.db, key)
}

func (s *Store) Set(ctx context.Context, key generic.Key, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return set(ctx, s.db, key, value)
}

func (s *Store) Has(ctx context.Context, key generic.Key) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return has(ctx, s.db, key)
}

func (s *Store) Remove(ctx context.Context, key generic.Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return remove(ctx, s.db, key)
}

func (s *Store) Keys(ctx context.Context, kind generic.KeyKind) ([]generic.Key, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return keys(ctx, s.db, kind)
}

func (s *Store) AppendLog(ctx context.Context, e generic.TransactionLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return appendLog(ctx, s.db, e)
}

func (s *Store) Emit(ctx context.Context, e generic.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return emit(ctx, s.db, e)
}

func get(ctx context.Context, q querier, key generic.Key) ([]byte, bool, error) {
	var value []byte
	err := q.QueryRowContext(ctx, "SELECT value FROM state WHERE key = ?", key.String()).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return value, true, nil
}

func set(ctx context.Context, q querier, key generic.Key, value []byte) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO state (key, kind, value, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key.String(), string(key.Kind), value, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

func has(ctx context.Context, q querier, key generic.Key) (bool, error) {
	var count int
	err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM state WHERE key = ?", key.String()).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check %s: %w", key, err)
	}
	return count > 0, nil
}

func remove(ctx context.Context, q querier, key generic.Key) error {
	if _, err := q.ExecContext(ctx, "DELETE FROM state WHERE key = ?", key.String()); err != nil {
		return fmt.Errorf("failed to remove %s: %w", key, err)
	}
	return nil
}

func keys(ctx context.Context, q querier, kind generic.KeyKind) ([]generic.Key, error) {
	rows, err := q.QueryContext(ctx, "SELECT key FROM state WHERE kind = ? ORDER BY key", string(kind))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s keys: %w", kind, err)
	}
	defer rows.Close()

	var out []generic.Key
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		k, err := generic.ParseKey(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

func appendLog(ctx context.Context, q querier, e generic.TransactionLog) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO transaction_log (id, from_addr, to_addr, amount, timestamp, tx_type)
		VALUES (?, ?, ?, ?, ?, ?)
	`, e.ID, string(e.From), string(e.To), e.Amount.String(), int64(e.Timestamp), string(e.Type))
	if err != nil {
		return fmt.Errorf("failed to append log entry: %w", err)
	}
	return nil
}

func emit(ctx context.Context, q querier, e generic.Event) error {
	data, err := json.Marshal(e.Data)
	if err != nil {
		return fmt.Errorf("failed to encode event data: %w", err)
	}
	_, err = q.ExecContext(ctx, `
		INSERT INTO events (id, topic, subject, data_json, timestamp)
		VALUES (?, ?, ?, ?, ?)
	`, e.ID, string(e.Topic), e.Subject, string(data), int64(e.Timestamp))
	if err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

// =============================================================================
// TRANSACTIONAL STORE (generic.TxStore interface)
// =============================================================================

// WithTx executes a function within a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(store generic.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{tx: sqlTx}); err != nil {
		return err
	}

	return sqlTx.Commit()
}

type txStore struct {
	tx *sql.Tx
}

func (ts *txStore) Get(ctx context.Context, key generic.Key) ([]byte, bool, error) {
	return get(ctx, ts.tx, key)
}

func (ts *txStore) Set(ctx context.Context, key generic.Key, value []byte) error {
	return set(ctx, ts.tx, key, value)
}

func (ts *txStore) Has(ctx context.Context, key generic.Key) (bool, error) {
	return has(ctx, ts.tx, key)
}

func (ts *txStore) Remove(ctx context.Context, key generic.Key) error {
	return remove(ctx, ts.tx, key)
}

func (ts *txStore) Keys(ctx context.Context, kind generic.KeyKind) ([]generic.Key, error) {
	return keys(ctx, ts.tx, kind)
}

func (ts *txStore) AppendLog(ctx context.Context, e generic.TransactionLog) error {
	return appendLog(ctx, ts.tx, e)
}

func (ts *txStore) Emit(ctx context.Context, e generic.Event) error {
	return emit(ctx, ts.tx, e)
}

// =============================================================================
// JOURNAL (generic.JournalReader interface)
// =============================================================================

// Logs returns transaction log entries, oldest first.
func (s *Store) Logs(ctx context.Context, f generic.JournalFilter) ([]generic.TransactionLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := "SELECT id, from_addr, to_addr, amount, timestamp, tx_type FROM transaction_log"
	var (
		where []string
		args  []any
	)
	if f.Account != "" {
		where = append(where, "(from_addr = ? OR to_addr = ?)")
		args = append(args, string(f.Account), string(f.Account))
	}
	if len(f.Types) > 0 {
		placeholders := make([]string, len(f.Types))
		for i, t := range f.Types {
			placeholders[i] = "?"
			args = append(args, string(t))
		}
		where = append(where, "tx_type IN ("+strings.Join(placeholders, ", ")+")")
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY seq ASC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transaction log: %w", err)
	}
	defer rows.Close()

	out := []generic.TransactionLog{}
	for rows.Next() {
		var (
			e         generic.TransactionLog
			from, to  string
			amount    string
			timestamp int64
			txType    string
		)
		if err := rows.Scan(&e.ID, &from, &to, &amount, &timestamp, &txType); err != nil {
			return nil, err
		}
		parsed, err := generic.ParseAmount(amount)
		if err != nil {
			return nil, err
		}
		e.From = generic.Address(from)
		e.To = generic.Address(to)
		e.Amount = parsed
		e.Timestamp = generic.Timestamp(timestamp)
		e.Type = generic.TransactionType(txType)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Events returns published events, oldest first.
func (s *Store) Events(ctx context.Context, f generic.JournalFilter) ([]generic.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := "SELECT id, topic, subject, data_json, timestamp FROM events"
	var (
		where []string
		args  []any
	)
	if f.Topic != "" {
		where = append(where, "topic = ?")
		args = append(args, string(f.Topic))
	}
	if f.Subject != "" {
		where = append(where, "subject = ?")
		args = append(args, f.Subject)
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY seq ASC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	out := []generic.Event{}
	for rows.Next() {
		var (
			e         generic.Event
			topic     string
			data      string
			timestamp int64
		)
		if err := rows.Scan(&e.ID, &topic, &e.Subject, &data, &timestamp); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(data), &e.Data); err != nil {
			return nil, fmt.Errorf("failed to decode event %s: %w", e.ID, err)
		}
		e.Topic = generic.EventTopic(topic)
		e.Timestamp = generic.Timestamp(timestamp)
		out = append(out, e)
	}
	return out, rows.Err()
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"state", "transaction_log", "events"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}
