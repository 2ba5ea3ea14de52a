// Package store provides the durable key-value tables behind the duplicate
// detector and the offline sync queue, backed by SQLite, plus in-memory
// variants for tests.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/rumor-ml/commons.systems/smsledger/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS dedup_records (
	hash       TEXT PRIMARY KEY,
	first_seen INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS sync_queue (
	id          TEXT PRIMARY KEY,
	record      TEXT NOT NULL,
	enqueued_at INTEGER NOT NULL
);
`

// SQLite owns the database handle shared by the dedup and queue tables.
type SQLite struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and ensures the
// schema exists. The parent directory is created if missing.
func Open(path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}

	// The dedup and queue tables are monitors with one logical writer at a
	// time; a single connection keeps SQLite locking out of the picture.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the database handle.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// DedupTable returns the durable hash → firstSeen store.
func (s *SQLite) DedupTable() *DedupTable {
	return &DedupTable{db: s.db}
}

// QueueTable returns the durable offline queue store.
func (s *SQLite) QueueTable() *QueueTable {
	return &QueueTable{db: s.db}
}

// DedupTable implements dedup.Store on the dedup_records table.
type DedupTable struct {
	db *sql.DB
}

// Get returns the first-seen time for a hash.
func (t *DedupTable) Get(hash string) (time.Time, bool, error) {
	var firstSeen int64
	err := t.db.QueryRow(`SELECT first_seen FROM dedup_records WHERE hash = ?`, hash).Scan(&firstSeen)
	if err == sql.ErrNoRows {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to query dedup record: %w", err)
	}
	return time.UnixMilli(firstSeen), true, nil
}

// Put records a hash, keeping the original first-seen time on conflict.
func (t *DedupTable) Put(hash string, firstSeen time.Time) error {
	_, err := t.db.Exec(
		`INSERT INTO dedup_records (hash, first_seen) VALUES (?, ?) ON CONFLICT(hash) DO NOTHING`,
		hash, firstSeen.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to insert dedup record: %w", err)
	}
	return nil
}

// DeleteBefore removes records first seen before the cutoff.
func (t *DedupTable) DeleteBefore(cutoff time.Time) (int, error) {
	res, err := t.db.Exec(`DELETE FROM dedup_records WHERE first_seen < ?`, cutoff.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to delete dedup records: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted dedup records: %w", err)
	}
	return int(n), nil
}

// QueueTable implements queue.Store on the sync_queue table. Records are
// stored as JSON keyed by transaction ID.
type QueueTable struct {
	db *sql.DB
}

// Put inserts or replaces a queued record.
func (t *QueueTable) Put(txn *domain.PersistedTransaction) error {
	record, err := json.Marshal(txn)
	if err != nil {
		return fmt.Errorf("failed to encode queued transaction: %w", err)
	}
	_, err = t.db.Exec(
		`INSERT OR REPLACE INTO sync_queue (id, record, enqueued_at) VALUES (?, ?, ?)`,
		txn.ID, string(record), time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to enqueue transaction %s: %w", txn.ID, err)
	}
	return nil
}

// List returns all queued records in FIFO order.
func (t *QueueTable) List() ([]*domain.PersistedTransaction, error) {
	rows, err := t.db.Query(`SELECT record FROM sync_queue ORDER BY enqueued_at, rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sync queue: %w", err)
	}
	defer rows.Close()

	var txns []*domain.PersistedTransaction
	for rows.Next() {
		var record string
		if err := rows.Scan(&record); err != nil {
			return nil, fmt.Errorf("failed to scan queued record: %w", err)
		}
		var txn domain.PersistedTransaction
		if err := json.Unmarshal([]byte(record), &txn); err != nil {
			return nil, fmt.Errorf("failed to decode queued record: %w", err)
		}
		txns = append(txns, &txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sync queue: %w", err)
	}
	return txns, nil
}

// Delete removes a queued record by transaction ID.
func (t *QueueTable) Delete(id string) error {
	if _, err := t.db.Exec(`DELETE FROM sync_queue WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete queued transaction %s: %w", id, err)
	}
	return nil
}

// Count returns the number of queued records.
func (t *QueueTable) Count() (int, error) {
	var n int
	if err := t.db.QueryRow(`SELECT COUNT(*) FROM sync_queue`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count sync queue: %w", err)
	}
	return n, nil
}
