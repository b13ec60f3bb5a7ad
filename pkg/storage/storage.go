package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sw33tLie/shopwatch/pkg/items"
	_ "modernc.org/sqlite"
)

// SnapshotSlot is the slot holding the last known catalog.
const SnapshotSlot = "items"

type DB struct {
	sql *sql.DB
}

func Open(path string) (*DB, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	// Ensure schema exists for convenience.
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS snapshots (
  slot              TEXT PRIMARY KEY,
  items             TEXT NOT NULL,
  item_count        INTEGER NOT NULL,
  updated_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS item_changes (
  id                INTEGER PRIMARY KEY,
  occurred_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  run_id            TEXT NOT NULL,
  item_id           TEXT NOT NULL,
  item_name         TEXT NOT NULL,
  change_type       TEXT NOT NULL CHECK (change_type IN ('added','updated','removed')),
  report            TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_changes_time ON item_changes(occurred_at);
CREATE INDEX IF NOT EXISTS idx_changes_item ON item_changes(item_id, occurred_at);
    `); err != nil {
		return nil, err
	}
	return &DB{sql: db}, nil
}

func (d *DB) Close() error {
	if d == nil || d.sql == nil {
		return nil
	}
	return d.sql.Close()
}

// GetCatalog returns the catalog stored in slot. ok is false when the slot
// has never been written.
func (d *DB) GetCatalog(ctx context.Context, slot string) (catalog items.Catalog, ok bool, err error) {
	var raw string
	err = d.sql.QueryRowContext(ctx, "SELECT items FROM snapshots WHERE slot = ?", slot).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if err := json.Unmarshal([]byte(raw), &catalog); err != nil {
		return nil, false, fmt.Errorf("decoding snapshot %s: %w", slot, err)
	}
	return catalog, true, nil
}

// PutCatalog overwrites the catalog stored in slot.
func (d *DB) PutCatalog(ctx context.Context, slot string, catalog items.Catalog) error {
	return d.CommitCycle(ctx, slot, catalog, nil)
}

// CommitCycle stores the catalog and appends the cycle's changes to the log
// in a single transaction.
func (d *DB) CommitCycle(ctx context.Context, slot string, catalog items.Catalog, changes []Change) error {
	if catalog == nil {
		catalog = items.Catalog{}
	}
	raw, err := json.Marshal(catalog)
	if err != nil {
		return err
	}

	tx, err := d.sql.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `INSERT INTO snapshots(slot, items, item_count, updated_at) VALUES(?,?,?,CURRENT_TIMESTAMP)
ON CONFLICT(slot) DO UPDATE SET items = excluded.items, item_count = excluded.item_count, updated_at = CURRENT_TIMESTAMP`, slot, string(raw), len(catalog))
	if err != nil {
		return err
	}

	for _, c := range changes {
		_, err = tx.ExecContext(ctx, `INSERT INTO item_changes(occurred_at, run_id, item_id, item_name, change_type, report) VALUES(?,?,?,?,?,?)`,
			c.OccurredAt.UTC().Format(timeLayout), c.RunID, c.ItemID, c.ItemName, c.ChangeType, c.Report)
		if err != nil {
			return err
		}
	}

	err = tx.Commit()
	return err
}

const timeLayout = "2006-01-02 15:04:05"

// ListRecentChanges returns the most recent N changes.
func (d *DB) ListRecentChanges(ctx context.Context, limit int) ([]Change, error) {
	if limit <= 0 {
		limit = 50
	}
	q := "SELECT occurred_at, run_id, item_id, item_name, change_type, report FROM item_changes ORDER BY occurred_at DESC, id DESC LIMIT ?"
	rows, err := d.sql.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	changes := []Change{}
	for rows.Next() {
		var c Change
		var occurredAtStr string
		if err := rows.Scan(&occurredAtStr, &c.RunID, &c.ItemID, &c.ItemName, &c.ChangeType, &c.Report); err != nil {
			return nil, err
		}
		c.OccurredAt = parseTimestamp(occurredAtStr)
		changes = append(changes, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return changes, nil
}

// Stats summarizes the stored snapshot and change log.
type Stats struct {
	Slot      string
	ItemCount int
	UpdatedAt time.Time
	Changes   map[string]int // keyed by change type
}

func (d *DB) GetStats(ctx context.Context, slot string) (*Stats, error) {
	s := &Stats{Slot: slot, Changes: map[string]int{}}

	var updatedAt string
	err := d.sql.QueryRowContext(ctx, "SELECT item_count, updated_at FROM snapshots WHERE slot = ?", slot).Scan(&s.ItemCount, &updatedAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return nil, err
	default:
		s.UpdatedAt = parseTimestamp(updatedAt)
	}

	rows, err := d.sql.QueryContext(ctx, "SELECT change_type, COUNT(*) FROM item_changes GROUP BY change_type ORDER BY change_type")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var ct string
		var n int
		if err := rows.Scan(&ct, &n); err != nil {
			return nil, err
		}
		s.Changes[ct] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return s, nil
}

// parseTimestamp accepts SQLite's CURRENT_TIMESTAMP format and RFC3339.
func parseTimestamp(s string) time.Time {
	if t, err := time.Parse(timeLayout, s); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	return time.Time{}
}
