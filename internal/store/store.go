// Package store keeps customized score orders in a SQLite database so they
// survive between runs. Each row holds the XML form of one order.
package store

import (
	"context"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/zeebo/blake3"

	"github.com/FocuswithJustin/ScoreOrder/core/errors"
	"github.com/FocuswithJustin/ScoreOrder/core/scoreorder"
	"github.com/FocuswithJustin/ScoreOrder/core/sqlite"
	"github.com/FocuswithJustin/ScoreOrder/internal/logging"
	"github.com/FocuswithJustin/ScoreOrder/internal/validation"
)

const schemaVersion = 1

const schemaV1 = `
CREATE TABLE IF NOT EXISTS schema_meta (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS orders (
	id          TEXT PRIMARY KEY,
	base_id     TEXT NOT NULL,
	name        TEXT NOT NULL,
	xml         BLOB NOT NULL,
	digest      TEXT NOT NULL,
	updated_at  TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_orders_base ON orders(base_id);
`

// Entry describes one stored order.
type Entry struct {
	ID        string    `json:"id" yaml:"id"`
	BaseID    string    `json:"base_id" yaml:"base_id"`
	Name      string    `json:"name" yaml:"name"`
	Digest    string    `json:"digest" yaml:"digest"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// Store is a handle on the customized order database.
type Store struct {
	db       *sql.DB
	path     string
	readOnly bool
	now      func() time.Time
}

var errReadOnly = fmt.Errorf("store opened read-only")

// Open opens or creates the store at path.
func Open(path string) (*Store, error) {
	if err := validation.ValidatePath(path); err != nil {
		return nil, errors.NewIO("open", path, err)
	}
	db, err := sqlite.Open(path)
	if err != nil {
		return nil, err
	}
	s := &Store{db: db, path: path, now: time.Now}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, errors.NewIO("migrate", path, err)
	}
	return s, nil
}

// OpenReadOnly opens an existing store for reading. Save and Delete fail on
// the returned store. A missing database is an error wrapping
// fs.ErrNotExist.
func OpenReadOnly(path string) (*Store, error) {
	if err := validation.ValidatePath(path); err != nil {
		return nil, errors.NewIO("open", path, err)
	}
	db, err := sqlite.OpenReadOnly(path)
	if err != nil {
		return nil, err
	}
	return &Store{db: db, path: path, readOnly: true, now: time.Now}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

func (s *Store) migrate() error {
	ver, err := s.schemaVersion()
	if err != nil {
		return fmt.Errorf("check schema version: %w", err)
	}
	if ver >= schemaVersion {
		return nil
	}
	if _, err := s.db.Exec(schemaV1); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := s.db.Exec("DELETE FROM schema_meta"); err != nil {
		return fmt.Errorf("reset schema version: %w", err)
	}
	if _, err := s.db.Exec("INSERT INTO schema_meta (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("insert schema version: %w", err)
	}
	return nil
}

// schemaVersion returns the recorded version, or 0 for a fresh database.
func (s *Store) schemaVersion() (int, error) {
	var count int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM sqlite_master
		WHERE type='table' AND name='schema_meta'
	`).Scan(&count)
	if err != nil || count == 0 {
		return 0, err
	}
	var ver int
	err = s.db.QueryRow("SELECT version FROM schema_meta LIMIT 1").Scan(&ver)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return ver, err
}

// Digest returns the hex BLAKE3 hash of data.
func Digest(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Save stores a customized order, replacing an earlier version with the
// same id.
func (s *Store) Save(ctx context.Context, o *scoreorder.Order) error {
	if !o.IsCustomized() {
		return errors.NewValidation("order", o.ID(), "only customized orders are stored")
	}
	if s.readOnly {
		return errors.NewIO("save", s.path, errReadOnly)
	}
	data, err := o.Marshal()
	if err != nil {
		return errors.Wrapf(err, "encode order %s", o.ID())
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO orders (id, base_id, name, xml, digest, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			xml = excluded.xml,
			digest = excluded.digest,
			updated_at = excluded.updated_at
	`, o.ID(), o.BaseID(), o.RawName(), data, Digest(data), s.now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return errors.NewIO("save", s.path, err)
	}
	logging.InfoContext(ctx, "order stored", "order", o.ID(), "path", s.path)
	return nil
}

// Get returns the XML of a stored order.
func (s *Store) Get(ctx context.Context, id string) ([]byte, error) {
	if err := validation.ValidateID(id); err != nil {
		return nil, errors.NewValidation("id", id, err.Error())
	}
	var data []byte
	err := s.db.QueryRowContext(ctx, "SELECT xml FROM orders WHERE id = ?", id).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("order", id)
	}
	if err != nil {
		return nil, errors.NewIO("get", s.path, err)
	}
	return data, nil
}

// List returns the stored orders, oldest first.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, base_id, name, digest, updated_at
		FROM orders
		ORDER BY updated_at ASC, id ASC
	`)
	if err != nil {
		return nil, errors.NewIO("list", s.path, err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var updated string
		if err := rows.Scan(&e.ID, &e.BaseID, &e.Name, &e.Digest, &updated); err != nil {
			return nil, errors.NewIO("list", s.path, err)
		}
		if t, err := time.Parse(time.RFC3339Nano, updated); err == nil {
			e.UpdatedAt = t
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewIO("list", s.path, err)
	}
	return entries, nil
}

// Delete removes a stored order.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := validation.ValidateID(id); err != nil {
		return errors.NewValidation("id", id, err.Error())
	}
	if s.readOnly {
		return errors.NewIO("delete", s.path, errReadOnly)
	}
	res, err := s.db.ExecContext(ctx, "DELETE FROM orders WHERE id = ?", id)
	if err != nil {
		return errors.NewIO("delete", s.path, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.NewIO("delete", s.path, err)
	}
	if n == 0 {
		return errors.NewNotFound("order", id)
	}
	logging.InfoContext(ctx, "order deleted", "order", id, "path", s.path)
	return nil
}

// LoadInto adds every stored order to reg and returns how many were read.
// Rows whose digest does not match their content are skipped with a
// warning.
func (s *Store) LoadInto(ctx context.Context, reg *scoreorder.Registry) (int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, xml, digest FROM orders ORDER BY updated_at ASC, id ASC
	`)
	if err != nil {
		return 0, errors.NewIO("load", s.path, err)
	}
	defer rows.Close()

	type row struct {
		id, digest string
		data       []byte
	}
	var all []row
	for rows.Next() {
		var r row
		if err := rows.Scan(&r.id, &r.data, &r.digest); err != nil {
			return 0, errors.NewIO("load", s.path, err)
		}
		all = append(all, r)
	}
	if err := rows.Err(); err != nil {
		return 0, errors.NewIO("load", s.path, err)
	}

	loaded := 0
	for _, r := range all {
		if Digest(r.data) != r.digest {
			logging.Warn("stored order digest mismatch", "order", r.id, "path", s.path)
			continue
		}
		if _, err := reg.AddFromXML(r.data); err != nil {
			logging.Warn("stored order unreadable", "order", r.id, "path", s.path, "error", err)
			continue
		}
		loaded++
	}
	return loaded, nil
}
