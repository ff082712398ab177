package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a SQLite-based store at path, creating parent
// directories as needed.
func NewSQLite(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := initPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting pragmas: %w", err)
	}
	if err := CreateSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

// Put stores r, replacing any record with the same digest.
func (s *SQLiteStore) Put(r Record) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO volumes
			(digest, source, volume, instructions, fragments, finalize_order, clamped, elapsed_ns, created_at_ns)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		r.Digest,
		r.Source,
		strconv.FormatUint(r.Volume, 10),
		r.Instructions,
		r.Fragments,
		r.Order,
		r.Clamped,
		int64(r.Elapsed),
		r.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("inserting volume: %w", err)
	}
	return nil
}

const selectColumns = `digest, source, volume, instructions, fragments, finalize_order, clamped, elapsed_ns, created_at_ns`

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (Record, error) {
	var (
		r         Record
		volume    string
		elapsed   int64
		createdAt int64
	)
	err := row.Scan(&r.Digest, &r.Source, &volume, &r.Instructions, &r.Fragments, &r.Order, &r.Clamped, &elapsed, &createdAt)
	if err != nil {
		return Record{}, err
	}
	r.Volume, err = strconv.ParseUint(volume, 10, 64)
	if err != nil {
		return Record{}, fmt.Errorf("parsing volume %q: %w", volume, err)
	}
	r.Elapsed = time.Duration(elapsed)
	r.CreatedAt = time.Unix(0, createdAt)
	return r, nil
}

// Get returns the record for digest.
func (s *SQLiteStore) Get(digest string) (Record, bool, error) {
	row := s.db.QueryRow(`SELECT `+selectColumns+` FROM volumes WHERE digest = ?`, digest)
	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, fmt.Errorf("querying volume: %w", err)
	}
	return r, true, nil
}

// List returns up to limit records, newest first.
func (s *SQLiteStore) List(limit int) ([]Record, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	rows, err := s.db.Query(`SELECT `+selectColumns+` FROM volumes ORDER BY created_at_ns DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying volumes: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning volume: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating volumes: %w", err)
	}
	return records, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
