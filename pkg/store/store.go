// Package store caches computed volumes keyed by instruction digest.
package store

import (
	"errors"
	"fmt"
	"time"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("store: closed")

// Record is one cached computation.
type Record struct {
	Digest       string        `json:"digest"`       // instruction.Digest of the evaluated stream
	Source       string        `json:"source"`       // file path, "-" or "<eval>"
	Volume       uint64        `json:"volume"`       // cells left on
	Instructions int           `json:"instructions"` // stream length
	Fragments    int           `json:"fragments"`    // disjoint boxes counted by Finalize
	Order        string        `json:"order"`        // finalize order used
	Clamped      bool          `json:"clamped"`      // stream was restricted to the init region
	Elapsed      time.Duration `json:"elapsed"`
	CreatedAt    time.Time     `json:"created_at"`
}

// Store provides persistence for computed volumes.
// This interface abstracts the underlying storage implementation.
type Store interface {
	// Put stores r, replacing any record with the same digest.
	Put(r Record) error

	// Get returns the record for digest. ok is false when none exists.
	Get(digest string) (r Record, ok bool, err error)

	// List returns up to limit records, newest first. limit <= 0 means all.
	List(limit int) ([]Record, error)

	// Close releases the store.
	Close() error
}

// Config for store initialization.
type Config struct {
	// Path is the database file path.
	// Use ":memory:" for an in-process store.
	Path string
}

// New creates a Store. ":memory:" returns a MemoryStore; any other path
// opens a SQLite database.
func New(cfg Config) (Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("path is required")
	}
	if cfg.Path == ":memory:" {
		return NewMemory(), nil
	}
	return NewSQLite(cfg.Path)
}
