package store

import (
	"database/sql"
	"fmt"
)

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// CreateSchema creates the database schema if it doesn't exist and rejects
// databases written by a newer version.
func CreateSchema(db *sql.DB) error {
	if err := createSchemaVersionTable(db); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	var version int
	if err := db.QueryRow("SELECT version FROM schema_version").Scan(&version); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}
	if version > SchemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported version %d", version, SchemaVersion)
	}

	if err := createVolumesTable(db); err != nil {
		return fmt.Errorf("creating volumes table: %w", err)
	}
	return nil
}

func createSchemaVersionTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	// Insert version if table is empty
	var count int
	err = db.QueryRow("SELECT COUNT(*) FROM schema_version").Scan(&count)
	if err != nil {
		return err
	}

	if count == 0 {
		_, err = db.Exec("INSERT INTO schema_version (version) VALUES (?)", SchemaVersion)
		return err
	}

	return nil
}

// Volumes are stored as decimal text because SQLite integers are signed
// 64-bit and a volume can exceed that.
func createVolumesTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS volumes (
			digest TEXT PRIMARY KEY NOT NULL,
			source TEXT NOT NULL,
			volume TEXT NOT NULL,
			instructions INTEGER NOT NULL,
			fragments INTEGER NOT NULL,
			finalize_order TEXT NOT NULL,
			clamped INTEGER NOT NULL,
			elapsed_ns INTEGER NOT NULL,
			created_at_ns INTEGER NOT NULL
		)
	`)
	if err != nil {
		return err
	}
	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS volumes_created_at ON volumes (created_at_ns)`)
	return err
}
