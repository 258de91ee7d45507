package export

import (
	"database/sql"
	"fmt"
)

// SchemaVersion is bumped whenever the exported tables change shape.
const SchemaVersion = 1

// CreateSchema creates all tables and indexes.
func CreateSchema(db *sql.DB) error {
	if err := createCoreTables(db); err != nil {
		return fmt.Errorf("create core tables: %w", err)
	}
	if err := createIndexes(db); err != nil {
		return fmt.Errorf("create indexes: %w", err)
	}
	if err := createMetaTable(db); err != nil {
		return fmt.Errorf("create meta table: %w", err)
	}
	return nil
}

func createCoreTables(db *sql.DB) error {
	conceptsSQL := `
		CREATE TABLE IF NOT EXISTS concepts (
			id TEXT PRIMARY KEY,
			ord INTEGER NOT NULL,
			name TEXT NOT NULL,
			kind TEXT NOT NULL,
			description TEXT,
			radius REAL,
			color TEXT,
			visible INTEGER NOT NULL DEFAULT 1,
			degree INTEGER NOT NULL DEFAULT 0,
			x REAL NOT NULL,
			y REAL NOT NULL
		)
	`
	if _, err := db.Exec(conceptsSQL); err != nil {
		return fmt.Errorf("create concepts table: %w", err)
	}

	relationshipsSQL := `
		CREATE TABLE IF NOT EXISTS relationships (
			id INTEGER PRIMARY KEY,
			source TEXT NOT NULL,
			target TEXT NOT NULL,
			relationship TEXT,
			FOREIGN KEY (source) REFERENCES concepts(id),
			FOREIGN KEY (target) REFERENCES concepts(id)
		)
	`
	if _, err := db.Exec(relationshipsSQL); err != nil {
		return fmt.Errorf("create relationships table: %w", err)
	}
	return nil
}

func createIndexes(db *sql.DB) error {
	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_concepts_kind ON concepts(kind)`,
		`CREATE INDEX IF NOT EXISTS idx_rel_source ON relationships(source)`,
		`CREATE INDEX IF NOT EXISTS idx_rel_target ON relationships(target)`,
	}
	for _, stmt := range indexes {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}

func createMetaTable(db *sql.DB) error {
	metaSQL := `
		CREATE TABLE IF NOT EXISTS export_meta (
			key TEXT PRIMARY KEY,
			value TEXT
		)
	`
	if _, err := db.Exec(metaSQL); err != nil {
		return fmt.Errorf("create export_meta table: %w", err)
	}
	return nil
}

// CreateFTSIndex builds a full-text index over concept names and
// descriptions. Call it after the concepts are inserted.
func CreateFTSIndex(db *sql.DB) error {
	ftsSQL := `
		CREATE VIRTUAL TABLE IF NOT EXISTS concepts_fts USING fts5(
			id,
			name,
			description,
			content='concepts',
			content_rowid='rowid',
			tokenize='porter unicode61'
		)
	`
	if _, err := db.Exec(ftsSQL); err != nil {
		return fmt.Errorf("create FTS5 table: %w", err)
	}
	if _, err := db.Exec(`INSERT INTO concepts_fts(concepts_fts) VALUES('rebuild')`); err != nil {
		return fmt.Errorf("populate FTS index: %w", err)
	}
	return nil
}

// InsertMetaValue inserts or updates a metadata key-value pair.
func InsertMetaValue(db *sql.DB, key, value string) error {
	_, err := db.Exec(`INSERT OR REPLACE INTO export_meta (key, value) VALUES (?, ?)`, key, value)
	return err
}
