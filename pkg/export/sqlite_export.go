package export

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/vanderheijden86/conceptgraph/pkg/version"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// SQLiteExporter writes a snapshot into a fresh SQLite database.
type SQLiteExporter struct {
	Snapshot Snapshot
	Now      func() time.Time
	Logger   *zap.Logger
}

// SaveSQLite is a one-shot SQLiteExporter.Export.
func SaveSQLite(snap Snapshot, path string) error {
	return (&SQLiteExporter{Snapshot: snap}).Export(path)
}

// Export replaces any database at path with the snapshot contents.
func (e *SQLiteExporter) Export(path string) error {
	if path == "" {
		return fmt.Errorf("output path is required")
	}
	log := e.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing database: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := CreateSchema(db); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if err := e.insertConcepts(db); err != nil {
		return fmt.Errorf("insert concepts: %w", err)
	}
	if err := e.insertRelationships(db); err != nil {
		return fmt.Errorf("insert relationships: %w", err)
	}
	if err := CreateFTSIndex(db); err != nil {
		log.Warn("FTS5 not available", zap.Error(err))
	}
	if err := e.insertMeta(db); err != nil {
		return fmt.Errorf("insert meta: %w", err)
	}
	if _, err := db.Exec(`VACUUM`); err != nil {
		return fmt.Errorf("vacuum: %w", err)
	}
	return db.Close()
}

func (e *SQLiteExporter) insertConcepts(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO concepts (id, ord, name, kind, description, radius, color, visible, degree, x, y)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, n := range e.Snapshot.Nodes {
		var radius *float64
		if n.Radius > 0 {
			radius = &n.Radius
		}
		var color *string
		if n.Color != "" {
			color = &n.Color
		}
		_, err := stmt.Exec(n.ID, i, n.Name, string(n.Kind), n.Description,
			radius, color, n.Visible, n.Degree, n.X, n.Y)
		if err != nil {
			return fmt.Errorf("insert concept %s: %w", n.ID, err)
		}
	}
	return tx.Commit()
}

func (e *SQLiteExporter) insertRelationships(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO relationships (id, source, target, relationship) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, edge := range e.Snapshot.Edges {
		if _, err := stmt.Exec(i, edge.Source, edge.Target, edge.Relationship); err != nil {
			return fmt.Errorf("insert relationship %s: %w", edge, err)
		}
	}
	return tx.Commit()
}

func (e *SQLiteExporter) insertMeta(db *sql.DB) error {
	now := time.Now
	if e.Now != nil {
		now = e.Now
	}
	meta := map[string]string{
		"version":            version.Version,
		"generated_at":       now().UTC().Format(time.RFC3339),
		"concept_count":      strconv.Itoa(len(e.Snapshot.Nodes)),
		"relationship_count": strconv.Itoa(len(e.Snapshot.Edges)),
		"cluster_count":      strconv.Itoa(e.Snapshot.Clusters),
		"schema_version":     strconv.Itoa(SchemaVersion),
	}
	if e.Snapshot.DataHash != "" {
		meta["data_hash"] = e.Snapshot.DataHash
	}
	if e.Snapshot.Title != "" {
		meta["title"] = e.Snapshot.Title
	}
	for key, value := range meta {
		if err := InsertMetaValue(db, key, value); err != nil {
			return fmt.Errorf("insert meta %s: %w", key, err)
		}
	}
	return nil
}
