package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Migration represents a database schema migration
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// MigrationVersion is a row of the schema_version table
type MigrationVersion struct {
	Version   int
	AppliedAt time.Time
}

// migrations is the ordered list of all database migrations
var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema with route_outcomes",
		SQL: `
CREATE TABLE IF NOT EXISTS route_outcomes (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    cycle_id TEXT NOT NULL,
    path TEXT NOT NULL,
    magic INTEGER NOT NULL,
    format TEXT NOT NULL,
    source TEXT NOT NULL,
    action TEXT NOT NULL,
    sample_name TEXT,
    sample_date TEXT,
    analysis_method TEXT,
    xml_path TEXT,
    pdf_path TEXT,
    errors TEXT,
    duration_ms INTEGER,
    recorded_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_route_outcomes_cycle ON route_outcomes(cycle_id);
CREATE INDEX IF NOT EXISTS idx_route_outcomes_path ON route_outcomes(path);
CREATE INDEX IF NOT EXISTS idx_route_outcomes_recorded ON route_outcomes(recorded_at DESC);
`,
	},
	{
		Version:     2,
		Description: "Add cycles table for per-cycle summaries",
		SQL: `
CREATE TABLE IF NOT EXISTS cycles (
    id TEXT PRIMARY KEY,
    root TEXT NOT NULL,
    started_at TIMESTAMP NOT NULL,
    duration_ms INTEGER,
    found INTEGER DEFAULT 0,
    scan_errors INTEGER DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_cycles_started ON cycles(started_at DESC);
`,
	},
}

// ApplyMigrations applies every pending migration in a single transaction
func (s *Store) ApplyMigrations(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("begin exclusive transaction: %w", err)
	}
	defer tx.Rollback() // no-op if committed

	if err := ensureSchemaVersionTableTx(ctx, tx); err != nil {
		return fmt.Errorf("ensure schema_version table: %w", err)
	}

	appliedVersions, err := getAppliedVersionsTx(ctx, tx)
	if err != nil {
		return fmt.Errorf("get applied versions: %w", err)
	}

	applied := make(map[int]bool)
	for _, v := range appliedVersions {
		applied[v.Version] = true
	}

	for _, migration := range migrations {
		if applied[migration.Version] {
			continue
		}

		if _, err := tx.ExecContext(ctx, migration.SQL); err != nil {
			return fmt.Errorf("apply migration %d (%s): %w", migration.Version, migration.Description, err)
		}

		if err := recordMigrationTx(ctx, tx, migration.Version); err != nil {
			return fmt.Errorf("record migration %d: %w", migration.Version, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migrations: %w", err)
	}

	return nil
}

// GetAppliedVersions retrieves all applied migration versions
func (s *Store) GetAppliedVersions(ctx context.Context) ([]*MigrationVersion, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT version, applied_at FROM schema_version ORDER BY version ASC`)
	if err != nil {
		return nil, fmt.Errorf("query schema versions: %w", err)
	}
	defer rows.Close()

	return scanVersions(rows)
}

// GetLatestVersion returns the latest applied migration version
func (s *Store) GetLatestVersion(ctx context.Context) (int, error) {
	var version int
	err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("query latest version: %w", err)
	}
	return version, nil
}

func ensureSchemaVersionTableTx(ctx context.Context, tx *sql.Tx) error {
	sqlStr := `
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`
	if _, err := tx.ExecContext(ctx, sqlStr); err != nil {
		return fmt.Errorf("create schema_version table: %w", err)
	}
	return nil
}

func getAppliedVersionsTx(ctx context.Context, tx *sql.Tx) ([]*MigrationVersion, error) {
	rows, err := tx.QueryContext(ctx, `SELECT version, applied_at FROM schema_version ORDER BY version ASC`)
	if err != nil {
		return nil, fmt.Errorf("query schema versions: %w", err)
	}
	defer rows.Close()

	return scanVersions(rows)
}

func recordMigrationTx(ctx context.Context, tx *sql.Tx, version int) error {
	if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO schema_version (version) VALUES (?)`, version); err != nil {
		return fmt.Errorf("insert migration version: %w", err)
	}
	return nil
}

func scanVersions(rows *sql.Rows) ([]*MigrationVersion, error) {
	var versions []*MigrationVersion
	for rows.Next() {
		v := &MigrationVersion{}
		if err := rows.Scan(&v.Version, &v.AppliedAt); err != nil {
			return nil, fmt.Errorf("scan version: %w", err)
		}
		versions = append(versions, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate versions: %w", err)
	}
	return versions, nil
}
