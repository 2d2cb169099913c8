// Package history keeps an audit ledger of routing outcomes in SQLite.
// The ledger is never consulted to decide whether a file is processed.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/harrison/chrouter/internal/models"
	_ "github.com/mattn/go-sqlite3"
)

// Entry is one recorded routing outcome.
type Entry struct {
	ID         int64
	CycleID    string
	Path       string
	Magic      int32
	Format     string
	Source     string
	Action     string
	Metadata   models.SampleMetadata
	XMLPath    string
	PDFPath    string
	Errors     []string
	Duration   time.Duration
	RecordedAt time.Time
}

// Stats summarizes the ledger.
type Stats struct {
	Cycles   int
	Outcomes int
	// ByAction counts outcomes per RouteOutcome.Action value.
	ByAction map[string]int
	Failed   int
	LastSeen time.Time
}

// Store manages the SQLite history database
type Store struct {
	db     *sql.DB
	dbPath string
}

// NewStore creates a new Store instance and initializes the database
func NewStore(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}
	return openAndInitStore(dbPath)
}

func openAndInitStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One writer; also keeps an in-memory database on a single connection.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA busy_timeout=5000", // Must be first
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
	}
	for _, pragma := range pragmas {
		if err := execWithRetry(db, pragma, 5, 10*time.Millisecond); err != nil {
			db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	store := &Store{db: db, dbPath: dbPath}
	if err := store.ApplyMigrations(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}
	return store, nil
}

// execWithRetry executes a SQL statement with exponential backoff retry on lock errors.
func execWithRetry(db *sql.DB, stmt string, maxRetries int, baseDelay time.Duration) error {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		_, err := db.Exec(stmt)
		if err == nil {
			return nil
		}
		if !strings.Contains(err.Error(), "database is locked") {
			return err
		}
		lastErr = err
		time.Sleep(baseDelay * time.Duration(1<<attempt))
	}
	return lastErr
}

// Path returns the database path the store was opened with.
func (s *Store) Path() string {
	return s.dbPath
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// RecordCycle stores the summary row of a cycle.
func (s *Store) RecordCycle(ctx context.Context, report models.CycleReport) error {
	query := `INSERT OR REPLACE INTO cycles (id, root, started_at, duration_ms, found, scan_errors)
VALUES (?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query,
		report.ID, report.Root, report.StartedAt.UTC(),
		report.Duration.Milliseconds(), report.Found, len(report.ScanErrors))
	if err != nil {
		return fmt.Errorf("insert cycle %s: %w", report.ID, err)
	}
	return nil
}

// RecordOutcome appends one routing outcome to the ledger.
func (s *Store) RecordOutcome(ctx context.Context, cycleID string, out models.RouteOutcome) error {
	errs := make([]string, 0, len(out.Errors))
	for _, e := range out.Errors {
		errs = append(errs, e.Error())
	}
	errsJSON, err := json.Marshal(errs)
	if err != nil {
		return fmt.Errorf("marshal errors: %w", err)
	}

	query := `INSERT INTO route_outcomes (
    cycle_id, path, magic, format, source, action,
    sample_name, sample_date, analysis_method,
    xml_path, pdf_path, errors, duration_ms, recorded_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = s.db.ExecContext(ctx, query,
		cycleID, out.Path, out.Magic, out.Kind.String(), string(out.Source), out.Action(),
		out.Metadata.SampleName, out.Metadata.SampleDate, out.Metadata.AnalysisMethod,
		out.XMLPath, out.PDFPath, string(errsJSON), out.Duration.Milliseconds(), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("insert outcome for %s: %w", out.Path, err)
	}
	return nil
}

// Recent returns up to limit entries, most recent first. A limit <= 0
// returns every entry.
func (s *Store) Recent(ctx context.Context, limit int) ([]*Entry, error) {
	query := `SELECT id, cycle_id, path, magic, format, source, action,
    sample_name, sample_date, analysis_method,
    xml_path, pdf_path, errors, duration_ms, recorded_at
FROM route_outcomes ORDER BY id DESC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		e := &Entry{}
		var (
			name, date, method, xmlPath, pdfPath, errsJSON sql.NullString
			durationMS                                     sql.NullInt64
		)
		if err := rows.Scan(&e.ID, &e.CycleID, &e.Path, &e.Magic, &e.Format, &e.Source, &e.Action,
			&name, &date, &method, &xmlPath, &pdfPath, &errsJSON, &durationMS, &e.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		e.Metadata = models.SampleMetadata{SampleName: name.String, SampleDate: date.String, AnalysisMethod: method.String}
		e.XMLPath = xmlPath.String
		e.PDFPath = pdfPath.String
		e.Duration = time.Duration(durationMS.Int64) * time.Millisecond
		if errsJSON.Valid && errsJSON.String != "" {
			if err := json.Unmarshal([]byte(errsJSON.String), &e.Errors); err != nil {
				return nil, fmt.Errorf("unmarshal errors of outcome %d: %w", e.ID, err)
			}
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outcomes: %w", err)
	}
	return entries, nil
}

// Stats aggregates the ledger.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{ByAction: make(map[string]int)}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cycles`).Scan(&stats.Cycles); err != nil {
		return nil, fmt.Errorf("count cycles: %w", err)
	}

	byAction, err := s.countByAction(ctx)
	if err != nil {
		return nil, err
	}
	for action, n := range byAction {
		stats.ByAction[action] = n
		stats.Outcomes += n
	}

	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM route_outcomes WHERE errors IS NOT NULL AND errors != '[]'`,
	).Scan(&stats.Failed); err != nil {
		return nil, fmt.Errorf("count failed outcomes: %w", err)
	}

	var last sql.NullTime
	if err := s.db.QueryRowContext(ctx,
		`SELECT recorded_at FROM route_outcomes ORDER BY id DESC LIMIT 1`,
	).Scan(&last); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("query last outcome: %w", err)
	}
	if last.Valid {
		stats.LastSeen = last.Time
	}

	return stats, nil
}

// countByAction closes its rows before returning; the store runs on a
// single connection.
func (s *Store) countByAction(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT action, COUNT(*) FROM route_outcomes GROUP BY action`)
	if err != nil {
		return nil, fmt.Errorf("count outcomes: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			action string
			n      int
		)
		if err := rows.Scan(&action, &n); err != nil {
			return nil, fmt.Errorf("scan action count: %w", err)
		}
		counts[action] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate action counts: %w", err)
	}
	return counts, nil
}
