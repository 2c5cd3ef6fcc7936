package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/border-crossing-etl/internal/domain"
	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
)

// columnTypes are the SQLite affinities of domain.Columns, in order.
var columnTypes = []string{
	"TEXT",    // Port Name
	"TEXT",    // State
	"TEXT",    // Port Code
	"TEXT",    // Border
	"TEXT",    // Month
	"TEXT",    // Year
	"TEXT",    // Measure
	"INTEGER", // Value
	"REAL",    // Latitude
	"REAL",    // Longitude
}

// Store persists records into a single table of a SQLite file. Every call
// opens its own connection and closes it before returning, so the file is
// never left locked between stages.
// It implements pipeline.RecordStore.
type Store struct {
	path   string
	table  string
	logger *slog.Logger
}

// NewStore creates a Store for the table in the SQLite file at path. The file
// and its parent directory are created on first write.
func NewStore(path, table string, logger *slog.Logger) *Store {
	return &Store{path: path, table: table, logger: logger}
}

// Replace drops the table if it exists, recreates it, and inserts records in
// order, all in one transaction.
func (s *Store) Replace(ctx context.Context, records []domain.Record) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("%w: create store directory: %w", domain.ErrFileAccess, err)
	}

	db, err := openSQLite(ctx, s.path)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := replaceInTxn(ctx, db, s.table, records); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStore, err)
	}

	s.logger.Debug("table replaced", "path", s.path, "table", s.table, "records", len(records))
	return nil
}

// Records reads the whole table back in insertion order.
func (s *Store) Records(ctx context.Context) ([]domain.Record, error) {
	db, err := openExisting(ctx, s.path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, fmt.Sprintf("SELECT %s FROM %s ORDER BY rowid", columnList(), quoteIdent(s.table)))
	if err != nil {
		return nil, fmt.Errorf("%w: query %s: %w", domain.ErrStore, s.table, err)
	}
	defer rows.Close()

	var records []domain.Record
	for rows.Next() {
		var (
			r        domain.Record
			lat, lon float64
		)
		if err := rows.Scan(
			&r.PortName,
			&r.State,
			&r.PortCode,
			&r.Border,
			&r.Month,
			&r.Year,
			&r.Measure,
			&r.Value,
			&lat,
			&lon,
		); err != nil {
			return nil, fmt.Errorf("%w: scan %s: %w", domain.ErrStore, s.table, err)
		}
		r.Latitude = domain.Degrees(lat)
		r.Longitude = domain.Degrees(lon)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate %s: %w", domain.ErrStore, s.table, err)
	}

	return records, nil
}

// Count returns the number of rows in the table.
func (s *Store) Count(ctx context.Context) (int, error) {
	db, err := openExisting(ctx, s.path)
	if err != nil {
		return 0, err
	}
	defer db.Close()

	var n int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+quoteIdent(s.table)).Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: count %s: %w", domain.ErrStore, s.table, err)
	}
	return n, nil
}

// Schema returns the table's column names in declaration order.
func (s *Store) Schema(ctx context.Context) ([]string, error) {
	db, err := openExisting(ctx, s.path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, "SELECT name FROM pragma_table_info(?) ORDER BY cid", s.table)
	if err != nil {
		return nil, fmt.Errorf("%w: table info %s: %w", domain.ErrStore, s.table, err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("%w: table info %s: %w", domain.ErrStore, s.table, err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: table info %s: %w", domain.ErrStore, s.table, err)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: table %s does not exist", domain.ErrStore, s.table)
	}
	return names, nil
}

func openSQLite(ctx context.Context, path string) (*sql.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: open sqlite: path is empty", domain.ErrStore)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("%w: open sqlite: %w", domain.ErrStore, err)
	}
	// A single connection keeps the DDL and inserts on one handle.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: ping sqlite: %w", domain.ErrStore, err)
	}

	return db, nil
}

// openExisting opens path for reading without creating an empty database
// file when it is missing.
func openExisting(ctx context.Context, path string) (*sql.DB, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: store %s does not exist", domain.ErrStore, path)
		}
		return nil, fmt.Errorf("%w: stat store: %w", domain.ErrFileAccess, err)
	}
	return openSQLite(ctx, path)
}

func replaceInTxn(ctx context.Context, db *sql.DB, table string, records []domain.Record) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace txn: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := createTable(ctx, tx, table); err != nil {
		return err
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(domain.Columns)), ", ")
	insert, err := tx.PrepareContext(ctx, fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)", quoteIdent(table), columnList(), placeholders))
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer func() { _ = insert.Close() }()

	for i := range records {
		r := &records[i]
		_, err = insert.ExecContext(
			ctx,
			r.PortName,
			r.State,
			r.PortCode,
			r.Border,
			r.Month,
			r.Year,
			r.Measure,
			r.Value,
			float64(r.Latitude),
			float64(r.Longitude),
		)
		if err != nil {
			return fmt.Errorf("insert record %d (%s %s %s): %w", i, r.PortCode, r.Month, r.Year, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace txn: %w", err)
	}
	committed = true

	return nil
}

func createTable(ctx context.Context, tx *sql.Tx, table string) error {
	defs := make([]string, len(domain.Columns))
	for i, name := range domain.Columns {
		defs[i] = quoteIdent(name) + " " + columnTypes[i]
	}

	statements := []string{
		"DROP TABLE IF EXISTS " + quoteIdent(table),
		fmt.Sprintf("CREATE TABLE %s (\n\t%s\n)", quoteIdent(table), strings.Join(defs, ",\n\t")),
	}

	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema statement %q: %w", stmt, err)
		}
	}
	return nil
}

func columnList() string {
	quoted := make([]string, len(domain.Columns))
	for i, name := range domain.Columns {
		quoted[i] = quoteIdent(name)
	}
	return strings.Join(quoted, ", ")
}

// quoteIdent quotes a SQL identifier; column names contain spaces.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
