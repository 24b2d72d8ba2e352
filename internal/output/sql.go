// internal/output/sql.go
package output

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	_ "github.com/lib/pq"              // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3"    // SQLite driver

	"github.com/valpere/FAQScrapexter/pkg/types"
)

// DefaultTable is the table records are stored in when none is configured
const DefaultTable = "faq_records"

// sqlDialect captures the per-driver differences the SQL writer cares about.
type sqlDialect struct {
	driver      string
	idColumn    string
	textType    string
	timeType    string
	placeholder func(n int) string
	quote       func(ident string) string
}

var dialects = map[OutputFormat]sqlDialect{
	FormatSQLite: {
		driver:      "sqlite3",
		idColumn:    "id INTEGER PRIMARY KEY AUTOINCREMENT",
		textType:    "TEXT",
		timeType:    "DATETIME",
		placeholder: func(int) string { return "?" },
		quote:       func(s string) string { return `"` + s + `"` },
	},
	FormatMySQL: {
		driver:      "mysql",
		idColumn:    "id BIGINT AUTO_INCREMENT PRIMARY KEY",
		textType:    "LONGTEXT",
		timeType:    "DATETIME(6)",
		placeholder: func(int) string { return "?" },
		quote:       func(s string) string { return "`" + s + "`" },
	},
	FormatPostgreSQL: {
		driver:      "postgres",
		idColumn:    "id BIGSERIAL PRIMARY KEY",
		textType:    "TEXT",
		timeType:    "TIMESTAMPTZ",
		placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
		quote:       func(s string) string { return `"` + s + `"` },
	},
}

// sqlColumns is the insert column order: run metadata plus recordColumns.
var sqlColumns = append([]string{"run_id"}, append(append([]string{}, recordColumns...), "created_at")...)

// SQLOptions configures a SQL record writer.
type SQLOptions struct {
	Format OutputFormat
	// DSN is a file path for SQLite and a driver connection string otherwise.
	DSN     string
	Table   string
	RunID   string
	Timeout time.Duration
}

// SQLWriter stores one row per record in a SQLite, MySQL or PostgreSQL table
type SQLWriter struct {
	db      *sql.DB
	dialect sqlDialect
	table   string
	runID   string
	timeout time.Duration
	now     func() time.Time
}

// NewSQLWriter opens the database, verifies the connection and creates the
// record table when it does not exist.
func NewSQLWriter(opts SQLOptions) (*SQLWriter, error) {
	dialect, ok := dialects[opts.Format]
	if !ok {
		return nil, fmt.Errorf("unsupported SQL format: %s", opts.Format)
	}
	if opts.DSN == "" {
		return nil, fmt.Errorf("%s connection string is required", opts.Format)
	}
	if opts.Table == "" {
		opts.Table = DefaultTable
	}
	if err := ValidateSQLIdentifier(opts.Table); err != nil {
		return nil, fmt.Errorf("invalid table name: %w", err)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	dsn := opts.DSN
	if opts.Format == FormatSQLite {
		if dir := filepath.Dir(dsn); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		if !strings.Contains(dsn, "?") {
			dsn += "?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on"
		}
	}

	db, err := sql.Open(dialect.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", opts.Format, err)
	}

	w := &SQLWriter{
		db:      db,
		dialect: dialect,
		table:   opts.Table,
		runID:   opts.RunID,
		timeout: opts.Timeout,
		now:     time.Now,
	}

	ctx, cancel := context.WithTimeout(context.Background(), opts.Timeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping %s: %w", opts.Format, err)
	}

	if opts.Format == FormatSQLite {
		// single writer
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	if err := w.createTable(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return w, nil
}

func (w *SQLWriter) createTable(ctx context.Context) error {
	defs := []string{w.dialect.idColumn, w.dialect.quote("run_id") + " VARCHAR(64) NOT NULL"}
	for _, c := range recordColumns {
		defs = append(defs, w.dialect.quote(c)+" "+w.dialect.textType)
	}
	defs = append(defs, w.dialect.quote("created_at")+" "+w.dialect.timeType+" NOT NULL")

	query := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)",
		w.dialect.quote(w.table), strings.Join(defs, ",\n\t"))
	if _, err := w.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create table '%s': %w", w.table, err)
	}
	return nil
}

func (w *SQLWriter) insertQuery() string {
	cols := make([]string, len(sqlColumns))
	marks := make([]string, len(sqlColumns))
	for i, c := range sqlColumns {
		cols[i] = w.dialect.quote(c)
		marks[i] = w.dialect.placeholder(i + 1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		w.dialect.quote(w.table), strings.Join(cols, ", "), strings.Join(marks, ", "))
}

// Write inserts records in a single transaction
func (w *SQLWriter) Write(records []types.Record) error {
	if len(records) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, w.insertQuery())
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	createdAt := w.now().UTC()
	for i, r := range records {
		row, err := recordRow(r)
		if err != nil {
			return err
		}
		args := make([]interface{}, 0, len(sqlColumns))
		args = append(args, w.runID)
		for _, v := range row {
			args = append(args, v)
		}
		args = append(args, createdAt)

		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("failed to insert record %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// Close closes the database handle
func (w *SQLWriter) Close() error {
	if w.db == nil {
		return nil
	}
	err := w.db.Close()
	w.db = nil
	return err
}
