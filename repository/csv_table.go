package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"finance-agent/domain"
)

type ColumnKind int

const (
	TextColumn ColumnKind = iota
	RealColumn
	DateColumn
)

// Column maps a CSV header (Source) to a typed SQL column (Name).
type Column struct {
	Source string
	Name   string
	Kind   ColumnKind
}

type TableSchema struct {
	Name    string
	Columns []Column
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006/01/02",
	"01/02/2006",
}

// CSVTable exposes a CSV file as an in-memory SQLite table. Cells that do not
// convert to the column type are stored as NULL. The table is rebuilt when
// the file's size or modification time changes.
type CSVTable struct {
	path   string
	schema TableSchema
	log    logrus.FieldLogger

	mu      sync.RWMutex
	db      *sql.DB
	modTime time.Time
	size    int64
}

func NewCSVTable(path string, schema TableSchema, log logrus.FieldLogger) *CSVTable {
	return &CSVTable{
		path:   path,
		schema: schema,
		log:    log.WithFields(logrus.Fields{"component": "csv_table", "table": schema.Name}),
	}
}

// Query runs fn against the current table contents.
func (t *CSVTable) Query(ctx context.Context, fn func(ctx context.Context, db *sql.DB) error) error {
	if err := t.refresh(ctx); err != nil {
		return err
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return fn(ctx, t.db)
}

func (t *CSVTable) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.db == nil {
		return nil
	}
	err := t.db.Close()
	t.db = nil
	return err
}

func (t *CSVTable) refresh(ctx context.Context) error {
	info, err := os.Stat(t.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.NotFound("%s not found on server", filepath.Base(t.path))
		}
		return fmt.Errorf("stat %s: %w", t.path, err)
	}

	t.mu.RLock()
	current := t.db != nil && info.ModTime().Equal(t.modTime) && info.Size() == t.size
	t.mu.RUnlock()
	if current {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.db != nil && info.ModTime().Equal(t.modTime) && info.Size() == t.size {
		return nil
	}

	db, rows, err := t.load(ctx)
	if err != nil {
		return err
	}
	if t.db != nil {
		if err := t.db.Close(); err != nil {
			t.log.WithError(err).Warn("closing previous table")
		}
	}
	t.db = db
	t.modTime = info.ModTime()
	t.size = info.Size()
	t.log.WithFields(logrus.Fields{"path": t.path, "rows": rows}).Info("table loaded")
	return nil
}

func (t *CSVTable) load(ctx context.Context) (*sql.DB, int, error) {
	file, err := readCSV(t.path)
	if err != nil {
		return nil, 0, err
	}
	sources := make([]string, len(t.schema.Columns))
	for i, c := range t.schema.Columns {
		sources[i] = c.Source
	}
	if err := file.require(sources...); err != nil {
		return nil, 0, err
	}

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, 0, fmt.Errorf("open sqlite: %w", err)
	}
	// every connection to :memory: is its own database
	db.SetMaxOpenConns(1)

	if err := t.fill(ctx, db, file); err != nil {
		db.Close()
		return nil, 0, err
	}
	return db, len(file.rows), nil
}

func (t *CSVTable) fill(ctx context.Context, db *sql.DB, file *csvFile) error {
	defs := make([]string, len(t.schema.Columns))
	names := make([]string, len(t.schema.Columns))
	marks := make([]string, len(t.schema.Columns))
	for i, c := range t.schema.Columns {
		typ := "TEXT"
		if c.Kind == RealColumn {
			typ = "REAL"
		}
		defs[i] = c.Name + " " + typ
		names[i] = c.Name
		marks[i] = "?"
	}

	create := fmt.Sprintf("CREATE TABLE %s (%s)", t.schema.Name, strings.Join(defs, ", "))
	if _, err := db.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("create table %s: %w", t.schema.Name, err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin load: %w", err)
	}
	defer tx.Rollback()

	insert := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		t.schema.Name, strings.Join(names, ", "), strings.Join(marks, ", "))
	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	args := make([]any, len(t.schema.Columns))
	for _, row := range file.rows {
		for i, c := range t.schema.Columns {
			args[i] = convertCell(file.cell(row, c.Source), c.Kind)
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("insert into %s: %w", t.schema.Name, err)
		}
	}
	return tx.Commit()
}

func convertCell(raw string, kind ColumnKind) any {
	switch kind {
	case RealColumn:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil
		}
		return v
	case DateColumn:
		for _, layout := range dateLayouts {
			if d, err := time.Parse(layout, raw); err == nil {
				return d.Format("2006-01-02")
			}
		}
		return nil
	default:
		return raw
	}
}

// rangeFilter builds the WHERE conditions for an inclusive date range.
func rangeFilter(column string, r domain.DateRange) ([]string, []any) {
	var where []string
	var args []any
	if r.Start != "" {
		where = append(where, column+" >= ?")
		args = append(args, r.Start)
	}
	if r.End != "" {
		where = append(where, column+" <= ?")
		args = append(args, r.End)
	}
	return where, args
}

func whereSQL(conds []string) string {
	if len(conds) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(conds, " AND ")
}

func nullableString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func nullableFloat(f sql.NullFloat64) *float64 {
	if !f.Valid {
		return nil
	}
	v := f.Float64
	return &v
}
