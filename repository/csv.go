package repository

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"finance-agent/domain"
)

// csvFile is a parsed CSV with a case-insensitive header index.
type csvFile struct {
	header map[string]int
	rows   [][]string
}

func readCSV(path string) (*csvFile, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.NotFound("%s not found on server", filepath.Base(path))
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	head, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, domain.SchemaMismatch("%s has no header row", filepath.Base(path))
		}
		return nil, fmt.Errorf("read header of %s: %w", path, err)
	}

	out := &csvFile{header: make(map[string]int, len(head))}
	for i, name := range head {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, dup := out.header[key]; !dup {
			out.header[key] = i
		}
	}

	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		out.rows = append(out.rows, rec)
	}
	return out, nil
}

// require fails with ErrSchemaMismatch naming every absent column.
func (c *csvFile) require(columns ...string) error {
	var missing []string
	for _, col := range columns {
		if _, ok := c.header[strings.ToLower(col)]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return domain.SchemaMismatch("missing columns in CSV: %v", missing)
}

// cell returns the trimmed value of column in row, or "" for short rows.
func (c *csvFile) cell(row []string, column string) string {
	i, ok := c.header[strings.ToLower(column)]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
