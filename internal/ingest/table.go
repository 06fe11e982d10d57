// ABOUTME: Header-indexed CSV reading shared by every ingest format.
// ABOUTME: Columns are matched by name, case-insensitively, in any order.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// table is a CSV body with its header row resolved to column indexes.
type table struct {
	name   string
	header map[string]int
	rows   [][]string
}

// readTable reads r after skipping preamble lines. The first remaining line
// is the header.
func readTable(name string, r io.Reader, preamble int) (*table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	for i := 0; i < preamble; i++ {
		if _, err := cr.Read(); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("%s: missing header row", name)
			}
			return nil, fmt.Errorf("read %s preamble: %w", name, err)
		}
	}

	head, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%s: missing header row", name)
		}
		return nil, fmt.Errorf("read %s header: %w", name, err)
	}
	t := &table{name: name, header: make(map[string]int, len(head))}
	for i, h := range head {
		key := normalizeHeader(h)
		if _, dup := t.header[key]; !dup {
			t.header[key] = i
		}
	}

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s rows: %w", name, err)
	}
	t.rows = rows
	return t, nil
}

func normalizeHeader(h string) string {
	return strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
}

// require fails unless every named column is present.
func (t *table) require(cols ...string) error {
	var missing []string
	for _, c := range cols {
		if !t.has(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%s: missing columns %s", t.name, strings.Join(missing, ", "))
	}
	return nil
}

func (t *table) has(col string) bool {
	_, ok := t.header[normalizeHeader(col)]
	return ok
}

// str returns the trimmed cell for col, or "" when the column or cell is absent.
func (t *table) str(row []string, col string) string {
	i, ok := t.header[normalizeHeader(col)]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// first returns the first non-empty cell among cols.
func (t *table) first(row []string, cols ...string) string {
	for _, c := range cols {
		if v := t.str(row, c); v != "" {
			return v
		}
	}
	return ""
}

// float parses a numeric cell. Blank and NA cells read as zero.
func (t *table) float(row []string, line int, col string) (float64, error) {
	f, _, err := t.number(row, line, col)
	return f, err
}

// number parses a numeric cell, reporting ok=false for blank and NA cells.
func (t *table) number(row []string, line int, col string) (f float64, ok bool, err error) {
	v := t.str(row, col)
	if isBlank(v) {
		return 0, false, nil
	}
	f, err = strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false, fmt.Errorf("%s line %d: column %q: invalid number %q", t.name, line, col, v)
	}
	return f, true, nil
}

// floats parses several numeric cells into the given destinations.
func (t *table) floats(row []string, line int, cols map[string]*float64) error {
	for col, dst := range cols {
		f, err := t.float(row, line, col)
		if err != nil {
			return err
		}
		*dst = f
	}
	return nil
}

func isBlank(v string) bool {
	switch strings.ToLower(v) {
	case "", "na", "nan", "null", "none":
		return true
	}
	return false
}

// parseBool accepts 1/0, true/false and yes/no.
func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "1.0", "true", "yes", "y", "t":
		return true
	}
	return false
}

// lineOf is the 1-based file line of data row i.
func lineOf(preamble, i int) int {
	return preamble + i + 2
}
