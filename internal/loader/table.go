package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// table is a header-indexed CSV reader.
type table struct {
	name   string
	r      *csv.Reader
	closer io.Closer
	index  map[string]int
	line   int
}

// openTable opens path and checks that all required columns are present.
func openTable(path string, required []string) (*table, error) {
	name := filepath.Base(path)
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &SchemaError{File: name, Msg: "file not found"}
		}
		return nil, fmt.Errorf("open %s: %w", name, err)
	}

	t, err := newTable(name, f, required)
	if err != nil {
		f.Close()
		return nil, err
	}
	t.closer = f
	return t, nil
}

func newTable(name string, r io.Reader, required []string) (*table, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &SchemaError{File: name, Msg: "empty file"}
		}
		return nil, &SchemaError{File: name, Line: 1, Msg: err.Error()}
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		index[h] = i
	}
	for _, col := range required {
		if _, ok := index[col]; !ok {
			return nil, &SchemaError{File: name, Column: col, Msg: "required column missing"}
		}
	}

	return &table{name: name, r: cr, index: index, line: 1}, nil
}

// next returns the next record or io.EOF.
func (t *table) next() ([]string, error) {
	rec, err := t.r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, &SchemaError{File: t.name, Line: t.line + 1, Msg: err.Error()}
	}
	t.line++
	return rec, nil
}

func (t *table) get(rec []string, col string) string {
	i, ok := t.index[col]
	if !ok || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func (t *table) has(col string) bool {
	_, ok := t.index[col]
	return ok
}

func (t *table) float(rec []string, col string) (float64, error) {
	raw := t.get(rec, col)
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &SchemaError{File: t.name, Line: t.line, Column: col, Msg: fmt.Sprintf("malformed number %q", raw)}
	}
	return v, nil
}

func (t *table) close() {
	if t.closer != nil {
		t.closer.Close()
	}
}
