// Package dataset holds the immutable in-memory table the analysis pipeline
// runs over, plus the sampling helpers that derive group samples from it.
package dataset

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"gocompare/domain/core"
)

// Frame is a rectangular table of observations: one header per column, one
// string cell per row/column. Cells keep their raw text form; numeric
// interpretation happens at sampling time so categorical and numeric
// variables can share one representation.
//
// A Frame is never mutated after construction.
type Frame struct {
	Headers []string
	Rows    [][]string

	index map[string]int
}

// NewFrame builds a frame from headers and rows. Rows shorter than the
// header are padded with empty (missing) cells; longer rows are an error.
func NewFrame(headers []string, rows [][]string) (*Frame, error) {
	if len(headers) == 0 {
		return nil, fmt.Errorf("%w: no header row", core.ErrInvalidFrame)
	}

	index := make(map[string]int, len(headers))
	for i, h := range headers {
		name := strings.TrimSpace(h)
		if name == "" {
			return nil, fmt.Errorf("%w: blank column name at position %d", core.ErrInvalidFrame, i)
		}
		if _, dup := index[name]; dup {
			return nil, fmt.Errorf("%w: duplicate column %q", core.ErrInvalidFrame, name)
		}
		index[name] = i
	}

	normalized := make([][]string, len(rows))
	for r, row := range rows {
		if len(row) > len(headers) {
			return nil, fmt.Errorf("%w: row %d has %d cells, header has %d", core.ErrInvalidFrame, r, len(row), len(headers))
		}
		cells := make([]string, len(headers))
		copy(cells, row)
		normalized[r] = cells
	}

	trimmed := make([]string, len(headers))
	for i, h := range headers {
		trimmed[i] = strings.TrimSpace(h)
	}

	return &Frame{Headers: trimmed, Rows: normalized, index: index}, nil
}

// RowCount returns the number of observation rows.
func (f *Frame) RowCount() int {
	return len(f.Rows)
}

// ColumnCount returns the number of columns.
func (f *Frame) ColumnCount() int {
	return len(f.Headers)
}

// HasColumn reports whether a column with the given name exists.
func (f *Frame) HasColumn(name string) bool {
	_, ok := f.index[name]
	return ok
}

// Column returns the raw cells of the named column.
func (f *Frame) Column(name string) ([]string, error) {
	i, ok := f.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: column %q", core.ErrVariableNotFound, name)
	}
	cells := make([]string, len(f.Rows))
	for r, row := range f.Rows {
		cells[r] = row[i]
	}
	return cells, nil
}

// GroupLabels returns the distinct non-missing labels observed in the group
// column, sorted lexicographically. Iteration over groups always follows
// this order so output is deterministic.
func (f *Frame) GroupLabels(groupColumn string) ([]string, error) {
	cells, err := f.Column(groupColumn)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var labels []string
	for _, c := range cells {
		label := strings.TrimSpace(c)
		if label == "" || seen[label] {
			continue
		}
		seen[label] = true
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels, nil
}

// NumericSample returns the non-missing numeric values of variable restricted
// to rows whose group column equals label. Empty cells and cells that do not
// parse as numbers count as missing and are dropped, never imputed.
func (f *Frame) NumericSample(groupColumn, label string, variable core.VariableKey) ([]float64, error) {
	gi, ok := f.index[groupColumn]
	if !ok {
		return nil, fmt.Errorf("%w: group column %q", core.ErrVariableNotFound, groupColumn)
	}
	vi, ok := f.index[variable.String()]
	if !ok {
		return nil, fmt.Errorf("%w: column %q", core.ErrVariableNotFound, variable)
	}

	var sample []float64
	for _, row := range f.Rows {
		if strings.TrimSpace(row[gi]) != label {
			continue
		}
		v, missing := parseCell(row[vi])
		if missing {
			continue
		}
		sample = append(sample, v)
	}
	return sample, nil
}

// CategoricalPairs returns (group label, category) pairs for rows where both
// the group column and the variable are non-missing, in row order. This is
// the raw material for a contingency table.
func (f *Frame) CategoricalPairs(groupColumn string, variable core.VariableKey) ([][2]string, error) {
	gi, ok := f.index[groupColumn]
	if !ok {
		return nil, fmt.Errorf("%w: group column %q", core.ErrVariableNotFound, groupColumn)
	}
	vi, ok := f.index[variable.String()]
	if !ok {
		return nil, fmt.Errorf("%w: column %q", core.ErrVariableNotFound, variable)
	}

	var pairs [][2]string
	for _, row := range f.Rows {
		g := strings.TrimSpace(row[gi])
		v := strings.TrimSpace(row[vi])
		if g == "" || v == "" {
			continue
		}
		pairs = append(pairs, [2]string{g, v})
	}
	return pairs, nil
}

// Fingerprint computes a deterministic hash of the frame contents, used to
// tie a stored run back to the exact dataset it analyzed.
func (f *Frame) Fingerprint() core.FrameHash {
	var b strings.Builder
	b.WriteString(strings.Join(f.Headers, "\x1f"))
	for _, row := range f.Rows {
		b.WriteString("\x1e")
		b.WriteString(strings.Join(row, "\x1f"))
	}
	return core.NewFrameHash([]byte(b.String()))
}

// parseCell interprets one cell as a numeric observation. The second return
// is true when the cell is missing (blank or non-numeric).
func parseCell(cell string) (float64, bool) {
	s := strings.TrimSpace(cell)
	if s == "" {
		return 0, true
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, true
	}
	return v, false
}
