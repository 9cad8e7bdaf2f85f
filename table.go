// Package rnaprep holds the shared data model for preparing gene expression
// count matrices: the labelled count table, the sample metadata table, and the
// error values that the filtering and normalization packages agree on.
package rnaprep

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// CountTable is a labelled matrix. By convention rows are genes and columns
// are samples, though a transposed table swaps the two. A CountTable is never
// modified after construction; every operation returns a new table.
type CountTable struct {
	rows []string
	cols []string

	// data is nil when either dimension is zero, since mat.Dense cannot
	// represent an empty matrix.
	data *mat.Dense
}

// NewCountTable builds a table from row-major data. All values must be finite
// and non-negative, labels must be non-empty, and labels must be unique within
// each axis.
func NewCountTable(rows, cols []string, data []float64) (*CountTable, error) {
	if len(data) != len(rows)*len(cols) {
		return nil, fmt.Errorf("%w: %d values for a %dx%d table", ErrInvalidTable, len(data), len(rows), len(cols))
	}

	for i, v := range data {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: value %v at row %q column %q is not a non-negative count", ErrInvalidTable, v, rows[i/len(cols)], cols[i%len(cols)])
		}
	}

	var m *mat.Dense
	if len(data) > 0 {
		m = mat.NewDense(len(rows), len(cols), append([]float64(nil), data...))
	}

	return newLabelled(rows, cols, m)
}

// NewTableFromDense wraps an existing matrix with labels. Unlike NewCountTable
// it accepts any finite value, so that scaled or log-transformed tables can be
// represented. The matrix is copied.
func NewTableFromDense(rows, cols []string, m *mat.Dense) (*CountTable, error) {
	if m == nil {
		if len(rows) != 0 && len(cols) != 0 {
			return nil, fmt.Errorf("%w: no data for a %dx%d table", ErrInvalidTable, len(rows), len(cols))
		}
		return newLabelled(rows, cols, nil)
	}

	r, c := m.Dims()
	if r != len(rows) || c != len(cols) {
		return nil, fmt.Errorf("%w: %dx%d matrix with %d row and %d column labels", ErrInvalidTable, r, c, len(rows), len(cols))
	}

	return newLabelled(rows, cols, mat.DenseCopyOf(m))
}

func newLabelled(rows, cols []string, m *mat.Dense) (*CountTable, error) {
	if err := checkLabels("row", rows); err != nil {
		return nil, err
	}
	if err := checkLabels("column", cols); err != nil {
		return nil, err
	}

	return &CountTable{
		rows: append([]string(nil), rows...),
		cols: append([]string(nil), cols...),
		data: m,
	}, nil
}

func checkLabels(axis string, labels []string) error {
	seen := make(map[string]struct{}, len(labels))
	for i, l := range labels {
		if l == "" {
			return fmt.Errorf("%w: %s %d has no label", ErrInvalidTable, axis, i)
		}
		if _, exists := seen[l]; exists {
			return fmt.Errorf("%w: duplicate %s label %q", ErrInvalidTable, axis, l)
		}
		seen[l] = struct{}{}
	}

	return nil
}

// Dims returns the number of rows and columns.
func (t *CountTable) Dims() (r, c int) {
	return len(t.rows), len(t.cols)
}

// Empty reports whether either axis has length zero.
func (t *CountTable) Empty() bool {
	return len(t.rows) == 0 || len(t.cols) == 0
}

func (t *CountTable) At(i, j int) float64 {
	return t.data.At(i, j)
}

// RowLabels returns a copy of the row labels.
func (t *CountTable) RowLabels() []string {
	return append([]string(nil), t.rows...)
}

// ColLabels returns a copy of the column labels.
func (t *CountTable) ColLabels() []string {
	return append([]string(nil), t.cols...)
}

// ColIndex returns the position of the column with the given label.
func (t *CountTable) ColIndex(label string) (int, bool) {
	for j, l := range t.cols {
		if l == label {
			return j, true
		}
	}
	return -1, false
}

// Row returns a copy of row i.
func (t *CountTable) Row(i int) []float64 {
	return mat.Row(nil, i, t.data)
}

// Col returns a copy of column j.
func (t *CountTable) Col(j int) []float64 {
	return mat.Col(nil, j, t.data)
}

// Cols returns every column as its own slice, which is the layout the
// normalization routines work on.
func (t *CountTable) Cols() [][]float64 {
	out := make([][]float64, len(t.cols))
	for j := range out {
		if t.data == nil {
			out[j] = []float64{}
			continue
		}
		out[j] = t.Col(j)
	}
	return out
}

// ColSums returns the total of each column. For a genes x samples table these
// are the library sizes.
func (t *CountTable) ColSums() []float64 {
	sums := make([]float64, len(t.cols))
	if t.data == nil {
		return sums
	}
	for j := range sums {
		sums[j] = floats.Sum(t.Col(j))
	}
	return sums
}

// Dense returns a copy of the underlying matrix, or nil for an empty table.
func (t *CountTable) Dense() *mat.Dense {
	if t.data == nil {
		return nil
	}
	return mat.DenseCopyOf(t.data)
}

// SelectColumns returns a table holding the given columns, in the given order.
func (t *CountTable) SelectColumns(idx []int) *CountTable {
	cols := make([]string, len(idx))
	for k, j := range idx {
		cols[k] = t.cols[j]
	}

	out := &CountTable{rows: t.RowLabels(), cols: cols}
	if len(t.rows) == 0 || len(idx) == 0 {
		return out
	}

	out.data = mat.NewDense(len(t.rows), len(idx), nil)
	for k, j := range idx {
		out.data.SetCol(k, t.Col(j))
	}

	return out
}

// SelectRows returns a table holding the given rows, in the given order.
func (t *CountTable) SelectRows(idx []int) *CountTable {
	rows := make([]string, len(idx))
	for k, i := range idx {
		rows[k] = t.rows[i]
	}

	out := &CountTable{rows: rows, cols: t.ColLabels()}
	if len(t.cols) == 0 || len(idx) == 0 {
		return out
	}

	out.data = mat.NewDense(len(idx), len(t.cols), nil)
	for k, i := range idx {
		out.data.SetRow(k, t.Row(i))
	}

	return out
}

// Transpose swaps rows and columns, labels included.
func (t *CountTable) Transpose() *CountTable {
	out := &CountTable{rows: t.ColLabels(), cols: t.RowLabels()}
	if t.data != nil {
		out.data = mat.DenseCopyOf(t.data.T())
	}
	return out
}

// Apply returns a table with fn applied to every value.
func (t *CountTable) Apply(fn func(v float64) float64) *CountTable {
	out := &CountTable{rows: t.RowLabels(), cols: t.ColLabels()}
	if t.data == nil {
		return out
	}

	out.data = &mat.Dense{}
	out.data.Apply(func(_, _ int, v float64) float64 { return fn(v) }, t.data)

	return out
}

// ScaleCols returns a table with column j multiplied by f[j]. f must have one
// entry per column.
func (t *CountTable) ScaleCols(f []float64) *CountTable {
	out := &CountTable{rows: t.RowLabels(), cols: t.ColLabels()}
	if t.data == nil {
		return out
	}

	out.data = &mat.Dense{}
	out.data.Mul(t.data, mat.NewDiagDense(len(f), append([]float64(nil), f...)))

	return out
}

// Equal reports whether both tables carry the same labels in the same order
// and identical values.
func (t *CountTable) Equal(o *CountTable) bool {
	if t == nil || o == nil {
		return t == o
	}
	if !equalStrings(t.rows, o.rows) || !equalStrings(t.cols, o.cols) {
		return false
	}
	if t.data == nil || o.data == nil {
		return t.data == nil && o.data == nil
	}

	return mat.Equal(t.data, o.data)
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
