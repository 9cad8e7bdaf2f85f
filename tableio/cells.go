package tableio

import "github.com/carbocation/rnaprep"

// Cell is one value of a table in long format.
type Cell struct {
	RowID string  `db:"row_id" bigquery:"row_id"`
	ColID string  `db:"col_id" bigquery:"col_id"`
	Value float64 `db:"value" bigquery:"value"`
}

// Cells flattens t in row-major order.
func Cells(t *rnaprep.CountTable) []Cell {
	if t.Empty() {
		return nil
	}

	nRows, nCols := t.Dims()
	rows, cols := t.RowLabels(), t.ColLabels()

	out := make([]Cell, 0, nRows*nCols)
	for i := 0; i < nRows; i++ {
		for j, v := range t.Row(i) {
			out = append(out, Cell{RowID: rows[i], ColID: cols[j], Value: v})
		}
	}
	return out
}
