package tableio

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/carbocation/rnaprep"
	"github.com/carbocation/rnaprep/dgelist"
	"github.com/gocarina/gocsv"
)

// WriteTable writes t with a header row. corner labels the column that holds
// the row labels.
func WriteTable(w io.Writer, t *rnaprep.CountTable, corner string, delim rune) error {
	cw := csv.NewWriter(w)
	cw.Comma = delim

	if err := cw.Write(append([]string{corner}, t.ColLabels()...)); err != nil {
		return err
	}

	nRows, nCols := t.Dims()
	rowLabels := t.RowLabels()
	record := make([]string, nCols+1)
	for i := 0; i < nRows; i++ {
		record[0] = rowLabels[i]
		for j, v := range t.Row(i) {
			record[j+1] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteSamples writes one row per library: sample, group, library size and
// normalization factor.
func WriteSamples(w io.Writer, samples []dgelist.Sample, delim rune) error {
	cw := csv.NewWriter(w)
	cw.Comma = delim

	return gocsv.MarshalCSV(samples, gocsv.NewSafeCSVWriter(cw))
}
