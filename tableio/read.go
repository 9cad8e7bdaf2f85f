package tableio

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/carbocation/rnaprep"
	"github.com/csimplestring/go-csv/detector"
)

// sniffBytes is how much of a stream DetermineDelimiter examines.
const sniffBytes = 64 * 1024

// DetermineDelimiter returns the single most likely rune that would delimit the
// values in the reader, assuming a CSV-like file. It peeks, so nothing is
// consumed from r.
func DetermineDelimiter(r *bufio.Reader) rune {
	head, _ := r.Peek(sniffBytes)

	// Only offer whole lines to the detector.
	if i := bytes.LastIndexByte(head, '\n'); i > 0 {
		head = head[:i+1]
	}

	d := detector.New()
	delimiters := d.DetectDelimiter(bytes.NewReader(head), '"')
	if len(delimiters) > 0 {
		return rune(delimiters[0][0])
	}

	return ','
}

func newCSVReader(r io.Reader, delim rune) *csv.Reader {
	cr := csv.NewReader(r)
	cr.Comma = delim
	cr.Comment = '#'
	cr.LazyQuotes = true
	cr.ReuseRecord = true
	return cr
}

// ReadCountTable parses a genes x samples table. The first header cell names
// the gene identifier column and the remaining header cells are sample
// identifiers. A delim of zero is detected from the data.
func ReadCountTable(r io.Reader, delim rune) (*rnaprep.CountTable, error) {
	br := bufio.NewReaderSize(r, sniffBytes)
	if delim == 0 {
		delim = DetermineDelimiter(br)
	}
	cr := newCSVReader(br, delim)

	var (
		samples []string
		genes   []string
		data    []float64
	)
	for i := 0; ; i++ {
		cols, err := cr.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, err
		}

		if i == 0 {
			if len(cols) < 2 {
				return nil, fmt.Errorf("Expected a gene column and at least one sample column, but the header has %d columns", len(cols))
			}
			samples = make([]string, len(cols)-1)
			for j, v := range cols[1:] {
				samples[j] = strings.TrimSpace(v)
			}
			continue
		}

		genes = append(genes, strings.TrimSpace(cols[0]))
		for j, v := range cols[1:] {
			count, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return nil, fmt.Errorf("Line %d, sample %s: %w", i+1, samples[j], err)
			}
			data = append(data, count)
		}
	}

	if samples == nil {
		return nil, fmt.Errorf("%w: count table has no header", rnaprep.ErrInvalidTable)
	}

	return rnaprep.NewCountTable(genes, samples, data)
}

// ReadMetadata parses a sample metadata table with a header row. A delim of
// zero is detected from the data.
func ReadMetadata(r io.Reader, delim rune) (*rnaprep.SampleMetadata, error) {
	br := bufio.NewReaderSize(r, sniffBytes)
	if delim == 0 {
		delim = DetermineDelimiter(br)
	}
	cr := newCSVReader(br, delim)
	cr.ReuseRecord = false

	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: metadata has no header", rnaprep.ErrInvalidTable)
	}

	for _, rec := range records {
		for j := range rec {
			rec[j] = strings.TrimSpace(rec[j])
		}
	}

	return rnaprep.NewSampleMetadata(records[0], records[1:])
}
