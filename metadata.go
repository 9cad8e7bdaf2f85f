package rnaprep

import (
	"fmt"
	"strconv"
)

// DefaultKeyName is the metadata column that, unless told otherwise, holds
// the sample identifiers matching the count table's column labels.
const DefaultKeyName = "lib.id"

// KeyColumn identifies a metadata column either by header name or by
// zero-based position. The zero value refers to DefaultKeyName.
type KeyColumn struct {
	name    string
	index   int
	byIndex bool
}

func KeyByName(name string) KeyColumn {
	return KeyColumn{name: name}
}

func KeyByIndex(index int) KeyColumn {
	return KeyColumn{index: index, byIndex: true}
}

func (k KeyColumn) String() string {
	if k.byIndex {
		return "#" + strconv.Itoa(k.index)
	}
	if k.name == "" {
		return DefaultKeyName
	}
	return k.name
}

// SampleMetadata is a string table with one row per sample.
type SampleMetadata struct {
	header []string
	rows   [][]string
}

// NewSampleMetadata copies header and rows; every row must have one field per
// header column.
func NewSampleMetadata(header []string, rows [][]string) (*SampleMetadata, error) {
	m := &SampleMetadata{
		header: append([]string(nil), header...),
		rows:   make([][]string, 0, len(rows)),
	}

	for i, row := range rows {
		if len(row) != len(header) {
			return nil, fmt.Errorf("%w: metadata row %d has %d fields, header has %d", ErrInvalidTable, i, len(row), len(header))
		}
		m.rows = append(m.rows, append([]string(nil), row...))
	}

	return m, nil
}

func (m *SampleMetadata) Header() []string {
	return append([]string(nil), m.header...)
}

// Len returns the number of samples described.
func (m *SampleMetadata) Len() int {
	return len(m.rows)
}

// Column returns the values of the key column, in row order.
func (m *SampleMetadata) Column(key KeyColumn) ([]string, error) {
	col, err := m.resolve(key)
	if err != nil {
		return nil, err
	}

	out := make([]string, len(m.rows))
	for i, row := range m.rows {
		out[i] = row[col]
	}

	return out, nil
}

func (m *SampleMetadata) resolve(key KeyColumn) (int, error) {
	if key.byIndex {
		if key.index < 0 || key.index >= len(m.header) {
			return 0, fmt.Errorf("%w: metadata key column index %d is out of range (%d columns)", ErrConfig, key.index, len(m.header))
		}
		return key.index, nil
	}

	name := key.String()
	for i, h := range m.header {
		if h == name {
			return i, nil
		}
	}

	return 0, fmt.Errorf("%w: metadata has no key column %q", ErrConfig, name)
}
