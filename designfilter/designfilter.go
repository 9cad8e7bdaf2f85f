// Package designfilter aligns the sample columns of a count table with a
// sample metadata table.
package designfilter

import (
	"github.com/carbocation/rnaprep"
)

// Filter returns the columns of counts whose labels appear in the metadata key
// column, ordered as the metadata lists them. Samples missing from either
// table are dropped without error, and a sample listed more than once in the
// metadata is kept once, at its first position.
func Filter(counts *rnaprep.CountTable, meta *rnaprep.SampleMetadata, key rnaprep.KeyColumn) (*rnaprep.CountTable, error) {
	ids, err := meta.Column(key)
	if err != nil {
		return nil, err
	}

	return counts.SelectColumns(Match(counts.ColLabels(), ids)), nil
}

// Match returns, for each id found in labels, its index into labels. Order
// follows ids; repeated ids are reported once.
func Match(labels, ids []string) []int {
	pos := make(map[string]int, len(labels))
	for i, l := range labels {
		pos[l] = i
	}

	out := make([]int, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		if i, exists := pos[id]; exists {
			out = append(out, i)
		}
	}

	return out
}
