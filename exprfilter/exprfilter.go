// Package exprfilter removes genes that are not expressed in enough
// libraries.
//
// A gene passes in a library when its raw count reaches MinCount or its
// counts-per-million reaches MinCPM. Either threshold may be null, in which
// case only the other applies. The gene is kept when it passes in at least
// MinLibs(fraction, n) of the n libraries.
package exprfilter

import (
	"fmt"
	"math"

	"github.com/carbocation/rnaprep"
	"gopkg.in/guregu/null.v3"
)

// fractionSlack absorbs floating point noise such as 0.15*20 evaluating to
// 3.0000000000000004, which would otherwise round up to 4.
const fractionSlack = 1e-9

// MinLibs is the number of libraries in which a gene must pass: fraction*n,
// rounded up, and never fewer than one.
func MinLibs(fraction float64, n int) int {
	k := int(math.Ceil(fraction*float64(n) - fractionSlack))
	if k < 1 {
		k = 1
	}
	return k
}

// Validate checks the thresholds without looking at any data.
func Validate(minCount, minCPM null.Float, fraction float64) error {
	if minCount.Valid && (minCount.Float64 < 0 || math.IsNaN(minCount.Float64)) {
		return fmt.Errorf("%w: minimum count %v must be non-negative", rnaprep.ErrConfig, minCount.Float64)
	}
	if minCPM.Valid && (minCPM.Float64 < 0 || math.IsNaN(minCPM.Float64)) {
		return fmt.Errorf("%w: minimum CPM %v must be non-negative", rnaprep.ErrConfig, minCPM.Float64)
	}
	if fraction < 0 || fraction > 1 || math.IsNaN(fraction) {
		return fmt.Errorf("%w: minimum library fraction %v must lie in [0, 1]", rnaprep.ErrConfig, fraction)
	}

	return nil
}

// Keep returns one flag per row of counts, true for rows that pass. With both
// thresholds null every row passes.
func Keep(counts *rnaprep.CountTable, minCount, minCPM null.Float, fraction float64) ([]bool, error) {
	if err := Validate(minCount, minCPM, fraction); err != nil {
		return nil, err
	}

	nRows, nLibs := counts.Dims()
	keep := make([]bool, nRows)
	if !minCount.Valid && !minCPM.Valid {
		for i := range keep {
			keep[i] = true
		}
		return keep, nil
	}
	if nLibs == 0 {
		return keep, nil
	}

	libSizes := counts.ColSums()
	need := MinLibs(fraction, nLibs)

	for i := range keep {
		passed := 0
		for j, v := range counts.Row(i) {
			if passes(v, libSizes[j], minCount, minCPM) {
				passed++
			}
		}
		keep[i] = passed >= need
	}

	return keep, nil
}

func passes(v, libSize float64, minCount, minCPM null.Float) bool {
	if minCount.Valid && v >= minCount.Float64 {
		return true
	}
	if minCPM.Valid {
		cpm := 0.0
		if libSize > 0 {
			cpm = v / libSize * 1e6
		}
		if cpm >= minCPM.Float64 {
			return true
		}
	}
	return false
}

// Filter returns the rows of counts that pass, in their original order. When
// both thresholds are null every row passes. Filter does not treat an empty
// result as an error.
func Filter(counts *rnaprep.CountTable, minCount, minCPM null.Float, fraction float64) (*rnaprep.CountTable, error) {
	if !minCount.Valid && !minCPM.Valid {
		if err := Validate(minCount, minCPM, fraction); err != nil {
			return nil, err
		}
		return counts, nil
	}

	keep, err := Keep(counts, minCount, minCPM, fraction)
	if err != nil {
		return nil, err
	}

	idx := make([]int, 0, len(keep))
	for i, k := range keep {
		if k {
			idx = append(idx, i)
		}
	}

	return counts.SelectRows(idx), nil
}
