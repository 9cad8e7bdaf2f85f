// Package pipeline prepares a gene x sample count table for statistical
// analysis: it aligns samples with their metadata, drops weakly expressed
// genes, normalizes library sizes and reshapes the result.
package pipeline

import (
	"fmt"
	"math"
	"strconv"

	"github.com/carbocation/rnaprep"
	"github.com/carbocation/rnaprep/designfilter"
	"github.com/carbocation/rnaprep/dgelist"
	"github.com/carbocation/rnaprep/exprfilter"
	"gopkg.in/guregu/null.v3"
)

// Process runs, in order: the metadata sample filter, the optional gene
// filter, the optional normalization, then log2(x+1) and transposition when
// requested. If tc.ReturnComposite is set the composite is returned as soon as
// it is built (and normalized, if requested), and the later steps are skipped.
//
// Errors wrap rnaprep.ErrDataShape when filtering leaves no genes or no
// samples, and rnaprep.ErrConfig for bad configuration. Errors from the
// filtering and normalization packages are returned unchanged. The inputs are
// not modified.
func Process(counts *rnaprep.CountTable, meta *rnaprep.SampleMetadata, key rnaprep.KeyColumn, fc FilterConfig, nc NormalizeConfig, tc TransformConfig) (Result, error) {
	// Reject bad configuration before doing any work.
	var method dgelist.Method
	if nc.Normalize {
		var err error
		if method, err = nc.method(); err != nil {
			return Result{}, err
		}
	}
	if fc.Enabled() {
		if err := exprfilter.Validate(fc.MinCount, fc.MinCPM, fc.MinLibsFraction); err != nil {
			return Result{}, err
		}
	}

	counts, err := designfilter.Filter(counts, meta, key)
	if err != nil {
		return Result{}, err
	}
	if counts.Empty() {
		r, c := counts.Dims()
		return Result{}, fmt.Errorf("%w: %d genes and %d samples after matching metadata on %s", rnaprep.ErrDataShape, r, c, key)
	}

	if fc.Enabled() {
		counts, err = exprfilter.Filter(counts, fc.MinCount, fc.MinCPM, fc.MinLibsFraction)
		if err != nil {
			return Result{}, err
		}
		if counts.Empty() {
			return Result{}, fmt.Errorf("%w: no genes pass the expression filter (min count %s, min cpm %s, in %v of libraries)", rnaprep.ErrDataShape, threshold(fc.MinCount), threshold(fc.MinCPM), fc.MinLibsFraction)
		}
	}

	out := counts
	if nc.Normalize || tc.ReturnComposite {
		d, err := dgelist.New(counts, nc.Options)
		if err != nil {
			return Result{}, err
		}
		if d.Counts().Empty() {
			return Result{}, fmt.Errorf("%w: no genes remain after removing all-zero genes", rnaprep.ErrDataShape)
		}

		if nc.Normalize {
			if err := d.CalcNormFactors(method); err != nil {
				return Result{}, err
			}
		}

		if tc.ReturnComposite {
			return compositeResult(d), nil
		}

		out = d.CPM(true)
	}

	if tc.Log2 {
		out = out.Apply(log2p1)
	}

	if tc.Transpose {
		out = out.Transpose()
	}

	return tableResult(out), nil
}

// log2p1 is log2(x + 1), which maps 0 to 0.
func log2p1(x float64) float64 {
	return math.Log2(x + 1)
}

func threshold(v null.Float) string {
	if !v.Valid {
		return "unset"
	}
	return strconv.FormatFloat(v.Float64, 'g', -1, 64)
}
