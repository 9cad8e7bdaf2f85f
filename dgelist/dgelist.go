// Package dgelist bundles a genes x samples count table with the per-sample
// library sizes and normalization factors needed to compare libraries
// sequenced to different depths. It follows the conventions of edgeR's DGEList:
// the effective library size of a sample is its library size multiplied by its
// normalization factor, and factors are scaled to a geometric mean of one.
package dgelist

import (
	"fmt"
	"math"

	"github.com/carbocation/rnaprep"
)

// Options are the optional arguments to New.
type Options struct {
	// LibSizes overrides the column sums as library sizes.
	LibSizes []float64

	// Group assigns each sample to an experimental group.
	Group []string

	// RemoveZeros drops genes with a zero count in every sample.
	RemoveZeros bool
}

// DGEList is the composite of raw counts and per-sample scaling information.
type DGEList struct {
	counts      *rnaprep.CountTable
	libSizes    []float64
	normFactors []float64
	group       []string
	method      Method
}

// Sample summarizes one library.
type Sample struct {
	Sample     string  `csv:"sample" db:"sample" bigquery:"sample"`
	Group      string  `csv:"group" db:"grp" bigquery:"group"`
	LibSize    float64 `csv:"lib_size" db:"lib_size" bigquery:"lib_size"`
	NormFactor float64 `csv:"norm_factors" db:"norm_factor" bigquery:"norm_factor"`
}

// New wraps counts. Normalization factors start at one.
func New(counts *rnaprep.CountTable, opts Options) (*DGEList, error) {
	if counts == nil {
		return nil, fmt.Errorf("%w: nil count table", rnaprep.ErrInvalidTable)
	}
	_, nSamples := counts.Dims()

	if opts.RemoveZeros {
		counts = dropAllZeroRows(counts)
	}

	libSizes := counts.ColSums()
	if opts.LibSizes != nil {
		if len(opts.LibSizes) != nSamples {
			return nil, fmt.Errorf("%w: %d library sizes for %d samples", rnaprep.ErrConfig, len(opts.LibSizes), nSamples)
		}
		for i, v := range opts.LibSizes {
			if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("%w: library size %v for sample %d is not a non-negative number", rnaprep.ErrConfig, v, i)
			}
		}
		libSizes = append([]float64(nil), opts.LibSizes...)
	}

	group := make([]string, nSamples)
	if opts.Group != nil {
		if len(opts.Group) != nSamples {
			return nil, fmt.Errorf("%w: %d group labels for %d samples", rnaprep.ErrConfig, len(opts.Group), nSamples)
		}
		copy(group, opts.Group)
	}

	return &DGEList{
		counts:      counts,
		libSizes:    libSizes,
		normFactors: ones(nSamples),
		group:       group,
		method:      None,
	}, nil
}

func dropAllZeroRows(counts *rnaprep.CountTable) *rnaprep.CountTable {
	nRows, _ := counts.Dims()

	idx := make([]int, 0, nRows)
	for i := 0; i < nRows; i++ {
		for _, v := range counts.Row(i) {
			if v != 0 {
				idx = append(idx, i)
				break
			}
		}
	}

	if len(idx) == nRows {
		return counts
	}
	return counts.SelectRows(idx)
}

// Counts returns the raw counts.
func (d *DGEList) Counts() *rnaprep.CountTable {
	return d.counts
}

func (d *DGEList) LibSizes() []float64 {
	return append([]float64(nil), d.libSizes...)
}

func (d *DGEList) NormFactors() []float64 {
	return append([]float64(nil), d.normFactors...)
}

func (d *DGEList) Group() []string {
	return append([]string(nil), d.group...)
}

// Method reports the method of the last CalcNormFactors call, or None.
func (d *DGEList) Method() Method {
	return d.method
}

// EffectiveLibSizes returns library size times normalization factor.
func (d *DGEList) EffectiveLibSizes() []float64 {
	out := make([]float64, len(d.libSizes))
	for i := range out {
		out[i] = d.libSizes[i] * d.normFactors[i]
	}
	return out
}

// CalcNormFactors replaces the normalization factors with ones computed by m.
func (d *DGEList) CalcNormFactors(m Method) error {
	f, err := calcFactors(d.counts.Cols(), d.libSizes, m)
	if err != nil {
		return err
	}

	d.normFactors = f
	d.method = m

	return nil
}

// CPM returns counts per million. When normalized is true the effective
// library sizes are used, otherwise the raw library sizes. A library of size
// zero yields zero for every gene.
func (d *DGEList) CPM(normalized bool) *rnaprep.CountTable {
	size := d.LibSizes()
	if normalized {
		size = d.EffectiveLibSizes()
	}

	scale := make([]float64, len(size))
	for j, s := range size {
		if s > 0 {
			scale[j] = 1e6 / s
		}
	}

	return d.counts.ScaleCols(scale)
}

// Samples returns one summary record per library, in column order.
func (d *DGEList) Samples() []Sample {
	labels := d.counts.ColLabels()

	out := make([]Sample, len(labels))
	for j, l := range labels {
		out[j] = Sample{
			Sample:     l,
			Group:      d.group[j],
			LibSize:    d.libSizes[j],
			NormFactor: d.normFactors[j],
		}
	}

	return out
}
