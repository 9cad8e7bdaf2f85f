package dgelist

import (
	"fmt"
	"math"
	"sort"

	"github.com/montanaflynn/stats"
)

// quantileR7 returns the pth quantile of v according to the R-7 method, the
// default of R's quantile. v is not modified.
// http://en.wikipedia.org/wiki/Quantile#Estimating_the_quantiles_of_a_population
func quantileR7(v []float64, p float64) float64 {
	s := append([]float64(nil), v...)
	sort.Float64s(s)

	h := float64(len(s)-1) * p
	i := int(h)
	if i >= len(s)-1 {
		return s[len(s)-1]
	}
	return s[i] + (h-math.Floor(h))*(s[i+1]-s[i])
}

// quantileFactors returns the p-quantile of each library-size scaled column.
//
// "Evaluation of statistical methods for normalization and differential
// expression in mRNA-Seq experiments", James Bullard et al.,
// http://www.biomedcentral.com/1471-2105/11/94.
func quantileFactors(x [][]float64, lib []float64, p float64) []float64 {
	f := make([]float64, len(x))
	y := make([]float64, 0, len(x[0]))
	for j, col := range x {
		y = y[:0]
		for _, v := range col {
			y = append(y, v/lib[j])
		}
		f[j] = quantileR7(y, p)
	}
	return f
}

// rleFactors returns, per column, the median ratio of each count to the
// geometric mean of its gene across libraries. Genes with a zero count in any
// library have a zero geometric mean and are skipped.
//
// "Differential expression analysis for sequence count data", Simon Anders
// and Wolfgang Huber, http://genomebiology.com/2010/11/10/r106.
func rleFactors(x [][]float64) ([]float64, error) {
	gm := make([]float64, len(x[0]))
	for i := range gm {
		var s float64
		for _, col := range x {
			s += math.Log(col[i])
		}
		gm[i] = math.Exp(s / float64(len(x)))
	}

	f := make([]float64, len(x))
	ratios := make(stats.Float64Data, 0, len(gm))
	for j, col := range x {
		ratios = ratios[:0]
		for i, v := range col {
			if gm[i] > 0 {
				ratios = append(ratios, v/gm[i])
			}
		}

		med, err := ratios.Median()
		if err != nil {
			return nil, fmt.Errorf("dgelist: RLE needs at least one gene expressed in every library: %w", err)
		}
		f[j] = med
	}

	return f, nil
}

// rank returns the 1-based sample ranks of v, giving tied values the mean of
// the ranks they span.
func rank(v []float64) []float64 {
	idx := order(v, nil)

	r := make([]float64, len(v))
	for i := 0; i < len(idx); {
		j := i + 1
		for j < len(idx) && v[idx[j]] == v[idx[i]] {
			j++
		}

		// Positions i..j-1 hold ranks i+1..j.
		mean := float64(i+1+j) / 2
		for k := i; k < j; k++ {
			r[idx[k]] = mean
		}
		i = j
	}

	return r
}
