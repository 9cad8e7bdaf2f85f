package dgelist

import (
	"math"
	"sort"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// trim holds the TMM tuning constants.
type trim struct {
	logRatio float64 // fraction trimmed from each end of the M values
	sum      float64 // fraction trimmed from each end of the A values
	aCutoff  float64 // genes with A at or below this are ignored
	weight   bool    // weight M by inverse asymptotic variance
}

var defaultTrim = trim{
	logRatio: 0.3,
	sum:      0.05,
	aCutoff:  -1e10,
	weight:   true,
}

// tmmRefColumn picks the library whose upper quartile is closest to the mean
// upper quartile. When the upper quartiles are essentially zero, as for very
// sparse data, it falls back to maxSqrtSumColumn.
func tmmRefColumn(x [][]float64, lib []float64) int {
	f75 := quantileFactors(x, lib, 0.75)

	if med, err := stats.Median(f75); err != nil || med < 1e-20 {
		return maxSqrtSumColumn(x)
	}

	mean := stat.Mean(f75, nil)
	ref := 0
	best := math.Abs(f75[0] - mean)
	for i, v := range f75[1:] {
		if d := math.Abs(v - mean); d < best {
			best = d
			ref = i + 1
		}
	}

	return ref
}

// maxSqrtSumColumn returns the column with the largest sum of square root
// counts.
func maxSqrtSumColumn(x [][]float64) int {
	sums := make([]float64, len(x))
	for j, col := range x {
		for _, v := range col {
			sums[j] += math.Sqrt(v)
		}
	}
	return floats.MaxIdx(sums)
}

// tmmFactor is the trimmed, weighted mean of log ratios of obs against ref.
//
// "A scaling normalization method for differential expression analysis of
// RNA-seq data", Mark Robinson and Alicia Oshlack,
// http://genomebiology.com/2010/11/3/r25.
func tmmFactor(obs, ref []float64, nO, nR float64, t trim) float64 {
	var (
		logR = make([]float64, 0, len(obs))
		absE = make([]float64, 0, len(obs))
		v    = make([]float64, 0, len(obs))
	)
	for i := range obs {
		o, r := obs[i], ref[i]

		lr := math.Log2((o / nO) / (r / nR))
		ae := (math.Log2(o/nO) + math.Log2(r/nR)) / 2
		if !finite(lr) || !finite(ae) || ae <= t.aCutoff {
			continue
		}

		logR = append(logR, lr)
		absE = append(absE, ae)
		v = append(v, (nO-o)/nO/o+(nR-r)/nR/r)
	}

	if len(logR) == 0 || maxAbs(logR) < 1e-6 {
		return 1
	}

	n := float64(len(logR))
	loL := math.Floor(n*t.logRatio) + 1
	hiL := n + 1 - loL
	loS := math.Floor(n*t.sum) + 1
	hiS := n + 1 - loS

	rL, rE := rank(logR), rank(absE)

	var num, den float64
	for i := range logR {
		if rL[i] < loL || rL[i] > hiL || rE[i] < loS || rE[i] > hiS {
			continue
		}
		if t.weight {
			num += logR[i] / v[i]
			den += 1 / v[i]
		} else {
			num += logR[i]
			den++
		}
	}

	f := num / den
	if math.IsNaN(f) {
		f = 0
	}

	return math.Pow(2, f)
}

// tmmwspFactor is TMM "with singleton pairing". Genes that are zero in one of
// the two libraries are not discarded outright: the largest such counts from
// each side are paired off with each other, so that sparse libraries keep
// enough genes to trim.
func tmmwspFactor(obs, ref []float64, nO, nR float64, t trim) float64 {
	const eps = 1e-14

	var (
		o, r                 = make([]float64, 0, len(obs)), make([]float64, 0, len(obs))
		refSingle, obsSingle []float64
	)
	for i := range obs {
		posO, posR := obs[i] > eps, ref[i] > eps
		switch {
		case posO && posR:
			o = append(o, obs[i])
			r = append(r, ref[i])
		case posR:
			refSingle = append(refSingle, ref[i])
		case posO:
			obsSingle = append(obsSingle, obs[i])
		}
	}

	pairs := len(refSingle)
	if len(obsSingle) < pairs {
		pairs = len(obsSingle)
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(refSingle)))
	sort.Sort(sort.Reverse(sort.Float64Slice(obsSingle)))
	o = append(o, obsSingle[:pairs]...)
	r = append(r, refSingle[:pairs]...)

	n := len(o)
	if n == 0 {
		return 1
	}

	var (
		oP, rP  = make([]float64, n), make([]float64, n)
		m, a    = make([]float64, n), make([]float64, n)
		mShrunk = make([]float64, n)
	)
	for i := range o {
		oP[i] = o[i] / nO
		rP[i] = r[i] / nR
		m[i] = math.Log2(oP[i] / rP[i])
		a[i] = 0.5 * math.Log2(oP[i]*rP[i])
		mShrunk[i] = math.Log2(((o[i] + 0.5) / (nO + 0.5)) / ((r[i] + 0.5) / (nR + 0.5)))
	}

	if maxAbs(m) < 1e-6 {
		return 1
	}

	keepM := trimOrdered(order(m, mShrunk), t.logRatio)
	keepA := trimOrdered(order(a, nil), t.sum)

	var num, den float64
	for i := range m {
		if !keepM[i] || !keepA[i] {
			continue
		}
		if t.weight {
			v := (1-oP[i])/oP[i]/nO + (1-rP[i])/rP[i]/nR
			w := (1 + 1e-6) / (v + 1e-6)
			num += w * m[i]
			den += w
		} else {
			num += m[i]
			den++
		}
	}

	f := num / den
	if math.IsNaN(f) {
		f = 0
	}

	return math.Pow(2, f)
}

// order returns the indexes of primary in ascending order, ties broken by
// secondary when given and then by position.
func order(primary, secondary []float64) []int {
	idx := make([]int, len(primary))
	for i := range idx {
		idx[i] = i
	}

	sort.SliceStable(idx, func(x, y int) bool {
		i, j := idx[x], idx[y]
		if primary[i] != primary[j] || secondary == nil {
			return primary[i] < primary[j]
		}
		return secondary[i] < secondary[j]
	})

	return idx
}

// trimOrdered marks the entries of an ordering that survive trimming frac of
// the entries from each end.
func trimOrdered(ord []int, frac float64) []bool {
	n := len(ord)
	lo := int(float64(n)*frac) + 1
	hi := n + 1 - lo

	keep := make([]bool, n)
	for k := lo - 1; k < hi; k++ {
		keep[ord[k]] = true
	}

	return keep
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func maxAbs(v []float64) float64 {
	var out float64
	for _, x := range v {
		if a := math.Abs(x); a > out {
			out = a
		}
	}
	return out
}
