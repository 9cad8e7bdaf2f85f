package dgelist

import (
	"fmt"
	"math"

	"github.com/carbocation/rnaprep"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Method names a normalization factor strategy. Names match edgeR's.
type Method string

const (
	TMM           Method = "TMM"
	TMMwsp        Method = "TMMwsp"
	RLE           Method = "RLE"
	UpperQuartile Method = "upperquartile"
	None          Method = "none"
)

// DefaultMethod is used when no method is named.
const DefaultMethod = TMM

var methods = []Method{TMM, TMMwsp, RLE, UpperQuartile, None}

// ParseMethod maps a name to a Method. Names are case sensitive.
func ParseMethod(name string) (Method, error) {
	for _, m := range methods {
		if string(m) == name {
			return m, nil
		}
	}

	return "", fmt.Errorf("%w: unknown normalization method %q (valid: %v)", rnaprep.ErrConfig, name, methods)
}

// calcFactors returns one factor per column of x. lib holds the library size of
// each column.
func calcFactors(x [][]float64, lib []float64, m Method) ([]float64, error) {
	if _, err := ParseMethod(string(m)); err != nil {
		return nil, err
	}

	n := len(x)
	if n == 0 {
		return []float64{}, nil
	}

	x = dropAllZero(x)
	if len(x[0]) == 0 || n == 1 {
		m = None
	}

	var (
		f   []float64
		err error
	)
	switch m {
	case TMM:
		ref := tmmRefColumn(x, lib)
		f = make([]float64, n)
		for i := range x {
			f[i] = tmmFactor(x[i], x[ref], lib[i], lib[ref], defaultTrim)
		}
	case TMMwsp:
		ref := maxSqrtSumColumn(x)
		f = make([]float64, n)
		for i := range x {
			f[i] = tmmwspFactor(x[i], x[ref], lib[i], lib[ref], defaultTrim)
		}
	case RLE:
		f, err = rleFactors(x)
		if err != nil {
			return nil, err
		}
		for i := range f {
			f[i] /= lib[i]
		}
	case UpperQuartile:
		f = quantileFactors(x, lib, 0.75)
	case None:
		return ones(n), nil
	}

	return scaleToUnitGeoMean(f, m)
}

// scaleToUnitGeoMean divides f by its geometric mean.
func scaleToUnitGeoMean(f []float64, m Method) ([]float64, error) {
	logs := make([]float64, len(f))
	for i, v := range f {
		if !(v > 0) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("dgelist: %s factor for sample %d is %v; a library may be empty", m, i, v)
		}
		logs[i] = math.Log(v)
	}

	floats.Scale(1/math.Exp(stat.Mean(logs, nil)), f)

	return f, nil
}

// dropAllZero removes the genes that are zero in every column.
func dropAllZero(x [][]float64) [][]float64 {
	rows := len(x[0])
	keep := make([]int, 0, rows)
	for i := 0; i < rows; i++ {
		for _, col := range x {
			if col[i] > 0 {
				keep = append(keep, i)
				break
			}
		}
	}
	if len(keep) == rows {
		return x
	}

	out := make([][]float64, len(x))
	for j, col := range x {
		out[j] = make([]float64, len(keep))
		for k, i := range keep {
			out[j][k] = col[i]
		}
	}
	return out
}

func ones(n int) []float64 {
	f := make([]float64, n)
	for i := range f {
		f[i] = 1
	}
	return f
}
