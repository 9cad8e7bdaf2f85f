package pipeline

import (
	"github.com/carbocation/rnaprep"
	"github.com/carbocation/rnaprep/dgelist"
	"gopkg.in/guregu/null.v3"
)

// DefaultMinLibsFraction is the share of libraries in which a gene must pass a
// threshold to survive gene filtering.
const DefaultMinLibsFraction = 0.15

// FilterConfig holds the low-expression thresholds. A null threshold is
// unset; a threshold of zero is a real threshold. With both unset, genes are
// not filtered.
type FilterConfig struct {
	MinCount        null.Float
	MinCPM          null.Float
	MinLibsFraction float64
}

// Enabled reports whether gene filtering will run.
func (f FilterConfig) Enabled() bool {
	return f.MinCount.Valid || f.MinCPM.Valid
}

// NormalizeConfig controls construction of the composite and its
// normalization factors. An empty Method means dgelist.DefaultMethod.
type NormalizeConfig struct {
	Normalize bool
	Method    string
	Options   dgelist.Options
}

func (n NormalizeConfig) method() (dgelist.Method, error) {
	if n.Method == "" {
		return dgelist.DefaultMethod, nil
	}
	return dgelist.ParseMethod(n.Method)
}

// TransformConfig controls the shape of the output. ReturnComposite takes
// precedence over Log2 and Transpose.
type TransformConfig struct {
	Log2            bool
	Transpose       bool
	ReturnComposite bool
}

// Config gathers everything Process needs besides the data.
type Config struct {
	Key       rnaprep.KeyColumn
	Filter    FilterConfig
	Normalize NormalizeConfig
	Transform TransformConfig
}

// Default returns TMM-normalized counts per million, unfiltered, untransformed,
// keyed on the "lib.id" metadata column.
func Default() Config {
	return Config{
		Key: rnaprep.KeyByName(rnaprep.DefaultKeyName),
		Filter: FilterConfig{
			MinLibsFraction: DefaultMinLibsFraction,
		},
		Normalize: NormalizeConfig{
			Normalize: true,
			Method:    string(dgelist.DefaultMethod),
		},
	}
}

// Process runs the pipeline with c.
func (c Config) Process(counts *rnaprep.CountTable, meta *rnaprep.SampleMetadata) (Result, error) {
	return Process(counts, meta, c.Key, c.Filter, c.Normalize, c.Transform)
}
