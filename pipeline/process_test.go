package pipeline

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/carbocation/rnaprep"
	"github.com/carbocation/rnaprep/dgelist"
	"github.com/google/go-cmp/cmp"
	"gopkg.in/guregu/null.v3"
)

var sampleIDs = []string{"S1", "S2", "S3", "S4", "S5", "S6"}

// tenBySix is a 10 gene x 6 sample table in which every gene is expressed.
func tenBySix(t *testing.T) *rnaprep.CountTable {
	t.Helper()

	genes := make([]string, 10)
	data := make([]float64, 0, 60)
	for i := range genes {
		genes[i] = fmt.Sprintf("ENSG%03d", i)
		for j := range sampleIDs {
			data = append(data, float64((i+1)*10+j*3+(i*j)%7))
		}
	}

	tab, err := rnaprep.NewCountTable(genes, sampleIDs, data)
	if err != nil {
		t.Fatal(err)
	}
	return tab
}

func metadata(t *testing.T, ids ...string) *rnaprep.SampleMetadata {
	t.Helper()

	rows := make([][]string, len(ids))
	for i, id := range ids {
		rows[i] = []string{id, fmt.Sprintf("grp%d", i%2)}
	}

	meta, err := rnaprep.NewSampleMetadata([]string{"lib.id", "group"}, rows)
	if err != nil {
		t.Fatal(err)
	}
	return meta
}

func mustTable(t *testing.T, r Result) *rnaprep.CountTable {
	t.Helper()

	tab, ok := r.Table()
	if !ok {
		t.Fatalf("Expected a table result, got %s", r.Kind())
	}
	return tab
}

func TestDefaultConfig(t *testing.T) {
	counts := tenBySix(t)
	original := counts.Transpose().Transpose()

	res, err := Default().Process(counts, metadata(t, sampleIDs...))
	if err != nil {
		t.Fatal(err)
	}

	out := mustTable(t, res)
	if r, c := out.Dims(); r != 10 || c != 6 {
		t.Fatalf("Expected 10x6, got %dx%d", r, c)
	}
	if diff := cmp.Diff(counts.RowLabels(), out.RowLabels()); diff != "" {
		t.Errorf("row labels (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(sampleIDs, out.ColLabels()); diff != "" {
		t.Errorf("column labels (-want +got):\n%s", diff)
	}

	for i := 0; i < 10; i++ {
		for j := 0; j < 6; j++ {
			if v := out.At(i, j); v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
				t.Errorf("(%d,%d): expected a non-negative CPM, got %v", i, j, v)
			}
		}
	}

	// The output should be counts scaled by the TMM effective library sizes.
	d, err := dgelist.New(counts, dgelist.Options{})
	if err != nil {
		t.Fatal(err)
	}
	if err := d.CalcNormFactors(dgelist.TMM); err != nil {
		t.Fatal(err)
	}
	eff := d.EffectiveLibSizes()
	for j := range sampleIDs {
		if want, got := counts.At(3, j)/eff[j]*1e6, out.At(3, j); math.Abs(want-got) > 1e-6 {
			t.Errorf("Sample %d: expected %v, got %v", j, want, got)
		}
	}

	if !counts.Equal(original) {
		t.Error("Process modified its input")
	}
}

func TestDefaultValues(t *testing.T) {
	c := Default()

	if c.Key.String() != "lib.id" {
		t.Errorf("Expected key lib.id, got %s", c.Key)
	}
	if c.Filter.Enabled() || c.Filter.MinLibsFraction != 0.15 {
		t.Errorf("Unexpected filter defaults %+v", c.Filter)
	}
	if !c.Normalize.Normalize || c.Normalize.Method != "TMM" {
		t.Errorf("Unexpected normalization defaults %+v", c.Normalize)
	}
	if c.Transform != (TransformConfig{}) {
		t.Errorf("Unexpected transform defaults %+v", c.Transform)
	}
}

func TestZeroSurvivors(t *testing.T) {
	counts, err := rnaprep.NewCountTable(
		[]string{"g1", "g2", "g3"},
		sampleIDs,
		make([]float64, 18),
	)
	if err != nil {
		t.Fatal(err)
	}

	c := Default()
	c.Filter.MinCount = null.FloatFrom(1)

	_, err = c.Process(counts, metadata(t, sampleIDs...))
	if !errors.Is(err, rnaprep.ErrDataShape) {
		t.Fatalf("Expected ErrDataShape, got %v", err)
	}
}

func TestMetadataMismatch(t *testing.T) {
	res, err := Default().Process(tenBySix(t), metadata(t, "S5", "S2", "NOPE", "S4"))
	if err != nil {
		t.Fatal(err)
	}

	out := mustTable(t, res)
	if diff := cmp.Diff([]string{"S5", "S2", "S4"}, out.ColLabels()); diff != "" {
		t.Errorf("columns (-want +got):\n%s", diff)
	}
}

func TestNoSamplesLeft(t *testing.T) {
	_, err := Default().Process(tenBySix(t), metadata(t, "X1", "X2"))
	if !errors.Is(err, rnaprep.ErrDataShape) {
		t.Fatalf("Expected ErrDataShape, got %v", err)
	}
}

func TestUnknownMethodDetectedEarly(t *testing.T) {
	c := Default()
	c.Normalize.Method = "quantile"

	// The metadata matches nothing, so a late check would report a shape error
	// instead.
	_, err := c.Process(tenBySix(t), metadata(t, "X1"))
	if !errors.Is(err, rnaprep.ErrConfig) {
		t.Fatalf("Expected ErrConfig, got %v", err)
	}

	// Without normalization the method is never consulted.
	c.Normalize.Normalize = false
	if _, err := c.Process(tenBySix(t), metadata(t, sampleIDs...)); err != nil {
		t.Errorf("Expected no error without normalization, got %v", err)
	}
}

func TestBadFilterConfig(t *testing.T) {
	c := Default()
	c.Filter.MinCPM = null.FloatFrom(1)
	c.Filter.MinLibsFraction = 2

	if _, err := c.Process(tenBySix(t), metadata(t, sampleIDs...)); !errors.Is(err, rnaprep.ErrConfig) {
		t.Fatalf("Expected ErrConfig, got %v", err)
	}
}

func TestLog2Transform(t *testing.T) {
	counts, err := rnaprep.NewCountTable(
		[]string{"g1", "g2"},
		[]string{"S1", "S2", "S3"},
		[]float64{0, 1, 3, 7, 15, 1023},
	)
	if err != nil {
		t.Fatal(err)
	}

	c := Default()
	c.Normalize.Normalize = false
	c.Transform.Log2 = true

	res, err := c.Process(counts, metadata(t, "S1", "S2", "S3"))
	if err != nil {
		t.Fatal(err)
	}

	out := mustTable(t, res)
	want := [][]float64{{0, 1, 2}, {3, 4, 10}}
	for i := range want {
		if diff := cmp.Diff(want[i], out.Row(i)); diff != "" {
			t.Errorf("row %d (-want +got):\n%s", i, diff)
		}
	}
}

func TestLog2OfNormalized(t *testing.T) {
	counts := tenBySix(t)

	plain, err := Default().Process(counts, metadata(t, sampleIDs...))
	if err != nil {
		t.Fatal(err)
	}

	c := Default()
	c.Transform.Log2 = true
	logged, err := c.Process(counts, metadata(t, sampleIDs...))
	if err != nil {
		t.Fatal(err)
	}

	p, l := mustTable(t, plain), mustTable(t, logged)
	for i := 0; i < 10; i++ {
		for j := 0; j < 6; j++ {
			if want := math.Log2(p.At(i, j) + 1); l.At(i, j) != want {
				t.Errorf("(%d,%d): expected %v, got %v", i, j, want, l.At(i, j))
			}
		}
	}
}

func TestTransposeRoundTrip(t *testing.T) {
	counts := tenBySix(t)

	c := Default()
	c.Normalize.Normalize = false
	c.Transform.Transpose = true

	res, err := c.Process(counts, metadata(t, sampleIDs...))
	if err != nil {
		t.Fatal(err)
	}

	out := mustTable(t, res)
	if r, col := out.Dims(); r != 6 || col != 10 {
		t.Fatalf("Expected 6x10, got %dx%d", r, col)
	}
	if diff := cmp.Diff(sampleIDs, out.RowLabels()); diff != "" {
		t.Errorf("row labels (-want +got):\n%s", diff)
	}

	res, err = c.Process(out.Transpose(), metadata(t, sampleIDs...))
	if err != nil {
		t.Fatal(err)
	}
	if back := mustTable(t, res).Transpose(); !back.Equal(counts) {
		t.Error("Transposing twice did not give back the original table")
	}
}

func TestCompositeShortCircuit(t *testing.T) {
	counts := tenBySix(t)

	var factors [][]float64
	for _, tc := range []TransformConfig{
		{ReturnComposite: true},
		{ReturnComposite: true, Log2: true},
		{ReturnComposite: true, Transpose: true},
		{ReturnComposite: true, Log2: true, Transpose: true},
	} {
		c := Default()
		c.Transform = tc

		res, err := c.Process(counts, metadata(t, sampleIDs...))
		if err != nil {
			t.Fatal(err)
		}
		if res.Kind() != KindComposite {
			t.Fatalf("%+v: expected a composite, got %s", tc, res.Kind())
		}
		if _, ok := res.Table(); ok {
			t.Errorf("%+v: a composite result also reported a table", tc)
		}

		d, ok := res.Composite()
		if !ok {
			t.Fatalf("%+v: no composite", tc)
		}
		if !d.Counts().Equal(counts) {
			t.Errorf("%+v: composite does not carry the raw counts", tc)
		}
		if d.Method() != dgelist.TMM {
			t.Errorf("%+v: expected TMM factors, got %s", tc, d.Method())
		}
		factors = append(factors, d.NormFactors())
	}

	for i := 1; i < len(factors); i++ {
		if diff := cmp.Diff(factors[0], factors[i]); diff != "" {
			t.Errorf("Transform flags changed the composite (-want +got):\n%s", diff)
		}
	}
}

func TestCompositeWithoutNormalization(t *testing.T) {
	c := Default()
	c.Normalize.Normalize = false
	c.Transform.ReturnComposite = true

	res, err := c.Process(tenBySix(t), metadata(t, sampleIDs...))
	if err != nil {
		t.Fatal(err)
	}

	d, ok := res.Composite()
	if !ok {
		t.Fatalf("Expected a composite, got %s", res.Kind())
	}
	if diff := cmp.Diff([]float64{1, 1, 1, 1, 1, 1}, d.NormFactors()); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestShapeNeverGrows(t *testing.T) {
	counts, err := rnaprep.NewCountTable(
		[]string{"g1", "g2", "g3", "g4"},
		[]string{"S1", "S2", "S3", "S4"},
		[]float64{
			50, 60, 70, 80,
			0, 0, 1, 0,
			9, 0, 0, 0,
			30, 20, 10, 40,
		})
	if err != nil {
		t.Fatal(err)
	}

	for _, fraction := range []float64{0, 0.15, 0.5, 1} {
		c := Default()
		c.Filter.MinCount = null.FloatFrom(5)
		c.Filter.MinLibsFraction = fraction

		res, err := c.Process(counts, metadata(t, "S4", "S1", "S3"))
		if err != nil {
			t.Fatalf("fraction %v: %v", fraction, err)
		}

		out := mustTable(t, res)
		r, col := out.Dims()
		if r > 4 || col > 3 {
			t.Errorf("fraction %v: output grew to %dx%d", fraction, r, col)
		}
	}
}

func TestFilterThenIdempotent(t *testing.T) {
	counts, err := rnaprep.NewCountTable(
		[]string{"g1", "g2", "g3"},
		[]string{"S1", "S2", "S3"},
		[]float64{
			100, 0, 200,
			0, 0, 2,
			40, 50, 60,
		})
	if err != nil {
		t.Fatal(err)
	}

	c := Default()
	c.Normalize.Normalize = false
	c.Filter.MinCount = null.FloatFrom(10)
	c.Filter.MinLibsFraction = 0.5

	meta := metadata(t, "S1", "S2", "S3")
	first, err := c.Process(counts, meta)
	if err != nil {
		t.Fatal(err)
	}
	once := mustTable(t, first)
	if diff := cmp.Diff([]string{"g1", "g3"}, once.RowLabels()); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}

	second, err := c.Process(once, meta)
	if err != nil {
		t.Fatal(err)
	}
	if !mustTable(t, second).Equal(once) {
		t.Error("Filtering a filtered table changed it")
	}
}

func TestIntegerKeyColumn(t *testing.T) {
	meta, err := rnaprep.NewSampleMetadata(
		[]string{"group", "sample"},
		[][]string{{"a", "S6"}, {"b", "S1"}},
	)
	if err != nil {
		t.Fatal(err)
	}

	res, err := Process(tenBySix(t), meta, rnaprep.KeyByIndex(1), FilterConfig{}, NormalizeConfig{}, TransformConfig{})
	if err != nil {
		t.Fatal(err)
	}

	out := mustTable(t, res)
	if diff := cmp.Diff([]string{"S6", "S1"}, out.ColLabels()); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
	if out.At(0, 0) != 25 {
		t.Errorf("Expected raw count 25, got %v", out.At(0, 0))
	}
}
