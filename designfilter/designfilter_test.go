package designfilter

import (
	"errors"
	"testing"

	"github.com/carbocation/rnaprep"
	"github.com/google/go-cmp/cmp"
)

func sixSamples(t *testing.T) *rnaprep.CountTable {
	t.Helper()

	data := make([]float64, 0, 12)
	for i := 0; i < 12; i++ {
		data = append(data, float64(i))
	}

	tab, err := rnaprep.NewCountTable(
		[]string{"g1", "g2"},
		[]string{"s1", "s2", "s3", "s4", "s5", "s6"},
		data,
	)
	if err != nil {
		t.Fatal(err)
	}
	return tab
}

func TestFilterFollowsMetadataOrder(t *testing.T) {
	meta, err := rnaprep.NewSampleMetadata(
		[]string{"lib.id", "group"},
		[][]string{{"s5", "b"}, {"s1", "a"}, {"missing", "a"}, {"s3", "b"}, {"s1", "a"}},
	)
	if err != nil {
		t.Fatal(err)
	}

	got, err := Filter(sixSamples(t), meta, rnaprep.KeyColumn{})
	if err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff([]string{"s5", "s1", "s3"}, got.ColLabels()); diff != "" {
		t.Errorf("columns (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{4, 10}, got.Col(0)); diff != "" {
		t.Errorf("values of s5 (-want +got):\n%s", diff)
	}
}

func TestFilterNoOverlap(t *testing.T) {
	meta, err := rnaprep.NewSampleMetadata([]string{"id"}, [][]string{{"x"}, {"y"}})
	if err != nil {
		t.Fatal(err)
	}

	got, err := Filter(sixSamples(t), meta, rnaprep.KeyByIndex(0))
	if err != nil {
		t.Fatal(err)
	}
	if !got.Empty() {
		t.Errorf("Expected an empty table, got %v columns", got.ColLabels())
	}
}

func TestFilterMissingKey(t *testing.T) {
	meta, err := rnaprep.NewSampleMetadata([]string{"id"}, [][]string{{"s1"}})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := Filter(sixSamples(t), meta, rnaprep.KeyByName("lib.id")); !errors.Is(err, rnaprep.ErrConfig) {
		t.Errorf("Expected ErrConfig, got %v", err)
	}
}

func TestFilterIdempotent(t *testing.T) {
	meta, err := rnaprep.NewSampleMetadata([]string{"lib.id"}, [][]string{{"s2"}, {"s4"}})
	if err != nil {
		t.Fatal(err)
	}

	once, err := Filter(sixSamples(t), meta, rnaprep.KeyColumn{})
	if err != nil {
		t.Fatal(err)
	}
	twice, err := Filter(once, meta, rnaprep.KeyColumn{})
	if err != nil {
		t.Fatal(err)
	}

	if !once.Equal(twice) {
		t.Error("Filtering a second time changed the table")
	}
}
