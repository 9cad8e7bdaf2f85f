package pipeline

import (
	"github.com/carbocation/rnaprep"
	"github.com/carbocation/rnaprep/dgelist"
)

// Kind says which shape a Result holds.
type Kind int

const (
	KindTable Kind = iota
	KindComposite
)

func (k Kind) String() string {
	switch k {
	case KindTable:
		return "table"
	case KindComposite:
		return "composite"
	}
	return "unknown"
}

// Result holds either a plain table or a composite, never both.
type Result struct {
	kind      Kind
	table     *rnaprep.CountTable
	composite *dgelist.DGEList
}

func tableResult(t *rnaprep.CountTable) Result {
	return Result{kind: KindTable, table: t}
}

func compositeResult(d *dgelist.DGEList) Result {
	return Result{kind: KindComposite, composite: d}
}

func (r Result) Kind() Kind {
	return r.kind
}

// Table returns the plain table, if that is what r holds.
func (r Result) Table() (*rnaprep.CountTable, bool) {
	return r.table, r.kind == KindTable && r.table != nil
}

// Composite returns the composite, if that is what r holds.
func (r Result) Composite() (*dgelist.DGEList, bool) {
	return r.composite, r.kind == KindComposite && r.composite != nil
}
