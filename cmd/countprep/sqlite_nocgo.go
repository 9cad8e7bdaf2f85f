//go:build !cgo
// +build !cgo

package main

import (
	"fmt"

	"github.com/carbocation/rnaprep"
	"github.com/carbocation/rnaprep/dgelist"
)

var errNoSQLite = fmt.Errorf("this binary was built without cgo, so -sqlite is unavailable")

func writeSQLiteTable(path, name string, t *rnaprep.CountTable) error {
	return errNoSQLite
}

func writeSQLiteSamples(path, name string, samples []dgelist.Sample) error {
	return errNoSQLite
}
