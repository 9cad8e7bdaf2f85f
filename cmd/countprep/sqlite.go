//go:build cgo
// +build cgo

package main

import (
	"github.com/carbocation/rnaprep"
	"github.com/carbocation/rnaprep/dgelist"
	"github.com/carbocation/rnaprep/tableio"
)

func writeSQLiteTable(path, name string, t *rnaprep.CountTable) error {
	sink, err := tableio.OpenSQLite(path)
	if err != nil {
		return err
	}
	defer sink.Close()

	return sink.WriteTable(name, t)
}

func writeSQLiteSamples(path, name string, samples []dgelist.Sample) error {
	sink, err := tableio.OpenSQLite(path)
	if err != nil {
		return err
	}
	defer sink.Close()

	return sink.WriteSamples(name, samples)
}
