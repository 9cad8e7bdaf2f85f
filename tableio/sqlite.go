//go:build cgo
// +build cgo

package tableio

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/carbocation/rnaprep"
	"github.com/carbocation/rnaprep/dgelist"
	"github.com/jmoiron/sqlx"

	_ "github.com/mattn/go-sqlite3"
)

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLiteSink stores tables in long format in a SQLite file.
type SQLiteSink struct {
	DB *sqlx.DB
}

func OpenSQLite(path string) (*SQLiteSink, error) {
	// URI filenames have to begin with 'file:'; see
	// https://www.sqlite.org/c3ref/open.html
	if !strings.HasPrefix(path, "file:") {
		path = "file:" + path
	}

	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, err
	}

	return &SQLiteSink{DB: db}, nil
}

func (s *SQLiteSink) Close() error {
	return s.DB.Close()
}

// WriteTable replaces the named table with the cells of t.
func (s *SQLiteSink) WriteTable(name string, t *rnaprep.CountTable) error {
	if !tableName.MatchString(name) {
		return fmt.Errorf("%q is not a valid table name", name)
	}

	tx, err := s.DB.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s", name)); err != nil {
		return err
	}
	if _, err := tx.Exec(fmt.Sprintf("CREATE TABLE %s (row_id TEXT NOT NULL, col_id TEXT NOT NULL, value REAL NOT NULL, PRIMARY KEY (row_id, col_id))", name)); err != nil {
		return err
	}

	stmt, err := tx.PrepareNamed(fmt.Sprintf("INSERT INTO %s (row_id, col_id, value) VALUES (:row_id, :col_id, :value)", name))
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, c := range Cells(t) {
		if _, err := stmt.Exec(c); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// WriteSamples replaces the named table with per-library summaries.
func (s *SQLiteSink) WriteSamples(name string, samples []dgelist.Sample) error {
	if !tableName.MatchString(name) {
		return fmt.Errorf("%q is not a valid table name", name)
	}

	tx, err := s.DB.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s", name)); err != nil {
		return err
	}
	if _, err := tx.Exec(fmt.Sprintf("CREATE TABLE %s (sample TEXT PRIMARY KEY, grp TEXT, lib_size REAL, norm_factor REAL)", name)); err != nil {
		return err
	}

	for _, sm := range samples {
		if _, err := tx.NamedExec(fmt.Sprintf("INSERT INTO %s (sample, grp, lib_size, norm_factor) VALUES (:sample, :grp, :lib_size, :norm_factor)", name), sm); err != nil {
			return err
		}
	}

	return tx.Commit()
}
