package main

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/guregu/null.v3"
)

// nullFloatFlag is a float flag that stays null unless it is set.
type nullFloatFlag struct {
	null.Float
}

func (f *nullFloatFlag) String() string {
	if f == nil || !f.Valid {
		return ""
	}
	return strconv.FormatFloat(f.Float64, 'g', -1, 64)
}

func (f *nullFloatFlag) Set(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		f.Float = null.Float{}
		return nil
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("%q is not a number", s)
	}
	f.Float = null.FloatFrom(v)
	return nil
}

// delimFlag accepts a single character, or one of the names "tab" and "comma".
// An empty value means the delimiter is detected from the data.
type delimFlag rune

func (d *delimFlag) String() string {
	if d == nil || *d == 0 {
		return ""
	}
	if *d == '\t' {
		return "tab"
	}
	return string(rune(*d))
}

func (d *delimFlag) Set(s string) error {
	switch s {
	case "":
		*d = 0
	case "tab", `\t`:
		*d = '\t'
	case "comma":
		*d = ','
	default:
		r := []rune(s)
		if len(r) != 1 {
			return fmt.Errorf("%q is not a single character", s)
		}
		*d = delimFlag(r[0])
	}
	return nil
}
