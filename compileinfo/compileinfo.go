// Package compileinfo reports the module version and VCS state embedded in a
// binary at build time.
package compileinfo

import (
	"fmt"
	"io"
	"runtime/debug"
)

type CompileInfo struct {
	Binary     string
	Module     string
	Version    string
	GoVersion  string
	Commit     string
	CommitTime string
	Modified   bool
}

func (c CompileInfo) String() string {
	if c.GoVersion == "" {
		return fmt.Sprintf("%s: no build information was embedded in this binary.", c.name())
	}

	commit := c.Commit
	if commit == "" {
		commit = "unknown"
	}
	dirty := ""
	if c.Modified {
		dirty = " (with uncommitted changes)"
	}

	return fmt.Sprintf("%s %s, built with %s from commit %s%s at %s.", c.name(), c.Version, c.GoVersion, commit, dirty, c.CommitTime)
}

func (c CompileInfo) name() string {
	if c.Binary != "" {
		return c.Binary
	}
	if c.Module != "" {
		return c.Module
	}
	return "this binary"
}

// Get reads the build information of the running binary.
func Get() CompileInfo {
	z, ok := debug.ReadBuildInfo()
	if !ok {
		return CompileInfo{}
	}

	return fromBuildInfo(z)
}

func fromBuildInfo(z *debug.BuildInfo) CompileInfo {
	out := CompileInfo{
		Binary:    z.Path,
		Module:    z.Main.Path,
		Version:   z.Main.Version,
		GoVersion: z.GoVersion,
	}

	for _, s := range z.Settings {
		switch s.Key {
		case "vcs.revision":
			out.Commit = s.Value
		case "vcs.time":
			out.CommitTime = s.Value
		case "vcs.modified":
			out.Modified = s.Value == "true"
		}
	}

	return out
}

// Fprint writes a one-line banner to w.
func Fprint(w io.Writer) {
	fmt.Fprintln(w, Get())
}
