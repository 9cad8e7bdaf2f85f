package compileinfo

import (
	"runtime/debug"
	"strings"
	"testing"
)

func TestFromBuildInfo(t *testing.T) {
	ci := fromBuildInfo(&debug.BuildInfo{
		GoVersion: "go1.21.0",
		Path:      "github.com/carbocation/rnaprep/cmd/countprep",
		Main:      debug.Module{Path: "github.com/carbocation/rnaprep", Version: "(devel)"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "abc123"},
			{Key: "vcs.time", Value: "2022-04-01T00:00:00Z"},
			{Key: "vcs.modified", Value: "true"},
		},
	})

	if ci.Commit != "abc123" || !ci.Modified || ci.Module != "github.com/carbocation/rnaprep" {
		t.Errorf("Unexpected %+v", ci)
	}

	s := ci.String()
	for _, want := range []string{"cmd/countprep", "go1.21.0", "abc123", "uncommitted"} {
		if !strings.Contains(s, want) {
			t.Errorf("Expected %q in %q", want, s)
		}
	}
}

func TestEmpty(t *testing.T) {
	if s := (CompileInfo{}).String(); !strings.Contains(s, "no build information") {
		t.Errorf("Unexpected %q", s)
	}
}
