// Package version reports build information for the sales dashboard.
package version

import (
	"fmt"
	"runtime/debug"
	"strings"
)

// Set via -ldflags "-X salesdash/internal/version.Version=..."
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// Info is served by /api/health and printed by -version
type Info struct {
	Version   string `json:"version"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
	Commit    string `json:"commit,omitempty"`
	Modified  bool   `json:"modified,omitempty"`
}

// Get collects ldflags values and VCS settings from the embedded build info
func Get() Info {
	info := Info{Version: Version, BuildTime: BuildTime}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	info.GoVersion = bi.GoVersion
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			info.Commit = s.Value
		case "vcs.modified":
			info.Modified = s.Value == "true"
		}
	}
	return info
}

// ShortCommit is the first 8 characters of the revision
func (i Info) ShortCommit() string {
	if len(i.Commit) > 8 {
		return i.Commit[:8]
	}
	return i.Commit
}

func (i Info) String() string {
	parts := []string{"salesdash " + i.Version}
	if c := i.ShortCommit(); c != "" {
		if i.Modified {
			c += "+dirty"
		}
		parts = append(parts, "commit "+c)
	}
	if i.BuildTime != "unknown" {
		parts = append(parts, "built "+i.BuildTime)
	}
	if i.GoVersion != "" {
		parts = append(parts, i.GoVersion)
	}
	return strings.Join(parts, ", ")
}

// Warning returns a startup warning for builds without a release version
func (i Info) Warning() string {
	switch {
	case i.Modified:
		return "binary built from a modified source tree"
	case i.Version == "dev" && i.Commit == "":
		return fmt.Sprintf("development build without version control information (%s)", i.GoVersion)
	}
	return ""
}
