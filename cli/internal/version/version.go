// Package version carries build metadata, set with -ldflags.
package version

import (
	"fmt"
	"runtime"
)

var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// Info is a snapshot of the build metadata.
type Info struct {
	Version   string
	BuildDate string
	GitCommit string
	GoVersion string
	Platform  string
}

// Get returns the current build metadata.
func Get() Info {
	return Info{
		Version:   Version,
		BuildDate: BuildDate,
		GitCommit: GitCommit,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

func (i Info) String() string {
	return fmt.Sprintf("sqlkit %s (%s, %s)", i.Version, i.Platform, i.GoVersion)
}

// Pairs returns the metadata as ordered key/value rows.
func (i Info) Pairs() [][2]string {
	return [][2]string{
		{"version", i.Version},
		{"commit", i.GitCommit},
		{"built", i.BuildDate},
		{"go", i.GoVersion},
		{"platform", i.Platform},
	}
}
