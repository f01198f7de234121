// SPDX-License-Identifier: MIT
//
// Package build exposes the metadata embedded into the binary at link time:
//
//	go build -ldflags "-X waveform/pkg/build.buildName=waveform \
//	    -X waveform/pkg/build.buildVersion=0.3.0 ..."
//
// Development builds carry no flags; Initialize reports that and the
// defaults stay in place.
package build

import (
	"fmt"
	"runtime"
)

// Info describes the running binary.
type Info struct {
	Name    string
	Time    string
	Commit  string
	Version string
}

// Package-level variables populated by -ldflags during compilation.
var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string
	buildFlags   = defaultInfo()
)

func defaultInfo() *Info {
	return &Info{
		Name:    "waveform",
		Time:    "unknown",
		Commit:  "unknown",
		Version: "dev",
	}
}

// Initialize validates and copies build information from ldflags variables.
// It returns an error naming the first missing flag, in which case the
// development defaults are kept.
func Initialize() error {
	if buildName == "" {
		return fmt.Errorf("BuildName is required")
	}
	if buildTime == "" {
		return fmt.Errorf("BuildTime is required")
	}
	if buildCommit == "" {
		return fmt.Errorf("BuildCommit is required")
	}
	if buildVersion == "" {
		return fmt.Errorf("BuildVersion is required")
	}

	buildFlags.Name = buildName
	buildFlags.Time = buildTime
	buildFlags.Commit = buildCommit
	buildFlags.Version = buildVersion
	return nil
}

// GetBuildFlags returns the current build information.
func GetBuildFlags() *Info {
	return buildFlags
}

// String formats the information for a version banner.
func (i Info) String() string {
	commit := i.Commit
	if len(commit) > 7 {
		commit = commit[:7]
	}
	return fmt.Sprintf("%s %s (commit %s, built %s, %s/%s)", i.Name, i.Version, commit, i.Time, runtime.GOOS, runtime.GOARCH)
}
