package migi

import (
	"fmt"
	"runtime"

	"github.com/aita/migi/internal/snapshot"
)

// Version is the release version
const Version = "0.3.0"

// BuildInfo contains build information
var BuildInfo = struct {
	Version   string
	GitCommit string
	BuildDate string
	GoVersion string
}{
	Version:   Version,
	GoVersion: runtime.Version(),
}

// SetBuildInfo is called by the build process
func SetBuildInfo(commit, date, goVersion string) {
	BuildInfo.GitCommit = commit
	BuildInfo.BuildDate = date
	if goVersion != "" {
		BuildInfo.GoVersion = goVersion
	}
}

// VersionInfo returns formatted version information
func VersionInfo() string {
	return fmt.Sprintf("migi %s (snapshot v%d)", BuildInfo.Version, snapshot.Version)
}

// FullVersionInfo returns detailed version information
func FullVersionInfo() string {
	info := fmt.Sprintf("migi %s\n", BuildInfo.Version)
	info += fmt.Sprintf("Snapshot Version: %d\n", snapshot.Version)
	info += fmt.Sprintf("Go Version: %s\n", BuildInfo.GoVersion)

	if BuildInfo.GitCommit != "" {
		info += fmt.Sprintf("Git Commit: %s\n", BuildInfo.GitCommit)
	}

	if BuildInfo.BuildDate != "" {
		info += fmt.Sprintf("Build Date: %s\n", BuildInfo.BuildDate)
	}

	return info
}
