package cmd

import (
	"fmt"
	"runtime"
)

var (
	// Set via ldflags during build
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
	GoVersion = runtime.Version()
)

// versionInfo is printed by --version.
func versionInfo() string {
	return fmt.Sprintf(`snoopflow
Version:     %s
Git Commit:  %s
Build Date:  %s
Go Version:  %s
OS/Arch:     %s/%s
`, Version, GitCommit, BuildDate, GoVersion, runtime.GOOS, runtime.GOARCH)
}
