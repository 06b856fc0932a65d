// Package version holds build metadata, set with -ldflags
// "-X github.com/MrSnakeDoc/clipsort/internal/version.Version=v0.1.0".
package version

import (
	"fmt"
	"runtime"
	"time"
)

var (
	Version   = "dev"                           // ex: v0.1.0
	Commit    = "none"                          // ex: abcd123
	BuildDate = time.Now().Format(time.RFC3339) // ex: 2026-03-01T18:42:00Z
	GoVersion = runtime.Version()               // go version
)

// String is the one-line build summary printed at startup.
func String() string {
	return fmt.Sprintf("clipsort %s (commit=%s, built=%s, go=%s)", Version, Commit, BuildDate, GoVersion)
}
