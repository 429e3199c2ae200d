package version

import (
	"runtime"
	"time"
)

// Set at build time through -ldflags "-X".
var (
	Version   = "dev"                           // ex: v0.1.0
	Commit    = "none"                          // ex: abcd123
	BuildDate = time.Now().Format(time.RFC3339) // ex: 2026-10-19T18:42:00Z
	GoVersion = runtime.Version()
)

// String renders a one-line build description for startup logs.
func String() string {
	return Version + " (commit=" + Commit + ", built=" + BuildDate + ", go=" + GoVersion + ")"
}
