// Package buildinfo identifies the research binary. The release build
// stamps Version, GitCommit, GitBranch, and BuildTime with
//
//	-ldflags "-X github.com/nugget/research-assistant/internal/buildinfo.Version=v1.2.0 ..."
//
// and the values surface in three places: "research version", the
// GET /v1/version endpoint of "research serve", and the User-Agent
// header that search and model requests carry. Unstamped builds report
// "dev" and "unknown".
package buildinfo

import (
	"fmt"
	"runtime"
	"time"
)

// Binary is the command name reported alongside the version.
const Binary = "research"

// Set at link time.
var (
	Version   = "dev"
	GitCommit = "unknown"
	GitBranch = "unknown"
	BuildTime = "unknown"
)

var startTime = time.Now()

// Info returns build and runtime details keyed for JSON output.
func Info() map[string]string {
	return map[string]string{
		"binary":     Binary,
		"version":    Version,
		"git_commit": GitCommit,
		"git_branch": GitBranch,
		"build_time": BuildTime,
		"go_version": runtime.Version(),
		"os":         runtime.GOOS,
		"arch":       runtime.GOARCH,
		"uptime":     Uptime().String(),
	}
}

// Uptime returns the duration since process start.
func Uptime() time.Duration {
	return time.Since(startTime).Truncate(time.Second)
}

// String is the one-line banner printed by "research version".
func String() string {
	return fmt.Sprintf("%s %s (%s@%s) built %s", Binary, Version, GitCommit, GitBranch, BuildTime)
}

// UserAgent identifies outbound search and completion requests so
// backend operators can attribute traffic to a release.
func UserAgent() string {
	return fmt.Sprintf("ResearchAssistant/%s (+https://github.com/nugget/research-assistant)", Version)
}
