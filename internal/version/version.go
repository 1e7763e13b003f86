package version

import (
	"fmt"
	"runtime/debug"
	"time"
)

// Version and Commit are normally stamped by the release build:
//
//	go build -ldflags="-X github.com/myconode/myconode/internal/version.Version=v0.4.0 \
//	                   -X github.com/myconode/myconode/internal/version.Commit=3f2a9c1"
//
// A plain `go build` from a checkout falls back to the VCS stamp the
// toolchain embeds, and anything else reports a dev build.
var (
	Version = ""
	Commit  = ""

	// Modified is set when the binary was built from a working tree with
	// uncommitted changes.
	Modified bool
)

// Product is the name sent in the User-Agent header and shown by the CLIs.
const Product = "myconode"

// vcsStamp is the subset of debug.BuildInfo settings we report.
type vcsStamp struct {
	revision string
	time     time.Time
	modified bool
}

func init() {
	stamp, _ := readVCSStamp()
	resolve(stamp, time.Now())
}

func readVCSStamp() (vcsStamp, bool) {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return vcsStamp{}, false
	}

	var s vcsStamp
	for _, kv := range info.Settings {
		switch kv.Key {
		case "vcs.revision":
			s.revision = kv.Value
		case "vcs.time":
			s.time, _ = time.Parse(time.RFC3339, kv.Value)
		case "vcs.modified":
			s.modified = kv.Value == "true"
		}
	}
	return s, s.revision != ""
}

// resolve fills whatever the linker left empty. Values set through ldflags
// always win.
func resolve(s vcsStamp, now time.Time) {
	if Commit == "" {
		Commit = shortRevision(s.revision)
		Modified = s.modified
	}
	if Commit == "" {
		Commit = "unknown"
	}

	if Version == "" {
		stamp := now
		if !s.time.IsZero() {
			stamp = s.time
		}
		Version = "dev-" + stamp.UTC().Format("20060102")
	}
}

func shortRevision(rev string) string {
	if len(rev) > 7 {
		return rev[:7]
	}
	return rev
}

// Full returns the version with its commit, e.g. "v0.4.0 (commit: 3f2a9c1)".
// Builds from a modified tree are marked as such.
func Full() string {
	if Modified {
		return fmt.Sprintf("%s (commit: %s, modified)", Version, Commit)
	}
	return fmt.Sprintf("%s (commit: %s)", Version, Commit)
}

// UserAgent returns the User-Agent value used for requests to the document store
func UserAgent() string {
	return fmt.Sprintf("%s/%s", Product, Version)
}
