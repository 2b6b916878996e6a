package version

import (
	"fmt"
	"io"
	"runtime"
)

// Set at build time through -ldflags "-X".
var (
	App       = "activitysync"
	Version   string
	GitCommit string
	BuildTime string
)

// String returns the release version, or "dev" for local builds.
func String() string {
	if Version != "" {
		return Version
	}
	return "dev"
}

// UserAgent is sent with every outbound provider API request.
func UserAgent() string {
	return App + "/" + String()
}

// ShortCommit returns the first seven characters of the build commit.
func ShortCommit() string {
	if len(GitCommit) > 7 {
		return GitCommit[:7]
	}
	return GitCommit
}

// Fprint writes the build information to w.
func Fprint(w io.Writer) {
	fmt.Fprintf(w, "%s version %s\n", App, String())
	if GitCommit != "" {
		fmt.Fprintf(w, "Git commit: %s\n", ShortCommit())
	}
	if BuildTime != "" {
		fmt.Fprintf(w, "Build time: %s\n", BuildTime)
	}
	fmt.Fprintf(w, "Go version: %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
