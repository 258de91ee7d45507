// Package version reports the cg build version.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Version is the current application version.
// This is a var (not const) so it can be overridden at build time via:
//
//	go build -ldflags "-X github.com/vanderheijden86/conceptgraph/pkg/version.Version=v1.2.3"
var Version = "v0.1.0"

// Commit returns the VCS revision recorded by the Go toolchain, if any.
func Commit() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" && len(s.Value) >= 7 {
			return s.Value[:7]
		}
	}
	return ""
}

// String is the one-line version banner.
func String() string {
	if c := Commit(); c != "" {
		return fmt.Sprintf("cg %s (%s, %s)", Version, c, runtime.Version())
	}
	return fmt.Sprintf("cg %s (%s)", Version, runtime.Version())
}
