package main

import (
	"runtime/debug"
)

// baseVersion is the version of the last release.
const baseVersion = "0.3.0"

// Version returns the version string.
//
// When installed via `go install ...@version`, returns the module version (e.g., "v0.3.0").
// For development builds, returns "devel-0.3.0+abc1234" with VCS revision if available.
func Version() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return baseVersion
	}

	// If installed via go install, use the module version
	if info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}

	var vcsRev string
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" && len(s.Value) >= 7 {
			vcsRev = s.Value[:7]
			break
		}
	}

	if vcsRev != "" {
		return "devel-" + baseVersion + "+" + vcsRev
	}

	return "devel-" + baseVersion
}
