package main

import "runtime/debug"

// version is stamped at release: -ldflags "-X main.version=v1.0.0".
var version = ""

// getVersion prefers the stamped version, then the module version recorded
// by "go install @version", then "dev".
func getVersion() string {
	if version != "" {
		return version
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		if v := info.Main.Version; v != "" && v != "(devel)" {
			return v
		}
	}
	return "dev"
}
