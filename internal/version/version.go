package version

import "runtime/debug"

// Get returns the version of the application from build info
func Get() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "(unknown version)"
}

// UserAgent is sent with registry and existing content requests.
func UserAgent() string {
	v := Get()
	if v == "(unknown version)" || v == "(devel)" {
		return "fieldgen/dev"
	}
	return "fieldgen/" + v
}
