package buildinfo

import (
	"fmt"
	"runtime/debug"
)

// Version returns the module version stamped into the binary, or "dev"
// for a local build.
func Version() string {
	info, ok := debug.ReadBuildInfo()
	if !ok || info == nil {
		return "dev"
	}
	if v := info.Main.Version; v != "" && v != "(devel)" {
		return v
	}
	return "dev"
}

// Revision returns the VCS revision recorded at compile time, shortened
// to 12 characters, or "" when the build carries no VCS stamp.
func Revision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok || info == nil {
		return ""
	}
	for _, setting := range info.Settings {
		if setting.Key == "vcs.revision" {
			if len(setting.Value) > 12 {
				return setting.Value[:12]
			}
			return setting.Value
		}
	}
	return ""
}

// VersionWithRevision is the string printed by the --version flag.
func VersionWithRevision() string {
	version := Version()
	rev := Revision()
	if rev == "" {
		return version
	}
	return fmt.Sprintf("%s (%s)", version, rev)
}
