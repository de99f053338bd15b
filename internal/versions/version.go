// Package versions reports the build metadata compiled into the mcpdir
// binary.
package versions

import (
	"runtime"
	"runtime/debug"
)

// Set at build time via -ldflags. Unset values fall back to the VCS stamp
// Go embeds in the binary.
var (
	Version   = "dev"
	Commit    = ""
	BuildDate = ""
)

// Info is the version report rendered by the version command.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"buildDate"`
	GoVersion string `json:"goVersion"`
	Platform  string `json:"platform"`
}

// Get assembles the version report, preferring ldflags values over the
// embedded VCS information.
func Get() Info {
	commit, buildDate := Commit, BuildDate
	if buildInfo, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range buildInfo.Settings {
			switch setting.Key {
			case "vcs.revision":
				if commit == "" {
					commit = setting.Value
				}
			case "vcs.time":
				if buildDate == "" {
					buildDate = setting.Value
				}
			}
		}
	}

	return Info{
		Version:   Version,
		Commit:    commit,
		BuildDate: buildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}
