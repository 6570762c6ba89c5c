// Package version holds build information injected at link time:
//
//	go build -ldflags "-X github.com/information-sharing-networks/dbc-connect/internal/version.version=v1.2.0 \
//	  -X github.com/information-sharing-networks/dbc-connect/internal/version.buildDate=$(date -u +%Y-%m-%dT%H:%M:%SZ) \
//	  -X github.com/information-sharing-networks/dbc-connect/internal/version.gitCommit=$(git rev-parse --short HEAD)"
package version

import "runtime/debug"

var (
	version   = "dev"
	buildDate = "unknown"
	gitCommit = "unknown"
)

type Info struct {
	Version   string
	BuildDate string
	GitCommit string
}

// Get returns the build info. When the binary was built without ldflags
// the vcs revision recorded by the go toolchain is used for the commit.
func Get() Info {
	info := Info{
		Version:   version,
		BuildDate: buildDate,
		GitCommit: gitCommit,
	}

	if info.GitCommit == "unknown" {
		if bi, ok := debug.ReadBuildInfo(); ok {
			for _, s := range bi.Settings {
				switch s.Key {
				case "vcs.revision":
					if len(s.Value) > 7 {
						info.GitCommit = s.Value[:7]
					} else {
						info.GitCommit = s.Value
					}
				case "vcs.time":
					if info.BuildDate == "unknown" {
						info.BuildDate = s.Value
					}
				}
			}
		}
	}
	return info
}
