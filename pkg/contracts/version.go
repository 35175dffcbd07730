package contracts

import (
	"fmt"
	"runtime"
)

// APIVersion is the version of the HTTP and WebSocket message formats
const APIVersion = "v1"

// Build metadata, injected with
// -ldflags "-X vizpipe/pkg/contracts.Version=1.2.0 -X vizpipe/pkg/contracts.GitCommit=$(git rev-parse --short HEAD)"
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// VersionInfo describes the running binary
type VersionInfo struct {
	Version      string `json:"version"`
	BuildTime    string `json:"build_time"`
	GitCommit    string `json:"git_commit"`
	GoVersion    string `json:"go_version"`
	OS           string `json:"os"`
	Architecture string `json:"architecture"`
	APIVersion   string `json:"api_version"`
}

// Current returns the build metadata of this binary
func Current() VersionInfo {
	return VersionInfo{
		Version:      Version,
		BuildTime:    BuildTime,
		GitCommit:    GitCommit,
		GoVersion:    runtime.Version(),
		OS:           runtime.GOOS,
		Architecture: runtime.GOARCH,
		APIVersion:   APIVersion,
	}
}

// String formats v for --version output
func (v VersionInfo) String() string {
	return fmt.Sprintf("%s (api %s, commit %s, built %s, %s %s/%s)",
		v.Version, v.APIVersion, v.GitCommit, v.BuildTime, v.GoVersion, v.OS, v.Architecture)
}
