package contracts

import (
	"fmt"
	"runtime"
)

// Versions of the binaries and of the formats they produce. The report
// format changes only when a field of the JSON run report is renamed or
// removed.
const (
	Version             = "0.3.0"
	ReportFormatVersion = "v1"
	APIVersion          = "v1"
)

// Set at build time:
//
//	go build -ldflags "-X tabclean/pkg/contracts.GitCommit=$(git rev-parse --short HEAD)"
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// VersionInfo is served by GET /version.
type VersionInfo struct {
	Version      string `json:"version"`
	APIVersion   string `json:"api_version"`
	ReportFormat string `json:"report_format"`
	BuildTime    string `json:"build_time"`
	GitCommit    string `json:"git_commit"`
	GoVersion    string `json:"go_version"`
	Platform     string `json:"platform"`
}

// GetVersionInfo describes the running binary.
func GetVersionInfo() VersionInfo {
	return VersionInfo{
		Version:      Version,
		APIVersion:   APIVersion,
		ReportFormat: ReportFormatVersion,
		BuildTime:    BuildTime,
		GitCommit:    GitCommit,
		GoVersion:    runtime.Version(),
		Platform:     runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// GetFullVersionString is the one-line form printed by `tabclean version`.
func GetFullVersionString() string {
	info := GetVersionInfo()
	return fmt.Sprintf("tabclean v%s (report %s, api %s, commit %s, built %s, %s %s)",
		info.Version, info.ReportFormat, info.APIVersion, info.GitCommit, info.BuildTime, info.GoVersion, info.Platform)
}
