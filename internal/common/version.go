package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ServiceName identifies this binary in banners and version output
const ServiceName = "scout"

// versionFileName is the sidecar file packaged releases drop next to the
// binary to override the compiled-in version
const versionFileName = "scout.version"

// Version information (set via -ldflags during build)
var (
	Version   = "dev"
	Build     = "unknown"
	GitCommit = "unknown"
)

// GetVersion returns the current version string
func GetVersion() string {
	return Version
}

// GetBuild returns the build timestamp
func GetBuild() string {
	return Build
}

// GetGitCommit returns the git commit hash
func GetGitCommit() string {
	return GitCommit
}

// GetFullVersion returns the service identity with build info
func GetFullVersion() string {
	return fmt.Sprintf("%s %s (build: %s, commit: %s)", ServiceName, Version, Build, GitCommit)
}

// LoadVersionFromFile applies the sidecar version file when present,
// looking next to the binary first and then in the working directory
func LoadVersionFromFile() string {
	var candidates []string
	if exePath, err := os.Executable(); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(exePath), versionFileName))
	}
	candidates = append(candidates, versionFileName)

	for _, path := range candidates {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if version := strings.TrimSpace(string(data)); version != "" {
			Version = version
			break
		}
	}

	return Version
}
