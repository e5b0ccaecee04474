// Package misc holds build time information about the program.
package misc

import (
	"os"
	"path/filepath"
	"strings"
)

// Set by linker flags.
var (
	version = "dev"
	gitHash = "unknown"
)

func GetVersion() string {
	return version
}

func GetGitHash() string {
	return gitHash
}

// GetAppName returns executable name without extension, "isolint" if it cannot be determined.
func GetAppName() string {
	name := "isolint"
	if exe, err := os.Executable(); err == nil {
		base := strings.TrimSuffix(filepath.Base(exe), ".exe")
		// go test binaries are not meaningful names for logs and reports
		if len(base) > 0 && !strings.HasSuffix(base, ".test") {
			name = base
		}
	}
	return name
}
