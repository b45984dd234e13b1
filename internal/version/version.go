// Package version provides the semantic version of the current build.
package version

import "fmt"

// Version is the service version.
var Version = "0.1.0"

// DevVersion is the service version of development build.
var DevVersion = "0.1.0"

func GetCurrentVersion(mode string) string {
	if mode == "dev" || mode == "demo" {
		return DevVersion
	}
	return Version
}

func GetVersionWithMode(mode string) string {
	return fmt.Sprintf("%s-%s", GetCurrentVersion(mode), mode)
}
