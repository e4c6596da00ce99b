package version

import "runtime"

// Version is the current version of pairline.
// This value can be overridden at build time using:
//
//	go build -ldflags="-X 'github.com/BioHazard786/pairline/internal/version.Version=v1.0.0'"
var Version = "dev"

// String describes the build, e.g. "pairline dev (go1.25.3 linux/amd64)".
func String() string {
	return "pairline " + Version + " (" + runtime.Version() + " " + runtime.GOOS + "/" + runtime.GOARCH + ")"
}
