// Package version reports the build identity of the idmigrate binary.
//
// Version, commit and build time are set at compile time via -ldflags:
//
//	go build -ldflags "-X github.com/kbukum/idmigrate/version.Version=1.4.0" ./cmd/idmigrate
package version
