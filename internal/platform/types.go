package platform

import "fmt"

// ID is the canonical platform identifier used as the manifest lookup key.
// It has the form "{os}-{arch}" with an optional "-musl" suffix on Linux
// hosts running the musl C library (e.g. "linux-x64-musl", "darwin-arm64").
type ID string

// String returns the string representation of the platform ID.
func (id ID) String() string {
	return string(id)
}

// Libc identifies the C runtime flavor on Linux hosts.
type Libc string

const (
	// LibcDefault is the default C library (glibc); it carries no suffix.
	LibcDefault Libc = ""
	// LibcMusl is the alternate C library; it appends the "-musl" suffix.
	LibcMusl Libc = "musl"
)

// UnsupportedPlatformError indicates the host (os, arch) pair has no
// prebuilt Squirrel artifact. Remediation carries platform-specific
// guidance for pairs that are known-unsupported rather than unrecognized.
type UnsupportedPlatformError struct {
	OS          string
	Arch        string
	Remediation string
}

func (e *UnsupportedPlatformError) Error() string {
	msg := fmt.Sprintf("unsupported platform: %s/%s", e.OS, e.Arch)
	if e.Remediation != "" {
		msg += "\n" + e.Remediation
	}
	return msg
}

// Detector resolves the canonical platform ID for the running host.
type Detector interface {
	Detect() (ID, error)
}

// StaticDetector always reports a fixed platform ID. It backs cross-platform
// dry runs and tests that must be independent of the host.
type StaticDetector struct {
	ID ID
}

func (d StaticDetector) Detect() (ID, error) {
	return d.ID, nil
}
