package platform

import (
	"fmt"
	"os"
	"runtime"
	"strings"
)

// RealDetector implements Detector using the Go runtime and the libc
// probe chain.
type RealDetector struct {
	probes []libcProbe
}

// NewDetector creates a new platform detector.
func NewDetector() Detector {
	return &RealDetector{probes: defaultLibcProbes()}
}

// Detect resolves the canonical platform ID for the running host.
// On Linux it additionally runs the libc probe chain to decide whether
// the "-musl" suffix applies. On Windows it first checks for a POSIX
// emulation layer, which the Go runtime reports as plain "windows".
func (d *RealDetector) Detect() (ID, error) {
	osName := runtime.GOOS
	if osName == "windows" {
		if emu := emulationLayer(os.Getenv); emu != "" {
			osName = emu
		}
	}

	var libc Libc
	if osName == "linux" {
		libc = detectLibc(d.probes)
	}
	return Resolve(osName, runtime.GOARCH, libc)
}

// emulationLayer identifies a POSIX emulation environment running on
// Windows from its telltale environment variables: MSYS2 and Git Bash set
// MSYSTEM, Cygwin sets OSTYPE=cygwin. Returns "" for a native Windows
// session.
func emulationLayer(getenv func(string) string) string {
	if getenv("MSYSTEM") != "" {
		return "msys"
	}
	if strings.Contains(strings.ToLower(getenv("OSTYPE")), "cygwin") {
		return "cygwin"
	}
	return ""
}

// Resolve builds the canonical platform ID from raw OS and architecture
// names. The libc flavor is only honored for the Linux family; it is
// ignored everywhere else so exactly one canonical ID exists per
// (os, arch, libc) combination.
func Resolve(osName, arch string, libc Libc) (ID, error) {
	normOS, err := normalizeOS(osName, arch)
	if err != nil {
		return "", err
	}

	normArch, err := normalizeArch(osName, arch)
	if err != nil {
		return "", err
	}

	if normOS == "linux" && libc == LibcMusl {
		return ID(fmt.Sprintf("%s-%s-%s", normOS, normArch, LibcMusl)), nil
	}
	return ID(fmt.Sprintf("%s-%s", normOS, normArch)), nil
}

// normalizeArch converts raw architecture names to canonical ones.
func normalizeArch(osName, arch string) (string, error) {
	switch arch {
	case "amd64", "x86_64":
		return "x64", nil
	case "arm64", "aarch64":
		return "arm64", nil
	default:
		return "", &UnsupportedPlatformError{
			OS:   osName,
			Arch: arch,
			Remediation: "Squirrel ships prebuilt binaries for x64 and arm64 only.\n" +
				"See https://github.com/squirrelhq/squirrel#supported-platforms for alternatives.",
		}
	}
}

// normalizeOS converts raw OS names to canonical ones. Known-unsupported
// environments fail with targeted remediation rather than a generic
// message.
func normalizeOS(osName, arch string) (string, error) {
	switch osName {
	case "darwin":
		return "darwin", nil
	case "linux":
		return "linux", nil
	case "windows", "win32":
		return "windows", nil
	case "msys", "mingw", "mingw32", "mingw64", "cygwin":
		// POSIX emulation on Windows: the artifact exists, but this
		// environment cannot host the installer.
		return "", &UnsupportedPlatformError{
			OS:   osName,
			Arch: arch,
			Remediation: "POSIX emulation layers on Windows are not supported.\n" +
				"Run the native Windows installer from PowerShell or cmd.exe instead.",
		}
	case "freebsd", "openbsd", "netbsd", "dragonfly":
		return "", &UnsupportedPlatformError{
			OS:   osName,
			Arch: arch,
			Remediation: "No prebuilt Squirrel binaries exist for BSD systems.\n" +
				"Use the Linux binary under your system's Linux compatibility layer, or build from source.",
		}
	default:
		return "", &UnsupportedPlatformError{OS: osName, Arch: arch}
	}
}
