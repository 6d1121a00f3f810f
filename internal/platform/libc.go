package platform

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v4/host"
)

// libcProbe reports the detected libc flavor. ok is false when the probe
// could not reach a conclusion, in which case the chain moves on.
type libcProbe func() (Libc, bool)

// defaultLibcProbes returns the ordered probe chain used on Linux.
// First conclusive probe wins; if none concludes, the default libc is
// assumed.
func defaultLibcProbes() []libcProbe {
	return []libcProbe{
		probeMuslLoader,
		probeDistroMarker,
		probeDynamicLinker,
	}
}

// detectLibc runs the probe chain in order and returns the first
// conclusive result, defaulting to glibc.
func detectLibc(probes []libcProbe) Libc {
	for _, probe := range probes {
		if libc, ok := probe(); ok {
			return libc
		}
	}
	return LibcDefault
}

// probeMuslLoader checks for the musl dynamic loader file.
func probeMuslLoader() (Libc, bool) {
	matches, err := filepath.Glob("/lib/ld-musl-*.so.1")
	if err != nil || len(matches) == 0 {
		return LibcDefault, false
	}
	return LibcMusl, true
}

// probeDistroMarker checks for a musl-based distribution marker: the
// Alpine release file, falling back to gopsutil's platform report.
// A recognized glibc distribution is not treated as conclusive because
// containers sometimes carry foreign os-release files.
func probeDistroMarker() (Libc, bool) {
	if info, err := os.Stat("/etc/alpine-release"); err == nil && info.Mode().IsRegular() {
		return LibcMusl, true
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	platform, _, _, err := host.PlatformInformationWithContext(ctx)
	if err != nil {
		return LibcDefault, false
	}
	if strings.Contains(strings.ToLower(platform), "alpine") {
		return LibcMusl, true
	}
	return LibcDefault, false
}

// probeDynamicLinker invokes ldd's version query and pattern-matches the
// output. musl's ldd prints "musl libc" on stderr with a nonzero exit, so
// the combined output is inspected regardless of the exit status.
func probeDynamicLinker() (Libc, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	out, _ := exec.CommandContext(ctx, "ldd", "--version").CombinedOutput()
	if len(out) == 0 {
		return LibcDefault, false
	}
	if strings.Contains(strings.ToLower(string(out)), "musl") {
		return LibcMusl, true
	}
	return LibcDefault, false
}
