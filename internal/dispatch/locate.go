// Package dispatch finds the installed engine binary and hands the launcher's
// invocation over to it: arguments, stdio, exit code, and on Unix the
// terminating signal all pass through unchanged.
package dispatch

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	homedir "github.com/mitchellh/go-homedir"
)

// NotFoundError reports that no candidate location held the engine binary.
type NotFoundError struct {
	Probed []string
}

func (e *NotFoundError) Error() string {
	var b strings.Builder
	b.WriteString("squirrel engine binary not found; looked in:\n")
	for _, p := range e.Probed {
		fmt.Fprintf(&b, "  %s\n", p)
	}
	b.WriteString("Run squirrel-install to download and install it,\n")
	b.WriteString("or see https://github.com/squirrelhq/squirrel#install for other options.")
	return b.String()
}

func binaryName() string {
	if runtime.GOOS == "windows" {
		return "squirrel.exe"
	}
	return "squirrel"
}

// CandidatePaths returns the locations probed for the engine binary, in
// precedence order: the per-user install, system-wide installs, then a
// bundled copy sitting next to the launcher itself.
func CandidatePaths() []string {
	name := binaryName()
	var candidates []string

	if home, err := homedir.Dir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".local", "bin", name))
	}
	if runtime.GOOS == "windows" {
		if local := os.Getenv("LOCALAPPDATA"); local != "" {
			candidates = append(candidates, filepath.Join(local, "Programs", "squirrel", name))
		}
	} else {
		candidates = append(candidates,
			filepath.Join("/usr/local/bin", name),
			filepath.Join("/opt/squirrel/bin", name),
		)
	}

	if self, err := os.Executable(); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(self), name))
	}
	return candidates
}

// Locate returns the first candidate that exists and is executable. The
// search order is fixed, so a per-user install always shadows a system one.
func Locate(candidates []string) (string, error) {
	for _, path := range candidates {
		if isExecutable(path) {
			return path, nil
		}
	}
	return "", &NotFoundError{Probed: candidates}
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0111 != 0
}
