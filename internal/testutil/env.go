// Package testutil provides utilities for testing the installer in isolation.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// SetupTestEnv points every environment knob the installer reads at
// throwaway locations, so tests never touch:
// - a real ~/.squirrel install root
// - the user's published binaries under ~/.local/bin
// - the user's settings record
//
// Cleanup is handled by t.TempDir() and t.Setenv(), so callers don't need
// to undo anything.
func SetupTestEnv(t *testing.T) string {
	t.Helper()

	tmpDir := t.TempDir()
	root := filepath.Join(tmpDir, "root")
	binDir := filepath.Join(tmpDir, "bin")

	t.Setenv("SQUIRREL_INSTALL_ROOT", root)
	t.Setenv("SQUIRREL_BIN_DIR", binDir)

	// Per-invocation resolution knobs must not leak in from the caller's
	// shell.
	t.Setenv("SQUIRREL_VERSION", "")
	t.Setenv("SQUIRREL_CHANNEL", "")

	for _, dir := range []string{root, binDir} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			t.Fatalf("failed to create test directory %s: %v", dir, err)
		}
	}
	return tmpDir
}
