package install

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	homedir "github.com/mitchellh/go-homedir"

	"github.com/squirrelhq/squirrel-go/internal/settings"
)

const (
	// EnvInstallRoot overrides the install root (used for test isolation).
	EnvInstallRoot = "SQUIRREL_INSTALL_ROOT"
	// EnvBinDir overrides the directory receiving the published binary.
	EnvBinDir = "SQUIRREL_BIN_DIR"
)

// Paths holds the directories the installer operates on.
type Paths struct {
	// Root is the install root (default ~/.squirrel). Versioned
	// installs, settings, and the temp working area live under it.
	Root string
	// VersionsDir holds one directory per installed release.
	VersionsDir string
	// BinDir is where the current-version pointer is published.
	BinDir string
	// SettingsPath is the per-user settings record.
	SettingsPath string
}

// BinaryName returns the published binary name for the current platform.
func BinaryName() string {
	if runtime.GOOS == "windows" {
		return "squirrel.exe"
	}
	return "squirrel"
}

// ResolvePaths computes the installer's directory layout. binDirOverride
// (flag or SQUIRREL_BIN_DIR) is validated writable before use; an
// unwritable override falls back to the default location rather than
// failing the install.
func ResolvePaths(binDirOverride string) (Paths, error) {
	root := os.Getenv(EnvInstallRoot)
	if root == "" {
		home, err := homedir.Dir()
		if err != nil {
			return Paths{}, fmt.Errorf("resolve home directory: %w", err)
		}
		root = filepath.Join(home, ".squirrel")
	}

	binDir, err := resolveBinDir(binDirOverride)
	if err != nil {
		return Paths{}, err
	}

	return Paths{
		Root:         root,
		VersionsDir:  filepath.Join(root, "versions"),
		BinDir:       binDir,
		SettingsPath: filepath.Join(root, settings.FileName),
	}, nil
}

func resolveBinDir(override string) (string, error) {
	if override == "" {
		override = os.Getenv(EnvBinDir)
	}
	if override != "" && dirWritable(override) {
		return override, nil
	}

	home, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	if runtime.GOOS == "windows" {
		if local := os.Getenv("LOCALAPPDATA"); local != "" {
			return filepath.Join(local, "Programs", "squirrel"), nil
		}
		return filepath.Join(home, "AppData", "Local", "Programs", "squirrel"), nil
	}
	return filepath.Join(home, ".local", "bin"), nil
}

// dirWritable probes a directory by creating and removing a temp file.
func dirWritable(dir string) bool {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return false
	}
	probe, err := os.CreateTemp(dir, ".squirrel-write-test-")
	if err != nil {
		return false
	}
	probe.Close()
	os.Remove(probe.Name())
	return true
}
