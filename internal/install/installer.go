// Package install places verified artifacts into the versioned install
// layout and publishes them through the current-version pointer. It is the
// only component that mutates the install root.
package install

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/squirrelhq/squirrel-go/internal/settings"
)

// StepError names the installation step that failed. Failures before the
// pointer swap leave the previous installation fully intact.
type StepError struct {
	Step  string
	Cause error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("install failed at step %q: %v", e.Step, e.Cause)
}

func (e *StepError) Unwrap() error {
	return e.Cause
}

// Options configures a single install.
type Options struct {
	// Tag is the release tag being installed (e.g. "v0.0.17").
	Tag string
	// Channel is recorded in the settings record.
	Channel string
	// ArtifactPath is the verified artifact, already placed in a working
	// directory under the install root (see WorkDir) so the final rename
	// stays on one filesystem.
	ArtifactPath string
	// BinDirOverride is forwarded to the artifact's self-install routine
	// in delegation mode. Empty means the artifact's own default.
	BinDirOverride string
}

// Result describes a completed install.
type Result struct {
	Tag           string
	Version       string
	InstalledPath string
	PointerPath   string
	// Delegated is true when final placement was performed by the
	// artifact's own self-install routine.
	Delegated bool
}

// Installer owns the install root.
type Installer struct {
	paths Paths
	// delegate switches final placement to the artifact's embedded
	// self-install routine. Enabled on Windows, where an atomic symlink
	// swap is not available.
	delegate bool
	now      func() time.Time
}

// New creates an installer over the resolved paths.
func New(paths Paths) *Installer {
	return &Installer{
		paths:    paths,
		delegate: runtime.GOOS == "windows",
		now:      time.Now,
	}
}

// WorkDir creates a fresh temporary working directory under the install
// root. Keeping it on the same filesystem as the versions directory makes
// the final placement a single rename.
func (i *Installer) WorkDir() (string, error) {
	tmpRoot := filepath.Join(i.paths.Root, "tmp")
	if err := os.MkdirAll(tmpRoot, 0755); err != nil {
		return "", fmt.Errorf("create temp root: %w", err)
	}
	dir, err := os.MkdirTemp(tmpRoot, "install-")
	if err != nil {
		return "", fmt.Errorf("create work dir: %w", err)
	}
	return dir, nil
}

// Cleanup removes a working directory. Errors are swallowed: cleanup is
// advisory and must never mask the primary result.
func (i *Installer) Cleanup(workDir string) {
	if workDir != "" {
		os.RemoveAll(workDir)
	}
}

// Install places a verified artifact. The pointer swap is the single
// publish point: before it the previously installed version stays fully
// functional, after it the new one is, and no intermediate state is ever
// visible at the final paths.
func (i *Installer) Install(ctx context.Context, opts Options) (*Result, error) {
	version := strings.TrimPrefix(opts.Tag, "v")

	if err := setExecutable(opts.ArtifactPath); err != nil {
		return nil, &StepError{Step: "set-executable", Cause: err}
	}

	versionDir := filepath.Join(i.paths.VersionsDir, version)
	if err := os.MkdirAll(versionDir, 0755); err != nil {
		return nil, &StepError{Step: "create-version-dir", Cause: err}
	}

	installedPath := filepath.Join(versionDir, BinaryName())
	if err := os.Rename(opts.ArtifactPath, installedPath); err != nil {
		return nil, &StepError{Step: "place-artifact", Cause: err}
	}

	if i.delegate {
		if err := runSelfInstall(ctx, installedPath, opts.BinDirOverride); err != nil {
			return nil, &StepError{Step: "self-install", Cause: err}
		}
		return &Result{
			Tag:           opts.Tag,
			Version:       version,
			InstalledPath: installedPath,
			Delegated:     true,
		}, nil
	}

	pointerPath := filepath.Join(i.paths.BinDir, BinaryName())
	if err := publishPointer(installedPath, pointerPath); err != nil {
		return nil, &StepError{Step: "publish-pointer", Cause: err}
	}

	err := settings.Upsert(i.paths.SettingsPath, settings.Update{
		Channel:        opts.Channel,
		CurrentVersion: opts.Tag,
		CheckedAt:      i.now(),
	})
	if err != nil {
		return nil, &StepError{Step: "update-settings", Cause: err}
	}

	return &Result{
		Tag:           opts.Tag,
		Version:       version,
		InstalledPath: installedPath,
		PointerPath:   pointerPath,
	}, nil
}

// InstalledVersion reads the current pointer and returns the versioned
// path it resolves to, or "" when no install is published.
func (i *Installer) InstalledVersion() string {
	pointer := filepath.Join(i.paths.BinDir, BinaryName())
	target, err := os.Readlink(pointer)
	if err != nil {
		return ""
	}
	// versions/<version>/<binary>
	return filepath.Base(filepath.Dir(target))
}

// publishPointer atomically redirects the current-version pointer. A fresh
// symlink is created beside the final path and renamed over it, so the
// swap is a single filesystem primitive with no observable intermediate.
func publishPointer(target, pointer string) error {
	if err := os.MkdirAll(filepath.Dir(pointer), 0755); err != nil {
		return fmt.Errorf("create bin dir: %w", err)
	}

	staging := fmt.Sprintf("%s.new-%d", pointer, os.Getpid())
	os.Remove(staging)
	if err := os.Symlink(target, staging); err != nil {
		return fmt.Errorf("create staging symlink: %w", err)
	}
	if err := os.Rename(staging, pointer); err != nil {
		os.Remove(staging)
		return fmt.Errorf("swap pointer: %w", err)
	}
	return nil
}
