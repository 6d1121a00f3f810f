package install

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/squirrelhq/squirrel-go/internal/fetch"
	"github.com/squirrelhq/squirrel-go/internal/manifest"
	"github.com/squirrelhq/squirrel-go/internal/platform"
	"github.com/squirrelhq/squirrel-go/internal/release"
	"github.com/squirrelhq/squirrel-go/internal/skill"
	"github.com/squirrelhq/squirrel-go/internal/verify"
)

// Default endpoints for the public Squirrel distribution.
const (
	DefaultAPIBase      = "https://api.github.com"
	DefaultRepo         = "squirrelhq/squirrel"
	DefaultDownloadBase = "https://github.com/squirrelhq/squirrel/releases/download"
	DefaultReleaseBase  = "https://github.com/squirrelhq/squirrel/releases/tag"
)

// ArtifactFetcher is the network boundary the manager depends on.
type ArtifactFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
	FetchToFile(ctx context.Context, url, destPath string) error
}

// Config holds configuration for the install manager. Zero-valued
// endpoint fields use the public distribution defaults.
type Config struct {
	Paths        Paths
	APIBase      string
	Repo         string
	DownloadBase string
	ReleaseBase  string
	// Detector overrides platform detection (tests, cross-checks).
	Detector platform.Detector
	// Fetcher overrides the network client.
	Fetcher ArtifactFetcher
}

// Manager orchestrates version resolution, download, verification, and
// installation.
type Manager struct {
	paths      Paths
	fetcher    ArtifactFetcher
	releases   *release.Resolver
	manifests  *manifest.Resolver
	detector   platform.Detector
	installer  *Installer
	skillRun   func(ctx context.Context, binaryPath, name string) error
	keyringDir string
}

// NewManager creates an install manager.
func NewManager(cfg Config) *Manager {
	if cfg.APIBase == "" {
		cfg.APIBase = DefaultAPIBase
	}
	if cfg.Repo == "" {
		cfg.Repo = DefaultRepo
	}
	if cfg.DownloadBase == "" {
		cfg.DownloadBase = DefaultDownloadBase
	}
	if cfg.ReleaseBase == "" {
		cfg.ReleaseBase = DefaultReleaseBase
	}
	if cfg.Fetcher == nil {
		cfg.Fetcher = fetch.New()
	}
	if cfg.Detector == nil {
		cfg.Detector = platform.NewDetector()
	}

	return &Manager{
		paths:      cfg.Paths,
		fetcher:    cfg.Fetcher,
		releases:   release.NewResolver(cfg.Fetcher, cfg.APIBase, cfg.Repo),
		manifests:  manifest.NewResolver(cfg.Fetcher, cfg.DownloadBase, cfg.ReleaseBase),
		detector:   cfg.Detector,
		installer:  New(cfg.Paths),
		skillRun:   skill.Install,
		keyringDir: filepath.Join(cfg.Paths.Root, "keyrings"),
	}
}

// Request configures one install run.
type Request struct {
	// Pin bypasses channel resolution and is used verbatim.
	Pin string
	// Channel selects the release track when no pin is given.
	Channel release.Channel
	// BinDirOverride is the explicit target directory, if any.
	BinDirOverride string
	// Force reinstalls even when the resolved version is already current.
	Force bool
	// SkipSkill disables the best-effort companion skill install.
	SkipSkill bool
}

// Outcome describes a completed install run.
type Outcome struct {
	*Result
	Platform platform.ID
	// AlreadyInstalled is true when the resolved version was already
	// current and nothing was downloaded.
	AlreadyInstalled bool
	// SkillErr holds the companion skill failure, if any. It is a
	// warning: the install itself succeeded.
	SkillErr error
}

// Run executes the full install flow: resolve → manifest → download →
// verify → install → (best-effort) companion skill. No versioned
// directory or pointer is touched before the artifact verifies.
func (m *Manager) Run(ctx context.Context, req Request) (*Outcome, error) {
	lock, err := AcquireLock(m.paths.Root)
	if err != nil {
		return nil, err
	}
	defer lock.Release()

	platformID, err := m.detector.Detect()
	if err != nil {
		return nil, err
	}

	tag, err := m.releases.Resolve(ctx, req.Pin, req.Channel)
	if err != nil {
		return nil, err
	}

	version := strings.TrimPrefix(tag, "v")
	if !req.Force && m.installer.InstalledVersion() == version {
		return &Outcome{
			Result: &Result{
				Tag:         tag,
				Version:     version,
				PointerPath: filepath.Join(m.paths.BinDir, BinaryName()),
			},
			Platform:         platformID,
			AlreadyInstalled: true,
		}, nil
	}

	man, err := m.manifests.Fetch(ctx, tag)
	if err != nil {
		return nil, err
	}

	asset, err := man.Lookup(platformID)
	if err != nil {
		return nil, err
	}

	workDir, err := m.installer.WorkDir()
	if err != nil {
		return nil, fmt.Errorf("prepare work dir: %w", err)
	}
	defer m.installer.Cleanup(workDir)

	artifactURL := man.ArtifactURL(asset)
	artifactPath := filepath.Join(workDir, asset.Filename)
	if err := m.fetcher.FetchToFile(ctx, artifactURL, artifactPath); err != nil {
		return nil, err
	}

	if err := verify.File(artifactPath, asset.SHA256); err != nil {
		return nil, err
	}
	if err := m.verifySignature(ctx, artifactURL, artifactPath, workDir); err != nil {
		return nil, err
	}

	result, err := m.installer.Install(ctx, Options{
		Tag:            tag,
		Channel:        string(req.Channel),
		ArtifactPath:   artifactPath,
		BinDirOverride: req.BinDirOverride,
	})
	if err != nil {
		return nil, err
	}

	outcome := &Outcome{Result: result, Platform: platformID}
	if !req.SkipSkill {
		binary := result.PointerPath
		if binary == "" {
			binary = result.InstalledPath
		}
		outcome.SkillErr = m.skillRun(ctx, binary, skill.Companion)
	}
	return outcome, nil
}

// verifySignature runs the optional detached-signature layer. It only
// engages when a keyring has been provisioned under the install root; a
// missing signature asset falls back to checksum-only, but a signature
// that fails to verify is fatal.
func (m *Manager) verifySignature(ctx context.Context, artifactURL, artifactPath, workDir string) error {
	keyringPath := filepath.Join(m.keyringDir, "squirrel.gpg")
	if info, err := os.Stat(keyringPath); err != nil || !info.Mode().IsRegular() {
		return nil
	}

	sigPath := filepath.Join(workDir, filepath.Base(artifactPath)+".sig")
	if err := m.fetcher.FetchToFile(ctx, artifactURL+".sig", sigPath); err != nil {
		return nil
	}

	if err := verify.Signature(artifactPath, sigPath, keyringPath); err != nil {
		return fmt.Errorf("signature verification failed: %w", err)
	}
	return nil
}
