// Package manifest fetches the per-release manifest document and looks up
// the artifact filename and expected checksum for a platform.
package manifest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	"github.com/squirrelhq/squirrel-go/internal/platform"
)

// Asset is one platform's entry in the manifest.
type Asset struct {
	Filename string `json:"filename"`
	SHA256   string `json:"sha256"`
}

// complete reports whether the entry is usable. Partially populated
// entries are treated as absent.
func (a Asset) complete() bool {
	return a.Filename != "" && a.SHA256 != ""
}

// UnavailableError indicates the manifest document could not be fetched.
type UnavailableError struct {
	Tag   string
	Cause error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("manifest unavailable for release %s: %v", e.Tag, e.Cause)
}

func (e *UnavailableError) Unwrap() error {
	return e.Cause
}

// ErrMalformed indicates the manifest could not be parsed as the expected
// structured mapping.
var ErrMalformed = errors.New("manifest is malformed")

// UnsupportedReleaseError indicates the release ships no artifact for the
// platform.
type UnsupportedReleaseError struct {
	Tag         string
	Platform    platform.ID
	ReleasePage string
}

func (e *UnsupportedReleaseError) Error() string {
	msg := fmt.Sprintf("release %s has no artifact for platform %s", e.Tag, e.Platform)
	if e.ReleasePage != "" {
		msg += fmt.Sprintf("\nSee %s for the artifacts this release provides.", e.ReleasePage)
	}
	return msg
}

// Manifest is a resolved per-release manifest.
type Manifest struct {
	Tag      string
	Binaries map[string]Asset

	downloadBase string
	releasePage  string
}

// Fetcher is the network boundary the resolver depends on.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Resolver fetches and parses per-release manifests from the deterministic
// per-release URL.
type Resolver struct {
	fetcher      Fetcher
	downloadBase string
	releaseBase  string
	parsers      []manifestParser
}

// NewResolver creates a manifest resolver. downloadBase is the release
// asset root (manifest and artifacts live under "{downloadBase}/{tag}/");
// releaseBase is the human-readable release page root used in guidance.
func NewResolver(fetcher Fetcher, downloadBase, releaseBase string) *Resolver {
	return &Resolver{
		fetcher:      fetcher,
		downloadBase: downloadBase,
		releaseBase:  releaseBase,
		parsers:      []manifestParser{jsonManifestParser{}, patternManifestParser{}},
	}
}

// Fetch retrieves and parses the manifest for a release tag.
func (r *Resolver) Fetch(ctx context.Context, tag string) (*Manifest, error) {
	url := fmt.Sprintf("%s/%s/manifest.json", r.downloadBase, tag)

	body, err := r.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, &UnavailableError{Tag: tag, Cause: err}
	}

	binaries, err := parseManifest(r.parsers, body)
	if err != nil {
		return nil, err
	}

	return &Manifest{
		Tag:          tag,
		Binaries:     binaries,
		downloadBase: r.downloadBase,
		releasePage:  fmt.Sprintf("%s/%s", r.releaseBase, tag),
	}, nil
}

// Lookup returns the artifact entry for a platform. An entry missing its
// filename or checksum counts as absent: the platform is simply
// unsupported for this release.
func (m *Manifest) Lookup(id platform.ID) (Asset, error) {
	asset, ok := m.Binaries[id.String()]
	if !ok || !asset.complete() {
		return Asset{}, &UnsupportedReleaseError{
			Tag:         m.Tag,
			Platform:    id,
			ReleasePage: m.releasePage,
		}
	}
	return asset, nil
}

// ArtifactURL composes the deterministic download URL for an asset.
func (m *Manifest) ArtifactURL(asset Asset) string {
	return fmt.Sprintf("%s/%s/%s", m.downloadBase, m.Tag, asset.Filename)
}

// manifestParser turns a raw manifest payload into the binaries mapping.
// The pattern parser is the degraded fallback for payloads the structured
// parser cannot handle; both expose the same contract.
type manifestParser interface {
	Parse(body []byte) (map[string]Asset, error)
}

func parseManifest(parsers []manifestParser, body []byte) (map[string]Asset, error) {
	for _, p := range parsers {
		binaries, err := p.Parse(body)
		if err == nil {
			// An empty mapping is a well-formed manifest that simply ships
			// no artifacts; Lookup reports it per-platform.
			return binaries, nil
		}
	}
	return nil, ErrMalformed
}

// jsonManifestParser is the strict structured parser.
type jsonManifestParser struct{}

func (jsonManifestParser) Parse(body []byte) (map[string]Asset, error) {
	var doc struct {
		Binaries map[string]Asset `json:"binaries"`
	}
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, err
	}
	if doc.Binaries == nil {
		return nil, errors.New("manifest has no binaries mapping")
	}
	return doc.Binaries, nil
}

// entryPattern matches one platform entry in raw manifest text. The
// checksum is anchored to 64 hex characters so garbage never produces a
// verifiable-looking entry.
var entryPattern = regexp.MustCompile(
	`"([a-z0-9-]+)"\s*:\s*\{[^{}]*"filename"\s*:\s*"([^"]+)"[^{}]*"sha256"\s*:\s*"([0-9a-fA-F]{64})"`)

// patternManifestParser extracts platform entries by pattern-matching raw
// text, the degraded path for manifests the JSON decoder rejects.
type patternManifestParser struct{}

func (patternManifestParser) Parse(body []byte) (map[string]Asset, error) {
	matches := entryPattern.FindAllSubmatch(body, -1)
	if len(matches) == 0 {
		return nil, errors.New("no platform entries found in manifest text")
	}

	binaries := make(map[string]Asset, len(matches))
	for _, m := range matches {
		binaries[string(m[1])] = Asset{
			Filename: string(m[2]),
			SHA256:   string(m[3]),
		}
	}
	return binaries, nil
}
