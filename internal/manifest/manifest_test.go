package manifest

import (
	"context"
	"errors"
	"strings"
	"testing"
)

const sha64 = "a665a45920422f9d417e4867efdc4fb8a04a1f3fff1fa07e998e86f7f7a27ae3"

type stubFetcher struct {
	body []byte
	err  error
	urls []string
}

func (s *stubFetcher) Fetch(_ context.Context, url string) ([]byte, error) {
	s.urls = append(s.urls, url)
	if s.err != nil {
		return nil, s.err
	}
	return s.body, nil
}

func newTestResolver(body []byte, err error) (*Resolver, *stubFetcher) {
	fetcher := &stubFetcher{body: body, err: err}
	r := NewResolver(fetcher,
		"https://github.com/squirrelhq/squirrel/releases/download",
		"https://github.com/squirrelhq/squirrel/releases/tag")
	return r, fetcher
}

func TestFetchParsesManifest(t *testing.T) {
	body := []byte(`{
		"binaries": {
			"linux-x64": {"filename": "squirrel-v1.2.0-linux-x64", "sha256": "` + sha64 + `"},
			"darwin-arm64": {"filename": "squirrel-v1.2.0-darwin-arm64", "sha256": "` + sha64 + `"}
		}
	}`)

	r, fetcher := newTestResolver(body, nil)
	m, err := r.Fetch(context.Background(), "v1.2.0")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantURL := "https://github.com/squirrelhq/squirrel/releases/download/v1.2.0/manifest.json"
	if len(fetcher.urls) != 1 || fetcher.urls[0] != wantURL {
		t.Errorf("fetched %v, want [%s]", fetcher.urls, wantURL)
	}

	asset, err := m.Lookup("linux-x64")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if asset.Filename != "squirrel-v1.2.0-linux-x64" {
		t.Errorf("got filename %q", asset.Filename)
	}
	if asset.SHA256 != sha64 {
		t.Errorf("got sha256 %q", asset.SHA256)
	}

	wantArtifact := "https://github.com/squirrelhq/squirrel/releases/download/v1.2.0/squirrel-v1.2.0-linux-x64"
	if got := m.ArtifactURL(asset); got != wantArtifact {
		t.Errorf("artifact URL %q, want %q", got, wantArtifact)
	}
}

func TestFetchUnavailable(t *testing.T) {
	r, _ := newTestResolver(nil, errors.New("boom"))

	_, err := r.Fetch(context.Background(), "v1.2.0")
	var unavailable *UnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("expected UnavailableError, got %T", err)
	}
	if unavailable.Tag != "v1.2.0" {
		t.Errorf("error should name the tag, got %q", unavailable.Tag)
	}
}

func TestFetchMalformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "not_json", body: "<html>not a manifest</html>"},
		{name: "no_binaries_key", body: `{"artifacts": {}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := newTestResolver([]byte(tt.body), nil)
			_, err := r.Fetch(context.Background(), "v1.2.0")
			if !errors.Is(err, ErrMalformed) {
				t.Fatalf("got %v, want ErrMalformed", err)
			}
		})
	}
}

func TestFetchEmptyBinariesIsWellFormed(t *testing.T) {
	// A release can legitimately ship no artifacts; the manifest parses and
	// every platform is reported unsupported at lookup time.
	r, _ := newTestResolver([]byte(`{"binaries": {}}`), nil)
	m, err := r.Fetch(context.Background(), "v1.2.0")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = m.Lookup("linux-x64")
	var unsupported *UnsupportedReleaseError
	if !errors.As(err, &unsupported) {
		t.Fatalf("expected UnsupportedReleaseError, got %v", err)
	}
	if unsupported.Tag != "v1.2.0" {
		t.Errorf("error should name the tag, got %q", unsupported.Tag)
	}
}

func TestFetchDegradedParser(t *testing.T) {
	// A stray trailing comma defeats the JSON decoder; the pattern parser
	// still recovers the complete entries.
	body := []byte(`{
		"binaries": {
			"linux-x64-musl": {"filename": "squirrel-v1.2.0-linux-x64-musl", "sha256": "` + sha64 + `"},
		},
	}`)

	r, _ := newTestResolver(body, nil)
	m, err := r.Fetch(context.Background(), "v1.2.0")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	asset, err := m.Lookup("linux-x64-musl")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if asset.Filename != "squirrel-v1.2.0-linux-x64-musl" {
		t.Errorf("got filename %q", asset.Filename)
	}
}

func TestLookupUnsupportedPlatform(t *testing.T) {
	body := []byte(`{
		"binaries": {
			"linux-x64": {"filename": "squirrel-v0.0.17-linux-x64", "sha256": "` + sha64 + `"}
		}
	}`)

	r, _ := newTestResolver(body, nil)
	m, err := r.Fetch(context.Background(), "v0.0.17")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = m.Lookup("windows-arm64")
	var unsupported *UnsupportedReleaseError
	if !errors.As(err, &unsupported) {
		t.Fatalf("expected UnsupportedReleaseError, got %T", err)
	}
	if unsupported.Tag != "v0.0.17" || unsupported.Platform != "windows-arm64" {
		t.Errorf("error fields wrong: %+v", unsupported)
	}
	if !strings.Contains(err.Error(), "v0.0.17") {
		t.Errorf("message should name the tag: %q", err.Error())
	}
	if !strings.Contains(err.Error(), "releases/tag/v0.0.17") {
		t.Errorf("message should point at the release page: %q", err.Error())
	}
}

func TestLookupPartialEntryTreatedAsAbsent(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{
			name: "missing_checksum",
			body: `{"binaries": {"linux-x64": {"filename": "squirrel-linux-x64", "sha256": ""}}}`,
		},
		{
			name: "missing_filename",
			body: `{"binaries": {"linux-x64": {"filename": "", "sha256": "` + sha64 + `"}}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := newTestResolver([]byte(tt.body), nil)
			m, err := r.Fetch(context.Background(), "v1.2.0")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			_, err = m.Lookup("linux-x64")
			var unsupported *UnsupportedReleaseError
			if !errors.As(err, &unsupported) {
				t.Fatalf("partial entry must count as absent, got %v", err)
			}
		})
	}
}
