// Package fetch performs all network retrieval for the installer. It is
// the sole network boundary: every other component goes through a Fetcher.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

const (
	// RequestTimeout bounds a single metadata request (connect + read).
	RequestTimeout = 30 * time.Second
	// ArtifactTimeout bounds an entire artifact download.
	ArtifactTimeout = 2 * time.Minute
	// DefaultAttempts is the fixed number of attempts per fetch.
	DefaultAttempts = 3
	// RetryDelay is the fixed delay between attempts.
	RetryDelay = 2 * time.Second
	// DefaultUserAgent is the User-Agent header sent with requests.
	DefaultUserAgent = "squirrel-install/1.0"

	maxRedirects = 10
)

// NetworkError is returned after all attempts for a URL are exhausted.
type NetworkError struct {
	URL   string
	Cause error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error fetching %s: %v", e.URL, e.Cause)
}

func (e *NetworkError) Unwrap() error {
	return e.Cause
}

// statusError marks an HTTP response with a non-2xx status. Client errors
// (4xx) are not retried: a confirmed 404 on a fully-resolved URL cannot be
// fixed by trying again.
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status code: %d", e.code)
}

func (e *statusError) retryable() bool {
	return e.code >= 500
}

// Fetcher retrieves URLs with redirect-following, timeouts, and bounded
// retry with a fixed inter-attempt delay.
type Fetcher struct {
	metaClient     *http.Client
	artifactClient *http.Client
	userAgent      string
	attempts       int
	delay          time.Duration
}

// New creates a fetcher with the default timeouts and retry policy.
func New() *Fetcher {
	transport := &http.Transport{
		DialContext: (&net.Dialer{Timeout: RequestTimeout}).DialContext,
	}
	checkRedirect := func(req *http.Request, via []*http.Request) error {
		if len(via) >= maxRedirects {
			return fmt.Errorf("too many redirects")
		}
		return nil
	}

	return &Fetcher{
		metaClient: &http.Client{
			Timeout:       RequestTimeout,
			Transport:     transport,
			CheckRedirect: checkRedirect,
		},
		artifactClient: &http.Client{
			Timeout:       ArtifactTimeout,
			Transport:     transport,
			CheckRedirect: checkRedirect,
		},
		userAgent: DefaultUserAgent,
		attempts:  DefaultAttempts,
		delay:     RetryDelay,
	}
}

// Fetch retrieves a URL and returns the full response body. Intended for
// small metadata documents (release listings, manifests).
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	var body []byte
	err := f.withRetry(ctx, url, func() error {
		var err error
		body, err = f.fetchOnce(ctx, f.metaClient, url)
		return err
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

// FetchToFile downloads a URL to destPath via a temporary file and an
// atomic rename, so destPath never holds a partial download.
func (f *Fetcher) FetchToFile(ctx context.Context, url, destPath string) error {
	return f.withRetry(ctx, url, func() error {
		return f.downloadOnce(ctx, url, destPath)
	})
}

// withRetry runs attempt up to f.attempts times with a fixed delay,
// skipping retries for non-retryable client errors.
func (f *Fetcher) withRetry(ctx context.Context, url string, attempt func() error) error {
	var lastErr error

	for i := 0; i < f.attempts; i++ {
		if ctx.Err() != nil {
			return &NetworkError{URL: url, Cause: ctx.Err()}
		}

		if i > 0 {
			select {
			case <-time.After(f.delay):
			case <-ctx.Done():
				return &NetworkError{URL: url, Cause: ctx.Err()}
			}
		}

		err := attempt()
		if err == nil {
			return nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return &NetworkError{URL: url, Cause: ctx.Err()}
		}
		if se, ok := err.(*statusError); ok && !se.retryable() {
			break
		}
	}

	return &NetworkError{URL: url, Cause: lastErr}
}

// fetchOnce performs a single request and reads the body into memory.
func (f *Fetcher) fetchOnce(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	resp, err := f.do(ctx, client, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return body, nil
}

// downloadOnce performs a single artifact download attempt.
func (f *Fetcher) downloadOnce(ctx context.Context, url, destPath string) error {
	resp, err := f.do(ctx, f.artifactClient, url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return fmt.Errorf("create dest dir: %w", err)
	}

	tmpPath := destPath + ".tmp"
	tmpFile, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	cleanupNeeded := true
	defer func() {
		tmpFile.Close()
		if cleanupNeeded {
			os.Remove(tmpPath)
		}
	}()

	if _, err := io.Copy(tmpFile, resp.Body); err != nil {
		return fmt.Errorf("copy response body: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}

	cleanupNeeded = false
	return nil
}

// do issues a GET and converts non-2xx statuses to statusError.
func (f *Fetcher) do(ctx context.Context, client *http.Client, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, &statusError{code: resp.StatusCode}
	}
	return resp, nil
}
