// Package verify implements the supply-chain integrity checks applied to
// downloaded artifacts before installation.
package verify

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
)

// ChecksumMismatchError indicates the artifact digest differs from the
// manifest-declared value. Always fatal; there is no partial-trust mode.
type ChecksumMismatchError struct {
	Expected string
	Actual   string
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("checksum mismatch:\nexpected: %s\nactual:   %s", e.Expected, e.Actual)
}

// SHA256File computes the hex-encoded SHA-256 digest of a file.
func SHA256File(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", err
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// File verifies a downloaded artifact against its expected digest. The
// comparison is case-insensitive; a mismatch fails closed with
// ChecksumMismatchError.
func File(path, expected string) error {
	actual, err := SHA256File(path)
	if err != nil {
		return fmt.Errorf("calculate checksum: %w", err)
	}

	if !strings.EqualFold(actual, expected) {
		return &ChecksumMismatchError{Expected: expected, Actual: actual}
	}
	return nil
}
