//go:build !windows

package install

import "os"

// setExecutable sets the executable permission bits on the artifact.
func setExecutable(path string) error {
	return os.Chmod(path, 0755)
}
