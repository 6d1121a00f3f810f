//go:build windows

package install

// setExecutable is a no-op: Windows has no executable permission bit.
func setExecutable(string) error {
	return nil
}
