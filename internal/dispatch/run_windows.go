//go:build windows

package dispatch

import (
	"errors"
	"os"
	"os/exec"
	"os/signal"
)

// Run executes the engine binary with the launcher's arguments and stdio
// and returns its exit code. Windows has no signal re-raising; Ctrl+C is
// delivered to the whole console process group, so the launcher only has to
// stay alive until the child exits.
func Run(binary string, args []string) (int, error) {
	cmd := exec.Command(binary, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	// Ignore interrupts in the launcher; the child receives them directly.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)
	defer signal.Stop(sigs)
	go func() {
		for range sigs {
		}
	}()

	if err := cmd.Start(); err != nil {
		return 0, err
	}
	err := cmd.Wait()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return 0, err
}
