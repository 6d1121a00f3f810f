//go:build !windows

package dispatch

import (
	"errors"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
)

// Run executes the engine binary with the launcher's arguments and stdio.
// It returns the child's exit code. Interrupt and termination signals
// received while the child runs are forwarded to it; if the child dies from
// a signal, that signal is re-raised on the launcher after the child exits
// so callers observe the same termination they would from the engine
// directly.
func Run(binary string, args []string) (int, error) {
	cmd := exec.Command(binary, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP, syscall.SIGQUIT)
	defer signal.Stop(sigs)

	if err := cmd.Start(); err != nil {
		return 0, err
	}

	done := make(chan struct{})
	go func() {
		for {
			select {
			case sig := <-sigs:
				cmd.Process.Signal(sig)
			case <-done:
				return
			}
		}
	}()

	err := cmd.Wait()
	close(done)

	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return 0, err
	}

	if status, ok := exitErr.Sys().(syscall.WaitStatus); ok && status.Signaled() {
		reraise(status.Signal())
		// Reached only if the re-raised signal was not fatal to us; the
		// conventional shell encoding stands in for the exit code.
		return 128 + int(status.Signal()), nil
	}
	return exitErr.ExitCode(), nil
}

// reraise delivers the child's fatal signal to the launcher itself with
// default disposition, so the parent shell sees a signal death rather than
// a plain exit code.
func reraise(sig syscall.Signal) {
	signal.Reset(sig)
	syscall.Kill(os.Getpid(), sig)
}
