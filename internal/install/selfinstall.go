package install

import (
	"context"
	"os"
	"os/exec"
)

// runSelfInstall invokes the artifact's embedded self-installation routine.
// The artifact knows how to place itself and refresh its own pointer; its
// stdout/stderr pass through live for operator visibility, and its exit
// code is the delegation's result.
func runSelfInstall(ctx context.Context, binaryPath, binDir string) error {
	args := []string{"self", "install"}
	if binDir != "" {
		args = append(args, "--bin-dir", binDir)
	}

	cmd := exec.CommandContext(ctx, binaryPath, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
