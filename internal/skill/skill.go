// Package skill installs the companion audit skill through the installed
// binary. The whole operation is best-effort: callers report failures as
// warnings and never let them change the install result.
package skill

import (
	"context"
	"os"
	"os/exec"
)

// Companion is the skill shipped alongside the auditing engine.
const Companion = "website-audit"

// Install asks the installed binary to set up a companion skill. Output
// passes through live so the operator sees the skill's own progress.
func Install(ctx context.Context, binaryPath, name string) error {
	cmd := exec.CommandContext(ctx, binaryPath, "skill", "install", name)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
