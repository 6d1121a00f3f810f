// Package pathcheck reports whether the published binary's directory is on
// PATH and composes per-shell guidance when it is not. It is strictly
// advisory: nothing here ever edits a shell configuration file.
package pathcheck

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ShellType represents a supported shell
type ShellType string

const (
	// ShellBash represents the Bash shell
	ShellBash ShellType = "bash"
	// ShellZsh represents the Z shell
	ShellZsh ShellType = "zsh"
	// ShellFish represents the Fish shell
	ShellFish ShellType = "fish"
	// ShellUnknown represents an unknown or unsupported shell
	ShellUnknown ShellType = "unknown"
)

// String returns the string representation of the shell type
func (s ShellType) String() string {
	return string(s)
}

// IsValid returns true if the shell type is supported
func (s ShellType) IsValid() bool {
	switch s {
	case ShellBash, ShellZsh, ShellFish:
		return true
	default:
		return false
	}
}

// DetectShell identifies the user's shell from $SHELL. Detection failure is
// not an error: advice falls back to generic wording.
func DetectShell() ShellType {
	return parseShellFromPath(os.Getenv("SHELL"))
}

// parseShellFromPath extracts the shell type from a shell binary path
// Examples:
//   - /bin/bash -> bash
//   - /usr/bin/zsh -> zsh
//   - /usr/local/bin/fish -> fish
func parseShellFromPath(shellPath string) ShellType {
	switch strings.ToLower(filepath.Base(shellPath)) {
	case "bash":
		return ShellBash
	case "zsh":
		return ShellZsh
	case "fish":
		return ShellFish
	default:
		return ShellUnknown
	}
}

// RCFilePath returns the configuration file the advice should mention for a
// shell, or "" for an unknown shell.
func RCFilePath(shell ShellType) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	switch shell {
	case ShellBash:
		return filepath.Join(home, ".bashrc")
	case ShellZsh:
		return filepath.Join(home, ".zshrc")
	case ShellFish:
		return filepath.Join(home, ".config", "fish", "config.fish")
	default:
		return ""
	}
}

// OnPath reports whether dir is a member of the PATH value. Entries are
// compared after cleaning, and again after resolving symlinks, so a PATH
// entry that is a link to dir still counts.
func OnPath(dir, pathValue string) bool {
	want := filepath.Clean(dir)
	wantResolved, _ := filepath.EvalSymlinks(want)

	for _, entry := range filepath.SplitList(pathValue) {
		if entry == "" {
			continue
		}
		got := filepath.Clean(entry)
		if got == want {
			return true
		}
		if wantResolved != "" {
			if gotResolved, err := filepath.EvalSymlinks(got); err == nil && gotResolved == wantResolved {
				return true
			}
		}
	}
	return false
}

// Result is the outcome of a PATH check for one directory.
type Result struct {
	// Dir is the directory holding the published binary.
	Dir string
	// OnPath is true when Dir is already reachable.
	OnPath bool
	// Shell is the detected shell, possibly ShellUnknown.
	Shell ShellType
	// Advice is the guidance to print when OnPath is false.
	Advice string
}

// Check inspects the current environment and composes advice for dir.
func Check(dir string) Result {
	shell := DetectShell()
	res := Result{Dir: dir, Shell: shell}
	if OnPath(dir, os.Getenv("PATH")) {
		res.OnPath = true
		return res
	}
	res.Advice = Advice(dir, shell)
	return res
}

// Advice composes the instructions for adding dir to PATH in the given
// shell. The wording is deliberately imperative-to-the-user: the installer
// never applies it.
func Advice(dir string, shell ShellType) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s is not on your PATH.\n", dir)

	rc := RCFilePath(shell)
	switch shell {
	case ShellFish:
		fmt.Fprintf(&b, "To add it, run:\n\n    fish_add_path %s\n", dir)
		if rc != "" {
			fmt.Fprintf(&b, "\nor add that line to %s.\n", rc)
		}
	case ShellBash, ShellZsh:
		fmt.Fprintf(&b, "To add it, append this line to %s:\n\n    export PATH=\"%s:$PATH\"\n", rc, dir)
		fmt.Fprintf(&b, "\nthen restart your shell or run: source %s\n", rc)
	default:
		fmt.Fprintf(&b, "Add it to your shell's PATH, for example:\n\n    export PATH=\"%s:$PATH\"\n", dir)
	}
	return b.String()
}
