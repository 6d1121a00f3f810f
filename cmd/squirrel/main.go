// The squirrel launcher is a thin shim: it locates the installed auditing
// engine and hands the whole invocation over to it. Arguments, stdio, and
// the exit code pass through untouched, so from the shell's point of view
// this binary IS the engine.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/squirrelhq/squirrel-go/internal/dispatch"
)

// Version will be set at build time via -ldflags
var Version = "v0.0.1"

func main() {
	// --version is answered by the launcher itself: the engine may not be
	// installed yet, and that must not break version introspection.
	if len(os.Args) == 2 && os.Args[1] == "--launcher-version" {
		fmt.Printf("squirrel launcher %s\n", Version)
		return
	}

	binary, err := dispatch.Locate(dispatch.CandidatePaths())
	if err != nil {
		var nf *dispatch.NotFoundError
		if errors.As(err, &nf) {
			fmt.Fprintln(os.Stderr, err)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}

	code, err := dispatch.Run(binary, os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to run %s: %v\n", binary, err)
		os.Exit(1)
	}
	os.Exit(code)
}
