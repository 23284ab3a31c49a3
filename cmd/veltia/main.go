// Command veltia drives the workflow execution core from the terminal:
// simulate an action order for a prospect, execute it for real, or run one
// reminder sweep over the pending form panels.
package main

import (
	"io"
	"os"
)

// Dispatcher
func main() {
	os.Exit(Run(os.Args, os.Stdout, os.Stderr))
}

// Run is the entrypoint for testing
func Run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 2 {
		printUsage(stderr)
		return 2
	}

	switch args[1] {
	case "simulate":
		return runOrderCmd(args[2:], stdout, stderr, false)
	case "execute":
		return runOrderCmd(args[2:], stdout, stderr, true)
	case "remind":
		return runRemindCmd(args[2:], stdout, stderr)
	case "template":
		return runTemplateCmd(args[2:], stdout, stderr)
	default:
		printUsage(stderr)
		return 2
	}
}

func printUsage(w io.Writer) {
	io.WriteString(w, `Usage: veltia <command> [flags]

Commands:
  simulate   build an action order for a prospect/module and print it
  execute    build the order, clear the simulation marker and run it
  remind     run one reminder sweep over pending form panels
  template   put a workflow module template for a tenant
`)
}
