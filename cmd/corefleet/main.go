// Package main is the entry point for the corefleet CLI.
//
// corefleet provisions fleets of CoreOS virtual machines on VMware vSphere.
// It keeps a content library template per CoreOS release channel, deploys
// environments of role-based machines from it and validates them over SSH.
//
// Commands: coreos-setup, env-create, env-on, env-off, env-destroy,
// env-reconfigure, env-validate, env-plan, check-credentials.
//
// For detailed usage information, run:
//
//	corefleet --help
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/imamik/corefleet/cmd/corefleet/commands"
)

// Version information set by goreleaser at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	commands.SetVersionInfo(version, commit, date)
	if err := commands.Root().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
