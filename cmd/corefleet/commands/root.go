// Package commands defines the CLI command structure and flag bindings.
//
// This package contains cobra command definitions that handle argument parsing,
// flag binding, and validation. Command execution is delegated to handler
// functions in the handlers package.
package commands

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/imamik/corefleet/cmd/corefleet/handlers"
)

// Root returns the root command for the corefleet CLI.
//
// The root command owns the global flags. Every subcommand receives the same
// Options value, filled in by cobra before the subcommand runs.
func Root() *cobra.Command {
	opts := handlers.DefaultOptions()

	cmd := &cobra.Command{
		Use:           "corefleet",
		Short:         "Provision CoreOS fleets on VMware vSphere",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	bindGlobalFlags(cmd.PersistentFlags(), opts)

	// Template library
	cmd.AddCommand(CoreOSSetup(opts))

	// Environment lifecycle
	cmd.AddCommand(EnvCreate(opts))
	cmd.AddCommand(EnvOn(opts))
	cmd.AddCommand(EnvOff(opts))
	cmd.AddCommand(EnvDestroy(opts))
	cmd.AddCommand(EnvReconfigure(opts))
	cmd.AddCommand(EnvValidate(opts))
	cmd.AddCommand(EnvPlan(opts))

	// Utility commands
	cmd.AddCommand(CheckCredentials(opts))
	cmd.AddCommand(Version())
	cmd.AddCommand(Completion())

	return cmd
}

func bindGlobalFlags(fs *pflag.FlagSet, opts *handlers.Options) {
	fs.StringVar(&opts.Library, "library", opts.Library, "Name of the content library holding the CoreOS templates")
	fs.StringVar(&opts.Stream, "stream", opts.Stream, "CoreOS release channel (stable, beta or alpha)")
	fs.StringVar(&opts.Credentials, "credentials", opts.Credentials, "Path to the vCenter credentials file (JSON or INI)")
	fs.BoolVar(&opts.Insecure, "insecure", opts.Insecure, "Skip TLS certificate verification of vCenter")
	fs.StringVarP(&opts.Output, "output", "o", opts.Output, "Progress output: console, log or silent")
	fs.StringVar(&opts.CallbackURL, "callback-url", "", "POST every step event as JSON to this URL")
	fs.StringVar(&opts.MetricsFile, "metrics-file", "", "Write step metrics in Prometheus text format to this file")
	fs.CountVarP(&opts.Verbose, "verbose", "v", "Increase diagnostic log verbosity (repeatable)")
	fs.StringVar(&opts.OVAURL, "ova-url", "", "OVA download URL template, {channel} is replaced by the release channel")
	fs.BoolVar(&opts.Strict, "strict", false, "Fail when a template cannot be set up or a validation check fails")
	fs.StringVar(&opts.Substitute, "substitute", opts.Substitute, "Cloud-config token replacement: first or all occurrences")
	fs.DurationVar(&opts.Timeout, "timeout", 0, "Deadline for the whole command, 0 waits indefinitely")
}
