package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/corefleet/cmd/corefleet/handlers"
	"github.com/imamik/corefleet/internal/environment"
)

// EnvCreate returns the env-create command.
func EnvCreate(opts *handlers.Options) *cobra.Command {
	var policy string

	cmd := &cobra.Command{
		Use:   "env-create <envfile> <subnetfile> <hostfile>",
		Short: "Deploy every machine of an environment",
		Long: `Deploy every machine of an environment from the CoreOS template.

Each machine is named <environment>-<role>-<nn>, gets its network and
cloud-config written to guestinfo and is powered on.

With --policy skip-if-exists (the default) machines that already exist are
left untouched: they are neither reconfigured nor powered on. Run
env-reconfigure and env-on to update and start them. With --policy force
every machine is deployed without an existence check.

Example:
  corefleet env-create prod.json subnet.json host.json`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.EnvCreate(cmd.Context(), opts, args[0], args[1], args[2], policy)
		},
	}

	cmd.Flags().StringVar(&policy, "policy", environment.SkipIfExists.String(), "Existing machines: skip-if-exists (left untouched, not reconfigured or powered on) or force")
	return cmd
}

// EnvOn returns the env-on command.
func EnvOn(opts *handlers.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "env-on <envfile>",
		Short: "Power on every machine of an environment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.EnvOn(cmd.Context(), opts, args[0])
		},
	}
}

// EnvOff returns the env-off command.
func EnvOff(opts *handlers.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "env-off <envfile>",
		Short: "Shut down the guest of every machine of an environment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.EnvOff(cmd.Context(), opts, args[0])
		},
	}
}

// EnvDestroy returns the env-destroy command.
func EnvDestroy(opts *handlers.Options) *cobra.Command {
	var policy string

	cmd := &cobra.Command{
		Use:   "env-destroy <envfile>",
		Short: "Power off and delete every machine of an environment",
		Long: `Power off and delete every machine of an environment.

With --policy force (the default) a missing machine aborts the command.
With --policy skip-missing it is skipped.

WARNING: This operation is irreversible.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.EnvDestroy(cmd.Context(), opts, args[0], policy)
		},
	}

	cmd.Flags().StringVar(&policy, "policy", environment.Force.String(), "Missing machines: force or skip-missing")
	return cmd
}

// EnvReconfigure returns the env-reconfigure command.
func EnvReconfigure(opts *handlers.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "env-reconfigure <envfile> <subnetfile>",
		Short: "Rewrite guestinfo of every machine and reboot it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.EnvReconfigure(cmd.Context(), opts, args[0], args[1])
		},
	}
}

// EnvValidate returns the env-validate command.
func EnvValidate(opts *handlers.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "env-validate <envfile> <subnetfile> <validationspec> <username> <password>",
		Short: "Run validation commands on every machine over SSH",
		Long: `Run validation commands on every machine over SSH.

The address of each machine is the single IPv4 address its guest reports
inside the subnet. The commands of the validation spec that list the
machine's role are run there and their output is checked.

Failed checks are reported but do not fail the command unless --strict is
given.`,
		Args: cobra.ExactArgs(5),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.EnvValidate(cmd.Context(), opts, args[0], args[1], args[2], args[3], args[4])
		},
	}
}

// EnvPlan returns the env-plan command.
func EnvPlan(opts *handlers.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "env-plan <envfile> <subnetfile>",
		Short: "Print the guestinfo of every machine without connecting",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			return handlers.EnvPlan(opts, args[0], args[1])
		},
	}
}
