package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/corefleet/cmd/corefleet/handlers"
)

// CheckCredentials returns the check-credentials command.
func CheckCredentials(opts *handlers.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "check-credentials",
		Short: "Log in to vCenter and out again",
		Long: `Log in to vCenter with the credentials file and out again.

The host, username and password are read from the file given by
--credentials. COREFLEET_HOST, COREFLEET_USERNAME and COREFLEET_PASSWORD
override the file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.CheckCredentials(cmd.Context(), opts)
		},
	}
}
