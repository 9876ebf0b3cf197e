package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/corefleet/cmd/corefleet/handlers"
)

// CoreOSSetup returns the coreos-setup command.
//
// The command creates the content library when it is missing and uploads the
// CoreOS OVA of the selected release channel into it.
func CoreOSSetup(opts *handlers.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "coreos-setup <datastore> <library>",
		Short: "Create the content library and upload the CoreOS template",
		Long: `Set up the CoreOS template of a release channel in a content library.

The library is created on the datastore when it does not exist. When the
template of the channel selected by --stream is missing, the OVA is
downloaded, unpacked and uploaded as library item coreos-<channel>.

Example:
  corefleet coreos-setup datastore1 coreos --stream beta`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.CoreOSSetup(cmd.Context(), opts, args[0], args[1])
		},
	}
}
