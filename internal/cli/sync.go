package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ddong19/ranked"
)

// NewSyncCommand creates the sync command.
func NewSyncCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "sync",
		Short:         "Upload pending changes now",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd, rootOpts)
		},
	}
	return cmd
}

func runSync(cmd *cobra.Command, rootOpts *RootOptions) error {
	a, err := newApp(cmd.Context(), rootOpts)
	if err != nil {
		return err
	}
	defer a.close()

	if ranked.IsAnonymous(a.owner) {
		fmt.Fprintln(cmd.OutOrStdout(), "not signed in; nothing to sync")
		return nil
	}

	done, err := a.orch.SyncNow(cmd.Context(), a.owner)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "synced %d changes\n", done)
	return nil
}
