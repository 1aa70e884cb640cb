package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ddong19/ranked"
)

// NewLogoutCommand creates the logout command.
func NewLogoutCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Sign out and wipe local data",
		Long: `Sign out of the current account. The local database is wiped;
the account's data stays on the backend and returns on the next login.
Changes that never synced are lost.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogout(cmd, rootOpts)
		},
	}
	return cmd
}

func runLogout(cmd *cobra.Command, rootOpts *RootOptions) error {
	a, err := newApp(cmd.Context(), rootOpts)
	if err != nil {
		return err
	}
	defer a.close()

	if ranked.IsAnonymous(a.owner) {
		fmt.Fprintln(cmd.OutOrStdout(), "not signed in")
		return nil
	}

	if err := a.orch.HandleLogout(cmd.Context()); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "signed out; local data wiped")
	return nil
}
