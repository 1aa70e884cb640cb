package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewLoginCommand creates the login command.
func NewLoginCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login <owner>",
		Short: "Sign in and reconcile local data with the account",
		Long: `Sign in as an account. Data created while signed out is claimed
by the account and queued for upload. If the device is empty, the
account's rankings are downloaded instead.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd, rootOpts, args[0])
		},
	}
	return cmd
}

func runLogin(cmd *cobra.Command, rootOpts *RootOptions, owner string) error {
	// The signed-in owner drives token minting, so wire the app as the
	// new owner rather than the persisted one.
	opts := *rootOpts
	opts.Owner = owner

	a, err := newApp(cmd.Context(), &opts)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.orch.HandleLogin(cmd.Context(), owner); err != nil {
		return err
	}
	if err := a.store.SetOwner(cmd.Context(), owner); err != nil {
		return err
	}

	pending, err := a.records.PendingSyncCount(cmd.Context(), owner)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "signed in as %s (%d changes queued)\n", owner, pending)
	return nil
}
