package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ddong19/ranked"
)

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "status",
		Short:         "Show sign-in state and pending sync work",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd, rootOpts)
		},
	}
	return cmd
}

func runStatus(cmd *cobra.Command, rootOpts *RootOptions) error {
	a, err := newApp(cmd.Context(), rootOpts)
	if err != nil {
		return err
	}
	defer a.close()
	out := cmd.OutOrStdout()

	if ranked.IsAnonymous(a.owner) {
		fmt.Fprintln(out, "signed in: no (local-only mode)")
	} else {
		fmt.Fprintf(out, "signed in: %s\n", a.owner)
	}

	deviceID, err := a.store.DeviceID(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "device:    %s\n", deviceID)
	fmt.Fprintf(out, "database:  %s\n", a.cfg.DatabasePath)
	fmt.Fprintf(out, "server:    %s\n", a.cfg.ServerURL)

	count, err := a.records.CountRankings(cmd.Context(), a.owner)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "rankings:  %d\n", count)

	pending, err := a.records.PendingSyncCount(cmd.Context(), a.owner)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "pending:   %d changes\n", pending)
	return nil
}
