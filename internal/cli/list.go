package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "list [ranking-id]",
		Short:         "List rankings, or one ranking's items in rank order",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, rootOpts, args)
		},
	}
	return cmd
}

func runList(cmd *cobra.Command, rootOpts *RootOptions, args []string) error {
	a, err := newApp(cmd.Context(), rootOpts)
	if err != nil {
		return err
	}
	defer a.close()

	out := cmd.OutOrStdout()

	if len(args) == 1 {
		id, err := parseID(args[0], "ranking")
		if err != nil {
			return err
		}
		r, err := a.records.GetRanking(cmd.Context(), id)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s\n", r.Title)
		if r.Description != "" {
			fmt.Fprintf(out, "  %s\n", r.Description)
		}
		for _, it := range r.Items {
			if it.Notes != "" {
				fmt.Fprintf(out, "%3d. %s (%s)  [id %d]\n", it.Rank, it.Name, it.Notes, it.ID)
			} else {
				fmt.Fprintf(out, "%3d. %s  [id %d]\n", it.Rank, it.Name, it.ID)
			}
		}
		return nil
	}

	if err := a.view.Refresh(cmd.Context(), a.owner); err != nil {
		return err
	}
	rankings := a.view.Rankings()
	if len(rankings) == 0 {
		fmt.Fprintln(out, "no rankings yet")
		return nil
	}
	for _, r := range rankings {
		synced := ""
		if r.RemoteID != "" {
			synced = " (synced)"
		}
		fmt.Fprintf(out, "%d: %s - %d items%s\n", r.ID, r.Title, len(r.Items), synced)
	}
	if pending := a.view.PendingSync(); pending > 0 {
		fmt.Fprintf(out, "%d changes waiting to sync\n", pending)
	}
	return nil
}
