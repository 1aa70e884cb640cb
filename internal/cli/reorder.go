package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewReorderCommand creates the reorder command.
func NewReorderCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reorder <ranking-id> <item-id>...",
		Short: "Reorder a ranking's items",
		Long: `Assign new ranks from a complete ordering of item ids: the first
id listed becomes rank 1. Every item of the ranking must appear exactly
once.`,
		Args:          cobra.MinimumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReorder(cmd, rootOpts, args)
		},
	}
	return cmd
}

func runReorder(cmd *cobra.Command, rootOpts *RootOptions, args []string) error {
	a, err := newApp(cmd.Context(), rootOpts)
	if err != nil {
		return err
	}
	defer a.close()

	rankingID, err := parseID(args[0], "ranking")
	if err != nil {
		return err
	}
	itemIDs := make([]int64, 0, len(args)-1)
	for _, arg := range args[1:] {
		id, err := parseID(arg, "item")
		if err != nil {
			return err
		}
		itemIDs = append(itemIDs, id)
	}

	if err := a.records.Reorder(cmd.Context(), rankingID, itemIDs); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "reordered %d items\n", len(itemIDs))
	return nil
}
