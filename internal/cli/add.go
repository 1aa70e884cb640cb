package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ddong19/ranked/record"
)

// AddOptions holds flags for the add command.
type AddOptions struct {
	*RootOptions
	Notes string
}

// NewAddCommand creates the add command.
func NewAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AddOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "add <ranking-id> <name>",
		Short:         "Append an item to a ranking",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdd(cmd, opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.Notes, "notes", "n", "", "item notes")

	return cmd
}

func runAdd(cmd *cobra.Command, opts *AddOptions, args []string) error {
	a, err := newApp(cmd.Context(), opts.RootOptions)
	if err != nil {
		return err
	}
	defer a.close()

	rankingID, err := parseID(args[0], "ranking")
	if err != nil {
		return err
	}
	it, err := a.records.AddItem(cmd.Context(), rankingID, record.AddItemInput{
		Name:  args[1],
		Notes: opts.Notes,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "added %q at rank %d (item id %d)\n", it.Name, it.Rank, it.ID)
	return nil
}
