package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ddong19/ranked/record"
)

// CreateOptions holds flags for the create command.
type CreateOptions struct {
	*RootOptions
	Description string
	ImportFile  string
}

// NewCreateCommand creates the create command.
func NewCreateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CreateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "create <title>",
		Short: "Create a new ranking",
		Long: `Create a new ranking, optionally seeding its items from a text
file with one item per line. A trailing parenthesized suffix on a line
becomes the item's notes:

  Dune (rewatch)  ->  name "Dune", notes "rewatch"`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreate(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.Description, "description", "d", "", "ranking description")
	cmd.Flags().StringVar(&opts.ImportFile, "import", "", "file with one item per line")

	return cmd
}

func runCreate(cmd *cobra.Command, opts *CreateOptions, title string) error {
	a, err := newApp(cmd.Context(), opts.RootOptions)
	if err != nil {
		return err
	}
	defer a.close()

	in := record.CreateRankingInput{Title: title, Description: opts.Description}
	if opts.ImportFile != "" {
		data, err := os.ReadFile(opts.ImportFile)
		if err != nil {
			return fmt.Errorf("read import file: %w", err)
		}
		in.ImportedLines = strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")
	}

	r, err := a.records.CreateRanking(cmd.Context(), a.owner, in)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "created ranking %d: %s (%d items)\n", r.ID, r.Title, len(r.Items))
	return nil
}
