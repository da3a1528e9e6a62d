package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"rolodex/internal/command"
)

func newSearchCmd(o *rootOptions) *cobra.Command {
	var (
		user   string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "search <text>",
		Short: "Suggest what to add and find what you already have",
		Long: `Classify the text as "add friend" and "add event" suggestions, then
list friends and events matching its words.

Examples:
  rolodex search --user me add Joe Schmoe joe@schmoe.com
  rolodex search --user me lunch with Joe on Friday
  rolodex search --user me "#work"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := o.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			p := command.New(o.dates(), st, command.Format{
				Location: o.location(),
				Open:     o.cfg.Highlight.Open,
				Close:    o.cfg.Highlight.Close,
			})
			p.Now = timeNow

			results, err := p.Parse(ctx, user, strings.Join(args, " "))
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), results)
			}
			o.printer(cmd.OutOrStdout()).Results(results)
			return nil
		},
	}

	cmd.Flags().StringVarP(&user, "user", "u", "", "User whose records to search")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of text")
	return cmd
}
