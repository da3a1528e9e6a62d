package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"rolodex/internal/model"
)

type parseOutput struct {
	Found       bool              `json:"found"`
	Date        *model.ParsedDate `json:"date,omitempty"`
	Description string            `json:"description,omitempty"`
}

func newParseCmd(o *rootOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "parse <text>",
		Short: "Read a date out of free text",
		Long: `Find the date, recurrence and duration described in a sentence.

Examples:
  rolodex parse "lunch with Joe on Friday"
  rolodex parse "book club starting Wednesday every other week for 2 months"
  rolodex parse "Josh's birthday on September 7th every year" --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, ok := o.dates().Parse(strings.Join(args, " "))
			if asJSON {
				out := parseOutput{Found: ok}
				if ok {
					out.Date = &d
					out.Description = d.Describe(o.location())
				}
				return writeJSON(cmd.OutOrStdout(), out)
			}
			o.printer(cmd.OutOrStdout()).Date(d, ok)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of text")
	return cmd
}
