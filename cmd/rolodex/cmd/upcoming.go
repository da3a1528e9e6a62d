package cmd

import (
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"rolodex/internal/command"
	"rolodex/internal/reminder"
)

func newUpcomingCmd(o *rootOptions) *cobra.Command {
	var (
		user   string
		days   int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "upcoming",
		Short: "List event occurrences from today on",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if user == "" {
				return errors.WithHint(command.ErrMissingUser, "pass --user")
			}
			if days <= 0 {
				days = o.cfg.HorizonDays
			}
			st, err := o.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			occ := reminder.Upcoming(st.Events(user), timeNow(), days, o.location())
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), occ)
			}
			o.printer(cmd.OutOrStdout()).Occurrences(occ)
			return nil
		},
	}

	cmd.Flags().StringVarP(&user, "user", "u", "", "User whose events to list")
	cmd.Flags().IntVarP(&days, "days", "d", 0, "Days to look ahead (default horizon_days)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of text")
	return cmd
}
