package cmd

import (
	"bytes"
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"rolodex/internal/command"
	"rolodex/internal/ics"
	appLog "rolodex/internal/log"
)

func newExportCmd(o *rootOptions) *cobra.Command {
	var (
		user string
		out  string
		name string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a user's events as an iCalendar file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if user == "" {
				return errors.WithHint(command.ErrMissingUser, "pass --user")
			}
			st, err := o.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			var w io.Writer = cmd.OutOrStdout()
			if out != "" && out != "-" {
				f, err := os.Create(out)
				if err != nil {
					return errors.Wrapf(err, "create %s", out)
				}
				defer f.Close()
				w = f
			}
			events := st.Events(user)
			if err := ics.Export(w, name, events, o.location(), timeNow()); err != nil {
				return err
			}
			appLog.Info("calendar exported", "user", user, "events", len(events), "out", out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&user, "user", "u", "", "User whose events to export")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default stdout)")
	cmd.Flags().StringVar(&name, "name", "Rolodex", "Calendar name")
	return cmd
}

func newImportCmd(o *rootOptions) *cobra.Command {
	var (
		user     string
		cacheDir string
	)

	cmd := &cobra.Command{
		Use:   "import <file|url>",
		Short: "Read events from an iCalendar file or URL",
		Long: `Read VEVENTs from a local .ics file or an http(s)/webcal URL and list
them as rolodex events.

Examples:
  rolodex import --user me ./holidays.ics
  rolodex import --user me webcal://example.com/team.ics --cache-dir ~/.cache/rolodex`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if user == "" {
				return errors.WithHint(command.ErrMissingUser, "pass --user")
			}
			src := args[0]

			var body []byte
			if ics.IsURL(src) {
				res, err := ics.NewFetcher(cacheDir).Fetch(cmd.Context(), src)
				if err != nil {
					return err
				}
				body = res.Body
			} else {
				b, err := os.ReadFile(src)
				if err != nil {
					return errors.Wrapf(err, "read %s", src)
				}
				body = b
			}

			events, err := ics.Import(bytes.NewReader(body), user, o.location())
			if err != nil {
				return errors.WithHint(err, "is this an iCalendar (.ics) file?")
			}
			o.printer(cmd.OutOrStdout()).Events(events)
			return nil
		},
	}

	cmd.Flags().StringVarP(&user, "user", "u", "", "User the events belong to")
	cmd.Flags().StringVar(&cacheDir, "cache-dir", "", "Directory for the HTTP cache of fetched calendars")
	return cmd
}
