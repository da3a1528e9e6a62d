package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	appLog "rolodex/internal/log"
	"rolodex/internal/reminder"
	"rolodex/internal/web"
)

func newServeCmd(o *rootOptions) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the reminder digest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := o.cfg
			// --listen overrides config file listen if provided.
			if listen != "" {
				cfg.Listen = listen
			}

			appLog.Info("rolodex starting", "version", version)
			appLog.Info("effective config",
				"listen", cfg.Listen,
				"timezone", cfg.Timezone,
				"week_start", cfg.WeekStart,
				"reminder_cron", cfg.ReminderCron,
				"horizon_days", cfg.HorizonDays,
				"basic_auth", cfg.BasicAuth != nil,
			)

			// Root context with cancellation on SIGINT/SIGTERM.
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigCh)

			go func() {
				select {
				case sig := <-sigCh:
					appLog.Info("signal received, shutting down", "signal", sig.String())
					cancel()
				case <-ctx.Done():
				}
			}()

			st, err := o.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			srv, err := web.NewServer(cfg, st)
			if err != nil {
				return err
			}

			sched, err := reminder.New(st, cfg.ReminderCron, o.location(), cfg.HorizonDays, nil)
			if err != nil {
				return err
			}
			sched.Start()
			defer func() { <-sched.Stop().Done() }()

			err = srv.Run(ctx)
			appLog.Info("rolodex exiting")
			return err
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "HTTP listen address (overrides config if set)")
	return cmd
}
