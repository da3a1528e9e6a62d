// Package cmd provides the CLI commands for rolodex.
package cmd

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"rolodex/internal/config"
	"rolodex/internal/dateparse"
	appLog "rolodex/internal/log"
	"rolodex/internal/output"
	"rolodex/internal/store"
)

// timeNow is a variable that can be mocked for testing
var timeNow = time.Now

const version = "0.1.0"

// rootOptions carries the persistent flags and the config they resolve to.
type rootOptions struct {
	configPath string
	logLevel   string

	cfg *config.Config
}

// NewRootCmd creates the root command for the rolodex CLI.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "rolodex",
		Short: "Keep track of friends and the dates that matter to them",
		Long: `rolodex reads free-text commands like "add Joe Schmoe 455-444-4455" or
"lunch with Joe on Friday" and turns them into friends and events.

It can search what you already know, list what is coming up, and
import or export calendars.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.load()
		},
	}

	cmd.SetVersionTemplate("rolodex version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", defaultConfigPath(), "Path to config file")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Override log level: debug, info, error")

	cmd.AddCommand(newParseCmd(opts))
	cmd.AddCommand(newSearchCmd(opts))
	cmd.AddCommand(newUpcomingCmd(opts))
	cmd.AddCommand(newExportCmd(opts))
	cmd.AddCommand(newImportCmd(opts))
	cmd.AddCommand(newServeCmd(opts))

	return cmd
}

// Execute runs the root command and prints any error with its hints.
func Execute() error {
	root := NewRootCmd()
	err := root.Execute()
	if err != nil {
		output.New(root.ErrOrStderr(), "", "", nil).Error(err, strings.Join(errors.GetAllHints(err), "; "))
	}
	appLog.Sync()
	return err
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "rolodex.yaml"
	}
	return filepath.Join(dir, "rolodex", "config.yaml")
}

func (o *rootOptions) load() error {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		if cfg == nil {
			return err
		}
		// First run and the default could not be written; keep going.
		appLog.Error("failed to write default config", err, "config_path", o.configPath)
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	appLog.SetLevel(appLog.ParseLevel(cfg.LogLevel))
	o.cfg = cfg

	appLog.Debug("effective config",
		"config_path", o.configPath,
		"timezone", cfg.Timezone,
		"week_start", cfg.WeekStart,
		"horizon_days", cfg.HorizonDays,
		"data", cfg.Data,
	)
	return nil
}

func (o *rootOptions) location() *time.Location {
	return o.cfg.Location()
}

func (o *rootOptions) dates() *dateparse.Parser {
	p := dateparse.New(o.location(), o.cfg.WeekStartDay())
	p.Now = timeNow
	return p
}

// openStore builds the in-memory store and loads the configured seed file.
func (o *rootOptions) openStore(ctx context.Context) (*store.Store, error) {
	st, err := store.New(o.location(), o.cfg.SearchLimit)
	if err != nil {
		return nil, err
	}
	if o.cfg.Data != "" {
		if err := st.LoadSeedFile(ctx, o.cfg.Data, o.dates()); err != nil {
			_ = st.Close()
			return nil, errors.WithHint(err, "fix or remove the data entry in "+o.configPath)
		}
	}
	return st, nil
}

func (o *rootOptions) printer(w io.Writer) *output.Printer {
	return output.New(w, o.cfg.Highlight.Open, o.cfg.Highlight.Close, o.location())
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
