package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/syssam/litesql/config"
	"github.com/syssam/litesql/dialect"
	"github.com/syssam/litesql/dialect/sql"
)

type cmdGlobal struct {
	cmd *cobra.Command

	flagConfig    string
	flagDebug     bool
	flagLogFormat string
	flagStats     bool

	config *config.Config
	logger *slog.Logger
	stats  *sql.QueryStats
}

// Run sets up logging and loads the configuration before any subcommand.
func (c *cmdGlobal) Run(cmd *cobra.Command, args []string) error {
	if cmd.Name() == "help" {
		return nil
	}

	var err error
	c.logger, err = newLogger(cmd.ErrOrStderr(), c.flagLogFormat, c.flagDebug)
	if err != nil {
		return err
	}

	c.config = config.LoadOrDefault(c.flagConfig, c.logger)
	if c.flagDebug {
		c.config.SQLite.Debug = true
	}

	return nil
}

// CheckArgs validates the number of positional arguments. maxArgs of -1
// means no upper bound.
func (c *cmdGlobal) CheckArgs(cmd *cobra.Command, args []string, minArgs int, maxArgs int) (bool, error) {
	if len(args) < minArgs || (maxArgs != -1 && len(args) > maxArgs) {
		_ = cmd.Help()

		if len(args) == 0 {
			return true, nil
		}

		return true, fmt.Errorf("Invalid number of arguments")
	}

	return false, nil
}

// PostRun prints the statement statistics collected with --stats.
func (c *cmdGlobal) PostRun(cmd *cobra.Command, args []string) error {
	if c.stats != nil {
		_, err := fmt.Fprintln(cmd.ErrOrStderr(), c.stats.Stats().String())
		return err
	}

	return nil
}

func (c *cmdGlobal) openDriver() (dialect.Driver, error) {
	if !c.flagStats {
		return c.config.OpenDriver(c.logger)
	}

	drv, err := c.config.Open()
	if err != nil {
		return nil, err
	}

	statsDriver := sql.NewStatsDriver(drv, sql.WithSlowQueryLog(c.logger))
	c.stats = statsDriver.QueryStats()

	return statsDriver, nil
}

func newLogger(w io.Writer, format string, debug bool) (*slog.Logger, error) {
	opts := &slog.HandlerOptions{Level: slog.LevelWarn}
	if debug {
		opts.Level = slog.LevelDebug
	}

	switch format {
	case "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("Invalid log format %q", format)
	}
}

func newApp() *cobra.Command {
	app := &cobra.Command{}
	app.Use = "litesql"
	app.Short = "Inspect and query a SQLite store"
	app.Long = `Description:
  Inspect and query a SQLite store

  The store is opened with the configuration file given by --config.
`
	app.SilenceUsage = true
	app.SilenceErrors = true
	app.CompletionOptions = cobra.CompletionOptions{DisableDefaultCmd: true}

	// Global flags
	globalCmd := cmdGlobal{cmd: app}
	app.PersistentPreRunE = globalCmd.Run
	app.PersistentPostRunE = globalCmd.PostRun
	app.PersistentFlags().StringVarP(&globalCmd.flagConfig, "config", "c", config.DefaultPath, "Path to the configuration file")
	app.PersistentFlags().BoolVarP(&globalCmd.flagDebug, "debug", "d", false, "Show all debug messages, including statements")
	app.PersistentFlags().StringVar(&globalCmd.flagLogFormat, "log-format", "text", "Log format (text|json)")
	app.PersistentFlags().BoolVar(&globalCmd.flagStats, "stats", false, "Print statement statistics when done")

	// config sub-command
	configCmd := cmdConfig{global: &globalCmd}
	app.AddCommand(configCmd.Command())

	// ping sub-command
	pingCmd := cmdPing{global: &globalCmd}
	app.AddCommand(pingCmd.Command())

	// exec sub-command
	execCmd := cmdExec{global: &globalCmd}
	app.AddCommand(execCmd.Command())

	// query sub-command
	queryCmd := cmdQuery{global: &globalCmd}
	app.AddCommand(queryCmd.Command())

	// Workaround for subcommand usage errors. See: https://github.com/spf13/cobra/issues/706
	app.Args = cobra.NoArgs
	app.Run = func(cmd *cobra.Command, args []string) { _ = cmd.Usage() }

	return app
}

func main() {
	app := newApp()

	err := app.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
