package main

import (
	"github.com/spf13/cobra"

	"github.com/syssam/litesql/config"
	"github.com/syssam/litesql/dialect/sql"
)

type cmdConfig struct {
	global *cmdGlobal

	flagFormat string
}

func (c *cmdConfig) Command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "config"
	cmd.Short = "Show the effective configuration"
	cmd.Long = `Description:
  Show the effective configuration

  Prints the loaded configuration, the compiled-in SQLite engine and the
  data source name the store is opened with.
`

	cmd.RunE = c.Run
	cmd.Flags().StringVarP(&c.flagFormat, "format", "f", "yaml", "Format (csv|json|table|yaml)")
	cmd.PreRunE = func(cmd *cobra.Command, _ []string) error {
		return validateFlagFormat(c.flagFormat)
	}

	return cmd
}

func (c *cmdConfig) Run(cmd *cobra.Command, args []string) error {
	// Quick checks.
	exit, err := c.global.CheckArgs(cmd, args, 0, 0)
	if exit {
		return err
	}

	cfg := c.global.config
	info := sql.EngineInfo()
	shown := cfg.SQLite
	if shown.Password != "" {
		shown.Password = "********"
	}

	view := struct {
		SQLite config.SQLite `json:"sqlite" yaml:"sqlite"`
		Engine sql.Info      `json:"engine" yaml:"engine"`
		DSN    string        `json:"dsn" yaml:"dsn"`
	}{
		SQLite: shown,
		Engine: info,
		DSN:    (&config.Config{SQLite: shown}).DSN(),
	}

	switch c.flagFormat {
	case "table", "csv":
		header := []string{"Key", "Value"}
		data := [][]string{
			{"engine", info.DriverName + " (" + info.DriverType + ")"},
			{"package", info.Package},
			{"dsn", view.DSN},
		}

		for _, key := range []string{"uri", "username", "max_open_conns", "max_idle_conns", "conn_max_lifetime", "debug"} {
			v, _ := cfg.Value(key)
			data = append(data, []string{key, v})
		}

		return renderTable(cmd.OutOrStdout(), c.flagFormat, header, data, view)
	default:
		return renderValue(cmd.OutOrStdout(), c.flagFormat, view)
	}
}
