package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/syssam/litesql/dialect/sql"
)

type cmdPing struct {
	global *cmdGlobal
}

func (c *cmdPing) Command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "ping"
	cmd.Short = "Check that the store can be opened"
	cmd.Long = `Description:
  Check that the store can be opened

  Opens the store, runs "SELECT sqlite_version()" and prints the result.
`

	cmd.RunE = c.Run

	return cmd
}

func (c *cmdPing) Run(cmd *cobra.Command, args []string) error {
	// Quick checks.
	exit, err := c.global.CheckArgs(cmd, args, 0, 0)
	if exit {
		return err
	}

	drv, err := c.global.openDriver()
	if err != nil {
		return err
	}

	defer func() { _ = drv.Close() }()

	start := time.Now()
	rows := &sql.Rows{}
	err = drv.Query(cmd.Context(), "SELECT sqlite_version()", []any{}, rows)
	if err != nil {
		return err
	}

	defer func() { _ = rows.Close() }()

	var version string
	if rows.Next() {
		err = rows.Scan(&version)
		if err != nil {
			return err
		}
	}

	err = rows.Err()
	if err != nil {
		return err
	}

	cmd.Printf("SQLite %s (%s, %s)\n", version, sql.DriverName(), time.Since(start).Round(time.Microsecond))

	return nil
}
