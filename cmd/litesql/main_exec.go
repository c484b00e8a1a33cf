package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/syssam/litesql/dialect/sql"
)

type cmdExec struct {
	global *cmdGlobal
}

func (c *cmdExec) Command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "exec <statement> [<arg>...]"
	cmd.Short = "Execute a statement that returns no rows"
	cmd.Long = `Description:
  Execute a statement that returns no rows

  Positional arguments after the statement are bound to its ? placeholders
  in order.
`
	cmd.Example = `  litesql exec "UPDATE person SET age=? WHERE id=?" 31 7`

	cmd.RunE = c.Run

	return cmd
}

func (c *cmdExec) Run(cmd *cobra.Command, args []string) error {
	// Quick checks.
	exit, err := c.global.CheckArgs(cmd, args, 1, -1)
	if exit {
		return err
	}

	drv, err := c.global.openDriver()
	if err != nil {
		return err
	}

	defer func() { _ = drv.Close() }()

	var res sql.Result
	err = drv.Exec(cmd.Context(), args[0], bindArgs(args[1:]), &res)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}

	lastID, err := res.LastInsertId()
	if err != nil {
		return err
	}

	cmd.Printf("Rows affected: %d\nLast insert id: %d\n", affected, lastID)

	return nil
}

type cmdQuery struct {
	global *cmdGlobal

	flagFormat string
}

func (c *cmdQuery) Command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "query <statement> [<arg>...]"
	cmd.Short = "Run a query and print the rows"
	cmd.Long = `Description:
  Run a query and print the rows

  Positional arguments after the statement are bound to its ? placeholders
  in order. NULL values are printed as NULL in table and csv output.
`
	cmd.Example = `  litesql query "SELECT * FROM person WHERE age>=?" 30 --format json`

	cmd.RunE = c.Run
	cmd.Flags().StringVarP(&c.flagFormat, "format", "f", "table", "Format (csv|json|table|yaml)")
	cmd.PreRunE = func(cmd *cobra.Command, _ []string) error {
		return validateFlagFormat(c.flagFormat)
	}

	return cmd
}

func (c *cmdQuery) Run(cmd *cobra.Command, args []string) error {
	// Quick checks.
	exit, err := c.global.CheckArgs(cmd, args, 1, -1)
	if exit {
		return err
	}

	drv, err := c.global.openDriver()
	if err != nil {
		return err
	}

	defer func() { _ = drv.Close() }()

	rows := &sql.Rows{}
	err = drv.Query(cmd.Context(), args[0], bindArgs(args[1:]), rows)
	if err != nil {
		return err
	}

	defer func() { _ = rows.Close() }()

	header, values, err := readRows(rows)
	if err != nil {
		return err
	}

	data := make([][]string, 0, len(values))
	for _, row := range values {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = cellString(v)
		}

		data = append(data, cells)
	}

	var records []map[string]any
	if c.flagFormat == "json" || c.flagFormat == "yaml" {
		records, err = rowRecords(header, values)
		if err != nil {
			return err
		}
	}

	return renderTable(cmd.OutOrStdout(), c.flagFormat, header, data, records)
}

func bindArgs(args []string) []any {
	argv := make([]any, len(args))
	for i, arg := range args {
		argv[i] = arg
	}

	return argv
}

// readRows drains rows, keeping the values of each row in column order.
func readRows(rows sql.ColumnScanner) ([]string, [][]any, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}

	out := [][]any{}
	for rows.Next() {
		values := make([]any, len(columns))
		dest := make([]any, len(columns))
		for i := range values {
			dest[i] = &values[i]
		}

		err = rows.Scan(dest...)
		if err != nil {
			return nil, nil, err
		}

		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}

		out = append(out, values)
	}

	err = rows.Err()
	if err != nil {
		return nil, nil, err
	}

	return columns, out, nil
}

// rowRecords keys each row by column name. Duplicate names are rejected
// since one of the values would be lost.
func rowRecords(columns []string, rows [][]any) ([]map[string]any, error) {
	seen := make(map[string]bool, len(columns))
	for _, name := range columns {
		if seen[name] {
			return nil, fmt.Errorf("Duplicate column name %q, use an alias to output json or yaml", name)
		}

		seen[name] = true
	}

	records := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		record := make(map[string]any, len(columns))
		for i, name := range columns {
			record[name] = row[i]
		}

		records = append(records, record)
	}

	return records, nil
}

func cellString(v any) string {
	if v == nil {
		return "NULL"
	}

	return fmt.Sprint(v)
}
