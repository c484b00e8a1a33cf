package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"slices"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"
)

var formats = []string{"csv", "json", "table", "yaml"}

func validateFlagFormat(format string) error {
	if !slices.Contains(formats, format) {
		return fmt.Errorf("Invalid value %q for flag %q, supported values: %v", format, "format", formats)
	}

	return nil
}

// renderTable writes header and data as a table or csv, and raw as json or
// yaml.
func renderTable(w io.Writer, format string, header []string, data [][]string, raw any) error {
	switch format {
	case "table":
		table := tablewriter.NewWriter(w)
		h := make([]any, len(header))
		for i, name := range header {
			h[i] = name
		}

		table.Header(h...)
		err := table.Bulk(data)
		if err != nil {
			return err
		}

		return table.Render()
	case "csv":
		cw := csv.NewWriter(w)
		err := cw.Write(header)
		if err != nil {
			return err
		}

		err = cw.WriteAll(data)
		if err != nil {
			return err
		}

		return cw.Error()
	default:
		return renderValue(w, format, raw)
	}
}

func renderValue(w io.Writer, format string, v any) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		err := enc.Encode(v)
		if err != nil {
			return err
		}

		return enc.Close()
	default:
		return fmt.Errorf("Invalid format %q", format)
	}
}
