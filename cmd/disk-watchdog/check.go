package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/NavarchProject/disk-watchdog/pkg/probe"
	"github.com/NavarchProject/disk-watchdog/pkg/watchdog"
)

type checkReport struct {
	Path       string  `json:"path"`
	OK         bool    `json:"ok"`
	Size       int64   `json:"size"`
	Blocks     int     `json:"blocks"`
	Bytes      int64   `json:"bytes"`
	DurationMS float64 `json:"duration_ms"`
	Kind       string  `json:"kind,omitempty"`
	Offset     *int64  `json:"offset,omitempty"`
	Error      string  `json:"error,omitempty"`
}

func checkCmd() *cobra.Command {
	var path, output string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run one uncached read pass and print the result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if output != "table" && output != "json" {
				return fmt.Errorf("unsupported output format: %s", output)
			}
			if err := watchdog.ValidateTarget(path); err != nil {
				return err
			}

			result := probe.New(probe.Config{}, nil).Probe(cmd.Context(), path)
			report := newCheckReport(result)

			var err error
			switch output {
			case "json":
				err = outputJSON(cmd.OutOrStdout(), report)
			case "table":
				err = outputTable(cmd.OutOrStdout(), report)
			}
			if err != nil {
				return err
			}

			if !result.OK() {
				return fmt.Errorf("read test failed: %w", result.Err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&path, "file", "f", "", "File to read")
	cmd.Flags().StringVarP(&output, "output", "o", "table", "Output format (table, json)")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func newCheckReport(result probe.Result) checkReport {
	report := checkReport{
		Path:       result.Path,
		OK:         result.OK(),
		Size:       result.Size,
		Blocks:     result.Blocks,
		Bytes:      result.Bytes(),
		DurationMS: float64(result.Duration.Microseconds()) / 1000,
	}
	if result.OK() {
		return report
	}

	report.Kind = probe.KindOf(result.Err).String()
	report.Error = result.Err.Error()
	var pe *probe.Error
	if errors.As(result.Err, &pe) {
		switch pe.Kind {
		case probe.KindRead, probe.KindUnexpectedEOF, probe.KindPartialRead:
			offset := pe.Offset
			report.Offset = &offset
		}
	}
	return report
}

func outputJSON(w io.Writer, report checkReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func outputTable(w io.Writer, report checkReport) error {
	status := "OK"
	if !report.OK {
		status = "FAILED (" + report.Kind + ")"
	}

	table := tablewriter.NewWriter(w)
	table.Append([]string{"Path", report.Path})
	table.Append([]string{"Status", status})
	table.Append([]string{"Size", strconv.FormatInt(report.Size, 10)})
	table.Append([]string{"Blocks", strconv.Itoa(report.Blocks)})
	table.Append([]string{"Bytes", strconv.FormatInt(report.Bytes, 10)})
	table.Append([]string{"Duration", fmt.Sprintf("%.3fms", report.DurationMS)})
	if report.Offset != nil {
		table.Append([]string{"Offset", strconv.FormatInt(*report.Offset, 10)})
	}
	if report.Error != "" {
		table.Append([]string{"Error", report.Error})
	}
	return table.Render()
}
