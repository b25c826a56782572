package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/kilianp07/dayplan/app"
	"github.com/kilianp07/dayplan/core/model"
	"github.com/kilianp07/dayplan/pkg/export"
)

var (
	scheduleFormat string
	scheduleMerged bool
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule <request.json>",
	Short: "Schedule a window or plan request and print the result",
	Long: "Reads a shared-window request or an itinerary plan (detected by its " +
		"\"已選行程\" field), commits the schedule to the configured store and " +
		"prints the placements. Use - to read standard input.",
	Args: cobra.ExactArgs(1),
	RunE: runSchedule,
}

func init() {
	scheduleCmd.Flags().StringVarP(&scheduleFormat, "format", "f", "json", "output format: json or csv")
	scheduleCmd.Flags().BoolVar(&scheduleMerged, "merged", false, "print the merged day instead of the new placements")
	rootCmd.AddCommand(scheduleCmd)
}

func runSchedule(cmd *cobra.Command, args []string) error {
	write, err := writerFor(scheduleFormat)
	if err != nil {
		return err
	}
	data, err := readInput(cmd.InOrStdin(), args[0])
	if err != nil {
		return err
	}

	a, err := loadApp()
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "close: %v\n", err)
		}
	}()

	res, err := submit(cmd.Context(), a.Service, data)
	if err != nil {
		return err
	}
	if !res.Success {
		return fmt.Errorf("%s: %s", res.ErrorKind, res.Message)
	}
	var out []model.Placement
	for _, d := range res.Days {
		if scheduleMerged {
			out = append(out, d.Merged...)
		} else {
			out = append(out, d.Scheduled...)
		}
	}
	return write(cmd.OutOrStdout(), out)
}

func submit(ctx context.Context, svc *app.Service, data []byte) (app.Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return app.Result{}, fmt.Errorf("decode request: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	if _, ok := probe["已選行程"]; ok {
		var req model.PlanRequest
		if err := dec.Decode(&req); err != nil {
			return app.Result{}, fmt.Errorf("decode plan: %w", err)
		}
		return svc.SubmitPlan(ctx, req), nil
	}
	var req model.WindowRequest
	if err := dec.Decode(&req); err != nil {
		return app.Result{}, fmt.Errorf("decode window request: %w", err)
	}
	return svc.SubmitWindow(ctx, req), nil
}

func writerFor(format string) (func(io.Writer, []model.Placement) error, error) {
	switch format {
	case "json":
		return export.WriteJSON, nil
	case "csv":
		return export.WriteCSV, nil
	default:
		return nil, fmt.Errorf("unknown format %s", format)
	}
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}
