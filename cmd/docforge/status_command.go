package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"docforge/internal/ipc"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon and queue status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			err := ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Status()
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Daemon:      running (pid %d)\n", resp.PID)
				if !resp.StartedAt.IsZero() {
					fmt.Fprintf(out, "Started:     %s\n", humanize.Time(resp.StartedAt))
				}
				fmt.Fprintf(out, "Queue depth: %d\n", resp.QueueDepth)
				if resp.CurrentDocument != "" {
					fmt.Fprintf(out, "Processing:  %s\n", resp.CurrentDocument)
				}
				fmt.Fprintf(out, "Completed:   %d this session\n", resp.SessionCompleted)
				if resp.LastError != "" {
					fmt.Fprintf(out, "Last error:  %s\n", resp.LastError)
				}
				fmt.Fprintf(out, "Status file: %s\n", resp.StatusFilePath)
				return nil
			})
			if err == nil {
				return nil
			}

			// Daemon down: fall back to reading shared state directly.
			fmt.Fprintln(out, "Daemon:      not running")
			records, ferr := fetchRecords(ctx, nil)
			if ferr != nil {
				return ferr
			}
			counts := make(map[string]int)
			for _, rec := range records {
				counts[string(rec.Status)]++
			}
			fmt.Fprintf(out, "Documents:   %d total", len(records))
			for _, status := range []string{"queued", "processing", "completed", "error"} {
				if counts[status] > 0 {
					fmt.Fprintf(out, ", %d %s", counts[status], status)
				}
			}
			fmt.Fprintln(out)
			return nil
		},
	}
}
