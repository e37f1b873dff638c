package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"docforge/internal/coordinator"
	"docforge/internal/document"
	"docforge/internal/ipc"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	var statusFilter []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List documents, most recently updated first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := fetchRecords(ctx, statusFilter)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No documents.")
				return nil
			}

			rows := make([][]string, 0, len(records))
			for _, rec := range records {
				detail := rec.OutputFile
				if rec.Status == document.StatusError {
					detail = truncate(rec.Error, 48)
				}
				rows = append(rows, []string{
					shortID(rec.ID),
					truncate(rec.FileName, 32),
					statusLabel(rec.Status),
					formatProgress(rec),
					formatSize(rec.FileSize),
					formatTime(rec.LastUpdate),
					detail,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "File", "Status", "Progress", "Size", "Updated", "Output / Error"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&statusFilter, "status", nil, "Filter by status (ready, queued, processing, completed, error, cancelled)")
	return cmd
}

func fetchRecords(ctx *commandContext, statuses []string) ([]*document.Record, error) {
	if ctx.daemonReachable() {
		var records []*document.Record
		err := ctx.withClient(func(client *ipc.Client) error {
			resp, err := client.List(statuses...)
			if err != nil {
				return err
			}
			records = resp.Documents
			return nil
		})
		return records, err
	}

	var records []*document.Record
	err := ctx.withCoordinator(func(coord *coordinator.Coordinator) error {
		all, err := coord.List(context.Background())
		if err != nil {
			return err
		}
		if len(statuses) == 0 {
			records = all
			return nil
		}
		wanted := make(map[document.Status]struct{}, len(statuses))
		for _, raw := range statuses {
			if status, ok := document.ParseStatus(raw); ok {
				wanted[status] = struct{}{}
			}
		}
		for _, rec := range all {
			if _, ok := wanted[rec.Status]; ok {
				records = append(records, rec)
			}
		}
		return nil
	})
	return records, err
}

func newShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show the full record for one document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, found, err := fetchRecord(ctx, args[0])
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("no document with ID %s", args[0])
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ID:         %s\n", rec.ID)
			fmt.Fprintf(out, "File:       %s (%s)\n", rec.FileName, formatSize(rec.FileSize))
			fmt.Fprintf(out, "Path:       %s\n", rec.FilePath)
			fmt.Fprintf(out, "Status:     %s\n", statusLabel(rec.Status))
			fmt.Fprintf(out, "Progress:   %s\n", formatProgress(rec))
			fmt.Fprintf(out, "Queued:     %s\n", formatTime(rec.QueuedTime))
			fmt.Fprintf(out, "Started:    %s\n", formatTime(rec.StartTime))
			fmt.Fprintf(out, "Finished:   %s\n", formatTime(rec.EndTime))
			fmt.Fprintf(out, "Estimated:  %s\n", formatDuration(rec.EstimatedDuration))
			fmt.Fprintf(out, "Elapsed:    %s\n", formatDuration(rec.ElapsedTime))
			fmt.Fprintf(out, "Cancel:     %s\n", yesNo(rec.CancelRequested))
			if enrichments := rec.Options.ActiveEnrichments(); len(enrichments) > 0 {
				fmt.Fprintf(out, "Enrichments: %v\n", enrichments)
			}
			if rec.OutputFile != "" {
				fmt.Fprintf(out, "Output:     %s\n", rec.OutputFile)
			}
			if rec.ImagesExtracted > 0 {
				fmt.Fprintf(out, "Images:     %d\n", rec.ImagesExtracted)
			}
			if rec.ChunksFile != "" {
				fmt.Fprintf(out, "Chunks:     %s\n", rec.ChunksFile)
			}
			if rec.ChunksError != "" {
				fmt.Fprintf(out, "Chunks err: %s\n", rec.ChunksError)
			}
			if rec.Error != "" {
				fmt.Fprintf(out, "Error:      %s\n", rec.Error)
				if rec.ErrorDetails != nil {
					fmt.Fprintf(out, "Error kind: %s\n", rec.ErrorDetails.Kind)
				}
			}
			return nil
		},
	}
}

func fetchRecord(ctx *commandContext, id string) (*document.Record, bool, error) {
	if ctx.daemonReachable() {
		var (
			rec   *document.Record
			found bool
		)
		err := ctx.withClient(func(client *ipc.Client) error {
			resp, err := client.Describe(id)
			if err != nil {
				return err
			}
			rec, found = resp.Document, resp.Found
			return nil
		})
		return rec, found, err
	}

	var (
		rec   *document.Record
		found bool
	)
	err := ctx.withCoordinator(func(coord *coordinator.Coordinator) error {
		var err error
		rec, found, err = coord.Get(context.Background(), id)
		return err
	})
	return rec, found, err
}

func newCancelCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <id>",
		Short: "Request cooperative cancellation of a processing document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if ctx.daemonReachable() {
				err = ctx.withClient(func(client *ipc.Client) error {
					_, err := client.Cancel(args[0])
					return err
				})
			} else {
				err = ctx.withCoordinator(func(coord *coordinator.Coordinator) error {
					return coord.RequestCancel(context.Background(), args[0])
				})
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cancellation requested for %s; the worker will stop on its next poll.\n", args[0])
			return nil
		},
	}
}

func newResetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reset <id>",
		Short: "Force a finished document back to ready",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var rec *document.Record
			var err error
			if ctx.daemonReachable() {
				err = ctx.withClient(func(client *ipc.Client) error {
					resp, err := client.Reset(args[0])
					if err != nil {
						return err
					}
					rec = resp.Document
					return nil
				})
			} else {
				err = ctx.withCoordinator(func(coord *coordinator.Coordinator) error {
					rec, err = coord.Reset(context.Background(), args[0])
					return err
				})
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Reset %s to %s.\n", rec.ID, statusLabel(rec.Status))
			return nil
		},
	}
}

func newReprocessCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reprocess <id>",
		Short: "Re-enqueue a finished document with its stored options",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var rec *document.Record
			var err error
			if ctx.daemonReachable() {
				err = ctx.withClient(func(client *ipc.Client) error {
					resp, err := client.Reprocess(args[0])
					if err != nil {
						return err
					}
					rec = resp.Document
					return nil
				})
			} else {
				err = ctx.withCoordinator(func(coord *coordinator.Coordinator) error {
					rec, err = coord.Reprocess(context.Background(), args[0])
					return err
				})
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Requeued %s (%s).\n", rec.FileName, rec.ID)
			return nil
		},
	}
}

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect the pending work queue",
	}

	queueCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List pending document IDs in enqueue order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var ids []string
			var err error
			if ctx.daemonReachable() {
				err = ctx.withClient(func(client *ipc.Client) error {
					resp, err := client.QueueList()
					if err != nil {
						return err
					}
					ids = resp.IDs
					return nil
				})
			} else {
				err = ctx.withCoordinator(func(coord *coordinator.Coordinator) error {
					ids, err = coord.Pending(context.Background())
					return err
				})
			}
			if err != nil {
				return err
			}
			if len(ids) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty.")
				return nil
			}
			for i, id := range ids {
				fmt.Fprintf(cmd.OutOrStdout(), "%3d. %s\n", i+1, id)
			}
			return nil
		},
	})

	return queueCmd
}

func newClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear-completed",
		Short: "Remove completed records from the status store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var removed int
			err := ctx.withCoordinator(func(coord *coordinator.Coordinator) error {
				var err error
				removed, err = coord.ClearCompleted(context.Background())
				return err
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d completed record(s).\n", removed)
			return nil
		},
	}
}
