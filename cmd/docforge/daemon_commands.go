package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"docforge/internal/ipc"
)

func newDaemonCommand(ctx *commandContext) *cobra.Command {
	daemonCmd := &cobra.Command{
		Use:   "daemon",
		Short: "Control the docforged process",
	}

	daemonCmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show daemon runtime details",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Status()
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Running:     %s\n", yesNo(resp.Running))
				fmt.Fprintf(out, "PID:         %d\n", resp.PID)
				fmt.Fprintf(out, "Queue depth: %d\n", resp.QueueDepth)
				fmt.Fprintf(out, "Lock file:   %s\n", resp.LockFilePath)
				fmt.Fprintf(out, "Status file: %s\n", resp.StatusFilePath)
				return nil
			})
		},
	})

	daemonCmd.AddCommand(&cobra.Command{
		Use:   "stop",
		Short: "Ask the daemon to shut down",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				if _, err := client.Stop(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Shutdown requested.")
				return nil
			})
		},
	})

	return daemonCmd
}
