package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"docforge/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:         "config",
		Short:       "Manage the docforge configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
	}

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a commented sample configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.DefaultConfigPath()
			if err != nil {
				return err
			}
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("config already exists at %s", path)
			}
			if err := config.CreateSample(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote sample config to %s\n", path)
			return nil
		},
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Data dir:      %s\n", cfg.Paths.DataDir)
			fmt.Fprintf(out, "Staging dir:   %s\n", cfg.Paths.StagingDir)
			fmt.Fprintf(out, "Log dir:       %s\n", cfg.Paths.LogDir)
			fmt.Fprintf(out, "Status file:   %s\n", cfg.StatusFilePath())
			fmt.Fprintf(out, "Queue dir:     %s\n", cfg.QueueDir())
			fmt.Fprintf(out, "Socket:        %s\n", cfg.SocketPath())
			fmt.Fprintf(out, "Converter:     %s (timeout %ds)\n", cfg.Conversion.Binary, cfg.Conversion.TimeoutSeconds)
			fmt.Fprintf(out, "Chunker:       %s (%s @ %d tokens)\n", cfg.Chunking.Binary, cfg.Chunking.Tokenizer, cfg.Chunking.MaxTokens)
			fmt.Fprintf(out, "Log format:    %s (%s)\n", cfg.Logging.Format, cfg.Logging.Level)
			return nil
		},
	}

	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	return configCmd
}
