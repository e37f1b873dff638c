package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"docforge/internal/coordinator"
	"docforge/internal/document"
	"docforge/internal/ipc"
)

func newAddCommand(ctx *commandContext) *cobra.Command {
	var (
		format           string
		extractImages    bool
		enrichCode       bool
		enrichFormula    bool
		classifyPictures bool
		describePictures bool
		chunk            bool
		chunkMaxTokens   int
	)

	cmd := &cobra.Command{
		Use:   "add <file>",
		Short: "Submit a document and enqueue it for conversion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			opts := document.ConversionOptions{
				ExportFormat:     format,
				ExtractImages:    extractImages,
				EnrichCode:       enrichCode,
				EnrichFormula:    enrichFormula,
				ClassifyPictures: classifyPictures,
				DescribePictures: describePictures,
			}
			if chunk {
				opts.Chunking = document.ChunkingOptions{
					Enabled:        true,
					Tokenizer:      cfg.Chunking.Tokenizer,
					TokenizerModel: cfg.Chunking.TokenizerModel,
					MaxTokens:      cfg.Chunking.MaxTokens,
				}
				if chunkMaxTokens > 0 {
					opts.Chunking.MaxTokens = chunkMaxTokens
				}
			}

			var rec *document.Record
			if ctx.daemonReachable() {
				err = ctx.withClient(func(client *ipc.Client) error {
					resp, err := client.Add(ipc.AddRequest{Path: args[0], Options: opts})
					if err != nil {
						return err
					}
					rec = resp.Document
					return nil
				})
			} else {
				err = ctx.withCoordinator(func(coord *coordinator.Coordinator) error {
					submitted, err := coord.Submit(context.Background(), args[0])
					if err != nil {
						return err
					}
					rec, err = coord.Enqueue(context.Background(), submitted.ID, opts)
					return err
				})
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Queued %s (%s)\n", rec.FileName, rec.ID)
			fmt.Fprintf(cmd.OutOrStdout(), "  format: %s  size: %s\n",
				rec.Options.OutputExtension(), formatSize(rec.FileSize))
			if enrichments := rec.Options.ActiveEnrichments(); len(enrichments) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "  enrichments: %v\n", enrichments)
			}
			if rec.Options.Chunking.Enabled {
				fmt.Fprintf(cmd.OutOrStdout(), "  chunking: %s @ %d tokens\n",
					rec.Options.Chunking.Tokenizer, rec.Options.Chunking.MaxTokens)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", document.ExportMarkdown, "Export format (markdown, json, text, html)")
	cmd.Flags().BoolVar(&extractImages, "extract-images", false, "Extract embedded images alongside the output")
	cmd.Flags().BoolVar(&enrichCode, "enrich-code", false, "Run code block enrichment")
	cmd.Flags().BoolVar(&enrichFormula, "enrich-formula", false, "Run formula enrichment")
	cmd.Flags().BoolVar(&classifyPictures, "classify-pictures", false, "Classify embedded pictures")
	cmd.Flags().BoolVar(&describePictures, "describe-pictures", false, "Describe embedded pictures (slow, vision model)")
	cmd.Flags().BoolVar(&chunk, "chunk", false, "Chunk the document after conversion")
	cmd.Flags().IntVar(&chunkMaxTokens, "chunk-max-tokens", 0, "Override configured chunk token budget")

	return cmd
}
