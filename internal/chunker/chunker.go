package chunker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"docforge/internal/document"
	"docforge/internal/fileutil"
	"docforge/internal/logging"
	"docforge/internal/services"
)

// Request describes one chunking invocation. InputPath is the source
// document; OutputPath is where the chunks file should land, derived from the
// input when empty.
type Request struct {
	DocumentID string
	InputPath  string
	OutputPath string
	Options    document.ChunkingOptions
}

// Chunker splits a converted document into retrieval chunks.
type Chunker interface {
	Chunk(ctx context.Context, req Request) (string, error)
}

// Client invokes the external chunking binary. Chunking runs synchronously
// under its own timeout: it is an enhancement, so the worker treats failures
// here as non-fatal.
type Client struct {
	binary  string
	timeout time.Duration
	logger  *slog.Logger
}

// NewClient constructs a chunking client.
func NewClient(binary string, timeout time.Duration, logger *slog.Logger) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("chunking binary required")
	}
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	return &Client{
		binary:  binary,
		timeout: timeout,
		logger:  logging.NewComponentLogger(logger, "chunker"),
	}, nil
}

// Chunk runs the chunking binary over the converted artifact and returns the
// chunks file path. The chunks file lands next to its input as
// <name>.chunks.json.
func (c *Client) Chunk(ctx context.Context, req Request) (string, error) {
	if strings.TrimSpace(req.InputPath) == "" {
		return "", services.Wrap(services.ErrValidation, "chunker", "chunk", "input path required", nil)
	}
	if !fileutil.FileNonEmpty(req.InputPath) {
		return "", services.Wrap(services.ErrValidation, "chunker", "chunk", "input file missing or empty: "+req.InputPath, nil)
	}

	chunksPath := strings.TrimSpace(req.OutputPath)
	if chunksPath == "" {
		chunksPath = chunksPathFor(req.InputPath)
	}
	args := buildArgs(req, chunksPath)

	runCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, c.binary, args...)
	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	c.logger.Debug("chunking started",
		logging.String(logging.FieldDocumentID, req.DocumentID),
		logging.String("input", req.InputPath))

	err := cmd.Run()
	switch {
	case runCtx.Err() != nil:
		return "", services.Wrap(services.ErrTimeout, "chunker", "chunk",
			fmt.Sprintf("chunking exceeded %s", c.timeout), runCtx.Err())
	case err != nil:
		return "", services.Wrap(services.ErrExternalTool, "chunker", "chunk", excerpt(output.String()), err)
	case !fileutil.FileNonEmpty(chunksPath):
		return "", services.Wrap(services.ErrExternalTool, "chunker", "chunk",
			"chunker reported success but produced no chunks file", nil)
	}
	return chunksPath, nil
}

func chunksPathFor(inputPath string) string {
	base := strings.TrimSuffix(inputPath, filepath.Ext(inputPath))
	return base + ".chunks.json"
}

func buildArgs(req Request, chunksPath string) []string {
	opts := req.Options
	args := []string{req.InputPath, "--output", chunksPath}
	if opts.Tokenizer != "" {
		args = append(args, "--tokenizer", opts.Tokenizer)
	}
	if opts.TokenizerModel != "" {
		args = append(args, "--tokenizer-model", opts.TokenizerModel)
	}
	if opts.MaxTokens > 0 {
		args = append(args, "--max-tokens", strconv.Itoa(opts.MaxTokens))
	}
	if opts.MergePeers {
		args = append(args, "--merge-peers")
	}
	if opts.OverlapTokens > 0 {
		args = append(args, "--overlap-tokens", strconv.Itoa(opts.OverlapTokens))
	}
	if opts.RespectBoundaries {
		args = append(args, "--respect-boundaries")
	}
	if opts.ModelPreset != "" {
		args = append(args, "--model-preset", opts.ModelPreset)
	}
	if opts.TableSerialization != "" {
		args = append(args, "--table-mode", opts.TableSerialization)
	}
	if opts.PictureSerialization != "" {
		args = append(args, "--picture-mode", opts.PictureSerialization)
	}
	return args
}

func excerpt(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 200 {
		s = s[:200]
	}
	if s == "" {
		return "chunker exited with failure"
	}
	return "chunker exited with failure: " + s
}
