package convert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"docforge/internal/document"
	"docforge/internal/fileutil"
	"docforge/internal/logging"
	"docforge/internal/services"
)

// Request describes one conversion invocation.
type Request struct {
	DocumentID string
	SourcePath string
	OutputDir  string
	Options    document.ConversionOptions
}

// Result captures the outcome of a finished conversion.
type Result struct {
	OutputFile      string
	ImagesExtracted int
	Stderr          string
}

// Job is a running conversion that the worker polls and may kill.
type Job interface {
	// Done is closed once the external process has exited and the result is
	// available.
	Done() <-chan struct{}
	// Result reports the outcome. Only valid after Done is closed.
	Result() (Result, error)
	// OutputPath is the artifact the job writes, known up front so partial
	// output can be deleted on cancellation.
	OutputPath() string
	// Kill terminates the external process.
	Kill() error
}

// Converter launches conversion jobs.
type Converter interface {
	Start(ctx context.Context, req Request) (Job, error)
}

// Client invokes the external conversion binary.
type Client struct {
	binary string
	logger *slog.Logger
}

// NewClient constructs a conversion client.
func NewClient(binary string, logger *slog.Logger) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("conversion binary required")
	}
	return &Client{
		binary: binary,
		logger: logging.NewComponentLogger(logger, "convert"),
	}, nil
}

// Start launches the conversion process. The returned job reports completion
// through its Done channel; the caller owns timeout and cancellation policy,
// though the context bounds the process lifetime as a backstop.
func (c *Client) Start(ctx context.Context, req Request) (Job, error) {
	if strings.TrimSpace(req.SourcePath) == "" {
		return nil, services.Wrap(services.ErrValidation, "convert", "start", "source path required", nil)
	}
	if strings.TrimSpace(req.OutputDir) == "" {
		return nil, services.Wrap(services.ErrValidation, "convert", "start", "output directory required", nil)
	}
	if err := os.MkdirAll(req.OutputDir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrPersistence, "convert", "start", "create output directory", err)
	}

	base := strings.TrimSuffix(filepath.Base(req.SourcePath), filepath.Ext(req.SourcePath))
	outputPath := filepath.Join(req.OutputDir, base+req.Options.OutputExtension())
	imagesDir := filepath.Join(req.OutputDir, base+"_images")

	args := buildArgs(req, outputPath, imagesDir)
	cmd := exec.CommandContext(ctx, c.binary, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	cmd.Stdout = &stderr

	if err := cmd.Start(); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "convert", "start", c.binary, err)
	}
	c.logger.Debug("conversion started",
		logging.String(logging.FieldDocumentID, req.DocumentID),
		logging.String("source", req.SourcePath),
		logging.String("output", outputPath))

	job := &processJob{
		cmd:        cmd,
		outputPath: outputPath,
		imagesDir:  imagesDir,
		stderr:     &stderr,
		done:       make(chan struct{}),
	}
	go job.wait()
	return job, nil
}

func buildArgs(req Request, outputPath, imagesDir string) []string {
	format := strings.ToLower(strings.TrimSpace(req.Options.ExportFormat))
	if format == "" {
		format = document.ExportMarkdown
	}
	args := []string{req.SourcePath, "--to", format, "--output", outputPath}
	if req.Options.ExtractImages {
		args = append(args, "--extract-images", imagesDir)
	}
	if req.Options.EnrichCode {
		args = append(args, "--enrich-code")
	}
	if req.Options.EnrichFormula {
		args = append(args, "--enrich-formula")
	}
	if req.Options.ClassifyPictures {
		args = append(args, "--classify-pictures")
	}
	if req.Options.DescribePictures {
		args = append(args, "--describe-pictures")
	}
	return args
}

type processJob struct {
	cmd        *exec.Cmd
	outputPath string
	imagesDir  string
	stderr     *bytes.Buffer

	done chan struct{}

	mu     sync.Mutex
	result Result
	err    error
}

func (j *processJob) wait() {
	waitErr := j.cmd.Wait()

	j.mu.Lock()
	defer j.mu.Unlock()
	j.result = Result{
		OutputFile:      j.outputPath,
		ImagesExtracted: countFiles(j.imagesDir),
		Stderr:          j.stderr.String(),
	}
	switch {
	case waitErr != nil:
		j.err = services.Wrap(services.ErrExternalTool, "convert", "run",
			fmt.Sprintf("converter exited with failure: %s", firstLine(j.stderr.String())), waitErr)
	case !fileutil.FileNonEmpty(j.outputPath):
		// A clean exit without the artifact is still a failure: both success
		// signals must hold.
		j.err = services.Wrap(services.ErrExternalTool, "convert", "run",
			"converter reported success but produced no output", nil)
	}
	close(j.done)
}

func (j *processJob) Done() <-chan struct{} {
	return j.done
}

func (j *processJob) Result() (Result, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.result, j.err
}

func (j *processJob) OutputPath() string {
	return j.outputPath
}

func (j *processJob) Kill() error {
	if j.cmd.Process == nil {
		return nil
	}
	if err := j.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err
	}
	return nil
}

func countFiles(dir string) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}
	count := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			count++
		}
	}
	return count
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[:idx]
	}
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
