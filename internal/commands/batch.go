package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/spachava753/fieldgen/internal/config"
	"github.com/spachava753/fieldgen/internal/generate"
	"github.com/spachava753/fieldgen/internal/prompt"
)

// DefaultBatchConcurrency bounds concurrent generations when none is given.
const DefaultBatchConcurrency = 4

// BatchFile is a list of generation jobs, typically one per entry field.
type BatchFile struct {
	Jobs []BatchJob `yaml:"jobs" json:"jobs" validate:"required,min=1,unique=ID,dive"`
}

// BatchJob is one queued generation.
type BatchJob struct {
	ID        string `yaml:"id" json:"id" validate:"required"`
	Prompt    string `yaml:"prompt" json:"prompt" validate:"required"`
	Model     string `yaml:"model,omitempty" json:"model,omitempty"`
	FieldType string `yaml:"fieldType,omitempty" json:"fieldType,omitempty"`

	prompt.Context `yaml:",inline"`
}

// BatchResult is the outcome of one job. Exactly one of Content and Error is meaningful.
type BatchResult struct {
	ID      string `yaml:"id"`
	Content string `yaml:"content,omitempty"`
	Error   string `yaml:"error,omitempty"`
}

// LoadBatchFile reads and validates a YAML (or JSON) job file.
func LoadBatchFile(path string) (*BatchFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var file BatchFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("error parsing job file %s: %w", filepath.Base(path), err)
	}
	for i := range file.Jobs {
		file.Jobs[i].ExistingContent = strings.TrimRight(file.Jobs[i].ExistingContent, "\n")
	}

	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(&file); err != nil {
		return nil, fmt.Errorf("invalid job file %s: %w", filepath.Base(path), err)
	}
	return &file, nil
}

// BatchOptions contains all parameters for the batch command
type BatchOptions struct {
	Jobs        []BatchJob
	Settings    config.Settings
	Generator   Generator
	Concurrency int
	// Writer receives the results as a YAML list in job order.
	Writer io.Writer
	Logger *slog.Logger
}

// ErrBatchFailed is returned when at least one job failed. Results of the
// other jobs are still written.
var ErrBatchFailed = errors.New("batch had failed jobs")

// ExecuteBatch runs every job, at most Concurrency at a time, and writes the
// results once all jobs are done. One failing job does not stop the others.
func ExecuteBatch(ctx context.Context, opts BatchOptions) error {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultBatchConcurrency
	}

	results := make([]BatchResult, len(opts.Jobs))
	var g errgroup.Group
	g.SetLimit(concurrency)

	for i, job := range opts.Jobs {
		g.Go(func() error {
			results[i] = runJob(ctx, opts, job)
			if results[i].Error != "" {
				logger.Warn("batch job failed", slog.String("job", job.ID), slog.String("error", results[i].Error))
			}
			return nil
		})
	}
	_ = g.Wait()

	enc := yaml.NewEncoder(opts.Writer)
	enc.SetIndent(2)
	if err := enc.Encode(results); err != nil {
		return fmt.Errorf("writing results: %w", err)
	}
	if err := enc.Close(); err != nil {
		return err
	}

	failed := 0
	for _, r := range results {
		if r.Error != "" {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%w: %d of %d", ErrBatchFailed, failed, len(results))
	}
	return nil
}

func runJob(ctx context.Context, opts BatchOptions, job BatchJob) BatchResult {
	result := BatchResult{ID: job.ID}

	format, err := ResolveFormat(opts.Settings, job.FieldType, string(job.Format))
	if err != nil {
		result.Error = err.Error()
		return result
	}
	genCtx := job.Context
	genCtx.Format = format

	content, err := opts.Generator.Generate(ctx, generate.Request{
		Prompt:   job.Prompt,
		ModelID:  job.Model,
		Context:  genCtx,
		Settings: opts.Settings,
	})
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.Content = content
	return result
}
