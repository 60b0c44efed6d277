package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spachava753/fieldgen/internal/modelcatalog"
	"github.com/spachava753/fieldgen/internal/params"
	"github.com/spachava753/fieldgen/internal/urlhandler"
)

// ErrInvalidDescriptors is returned by ModelValidate when any issue was found.
var ErrInvalidDescriptors = errors.New("model descriptors are invalid")

// ModelListOptions contains parameters for listing models
type ModelListOptions struct {
	Catalog *modelcatalog.Catalog
	// VisionOnly restricts the listing to vision capable dropdown models.
	VisionOnly   bool
	DefaultModel string
	Writer       io.Writer
}

// ModelList lists catalog models, highest priority first
func ModelList(ctx context.Context, opts ModelListOptions) error {
	var models []*modelcatalog.Descriptor
	if opts.VisionOnly {
		models = opts.Catalog.ListVisionCapable()
	} else {
		models = opts.Catalog.List()
		modelcatalog.SortByPriority(models)
	}

	if len(models) == 0 {
		fmt.Fprintln(opts.Writer, "No models found.")
		return nil
	}

	tw := tabwriter.NewWriter(opts.Writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPRIORITY\tVISION\tBADGE")
	for _, m := range models {
		id := m.ID
		if opts.DefaultModel != "" && m.ID == opts.DefaultModel {
			id += " (default)"
		}
		badge := m.UIDisplay.Badge
		if m.UIDisplay.Recommended {
			badge = strings.TrimSpace(badge + " recommended")
		}
		fmt.Fprintf(tw, "%s\t%s\t%g\t%t\t%s\n", id, m.DisplayName, m.UIDisplay.Priority, m.Capabilities.SupportsVision, badge)
	}
	return tw.Flush()
}

// ModelInfoOptions contains parameters for showing model details
type ModelInfoOptions struct {
	Catalog   *modelcatalog.Catalog
	ModelName string
	Writer    io.Writer
}

// ModelInfo displays detailed information about a specific model
func ModelInfo(ctx context.Context, opts ModelInfoOptions) error {
	if opts.ModelName == "" {
		return fmt.Errorf("no model name provided")
	}

	m, found := opts.Catalog.FindModel(opts.ModelName)
	if !found {
		return &params.ModelNotFoundError{ID: opts.ModelName}
	}

	api := m.APIParameters
	fmt.Fprintf(opts.Writer, "ID: %s\nDisplay Name: %s\nSource: %s\n", m.ID, m.DisplayName, m.Source)
	if m.Description != "" {
		fmt.Fprintf(opts.Writer, "Description: %s\n", m.Description)
	}
	fmt.Fprintf(opts.Writer, "Vision: %t\n", m.Capabilities.SupportsVision)

	fmt.Fprintln(opts.Writer, "\nAPI Parameters:")
	fmt.Fprintf(opts.Writer, "  Token Parameter: %s\n", api.TokenParameterName)
	fmt.Fprintf(opts.Writer, "  Default Token Limit: %d\n", api.DefaultTokenLimit)
	if api.TemperatureSupported() {
		fmt.Fprintf(opts.Writer, "  Temperature: %.2f\n", api.Temperature())
	} else {
		fmt.Fprintln(opts.Writer, "  Temperature: not supported")
	}
	if api.ReasoningEffortSupported() {
		fmt.Fprintf(opts.Writer, "  Reasoning Effort: %s\n", api.ReasoningEffort())
	}

	if m.VersionInfo.MaxContextTokens > 0 || m.VersionInfo.ReleaseDate != "" {
		fmt.Fprintln(opts.Writer, "\nVersion:")
		if m.VersionInfo.MaxContextTokens > 0 {
			fmt.Fprintf(opts.Writer, "  Max Context Tokens: %d\n", m.VersionInfo.MaxContextTokens)
		}
		if m.VersionInfo.ReleaseDate != "" {
			fmt.Fprintf(opts.Writer, "  Release Date: %s\n", m.VersionInfo.ReleaseDate)
		}
	}
	return nil
}

// ModelValidateOptions contains parameters for descriptor validation
type ModelValidateOptions struct {
	Catalog *modelcatalog.Catalog
	Writer  io.Writer
}

// ModelValidate reports every descriptor issue and fails when there is any.
func ModelValidate(ctx context.Context, opts ModelValidateOptions) error {
	issues := opts.Catalog.Validate()
	if len(issues) == 0 {
		fmt.Fprintf(opts.Writer, "✓ %d model descriptors are valid\n", len(opts.Catalog.List()))
		return nil
	}
	for _, issue := range issues {
		fmt.Fprintf(opts.Writer, "✗ %s\n", issue)
	}
	return fmt.Errorf("%w: %d issues", ErrInvalidDescriptors, len(issues))
}

// ModelParamsOptions contains parameters for showing resolved request parameters
type ModelParamsOptions struct {
	Catalog   *modelcatalog.Catalog
	ModelName string
	MaxTokens int
	Writer    io.Writer
}

// ModelParams prints the parameters a generation request for the model would use.
func ModelParams(ctx context.Context, opts ModelParamsOptions) error {
	resolved, err := params.NewResolver(opts.Catalog).Resolve(opts.ModelName, params.Override{MaxTokens: opts.MaxTokens})
	if err != nil {
		return err
	}

	fmt.Fprintf(opts.Writer, "model: %s\n%s: %d\n", resolved.Model, resolved.TokenParam, resolved.TokenValue)
	if resolved.Temperature != nil {
		fmt.Fprintf(opts.Writer, "temperature: %g\n", *resolved.Temperature)
	}
	if resolved.ReasoningEffort != "" {
		fmt.Fprintf(opts.Writer, "reasoning_effort: %s\n", resolved.ReasoningEffort)
	}
	return nil
}

// ModelImportOptions contains parameters for importing a registry model
type ModelImportOptions struct {
	Catalog *modelcatalog.Catalog
	// Dir receives the descriptor file.
	Dir string
	// ModelSpec is <provider>/<model-id>.
	ModelSpec   string
	RegistryURL string
	Fetch       *urlhandler.Config
	Overwrite   bool
	Writer      io.Writer
}

// ModelImport adds a descriptor for a models.dev registry model.
func ModelImport(ctx context.Context, opts ModelImportOptions) error {
	providerID, modelID, ok := strings.Cut(opts.ModelSpec, "/")
	if !ok || providerID == "" || modelID == "" {
		return fmt.Errorf("invalid model spec %q, expected <provider>/<model-id>", opts.ModelSpec)
	}

	url := opts.RegistryURL
	if url == "" {
		url = modelcatalog.ModelsDevAPI
	}
	registry, err := modelcatalog.FetchRegistry(ctx, url, opts.Fetch)
	if err != nil {
		return fmt.Errorf("fetching models.dev registry: %w", err)
	}

	entry, err := modelcatalog.LookupRegistryModel(registry, providerID, modelID)
	if err != nil {
		return err
	}
	d, err := modelcatalog.DescriptorFromRegistry(entry)
	if err != nil {
		return err
	}

	path, err := opts.Catalog.WriteDescriptor(opts.Dir, d, opts.Overwrite)
	if err != nil {
		return err
	}
	fmt.Fprintf(opts.Writer, "Added model %q to %s\n", d.ID, path)
	return nil
}
