package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spachava753/fieldgen/internal/config"
	"github.com/spachava753/fieldgen/internal/formatter"
	"github.com/spachava753/fieldgen/internal/generate"
	"github.com/spachava753/fieldgen/internal/prompt"
)

// Generator produces field content. *generate.Pipeline implements it.
type Generator interface {
	Generate(ctx context.Context, req generate.Request) (string, error)
}

// FieldTypeDisabledError is returned for field types generation is not enabled for.
type FieldTypeDisabledError struct {
	FieldType string
}

func (e *FieldTypeDisabledError) Error() string {
	return fmt.Sprintf("generation is not enabled for field type %q", e.FieldType)
}

// ResolveFormat picks the output format of a generation. A field type, when
// given, is mapped through the settings and must be enabled; otherwise the
// explicit format is parsed, defaulting to plain.
func ResolveFormat(settings config.Settings, fieldType, format string) (formatter.Format, error) {
	if fieldType != "" {
		f, ok := settings.FormatFor(fieldType)
		if !ok {
			return "", &FieldTypeDisabledError{FieldType: fieldType}
		}
		return f, nil
	}
	return formatter.ParseFormat(format), nil
}

// GenerateOptions contains all parameters for the generate command
type GenerateOptions struct {
	// Prompt is the user instruction.
	Prompt    string
	ModelID   string
	FieldType string
	// Context carries the entry and field metadata. Its Format is used when
	// FieldType is empty.
	Context  prompt.Context
	Settings config.Settings

	Generator Generator

	// Stdout receives the generated content.
	// If nil, defaults to os.Stdout.
	Stdout io.Writer
}

// Generate runs one generation and writes the content to Stdout.
func Generate(ctx context.Context, opts GenerateOptions) error {
	if strings.TrimSpace(opts.Prompt) == "" {
		return errors.New("empty input")
	}
	if opts.Generator == nil {
		return errors.New("no generator configured")
	}
	stdout := opts.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}

	format, err := ResolveFormat(opts.Settings, opts.FieldType, string(opts.Context.Format))
	if err != nil {
		return err
	}
	genCtx := opts.Context
	genCtx.Format = format

	content, err := opts.Generator.Generate(ctx, generate.Request{
		Prompt:   opts.Prompt,
		ModelID:  opts.ModelID,
		Context:  genCtx,
		Settings: opts.Settings,
	})
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(stdout, content)
	return err
}
