package commands

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// ReadPromptOptions contains parameters for reading the user prompt
type ReadPromptOptions struct {
	// Args are command line arguments (prompt)
	Args []string
	// Stdin is the stdin reader (can be nil to skip stdin)
	Stdin io.Reader
}

// ReadPrompt combines piped stdin and the positional prompt argument. Stdin
// that is a terminal is ignored.
func ReadPrompt(opts ReadPromptOptions) (string, error) {
	var parts []string

	if opts.Stdin != nil {
		read := true
		if f, ok := opts.Stdin.(*os.File); ok {
			stat, err := f.Stat()
			if err != nil {
				return "", fmt.Errorf("failed to check stdin: %w", err)
			}
			read = stat.Mode()&os.ModeCharDevice == 0
		}
		if read {
			data, err := io.ReadAll(opts.Stdin)
			if err != nil {
				return "", fmt.Errorf("failed to read from stdin: %w", err)
			}
			if s := strings.TrimSpace(string(data)); s != "" {
				parts = append(parts, s)
			}
		}
	}

	if len(opts.Args) > 1 {
		return "", fmt.Errorf("too many arguments to process")
	}
	if len(opts.Args) == 1 && strings.TrimSpace(opts.Args[0]) != "" {
		parts = append(parts, opts.Args[0])
	}

	return strings.Join(parts, "\n\n"), nil
}
