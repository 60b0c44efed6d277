package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/spachava753/fieldgen/internal/config"
)

// envCmd represents the env command
var envCmd = &cobra.Command{
	Use:   "env",
	Short: "Print environment variables",
	Long:  `Print all environment variables read by fieldgen. Values from a .env file in the working directory are included.`,
	Run: func(cmd *cobra.Command, args []string) {
		printEnvironmentVariables(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(envCmd)
}

func maskSensitive(value string) string {
	if len(value) <= 8 {
		return "********"
	}
	return value[:4] + "..." + value[len(value)-4:]
}

func printEnvironmentVariables(w io.Writer) {
	fmt.Fprintln(w, "fieldgen Environment Variables:")
	fmt.Fprintln(w, "===============================")

	printVar := func(name, description string, sensitive bool) {
		value := os.Getenv(name)
		displayValue := value
		switch {
		case value == "":
			displayValue = "(not set)"
		case sensitive:
			displayValue = maskSensitive(value)
		}
		fmt.Fprintf(w, "  %-20s - %s\n    Value: %s\n\n", name, description, displayValue)
	}

	fmt.Fprintln(w, "\nAPI:")
	printVar(config.EnvAPIKey, "API key for the chat completions endpoint (overrides apiKey)", true)
	printVar(config.EnvBaseURL, "Base URL of an OpenAI compatible endpoint (overrides baseUrl)", false)

	fmt.Fprintln(w, "\nModel Selection:")
	printVar(config.EnvModel, "Default model id (overrides model, overridden by --model)", false)
}
