package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/spachava753/fieldgen/internal/config"
	"github.com/spachava753/fieldgen/internal/generate"
	"github.com/spachava753/fieldgen/internal/llm"
	"github.com/spachava753/fieldgen/internal/modelcatalog"
	"github.com/spachava753/fieldgen/internal/params"
	"github.com/spachava753/fieldgen/internal/version"
)

var (
	configPath string
	modelsDir  string
	verbose    bool

	logger = slog.New(slog.DiscardHandler)
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "fieldgen",
	Short: "Generate CMS field content with language models",
	Long: `fieldgen generates content for CMS entry fields through an OpenAI compatible
chat completions API. Models are described by descriptor files in a models
directory, which declare the parameters each model accepts.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load .env: %w", err)
		}

		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		versionFlag, _ := cmd.Flags().GetBool("version")
		if versionFlag {
			fmt.Fprintf(cmd.OutOrStdout(), "fieldgen version %s\n", version.Get())
			return nil
		}
		return cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to the settings file (default: ./fieldgen.yaml or the user config directory)")
	rootCmd.PersistentFlags().StringVar(&modelsDir, "models-dir", "", "Directory holding model descriptor files (overrides modelsDir in settings)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging on stderr")

	rootCmd.Flags().Bool("version", false, "Print the version number and exit")
}

// loadSettings reads the settings file and applies the --models-dir flag.
func loadSettings() (*config.Settings, error) {
	settings, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if modelsDir != "" {
		settings.ModelsDir = modelsDir
	}
	return settings, nil
}

// catalogDir returns the models directory. Commands that only read the
// catalog work without a settings file when --models-dir is given.
func catalogDir() (string, *config.Settings, error) {
	settings, err := loadSettings()
	if err == nil {
		return settings.ModelsDir, settings, nil
	}
	if modelsDir != "" && errors.Is(err, config.ErrConfigNotFound) {
		return modelsDir, nil, nil
	}
	if errors.Is(err, config.ErrConfigNotFound) {
		return config.DefaultModelsDir, nil, nil
	}
	return "", nil, err
}

func openCatalog() (*modelcatalog.Catalog, string, *config.Settings, error) {
	dir, settings, err := catalogDir()
	if err != nil {
		return nil, "", nil, err
	}
	dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, "", nil, err
	}
	logger.Debug("opening model catalog", slog.String("dir", dir))
	return modelcatalog.NewDir(dir, logger), dir, settings, nil
}

// newPipeline wires the catalog, resolver and OpenAI client for generation.
func newPipeline(settings *config.Settings) (*generate.Pipeline, error) {
	if settings.APIKey == "" {
		return nil, fmt.Errorf("no API key configured. Set apiKey in the settings file or %s", config.EnvAPIKey)
	}
	catalog := modelcatalog.NewDir(settings.ModelsDir, logger)
	if err := catalog.Load(); err != nil {
		return nil, err
	}
	client := llm.NewOpenAIClient(settings.APIKey, settings.BaseURL, logger)
	return generate.New(client, params.NewResolver(catalog), logger), nil
}
