package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spachava753/fieldgen/internal/commands"
	"github.com/spachava753/fieldgen/internal/modelcatalog"
	"github.com/spachava753/fieldgen/internal/urlhandler"
	"github.com/spachava753/fieldgen/internal/version"
)

var modelsCmd = &cobra.Command{
	Use:     "models",
	Aliases: []string{"model"},
	Short:   "Manage model descriptors",
	Long:    `List, inspect, validate and import the model descriptors in the models directory.`,
}

var listModelsCmd = &cobra.Command{
	Use:     "list",
	Short:   "List models in the catalog",
	Aliases: []string{"ls"},
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, _, settings, err := openCatalog()
		if err != nil {
			return err
		}
		if err := catalog.Load(); err != nil {
			return err
		}
		visionOnly, _ := cmd.Flags().GetBool("vision")

		var defaultModel string
		if settings != nil {
			defaultModel = settings.Model
		}
		return commands.ModelList(cmd.Context(), commands.ModelListOptions{
			Catalog:      catalog,
			VisionOnly:   visionOnly,
			DefaultModel: defaultModel,
			Writer:       cmd.OutOrStdout(),
		})
	},
}

var infoModelCmd = &cobra.Command{
	Use:   "info <model-id>",
	Short: "Show detailed information about a model",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, _, _, err := openCatalog()
		if err != nil {
			return err
		}
		if err := catalog.Load(); err != nil {
			return err
		}
		return commands.ModelInfo(cmd.Context(), commands.ModelInfoOptions{
			Catalog:   catalog,
			ModelName: args[0],
			Writer:    cmd.OutOrStdout(),
		})
	},
}

var validateModelsCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check every model descriptor for configuration errors",
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, _, _, err := openCatalog()
		if err != nil {
			return err
		}
		return commands.ModelValidate(cmd.Context(), commands.ModelValidateOptions{
			Catalog: catalog,
			Writer:  cmd.OutOrStdout(),
		})
	},
}

var paramsModelCmd = &cobra.Command{
	Use:   "params <model-id>",
	Short: "Show the request parameters generation would use for a model",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, _, _, err := openCatalog()
		if err != nil {
			return err
		}
		if err := catalog.Load(); err != nil {
			return err
		}
		maxTokens, _ := cmd.Flags().GetInt("max-tokens")
		return commands.ModelParams(cmd.Context(), commands.ModelParamsOptions{
			Catalog:   catalog,
			ModelName: args[0],
			MaxTokens: maxTokens,
			Writer:    cmd.OutOrStdout(),
		})
	},
}

var importModelCmd = &cobra.Command{
	Use:   "import <provider>/<model-id>",
	Short: "Create a descriptor from the models.dev registry",
	Long: `Fetch the models.dev registry and write a descriptor for the given model
into the models directory. The descriptor is a starting point and can be
edited afterwards.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, dir, _, err := openCatalog()
		if err != nil {
			return err
		}
		if outDir, _ := cmd.Flags().GetString("out-dir"); outDir != "" {
			dir = outDir
		}
		registryURL, _ := cmd.Flags().GetString("registry-url")
		force, _ := cmd.Flags().GetBool("force")

		fetch := urlhandler.DefaultConfig()
		fetch.UserAgent = version.UserAgent()
		return commands.ModelImport(cmd.Context(), commands.ModelImportOptions{
			Catalog:     catalog,
			Dir:         dir,
			ModelSpec:   args[0],
			RegistryURL: registryURL,
			Fetch:       fetch,
			Overwrite:   force,
			Writer:      cmd.OutOrStdout(),
		})
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
	modelsCmd.AddCommand(listModelsCmd, infoModelCmd, validateModelsCmd, paramsModelCmd, importModelCmd)

	listModelsCmd.Flags().Bool("vision", false, "Only list vision capable models shown in the dropdown")
	paramsModelCmd.Flags().Int("max-tokens", 0, "Requested token limit, clamped to the model's default")
	importModelCmd.Flags().String("out-dir", "", "Directory to write the descriptor to (default: the models directory)")
	importModelCmd.Flags().String("registry-url", modelcatalog.ModelsDevAPI, "Registry endpoint")
	importModelCmd.Flags().Bool("force", false, "Overwrite an existing descriptor")
	_ = importModelCmd.Flags().MarkHidden("registry-url")
}

// modelsUsage is shown when a generation names a model the catalog lacks.
func modelsUsage(id string) string {
	return fmt.Sprintf("run 'fieldgen models list' to see available models, or 'fieldgen models import <provider>/%s' to add it", id)
}
