package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/spachava753/fieldgen/internal/commands"
	"github.com/spachava753/fieldgen/internal/formatter"
	"github.com/spachava753/fieldgen/internal/params"
	"github.com/spachava753/fieldgen/internal/prompt"
	"github.com/spachava753/fieldgen/internal/urlhandler"
	"github.com/spachava753/fieldgen/internal/version"
)

var (
	genModel     string
	genMaxTokens int
	genEntryType string
	genSection   string
	genField     string
	genFieldType string
	genFormat    string
	genTitle     string
	genExisting  string
)

var generateCmd = &cobra.Command{
	Use:     "generate [prompt]",
	Aliases: []string{"gen"},
	Short:   "Generate content for a field",
	Long: `Generate content for a CMS field. The prompt is taken from the argument,
from stdin, or both (stdin first). The content is written to stdout in the
format of the field type.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		userPrompt, err := commands.ReadPrompt(commands.ReadPromptOptions{Args: args, Stdin: cmd.InOrStdin()})
		if err != nil {
			return err
		}

		settings, err := loadSettings()
		if err != nil {
			return err
		}
		if genMaxTokens > 0 {
			settings.MaxTokens = genMaxTokens
		}

		var existing string
		if genExisting != "" {
			fetch := urlhandler.DefaultConfig()
			fetch.UserAgent = version.UserAgent()
			existing, err = urlhandler.ReadText(cmd.Context(), genExisting, fetch)
			if err != nil {
				return fmt.Errorf("reading existing content: %w", err)
			}
		}

		pipeline, err := newPipeline(settings)
		if err != nil {
			return err
		}

		err = commands.Generate(cmd.Context(), commands.GenerateOptions{
			Prompt:    userPrompt,
			ModelID:   genModel,
			FieldType: genFieldType,
			Context: prompt.Context{
				EntryTypeHandle: genEntryType,
				SectionHandle:   genSection,
				FieldHandle:     genField,
				Format:          formatter.Format(genFormat),
				ExistingContent: existing,
				EntryTitle:      genTitle,
			},
			Settings:  *settings,
			Generator: pipeline,
			Stdout:    cmd.OutOrStdout(),
		})
		var notFound *params.ModelNotFoundError
		if errors.As(err, &notFound) {
			return fmt.Errorf("%w. %s", err, modelsUsage(notFound.ID))
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)

	f := generateCmd.Flags()
	f.StringVarP(&genModel, "model", "m", "", "Model id from the catalog (default: model from settings)")
	f.IntVar(&genMaxTokens, "max-tokens", 0, "Token limit for this request (overrides maxTokens in settings)")
	addFieldContextFlags(f)
	f.StringVar(&genExisting, "existing", "", "File path or URL with the field's current content")
}

// addFieldContextFlags registers the flags describing the target field.
func addFieldContextFlags(f *pflag.FlagSet) {
	f.StringVar(&genEntryType, "entry-type", "", "Handle of the entry type being edited")
	f.StringVar(&genSection, "section", "", "Handle of the section the entry belongs to")
	f.StringVar(&genField, "field", "", "Handle of the target field")
	f.StringVar(&genFieldType, "field-type", "", "Field type, e.g. plain_text, rich_text or markdown (selects the output format)")
	f.StringVar(&genFormat, "format", "", "Output format when no field type is given: plain, html or markdown")
	f.StringVar(&genTitle, "title", "", "Title of the entry being edited")
}
