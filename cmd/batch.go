package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/spachava753/fieldgen/internal/commands"
)

var batchCmd = &cobra.Command{
	Use:   "batch <jobs.yaml>",
	Short: "Run a file of generation jobs concurrently",
	Long: `Run every job in a YAML job file. Jobs run concurrently up to --concurrency
and the results are written as a YAML list in job order. A failing job does
not stop the others; the command exits non-zero when any job failed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		file, err := commands.LoadBatchFile(args[0])
		if err != nil {
			return err
		}
		settings, err := loadSettings()
		if err != nil {
			return err
		}
		pipeline, err := newPipeline(settings)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if path, _ := cmd.Flags().GetString("out"); path != "" {
			f, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("creating results file: %w", err)
			}
			defer f.Close()
			out = f
		}

		concurrency, _ := cmd.Flags().GetInt("concurrency")
		return commands.ExecuteBatch(cmd.Context(), commands.BatchOptions{
			Jobs:        file.Jobs,
			Settings:    *settings,
			Generator:   pipeline,
			Concurrency: concurrency,
			Writer:      out,
			Logger:      logger,
		})
	},
}

func init() {
	rootCmd.AddCommand(batchCmd)
	batchCmd.Flags().IntP("concurrency", "c", commands.DefaultBatchConcurrency, "Maximum number of concurrent generations")
	batchCmd.Flags().StringP("out", "o", "", "Write results to a file instead of stdout")
}
