package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/gleaner/internal/cli"
)

var rootCmd = &cobra.Command{
	Use:   "gleaner",
	Short: "Gleaner runs deterministic data extraction pipelines",
	Long:  `Gleaner executes extraction pipelines declared in YAML: fetch a page, parse it, extract structured fields with a language model, and validate the result.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringP("file", "f", "pipeline.yaml", "Pipeline definition file")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().String("model", "", "Chat model for extract steps (e.g. gpt-4o-mini)")
	rootCmd.PersistentFlags().String("api-key", "", "API key for the model endpoint (defaults to OPENAI_API_KEY)")
	rootCmd.PersistentFlags().String("base-url", "", "OpenAI-compatible API base URL")
	rootCmd.PersistentFlags().Float64("rps", 0, "Rate limit for model calls, requests per second (0 = unlimited)")
	rootCmd.PersistentFlags().Int("max-steps", 0, "Abort a run after this many step executions (0 = unlimited)")
}

// optionsFromFlags collects the shared engine configuration.
func optionsFromFlags(cmd *cobra.Command) cli.Options {
	file, _ := cmd.Flags().GetString("file")
	verbose, _ := cmd.Flags().GetBool("verbose")
	model, _ := cmd.Flags().GetString("model")
	apiKey, _ := cmd.Flags().GetString("api-key")
	baseURL, _ := cmd.Flags().GetString("base-url")
	rps, _ := cmd.Flags().GetFloat64("rps")
	maxSteps, _ := cmd.Flags().GetInt("max-steps")
	return cli.Options{
		PipelinePath: file,
		Verbose:      verbose,
		Model:        model,
		APIKey:       apiKey,
		BaseURL:      baseURL,
		RPS:          rps,
		MaxSteps:     maxSteps,
	}
}
