package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/gleaner/internal/cli"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check a pipeline definition for consistency",
	Long:  `Compiles the pipeline without running it and reports unknown step kinds, dangling edges, and missing entry points.`,
	Run: func(cmd *cobra.Command, args []string) {
		opts := optionsFromFlags(cmd)
		if len(args) > 0 {
			opts.PipelinePath = args[0]
		}
		opts.StubModel = true
		if _, err := cli.Build(opts); err != nil {
			fmt.Printf("Validation failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Pipeline is valid! ✅")
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
