package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/gleaner/internal/cli"
	"github.com/aretw0/gleaner/pkg/domain"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute a pipeline once and print the result",
	Long:  `Runs the pipeline from the definition file against an initial state built from --set flags, then prints the final state and trace as JSON.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runPipeline(cmd); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringArray("set", nil, "Initial state entry (key=value, repeatable)")
	runCmd.Flags().Bool("trace", true, "Include the step trace in the output")
}

func runPipeline(cmd *cobra.Command) error {
	opts := optionsFromFlags(cmd)
	rt, err := cli.Build(opts)
	if err != nil {
		return err
	}

	pairs, _ := cmd.Flags().GetStringArray("set")
	initial, err := cli.ParseInitialState(pairs)
	if err != nil {
		return err
	}

	result := rt.Engine.Run(cmd.Context(), domain.State(initial))

	withTrace, _ := cmd.Flags().GetBool("trace")
	if !withTrace {
		result = &domain.Result{FinalState: result.FinalState, Err: result.Err}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return err
	}

	if result.Failed() {
		return fmt.Errorf("run failed at step %q: %v", result.Err.StepID, result.Err.Cause)
	}
	return nil
}
