package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/content-engine/internal/generation"
	"github.com/jonathan/content-engine/internal/observability"
)

var (
	generateConfigPath    string
	generateRequestPath   string
	generatePlatform      string
	generateWeek          int
	generateDay           int
	generateParentIdea    string
	generateUseValidation bool
	generateVerbose       bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Run a single generation and print the result",
	Long: `Run one generation request synchronously, without the task API, and print
the generation result as JSON.

The request can be read from a JSON file with --request (- for stdin). Flags
override the matching request fields.`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVar(&generateConfigPath, "config", "", "Path to config.json file")
	generateCmd.Flags().StringVarP(&generateRequestPath, "request", "r", "", "Path to a generation request JSON file, or - for stdin")
	generateCmd.Flags().StringVarP(&generatePlatform, "platform", "p", "", "Target platform")
	generateCmd.Flags().IntVar(&generateWeek, "week", 0, "Campaign week")
	generateCmd.Flags().IntVar(&generateDay, "day", 0, "Day of the week (1-7)")
	generateCmd.Flags().StringVar(&generateParentIdea, "idea", "", "Parent idea for the content")
	generateCmd.Flags().BoolVar(&generateUseValidation, "validate", false, "Validate the output against platform rules")
	generateCmd.Flags().BoolVarP(&generateVerbose, "verbose", "v", false, "Print agent progress and a result summary to stderr")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	req, err := buildGenerateRequest(cmd)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(generateConfigPath)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.TaskDuration())
	defer cancel()

	c, err := buildComponents(ctx, cfg)
	if err != nil {
		return err
	}
	defer c.Close()

	verbose := generateVerbose || cfg.Verbose
	printer := observability.NewPrinter(cmd.ErrOrStderr())

	var progress generation.ProgressFunc
	if verbose {
		progress = printer.PrintAgentEvent
	}

	out, err := c.worker.Generate(ctx, req, progress)
	if verbose {
		printer.PrintOutput(out)
	}
	result := generation.NewResult(out, err)

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if encErr := enc.Encode(result); encErr != nil {
		return fmt.Errorf("failed to encode result: %w", encErr)
	}
	if err != nil {
		return fmt.Errorf("generation failed: %w", err)
	}
	return nil
}

// buildGenerateRequest reads the request file, if any, and applies flags.
func buildGenerateRequest(cmd *cobra.Command) (generation.Request, error) {
	var req generation.Request
	if generateRequestPath != "" {
		data, err := readInput(cmd.InOrStdin(), generateRequestPath)
		if err != nil {
			return req, err
		}
		if err := json.Unmarshal([]byte(data), &req); err != nil {
			return req, fmt.Errorf("failed to parse request JSON: %w", err)
		}
	}

	flags := cmd.Flags()
	if flags.Changed("platform") {
		req.Platform = generatePlatform
	}
	if flags.Changed("week") {
		req.Week = generateWeek
	}
	if flags.Changed("day") {
		req.Day = generateDay
	}
	if flags.Changed("idea") {
		req.ParentIdea = generateParentIdea
	}
	if flags.Changed("validate") {
		req.UseValidation = generateUseValidation
	}

	if req.Platform == "" {
		return req, fmt.Errorf("a platform is required (--platform or request file)")
	}
	if req.Week < 1 {
		return req, fmt.Errorf("week must be at least 1")
	}
	if req.Day < 1 || req.Day > 7 {
		return req, fmt.Errorf("day must be between 1 and 7")
	}
	return req, nil
}
