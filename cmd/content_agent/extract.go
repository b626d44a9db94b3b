package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/content-engine/internal/extraction"
	"github.com/jonathan/content-engine/internal/observability"
	"github.com/jonathan/content-engine/internal/sanitize"
	"github.com/jonathan/content-engine/internal/validation"
)

var (
	extractInput    string
	extractPlatform string
	extractValidate bool
	extractPretty   bool
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract publishing fields from generated text",
	Long: `Run structured field extraction and body sanitization over a file of
generated text and print the result as JSON. Use --input - to read stdin.

With --validate the sanitized body is also checked against the platform rules.`,
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().StringVarP(&extractInput, "input", "i", "", "Path to generated text file, or - for stdin")
	extractCmd.Flags().StringVarP(&extractPlatform, "platform", "p", "blog", "Platform used for validation rules")
	extractCmd.Flags().BoolVar(&extractValidate, "validate", false, "Validate the sanitized body against platform rules")
	extractCmd.Flags().BoolVar(&extractPretty, "pretty", false, "Print a human-readable summary instead of JSON")

	if err := extractCmd.MarkFlagRequired("input"); err != nil {
		panic(err)
	}
	rootCmd.AddCommand(extractCmd)
}

// ExtractReport is the output of the extract command.
type ExtractReport struct {
	Fields     extraction.Fields  `json:"fields"`
	Body       string             `json:"body"`
	Validation *validation.Report `json:"validation,omitempty"`
}

func runExtract(cmd *cobra.Command, _ []string) error {
	text, err := readInput(cmd.InOrStdin(), extractInput)
	if err != nil {
		return err
	}

	report := buildExtractReport(text, extractPlatform, extractValidate)

	if extractPretty {
		printer := observability.NewPrinter(cmd.OutOrStdout())
		printer.PrintFields(report.Fields)
		printer.PrintValidation(report.Validation)
		return nil
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}

// buildExtractReport mirrors the worker: the cleaned body is preferred over
// the raw text and the result is always sanitized.
func buildExtractReport(text, platform string, validate bool) ExtractReport {
	fields := extraction.Extract(text)

	source := text
	if fields.CleanedBody != "" {
		source = fields.CleanedBody
	}
	report := ExtractReport{Fields: fields, Body: sanitize.Body(source)}

	if validate {
		rules := validation.RulesFor(platform, nil)
		report.Validation = validation.Validate(platform, fields.PostTitle, report.Body, rules)
	}
	return report
}

func readInput(stdin io.Reader, path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read input file %s: %w", path, err)
	}
	return string(data), nil
}
