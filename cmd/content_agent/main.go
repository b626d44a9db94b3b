package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "content_agent",
	Short: "Asynchronous campaign content generation engine",
	Long: `content_agent generates campaign content with a multi-agent LLM pipeline.

The serve command exposes the task API. The generate, extract and token
commands are local tools for running one generation, inspecting field
extraction and minting API tokens.`,
}

func main() {
	// Load .env file if present; real environment variables take precedence
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
