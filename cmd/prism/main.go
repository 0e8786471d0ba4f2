// Package main provides the prism CLI: the MCP rule server and its
// companion commands for syncing and indexing the rule corpus.
package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jeffdev/prism-mcp/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "prism",
	Short: "Architectural rule server for AI coding assistants",
	Long: `Prism serves architectural and design-system rules to AI coding
assistants over the Model Context Protocol.

The serve command runs the MCP server over stdio (or HTTP). The sync
command pulls a local rule snapshot from the Prism API for offline
serving. The index command rebuilds the live Qdrant index from the
rules repository on GitHub.`,
}

func main() {
	// Load .env file if present (local development), ignore if missing (production)
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger() *log.Logger {
	return logging.New("prism")
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		var i int
		if _, err := fmt.Sscanf(v, "%d", &i); err == nil {
			return i
		}
	}
	return defaultValue
}
