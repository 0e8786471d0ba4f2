package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeffdev/prism-mcp/internal/embedding"
	ghclient "github.com/jeffdev/prism-mcp/internal/github"
	"github.com/jeffdev/prism-mcp/internal/ingest"
	"github.com/jeffdev/prism-mcp/internal/markdown"
	"github.com/jeffdev/prism-mcp/internal/rules"
)

var (
	indexRepo  string
	indexPath  string
	indexClear bool
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Rebuild the Qdrant rule index from the rules repository",
	Long: `Fetches rule and transcript markdown from the rules repository on
GitHub, generates embeddings, and upserts everything into Qdrant.

This command:
1. Connects to Qdrant and verifies health
2. Optionally clears the existing collection (--clear)
3. Fetches all rule markdown from GitHub
4. Generates embeddings for rules and transcript segments
5. Stores documents and chunks in Qdrant

Environment variables:
  QDRANT_HOST    Qdrant hostname (default: localhost)
  QDRANT_PORT    Qdrant gRPC port (default: 6334)
  OPENAI_API_KEY OpenAI API key for embeddings (required)
  GITHUB_TOKEN   GitHub token for higher rate limits (optional)`,
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().StringVar(&indexRepo, "repo", "", "GitHub repository as owner/name (required)")
	indexCmd.Flags().StringVar(&indexPath, "path", "rules", "path to the rules directory within the repository")
	indexCmd.Flags().BoolVar(&indexClear, "clear", false, "clear the collection before indexing")
	indexCmd.MarkFlagRequired("repo")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	ctx := context.Background()
	start := time.Now()

	owner, repoName, ok := strings.Cut(indexRepo, "/")
	if !ok || owner == "" || repoName == "" {
		return fmt.Errorf("invalid --repo %q, want owner/name", indexRepo)
	}

	qdrantHost := getEnv("QDRANT_HOST", "localhost")
	qdrantPort := getEnvInt("QDRANT_PORT", 6334)

	// 1. Connect to Qdrant
	fmt.Printf("Connecting to Qdrant at %s:%d...\n", qdrantHost, qdrantPort)
	store, err := rules.NewQdrantStore(qdrantHost, qdrantPort)
	if err != nil {
		return fmt.Errorf("connect to Qdrant: %w", err)
	}
	defer store.Close()

	// 2. Check health
	if err := store.Health(ctx); err != nil {
		return fmt.Errorf("Qdrant health check failed: %w", err)
	}
	fmt.Println("Qdrant healthy")

	// 3. Ensure collection exists
	if err := store.EnsureCollection(ctx); err != nil {
		return fmt.Errorf("ensure collection: %w", err)
	}

	// 4. Initialize embedding client
	embeddingClient, err := embedding.NewClient()
	if err != nil {
		return fmt.Errorf("create embedding client: %w", err)
	}
	embedder := embedding.NewEmbedder(embeddingClient, 0) // Use default batch size

	// 5. Initialize GitHub source
	gh, err := ghclient.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("create GitHub client: %w", err)
	}
	source := ghclient.NewRuleSource(gh, owner, repoName, indexPath)

	// 6. Optionally clear the existing collection
	if indexClear {
		fmt.Println()
		fmt.Println("Clearing existing collection...")
		if err := store.ClearCollection(ctx); err != nil {
			return fmt.Errorf("clear collection: %w", err)
		}
		fmt.Println("Collection cleared")
	}

	// 7. Run the pipeline
	fmt.Println()
	fmt.Printf("Indexing rules from %s/%s/%s...\n", owner, repoName, indexPath)
	pipeline := ingest.NewPipeline(source, markdown.NewSplitter(), embedder, store, logger)

	result, err := pipeline.Run(ctx)
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}

	// 8. Print results
	fmt.Println()
	fmt.Println("Index complete!")
	fmt.Printf("  Rules: %d/%d files\n", result.Rules, result.TotalFiles)
	fmt.Printf("  Transcript chunks: %d\n", result.TranscriptChunks)
	fmt.Printf("  Duration: %s\n", result.Duration.Round(time.Second))
	fmt.Printf("  Commit: %s\n", result.CommitSHA)

	if len(result.Failed) > 0 {
		fmt.Println()
		fmt.Println("Failed files:")
		for _, failed := range result.Failed {
			fmt.Printf("  - %s: %s\n", failed.Path, failed.Reason)
		}
	}

	fmt.Println()
	fmt.Printf("Total time: %s\n", time.Since(start).Round(time.Second))
	return nil
}
