package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/jeffdev/prism-mcp/internal/config"
	"github.com/jeffdev/prism-mcp/internal/embedding"
	mcpserver "github.com/jeffdev/prism-mcp/internal/mcp"
	"github.com/jeffdev/prism-mcp/internal/rules"
)

var (
	serveStore    string
	serveSnapshot string
	serveHTTP     string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP rule server",
	Long: `Runs the MCP server over stdio, or over HTTP with --http.

The rule corpus is read from Qdrant (--store qdrant) or from the local
snapshot written by prism sync (--store snapshot, the default). Semantic
search needs OPENAI_API_KEY; without it the server still serves rule
listing and content, and search_rules reports itself unavailable.

Environment variables:
  QDRANT_HOST    Qdrant hostname (default: localhost)
  QDRANT_PORT    Qdrant gRPC port (default: 6334)
  OPENAI_API_KEY OpenAI API key for query embeddings (optional)
  PRISM_EMBED_TIMEOUT  Per-call embedding timeout in seconds (default 10)
  PRISM_REPO_TIMEOUT   Per-call repository timeout in seconds (default 5)
  PRISM_DEBUG    Enable debug logging`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveStore, "store", "snapshot", "rule backend: snapshot or qdrant")
	serveCmd.Flags().StringVar(&serveSnapshot, "snapshot", "", "snapshot path (default ~/.prism/rules/rules.json)")
	serveCmd.Flags().StringVar(&serveHTTP, "http", "", "serve MCP over HTTP on this address instead of stdio")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	repo, checker, cleanup, err := openRepository(ctx, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	var queryEmbedder mcpserver.QueryEmbedder
	embeddingClient, err := embedding.NewClient()
	if err != nil {
		logger.Warn("semantic search disabled", "reason", err)
	} else {
		queryEmbedder = embedding.NewEmbedder(embeddingClient, 0)
	}

	server := mcpserver.NewServer(&mcpserver.Config{
		Repository: repo,
		Embedder:   queryEmbedder,
		Logger:     logger,
	})

	if secs := getEnvInt("PRISM_EMBED_TIMEOUT", 0); secs > 0 {
		server.Registry().EmbedTimeout = time.Duration(secs) * time.Second
	}
	if secs := getEnvInt("PRISM_REPO_TIMEOUT", 0); secs > 0 {
		server.Registry().RepositoryTimeout = time.Duration(secs) * time.Second
	}

	if serveHTTP != "" {
		router := mcpserver.NewRouter(server, checker)
		logger.Info("serving MCP over HTTP", "addr", serveHTTP)
		srv := &http.Server{Addr: serveHTTP, Handler: router}
		go func() {
			<-ctx.Done()
			srv.Close()
		}()
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	}

	logger.Info("serving MCP over stdio", "store", serveStore)
	return server.Run(ctx)
}

// openRepository builds the rule backend selected by --store. The cleanup
// func closes whatever the backend holds open.
func openRepository(ctx context.Context, logger *log.Logger) (rules.Repository, mcpserver.HealthChecker, func(), error) {
	switch serveStore {
	case "qdrant":
		host := getEnv("QDRANT_HOST", "localhost")
		port := getEnvInt("QDRANT_PORT", 6334)
		store, err := rules.NewQdrantStore(host, port)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("connect to qdrant: %w", err)
		}
		if err := store.EnsureCollection(ctx); err != nil {
			store.Close()
			return nil, nil, nil, fmt.Errorf("ensure collection: %w", err)
		}
		return store, store, func() { store.Close() }, nil

	case "snapshot":
		path := serveSnapshot
		if path == "" {
			var err error
			path, err = config.SnapshotPath()
			if err != nil {
				return nil, nil, nil, err
			}
		}
		repo, err := rules.LoadSnapshot(path)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("load snapshot %s (run prism sync first): %w", path, err)
		}
		logger.Info("loaded snapshot", "path", path, "rules", repo.RuleCount(), "synced_at", repo.SyncedAt())
		return repo, repo, func() {}, nil

	default:
		return nil, nil, nil, fmt.Errorf("unknown store %q (want snapshot or qdrant)", serveStore)
	}
}
