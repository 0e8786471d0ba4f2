package mcp

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/jeffdev/prism-mcp/internal/rules"
)

// Server wraps the MCP server with its dependencies. The protocol state
// machine (handshake, framing, session lifecycle) belongs to the SDK; this
// layer declares capabilities and wires the tool registry.
type Server struct {
	server   *mcp.Server
	registry *Registry
}

// Config holds server dependencies.
type Config struct {
	Repository rules.Repository
	Embedder   QueryEmbedder
	Logger     *log.Logger
}

// NewServer creates a configured MCP server with the rule tools registered.
// The server declares only the tools capability: no prompts, no resource
// subscriptions.
func NewServer(cfg *Config) *Server {
	impl := &mcp.Implementation{
		Name:    "prism-rules-server",
		Version: "v0.1.0",
	}

	server := mcp.NewServer(impl, nil)

	registry := NewRegistry(cfg.Repository, cfg.Embedder, cfg.Logger)
	registry.Install(server)

	return &Server{
		server:   server,
		registry: registry,
	}
}

// Run serves the stdio transport, blocking until the client disconnects or
// ctx is cancelled. A closed stream is implicit cancellation: in-flight
// repository and embedding calls are abandoned through their contexts.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// Registry returns the tool registry, for direct dispatch in tests.
func (s *Server) Registry() *Registry {
	return s.registry
}

// MCPServer returns the underlying SDK server for transport wrappers.
func (s *Server) MCPServer() *mcp.Server {
	return s.server
}
