package mcp

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/cors"
)

// HTTPOptions configures the HTTP transport.
type HTTPOptions struct {
	// Stateless disables session management. Fine for this server: tools
	// need no server-to-client requests.
	Stateless bool
}

// NewHTTPHandler wraps the server in the SDK's Streamable HTTP transport.
func NewHTTPHandler(server *Server, opts *HTTPOptions) http.Handler {
	if opts == nil {
		opts = &HTTPOptions{}
	}

	return mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
		return server.MCPServer()
	}, &mcp.StreamableHTTPOptions{
		Stateless: opts.Stateless,
	})
}

// NewRouter assembles the HTTP surface: the MCP endpoint at /mcp and the
// health check at /health, CORS-wrapped so browser-based MCP clients can
// connect.
func NewRouter(server *Server, checker HealthChecker) http.Handler {
	router := mux.NewRouter()
	router.Handle("/mcp", NewHTTPHandler(server, nil))
	router.HandleFunc("/health", NewHealthHandler(checker)).Methods(http.MethodGet)

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowedHeaders: []string{"*"},
	})
	return c.Handler(router)
}
