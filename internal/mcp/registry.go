package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/jeffdev/prism-mcp/internal/rules"
)

// Default handler-boundary timeouts. The underlying clients enforce
// nothing tighter, so these are the only bounds on a stuck call.
const (
	DefaultEmbedTimeout      = 10 * time.Second
	DefaultRepositoryTimeout = 5 * time.Second
)

// QueryEmbedder turns a search query into an embedding vector.
// *embedding.Embedder satisfies it; tests substitute doubles.
type QueryEmbedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Registry declares the fixed tool set and dispatches calls to handlers.
//
// Every call funnels through Dispatch: errors from the repository or the
// embedder never escape as protocol faults, they become isError tool
// results. The registry holds no mutable state, so one instance serves any
// number of concurrent sessions.
type Registry struct {
	repo     rules.Repository
	embedder QueryEmbedder
	logger   *log.Logger

	// EmbedTimeout and RepositoryTimeout bound single handler calls.
	EmbedTimeout      time.Duration
	RepositoryTimeout time.Duration
}

// NewRegistry creates a registry over the given repository and embedder.
// embedder may be nil (offline serve without an API key); search_rules then
// reports a configuration error per call while the other tools keep working.
func NewRegistry(repo rules.Repository, embedder QueryEmbedder, logger *log.Logger) *Registry {
	if logger == nil {
		logger = log.Default()
	}
	return &Registry{
		repo:              repo,
		embedder:          embedder,
		logger:            logger,
		EmbedTimeout:      DefaultEmbedTimeout,
		RepositoryTimeout: DefaultRepositoryTimeout,
	}
}

// toolDef pairs a tool declaration with nothing else; handlers are resolved
// by name in Dispatch so the set stays closed.
type toolDef struct {
	tool *mcp.Tool
}

func (r *Registry) defs() []toolDef {
	return []toolDef{
		{tool: &mcp.Tool{
			Name:        ToolGetRules,
			Description: "List available architectural rules as {slug, category} pairs, optionally filtered by category.",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"category": {
						Type:        "string",
						Description: "Optional category filter (e.g. design-system, security, tech-stack)",
					},
				},
			},
		}},
		{tool: &mcp.Tool{
			Name:        ToolGetRuleContent,
			Description: "Return the full content of a rule by its exact slug.",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"slug": {
						Type:        "string",
						Description: "The rule slug to fetch",
					},
				},
				Required: []string{"slug"},
			},
		}},
		{tool: &mcp.Tool{
			Name:        ToolSearchRules,
			Description: "Semantic search over rules and video transcripts. Returns the top matches with similarity scores and snippets.",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"query": {
						Type:        "string",
						Description: "Free-text search query",
					},
					"k": {
						Type:        "integer",
						Description: "Maximum number of matches to return (default 5)",
					},
				},
				Required: []string{"query"},
			},
		}},
	}
}

// Install registers every tool on the MCP server, all routed through
// Dispatch.
func (r *Registry) Install(server *mcp.Server) {
	for _, def := range r.defs() {
		name := def.tool.Name
		server.AddTool(def.tool, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return r.Dispatch(ctx, name, req.Params.Arguments), nil
		})
	}
}

// Dispatch routes a tool call by name. Unknown names and handler failures
// come back as isError results; Dispatch itself never returns an error and
// never panics out.
func (r *Registry) Dispatch(ctx context.Context, name string, args json.RawMessage) (result *mcp.CallToolResult) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("tool handler panicked", "tool", name, "panic", rec)
			result = errorResult("Internal error in tool %s", name)
		}
	}()

	switch name {
	case ToolGetRules:
		var input GetRulesInput
		if res := unmarshalArgs(name, args, &input); res != nil {
			return res
		}
		return r.handleGetRules(ctx, input)
	case ToolGetRuleContent:
		var input GetRuleContentInput
		if res := unmarshalArgs(name, args, &input); res != nil {
			return res
		}
		return r.handleGetRuleContent(ctx, input)
	case ToolSearchRules:
		var input SearchRulesInput
		if res := unmarshalArgs(name, args, &input); res != nil {
			return res
		}
		return r.handleSearchRules(ctx, input)
	default:
		return errorResult("Unknown tool: %s", name)
	}
}

func unmarshalArgs(name string, args json.RawMessage, v any) *mcp.CallToolResult {
	if len(args) == 0 {
		return nil
	}
	if err := json.Unmarshal(args, v); err != nil {
		return errorResult("Invalid arguments for tool %s: %v", name, err)
	}
	return nil
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func errorResult(format string, args ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf(format, args...)}},
	}
}
