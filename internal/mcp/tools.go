// ABOUTME: MCP tool definitions and registration for the docdesk server
// ABOUTME: Defines JSON schemas for the ask/ingest/search/forget tools
package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/docdesk/docdesk/internal/chunker"
	"github.com/docdesk/docdesk/internal/session"
)

// RegisterTools registers all MCP tools with the server
func RegisterTools(server *mcpserver.MCPServer, engine Engine, index Index, sessions *session.Store, splitter *chunker.Splitter, log *zap.Logger) *Handlers {
	if log == nil {
		log = zap.NewNop()
	}
	handlers := &Handlers{
		engine:   engine,
		index:    index,
		sessions: sessions,
		splitter: splitter,
		log:      log,
	}

	// 1. ask_documents - Answer a question grounded in the indexed documents
	server.AddTool(mcp.Tool{
		Name:        "ask_documents",
		Description: "Answer a question using the indexed business documents. Returns the answer with source attributions and a confidence score.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"question": map[string]interface{}{
					"type":        "string",
					"description": "Question to answer from the document index",
				},
				"session_id": map[string]interface{}{
					"type":        "string",
					"description": "Optional session id to continue a conversation; omit to start fresh",
				},
			},
			Required: []string{"question"},
		},
	}, handlers.AskDocuments)

	// 2. ingest_text - Chunk and index plain text under a source name
	server.AddTool(mcp.Tool{
		Name:        "ingest_text",
		Description: "Chunk a plain-text document and add it to the semantic index under the given source name.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"source": map[string]interface{}{
					"type":        "string",
					"description": "Source name to index the text under (e.g. a filename)",
				},
				"text": map[string]interface{}{
					"type":        "string",
					"description": "Document text to chunk and index",
				},
				"type": map[string]interface{}{
					"type":        "string",
					"description": "Optional document type label (default: text)",
				},
			},
			Required: []string{"source", "text"},
		},
	}, handlers.IngestText)

	// 3. search_documents - Raw similarity search without generation
	server.AddTool(mcp.Tool{
		Name:        "search_documents",
		Description: "Search the document index by semantic similarity. Returns raw chunks with relevance scores, no answer generation.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Search query",
				},
				"max_results": map[string]interface{}{
					"type":        "number",
					"description": "Maximum number of results to return (default: 5)",
					"default":     5,
				},
				"source": map[string]interface{}{
					"type":        "string",
					"description": "Optional source name to restrict the search to",
				},
			},
			Required: []string{"query"},
		},
	}, handlers.SearchDocuments)

	// 4. forget_source - Remove every chunk of a source from the index
	server.AddTool(mcp.Tool{
		Name:        "forget_source",
		Description: "Delete every indexed chunk belonging to a source document.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"source": map[string]interface{}{
					"type":        "string",
					"description": "Source name whose chunks should be removed",
				},
			},
			Required: []string{"source"},
		},
	}, handlers.ForgetSource)

	// 5. index_stats - Index size and configuration
	server.AddTool(mcp.Tool{
		Name:        "index_stats",
		Description: "Get document index statistics: chunk count, collection name, and embedding model.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, handlers.IndexStats)

	return handlers
}
