// ABOUTME: MCP tool handler implementations for the docdesk server
// ABOUTME: Handlers return tool errors in-band, never as transport failures
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/docdesk/docdesk/internal/chunker"
	"github.com/docdesk/docdesk/internal/models"
	"github.com/docdesk/docdesk/internal/rag"
	"github.com/docdesk/docdesk/internal/session"
)

// Engine runs one retrieval-augmented answer cycle. Implemented by
// *rag.Engine.
type Engine interface {
	Query(ctx context.Context, question string, opts rag.QueryOptions) (*rag.Result, error)
}

// Index is the document index surface the tools need. Implemented by
// *index.Index.
type Index interface {
	Insert(ctx context.Context, chunks []models.Chunk) ([]string, error)
	Search(ctx context.Context, query string, k int, filter map[string]any) ([]models.RetrievalHit, error)
	DeleteBySource(ctx context.Context, source string) (int, error)
	Stats(ctx context.Context) (models.IndexStats, error)
}

// Handlers contains the handler functions for all MCP tools
type Handlers struct {
	engine   Engine
	index    Index
	sessions *session.Store
	splitter *chunker.Splitter
	log      *zap.Logger
}

// AskDocuments handles the ask_documents tool
func (h *Handlers) AskDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := request.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError("question argument is required and must be a string"), nil
	}

	sessionID := request.GetString("session_id", "")
	if sessionID == "" {
		sessionID = h.sessions.Create("")
	} else if _, ok := h.sessions.Get(sessionID); !ok {
		sessionID = h.sessions.Create("")
	}

	history := h.sessions.FormattedHistory(sessionID, 0)
	h.sessions.Append(sessionID, models.RoleUser, question, nil)

	result, err := h.engine.Query(ctx, question, rag.QueryOptions{History: history})
	if err != nil {
		h.log.Error("ask_documents failed", zap.String("session_id", sessionID), zap.Error(err))
		return mcp.NewToolResultError(fmt.Sprintf("query failed: %v", err)), nil
	}

	h.sessions.Append(sessionID, models.RoleAssistant, result.Answer, map[string]any{
		"sources": result.Sources,
	})

	response := map[string]interface{}{
		"answer":          result.Answer,
		"session_id":      sessionID,
		"sources":         result.Sources,
		"confidence":      result.Confidence,
		"retrieved_count": result.RetrievedCount,
		"model":           result.Model,
	}
	return marshalResult(response)
}

// IngestText handles the ingest_text tool
func (h *Handlers) IngestText(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	source, err := request.RequireString("source")
	if err != nil {
		return mcp.NewToolResultError("source argument is required and must be a string"), nil
	}
	text, err := request.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError("text argument is required and must be a string"), nil
	}
	docType := request.GetString("type", "text")

	chunks := h.splitter.ChunkSegments([]models.Segment{{Text: text}}, source, docType)
	if len(chunks) == 0 {
		return mcp.NewToolResultError("text produced no indexable chunks"), nil
	}

	ids, err := h.index.Insert(ctx, chunks)
	if err != nil {
		h.log.Error("ingest_text failed", zap.String("source", source), zap.Error(err))
		return mcp.NewToolResultError(fmt.Sprintf("indexing failed: %v", err)), nil
	}

	h.log.Info("indexed document", zap.String("source", source), zap.Int("chunks", len(ids)))
	return marshalResult(map[string]interface{}{
		"source":         source,
		"chunks_indexed": len(ids),
	})
}

// SearchDocuments handles the search_documents tool
func (h *Handlers) SearchDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("query argument is required and must be a string"), nil
	}
	maxResults := request.GetInt("max_results", 5)

	var filter map[string]any
	if source := request.GetString("source", ""); source != "" {
		filter = map[string]any{models.MetaSource: source}
	}

	hits, err := h.index.Search(ctx, query, maxResults, filter)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	results := make([]map[string]interface{}, 0, len(hits))
	for _, hit := range hits {
		results = append(results, map[string]interface{}{
			"content":   hit.Content,
			"metadata":  hit.Metadata,
			"relevance": hit.Similarity(),
		})
	}
	return marshalResult(map[string]interface{}{"results": results})
}

// ForgetSource handles the forget_source tool
func (h *Handlers) ForgetSource(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	source, err := request.RequireString("source")
	if err != nil {
		return mcp.NewToolResultError("source argument is required and must be a string"), nil
	}

	deleted, err := h.index.DeleteBySource(ctx, source)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("delete failed: %v", err)), nil
	}

	h.log.Info("forgot source", zap.String("source", source), zap.Int("chunks", deleted))
	return marshalResult(map[string]interface{}{
		"source":         source,
		"chunks_deleted": deleted,
	})
}

// IndexStats handles the index_stats tool
func (h *Handlers) IndexStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := h.index.Stats(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("stats failed: %v", err)), nil
	}
	return marshalResult(map[string]interface{}{
		"count":           stats.Count,
		"collection":      stats.CollectionName,
		"embedding_model": stats.EmbeddingModel,
	})
}

func marshalResult(response map[string]interface{}) (*mcp.CallToolResult, error) {
	responseJSON, err := json.Marshal(response)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(responseJSON)), nil
}
