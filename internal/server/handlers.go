// ABOUTME: HTTP handlers for chat, session, and document management
// ABOUTME: Maps pipeline error kinds onto HTTP status codes
package server

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/docdesk/docdesk/internal/index"
	"github.com/docdesk/docdesk/internal/llm"
	"github.com/docdesk/docdesk/internal/models"
	"github.com/docdesk/docdesk/internal/rag"
	"github.com/docdesk/docdesk/internal/session"
)

type chatRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
}

type chatResponse struct {
	Answer         string       `json:"answer"`
	SessionID      string       `json:"session_id"`
	Sources        []rag.Source `json:"sources"`
	Confidence     float64      `json:"confidence"`
	ResponseTime   float64      `json:"response_time"`
	RetrievedCount int          `json:"retrieved_count"`
	Model          string       `json:"model"`
}

type segmentRequest struct {
	Text  string         `json:"text"`
	Attrs map[string]any `json:"attrs"`
}

type ingestRequest struct {
	Filename string           `json:"filename"`
	Type     string           `json:"type"`
	Segments []segmentRequest `json:"segments"`
}

// handleChat runs one full conversational turn: resolve the session,
// read history, query, then record both turns. An unknown or absent
// session id starts a fresh session rather than failing.
func (s *Server) handleChat(c *fiber.Ctx) error {
	var req chatRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Question == "" {
		return fiber.NewError(fiber.StatusBadRequest, "question is required")
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = s.sessions.Create(req.UserID)
	} else if _, ok := s.sessions.Get(sessionID); !ok {
		sessionID = s.sessions.Create(req.UserID)
	}

	// History is read before the user turn is appended so the prompt
	// does not repeat the current question.
	history := s.sessions.FormattedHistory(sessionID, s.cfg.MaxHistoryTurns*2)
	s.sessions.Append(sessionID, models.RoleUser, req.Question, nil)

	result, err := s.engine.Query(c.Context(), req.Question, rag.QueryOptions{History: history})
	if err != nil {
		s.log.Error("chat query failed", zap.String("session_id", sessionID), zap.Error(err))
		return queryError(err)
	}

	s.sessions.Append(sessionID, models.RoleAssistant, result.Answer, map[string]any{
		"sources":     result.Sources,
		"tokens_used": result.Usage.InputTokens + result.Usage.OutputTokens,
	})

	return c.JSON(chatResponse{
		Answer:         result.Answer,
		SessionID:      sessionID,
		Sources:        result.Sources,
		Confidence:     result.Confidence,
		ResponseTime:   result.ResponseTime,
		RetrievedCount: result.RetrievedCount,
		Model:          result.Model,
	})
}

func (s *Server) handleHistory(c *fiber.Ctx) error {
	sessionID := c.Params("session_id")
	limit, _ := strconv.Atoi(c.Query("limit", "0"))

	messages := s.sessions.History(sessionID, limit)
	if messages == nil {
		messages = []models.Message{}
	}
	return c.JSON(fiber.Map{
		"session_id": sessionID,
		"messages":   messages,
		"count":      len(messages),
	})
}

func (s *Server) handleClearHistory(c *fiber.Ctx) error {
	sessionID := c.Params("session_id")
	s.sessions.Clear(sessionID)
	return c.JSON(fiber.Map{"session_id": sessionID, "status": "cleared"})
}

func (s *Server) handleEndSession(c *fiber.Ctx) error {
	sessionID := c.Params("session_id")
	if err := s.sessions.End(sessionID); err != nil {
		return sessionError(err)
	}
	return c.JSON(fiber.Map{"session_id": sessionID, "status": "ended"})
}

func (s *Server) handleSessions(c *fiber.Ctx) error {
	ids := s.sessions.ActiveSessionIDs()
	if ids == nil {
		ids = []string{}
	}
	return c.JSON(fiber.Map{"active_sessions": ids, "count": len(ids)})
}

func (s *Server) handleSessionStats(c *fiber.Ctx) error {
	stats, err := s.sessions.Stats(c.Params("id"))
	if err != nil {
		return sessionError(err)
	}
	return c.JSON(stats)
}

func (s *Server) handleIngest(c *fiber.Ctx) error {
	var req ingestRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Filename == "" {
		return fiber.NewError(fiber.StatusBadRequest, "filename is required")
	}
	if len(req.Segments) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "at least one segment is required")
	}

	segments := make([]models.Segment, len(req.Segments))
	for i, seg := range req.Segments {
		segments[i] = models.Segment{Text: seg.Text, Attrs: seg.Attrs}
	}

	chunks := s.splitter.ChunkSegments(segments, req.Filename, req.Type)
	ids, err := s.index.Insert(c.Context(), chunks)
	if err != nil {
		s.log.Error("document ingest failed", zap.String("source", req.Filename), zap.Error(err))
		return queryError(err)
	}

	s.log.Info("indexed document",
		zap.String("source", req.Filename),
		zap.Int("chunks", len(ids)))
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"source":         req.Filename,
		"chunks_indexed": len(ids),
	})
}

func (s *Server) handleDeleteSource(c *fiber.Ctx) error {
	source := c.Params("source")
	deleted, err := s.index.DeleteBySource(c.Context(), source)
	if err != nil {
		return queryError(err)
	}
	return c.JSON(fiber.Map{"source": source, "chunks_deleted": deleted})
}

func (s *Server) handleStats(c *fiber.Ctx) error {
	stats, err := s.index.Stats(c.Context())
	if err != nil {
		return queryError(err)
	}
	return c.JSON(fiber.Map{
		"index":           stats,
		"active_sessions": len(s.sessions.ActiveSessionIDs()),
	})
}

// queryError maps pipeline error kinds to status codes. Timeouts are
// gateway timeouts, backend outages are service-unavailable, everything
// else is a bad gateway to the answer service.
func queryError(err error) error {
	switch {
	case errors.Is(err, llm.ErrGenerationTimeout):
		return fiber.NewError(fiber.StatusGatewayTimeout, err.Error())
	case errors.Is(err, index.ErrUnavailable):
		return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
	case errors.Is(err, llm.ErrGeneration), errors.Is(err, index.ErrEmbedding):
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}

func sessionError(err error) error {
	if errors.Is(err, session.ErrExpired) {
		return fiber.NewError(fiber.StatusGone, err.Error())
	}
	return fiber.NewError(fiber.StatusNotFound, err.Error())
}
