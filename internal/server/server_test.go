// ABOUTME: Tests for the HTTP API using Fiber's in-process test harness
// ABOUTME: Uses fake engine and index collaborators, no network or OpenAI
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/docdesk/docdesk/internal/chunker"
	"github.com/docdesk/docdesk/internal/config"
	"github.com/docdesk/docdesk/internal/llm"
	"github.com/docdesk/docdesk/internal/models"
	"github.com/docdesk/docdesk/internal/rag"
	"github.com/docdesk/docdesk/internal/session"
)

type fakeQuerier struct {
	mu          sync.Mutex
	lastHistory []models.ChatMessage
	result      *rag.Result
	err         error
}

func (f *fakeQuerier) Query(_ context.Context, question string, opts rag.QueryOptions) (*rag.Result, error) {
	f.mu.Lock()
	f.lastHistory = opts.History
	f.mu.Unlock()
	if f.err != nil {
		return nil, &rag.QueryError{Question: question, Err: f.err}
	}
	return f.result, nil
}

type fakeIndexer struct {
	mu       sync.Mutex
	inserted []models.Chunk
	deleted  map[string]int
	stats    models.IndexStats
}

func (f *fakeIndexer) Insert(_ context.Context, chunks []models.Chunk) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inserted = append(f.inserted, chunks...)
	ids := make([]string, len(chunks))
	for i := range ids {
		ids[i] = fmt.Sprintf("id-%d", i)
	}
	return ids, nil
}

func (f *fakeIndexer) DeleteBySource(_ context.Context, source string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.deleted[source], nil
}

func (f *fakeIndexer) Stats(_ context.Context) (models.IndexStats, error) {
	return f.stats, nil
}

func testConfig() *config.Config {
	return &config.Config{
		ChunkSize:           1000,
		ChunkOverlap:        200,
		TopKResults:         5,
		SimilarityThreshold: 0.7,
		MaxHistoryTurns:     10,
		SessionTimeout:      30 * time.Minute,
		HTTPPort:            "8000",
	}
}

func newTestServer(engine Querier, idx Indexer) (*Server, *session.Store) {
	cfg := testConfig()
	sessions := session.NewStore(cfg.MaxHistoryTurns, zap.NewNop())
	splitter := chunker.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap)
	return New(cfg, engine, idx, sessions, splitter, zap.NewNop()), sessions
}

func postJSON(t *testing.T, srv *Server, path string, body any) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := srv.App().Test(req, -1)
	if err != nil {
		t.Fatalf("request %s failed: %v", path, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	resp.Body.Close()
	if err := json.Unmarshal(data, out); err != nil {
		t.Fatalf("decode body %q: %v", data, err)
	}
}

func TestChat_CreatesSessionAndRecordsTurns(t *testing.T) {
	engine := &fakeQuerier{result: &rag.Result{
		Answer:         "refunds take 30 days",
		Sources:        []rag.Source{{Source: "policy.txt", Relevance: 0.9}},
		RetrievedCount: 3,
		Confidence:     0.85,
		Model:          "gpt-4o-mini",
	}}
	srv, sessions := newTestServer(engine, &fakeIndexer{})

	resp := postJSON(t, srv, "/api/chat", chatRequest{Question: "what is the refund policy?"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body chatResponse
	decodeBody(t, resp, &body)
	if body.Answer != "refunds take 30 days" {
		t.Errorf("answer = %q", body.Answer)
	}
	if body.SessionID == "" {
		t.Fatal("response missing session_id")
	}
	if body.Confidence != 0.85 || body.RetrievedCount != 3 {
		t.Errorf("confidence/retrieved = %v/%d, want 0.85/3", body.Confidence, body.RetrievedCount)
	}

	history := sessions.History(body.SessionID, 0)
	if len(history) != 2 {
		t.Fatalf("session has %d messages, want 2 (user + assistant)", len(history))
	}
	if history[0].Role != models.RoleUser || history[1].Role != models.RoleAssistant {
		t.Errorf("recorded roles = %q, %q", history[0].Role, history[1].Role)
	}
}

func TestChat_ReusesSessionAndPassesHistory(t *testing.T) {
	engine := &fakeQuerier{result: &rag.Result{Answer: "ok"}}
	srv, _ := newTestServer(engine, &fakeIndexer{})

	var first chatResponse
	decodeBody(t, postJSON(t, srv, "/api/chat", chatRequest{Question: "first"}), &first)

	var second chatResponse
	decodeBody(t, postJSON(t, srv, "/api/chat", chatRequest{
		Question:  "second",
		SessionID: first.SessionID,
	}), &second)

	if second.SessionID != first.SessionID {
		t.Errorf("session id changed: %q -> %q", first.SessionID, second.SessionID)
	}

	// The second call sees the first turn pair but not its own question.
	engine.mu.Lock()
	defer engine.mu.Unlock()
	if len(engine.lastHistory) != 2 {
		t.Fatalf("engine received %d history messages, want 2", len(engine.lastHistory))
	}
	if engine.lastHistory[0].Content != "first" {
		t.Errorf("history[0] = %q, want the first question", engine.lastHistory[0].Content)
	}
}

func TestChat_UnknownSessionIDStartsFresh(t *testing.T) {
	engine := &fakeQuerier{result: &rag.Result{Answer: "ok"}}
	srv, _ := newTestServer(engine, &fakeIndexer{})

	var body chatResponse
	decodeBody(t, postJSON(t, srv, "/api/chat", chatRequest{
		Question:  "hello",
		SessionID: "long-gone",
	}), &body)

	if body.SessionID == "" || body.SessionID == "long-gone" {
		t.Errorf("session_id = %q, want a fresh id", body.SessionID)
	}
}

func TestChat_MissingQuestion(t *testing.T) {
	srv, _ := newTestServer(&fakeQuerier{result: &rag.Result{}}, &fakeIndexer{})

	resp := postJSON(t, srv, "/api/chat", chatRequest{})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestChat_ErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"generation timeout", llm.ErrGenerationTimeout, http.StatusGatewayTimeout},
		{"generation failure", llm.ErrGeneration, http.StatusBadGateway},
		{"other failure", fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(&fakeQuerier{err: tt.err}, &fakeIndexer{})
			resp := postJSON(t, srv, "/api/chat", chatRequest{Question: "q"})
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}
}

func TestHistoryEndpoints(t *testing.T) {
	srv, sessions := newTestServer(&fakeQuerier{result: &rag.Result{}}, &fakeIndexer{})
	id := sessions.Create("")
	sessions.Append(id, models.RoleUser, "hi", nil)

	req := httptest.NewRequest(http.MethodGet, "/api/chat/history/"+id, nil)
	resp, err := srv.App().Test(req, -1)
	if err != nil {
		t.Fatalf("history request failed: %v", err)
	}
	var body struct {
		Count    int              `json:"count"`
		Messages []models.Message `json:"messages"`
	}
	decodeBody(t, resp, &body)
	if body.Count != 1 || body.Messages[0].Content != "hi" {
		t.Errorf("history = %+v, want one message %q", body, "hi")
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/chat/history/"+id, nil)
	if resp, err = srv.App().Test(req, -1); err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("clear failed: status=%d err=%v", resp.StatusCode, err)
	}
	if len(sessions.History(id, 0)) != 0 {
		t.Error("history not cleared")
	}
}

func TestEndSession(t *testing.T) {
	srv, sessions := newTestServer(&fakeQuerier{result: &rag.Result{}}, &fakeIndexer{})
	id := sessions.Create("")

	req := httptest.NewRequest(http.MethodPost, "/api/chat/end/"+id, nil)
	resp, err := srv.App().Test(req, -1)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("end failed: status=%d err=%v", resp.StatusCode, err)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/chat/end/unknown", nil)
	resp, err = srv.App().Test(req, -1)
	if err != nil {
		t.Fatalf("end request failed: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("end unknown session status = %d, want 404", resp.StatusCode)
	}
}

func TestSessionStats_JSONShape(t *testing.T) {
	srv, sessions := newTestServer(&fakeQuerier{result: &rag.Result{}}, &fakeIndexer{})
	id := sessions.Create("")
	sessions.Append(id, models.RoleUser, "hello", nil)

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/"+id+"/stats", nil)
	resp, err := srv.App().Test(req, -1)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("stats failed: status=%d err=%v", resp.StatusCode, err)
	}

	var body map[string]any
	decodeBody(t, resp, &body)

	// Duration goes over the wire in minutes, not raw nanoseconds.
	minutes, ok := body["duration_minutes"].(float64)
	if !ok {
		t.Fatalf("duration_minutes missing or not a number: %v", body)
	}
	if minutes < 0 || minutes > 1 {
		t.Errorf("duration_minutes = %v, want a small non-negative value", minutes)
	}
	if _, present := body["duration"]; present {
		t.Error("raw duration field should not be exposed")
	}
}

func TestIngestDocument(t *testing.T) {
	idx := &fakeIndexer{}
	srv, _ := newTestServer(&fakeQuerier{result: &rag.Result{}}, idx)

	resp := postJSON(t, srv, "/api/documents", ingestRequest{
		Filename: "handbook.txt",
		Type:     "text",
		Segments: []segmentRequest{
			{Text: "Employees accrue 20 vacation days per year."},
			{Text: "Remote work requires manager approval.", Attrs: map[string]any{"section": "policies"}},
		},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}

	var body struct {
		Source        string `json:"source"`
		ChunksIndexed int    `json:"chunks_indexed"`
	}
	decodeBody(t, resp, &body)
	if body.Source != "handbook.txt" || body.ChunksIndexed != 2 {
		t.Errorf("body = %+v, want handbook.txt with 2 chunks", body)
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	if len(idx.inserted) != 2 {
		t.Fatalf("index received %d chunks, want 2", len(idx.inserted))
	}
	if idx.inserted[1].Metadata[models.MetaSection] != "policies" {
		t.Errorf("segment attrs not carried into chunk metadata: %v", idx.inserted[1].Metadata)
	}
}

func TestIngestValidation(t *testing.T) {
	srv, _ := newTestServer(&fakeQuerier{result: &rag.Result{}}, &fakeIndexer{})

	resp := postJSON(t, srv, "/api/documents", ingestRequest{Filename: "x.txt"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for missing segments", resp.StatusCode)
	}
}

func TestDeleteSourceAndStats(t *testing.T) {
	idx := &fakeIndexer{
		deleted: map[string]int{"old.txt": 7},
		stats:   models.IndexStats{Count: 42, CollectionName: "business_documents"},
	}
	srv, sessions := newTestServer(&fakeQuerier{result: &rag.Result{}}, idx)
	sessions.Create("")

	req := httptest.NewRequest(http.MethodDelete, "/api/documents/old.txt", nil)
	resp, err := srv.App().Test(req, -1)
	if err != nil {
		t.Fatalf("delete request failed: %v", err)
	}
	var del struct {
		ChunksDeleted int `json:"chunks_deleted"`
	}
	decodeBody(t, resp, &del)
	if del.ChunksDeleted != 7 {
		t.Errorf("chunks_deleted = %d, want 7", del.ChunksDeleted)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	resp, err = srv.App().Test(req, -1)
	if err != nil {
		t.Fatalf("stats request failed: %v", err)
	}
	var stats struct {
		Index          models.IndexStats `json:"index"`
		ActiveSessions int               `json:"active_sessions"`
	}
	decodeBody(t, resp, &stats)
	if stats.Index.Count != 42 || stats.ActiveSessions != 1 {
		t.Errorf("stats = %+v, want count 42 and 1 active session", stats)
	}
}
