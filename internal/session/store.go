// ABOUTME: In-memory conversation session store with bounded history and expiry
// ABOUTME: Sharded locking so concurrent sessions never serialize on one mutex
package session

import (
	"errors"
	"hash/fnv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/docdesk/docdesk/internal/models"
)

var (
	// ErrNotFound reports an id that was never created.
	ErrNotFound = errors.New("session not found")

	// ErrExpired reports an id that existed but was removed by the
	// expiry sweep.
	ErrExpired = errors.New("session expired")
)

const shardCount = 16

type entry struct {
	session  models.Session
	messages []models.Message
}

type shard struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

// Store manages conversation sessions. Mutations on the same session
// serialize through its shard lock; different shards proceed
// independently. History storage is in-memory; the contract is
// storage-agnostic so a durable backing can replace it later.
type Store struct {
	shards   [shardCount]*shard
	maxTurns int
	tomb     *tombstones
	log      *zap.Logger
}

// NewStore creates a Store trimming each session's history to
// 2*maxTurns messages.
func NewStore(maxTurns int, log *zap.Logger) *Store {
	if maxTurns <= 0 {
		maxTurns = 10
	}
	if log == nil {
		log = zap.NewNop()
	}
	s := &Store{maxTurns: maxTurns, tomb: newTombstones(), log: log}
	for i := range s.shards {
		s.shards[i] = &shard{entries: make(map[string]*entry)}
	}
	return s
}

func (s *Store) shardFor(id string) *shard {
	h := fnv.New32a()
	h.Write([]byte(id))
	return s.shards[h.Sum32()%shardCount]
}

// Create starts a new session and returns its opaque id.
func (s *Store) Create(userID string) string {
	id := uuid.New().String()
	now := time.Now()

	sh := s.shardFor(id)
	sh.mu.Lock()
	sh.entries[id] = &entry{session: models.Session{
		ID:           id,
		UserID:       userID,
		CreatedAt:    now,
		LastActivity: now,
		Active:       true,
	}}
	sh.mu.Unlock()

	s.log.Info("created session", zap.String("session_id", id))
	return id
}

// Get returns the session record for an id.
func (s *Store) Get(id string) (models.Session, bool) {
	sh := s.shardFor(id)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	e, ok := sh.entries[id]
	if !ok {
		return models.Session{}, false
	}
	return e.session, true
}

// Append adds a message and bumps the session's activity timestamp. An
// unknown id lazily creates a minimal session rather than failing;
// stale or forged ids are tolerated deliberately. History is trimmed to
// the retention bound on every append, never on read.
func (s *Store) Append(id string, role models.Role, content string, metadata map[string]any) {
	now := time.Now()

	sh := s.shardFor(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	e, ok := sh.entries[id]
	if !ok {
		s.log.Warn("session not found, creating new session", zap.String("session_id", id))
		e = &entry{session: models.Session{
			ID:           id,
			CreatedAt:    now,
			LastActivity: now,
			Active:       true,
		}}
		sh.entries[id] = e
	}

	e.messages = append(e.messages, models.Message{
		Role:      role,
		Content:   content,
		Timestamp: now,
		Metadata:  metadata,
	})
	e.session.LastActivity = now

	if limit := s.maxTurns * 2; len(e.messages) > limit {
		e.messages = e.messages[len(e.messages)-limit:]
	}
}

// History returns a session's messages in chronological order, the last
// `limit` of them when limit > 0. Unknown ids yield an empty history.
func (s *Store) History(id string, limit int) []models.Message {
	sh := s.shardFor(id)
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	e, ok := sh.entries[id]
	if !ok {
		return nil
	}

	msgs := e.messages
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	out := make([]models.Message, len(msgs))
	copy(out, msgs)
	return out
}

// FormattedHistory projects History to the {role, content} shape the
// generation service consumes.
func (s *Store) FormattedHistory(id string, limit int) []models.ChatMessage {
	history := s.History(id, limit)
	formatted := make([]models.ChatMessage, len(history))
	for i, msg := range history {
		formatted[i] = models.ChatMessage{Role: string(msg.Role), Content: msg.Content}
	}
	return formatted
}

// Clear drops a session's messages but keeps the session record.
func (s *Store) Clear(id string) {
	sh := s.shardFor(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	if e, ok := sh.entries[id]; ok {
		e.messages = nil
		s.log.Info("cleared history", zap.String("session_id", id))
	}
}

// End marks a session inactive without removing it. The returned error
// distinguishes an id removed by expiry from one that never existed.
func (s *Store) End(id string) error {
	sh := s.shardFor(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	e, ok := sh.entries[id]
	if !ok {
		return s.missing(id)
	}
	e.session.Active = false
	s.log.Info("ended session", zap.String("session_id", id))
	return nil
}

// Stats summarizes a session's history. The returned error distinguishes
// expired from never-created ids for debuggability.
func (s *Store) Stats(id string) (models.SessionStats, error) {
	sh := s.shardFor(id)
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	e, ok := sh.entries[id]
	if !ok {
		return models.SessionStats{}, s.missing(id)
	}

	stats := models.SessionStats{
		SessionID:       id,
		TotalMessages:   len(e.messages),
		CreatedAt:       e.session.CreatedAt,
		LastActivity:    e.session.LastActivity,
		DurationMinutes: e.session.LastActivity.Sub(e.session.CreatedAt).Minutes(),
		Active:          e.session.Active,
	}
	for _, msg := range e.messages {
		switch msg.Role {
		case models.RoleUser:
			stats.UserMessages++
		case models.RoleAssistant:
			stats.AssistantMessages++
		}
	}
	return stats, nil
}

// ActiveSessionIDs lists every session still marked active.
func (s *Store) ActiveSessionIDs() []string {
	var ids []string
	for _, sh := range s.shards {
		sh.mu.RLock()
		for id, e := range sh.entries {
			if e.session.Active {
				ids = append(ids, id)
			}
		}
		sh.mu.RUnlock()
	}
	return ids
}

// Sweep removes every session whose last activity is older than the
// timeout, along with its history, and returns the count removed.
// Removal is idempotent: a second sweep with no intervening activity
// removes nothing. Intended to run on a recurring timer.
func (s *Store) Sweep(timeout time.Duration) int {
	now := time.Now()
	removed := 0

	for _, sh := range s.shards {
		sh.mu.Lock()
		for id, e := range sh.entries {
			if now.Sub(e.session.LastActivity) > timeout {
				delete(sh.entries, id)
				s.tomb.record(id)
				removed++
			}
		}
		sh.mu.Unlock()
	}

	if removed > 0 {
		s.log.Info("cleaned up expired sessions", zap.Int("count", removed))
	}
	return removed
}

// missing classifies an absent id as expired or never created.
func (s *Store) missing(id string) error {
	if s.tomb.contains(id) {
		return ErrExpired
	}
	return ErrNotFound
}
