package agent

import (
	"context"
	"encoding/json"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/gadgeto/internal/infrastructure/logging"
	"github.com/GriffinCanCode/gadgeto/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/gadgeto/internal/shared/types"
	"github.com/GriffinCanCode/gadgeto/internal/shared/value"
)

// Roles used in session history
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

const errorReplyPrefix = "[Agent error]: "

type session struct {
	info    types.SessionInfo
	history []types.HistoryItem
}

// Sessions is the in-memory session registry
type Sessions struct {
	mu       sync.RWMutex
	sessions map[string]*session
	now      func() time.Time
	log      *logging.Logger
	metrics  *monitoring.Metrics
}

// NewSessions creates an empty registry
func NewSessions(log *logging.Logger, metrics *monitoring.Metrics) *Sessions {
	return &Sessions{
		sessions: make(map[string]*session),
		now:      time.Now,
		log:      logging.OrNop(log),
		metrics:  metrics,
	}
}

// Create registers a new session with a random uuid
func (s *Sessions) Create() types.SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createLocked().info
}

func (s *Sessions) createLocked() *session {
	now := s.now()
	sess := &session{info: types.SessionInfo{
		SessionID:  uuid.New().String(),
		CreatedAt:  now,
		LastAccess: now,
	}}
	s.sessions[sess.info.SessionID] = sess
	s.metrics.SetSessionsActive(len(s.sessions))
	s.log.Info("Created session", logging.SessionID(sess.info.SessionID))
	return sess
}

// Get returns a session and refreshes its last access time
func (s *Sessions) Get(id string) (types.SessionInfo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return types.SessionInfo{}, false
	}
	sess.info.LastAccess = s.now()
	return sess.info, true
}

// Delete forgets a session. Unknown ids are ignored.
func (s *Sessions) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return
	}
	delete(s.sessions, id)
	s.metrics.SetSessionsActive(len(s.sessions))
	s.log.Info("Deleted session", logging.SessionID(id))
}

// Len returns the number of live sessions
func (s *Sessions) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Exchange runs one message through r on session id. An unknown id starts a
// new session, whose id is returned in the response. Agent failures become
// the reply text rather than an error.
func (s *Sessions) Exchange(ctx context.Context, id, message string, r Responder) types.SessionResponse {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	if !ok {
		if id != "" {
			s.log.Info("Session not found, creating new one", logging.SessionID(id))
		}
		sess = s.createLocked()
	}
	sess.info.MessageCount++
	sess.info.LastAccess = s.now()
	sess.history = append(sess.history, types.HistoryItem{
		OrderID: len(sess.history),
		Role:    RoleUser,
		Content: message,
	})
	sessionID := sess.info.SessionID
	history := slices.Clone(sess.history)
	s.mu.Unlock()

	text, reasoning, err := r.Respond(ctx, message, history)
	if err != nil {
		s.log.Warn("Agent failed", logging.SessionID(sessionID), zap.Error(err))
		text = errorReplyPrefix + err.Error()
		reasoning = graphReasoning(len(history))
	}

	s.mu.Lock()
	if sess, ok := s.sessions[sessionID]; ok {
		sess.history = append(sess.history, types.HistoryItem{
			OrderID: len(sess.history),
			Role:    RoleAssistant,
			Content: text,
		})
		history = slices.Clone(sess.history)
	}
	s.mu.Unlock()

	return types.SessionResponse{
		SessionID: sessionID,
		Response:  encodeEnvelope(text, reasoning, history),
		History:   history,
	}
}

// encodeEnvelope renders the JSON reply both transports carry
func encodeEnvelope(text string, reasoning value.Value, history []types.HistoryItem) string {
	out := struct {
		Response  string              `json:"response"`
		Reasoning value.Value         `json:"reasoning"`
		History   []types.HistoryItem `json:"history"`
	}{text, reasoning, history}
	if out.History == nil {
		out.History = []types.HistoryItem{}
	}

	b, err := json.Marshal(out)
	if err != nil {
		return `{"response":"JSON error","reasoning":{},"history":[]}`
	}
	return string(b)
}
