// Package session holds per-conversation state: the transcript, the database
// handle and the LLM client. Every session is private to one user; the
// manager only exists so the HTTP host can serve many of them at once.
package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/Sumit-Prasad01/Chat-with-Sql-DB/internal/agent"
	"github.com/Sumit-Prasad01/Chat-with-Sql-DB/internal/dbconn"
	"github.com/Sumit-Prasad01/Chat-with-Sql-DB/internal/providers"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one entry of the transcript.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// History is an append-only transcript with an explicit full reset.
type History struct {
	mu   sync.Mutex
	msgs []Message
}

func (h *History) Append(role, content string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.msgs = append(h.msgs, Message{Role: role, Content: content, CreatedAt: time.Now()})
}

// All returns the transcript in insertion order. The slice is a copy.
func (h *History) All() []Message {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Message, len(h.msgs))
	copy(out, h.msgs)
	return out
}

func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.msgs = nil
}

func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.msgs)
}

// contextLimit caps how many prior messages are replayed into prompts.
const contextLimit = 10

// providerContext converts the transcript tail into LLM messages.
func (h *History) providerContext() []providers.Message {
	all := h.All()
	if len(all) > contextLimit {
		all = all[len(all)-contextLimit:]
	}
	out := make([]providers.Message, 0, len(all))
	for _, m := range all {
		out = append(out, providers.Message{Role: m.Role, Content: m.Content})
	}
	return out
}

// Session owns one database handle and one LLM client for its lifetime.
// A changed connection config means a new session.
type Session struct {
	ID      string
	History *History

	conn  *dbconn.Conn
	agent *agent.Agent

	mu       sync.Mutex
	lastUsed time.Time
}

func New(id string, conn *dbconn.Conn, ag *agent.Agent) *Session {
	return &Session{
		ID:       id,
		History:  &History{},
		conn:     conn,
		agent:    ag,
		lastUsed: time.Now(),
	}
}

func (s *Session) Kind() dbconn.Kind { return s.conn.Kind() }

func (s *Session) Close() error {
	return s.conn.Close()
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastUsed = time.Now()
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

// Ask runs one turn: append the user message, stream the agent's answer, and
// append exactly one assistant message when the stream ends. A failed turn
// appends a single error message and leaves prior history untouched; the
// session stays usable for the next turn.
func (s *Session) Ask(ctx context.Context, question string) <-chan agent.Chunk {
	s.touch()
	out := make(chan agent.Chunk)
	go func() {
		defer close(out)

		history := s.History.providerContext()
		s.History.Append(RoleUser, question)

		var answer strings.Builder
		for chunk := range s.agent.Ask(ctx, question, history) {
			if chunk.Err != nil {
				s.History.Append(RoleAssistant, "Sorry, I could not answer that: "+chunk.Err.Error())
				select {
				case out <- chunk:
				case <-ctx.Done():
				}
				return
			}
			if chunk.Done {
				s.History.Append(RoleAssistant, answer.String())
				select {
				case out <- chunk:
				case <-ctx.Done():
				}
				return
			}
			answer.WriteString(chunk.Text)
			select {
			case out <- chunk:
			case <-ctx.Done():
				// Abandoned mid-stream; keep what was produced so far.
				if answer.Len() > 0 {
					s.History.Append(RoleAssistant, answer.String())
				}
				return
			}
		}
		// Agent stream ended without a terminal chunk (canceled upstream).
		if ctx.Err() != nil && answer.Len() > 0 {
			s.History.Append(RoleAssistant, answer.String())
		}
	}()
	return out
}
