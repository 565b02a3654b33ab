package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Sumit-Prasad01/Chat-with-Sql-DB/internal/agent"
	"github.com/Sumit-Prasad01/Chat-with-Sql-DB/internal/dbconn"
	"github.com/Sumit-Prasad01/Chat-with-Sql-DB/internal/providers/groq"
	"github.com/Sumit-Prasad01/Chat-with-Sql-DB/internal/session"
)

type createSessionRequest struct {
	DBKind       string `json:"db_kind"`
	Host         string `json:"host"`
	Port         int    `json:"port"`
	Username     string `json:"username"`
	Password     string `json:"password"`
	DatabaseName string `json:"database_name"`
	SQLitePath   string `json:"sqlite_path"`
	GroqAPIKey   string `json:"groq_api_key"`
}

type createSessionResponse struct {
	SessionID string `json:"session_id"`
	DBKind    string `json:"db_kind"`
	Model     string `json:"model"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := s.decodeBody(w, r, &req); err != nil {
		return
	}

	apiKey := req.GroqAPIKey
	if apiKey == "" {
		apiKey = s.groq.APIKey
	}
	llm, err := groq.New(groq.Config{
		APIKey:      apiKey,
		BaseURL:     s.groq.BaseURL,
		HTTPClient:  &http.Client{Timeout: s.groq.Timeout},
		MaxRetries:  s.groq.MaxRetries,
		BackoffBase: s.groq.BackoffBase,
	})
	if err != nil {
		if errors.Is(err, groq.ErrMissingAPIKey) {
			s.writeError(w, http.StatusUnauthorized, err)
			return
		}
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	// A request without connection fields falls back to the server's default
	// database, when one is configured.
	if req.DBKind == "" && s.defaultDB.Kind != "" {
		req.DBKind = s.defaultDB.Kind
		req.Host = s.defaultDB.Host
		req.Port = s.defaultDB.Port
		req.Username = s.defaultDB.User
		req.Password = s.defaultDB.Password
		req.DatabaseName = s.defaultDB.Database
		req.SQLitePath = s.defaultDB.SQLitePath
	}

	kind, err := dbconn.ParseKind(req.DBKind)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	conn, err := dbconn.Open(r.Context(), dbconn.Config{
		Kind:          kind,
		Host:          req.Host,
		Port:          req.Port,
		User:          req.Username,
		Password:      req.Password,
		Database:      req.DatabaseName,
		SQLitePath:    req.SQLitePath,
		MaxResultRows: s.defaultDB.MaxResultRows,
	})
	if err != nil {
		var cfgErr *dbconn.ConfigError
		var connErr *dbconn.ConnectError
		switch {
		case errors.As(err, &cfgErr):
			s.writeError(w, http.StatusBadRequest, err)
		case errors.As(err, &connErr):
			s.writeError(w, http.StatusBadGateway, err)
		default:
			s.writeError(w, http.StatusInternalServerError, err)
		}
		return
	}

	sess := session.New(session.NewID(), conn, agent.New(conn, llm, s.log))
	s.sessions.Put(sess)
	s.metrics.SessionsCreated.Inc()
	s.metrics.SessionsActive.Set(float64(s.sessions.Len()))
	s.log.Info().Str("session_id", sess.ID).Str("db_kind", string(kind)).Msg("session created")

	s.writeJSON(w, http.StatusCreated, createSessionResponse{
		SessionID: sess.ID,
		DBKind:    string(kind),
		Model:     llm.Model(),
	})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	if !s.sessions.Delete(id) {
		s.writeError(w, http.StatusNotFound, fmt.Errorf("unknown session %q", id))
		return
	}
	s.metrics.SessionsActive.Set(float64(s.sessions.Len()))
	w.WriteHeader(http.StatusNoContent)
}

type askRequest struct {
	Question string `json:"question"`
}

// handleAsk runs one turn and streams the answer as SSE events:
// data events carry {"delta": ...}, a failed turn emits one error event,
// and every turn terminates with a done event.
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessions.Get(chi.URLParam(r, "sessionID"))
	if !ok {
		s.writeError(w, http.StatusNotFound, fmt.Errorf("unknown session"))
		return
	}

	var req askRequest
	if err := s.decodeBody(w, r, &req); err != nil {
		return
	}
	if req.Question == "" {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("question is required"))
		return
	}

	allowed, used, resetAt, err := s.limiter.Allow(r.Context(), sess.ID, time.Now())
	if err != nil {
		s.log.Error().Err(err).Msg("rate limiter unavailable")
	} else if !allowed {
		w.Header().Set("Retry-After", fmt.Sprint(int(time.Until(resetAt).Seconds())))
		s.writeError(w, http.StatusTooManyRequests, fmt.Errorf("turn limit reached (%d this hour)", used))
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, fmt.Errorf("streaming unsupported"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	s.metrics.TurnsTotal.Inc()

	// Client disconnect cancels r.Context(), which aborts the turn mid-stream.
	for chunk := range sess.Ask(r.Context(), req.Question) {
		switch {
		case chunk.Err != nil:
			s.metrics.TurnFailures.Inc()
			s.writeSSE(w, flusher, "error", map[string]string{"message": chunk.Err.Error()})
			s.writeSSE(w, flusher, "done", struct{}{})
			return
		case chunk.Done:
			s.writeSSE(w, flusher, "done", struct{}{})
			return
		default:
			s.metrics.TokensStreamed.Inc()
			s.writeSSE(w, flusher, "", map[string]string{"delta": chunk.Text})
		}
	}
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessions.Get(chi.URLParam(r, "sessionID"))
	if !ok {
		s.writeError(w, http.StatusNotFound, fmt.Errorf("unknown session"))
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"messages": sess.History.All()})
}

func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessions.Get(chi.URLParam(r, "sessionID"))
	if !ok {
		s.writeError(w, http.StatusNotFound, fmt.Errorf("unknown session"))
		return
	}
	sess.History.Clear()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodySize)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return err
	}
	return nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) writeSSE(w http.ResponseWriter, flusher http.Flusher, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	if event != "" {
		fmt.Fprintf(w, "event: %s\n", event)
	}
	fmt.Fprintf(w, "data: %s\n\n", data)
	flusher.Flush()
}
