package web

import (
	"bufio"
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/Sumit-Prasad01/Chat-with-Sql-DB/internal/config"
	"github.com/Sumit-Prasad01/Chat-with-Sql-DB/internal/metrics"
	"github.com/Sumit-Prasad01/Chat-with-Sql-DB/internal/session"
)

// fakeGroq mimics the chat-completions endpoint: a non-streamed call gets a
// fixed SELECT, a streamed call narrates in three deltas.
func fakeGroq(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if bytes.Contains(body, []byte(`"stream":true`)) {
			w.Header().Set("Content-Type", "text/event-stream")
			for _, tok := range []string{"Krish ", "scored ", "90."} {
				fmt.Fprintf(w, "data: {\"choices\":[{\"delta\":{\"content\":%q}}]}\n\n", tok)
			}
			fmt.Fprint(w, "data: [DONE]\n\n")
			return
		}
		fmt.Fprint(w, `{"choices":[{"message":{"content":"SELECT NAME, MARKS FROM STUDENT"}}]}`)
	}))
}

func seedSQLite(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "student.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open seed db: %v", err)
	}
	for _, s := range []string{
		`CREATE TABLE STUDENT (NAME TEXT, MARKS INTEGER)`,
		`INSERT INTO STUDENT VALUES ('Krish', 90)`,
	} {
		if _, err := db.Exec(s); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	if err := db.Close(); err != nil {
		t.Fatalf("close seed db: %v", err)
	}
	return path
}

func newTestServer(t *testing.T, groqURL string) *httptest.Server {
	t.Helper()
	srv := NewServer(Options{
		Sessions: session.NewManager(time.Hour),
		Limiter:  nil, // nil TurnLimiter allows everything
		Metrics:  metrics.Global(),
		Logger:   zerolog.Nop(),
		Groq: config.GroqConfig{
			BaseURL:     groqURL,
			Timeout:     5 * time.Second,
			BackoffBase: time.Millisecond,
		},
	})
	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url string, payload any) *http.Response {
	t.Helper()
	body, _ := json.Marshal(payload)
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func createSession(t *testing.T, ts *httptest.Server, sqlitePath string) string {
	t.Helper()
	resp := postJSON(t, ts.URL+"/api/sessions", map[string]any{
		"db_kind":      "sqlite",
		"sqlite_path":  sqlitePath,
		"groq_api_key": "gsk_test",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("create session: status %d body %s", resp.StatusCode, body)
	}
	var out struct {
		SessionID string `json:"session_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode session response: %v", err)
	}
	return out.SessionID
}

func TestCreateSessionValidation(t *testing.T) {
	groq := fakeGroq(t)
	defer groq.Close()
	ts := newTestServer(t, groq.URL)

	cases := []struct {
		name    string
		payload map[string]any
		status  int
	}{
		{"unknown kind", map[string]any{"db_kind": "mongodb", "groq_api_key": "k"}, http.StatusBadRequest},
		{"missing api key", map[string]any{"db_kind": "sqlite", "sqlite_path": "x.db"}, http.StatusUnauthorized},
		{"missing mysql fields", map[string]any{"db_kind": "mysql", "host": "db", "groq_api_key": "k"}, http.StatusBadRequest},
		{"absent sqlite file", map[string]any{"db_kind": "sqlite", "sqlite_path": "/nonexistent/no.db", "groq_api_key": "k"}, http.StatusBadGateway},
	}
	for _, tc := range cases {
		resp := postJSON(t, ts.URL+"/api/sessions", tc.payload)
		resp.Body.Close()
		if resp.StatusCode != tc.status {
			t.Fatalf("%s: expected status %d, got %d", tc.name, tc.status, resp.StatusCode)
		}
	}
}

func TestCreateSessionUsesDefaultDB(t *testing.T) {
	groq := fakeGroq(t)
	defer groq.Close()

	srv := NewServer(Options{
		Sessions: session.NewManager(time.Hour),
		Metrics:  metrics.Global(),
		Logger:   zerolog.Nop(),
		Groq:     config.GroqConfig{BaseURL: groq.URL, Timeout: 5 * time.Second},
		DefaultDB: config.DBConfig{
			Kind:       "sqlite",
			SQLitePath: seedSQLite(t),
		},
	})
	ts := httptest.NewServer(srv.Routes())
	defer ts.Close()

	resp := postJSON(t, ts.URL+"/api/sessions", map[string]any{"groq_api_key": "gsk_test"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected session from default db config, got %d: %s", resp.StatusCode, body)
	}
}

func TestAskStreamsAndRecordsHistory(t *testing.T) {
	groq := fakeGroq(t)
	defer groq.Close()
	ts := newTestServer(t, groq.URL)
	id := createSession(t, ts, seedSQLite(t))

	resp := postJSON(t, ts.URL+"/api/sessions/"+id+"/ask", map[string]any{"question": "who scored what?"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("ask: status %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("expected SSE content type, got %q", ct)
	}

	var answer strings.Builder
	var done bool
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "event: done" {
			done = true
			continue
		}
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var payload struct {
			Delta string `json:"delta"`
		}
		_ = json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &payload)
		answer.WriteString(payload.Delta)
	}
	if !done {
		t.Fatalf("missing done event")
	}
	if answer.String() != "Krish scored 90." {
		t.Fatalf("unexpected answer %q", answer.String())
	}

	histResp, err := http.Get(ts.URL + "/api/sessions/" + id + "/history")
	if err != nil {
		t.Fatalf("get history: %v", err)
	}
	defer histResp.Body.Close()
	var hist struct {
		Messages []session.Message `json:"messages"`
	}
	if err := json.NewDecoder(histResp.Body).Decode(&hist); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(hist.Messages) != 2 {
		t.Fatalf("expected user+assistant, got %d messages", len(hist.Messages))
	}
	if hist.Messages[1].Content != "Krish scored 90." {
		t.Fatalf("assistant message %q does not match stream", hist.Messages[1].Content)
	}
}

func TestClearHistory(t *testing.T) {
	groq := fakeGroq(t)
	defer groq.Close()
	ts := newTestServer(t, groq.URL)
	id := createSession(t, ts, seedSQLite(t))

	resp := postJSON(t, ts.URL+"/api/sessions/"+id+"/ask", map[string]any{"question": "q"})
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/sessions/"+id+"/history", nil)
	delResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("clear history: %v", err)
	}
	delResp.Body.Close()
	if delResp.StatusCode != http.StatusNoContent {
		t.Fatalf("clear history: status %d", delResp.StatusCode)
	}

	histResp, err := http.Get(ts.URL + "/api/sessions/" + id + "/history")
	if err != nil {
		t.Fatalf("get history: %v", err)
	}
	defer histResp.Body.Close()
	var hist struct {
		Messages []session.Message `json:"messages"`
	}
	if err := json.NewDecoder(histResp.Body).Decode(&hist); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(hist.Messages) != 0 {
		t.Fatalf("expected empty history after clear, got %d", len(hist.Messages))
	}
}

func TestUnknownSession(t *testing.T) {
	groq := fakeGroq(t)
	defer groq.Close()
	ts := newTestServer(t, groq.URL)

	resp := postJSON(t, ts.URL+"/api/sessions/deadbeef/ask", map[string]any{"question": "q"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}

	histResp, err := http.Get(ts.URL + "/api/sessions/deadbeef/history")
	if err != nil {
		t.Fatalf("get history: %v", err)
	}
	histResp.Body.Close()
	if histResp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", histResp.StatusCode)
	}
}

func TestDeleteSession(t *testing.T) {
	groq := fakeGroq(t)
	defer groq.Close()
	ts := newTestServer(t, groq.URL)
	id := createSession(t, ts, seedSQLite(t))

	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/sessions/"+id, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("delete session: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete session: status %d", resp.StatusCode)
	}

	askResp := postJSON(t, ts.URL+"/api/sessions/"+id+"/ask", map[string]any{"question": "q"})
	askResp.Body.Close()
	if askResp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", askResp.StatusCode)
	}
}
