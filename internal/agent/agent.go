// Package agent turns a natural-language question into SQL, runs it against
// the session's database and narrates the result as a token stream.
package agent

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Sumit-Prasad01/Chat-with-Sql-DB/internal/dbconn"
	"github.com/Sumit-Prasad01/Chat-with-Sql-DB/internal/providers"
)

// TurnError wraps any failure inside one turn. It never escapes the turn:
// callers render it as a single assistant-visible error message and the
// session stays usable.
type TurnError struct {
	Stage string
	Err   error
}

func (e *TurnError) Error() string {
	return fmt.Sprintf("turn failed during %s: %v", e.Stage, e.Err)
}

func (e *TurnError) Unwrap() error { return e.Err }

// Chunk is one increment of a turn's answer. The final chunk has either
// Done=true or Err set; after it the channel is closed.
type Chunk struct {
	Text string
	Done bool
	Err  error
}

// maxGenerateAttempts bounds the SQL regeneration loop. Failed generations
// feed the database error back into the next prompt.
const maxGenerateAttempts = 3

type Agent struct {
	conn *dbconn.Conn
	llm  providers.Provider
	log  zerolog.Logger
}

func New(conn *dbconn.Conn, llm providers.Provider, log zerolog.Logger) *Agent {
	return &Agent{conn: conn, llm: llm, log: log}
}

// Ask runs one turn. The returned channel delivers answer tokens lazily and
// is closed when the turn completes, fails or ctx is canceled. history is
// prior conversation context, oldest first, excluding the current question.
func (a *Agent) Ask(ctx context.Context, question string, history []providers.Message) <-chan Chunk {
	out := make(chan Chunk)
	go func() {
		defer close(out)
		a.run(ctx, question, history, out)
	}()
	return out
}

func (a *Agent) run(ctx context.Context, question string, history []providers.Message, out chan<- Chunk) {
	emit := func(c Chunk) bool {
		select {
		case out <- c:
			return true
		case <-ctx.Done():
			return false
		}
	}
	fail := func(stage string, err error) {
		a.log.Warn().Str("stage", stage).Err(err).Msg("turn failed")
		emit(Chunk{Err: &TurnError{Stage: stage, Err: err}})
	}

	schema, err := a.conn.Schema(ctx)
	if err != nil {
		fail("schema", err)
		return
	}

	stmt, result, err := a.generateAndRun(ctx, question, history, schema)
	if err != nil {
		fail("query", err)
		return
	}
	a.log.Debug().Str("sql", stmt).Int("rows", len(result.Rows)).Msg("query executed")

	stream, err := a.llm.ChatStream(ctx, providers.ChatRequest{
		Messages: answerMessages(question, history, stmt, result),
	})
	if err != nil {
		fail("narration", err)
		return
	}

	for delta := range stream {
		switch {
		case delta.Err != nil:
			fail("narration", delta.Err)
			return
		case delta.Done:
			emit(Chunk{Done: true})
			return
		case delta.Content != "":
			if !emit(Chunk{Text: delta.Content}) {
				return
			}
		}
	}
	// Stream closed without a terminal delta: ctx was canceled upstream.
}

// generateAndRun asks the model for a SELECT and executes it, retrying a
// bounded number of times with the failure folded into the next prompt.
func (a *Agent) generateAndRun(ctx context.Context, question string, history []providers.Message, schema []dbconn.TableInfo) (string, *dbconn.Result, error) {
	var lastErr error
	feedback := ""

	for attempt := 1; attempt <= maxGenerateAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", nil, err
		}

		resp, err := a.llm.Chat(ctx, providers.ChatRequest{
			Messages: sqlMessages(question, history, schema, a.conn.Kind(), feedback),
		})
		if err != nil {
			lastErr = fmt.Errorf("generate sql: %w", err)
			a.log.Debug().Int("attempt", attempt).Err(err).Msg("sql generation failed")
			continue
		}

		stmt := cleanSQL(resp.Text)
		result, err := a.conn.Query(ctx, stmt)
		if err != nil {
			lastErr = fmt.Errorf("execute %q: %w", stmt, err)
			feedback = fmt.Sprintf("The previous attempt %q failed with: %v. Produce a corrected query.", stmt, err)
			a.log.Debug().Int("attempt", attempt).Str("sql", stmt).Err(err).Msg("query attempt failed")
			continue
		}
		return stmt, result, nil
	}
	return "", nil, lastErr
}
