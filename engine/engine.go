// Package engine drives one conversation session: it augments each user
// message with retrieved memories, streams the generated response to the
// caller, and commits both sides of the turn back into memory.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/Hackr0212/Noir-chroma/core"
	"github.com/Hackr0212/Noir-chroma/memory"
)

// Engine is the conversation orchestrator. It owns the rolling history for
// one session and serializes turns: a second Send blocks until the prior
// turn's commit completes, so history and memory always reflect the issue
// order of user messages.
type Engine struct {
	gen          Generator
	memory       *memory.Manager
	systemPrompt string

	// mu is held for the full duration of a turn.
	mu      sync.Mutex
	history []core.Message
}

// Option configures the engine.
type Option func(*Engine)

// WithMemory attaches a memory engine. Without one the session runs with
// history-only context.
func WithMemory(m *memory.Manager) Option {
	return func(e *Engine) {
		e.memory = m
	}
}

// WithSystemPrompt overrides DefaultSystemPrompt.
func WithSystemPrompt(prompt string) Option {
	return func(e *Engine) {
		e.systemPrompt = prompt
	}
}

// New creates an engine over the given generation backend.
func New(gen Generator, opts ...Option) *Engine {
	e := &Engine{
		gen:          gen,
		systemPrompt: DefaultSystemPrompt,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Send runs one turn: recall, prompt, stream, commit. It blocks while a
// prior turn is still in flight, then returns a Stream that yields response
// fragments as they arrive. Cancelling ctx mid-stream stops forwarding and
// leaves history and memory without the partial response.
func (e *Engine) Send(ctx context.Context, userMessage string) *Stream {
	stream := newStream()

	// Taking the lock here, not in the goroutine, pins the turn order to
	// the order callers issued messages in.
	e.mu.Lock()
	go e.runTurn(ctx, userMessage, stream)
	return stream
}

func (e *Engine) runTurn(ctx context.Context, userMessage string, stream *Stream) {
	defer e.mu.Unlock()

	// Querying: failures degrade to empty context rather than aborting.
	var contextBlock string
	if e.memory != nil {
		recall := e.memory.Recall(ctx, userMessage)
		if recall.Degraded {
			log.Printf("[ENGINE] Memory recall degraded: %v", recall.Err)
		}
		contextBlock = recall.Context
	}

	// Prompting: history gets the raw message, the backend gets the
	// augmented one.
	userContent := userMessage
	if contextBlock != "" {
		userContent = contextBlock + "\n\nCurrent message: " + userMessage
	}
	e.history = append(e.history, core.Message{Role: core.RoleUser, Content: userMessage})

	historySnapshot := make([]core.Message, len(e.history))
	copy(historySnapshot, e.history)

	// Streaming.
	tokens, err := e.gen.Stream(ctx, &Request{
		System:      e.systemPrompt,
		History:     historySnapshot,
		UserContent: userContent,
	})
	if err != nil {
		e.failTurn(ctx, stream, err)
		return
	}
	defer tokens.Close()

	var full strings.Builder
	for tokens.Next() {
		if ctx.Err() != nil {
			stream.finish("", ctx.Err(), nil)
			return
		}
		frag := tokens.Current()
		full.WriteString(frag)
		if !stream.push(frag, ctx.Done()) {
			// Caller abandoned the turn; commit nothing.
			stream.finish("", ctx.Err(), nil)
			return
		}
	}
	if err := tokens.Err(); err != nil {
		// Mid-stream failure: no commit, even for fragments already
		// forwarded, so truncated text never poisons future context.
		e.failTurn(ctx, stream, err)
		return
	}
	if err := ctx.Err(); err != nil {
		// Cancelled between the last fragment and the commit step.
		stream.finish("", err, nil)
		return
	}

	// Committing.
	text := full.String()
	e.history = append(e.history, core.Message{Role: core.RoleAssistant, Content: text})

	var commitErr error
	if e.memory != nil {
		if _, err := e.memory.Add(ctx, userMessage, core.RoleUser); err != nil {
			commitErr = errors.Join(commitErr, err)
		}
		if _, err := e.memory.Add(ctx, text, core.RoleAssistant); err != nil {
			commitErr = errors.Join(commitErr, err)
		}
		if commitErr != nil {
			// Non-fatal: the user already has the response.
			log.Printf("[ENGINE] Memory commit failed: %v", commitErr)
		}
	}

	stream.finish(text, nil, commitErr)
}

// failTurn surfaces a generation failure as a single descriptive fragment.
// History keeps the user's message but gains no assistant entry.
func (e *Engine) failTurn(ctx context.Context, stream *Stream, err error) {
	log.Printf("[ENGINE] Generation failed: %v", err)
	stream.push(fmt.Sprintf("Error generating response: %v", err), ctx.Done())
	stream.finish("", err, nil)
}

// History returns a copy of the session history.
func (e *Engine) History() []core.Message {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]core.Message, len(e.history))
	copy(out, e.history)
	return out
}

// ClearError reports a partial ClearHistory: the session history was reset
// but the memory store could not be cleared. Degraded, not fatal - callers
// should warn the user that recall may be inconsistent.
type ClearError struct {
	Err error
}

func (e *ClearError) Error() string {
	return fmt.Sprintf("history reset, but memory clear failed: %v", e.Err)
}

func (e *ClearError) Unwrap() error {
	return e.Err
}

// ClearHistory resets the session history and empties the memory store as
// one compound operation. When only the memory half fails, the returned
// error is a *ClearError and the history reset still holds.
func (e *Engine) ClearHistory(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.history = nil
	if e.memory == nil {
		return nil
	}
	if err := e.memory.Clear(ctx); err != nil {
		return &ClearError{Err: err}
	}
	return nil
}
