package engine

import (
	"context"

	"github.com/Hackr0212/Noir-chroma/core"
)

// Request is the payload handed to the generation backend for one turn.
type Request struct {
	// System carries the system instructions.
	System string

	// History is the ordered rolling history, oldest first. It already
	// contains the raw (unaugmented) current user message.
	History []core.Message

	// UserContent is the outbound user content for this turn: the
	// retrieved context block plus the literal current message.
	UserContent string
}

// TokenStream is a finite ordered sequence of text fragments from the
// generation backend. Iterate with Next/Current; after Next returns false,
// Err reports whether the stream ended cleanly.
type TokenStream interface {
	Next() bool
	Current() string
	Err() error
	Close() error
}

// Generator is the generation backend boundary. The engine treats it as an
// opaque collaborator: it may fail with transient network or backend
// errors, and such failures are fatal to the turn but not to the session.
//
// Implementations: anthropic.Generator (Claude streaming); tests use
// scripted fakes.
type Generator interface {
	// Stream starts a generation call and returns the fragment stream.
	Stream(ctx context.Context, req *Request) (TokenStream, error)
}
