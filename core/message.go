package core

import "fmt"

// Role tags the origin of a conversational turn.
// There are exactly two roles; stores and queries must never invent a third.
type Role string

const (
	// RoleUser marks text typed (or spoken) by the user.
	RoleUser Role = "user"

	// RoleAssistant marks text produced by the generation backend.
	RoleAssistant Role = "assistant"
)

// Validate returns an error for anything that is not one of the two roles.
func (r Role) Validate() error {
	switch r {
	case RoleUser, RoleAssistant:
		return nil
	}
	return fmt.Errorf("invalid role %q", string(r))
}

// Message is one turn in the rolling conversation history sent to the
// generation backend for continuity. History is session-scoped and
// transient; the durable counterpart is memory.Record.
type Message struct {
	Role    Role
	Content string
}
