// Package llm is the boundary to the external language-model collaborator.
// Callers hand it a pre-built prompt and receive opaque Markdown text back;
// nothing in here parses or interprets the response.
package llm

import (
	"context"
	"errors"
)

// ErrUnauthorized is returned when the collaborator rejects the configured
// credential. Consumers translate it into a visible "needs re-auth" state.
var ErrUnauthorized = errors.New("llm provider rejected credentials")

// Provider is the interface for language-model backends.
type Provider interface {
	// QuickQuery streams the answer, delivering partial text through
	// onDelta as it arrives.
	QuickQuery(ctx context.Context, systemPrompt, prompt string, onDelta func(string)) error

	// DeepDive returns one completed text block.
	DeepDive(ctx context.Context, systemPrompt, prompt string) (string, error)
}
