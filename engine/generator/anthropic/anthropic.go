// Package anthropic implements the engine.Generator boundary on the Claude
// Messages streaming API.
package anthropic

import (
	"context"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"

	"github.com/Hackr0212/Noir-chroma/core"
	"github.com/Hackr0212/Noir-chroma/engine"
)

// Config configures the generator.
type Config struct {
	// Model is the Claude model to use.
	// Default: claude-sonnet-4-20250514
	Model string

	// MaxTokens is the maximum response length.
	// Default: 1024
	MaxTokens int64
}

// Generator streams Claude responses for the conversation engine.
type Generator struct {
	client *anthropic.Client
	config Config
}

// New creates a generator over an Anthropic client.
func New(client *anthropic.Client, config Config) *Generator {
	if config.Model == "" {
		config.Model = "claude-sonnet-4-20250514"
	}
	if config.MaxTokens == 0 {
		config.MaxTokens = 1024
	}
	return &Generator{client: client, config: config}
}

// Stream starts a streaming Messages call. History roles map onto the API's
// user/assistant messages, except the trailing raw user turn, which is
// replaced by the augmented user content.
func (g *Generator) Stream(ctx context.Context, req *engine.Request) (engine.TokenStream, error) {
	history := req.History
	if n := len(history); n > 0 && history[n-1].Role == core.RoleUser {
		history = history[:n-1]
	}

	messages := make([]anthropic.MessageParam, 0, len(history)+1)
	for _, msg := range history {
		switch msg.Role {
		case core.RoleAssistant:
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		default:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}
	messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(req.UserContent)))

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(g.config.Model),
		MaxTokens: g.config.MaxTokens,
		Messages:  messages,
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: req.System},
		}
	}

	return &tokenStream{stream: g.client.Messages.NewStreaming(ctx, params)}, nil
}

// tokenStream adapts the SDK's event stream to text fragments.
type tokenStream struct {
	stream  *ssestream.Stream[anthropic.MessageStreamEventUnion]
	current string
}

// Next advances to the next non-empty text delta, skipping other event
// types (message deltas, content block boundaries, stop events).
func (t *tokenStream) Next() bool {
	for t.stream.Next() {
		event := t.stream.Current()
		switch evt := event.AsAny().(type) {
		case anthropic.ContentBlockDeltaEvent:
			switch delta := evt.Delta.AsAny().(type) {
			case anthropic.TextDelta:
				if delta.Text == "" {
					continue
				}
				t.current = delta.Text
				return true
			}
		}
	}
	return false
}

func (t *tokenStream) Current() string {
	return t.current
}

func (t *tokenStream) Err() error {
	return t.stream.Err()
}

func (t *tokenStream) Close() error {
	return t.stream.Close()
}
