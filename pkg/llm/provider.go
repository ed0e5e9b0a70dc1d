// Package llm provides the abstraction over external LLM completion
// services consumed by the Concierge core.
//
// The core depends on three call shapes: free-text question generation,
// schema-constrained patch extraction, and free-text prompt synthesis.
// Transport, authentication, and model selection are provider concerns.
//
// Example usage:
//
//	provider, err := openai.NewProvider(
//	    os.Getenv("OPENAI_API_KEY"),
//	    openai.WithModel("gpt-4o"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	msg, err := provider.Complete(ctx, []*types.Message{
//	    types.NewSystemMessage("You are a diligent analyst."),
//	    types.NewUserMessage("Ask one clarifying question."),
//	})
package llm

import (
	"context"

	"github.com/entrhq/concierge/pkg/types"
)

// ResponseSchema asks a provider to constrain its output to a JSON Schema.
// Providers that support structured output (e.g. OpenAI json_schema response
// format) enforce it server-side; the caller still validates the result.
type ResponseSchema struct {
	// Name labels the schema in the provider request.
	Name string

	// Schema is the JSON Schema document as a decoded object.
	Schema map[string]interface{}

	// Strict requests hard enforcement where the provider supports it.
	Strict bool
}

// Provider defines the interface for LLM integrations.
//
// Providers handle API communication with LLM services and return plain
// messages or StreamChunk instances. They stay unaware of knowledge banks,
// patches, and interview state; that orchestration lives above them, which
// keeps providers reusable and independently testable.
type Provider interface {
	// StreamCompletion sends messages to the LLM and streams back response
	// chunks. The channel is closed when streaming completes or an error
	// occurs; stream-time errors arrive as chunks with Error set. An error
	// is returned only when streaming cannot be initiated.
	StreamCompletion(ctx context.Context, messages []*types.Message) (<-chan *StreamChunk, error)

	// Complete sends messages to the LLM and returns the full response.
	Complete(ctx context.Context, messages []*types.Message) (*types.Message, error)

	// CompleteStructured sends messages and requests output conforming to
	// the given schema. The returned message content is the raw JSON text;
	// decoding and validation remain the caller's responsibility.
	CompleteStructured(ctx context.Context, messages []*types.Message, schema *ResponseSchema) (*types.Message, error)

	// GetModelInfo returns information about the model being used.
	GetModelInfo() *types.ModelInfo

	// GetModel returns the model name being used.
	GetModel() string
}
