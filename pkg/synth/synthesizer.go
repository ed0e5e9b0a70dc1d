package synth

import (
	"context"
	"fmt"

	"github.com/entrhq/concierge/pkg/bank"
	"github.com/entrhq/concierge/pkg/llm"
	"github.com/entrhq/concierge/pkg/logging"
	"github.com/entrhq/concierge/pkg/tokens"
	"github.com/entrhq/concierge/pkg/types"
)

// systemPrompt frames the synthesis call as a prompt-engineering task.
const systemPrompt = "You are a world-class prompt engineer."

// userPromptTemplate carries the rendered task specification. The raw
// input for a specific task instance is supplied separately as the user
// prompt at invocation time, never embedded here.
const userPromptTemplate = `Using the task specification below, craft the BEST POSSIBLE system prompt for an LLM to accomplish the task. This system prompt will be used to guide the LLM, and the raw input for the specific task instance (e.g., the text to classify, the question to answer) will be provided separately as the user prompt. Every section of the specification must be reflected in the prompt. Respond with ONLY the generated system prompt text - no markdown, no explanations.

%s`

// Synthesizer turns a knowledge bank into a downstream system prompt via
// the LLM collaborator.
type Synthesizer struct {
	provider llm.Provider
	counter  *tokens.Counter
	log      *logging.Logger
}

// Option configures a Synthesizer.
type Option func(*Synthesizer)

// WithTokenCounter sets the counter used for usage logging.
func WithTokenCounter(c *tokens.Counter) Option {
	return func(s *Synthesizer) {
		s.counter = c
	}
}

// WithLogger sets the debug logger.
func WithLogger(l *logging.Logger) Option {
	return func(s *Synthesizer) {
		s.log = l
	}
}

// New creates a synthesizer over the given provider.
func New(provider llm.Provider, opts ...Option) *Synthesizer {
	s := &Synthesizer{
		provider: provider,
		counter:  tokens.NewCounter(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Synthesize produces the final system prompt for the bank's task. The
// result is a single text block; task input is supplied separately when
// the downstream model is invoked.
func (s *Synthesizer) Synthesize(ctx context.Context, b *bank.KnowledgeBank) (string, error) {
	messages, err := s.messages(b)
	if err != nil {
		return "", err
	}

	resp, err := s.provider.Complete(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("synth: synthesis call failed: %w", err)
	}

	s.log.Debugf("synthesized prompt: %d tokens from %d prompt tokens",
		s.counter.Count(resp.Content), s.counter.CountMessages(messages))

	return resp.Content, nil
}

// Stream produces the final system prompt as a chunk stream, for callers
// that display the prompt as it is generated.
func (s *Synthesizer) Stream(ctx context.Context, b *bank.KnowledgeBank) (<-chan *llm.StreamChunk, error) {
	messages, err := s.messages(b)
	if err != nil {
		return nil, err
	}

	stream, err := s.provider.StreamCompletion(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("synth: synthesis stream failed: %w", err)
	}
	return stream, nil
}

func (s *Synthesizer) messages(b *bank.KnowledgeBank) ([]*types.Message, error) {
	rendered := Render(b)
	if rendered == "" {
		return nil, fmt.Errorf("synth: cannot synthesize a prompt from an empty bank")
	}
	return []*types.Message{
		types.NewSystemMessage(systemPrompt),
		types.NewUserMessage(fmt.Sprintf(userPromptTemplate, rendered)),
	}, nil
}
