// Package extract turns unstructured input (interview answers, production
// events) into structured patches against the knowledge bank schema via a
// schema-constrained LLM call.
package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/entrhq/concierge/pkg/bank"
	"github.com/entrhq/concierge/pkg/llm"
	"github.com/entrhq/concierge/pkg/logging"
	"github.com/entrhq/concierge/pkg/tokens"
	"github.com/entrhq/concierge/pkg/types"
)

// Mode identifies which kind of raw input a patch was extracted from.
type Mode string

const (
	ModeAnswer Mode = "answer" // interview question/answer pair
	ModeEvent  Mode = "event"  // production event record
)

// PatchParseError reports that the collaborator's response could not be
// parsed into a patch. Callers treat it as "no information extracted this
// round" and continue; it never corrupts the bank.
type PatchParseError struct {
	Mode Mode
	Raw  string
	Err  error
}

// Error implements the error interface.
func (e *PatchParseError) Error() string {
	return fmt.Sprintf("extract: %s response is not a valid patch: %v", e.Mode, e.Err)
}

// Unwrap exposes the underlying error.
func (e *PatchParseError) Unwrap() error {
	return e.Err
}

// IsPatchParse reports whether err is (or wraps) a PatchParseError.
func IsPatchParse(err error) bool {
	var pe *PatchParseError
	return errors.As(err, &pe)
}

// Extractor invokes the LLM collaborator to produce knowledge-bank patches.
// It is safe for concurrent use; extraction is read-only against the bank
// snapshot it is given.
type Extractor struct {
	provider llm.Provider
	counter  *tokens.Counter
	log      *logging.Logger

	mu    sync.Mutex
	usage types.TokenUsage
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithTokenCounter sets the counter used for usage accounting.
func WithTokenCounter(c *tokens.Counter) Option {
	return func(e *Extractor) {
		e.counter = c
	}
}

// WithLogger sets the debug logger.
func WithLogger(l *logging.Logger) Option {
	return func(e *Extractor) {
		e.log = l
	}
}

// New creates an extractor over the given provider.
func New(provider llm.Provider, opts ...Option) *Extractor {
	e := &Extractor{
		provider: provider,
		counter:  tokens.NewCounter(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Usage returns cumulative token usage across all extraction calls.
func (e *Extractor) Usage() types.TokenUsage {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.usage
}

// ExtractAnswer extracts a patch from one interview question/answer pair,
// given a snapshot of the current bank as context.
func (e *Extractor) ExtractAnswer(ctx context.Context, snapshot *bank.KnowledgeBank, question, answer string) (*bank.Patch, error) {
	payload := map[string]interface{}{
		"task_spec": snapshot,
		"question":  question,
		"answer":    answer,
	}
	return e.extract(ctx, ModeAnswer, answerSystemPrompt, payload)
}

// ExtractEvent extracts a patch from one production event, given a
// snapshot of the current bank as context.
//
// Every call costs a completion. Callers processing raw production traffic
// should deduplicate or cluster similar events and submit only cluster
// representatives; near-duplicate events yield empty patches and waste
// the call.
func (e *Extractor) ExtractEvent(ctx context.Context, snapshot *bank.KnowledgeBank, event interface{}) (*bank.Patch, error) {
	payload := map[string]interface{}{
		"task_spec": snapshot,
		"event":     event,
	}
	return e.extract(ctx, ModeEvent, eventSystemPrompt, payload)
}

func (e *Extractor) extract(ctx context.Context, mode Mode, systemPrompt string, payload map[string]interface{}) (*bank.Patch, error) {
	userPrompt, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("extract: failed to encode %s payload: %w", mode, err)
	}

	messages := []*types.Message{
		types.NewSystemMessage(systemPrompt),
		types.NewUserMessage(string(userPrompt)),
	}

	resp, err := e.provider.CompleteStructured(ctx, messages, responseSchema)
	if err != nil {
		return nil, fmt.Errorf("extract: %s extraction call failed: %w", mode, err)
	}

	e.account(messages, resp.Content)

	return e.decode(mode, resp.Content)
}

// decode parses the collaborator response into a patch. Schema violations
// are logged and tolerated; field-level isolation happens in DecodePatch.
// Only a response that is not a JSON object at all fails.
func (e *Extractor) decode(mode Mode, content string) (*bank.Patch, error) {
	cleaned := stripFences(content)
	if cleaned == "" {
		return nil, &PatchParseError{Mode: mode, Raw: content, Err: fmt.Errorf("empty response")}
	}

	var doc interface{}
	if err := json.Unmarshal([]byte(cleaned), &doc); err != nil {
		return nil, &PatchParseError{Mode: mode, Raw: content, Err: err}
	}
	if err := patchSchema.Validate(doc); err != nil {
		e.log.Warnf("%s patch has schema violations, merging valid fields only: %v", mode, err)
	}

	patch, err := bank.DecodePatch([]byte(cleaned))
	if err != nil {
		return nil, &PatchParseError{Mode: mode, Raw: content, Err: err}
	}
	for _, fe := range patch.Malformed {
		e.log.Warnf("%s patch dropped field: %v", mode, fe)
	}
	return patch, nil
}

func (e *Extractor) account(messages []*types.Message, completion string) {
	prompt := e.counter.CountMessages(messages)
	comp := e.counter.Count(completion)

	e.mu.Lock()
	e.usage.Add(prompt, comp)
	e.mu.Unlock()

	e.log.Debugf("extraction call: %d prompt tokens, %d completion tokens", prompt, comp)
}

// stripFences removes a surrounding markdown code fence, which models emit
// despite instructions to return raw JSON.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if idx := strings.Index(s, "\n"); idx >= 0 {
		// Drop the language tag line, e.g. "json".
		s = s[idx+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
