// Package llmtest provides a scripted in-memory Provider for tests.
package llmtest

import (
	"context"
	"sync"

	"github.com/entrhq/concierge/pkg/llm"
	"github.com/entrhq/concierge/pkg/types"
)

// Call records a single completion request made against the stub.
type Call struct {
	Messages []*types.Message
	Schema   *llm.ResponseSchema
}

// StubProvider is a scripted llm.Provider. Responses are consumed in order;
// once exhausted the last response repeats, so loops that poll the provider
// keep receiving a stable answer.
type StubProvider struct {
	mu        sync.Mutex
	responses []string
	next      int

	// Err, when set, is returned from every completion call.
	Err error

	// RespondFunc, when set, overrides the scripted responses entirely.
	RespondFunc func(call Call) (string, error)

	calls []Call
}

// NewStub creates a stub provider that replays the given responses.
func NewStub(responses ...string) *StubProvider {
	return &StubProvider{responses: responses}
}

// Calls returns a copy of all recorded completion requests.
func (s *StubProvider) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}

func (s *StubProvider) respond(call Call) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, call)

	if s.Err != nil {
		return "", s.Err
	}
	if s.RespondFunc != nil {
		return s.RespondFunc(call)
	}
	if len(s.responses) == 0 {
		return "", nil
	}
	resp := s.responses[s.next]
	if s.next < len(s.responses)-1 {
		s.next++
	}
	return resp, nil
}

// Complete implements llm.Provider.
func (s *StubProvider) Complete(_ context.Context, messages []*types.Message) (*types.Message, error) {
	content, err := s.respond(Call{Messages: messages})
	if err != nil {
		return nil, err
	}
	return types.NewAssistantMessage(content), nil
}

// CompleteStructured implements llm.Provider.
func (s *StubProvider) CompleteStructured(_ context.Context, messages []*types.Message, schema *llm.ResponseSchema) (*types.Message, error) {
	content, err := s.respond(Call{Messages: messages, Schema: schema})
	if err != nil {
		return nil, err
	}
	return types.NewAssistantMessage(content), nil
}

// StreamCompletion implements llm.Provider by splitting the scripted
// response across two content chunks.
func (s *StubProvider) StreamCompletion(_ context.Context, messages []*types.Message) (<-chan *llm.StreamChunk, error) {
	content, err := s.respond(Call{Messages: messages})
	if err != nil {
		return nil, err
	}

	chunks := make(chan *llm.StreamChunk, 4)
	go func() {
		defer close(chunks)
		chunks <- &llm.StreamChunk{Role: string(types.RoleAssistant)}
		if content != "" {
			mid := len(content) / 2
			chunks <- &llm.StreamChunk{Content: content[:mid]}
			chunks <- &llm.StreamChunk{Content: content[mid:]}
		}
		chunks <- &llm.StreamChunk{Finished: true}
	}()
	return chunks, nil
}

// GetModelInfo implements llm.Provider.
func (s *StubProvider) GetModelInfo() *types.ModelInfo {
	return &types.ModelInfo{Provider: "stub", Name: "stub-model"}
}

// GetModel implements llm.Provider.
func (s *StubProvider) GetModel() string {
	return "stub-model"
}
