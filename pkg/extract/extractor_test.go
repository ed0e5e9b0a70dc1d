package extract

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/entrhq/concierge/pkg/bank"
	"github.com/entrhq/concierge/pkg/llm/llmtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractAnswer(t *testing.T) {
	stub := llmtest.NewStub(`{"desired_outputs": "One of: positive, negative, neutral"}`)
	e := New(stub)

	b := bank.New()
	b.Overview = "Classify sentiment of a sentence"

	patch, err := e.ExtractAnswer(context.Background(), b, "What should the output look like?",
		"Always respond with exactly one of: positive, negative, neutral")
	require.NoError(t, err)
	assert.Equal(t, "One of: positive, negative, neutral", patch.DesiredOutputs)

	// The call is schema-constrained and carries the bank snapshot.
	calls := stub.Calls()
	require.Len(t, calls, 1)
	require.NotNil(t, calls[0].Schema)
	assert.Equal(t, "knowledge_patch", calls[0].Schema.Name)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(calls[0].Messages[1].Content), &payload))
	spec, ok := payload["task_spec"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Classify sentiment of a sentence", spec["overview"])
	assert.Equal(t, "What should the output look like?", payload["question"])
}

func TestExtractEvent(t *testing.T) {
	stub := llmtest.NewStub(`{"constraints": ["handle sarcastic sentences"]}`)
	e := New(stub)

	event := map[string]interface{}{
		"type":       "batch_metrics",
		"root_cause": "sarcastic sentences mis-labelled positive",
	}
	patch, err := e.ExtractEvent(context.Background(), bank.New(), event)
	require.NoError(t, err)
	assert.Equal(t, []string{"handle sarcastic sentences"}, patch.Constraints)
}

func TestExtractStripsMarkdownFences(t *testing.T) {
	stub := llmtest.NewStub("```json\n{\"overview\": \"fenced\"}\n```")
	e := New(stub)

	patch, err := e.ExtractAnswer(context.Background(), bank.New(), "q", "a")
	require.NoError(t, err)
	assert.Equal(t, "fenced", patch.Overview)
}

func TestExtractEmptyPatch(t *testing.T) {
	stub := llmtest.NewStub(`{}`)
	e := New(stub)

	patch, err := e.ExtractAnswer(context.Background(), bank.New(), "q", "nothing new")
	require.NoError(t, err)
	assert.True(t, patch.IsEmpty())
}

func TestExtractParseError(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{name: "not json", response: "I could not produce JSON, sorry."},
		{name: "not an object", response: `["overview"]`},
		{name: "empty response", response: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := llmtest.NewStub(tt.response)
			e := New(stub)

			_, err := e.ExtractAnswer(context.Background(), bank.New(), "q", "a")
			require.Error(t, err)
			assert.True(t, IsPatchParse(err), "expected PatchParseError, got %v", err)
		})
	}
}

func TestExtractToleratesFieldViolations(t *testing.T) {
	// constraints has the wrong shape; the valid field still comes through.
	stub := llmtest.NewStub(`{"overview": "valid", "constraints": "not a list"}`)
	e := New(stub)

	patch, err := e.ExtractAnswer(context.Background(), bank.New(), "q", "a")
	require.NoError(t, err)
	assert.Equal(t, "valid", patch.Overview)
	require.Len(t, patch.Malformed, 1)
	assert.Equal(t, bank.FieldConstraints, patch.Malformed[0].Field)
}

func TestExtractPropagatesProviderError(t *testing.T) {
	stub := llmtest.NewStub()
	stub.Err = errors.New("connection refused")
	e := New(stub)

	_, err := e.ExtractAnswer(context.Background(), bank.New(), "q", "a")
	require.Error(t, err)
	assert.False(t, IsPatchParse(err))
}

func TestExtractAccumulatesUsage(t *testing.T) {
	stub := llmtest.NewStub(`{"overview": "x"}`)
	e := New(stub)

	_, err := e.ExtractAnswer(context.Background(), bank.New(), "q", "a")
	require.NoError(t, err)
	usage := e.Usage()
	assert.Positive(t, usage.PromptTokens)
	assert.Positive(t, usage.CompletionTokens)
	assert.Equal(t, usage.PromptTokens+usage.CompletionTokens, usage.TotalTokens)
}

func TestStripFences(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: `{"a":1}`, want: `{"a":1}`},
		{in: "```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{in: "```\n{\"a\":1}\n```", want: `{"a":1}`},
		{in: "  {\"a\":1}  ", want: `{"a":1}`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, stripFences(tt.in))
	}
}
