package synth

import (
	"context"
	"strings"
	"testing"

	"github.com/entrhq/concierge/pkg/bank"
	"github.com/entrhq/concierge/pkg/llm/llmtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderOmitsEmptySections(t *testing.T) {
	b := bank.New()
	b.Overview = "Classify sentiment of a sentence"
	b.DesiredOutputs = "One of: positive, negative, neutral"

	out := Render(b)

	assert.Contains(t, out, "Classify sentiment of a sentence")
	assert.Contains(t, out, "One of: positive, negative, neutral")
	assert.NotContains(t, out, "Style Guidelines")
	assert.NotContains(t, out, "Constraints")
	assert.NotContains(t, out, "Inputs")
	assert.NotContains(t, out, "Examples")
	assert.NotContains(t, out, "Additional Notes")
}

func TestRenderAllSections(t *testing.T) {
	b := bank.New()
	b.Overview = "overview text"
	b.Inputs = "inputs text"
	b.DesiredOutputs = "outputs text"
	b.Constraints = []string{"first constraint", "second constraint"}
	b.StyleGuidelines = "casual tone"
	b.Examples = []interface{}{
		"I love this -> positive",
		map[string]interface{}{"input": "meh", "output": "neutral"},
	}
	b.Misc = map[string]interface{}{"failure_modes": []interface{}{"sarcasm"}}

	out := Render(b)

	for _, heading := range []string{
		"## Overview", "## Inputs", "## Desired Outputs", "## Constraints",
		"## Style Guidelines", "## Examples", "## Additional Notes",
	} {
		assert.Contains(t, out, heading)
	}
	assert.Contains(t, out, "- first constraint")
	assert.Contains(t, out, "- I love this -> positive")
	assert.Contains(t, out, `{"input":"meh","output":"neutral"}`)
	assert.Contains(t, out, "sarcasm")
}

func TestRenderDeterministic(t *testing.T) {
	b := bank.New()
	b.Overview = "stable"
	b.Misc = map[string]interface{}{"b": float64(2), "a": float64(1), "c": float64(3)}

	first := Render(b)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Render(b))
	}
}

func TestRenderEmptyBank(t *testing.T) {
	assert.Equal(t, "", Render(bank.New()))
	assert.Equal(t, "", Render(nil))
}

func TestSynthesize(t *testing.T) {
	stub := llmtest.NewStub("You are a sentiment classifier. Respond with one label.")
	s := New(stub)

	b := bank.New()
	b.Overview = "Classify sentiment of a sentence"
	b.DesiredOutputs = "One of: positive, negative, neutral"

	prompt, err := s.Synthesize(context.Background(), b)
	require.NoError(t, err)
	assert.Equal(t, "You are a sentiment classifier. Respond with one label.", prompt)

	// The collaborator sees every non-empty section and no empty ones.
	calls := stub.Calls()
	require.Len(t, calls, 1)
	payload := calls[0].Messages[1].Content
	assert.Contains(t, payload, "Classify sentiment of a sentence")
	assert.Contains(t, payload, "One of: positive, negative, neutral")
	assert.NotContains(t, payload, "Style Guidelines")
}

func TestSynthesizeEmptyBankFails(t *testing.T) {
	s := New(llmtest.NewStub("irrelevant"))
	_, err := s.Synthesize(context.Background(), bank.New())
	require.Error(t, err)
}

func TestStream(t *testing.T) {
	stub := llmtest.NewStub("streamed prompt text")
	s := New(stub)

	b := bank.New()
	b.Overview = "something"

	stream, err := s.Stream(context.Background(), b)
	require.NoError(t, err)

	var sb strings.Builder
	for chunk := range stream {
		require.False(t, chunk.IsError())
		sb.WriteString(chunk.Content)
	}
	assert.Equal(t, "streamed prompt text", sb.String())
}
