package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/entrhq/concierge/pkg/llm"
	"github.com/entrhq/concierge/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProviderRequiresAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	_, err := NewProvider("")
	require.Error(t, err)
}

func TestNewProviderDefaults(t *testing.T) {
	p, err := NewProvider("test-key")
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, p.GetModel())
	assert.Equal(t, "openai", p.GetModelInfo().Provider)
	assert.True(t, p.GetModelInfo().SupportsStreaming)
}

func TestComplete(t *testing.T) {
	var gotBody map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"hello there"}}]}`)
	}))
	defer server.Close()

	p, err := NewProvider("test-key", WithBaseURL(server.URL), WithModel("test-model"))
	require.NoError(t, err)

	msg, err := p.Complete(context.Background(), []*types.Message{types.NewUserMessage("hi")})
	require.NoError(t, err)
	assert.Equal(t, types.RoleAssistant, msg.Role)
	assert.Equal(t, "hello there", msg.Content)
	assert.Equal(t, "test-model", gotBody["model"])
	assert.Nil(t, gotBody["response_format"])
}

func TestCompleteStructuredSendsResponseFormat(t *testing.T) {
	var gotBody map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"{\"overview\":\"x\"}"}}]}`)
	}))
	defer server.Close()

	p, err := NewProvider("test-key", WithBaseURL(server.URL))
	require.NoError(t, err)

	schema := &llm.ResponseSchema{
		Name:   "knowledge_patch",
		Schema: map[string]interface{}{"type": "object"},
	}
	msg, err := p.CompleteStructured(context.Background(), []*types.Message{types.NewUserMessage("extract")}, schema)
	require.NoError(t, err)
	assert.JSONEq(t, `{"overview":"x"}`, msg.Content)

	rf, ok := gotBody["response_format"].(map[string]interface{})
	require.True(t, ok, "response_format missing from request body")
	assert.Equal(t, "json_schema", rf["type"])
}

func TestCompleteStructuredRequiresSchema(t *testing.T) {
	p, err := NewProvider("test-key")
	require.NoError(t, err)
	_, err = p.CompleteStructured(context.Background(), nil, nil)
	require.Error(t, err)
}

func TestHTTPErrorIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	p, err := NewProvider("test-key", WithBaseURL(server.URL))
	require.NoError(t, err)

	_, err = p.Complete(context.Background(), []*types.Message{types.NewUserMessage("hi")})
	require.Error(t, err)
	assert.True(t, llm.IsUnavailable(err), "expected UnavailableError, got %v", err)
}

func TestTransportErrorIsUnavailable(t *testing.T) {
	p, err := NewProvider("test-key", WithBaseURL("http://127.0.0.1:0"))
	require.NoError(t, err)

	_, err = p.Complete(context.Background(), []*types.Message{types.NewUserMessage("hi")})
	require.Error(t, err)
	assert.True(t, llm.IsUnavailable(err))
}

func TestStreamCompletion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"role\":\"assistant\",\"content\":\"What \"}}]}\n\n")
		fmt.Fprint(w, ": keep-alive comment\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"inputs?\"}}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	p, err := NewProvider("test-key", WithBaseURL(server.URL))
	require.NoError(t, err)

	stream, err := p.StreamCompletion(context.Background(), []*types.Message{types.NewUserMessage("hi")})
	require.NoError(t, err)

	var content string
	var finished bool
	for chunk := range stream {
		require.False(t, chunk.IsError(), "unexpected stream error: %v", chunk.Error)
		content += chunk.Content
		if chunk.Finished {
			finished = true
		}
	}
	assert.Equal(t, "What inputs?", content)
	assert.True(t, finished)
}
