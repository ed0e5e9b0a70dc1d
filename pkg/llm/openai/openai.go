// Package openai provides an OpenAI-compatible LLM provider implementation.
//
// The provider speaks the chat completions API over raw HTTP so it works
// with OpenAI itself as well as Azure OpenAI, local gateways, and other
// compatible services selected via WithBaseURL.
package openai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/entrhq/concierge/pkg/llm"
	"github.com/entrhq/concierge/pkg/types"
	"github.com/openai/openai-go"
)

const (
	// DefaultBaseURL is the default OpenAI API base URL.
	DefaultBaseURL = "https://api.openai.com/v1"

	// DefaultModel is used when no model is configured.
	DefaultModel = "gpt-4o"
)

// Provider implements the LLM provider interface for OpenAI-compatible APIs.
type Provider struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	model      string
	modelInfo  *types.ModelInfo
}

// ProviderOption is a function that configures a Provider.
type ProviderOption func(*Provider)

// WithModel sets the model to use for completions.
func WithModel(model string) ProviderOption {
	return func(p *Provider) {
		p.model = model
	}
}

// WithBaseURL sets a custom base URL for OpenAI-compatible APIs.
func WithBaseURL(baseURL string) ProviderOption {
	return func(p *Provider) {
		p.baseURL = baseURL
	}
}

// WithHTTPClient sets a custom HTTP client, e.g. to control timeouts.
func WithHTTPClient(client *http.Client) ProviderOption {
	return func(p *Provider) {
		p.httpClient = client
	}
}

// NewProvider creates a new OpenAI provider with the given API key.
//
// If apiKey is empty, it falls back to the OPENAI_API_KEY environment
// variable. If no base URL is set via WithBaseURL, OPENAI_BASE_URL is
// consulted before the default.
func NewProvider(apiKey string, opts ...ProviderOption) (*Provider, error) {
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("openai: API key is required (provide via parameter or OPENAI_API_KEY environment variable)")
	}

	p := &Provider{
		model:      DefaultModel,
		apiKey:     apiKey,
		httpClient: &http.Client{},
		baseURL:    DefaultBaseURL,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.baseURL == DefaultBaseURL {
		if envBaseURL := os.Getenv("OPENAI_BASE_URL"); envBaseURL != "" {
			p.baseURL = envBaseURL
		}
	}

	p.modelInfo = &types.ModelInfo{
		Provider:          "openai",
		Name:              p.model,
		SupportsStreaming: true,
		Metadata:          make(map[string]interface{}),
	}
	if p.baseURL != DefaultBaseURL {
		p.modelInfo.Metadata["base_url"] = p.baseURL
	}

	return p, nil
}

// Complete sends messages to the chat completions API and returns the full
// response.
func (p *Provider) Complete(ctx context.Context, messages []*types.Message) (*types.Message, error) {
	return p.completeOnce(ctx, messages, nil)
}

// CompleteStructured sends messages with a json_schema response format so
// the API constrains its output to the given schema.
func (p *Provider) CompleteStructured(ctx context.Context, messages []*types.Message, schema *llm.ResponseSchema) (*types.Message, error) {
	if schema == nil {
		return nil, fmt.Errorf("openai: response schema is required")
	}
	return p.completeOnce(ctx, messages, schema)
}

// completeOnce performs a single non-streaming completion request.
func (p *Provider) completeOnce(ctx context.Context, messages []*types.Message, schema *llm.ResponseSchema) (*types.Message, error) {
	reqBody := map[string]interface{}{
		"model":    p.model,
		"messages": convertMessages(messages),
	}
	if schema != nil {
		reqBody["response_format"] = map[string]interface{}{
			"type": "json_schema",
			"json_schema": map[string]interface{}{
				"name":   schema.Name,
				"strict": schema.Strict,
				"schema": schema.Schema,
			},
		}
	}

	resp, err := p.send(ctx, reqBody, false)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var decoded struct {
		Choices []struct {
			Message struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("openai: failed to decode response: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return nil, fmt.Errorf("openai: response contained no choices")
	}

	role := decoded.Choices[0].Message.Role
	if role == "" {
		role = string(types.RoleAssistant)
	}
	return &types.Message{
		Role:    types.MessageRole(role),
		Content: strings.TrimSpace(decoded.Choices[0].Message.Content),
	}, nil
}

// StreamCompletion sends messages to the chat completions API and streams
// back response chunks over the returned channel.
func (p *Provider) StreamCompletion(ctx context.Context, messages []*types.Message) (<-chan *llm.StreamChunk, error) {
	reqBody := map[string]interface{}{
		"model":    p.model,
		"messages": convertMessages(messages),
		"stream":   true,
	}

	resp, err := p.send(ctx, reqBody, true)
	if err != nil {
		return nil, err
	}

	chunks := make(chan *llm.StreamChunk, 10)
	go p.processStream(ctx, resp, chunks)
	return chunks, nil
}

// send marshals and posts a chat completions request. Transport failures
// and non-200 responses surface as llm.UnavailableError: the collaborator
// could not serve the call, and retry policy belongs to the caller.
func (p *Provider) send(ctx context.Context, reqBody map[string]interface{}, stream bool) (*http.Response, error) {
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("openai: failed to marshal request: %w", err)
	}

	url := p.baseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("openai: failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	if stream {
		req.Header.Set("Accept", "text/event-stream")
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, &llm.UnavailableError{Provider: "openai", Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return nil, &llm.UnavailableError{
				Provider: "openai",
				Err:      fmt.Errorf("request failed with status %d (error body unreadable: %w)", resp.StatusCode, readErr),
			}
		}
		return nil, &llm.UnavailableError{
			Provider: "openai",
			Err:      fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(body)),
		}
	}

	return resp, nil
}

// processStream reads the SSE stream and forwards chunks to the channel.
func (p *Provider) processStream(ctx context.Context, resp *http.Response, chunks chan<- *llm.StreamChunk) {
	defer close(chunks)
	defer resp.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	firstChunk := true

	for scanner.Scan() {
		line := scanner.Text()

		// SSE comments and blank keep-alives are skipped.
		if line == "" || strings.HasPrefix(line, ":") || !strings.HasPrefix(line, "data: ") {
			continue
		}

		data := strings.TrimPrefix(line, "data: ")
		if data == "[DONE]" {
			p.sendChunk(ctx, &llm.StreamChunk{Finished: true}, chunks)
			return
		}

		if !p.processSSEData(ctx, data, &firstChunk, chunks) {
			return
		}
	}

	if err := scanner.Err(); err != nil {
		chunks <- &llm.StreamChunk{Error: fmt.Errorf("openai: stream read error: %w", err)}
	}
}

// processSSEData decodes one SSE data payload and emits resulting chunks.
// Returns false when the stream should stop.
func (p *Provider) processSSEData(ctx context.Context, data string, firstChunk *bool, chunks chan<- *llm.StreamChunk) bool {
	var event struct {
		Choices []struct {
			Delta struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"delta"`
			FinishReason *string `json:"finish_reason"`
		} `json:"choices"`
	}

	if err := json.Unmarshal([]byte(data), &event); err != nil {
		return true // skip malformed keep-alive payloads
	}
	if len(event.Choices) == 0 {
		return true
	}

	choice := event.Choices[0]
	chunk := &llm.StreamChunk{Content: choice.Delta.Content}
	if *firstChunk && choice.Delta.Role != "" {
		chunk.Role = choice.Delta.Role
		*firstChunk = false
	}
	if choice.FinishReason != nil && *choice.FinishReason == "stop" {
		chunk.Finished = true
	}

	if chunk.Content == "" && chunk.Role == "" && !chunk.Finished {
		return true
	}
	return p.sendChunk(ctx, chunk, chunks)
}

// sendChunk delivers a chunk unless the context is done.
func (p *Provider) sendChunk(ctx context.Context, chunk *llm.StreamChunk, chunks chan<- *llm.StreamChunk) bool {
	select {
	case chunks <- chunk:
		return true
	case <-ctx.Done():
		chunks <- &llm.StreamChunk{Error: ctx.Err()}
		return false
	}
}

// GetModelInfo returns information about the model being used.
func (p *Provider) GetModelInfo() *types.ModelInfo {
	return p.modelInfo
}

// GetModel returns the model name being used.
func (p *Provider) GetModel() string {
	return p.model
}

// GetBaseURL returns the base URL used for API requests.
func (p *Provider) GetBaseURL() string {
	return p.baseURL
}

// convertMessages converts core messages to the openai-go param union.
func convertMessages(messages []*types.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case types.RoleSystem:
			out = append(out, openai.SystemMessage(msg.Content))
		case types.RoleAssistant:
			out = append(out, openai.AssistantMessage(msg.Content))
		default:
			out = append(out, openai.UserMessage(msg.Content))
		}
	}
	return out
}
