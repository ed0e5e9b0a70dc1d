// Package types defines the shared data types exchanged between the
// Concierge core and its LLM provider layer.
package types

// MessageRole identifies the author of a chat message.
type MessageRole string

const (
	RoleSystem    MessageRole = "system"    // RoleSystem is the instruction-level message role.
	RoleUser      MessageRole = "user"      // RoleUser is the human (or payload) message role.
	RoleAssistant MessageRole = "assistant" // RoleAssistant is the model response role.
)

// Message is a single chat message sent to or received from an LLM provider.
type Message struct {
	Role    MessageRole
	Content string
}

// NewSystemMessage creates a system-role message.
func NewSystemMessage(content string) *Message {
	return &Message{Role: RoleSystem, Content: content}
}

// NewUserMessage creates a user-role message.
func NewUserMessage(content string) *Message {
	return &Message{Role: RoleUser, Content: content}
}

// NewAssistantMessage creates an assistant-role message.
func NewAssistantMessage(content string) *Message {
	return &Message{Role: RoleAssistant, Content: content}
}

// ModelInfo describes the model behind a provider instance.
type ModelInfo struct {
	// Provider is the provider family, e.g. "openai".
	Provider string

	// Name is the model identifier requested on each completion.
	Name string

	// SupportsStreaming reports whether the provider can stream responses.
	SupportsStreaming bool

	// MaxTokens is the nominal context window, when known.
	MaxTokens int

	// Metadata holds provider-specific extras (base URL overrides, etc.).
	Metadata map[string]interface{}
}

// TokenUsage accumulates token counts across provider calls.
type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Add accumulates another usage sample into u.
func (u *TokenUsage) Add(prompt, completion int) {
	u.PromptTokens += prompt
	u.CompletionTokens += completion
	u.TotalTokens += prompt + completion
}
