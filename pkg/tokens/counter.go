// Package tokens provides approximate token counting for prompt and
// completion accounting.
package tokens

import (
	"github.com/entrhq/concierge/pkg/types"
	"github.com/pkoukk/tiktoken-go"
)

// DefaultEncoding is the BPE encoding used for counting. Counts only feed
// accounting and logging, so an encoding mismatch with the actual model is
// acceptable.
const DefaultEncoding = "cl100k_base"

// messageOverhead approximates the per-message framing tokens added by
// chat completion APIs.
const messageOverhead = 4

// Counter counts tokens with tiktoken, falling back to a bytes/4 heuristic
// when the encoding cannot be loaded (e.g. offline first run).
type Counter struct {
	enc *tiktoken.Tiktoken
}

// NewCounter creates a counter for the default encoding. It never fails;
// without an encoding it degrades to the heuristic.
func NewCounter() *Counter {
	enc, err := tiktoken.GetEncoding(DefaultEncoding)
	if err != nil {
		return &Counter{}
	}
	return &Counter{enc: enc}
}

// Count returns the token count of a text block.
func (c *Counter) Count(text string) int {
	if text == "" {
		return 0
	}
	if c == nil || c.enc == nil {
		// Rough heuristic: one token per four bytes.
		return (len(text) + 3) / 4
	}
	return len(c.enc.Encode(text, nil, nil))
}

// CountMessages returns the approximate prompt size of a message list,
// including per-message framing overhead.
func (c *Counter) CountMessages(messages []*types.Message) int {
	total := 0
	for _, msg := range messages {
		total += c.Count(msg.Content) + messageOverhead
	}
	return total
}
