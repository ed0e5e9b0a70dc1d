package tokens

import (
	"testing"

	"github.com/entrhq/concierge/pkg/types"
)

func TestCountEmpty(t *testing.T) {
	c := NewCounter()
	if got := c.Count(""); got != 0 {
		t.Errorf("expected 0 tokens for empty text, got %d", got)
	}
}

func TestCountNonEmpty(t *testing.T) {
	c := NewCounter()
	got := c.Count("Classify the sentiment of e-commerce product reviews.")
	if got <= 0 {
		t.Errorf("expected positive token count, got %d", got)
	}
}

func TestCountHeuristicFallback(t *testing.T) {
	c := &Counter{} // no encoding loaded
	if got := c.Count("abcdefgh"); got != 2 {
		t.Errorf("expected heuristic count 2 for 8 bytes, got %d", got)
	}
	if got := c.Count("abc"); got != 1 {
		t.Errorf("expected heuristic count to round up, got %d", got)
	}
}

func TestCountMessagesIncludesOverhead(t *testing.T) {
	c := &Counter{}
	msgs := []*types.Message{
		types.NewSystemMessage("abcd"),
		types.NewUserMessage("efgh"),
	}
	// 1 token per message content + 4 overhead each.
	if got := c.CountMessages(msgs); got != 10 {
		t.Errorf("expected 10, got %d", got)
	}
}
