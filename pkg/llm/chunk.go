package llm

// StreamChunk is a single increment of a streamed completion.
//
// The first chunk typically carries Role; subsequent chunks carry Content
// deltas. The final chunk has Finished set. Error chunks have Error set and
// terminate the stream.
type StreamChunk struct {
	// Role is the message role, usually only present on the first chunk.
	Role string

	// Content is the text delta for this chunk.
	Content string

	// Finished marks the final chunk of a successful stream.
	Finished bool

	// Error carries a stream-time failure.
	Error error
}

// IsError reports whether this chunk carries a stream-time failure.
func (c *StreamChunk) IsError() bool {
	return c.Error != nil
}
