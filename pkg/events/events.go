// Package events learns from batches of production events: metrics,
// incidents, user complaints, anything observed after the prompt shipped.
package events

import (
	"github.com/google/uuid"
)

// Event is one observed production signal. Data is free-form; the
// extractor decides what, if anything, it teaches us about the task.
type Event struct {
	ID   uuid.UUID              `json:"id"`
	Type string                 `json:"type"`
	Data map[string]interface{} `json:"data"`
}

// New creates an event with a fresh ID.
func New(eventType string, data map[string]interface{}) Event {
	return Event{
		ID:   uuid.New(),
		Type: eventType,
		Data: data,
	}
}

// Outcome classifies what one event contributed to the bank.
type Outcome string

const (
	// OutcomeApplied means the event's patch merged without rejections.
	OutcomeApplied Outcome = "applied"

	// OutcomePartial means some patch fields merged and others were
	// rejected.
	OutcomePartial Outcome = "partial"

	// OutcomeFailed means the event contributed nothing: extraction
	// produced no usable patch, or every field of its patch was rejected.
	OutcomeFailed Outcome = "failed"

	// OutcomeSkipped means the event did not pass the type filter.
	OutcomeSkipped Outcome = "skipped"
)
