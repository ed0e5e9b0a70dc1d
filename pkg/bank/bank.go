// Package bank implements the structured knowledge store: a task
// description accumulated across fixed semantic sections plus an open-ended
// extension area, with a non-destructive incremental merge.
//
// A KnowledgeBank is created once per session (optionally seeded from a
// previously saved bank), mutated only through Merge, and never destroyed
// by the core; its final state is the artifact the caller persists or
// renders.
package bank

import (
	"encoding/json"
	"fmt"
)

// KnowledgeBank is the single mutable aggregate of everything learned about
// a task. The zero value is usable; New returns a bank with all collection
// fields initialized so it is always well-formed and renderable.
type KnowledgeBank struct {
	// Overview is the free-text task description.
	Overview string `json:"overview"`

	// Inputs describes the expected input shape and edge cases.
	Inputs string `json:"inputs"`

	// DesiredOutputs describes the expected output shape and format.
	DesiredOutputs string `json:"desired_outputs"`

	// Constraints is an ordered list of constraint statements, unique by
	// content.
	Constraints []string `json:"constraints"`

	// StyleGuidelines is free text describing tone and style requirements.
	StyleGuidelines string `json:"style_guidelines"`

	// Examples is an ordered list of arbitrary structured records, each an
	// input/output pair or scenario description.
	Examples []interface{} `json:"examples"`

	// Misc holds uncategorised facts under descriptive keys, open schema.
	// Values live in the JSON value universe (string, float64, bool, nil,
	// []interface{}, map[string]interface{}).
	Misc map[string]interface{} `json:"misc"`
}

// New creates an empty, well-formed knowledge bank.
func New() *KnowledgeBank {
	return &KnowledgeBank{
		Constraints: []string{},
		Examples:    []interface{}{},
		Misc:        map[string]interface{}{},
	}
}

// Clone returns a deep copy of the bank. Merge operates on clones so the
// input bank is never mutated.
func (b *KnowledgeBank) Clone() *KnowledgeBank {
	if b == nil {
		return New()
	}
	out := &KnowledgeBank{
		Overview:        b.Overview,
		Inputs:          b.Inputs,
		DesiredOutputs:  b.DesiredOutputs,
		StyleGuidelines: b.StyleGuidelines,
		Constraints:     make([]string, len(b.Constraints)),
		Examples:        make([]interface{}, 0, len(b.Examples)),
		Misc:            make(map[string]interface{}, len(b.Misc)),
	}
	copy(out.Constraints, b.Constraints)
	for _, ex := range b.Examples {
		out.Examples = append(out.Examples, deepCopyValue(ex))
	}
	for k, v := range b.Misc {
		out.Misc[k] = deepCopyValue(v)
	}
	return out
}

// IsEmpty reports whether no knowledge has been recorded yet.
func (b *KnowledgeBank) IsEmpty() bool {
	return b.Overview == "" &&
		b.Inputs == "" &&
		b.DesiredOutputs == "" &&
		b.StyleGuidelines == "" &&
		len(b.Constraints) == 0 &&
		len(b.Examples) == 0 &&
		len(b.Misc) == 0
}

// ToJSON renders the bank as indented JSON, the representation handed to
// the LLM collaborator as extraction and synthesis context.
func (b *KnowledgeBank) ToJSON() (string, error) {
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return "", fmt.Errorf("bank: failed to render bank: %w", err)
	}
	return string(data), nil
}
