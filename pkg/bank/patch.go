package bank

import (
	"encoding/json"
	"fmt"
)

// Patch field names accepted in a patch document.
const (
	FieldOverview        = "overview"
	FieldInputs          = "inputs"
	FieldDesiredOutputs  = "desired_outputs"
	FieldConstraints     = "constraints"
	FieldStyleGuidelines = "style_guidelines"
	FieldExamples        = "examples"
	FieldMisc            = "misc"
	FieldCorrections     = "corrections"
)

// scalarFields are the free-text sections a correction marker may target.
var scalarFields = map[string]struct{}{
	FieldOverview:        {},
	FieldInputs:          {},
	FieldDesiredOutputs:  {},
	FieldStyleGuidelines: {},
}

// FieldError reports that a single field of an otherwise valid patch was
// rejected: unknown name or wrong shape. The rest of the patch still
// merges.
type FieldError struct {
	Field  string
	Reason string
}

// Error implements the error interface.
func (e FieldError) Error() string {
	return fmt.Sprintf("bank: field %q %s", e.Field, e.Reason)
}

// Patch is a transient, partial update against the bank's schema. All
// fields are optional; patches are produced by extraction and consumed
// immediately by Merge, never retained.
type Patch struct {
	Overview        string                 `json:"overview,omitempty"`
	Inputs          string                 `json:"inputs,omitempty"`
	DesiredOutputs  string                 `json:"desired_outputs,omitempty"`
	Constraints     []string               `json:"constraints,omitempty"`
	StyleGuidelines string                 `json:"style_guidelines,omitempty"`
	Examples        []interface{}          `json:"examples,omitempty"`
	Misc            map[string]interface{} `json:"misc,omitempty"`

	// Corrections lists scalar fields whose values explicitly replace the
	// recorded text instead of appending to it. Anything not listed here
	// merges additively.
	Corrections []string `json:"corrections,omitempty"`

	// Malformed records fields dropped while decoding the raw document.
	// Merge copies them into its report so callers can audit what was
	// rejected.
	Malformed []FieldError `json:"-"`
}

// IsEmpty reports whether the patch carries no update at all.
func (p *Patch) IsEmpty() bool {
	return p == nil || (p.Overview == "" &&
		p.Inputs == "" &&
		p.DesiredOutputs == "" &&
		p.StyleGuidelines == "" &&
		len(p.Constraints) == 0 &&
		len(p.Examples) == 0 &&
		len(p.Misc) == 0)
}

// DecodePatch turns a raw JSON document into a Patch. The document must be
// a JSON object; anything else is an error. Individual fields with unknown
// names or wrong shapes are dropped and recorded on Patch.Malformed rather
// than failing the whole patch.
func DecodePatch(raw []byte) (*Patch, error) {
	var doc map[string]interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("bank: patch is not a JSON object: %w", err)
	}

	p := &Patch{}
	for field, value := range doc {
		switch field {
		case FieldOverview:
			p.Overview = decodeScalar(p, field, value)
		case FieldInputs:
			p.Inputs = decodeScalar(p, field, value)
		case FieldDesiredOutputs:
			p.DesiredOutputs = decodeScalar(p, field, value)
		case FieldStyleGuidelines:
			p.StyleGuidelines = decodeScalar(p, field, value)
		case FieldConstraints:
			p.Constraints = decodeStringList(p, field, value)
		case FieldExamples:
			seq, ok := value.([]interface{})
			if !ok {
				p.reject(field, "has wrong shape (expected a list)")
				continue
			}
			p.Examples = seq
		case FieldMisc:
			m, ok := value.(map[string]interface{})
			if !ok {
				p.reject(field, "has wrong shape (expected an object)")
				continue
			}
			p.Misc = m
		case FieldCorrections:
			p.Corrections = decodeCorrections(p, value)
		default:
			p.reject(field, "is not part of the bank schema")
		}
	}
	return p, nil
}

func (p *Patch) reject(field, reason string) {
	p.Malformed = append(p.Malformed, FieldError{Field: field, Reason: reason})
}

func decodeScalar(p *Patch, field string, value interface{}) string {
	s, ok := value.(string)
	if !ok {
		p.reject(field, "has wrong shape (expected a string)")
		return ""
	}
	return s
}

func decodeStringList(p *Patch, field string, value interface{}) []string {
	seq, ok := value.([]interface{})
	if !ok {
		p.reject(field, "has wrong shape (expected a list of strings)")
		return nil
	}
	out := make([]string, 0, len(seq))
	for _, e := range seq {
		s, ok := e.(string)
		if !ok {
			p.reject(field, "has wrong shape (expected a list of strings)")
			return nil
		}
		out = append(out, s)
	}
	return out
}

func decodeCorrections(p *Patch, value interface{}) []string {
	seq, ok := value.([]interface{})
	if !ok {
		p.reject(FieldCorrections, "has wrong shape (expected a list of field names)")
		return nil
	}
	out := make([]string, 0, len(seq))
	for _, e := range seq {
		s, ok := e.(string)
		if !ok {
			p.reject(FieldCorrections, "has wrong shape (expected a list of field names)")
			continue
		}
		if _, scalar := scalarFields[s]; !scalar {
			p.reject(FieldCorrections, fmt.Sprintf("names %q, which is not a correctable text section", s))
			continue
		}
		out = append(out, s)
	}
	return out
}
