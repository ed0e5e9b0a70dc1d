// Package synth renders the knowledge bank into a final system prompt for
// a downstream task model.
package synth

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/entrhq/concierge/pkg/bank"
)

// Section headings used in the deterministic rendering. Empty sections are
// omitted entirely; a heading never appears without content under it.
const (
	headingOverview        = "Overview"
	headingInputs          = "Inputs"
	headingDesiredOutputs  = "Desired Outputs"
	headingConstraints     = "Constraints"
	headingStyleGuidelines = "Style Guidelines"
	headingExamples        = "Examples"
	headingMisc            = "Additional Notes"
)

// Render produces a deterministic plain-text view of the bank: every
// non-empty section under its heading, empty sections omitted. It is pure;
// the same bank always renders to the same text.
func Render(b *bank.KnowledgeBank) string {
	if b == nil {
		return ""
	}

	var sb strings.Builder

	writeText(&sb, headingOverview, b.Overview)
	writeText(&sb, headingInputs, b.Inputs)
	writeText(&sb, headingDesiredOutputs, b.DesiredOutputs)

	if len(b.Constraints) > 0 {
		writeHeading(&sb, headingConstraints)
		for _, c := range b.Constraints {
			fmt.Fprintf(&sb, "- %s\n", c)
		}
		sb.WriteString("\n")
	}

	writeText(&sb, headingStyleGuidelines, b.StyleGuidelines)

	if len(b.Examples) > 0 {
		writeHeading(&sb, headingExamples)
		for _, ex := range b.Examples {
			fmt.Fprintf(&sb, "- %s\n", renderValue(ex))
		}
		sb.WriteString("\n")
	}

	if len(b.Misc) > 0 {
		writeHeading(&sb, headingMisc)
		data, err := json.MarshalIndent(b.Misc, "", "  ")
		if err == nil {
			sb.Write(data)
			sb.WriteString("\n\n")
		}
	}

	return strings.TrimRight(sb.String(), "\n")
}

func writeHeading(sb *strings.Builder, heading string) {
	fmt.Fprintf(sb, "## %s\n\n", heading)
}

func writeText(sb *strings.Builder, heading, text string) {
	if text == "" {
		return
	}
	writeHeading(sb, heading)
	sb.WriteString(text)
	sb.WriteString("\n\n")
}

// renderValue flattens an example record to one line. Strings pass
// through; structured records render as compact JSON.
func renderValue(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
