package extract

import (
	"encoding/json"

	"github.com/entrhq/concierge/pkg/llm"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// patchSchemaJSON is the JSON Schema for a knowledge-bank patch. It is
// sent to the provider as the structured-output contract and used locally
// to surface shape violations before field-level decoding.
const patchSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "title": "knowledge_patch",
  "type": "object",
  "properties": {
    "overview": {
      "type": "string",
      "description": "New or corrected task description text."
    },
    "inputs": {
      "type": "string",
      "description": "New facts about expected input shape or edge cases."
    },
    "desired_outputs": {
      "type": "string",
      "description": "New facts about expected output shape or format."
    },
    "constraints": {
      "type": "array",
      "items": {"type": "string"},
      "description": "New constraint statements, one per entry."
    },
    "style_guidelines": {
      "type": "string",
      "description": "New tone or style requirements."
    },
    "examples": {
      "type": "array",
      "description": "High-quality examples that add new information."
    },
    "misc": {
      "type": "object",
      "description": "Uncategorised facts under a suitable descriptor key."
    },
    "corrections": {
      "type": "array",
      "items": {
        "type": "string",
        "enum": ["overview", "inputs", "desired_outputs", "style_guidelines"]
      },
      "description": "Text sections whose new value replaces the recorded one instead of extending it."
    }
  },
  "additionalProperties": false
}`

// patchSchema validates raw collaborator output. Violations are tolerated
// field by field during decoding; validation exists to log what the model
// got wrong.
var patchSchema = jsonschema.MustCompileString("patch.json", patchSchemaJSON)

// responseSchema is the provider-side structured output request.
var responseSchema = mustResponseSchema()

func mustResponseSchema() *llm.ResponseSchema {
	var doc map[string]interface{}
	if err := json.Unmarshal([]byte(patchSchemaJSON), &doc); err != nil {
		panic("extract: invalid embedded patch schema: " + err.Error())
	}
	return &llm.ResponseSchema{
		Name:   "knowledge_patch",
		Schema: doc,
	}
}
