package bank

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIsWellFormed(t *testing.T) {
	b := New()
	assert.True(t, b.IsEmpty())

	// Renderable even with no accumulated knowledge.
	out, err := b.ToJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"overview": "",
		"inputs": "",
		"desired_outputs": "",
		"constraints": [],
		"style_guidelines": "",
		"examples": [],
		"misc": {}
	}`, out)
}

func TestCloneIsDeep(t *testing.T) {
	b := New()
	b.Constraints = []string{"one"}
	b.Examples = []interface{}{map[string]interface{}{"input": "x"}}
	b.Misc = map[string]interface{}{"nested": map[string]interface{}{"k": "v"}}

	c := b.Clone()
	c.Constraints[0] = "mutated"
	c.Examples[0].(map[string]interface{})["input"] = "mutated"
	c.Misc["nested"].(map[string]interface{})["k"] = "mutated"

	assert.Equal(t, "one", b.Constraints[0])
	assert.Equal(t, "x", b.Examples[0].(map[string]interface{})["input"])
	assert.Equal(t, "v", b.Misc["nested"].(map[string]interface{})["k"])
}

func TestCloneNilBank(t *testing.T) {
	var b *KnowledgeBank
	c := b.Clone()
	require.NotNil(t, c)
	assert.True(t, c.IsEmpty())
}
