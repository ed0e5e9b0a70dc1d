package interview

import (
	"context"
	"errors"
	"testing"

	"github.com/entrhq/concierge/pkg/bank"
	"github.com/entrhq/concierge/pkg/extract"
	"github.com/entrhq/concierge/pkg/llm"
	"github.com/entrhq/concierge/pkg/llm/llmtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scriptedAnswers(answers ...string) AnswerSource {
	i := 0
	return AnswerSourceFunc(func(_ context.Context, _ string) (string, error) {
		if i >= len(answers) {
			return DoneSentinel, nil
		}
		a := answers[i]
		i++
		return a, nil
	})
}

func TestRunConvergesOnModelSentinel(t *testing.T) {
	questions := llmtest.NewStub("What should the output format be?", "DONE")
	extraction := llmtest.NewStub(`{"desired_outputs": "One of: positive, negative, neutral"}`)
	c := NewController(questions, extract.New(extraction), scriptedAnswers("one of three labels"))

	res, err := c.Run(context.Background(), bank.New())
	require.NoError(t, err)

	assert.False(t, res.Exhausted)
	assert.Equal(t, StateConverged, c.State())
	require.Len(t, res.Rounds, 1)
	assert.Equal(t, "What should the output format be?", res.Rounds[0].Question)
	assert.Equal(t, "one of three labels", res.Rounds[0].Answer)
	assert.Equal(t, "One of: positive, negative, neutral", res.Bank.DesiredOutputs)
}

func TestRunConvergesOnHumanSentinel(t *testing.T) {
	questions := llmtest.NewStub("Anything else?")
	c := NewController(questions, extract.New(llmtest.NewStub()), scriptedAnswers("DONE"))

	res, err := c.Run(context.Background(), bank.New())
	require.NoError(t, err)

	assert.False(t, res.Exhausted)
	assert.Empty(t, res.Rounds)
	assert.True(t, res.Bank.IsEmpty())
}

func TestRunTreatsEmptyAnswerAsSentinel(t *testing.T) {
	questions := llmtest.NewStub("Anything else?")
	c := NewController(questions, extract.New(llmtest.NewStub()), scriptedAnswers("   "))

	res, err := c.Run(context.Background(), bank.New())
	require.NoError(t, err)
	assert.False(t, res.Exhausted)
	assert.Empty(t, res.Rounds)
}

func TestRunExhaustsAtRoundCap(t *testing.T) {
	// The model never declares convergence.
	questions := llmtest.NewStub("And what about edge cases?")
	extraction := llmtest.NewStub(`{}`)
	answers := AnswerSourceFunc(func(_ context.Context, _ string) (string, error) {
		return "no idea", nil
	})
	c := NewController(questions, extract.New(extraction), answers, WithMaxRounds(3))

	res, err := c.Run(context.Background(), bank.New())
	require.NoError(t, err)

	assert.True(t, res.Exhausted)
	assert.Len(t, res.Rounds, 3)
	assert.Equal(t, StateConverged, c.State())
}

func TestRunContinuesPastExtractionParseError(t *testing.T) {
	questions := llmtest.NewStub("Q1?", "Q2?", "DONE")
	extraction := llmtest.NewStub("sorry, no JSON today", `{"overview": "recovered"}`)
	c := NewController(questions, extract.New(extraction), scriptedAnswers("a1", "a2"))

	res, err := c.Run(context.Background(), bank.New())
	require.NoError(t, err)

	require.Len(t, res.Rounds, 2)
	assert.True(t, extract.IsPatchParse(res.Rounds[0].Err))
	assert.Nil(t, res.Rounds[0].Report)
	require.NotNil(t, res.Rounds[1].Report)
	assert.Equal(t, "recovered", res.Bank.Overview)
}

func TestRunPropagatesQuestionGenerationError(t *testing.T) {
	questions := llmtest.NewStub()
	questions.Err = &llm.UnavailableError{Provider: "stub", Err: errors.New("connection refused")}
	c := NewController(questions, extract.New(llmtest.NewStub()), scriptedAnswers())

	res, err := c.Run(context.Background(), bank.New())
	require.Error(t, err)
	assert.True(t, llm.IsUnavailable(err))
	require.NotNil(t, res)
	assert.NotNil(t, res.Bank)
}

func TestRunPropagatesExtractionUnavailability(t *testing.T) {
	questions := llmtest.NewStub("Q1?")
	extraction := llmtest.NewStub()
	extraction.Err = &llm.UnavailableError{Provider: "stub", Err: errors.New("timeout")}
	c := NewController(questions, extract.New(extraction), scriptedAnswers("a1"))

	res, err := c.Run(context.Background(), bank.New())
	require.Error(t, err)
	assert.True(t, llm.IsUnavailable(err))
	// The failed round is still on the transcript.
	require.Len(t, res.Rounds, 1)
	assert.Equal(t, "a1", res.Rounds[0].Answer)
}

func TestRunPropagatesAnswerSourceError(t *testing.T) {
	questions := llmtest.NewStub("Q1?")
	answers := AnswerSourceFunc(func(_ context.Context, _ string) (string, error) {
		return "", errors.New("stdin closed")
	})
	c := NewController(questions, extract.New(llmtest.NewStub()), answers)

	_, err := c.Run(context.Background(), bank.New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read answer")
}

func TestRunDoesNotMutateInputBank(t *testing.T) {
	questions := llmtest.NewStub("Q1?", "DONE")
	extraction := llmtest.NewStub(`{"constraints": ["new constraint"]}`)
	c := NewController(questions, extract.New(extraction), scriptedAnswers("a1"))

	orig := bank.New()
	orig.Overview = "stable"

	res, err := c.Run(context.Background(), orig)
	require.NoError(t, err)

	assert.Empty(t, orig.Constraints)
	assert.Equal(t, []string{"new constraint"}, res.Bank.Constraints)
}

func TestRunQuestionCarriesBankSnapshot(t *testing.T) {
	questions := llmtest.NewStub("DONE")
	c := NewController(questions, extract.New(llmtest.NewStub()), scriptedAnswers())

	b := bank.New()
	b.Overview = "Classify sentiment of a sentence"
	_, err := c.Run(context.Background(), b)
	require.NoError(t, err)

	calls := questions.Calls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].Messages[1].Content, "Classify sentiment of a sentence")
}

func TestIsSentinel(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{in: "DONE", want: true},
		{in: "done", want: true},
		{in: " Done. ", want: true},
		{in: `"DONE"`, want: true},
		{in: "DONE asking now", want: false},
		{in: "Is the task done?", want: false},
		{in: "", want: false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, isSentinel(tt.in), "input %q", tt.in)
	}
}
