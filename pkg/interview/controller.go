// Package interview implements the clarifying-question loop: ask, collect
// an answer, extract a patch, merge, and repeat until the model declares
// convergence or the round cap is reached.
package interview

import (
	"context"
	"fmt"
	"strings"

	"github.com/entrhq/concierge/pkg/bank"
	"github.com/entrhq/concierge/pkg/extract"
	"github.com/entrhq/concierge/pkg/llm"
	"github.com/entrhq/concierge/pkg/logging"
	"github.com/entrhq/concierge/pkg/types"
)

// DoneSentinel is the reply that signals convergence: from the model, "no
// further questions"; from the human, "stop asking me".
const DoneSentinel = "DONE"

// DefaultMaxRounds caps the interview when the model never declares
// convergence.
const DefaultMaxRounds = 8

// State is the controller's position in the interview loop.
type State string

const (
	StateAsking         State = "asking"          // generating the next clarifying question
	StateAwaitingAnswer State = "awaiting_answer" // blocked on human input
	StateMerging        State = "merging"         // extracting and merging the answer
	StateConverged      State = "converged"       // terminal
)

// questionSystemPrompt frames question generation.
const questionSystemPrompt = "You are a diligent analyst collecting requirements for an AI system."

// questionUserTemplate carries the current task specification.
const questionUserTemplate = "Current task specification JSON:\n%s\n\nAsk one precise follow-up question to clarify requirements further. If no further clarification is needed and the task is specified unambiguously and precisely, reply with DONE."

// AnswerSource supplies one free-text human answer per question. ReadAnswer
// is the single blocking point of the whole core; everything else is a
// provider call.
type AnswerSource interface {
	ReadAnswer(ctx context.Context, question string) (string, error)
}

// AnswerSourceFunc adapts a function to the AnswerSource interface.
type AnswerSourceFunc func(ctx context.Context, question string) (string, error)

// ReadAnswer implements AnswerSource.
func (f AnswerSourceFunc) ReadAnswer(ctx context.Context, question string) (string, error) {
	return f(ctx, question)
}

// Round records one completed question/answer exchange.
type Round struct {
	Question string
	Answer   string

	// Report is the merge outcome for this round, nil when extraction
	// failed.
	Report *bank.Report

	// Err records an extraction failure for this round. The interview
	// continues past it; the round simply contributed nothing.
	Err error
}

// Result is the outcome of a completed interview.
type Result struct {
	// Bank is the knowledge bank after all merges.
	Bank *bank.KnowledgeBank

	// Rounds lists every completed exchange in order.
	Rounds []Round

	// Exhausted is set when the round cap was reached without the model
	// declaring convergence. It is a status, not an error: the bank is
	// still valid, the caller just knows convergence was forced.
	Exhausted bool
}

// Controller runs the interview loop. It is single-goroutine: one provider
// call is in flight at a time because each step depends on the previous
// merge result and on freshly collected input.
type Controller struct {
	provider  llm.Provider
	extractor *extract.Extractor
	answers   AnswerSource
	maxRounds int
	log       *logging.Logger
	state     State
}

// Option configures a Controller.
type Option func(*Controller)

// WithMaxRounds overrides the interview round cap.
func WithMaxRounds(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.maxRounds = n
		}
	}
}

// WithLogger sets the debug logger.
func WithLogger(l *logging.Logger) Option {
	return func(c *Controller) {
		c.log = l
	}
}

// NewController creates an interview controller.
func NewController(provider llm.Provider, extractor *extract.Extractor, answers AnswerSource, opts ...Option) *Controller {
	c := &Controller{
		provider:  provider,
		extractor: extractor,
		answers:   answers,
		maxRounds: DefaultMaxRounds,
		state:     StateAsking,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the controller's current position in the loop.
func (c *Controller) State() State {
	return c.state
}

// Run executes the interview against a starting bank and returns the
// enriched result. The input bank is never mutated.
//
// Termination is guaranteed: organically when the model replies with the
// sentinel (or the human does), structurally by the round cap. Extraction
// failures within a round are recovered by moving on; provider
// unavailability is propagated with the progress made so far.
func (c *Controller) Run(ctx context.Context, b *bank.KnowledgeBank) (*Result, error) {
	cur := b.Clone()
	res := &Result{Bank: cur}

	for round := 0; round < c.maxRounds; round++ {
		c.state = StateAsking
		question, err := c.ask(ctx, cur)
		if err != nil {
			res.Bank = cur
			return res, err
		}
		if isSentinel(question) {
			c.log.Infof("model declared convergence after %d rounds", round)
			c.state = StateConverged
			res.Bank = cur
			return res, nil
		}

		c.state = StateAwaitingAnswer
		answer, err := c.answers.ReadAnswer(ctx, question)
		if err != nil {
			res.Bank = cur
			return res, fmt.Errorf("interview: failed to read answer: %w", err)
		}
		answer = strings.TrimSpace(answer)
		if answer == "" || isSentinel(answer) {
			c.log.Infof("caller ended interview after %d rounds", round)
			c.state = StateConverged
			res.Bank = cur
			return res, nil
		}

		c.state = StateMerging
		r := Round{Question: question, Answer: answer}
		patch, err := c.extractor.ExtractAnswer(ctx, cur, question, answer)
		switch {
		case extract.IsPatchParse(err):
			// No information this round; keep interviewing.
			c.log.Warnf("round %d extraction failed: %v", round+1, err)
			r.Err = err
		case err != nil:
			res.Bank = cur
			res.Rounds = append(res.Rounds, r)
			return res, err
		default:
			cur, r.Report = bank.Merge(cur, patch)
			c.log.Debugf("round %d merged fields: %v", round+1, r.Report.Applied)
		}
		res.Rounds = append(res.Rounds, r)
	}

	c.state = StateConverged
	res.Bank = cur
	res.Exhausted = true
	c.log.Infof("interview exhausted after %d rounds without model convergence", c.maxRounds)
	return res, nil
}

// ask requests one clarifying question from the collaborator.
func (c *Controller) ask(ctx context.Context, cur *bank.KnowledgeBank) (string, error) {
	rendered, err := cur.ToJSON()
	if err != nil {
		return "", fmt.Errorf("interview: %w", err)
	}

	messages := []*types.Message{
		types.NewSystemMessage(questionSystemPrompt),
		types.NewUserMessage(fmt.Sprintf(questionUserTemplate, rendered)),
	}
	resp, err := c.provider.Complete(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("interview: question generation failed: %w", err)
	}
	return strings.TrimSpace(resp.Content), nil
}

// isSentinel reports whether a reply is the convergence sentinel, with
// some tolerance for decoration the model adds around it.
func isSentinel(s string) bool {
	s = strings.Trim(strings.TrimSpace(s), "\"'.!")
	return strings.EqualFold(s, DoneSentinel)
}
