// Package agent provides the Concierge session type that ties the learning
// surfaces together: interviewing a human, learning from production events,
// and synthesizing the final prompt, all against one knowledge bank.
//
// A Concierge is the long-lived object of this module. Construct it once,
// feed it knowledge over days or weeks, and regenerate the prompt whenever
// the bank changes:
//
//	import "github.com/entrhq/concierge/pkg/agent"
//	con, err := agent.New(provider, agent.WithSeedJSON(seed))
package agent

import (
	"context"
	"fmt"
	"sync"

	"github.com/entrhq/concierge/pkg/bank"
	"github.com/entrhq/concierge/pkg/events"
	"github.com/entrhq/concierge/pkg/extract"
	"github.com/entrhq/concierge/pkg/interview"
	"github.com/entrhq/concierge/pkg/llm"
	"github.com/entrhq/concierge/pkg/logging"
	"github.com/entrhq/concierge/pkg/synth"
	"github.com/entrhq/concierge/pkg/types"
)

// Concierge accumulates task knowledge across learning sessions and
// synthesizes prompts from it. All methods are safe for concurrent use;
// bank updates are serialized.
type Concierge struct {
	provider    llm.Provider
	extractor   *extract.Extractor
	synthesizer *synth.Synthesizer
	eventCtl    *events.Controller
	log         *logging.Logger

	maxRounds int
	eventOpts []events.Option

	mu   sync.Mutex
	bank *bank.KnowledgeBank
}

// Option configures a Concierge.
type Option func(*Concierge) error

// WithBank seeds the session with an existing knowledge bank. The bank is
// cloned; the caller's copy stays independent.
func WithBank(b *bank.KnowledgeBank) Option {
	return func(c *Concierge) error {
		c.bank = b.Clone()
		return nil
	}
}

// WithSeedJSON seeds the session from raw JSON, merged into an empty bank
// under the same rules as any extracted patch. Malformed fields in the
// seed are an error rather than a silent skip: a seed is authored by the
// caller, not by a model.
func WithSeedJSON(raw []byte) Option {
	return func(c *Concierge) error {
		patch, err := bank.DecodePatch(raw)
		if err != nil {
			return fmt.Errorf("agent: invalid seed: %w", err)
		}
		if len(patch.Malformed) > 0 {
			return fmt.Errorf("agent: invalid seed field %q: %s",
				patch.Malformed[0].Field, patch.Malformed[0].Reason)
		}
		c.bank, _ = bank.Merge(bank.New(), patch)
		return nil
	}
}

// WithMaxRounds caps the interview loop.
func WithMaxRounds(n int) Option {
	return func(c *Concierge) error {
		if n < 1 {
			return fmt.Errorf("agent: max rounds must be at least 1, got %d", n)
		}
		c.maxRounds = n
		return nil
	}
}

// WithEventOptions forwards options to the event-learning controller, e.g.
// events.WithTypeFilter or events.WithConcurrency.
func WithEventOptions(opts ...events.Option) Option {
	return func(c *Concierge) error {
		c.eventOpts = append(c.eventOpts, opts...)
		return nil
	}
}

// WithLogger sets the session logger, shared with every component.
func WithLogger(l *logging.Logger) Option {
	return func(c *Concierge) error {
		c.log = l
		return nil
	}
}

// New creates a concierge session over the given provider.
func New(provider llm.Provider, opts ...Option) (*Concierge, error) {
	c := &Concierge{
		provider:  provider,
		bank:      bank.New(),
		maxRounds: interview.DefaultMaxRounds,
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	c.extractor = extract.New(provider, extract.WithLogger(c.log))
	c.synthesizer = synth.New(provider, synth.WithLogger(c.log))

	eventOpts := append([]events.Option{events.WithLogger(c.log)}, c.eventOpts...)
	eventCtl, err := events.NewController(c.extractor, eventOpts...)
	if err != nil {
		return nil, err
	}
	c.eventCtl = eventCtl

	return c, nil
}

// Bank returns a snapshot of the current knowledge bank. The snapshot is a
// deep copy; mutating it does not affect the session.
func (c *Concierge) Bank() *bank.KnowledgeBank {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bank.Clone()
}

// LearnFromUser runs an interview against the current bank and folds the
// result in. Progress made before a provider failure is kept.
func (c *Concierge) LearnFromUser(ctx context.Context, answers interview.AnswerSource) (*interview.Result, error) {
	ctl := interview.NewController(c.provider, c.extractor, answers,
		interview.WithMaxRounds(c.maxRounds),
		interview.WithLogger(c.log),
	)

	res, err := ctl.Run(ctx, c.Bank())
	if res != nil && res.Bank != nil {
		c.adopt(res.Bank)
	}
	return res, err
}

// LearnFromEvents folds a batch of production events into the bank.
// Progress made before a provider failure is kept.
func (c *Concierge) LearnFromEvents(ctx context.Context, batch []events.Event) (*events.BatchReport, error) {
	merged, report, err := c.eventCtl.Learn(ctx, c.Bank(), batch)
	if merged != nil {
		c.adopt(merged)
	}
	return report, err
}

// GeneratePrompt synthesizes the downstream system prompt from the current
// bank.
func (c *Concierge) GeneratePrompt(ctx context.Context) (string, error) {
	return c.synthesizer.Synthesize(ctx, c.Bank())
}

// StreamPrompt synthesizes the downstream system prompt as a chunk stream.
func (c *Concierge) StreamPrompt(ctx context.Context) (<-chan *llm.StreamChunk, error) {
	return c.synthesizer.Stream(ctx, c.Bank())
}

// Usage returns cumulative extraction token usage for the session.
func (c *Concierge) Usage() types.TokenUsage {
	return c.extractor.Usage()
}

func (c *Concierge) adopt(b *bank.KnowledgeBank) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bank = b
}
