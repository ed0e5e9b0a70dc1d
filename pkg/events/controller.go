package events

import (
	"context"
	"fmt"

	"github.com/gobwas/glob"
	"golang.org/x/sync/errgroup"

	"github.com/entrhq/concierge/pkg/bank"
	"github.com/entrhq/concierge/pkg/extract"
	"github.com/entrhq/concierge/pkg/logging"
)

// EventReport records the outcome of one event in a batch.
type EventReport struct {
	Event   Event
	Outcome Outcome

	// Report is the merge outcome, nil when extraction failed or the
	// event was skipped by the filter.
	Report *bank.Report

	// Err holds the extraction failure for OutcomeFailed.
	Err error
}

// BatchReport is the per-event outcome list for one Learn call, in the
// order the events were submitted.
type BatchReport struct {
	Events []EventReport
}

// Count returns how many events in the batch ended with the given outcome.
func (r *BatchReport) Count(o Outcome) int {
	n := 0
	for _, e := range r.Events {
		if e.Outcome == o {
			n++
		}
	}
	return n
}

// Controller folds event batches into a knowledge bank. Extraction may run
// in parallel; merging is always serial in event order, so a batch produces
// the same bank regardless of concurrency.
type Controller struct {
	extractor   *extract.Extractor
	filter      glob.Glob
	concurrency int
	log         *logging.Logger
}

// Option configures a Controller.
type Option func(*Controller) error

// WithTypeFilter restricts learning to events whose type matches the glob
// pattern, e.g. "batch_*" or "user_{complaint,report}". Non-matching events
// are reported as skipped.
func WithTypeFilter(pattern string) Option {
	return func(c *Controller) error {
		g, err := glob.Compile(pattern)
		if err != nil {
			return fmt.Errorf("events: invalid type filter %q: %w", pattern, err)
		}
		c.filter = g
		return nil
	}
}

// WithConcurrency bounds parallel extraction. Values above 1 extract
// against the batch-start snapshot; merges stay serial in event order.
func WithConcurrency(n int) Option {
	return func(c *Controller) error {
		if n < 1 {
			return fmt.Errorf("events: concurrency must be at least 1, got %d", n)
		}
		c.concurrency = n
		return nil
	}
}

// WithLogger sets the debug logger.
func WithLogger(l *logging.Logger) Option {
	return func(c *Controller) error {
		c.log = l
		return nil
	}
}

// NewController creates an event-learning controller.
func NewController(extractor *extract.Extractor, opts ...Option) (*Controller, error) {
	c := &Controller{
		extractor:   extractor,
		concurrency: 1,
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Learn folds a batch of events into the bank and returns the enriched
// bank plus a per-event outcome report. The input bank is never mutated.
//
// Extraction failures are per-event: the event is reported as failed and
// the batch continues. Provider unavailability aborts the batch; the
// returned bank and report reflect the progress made before the failure.
func (c *Controller) Learn(ctx context.Context, b *bank.KnowledgeBank, batch []Event) (*bank.KnowledgeBank, *BatchReport, error) {
	cur := b.Clone()
	report := &BatchReport{}

	if c.concurrency > 1 {
		return c.learnParallel(ctx, cur, batch, report)
	}

	for _, ev := range batch {
		if c.skip(ev) {
			report.Events = append(report.Events, EventReport{Event: ev, Outcome: OutcomeSkipped})
			continue
		}

		patch, err := c.extractor.ExtractEvent(ctx, cur, ev)
		if extract.IsPatchParse(err) {
			c.log.Warnf("event %s (%s): extraction failed: %v", ev.ID, ev.Type, err)
			report.Events = append(report.Events, EventReport{Event: ev, Outcome: OutcomeFailed, Err: err})
			continue
		}
		if err != nil {
			return cur, report, err
		}

		var rep *bank.Report
		cur, rep = bank.Merge(cur, patch)
		report.Events = append(report.Events, EventReport{Event: ev, Outcome: outcomeFor(rep), Report: rep})
	}

	return cur, report, nil
}

// learnParallel extracts every event against the batch-start snapshot with
// bounded concurrency, then merges the patches serially in event order.
func (c *Controller) learnParallel(ctx context.Context, cur *bank.KnowledgeBank, batch []Event, report *BatchReport) (*bank.KnowledgeBank, *BatchReport, error) {
	snapshot := cur.Clone()
	patches := make([]*bank.Patch, len(batch))
	failures := make([]error, len(batch))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, ev := range batch {
		if c.skip(ev) {
			continue
		}
		i, ev := i, ev
		g.Go(func() error {
			patch, err := c.extractor.ExtractEvent(gctx, snapshot, ev)
			if extract.IsPatchParse(err) {
				failures[i] = err
				return nil
			}
			if err != nil {
				return err
			}
			patches[i] = patch
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return cur, report, err
	}

	for i, ev := range batch {
		switch {
		case c.skip(ev):
			report.Events = append(report.Events, EventReport{Event: ev, Outcome: OutcomeSkipped})
		case failures[i] != nil:
			c.log.Warnf("event %s (%s): extraction failed: %v", ev.ID, ev.Type, failures[i])
			report.Events = append(report.Events, EventReport{Event: ev, Outcome: OutcomeFailed, Err: failures[i]})
		default:
			var rep *bank.Report
			cur, rep = bank.Merge(cur, patches[i])
			report.Events = append(report.Events, EventReport{Event: ev, Outcome: outcomeFor(rep), Report: rep})
		}
	}

	return cur, report, nil
}

func (c *Controller) skip(ev Event) bool {
	return c.filter != nil && !c.filter.Match(ev.Type)
}

func outcomeFor(rep *bank.Report) Outcome {
	switch {
	case len(rep.Rejected) == 0:
		return OutcomeApplied
	case rep.Changed():
		return OutcomePartial
	default:
		return OutcomeFailed
	}
}
