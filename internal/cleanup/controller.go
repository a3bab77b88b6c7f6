// Package cleanup owns one interactive session: the selection, the latest
// analysis snapshot and the manual-action log derived from it. Every piece of
// state is replaced wholesale and handed out as a copy.
package cleanup

import (
	"context"
	"errors"
	"sync"
	"time"

	"mailsweep/internal/actionlog"
	"mailsweep/internal/analysis"
	"mailsweep/internal/catalog"
	"mailsweep/internal/export"
	"mailsweep/internal/model"
	"mailsweep/internal/query"
)

var (
	ErrNothingSelected = errors.New("select at least one category")
	ErrSuperseded      = errors.New("analysis superseded by a newer run")
	ErrNoSnapshot      = errors.New("run an analysis first")
)

// Backend is what the controller needs from the remote side.
// gmail.EstimateClient implements it.
type Backend interface {
	analysis.Estimator
	Profile(ctx context.Context) model.ProfileStatus
}

type Controller struct {
	cat     *catalog.Catalog
	backend Backend
	agg     *analysis.Aggregator
	pace    time.Duration

	mu        sync.Mutex
	sel       model.Selection
	profile   model.ProfileStatus
	state     model.State
	snap      *model.Snapshot
	runID     uint64
	cancelRun context.CancelFunc
	seq       *actionlog.Sequence
	actions   []model.ManualActionRecord
}

type Option func(*Controller)

// WithPace sets the delay between manual-action records.
func WithPace(d time.Duration) Option {
	return func(c *Controller) { c.pace = d }
}

// WithAggregator replaces the default aggregator built on the backend.
func WithAggregator(a *analysis.Aggregator) Option {
	return func(c *Controller) { c.agg = a }
}

func New(cat *catalog.Catalog, backend Backend, initial model.Selection, opts ...Option) *Controller {
	c := &Controller{
		cat:     cat,
		backend: backend,
		pace:    actionlog.DefaultInterval,
		sel:     initial,
	}
	for _, o := range opts {
		o(c)
	}
	if c.agg == nil {
		var est analysis.Estimator
		if backend != nil {
			est = backend
		}
		c.agg = analysis.New(est)
	}
	return c
}

func (c *Controller) Catalog() *catalog.Catalog { return c.cat }

func (c *Controller) Selection() model.Selection {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sel
}

// Toggle adds or removes one category.
func (c *Controller) Toggle(id string) error {
	if err := c.cat.Validate([]string{id}); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sel = c.sel.Toggle(id)
	return nil
}

// Select replaces the selected categories.
func (c *Controller) Select(ids ...string) error {
	if err := c.cat.Validate(ids); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sel = model.NewSelection(ids, c.sel.Days())
	return nil
}

func (c *Controller) SetTimeRange(tr query.TimeRange) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sel = c.sel.WithDays(tr.Days())
}

func (c *Controller) TimeRange() query.TimeRange {
	return query.RangeOf(c.Selection())
}

// Queries composes the current selection. Always freshly built.
func (c *Controller) Queries() []model.ComposedQuery {
	return query.Compose(c.cat, c.Selection())
}

// RefreshProfile looks up the mailbox total and keeps the result.
func (c *Controller) RefreshProfile(ctx context.Context) model.ProfileStatus {
	var st model.ProfileStatus
	if c.backend == nil {
		st = model.ProfileStatus{Err: errors.New("no backend configured")}
	} else {
		st = c.backend.Profile(ctx)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.profile = st
	return st
}

func (c *Controller) Profile() model.ProfileStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.profile
}

func (c *Controller) State() model.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Snapshot returns the latest applied snapshot, if any.
func (c *Controller) Snapshot() (model.Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.snap == nil {
		return model.Snapshot{}, false
	}
	return c.snap.Clone(), true
}

// Analyze runs a new analysis over the current selection. Starting a run
// cancels any run still in flight and clears the action log. Each run takes a
// monotonic id; a run that is overtaken returns ErrSuperseded and its result
// is never applied. progress is only called while the run is current.
func (c *Controller) Analyze(ctx context.Context, progress func(runID uint64, p analysis.Progress)) (model.Snapshot, error) {
	c.mu.Lock()
	qs := query.Compose(c.cat, c.sel)
	if len(qs) == 0 {
		c.mu.Unlock()
		return model.Snapshot{}, ErrNothingSelected
	}
	if c.cancelRun != nil {
		c.cancelRun()
	}
	c.runID++
	id := c.runID
	runCtx, cancel := context.WithCancel(ctx)
	c.cancelRun = cancel
	c.state = model.StateRunning
	c.resetActionsLocked()
	c.mu.Unlock()
	defer cancel()

	var report func(analysis.Progress)
	if progress != nil {
		report = func(p analysis.Progress) {
			if c.current(id) {
				progress(id, p)
			}
		}
	}
	snap, err := c.agg.Run(runCtx, qs, report)

	c.mu.Lock()
	defer c.mu.Unlock()
	if id != c.runID {
		return snap, ErrSuperseded
	}
	c.cancelRun = nil
	if err != nil {
		c.state = model.StateIdle
		return snap, err
	}
	snap.RunID = id
	applied := snap.Clone()
	c.snap = &applied
	if snap.Failed() {
		c.state = model.StateFailed
	} else {
		c.state = model.StateCompleted
	}
	return snap, nil
}

func (c *Controller) current(id uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.runID == id
}

// StartActionLog begins replaying the latest snapshot. Any earlier replay is
// stopped and the log is cleared.
func (c *Controller) StartActionLog(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.snap == nil || c.state == model.StateRunning {
		return ErrNoSnapshot
	}
	seq, err := actionlog.Build(ctx, *c.snap, actionlog.WithInterval(c.pace))
	if err != nil {
		return err
	}
	c.resetActionsLocked()
	c.seq = seq
	return nil
}

// NextAction waits for the next record of the running replay and appends it
// to the log. ok is false once the replay is exhausted or replaced.
func (c *Controller) NextAction(ctx context.Context) (model.ManualActionRecord, bool) {
	c.mu.Lock()
	seq := c.seq
	c.mu.Unlock()
	if seq == nil {
		return model.ManualActionRecord{}, false
	}
	rec, ok := seq.Next(ctx)
	if !ok {
		return model.ManualActionRecord{}, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.seq != seq {
		return model.ManualActionRecord{}, false
	}
	next := make([]model.ManualActionRecord, len(c.actions), len(c.actions)+1)
	copy(next, c.actions)
	c.actions = append(next, rec)
	return rec, true
}

func (c *Controller) ActionLog() []model.ManualActionRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.ManualActionRecord(nil), c.actions...)
}

func (c *Controller) resetActionsLocked() {
	if c.seq != nil {
		c.seq.Stop()
		c.seq = nil
	}
	c.actions = nil
}

// Export builds the shareable document for the current selection.
func (c *Controller) Export(now time.Time) export.Document {
	c.mu.Lock()
	sel, profile := c.sel, c.profile
	c.mu.Unlock()
	return export.Build(query.Compose(c.cat, sel), query.RangeOf(sel), profile, now)
}

// Close cancels any in-flight run and replay.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancelRun != nil {
		c.cancelRun()
		c.cancelRun = nil
	}
	c.resetActionsLocked()
}
