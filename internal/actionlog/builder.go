// Package actionlog replays an analysis snapshot as a paced list of manual
// cleanup steps, one per category, slow enough for a person to follow.
package actionlog

import (
	"context"
	"errors"
	"time"

	"golang.org/x/time/rate"

	"mailsweep/internal/model"
)

// DefaultInterval is the pause before each record.
const DefaultInterval = time.Second

var (
	ErrFailedSnapshot = errors.New("analysis failed; nothing to replay")
	ErrNothingFound   = errors.New("analysis found no matching messages")
)

type config struct {
	interval time.Duration
	now      func() time.Time
}

type Option func(*config)

// WithInterval sets the pause between records. Zero or less emits without pausing.
func WithInterval(d time.Duration) Option {
	return func(c *config) { c.interval = d }
}

func WithClock(now func() time.Time) Option {
	return func(c *config) { c.now = now }
}

// Sequence is a finite stream of records. It cannot be restarted; build a new
// one instead.
type Sequence struct {
	records <-chan model.ManualActionRecord
	cancel  context.CancelFunc
	total   int
}

// Build starts emitting one record per snapshot row, in row order. It refuses
// failed snapshots and snapshots where nothing matched.
func Build(ctx context.Context, snap model.Snapshot, opts ...Option) (*Sequence, error) {
	if snap.Failed() {
		return nil, ErrFailedSnapshot
	}
	if snap.TotalEstimated <= 0 {
		return nil, ErrNothingFound
	}
	cfg := config{interval: DefaultInterval, now: time.Now}
	for _, o := range opts {
		o(&cfg)
	}

	limit := rate.Inf
	if cfg.interval > 0 {
		limit = rate.Every(cfg.interval)
	}
	lim := rate.NewLimiter(limit, 1)
	// spend the initial token so the first record also waits an interval
	lim.Allow()

	rows := append([]model.QueryResult(nil), snap.Results...)
	ctx, cancel := context.WithCancel(ctx)
	out := make(chan model.ManualActionRecord)
	go func() {
		defer close(out)
		for _, r := range rows {
			if err := lim.Wait(ctx); err != nil {
				return
			}
			rec := model.ManualActionRecord{
				Category:   r.CategoryName,
				Query:      r.Query,
				Count:      r.Estimated,
				RecordedAt: cfg.now(),
			}
			select {
			case out <- rec:
			case <-ctx.Done():
				return
			}
		}
	}()
	return &Sequence{records: out, cancel: cancel, total: len(rows)}, nil
}

// Records is closed after the last record or once the sequence is stopped.
func (s *Sequence) Records() <-chan model.ManualActionRecord { return s.records }

// Len is the number of records the sequence will emit if not stopped.
func (s *Sequence) Len() int { return s.total }

// Next blocks for the next record. ok is false when the sequence is exhausted,
// stopped, or ctx is done.
func (s *Sequence) Next(ctx context.Context) (rec model.ManualActionRecord, ok bool) {
	select {
	case rec, ok = <-s.records:
		return rec, ok
	case <-ctx.Done():
		return model.ManualActionRecord{}, false
	}
}

// Stop abandons the remaining records.
func (s *Sequence) Stop() { s.cancel() }

// Collect drains the sequence into a slice.
func Collect(ctx context.Context, s *Sequence) []model.ManualActionRecord {
	out := make([]model.ManualActionRecord, 0, s.Len())
	for {
		rec, ok := s.Next(ctx)
		if !ok {
			return out
		}
		out = append(out, rec)
	}
}
