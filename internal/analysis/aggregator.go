// Package analysis estimates match counts for a set of composed queries and
// folds them into a single snapshot.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"mailsweep/internal/model"
	"mailsweep/internal/util"
)

// ErrNothingToAnalyze is returned, without running anything, for an empty
// query list.
var ErrNothingToAnalyze = errors.New("nothing to analyze: no categories selected")

// FailureMessage is the user-facing error carried by a failed snapshot.
const FailureMessage = "Failed to analyze emails. Please check Gmail connection."

var errNoEstimator = errors.New("no estimator configured")

// Estimator resolves one query to a count. Implementations must not fail;
// see gmail.EstimateClient.
type Estimator interface {
	Estimate(ctx context.Context, query string) model.Estimate
}

// Progress is reported after each query finishes.
type Progress struct {
	Done   int
	Total  int
	Result model.QueryResult
	Sum    int64 // running total so far
}

type Aggregator struct {
	est Estimator
	now func() time.Time
	log logrus.FieldLogger
}

type Option func(*Aggregator)

// WithClock overrides the completion timestamp source.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) { a.now = now }
}

func New(est Estimator, opts ...Option) *Aggregator {
	a := &Aggregator{est: est, now: time.Now, log: util.Log}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Run estimates every query sequentially in the given order. A query whose
// estimate fails counts as zero and the run continues; only run-level
// problems (no estimator, cancellation, a panicking estimator) produce a
// failed snapshot. The returned error is non-nil only for ErrNothingToAnalyze.
func (a *Aggregator) Run(ctx context.Context, queries []model.ComposedQuery, progress func(Progress)) (snap model.Snapshot, err error) {
	if len(queries) == 0 {
		return model.Snapshot{}, ErrNothingToAnalyze
	}
	if a.est == nil {
		return a.failed(errNoEstimator), nil
	}
	defer func() {
		if r := recover(); r != nil {
			snap, err = a.failed(fmt.Errorf("panic: %v", r)), nil
		}
	}()

	a.log.WithField("queries", len(queries)).Info("analysis started")
	results := make([]model.QueryResult, 0, len(queries))
	var total int64
	for i, q := range queries {
		if err := ctx.Err(); err != nil {
			return a.failed(err), nil
		}
		e := a.est.Estimate(ctx, q.FullQuery)
		if err := ctx.Err(); err != nil {
			return a.failed(err), nil
		}
		r := model.QueryResult{
			CategoryName: q.CategoryName,
			Query:        q.FullQuery,
			Risk:         q.Risk,
			Estimated:    e.Count,
			Status:       e.Status,
			Reason:       e.Reason,
		}
		if r.Status == "" {
			r.Status = model.StatusOK
		}
		results = append(results, r)
		total += e.Count
		if progress != nil {
			progress(Progress{Done: i + 1, Total: len(queries), Result: r, Sum: total})
		}
	}

	snap = model.Snapshot{
		Results:            results,
		TotalEstimated:     total,
		SpaceReclaimedMB:   model.SpaceMB(total),
		CategoriesAnalyzed: len(queries),
		CompletedAt:        a.now(),
	}
	a.log.WithFields(logrus.Fields{
		"queries": len(queries),
		"total":   total,
		"failed":  snap.FailedQueries(),
	}).Info("analysis completed")
	return snap, nil
}

func (a *Aggregator) failed(cause error) model.Snapshot {
	a.log.WithError(cause).Error("analysis failed")
	return model.Snapshot{
		Results:     []model.QueryResult{},
		CompletedAt: a.now(),
		Error:       FailureMessage,
	}
}
