package gmail

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"mailsweep/internal/model"
	"mailsweep/internal/util"
)

// DefaultTimeout bounds every remote call made by EstimateClient.
const DefaultTimeout = 10 * time.Second

// EstimateClient wraps a Searcher so that remote failures become values.
// One attempt per call, no retries.
type EstimateClient struct {
	searcher Searcher
	timeout  time.Duration
	log      logrus.FieldLogger
}

func NewEstimateClient(s Searcher, timeout time.Duration) *EstimateClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &EstimateClient{searcher: s, timeout: timeout, log: util.Log}
}

// Estimate never fails: errors resolve to a zero count with StatusFailed.
func (c *EstimateClient) Estimate(ctx context.Context, query string) model.Estimate {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	n, err := c.searcher.Estimate(ctx, query)
	if err != nil {
		c.log.WithFields(logrus.Fields{"query": query, "error": err}).Warn("estimate failed, counting as zero")
		return model.Estimate{Status: model.StatusFailed, Reason: err.Error()}
	}
	if n < 0 {
		n = 0
	}
	c.log.WithFields(logrus.Fields{"query": query, "count": n}).Debug("estimate")
	return model.Estimate{Count: n, Status: model.StatusOK}
}

// Profile looks up the mailbox total. A failure yields an unknown status whose
// label is model.ProfileUnavailable.
func (c *EstimateClient) Profile(ctx context.Context) model.ProfileStatus {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	p, err := c.searcher.Profile(ctx)
	if err != nil {
		c.log.WithError(err).Warn("profile lookup failed")
		return model.ProfileStatus{Err: err}
	}
	return model.ProfileStatus{Known: true, Profile: p}
}
