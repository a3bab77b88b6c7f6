package gmail

import (
	"context"
	"fmt"

	gmailv1 "google.golang.org/api/gmail/v1"

	"mailsweep/internal/model"
)

const me = "me"

// Searcher is the remote side of an analysis: a mailbox profile lookup and a
// result-size estimate for one Gmail search expression.
type Searcher interface {
	Profile(ctx context.Context) (model.Profile, error)
	Estimate(ctx context.Context, query string) (int64, error)
}

// APISearcher talks to the Gmail REST API.
type APISearcher struct {
	svc *gmailv1.Service
}

func NewAPISearcher(svc *gmailv1.Service) *APISearcher {
	return &APISearcher{svc: svc}
}

func (s *APISearcher) Profile(ctx context.Context) (model.Profile, error) {
	p, err := s.svc.Users.GetProfile(me).Context(ctx).Do()
	if err != nil {
		return model.Profile{}, fmt.Errorf("get profile: %w", err)
	}
	return model.Profile{EmailAddress: p.EmailAddress, MessagesTotal: p.MessagesTotal}, nil
}

// Estimate asks for a single message so Gmail does as little work as possible;
// only ResultSizeEstimate is read from the response.
func (s *APISearcher) Estimate(ctx context.Context, query string) (int64, error) {
	resp, err := s.svc.Users.Messages.List(me).
		Q(query).
		MaxResults(1).
		Fields("resultSizeEstimate").
		Context(ctx).
		Do()
	if err != nil {
		return 0, fmt.Errorf("search %q: %w", query, err)
	}
	return resp.ResultSizeEstimate, nil
}
