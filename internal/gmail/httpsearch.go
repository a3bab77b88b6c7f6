package gmail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	"mailsweep/internal/model"
)

const (
	profilePath = "/api/gmail/profile"
	searchPath  = "/api/gmail/search"
)

// HTTPSearcher calls a Gmail bridge exposing GET /api/gmail/profile and
// POST /api/gmail/search {"query": ...}.
type HTTPSearcher struct {
	base   string
	client *http.Client
}

func NewHTTPSearcher(endpoint string, client *http.Client) *HTTPSearcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPSearcher{base: strings.TrimRight(endpoint, "/"), client: client}
}

func (s *HTTPSearcher) Profile(ctx context.Context) (model.Profile, error) {
	body, err := s.do(ctx, http.MethodGet, profilePath, nil)
	if err != nil {
		return model.Profile{}, err
	}
	total := gjson.GetBytes(body, "messagesTotal")
	if !total.Exists() {
		return model.Profile{}, fmt.Errorf("profile response: missing messagesTotal")
	}
	return model.Profile{
		EmailAddress:  gjson.GetBytes(body, "emailAddress").String(),
		MessagesTotal: total.Int(),
	}, nil
}

// Estimate treats a missing resultSizeEstimate as zero matches; Gmail omits
// the field when nothing matches.
func (s *HTTPSearcher) Estimate(ctx context.Context, query string) (int64, error) {
	payload, err := json.Marshal(map[string]string{"query": query})
	if err != nil {
		return 0, err
	}
	body, err := s.do(ctx, http.MethodPost, searchPath, payload)
	if err != nil {
		return 0, err
	}
	if !gjson.ValidBytes(body) {
		return 0, fmt.Errorf("search %q: invalid JSON response", query)
	}
	return gjson.GetBytes(body, "resultSizeEstimate").Int(), nil
}

func (s *HTTPSearcher) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	var rd io.Reader
	if payload != nil {
		rd = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, s.base+path, rd)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
	}
	return body, nil
}
