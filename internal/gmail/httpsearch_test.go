package gmail

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func testBridge(t *testing.T) (*httptest.Server, *[]string) {
	t.Helper()
	var queries []string
	mux := http.NewServeMux()
	mux.HandleFunc(profilePath, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method", http.StatusMethodNotAllowed)
			return
		}
		io.WriteString(w, `{"emailAddress":"me@example.com","messagesTotal":5120}`)
	})
	mux.HandleFunc(searchPath, func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Query string `json:"query"`
		}
		if r.Method != http.MethodPost || json.NewDecoder(r.Body).Decode(&body) != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		queries = append(queries, body.Query)
		switch body.Query {
		case "category:social":
			io.WriteString(w, `{"resultSizeEstimate":17}`)
		case "empty":
			io.WriteString(w, `{}`)
		case "garbage":
			io.WriteString(w, `not json`)
		default:
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &queries
}

func TestHTTPSearcher_Estimate(t *testing.T) {
	srv, queries := testBridge(t)
	s := NewHTTPSearcher(srv.URL+"/", srv.Client())
	ctx := context.Background()

	n, err := s.Estimate(ctx, "category:social")
	if err != nil || n != 17 {
		t.Fatalf("n=%d err=%v", n, err)
	}
	n, err = s.Estimate(ctx, "empty")
	if err != nil || n != 0 {
		t.Fatalf("missing field: n=%d err=%v", n, err)
	}
	if _, err := s.Estimate(ctx, "garbage"); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
	if _, err := s.Estimate(ctx, "other"); err == nil {
		t.Fatal("expected error for 503")
	}
	if len(*queries) != 4 || (*queries)[0] != "category:social" {
		t.Fatalf("queries %v", *queries)
	}
}

func TestHTTPSearcher_Profile(t *testing.T) {
	srv, _ := testBridge(t)
	p, err := NewHTTPSearcher(srv.URL, nil).Profile(context.Background())
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if p.MessagesTotal != 5120 || p.EmailAddress != "me@example.com" {
		t.Fatalf("got %+v", p)
	}
}

func TestHTTPSearcher_Unreachable(t *testing.T) {
	srv, _ := testBridge(t)
	url := srv.URL
	srv.Close()
	if _, err := NewHTTPSearcher(url, nil).Profile(context.Background()); err == nil {
		t.Fatal("expected connectivity error")
	}
}
