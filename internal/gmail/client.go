package gmail

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmailv1 "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"mailsweep/internal/util"
)

const (
	credentialsFile = "client_secret.json"
	tokenFile       = "token.json"
)

// Prompt connects the consent flow to whatever front end is running.
// URL receives the consent link once; Code delivers a manually pasted
// authorization code or full redirect URL.
type Prompt struct {
	URL  chan<- string
	Code <-chan string
}

// StdioPrompt prints the consent link to w and reads a pasted code from r.
func StdioPrompt(ctx context.Context, w io.Writer, r io.Reader) Prompt {
	urls := make(chan string, 1)
	codes := make(chan string, 1)
	go func() {
		select {
		case u := <-urls:
			fmt.Fprintln(w, "Open this URL in your browser to authorize mailsweep:")
			fmt.Fprintln(w, u)
			fmt.Fprintln(w, "")
			fmt.Fprintln(w, "Waiting for the redirect. You can also paste the AUTH CODE or the FULL redirect URL here:")
			fmt.Fprint(w, "> ")
		case <-ctx.Done():
			return
		}
		sc := bufio.NewScanner(r)
		sc.Buffer(make([]byte, 0, 1024), 1024*1024)
		if sc.Scan() {
			codes <- strings.TrimSpace(sc.Text())
		}
	}()
	return Prompt{URL: urls, Code: codes}
}

// NewService returns a read-only Gmail service for the authenticated user.
// Credentials live in configDir/client_secret.json and the token cache in
// configDir/token.json. A cached token is verified with a profile lookup and
// discarded if Gmail rejects it.
func NewService(ctx context.Context, configDir string, prompt Prompt) (*gmailv1.Service, error) {
	credPath := filepath.Join(configDir, credentialsFile)
	b, err := os.ReadFile(credPath)
	if err != nil {
		return nil, fmt.Errorf("read credentials at %s: %w", credPath, err)
	}
	cfg, err := google.ConfigFromJSON(b, gmailv1.GmailReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("parse oauth config: %w", err)
	}

	tokPath := filepath.Join(configDir, tokenFile)
	if tok, err := readToken(tokPath); err == nil {
		svc, err := gmailv1.NewService(ctx, option.WithHTTPClient(cfg.Client(ctx, tok)))
		if err == nil {
			_, err = svc.Users.GetProfile(me).Context(ctx).Do()
		}
		if err == nil {
			return svc, nil
		}
		util.Log.WithError(err).Info("cached token rejected, starting consent flow")
		_ = os.Remove(tokPath)
	}

	tok, err := authorize(ctx, cfg, prompt)
	if err != nil {
		return nil, err
	}
	if err := saveToken(tokPath, tok); err != nil {
		return nil, fmt.Errorf("save token: %w", err)
	}
	svc, err := gmailv1.NewService(ctx, option.WithHTTPClient(cfg.Client(ctx, tok)))
	if err != nil {
		return nil, fmt.Errorf("create gmail service: %w", err)
	}
	return svc, nil
}

func readToken(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var tok oauth2.Token
	if err := json.NewDecoder(f).Decode(&tok); err != nil {
		return nil, err
	}
	return &tok, nil
}

func saveToken(path string, tok *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	if err := json.NewEncoder(f).Encode(tok); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// authorize runs a loopback server for the OAuth redirect and races it
// against a manually pasted code.
func authorize(ctx context.Context, cfg *oauth2.Config, prompt Prompt) (*oauth2.Token, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("listen on loopback: %w", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	oldRedirect := cfg.RedirectURL
	cfg.RedirectURL = fmt.Sprintf("http://127.0.0.1:%d/", port)
	defer func() { cfg.RedirectURL = oldRedirect }()

	codes := make(chan string, 1)
	mux := http.NewServeMux()
	srv := &http.Server{
		ReadHeaderTimeout: 5 * time.Second,
		Handler:           mux,
	}
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "Missing 'code' parameter", http.StatusBadRequest)
			return
		}
		fmt.Fprintln(w, "Authentication complete. You can close this window.")
		select {
		case codes <- code:
		default:
		}
	})
	go func() { _ = srv.Serve(ln) }()
	defer func() { _ = srv.Shutdown(context.Background()) }()

	authURL := cfg.AuthCodeURL("state-token", oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	if prompt.URL != nil {
		select {
		case prompt.URL <- authURL:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	var code string
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case code = <-codes:
	case input := <-prompt.Code:
		code, err = codeFromInput(input)
		if err != nil {
			return nil, err
		}
	}

	tok, err := cfg.Exchange(ctx, strings.TrimSpace(code))
	if err != nil {
		return nil, fmt.Errorf("token exchange: %w", err)
	}
	return tok, nil
}

// codeFromInput accepts a bare code or a pasted redirect URL.
func codeFromInput(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", errors.New("empty authorization code")
	}
	if !strings.HasPrefix(input, "http://") && !strings.HasPrefix(input, "https://") {
		return input, nil
	}
	u, err := url.Parse(input)
	if err != nil {
		return "", fmt.Errorf("parse redirect URL: %w", err)
	}
	c := u.Query().Get("code")
	if c == "" {
		return "", errors.New("no 'code' parameter found in pasted URL")
	}
	return c, nil
}
