package gmail

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
	"strings"
)

const webSearchBase = "https://mail.google.com/mail/u/0/#search/"

// SearchURL links to the Gmail web UI with query already in the search box,
// which is where the user selects and deletes the matches.
func SearchURL(query string) string {
	return webSearchBase + url.PathEscape(query)
}

// OpenSearch opens SearchURL(query) in the default browser.
func OpenSearch(query string) error {
	return OpenBrowser(SearchURL(query))
}

func OpenBrowser(u string) error {
	// Validate URL scheme to prevent command injection
	lower := strings.ToLower(u)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		return fmt.Errorf("refusing to open non-HTTP URL: %s", u)
	}

	var cmd string
	var args []string
	switch runtime.GOOS {
	case "darwin":
		cmd = "open"
		args = []string{u}
	case "linux":
		cmd = "xdg-open"
		args = []string{u}
	case "windows":
		cmd = "rundll32"
		args = []string{"url.dll,FileProtocolHandler", u}
	default:
		return fmt.Errorf("unsupported platform %s", runtime.GOOS)
	}
	return exec.Command(cmd, args...).Start()
}
