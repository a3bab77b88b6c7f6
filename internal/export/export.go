// Package export writes the shareable JSON form of a cleanup plan.
package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"mailsweep/internal/model"
	"mailsweep/internal/query"
)

// Instructions are the manual steps attached to every exported query.
var Instructions = [5]string{
	"1. Copy the Gmail query below",
	"2. Paste into Gmail search box",
	"3. Select all results (click checkbox at top)",
	"4. Click 'Select all conversations that match this search'",
	"5. Click Delete button (trash icon)",
}

const generatedLayout = "2006-01-02T15:04:05.000Z07:00"

type Document struct {
	Generated            string  `json:"generated"`
	TimeRange            string  `json:"timeRange"`
	TotalEmailsInAccount *int64  `json:"totalEmailsInAccount"`
	Queries              []Query `json:"queries"`
}

type Query struct {
	Description  string          `json:"description"`
	GmailQuery   string          `json:"gmailQuery"`
	RiskLevel    model.RiskLevel `json:"riskLevel"`
	Instructions []string        `json:"instructions"`
}

// Build assembles the document. The account total is null unless the last
// profile lookup succeeded.
func Build(queries []model.ComposedQuery, tr query.TimeRange, profile model.ProfileStatus, now time.Time) Document {
	doc := Document{
		Generated: now.UTC().Format(generatedLayout),
		TimeRange: tr.Label(),
		Queries:   make([]Query, 0, len(queries)),
	}
	if profile.Known {
		total := profile.Profile.MessagesTotal
		doc.TotalEmailsInAccount = &total
	}
	for _, q := range queries {
		doc.Queries = append(doc.Queries, Query{
			Description:  q.CategoryName,
			GmailQuery:   q.FullQuery,
			RiskLevel:    q.Risk,
			Instructions: append([]string(nil), Instructions[:]...),
		})
	}
	return doc
}

// Encode writes two-space indented JSON without HTML escaping, so queries
// containing <, > or & stay readable.
func (d Document) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(d)
}

func (d Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.Encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// FileName is the default download name for a document generated at now.
func FileName(now time.Time) string {
	return "gmail-cleanup-queries-" + now.UTC().Format("2006-01-02") + ".json"
}

// WriteFile stores doc under dir as FileName(now) and returns the path.
func WriteFile(dir string, doc Document, now time.Time) (string, error) {
	b, err := doc.Bytes()
	if err != nil {
		return "", fmt.Errorf("encode export: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}
	path := filepath.Join(dir, FileName(now))
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return path, nil
}
