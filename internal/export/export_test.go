package export

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"mailsweep/internal/catalog"
	"mailsweep/internal/model"
	"mailsweep/internal/query"
)

var genTime = time.Date(2026, 10, 19, 8, 5, 3, 250_000_000, time.UTC)

const golden = `{
  "generated": "2026-10-19T08:05:03.250Z",
  "timeRange": "30 days",
  "totalEmailsInAccount": 5120,
  "queries": [
    {
      "description": "BizReach Job Notifications",
      "gmailQuery": "from:noreply@bizreach.co.jp OR from:scout@bizreach.co.jp older_than:30d",
      "riskLevel": "low",
      "instructions": [
        "1. Copy the Gmail query below",
        "2. Paste into Gmail search box",
        "3. Select all results (click checkbox at top)",
        "4. Click 'Select all conversations that match this search'",
        "5. Click Delete button (trash icon)"
      ]
    }
  ]
}
`

func TestDocument_Golden(t *testing.T) {
	qs := query.Compose(catalog.Default(), model.NewSelection([]string{"bizreach"}, 30))
	profile := model.ProfileStatus{Known: true, Profile: model.Profile{MessagesTotal: 5120}}
	doc := Build(qs, query.Days(30), profile, genTime)
	b, err := doc.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	if string(b) != golden {
		t.Fatalf("export mismatch:\n%s\nwant:\n%s", b, golden)
	}

	again, _ := Build(qs, query.Days(30), profile, genTime).Bytes()
	if !bytes.Equal(b, again) {
		t.Fatal("export is not reproducible")
	}
}

func TestDocument_InstructionsNotShared(t *testing.T) {
	qs := query.Compose(catalog.Default(), model.NewSelection([]string{"promotions", "social"}, 30))
	first := Build(qs, query.Days(30), model.ProfileStatus{}, genTime)
	want, _ := Build(qs, query.Days(30), model.ProfileStatus{}, genTime).Bytes()

	first.Queries[0].Instructions[0] = "edited"
	if first.Queries[1].Instructions[0] == "edited" {
		t.Fatal("queries in one document share instructions")
	}
	if Instructions[0] == "edited" {
		t.Fatal("editing a document changed the package instructions")
	}
	got, _ := Build(qs, query.Days(30), model.ProfileStatus{}, genTime).Bytes()
	if !bytes.Equal(got, want) {
		t.Fatalf("later export changed:\n%s\nwant:\n%s", got, want)
	}
}

func TestDocument_UnknownTotalAndAllTime(t *testing.T) {
	qs := query.Compose(catalog.Default(), model.NewSelection([]string{"promotions", "social"}, 0))
	doc := Build(qs, query.AllTime, model.ProfileStatus{Err: errors.New("offline")}, genTime)
	if doc.TimeRange != "All time" {
		t.Fatalf("time range %q", doc.TimeRange)
	}
	if doc.TotalEmailsInAccount != nil {
		t.Fatalf("total should be null, got %d", *doc.TotalEmailsInAccount)
	}
	b, _ := doc.Bytes()
	if !bytes.Contains(b, []byte(`"totalEmailsInAccount": null`)) {
		t.Fatalf("null total not encoded:\n%s", b)
	}
	if len(doc.Queries) != 2 || doc.Queries[1].GmailQuery != "category:social" {
		t.Fatalf("queries %+v", doc.Queries)
	}
}

func TestEncode_NoHTMLEscaping(t *testing.T) {
	doc := Build([]model.ComposedQuery{{CategoryName: "A&B", FullQuery: "from:<x@y.z>", Risk: model.RiskHigh}}, query.Days(7), model.ProfileStatus{}, genTime)
	b, _ := doc.Bytes()
	if !bytes.Contains(b, []byte(`"from:<x@y.z>"`)) || !bytes.Contains(b, []byte(`"A&B"`)) {
		t.Fatalf("html escaped:\n%s", b)
	}
}

func TestWriteFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	doc := Build(nil, query.Days(7), model.ProfileStatus{}, genTime)
	path, err := WriteFile(dir, doc, genTime)
	if err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if filepath.Base(path) != "gmail-cleanup-queries-2026-10-19.json" {
		t.Fatalf("path %s", path)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	want, _ := doc.Bytes()
	if !bytes.Equal(b, want) {
		t.Fatal("file content differs from encoding")
	}
}
