package query

import (
	"reflect"
	"strings"
	"testing"

	"mailsweep/internal/catalog"
	"mailsweep/internal/model"
)

func TestCompose_Bizreach30Days(t *testing.T) {
	sel := model.NewSelection([]string{"bizreach"}, 30)
	got := Compose(catalog.Default(), sel)
	if len(got) != 1 {
		t.Fatalf("len=%d", len(got))
	}
	want := "from:noreply@bizreach.co.jp OR from:scout@bizreach.co.jp older_than:30d"
	if got[0].FullQuery != want {
		t.Fatalf("FullQuery=%q want %q", got[0].FullQuery, want)
	}
	if got[0].CategoryName != "BizReach Job Notifications" || got[0].Risk != model.RiskLow {
		t.Fatalf("unexpected %+v", got[0])
	}
}

func TestCompose_CatalogOrderNotSelectionOrder(t *testing.T) {
	sel := model.NewSelection([]string{"noreply", "promotions", "bizreach"}, 7)
	got := Compose(catalog.Default(), sel)
	want := []string{"bizreach", "promotions", "noreply"}
	if len(got) != len(want) {
		t.Fatalf("len=%d", len(got))
	}
	for i, id := range want {
		if got[i].CategoryID != id {
			t.Fatalf("idx %d want %s got %s", i, id, got[i].CategoryID)
		}
	}
}

func TestCompose_AllSubsets(t *testing.T) {
	cat := catalog.Default()
	all := cat.All()
	ranges := []TimeRange{AllTime, Days(1), Days(30), Days(365)}
	for mask := 1; mask < 1<<len(all); mask++ {
		var ids []string
		for i, c := range all {
			if mask&(1<<i) != 0 {
				ids = append(ids, c.ID)
			}
		}
		for _, tr := range ranges {
			got := Compose(cat, model.NewSelection(ids, tr.Days()))
			if len(got) != len(ids) {
				t.Fatalf("mask %b range %s: len=%d want %d", mask, tr, len(got), len(ids))
			}
			for _, q := range got {
				c, _ := cat.Lookup(q.CategoryID)
				if !strings.HasPrefix(q.FullQuery, c.BaseQuery) {
					t.Fatalf("%q does not start with %q", q.FullQuery, c.BaseQuery)
				}
				if q.FullQuery != c.BaseQuery+tr.Suffix() {
					t.Fatalf("range %s: got %q", tr, q.FullQuery)
				}
				if tr.IsAllTime() && strings.Contains(q.FullQuery, "older_than:") {
					t.Fatalf("all time query has age suffix: %q", q.FullQuery)
				}
			}
		}
	}
}

func TestCompose_Empty(t *testing.T) {
	for _, days := range []int{0, 7, 365} {
		got := Compose(catalog.Default(), model.NewSelection(nil, days))
		if got == nil || len(got) != 0 {
			t.Fatalf("days %d: want empty non-nil slice, got %#v", days, got)
		}
	}
}

func TestCompose_Idempotent(t *testing.T) {
	sel := model.NewSelection([]string{"social", "updates"}, 90)
	a := Compose(catalog.Default(), sel)
	b := Compose(catalog.Default(), sel)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("not idempotent:\n%#v\n%#v", a, b)
	}
}

func TestParseTimeRange(t *testing.T) {
	tests := []struct {
		in      string
		want    TimeRange
		label   string
		wantErr bool
	}{
		{"30", Days(30), "30 days", false},
		{"7d", Days(7), "7 days", false},
		{"all", AllTime, "All time", false},
		{" ALL ", AllTime, "All time", false},
		{"0", AllTime, "", true},
		{"-3", AllTime, "", true},
		{"soon", AllTime, "", true},
	}
	for _, tc := range tests {
		got, err := ParseTimeRange(tc.in)
		if (err != nil) != tc.wantErr {
			t.Errorf("ParseTimeRange(%q) err=%v", tc.in, err)
			continue
		}
		if tc.wantErr {
			continue
		}
		if got != tc.want || got.Label() != tc.label {
			t.Errorf("ParseTimeRange(%q) = %v (%s); want %v (%s)", tc.in, got, got.Label(), tc.want, tc.label)
		}
	}
}

func TestPresets(t *testing.T) {
	ps := Presets()
	want := []string{"7", "30", "90", "365", "all"}
	for i, w := range want {
		if ps[i].Range.String() != w {
			t.Fatalf("preset %d = %s want %s", i, ps[i].Range, w)
		}
	}
	if ps[2].Label != "3 months" {
		t.Fatalf("label %q", ps[2].Label)
	}
}
