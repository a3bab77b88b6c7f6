// Package query turns a category selection into Gmail search expressions.
package query

import (
	"fmt"
	"strconv"
	"strings"

	"mailsweep/internal/catalog"
	"mailsweep/internal/model"
)

// TimeRange is an age threshold in days. The zero value is AllTime.
type TimeRange struct {
	days int
}

// AllTime applies no age constraint.
var AllTime = TimeRange{}

const allTimeToken = "all"

// Days returns a finite range. Non-positive values yield AllTime.
func Days(n int) TimeRange {
	if n <= 0 {
		return AllTime
	}
	return TimeRange{days: n}
}

// ParseTimeRange accepts a positive day count or "all".
func ParseTimeRange(s string) (TimeRange, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == allTimeToken {
		return AllTime, nil
	}
	s = strings.TrimSuffix(s, "d")
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return AllTime, fmt.Errorf("time range %q: want a positive number of days or %q", s, allTimeToken)
	}
	return Days(n), nil
}

func (t TimeRange) Days() int { return t.days }

func (t TimeRange) IsAllTime() bool { return t.days == 0 }

// String is the form ParseTimeRange accepts.
func (t TimeRange) String() string {
	if t.IsAllTime() {
		return allTimeToken
	}
	return strconv.Itoa(t.days)
}

// Label is the human form written into exports.
func (t TimeRange) Label() string {
	if t.IsAllTime() {
		return "All time"
	}
	return strconv.Itoa(t.days) + " days"
}

// Suffix is appended to a base query; empty for AllTime.
func (t TimeRange) Suffix() string {
	if t.IsAllTime() {
		return ""
	}
	return " older_than:" + strconv.Itoa(t.days) + "d"
}

// Preset is one of the age thresholds offered in the picker.
type Preset struct {
	Range TimeRange
	Label string
}

func Presets() []Preset {
	return []Preset{
		{Days(7), "7 days"},
		{Days(30), "30 days"},
		{Days(90), "3 months"},
		{Days(365), "1 year"},
		{AllTime, "All time"},
	}
}

// RangeOf returns the time range held by a selection.
func RangeOf(sel model.Selection) TimeRange { return Days(sel.Days()) }

// Compose builds one query per selected category in catalog order. Ids not in
// the catalog are skipped; callers validate them beforehand.
func Compose(cat *catalog.Catalog, sel model.Selection) []model.ComposedQuery {
	if cat == nil || sel.Empty() {
		return []model.ComposedQuery{}
	}
	suffix := RangeOf(sel).Suffix()
	out := make([]model.ComposedQuery, 0, sel.Len())
	for _, c := range cat.All() {
		if !sel.Has(c.ID) {
			continue
		}
		out = append(out, model.ComposedQuery{
			CategoryID:   c.ID,
			CategoryName: c.Name,
			Risk:         c.Risk,
			BaseQuery:    c.BaseQuery,
			FullQuery:    c.BaseQuery + suffix,
		})
	}
	return out
}
