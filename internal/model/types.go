package model

import (
	"sort"
	"strconv"
	"time"
)

// RiskLevel is informational; it never changes how a category is analyzed.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

func (r RiskLevel) Valid() bool {
	switch r {
	case RiskLow, RiskMedium, RiskHigh:
		return true
	}
	return false
}

// Category is one class of bulk mail described by a Gmail filter expression.
type Category struct {
	ID          string
	Name        string
	Description string
	BaseQuery   string // Gmail search expression without any age constraint
	Risk        RiskLevel
}

// ComposedQuery is a category's base query with the age filter applied.
type ComposedQuery struct {
	CategoryID   string
	CategoryName string
	Risk         RiskLevel
	BaseQuery    string
	FullQuery    string
}

// EstimateStatus tells a true zero apart from a count we could not obtain.
type EstimateStatus string

const (
	StatusOK     EstimateStatus = "ok"
	StatusFailed EstimateStatus = "failed"
)

// Estimate is the normalized outcome of one search-estimate call.
type Estimate struct {
	Count  int64
	Status EstimateStatus
	Reason string // set when Status is StatusFailed
}

func (e Estimate) Failed() bool { return e.Status == StatusFailed }

// QueryResult is one row of a successful analysis.
type QueryResult struct {
	CategoryName string         `json:"category"`
	Query        string         `json:"query"`
	Risk         RiskLevel      `json:"risk"`
	Estimated    int64          `json:"estimated"`
	Status       EstimateStatus `json:"status"`
	Reason       string         `json:"reason,omitempty"`
}

// AverageMessageKB is the fixed size heuristic behind SpaceReclaimedMB.
const AverageMessageKB = 15

// SpaceMB converts a message count into the estimated megabytes reclaimed.
func SpaceMB(total int64) float64 {
	return float64(total) * AverageMessageKB / 1024
}

// FormatMB renders megabytes with one decimal, rounding half to even on the
// binary value (1000 messages -> "14.6").
func FormatMB(mb float64) string {
	return strconv.FormatFloat(mb, 'f', 1, 64)
}

// Snapshot is the immutable outcome of one analysis run. Either Error is set
// and every count is zero, or Error is empty and Results holds one row per
// composed query.
type Snapshot struct {
	RunID              uint64        `json:"run_id"`
	Results            []QueryResult `json:"queries"`
	TotalEstimated     int64         `json:"total_estimated"`
	SpaceReclaimedMB   float64       `json:"space_reclaimed_mb"`
	CategoriesAnalyzed int           `json:"categories_analyzed"`
	CompletedAt        time.Time     `json:"completed_at"`
	Error              string        `json:"error,omitempty"`
}

func (s Snapshot) Failed() bool { return s.Error != "" }

// FailedQueries counts rows whose estimate could not be obtained.
func (s Snapshot) FailedQueries() int {
	n := 0
	for _, r := range s.Results {
		if r.Status == StatusFailed {
			n++
		}
	}
	return n
}

// Clone returns a copy that shares no slice storage with s.
func (s Snapshot) Clone() Snapshot {
	out := s
	if s.Results != nil {
		out.Results = append([]QueryResult(nil), s.Results...)
	}
	return out
}

// State of the analysis run owned by the session controller.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// ManualActionRecord is one paced instruction derived from a snapshot row.
type ManualActionRecord struct {
	Category   string    `json:"category"`
	Query      string    `json:"query"`
	Count      int64     `json:"count"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Profile is the subset of the mailbox profile we use.
type Profile struct {
	EmailAddress  string
	MessagesTotal int64
}

// ProfileUnavailable is shown instead of the total when the lookup fails.
const ProfileUnavailable = "Unable to connect to Gmail"

// ProfileLoading is shown until the first lookup finishes.
const ProfileLoading = "Loading..."

// ProfileStatus is the result of the latest profile lookup. The zero value
// means no lookup has finished yet.
type ProfileStatus struct {
	Known   bool
	Profile Profile
	Err     error
}

// TotalLabel returns the formatted total, or a placeholder while the lookup is
// pending or after it failed.
func (p ProfileStatus) TotalLabel() string {
	switch {
	case p.Known:
		return strconv.FormatInt(p.Profile.MessagesTotal, 10)
	case p.Err != nil:
		return ProfileUnavailable
	}
	return ProfileLoading
}

// Selection is the user's chosen categories and age threshold. Methods return
// new values; a Selection is never modified in place.
type Selection struct {
	ids       map[string]struct{}
	timeRange int // days; 0 means no age constraint
}

// NewSelection builds a selection. days <= 0 means all time.
func NewSelection(ids []string, days int) Selection {
	s := Selection{ids: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
	if days > 0 {
		s.timeRange = days
	}
	return s
}

func (s Selection) Has(id string) bool {
	_, ok := s.ids[id]
	return ok
}

func (s Selection) Empty() bool { return len(s.ids) == 0 }

func (s Selection) Len() int { return len(s.ids) }

// IDs returns the selected ids sorted for stable output.
func (s Selection) IDs() []string {
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Days returns the age threshold in days, 0 for all time.
func (s Selection) Days() int { return s.timeRange }

func (s Selection) Toggle(id string) Selection {
	ids := s.IDs()
	if s.Has(id) {
		out := ids[:0]
		for _, v := range ids {
			if v != id {
				out = append(out, v)
			}
		}
		return NewSelection(out, s.timeRange)
	}
	return NewSelection(append(ids, id), s.timeRange)
}

func (s Selection) WithDays(days int) Selection {
	return NewSelection(s.IDs(), days)
}
