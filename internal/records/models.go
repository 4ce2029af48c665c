package records

import (
	"strings"
	"time"
)

// Status is a query's pipeline position. Values are stored verbatim.
type Status string

const (
	StatusCreated          Status = "created"
	StatusArticlesGathered Status = "gathered articles"
	StatusScriptGenerated  Status = "generated script"
	StatusAudioGenerated   Status = "generated audio"
)

var orderedStatuses = []Status{
	StatusCreated,
	StatusArticlesGathered,
	StatusScriptGenerated,
	StatusAudioGenerated,
}

// Statuses returns every status in pipeline order.
func Statuses() []Status {
	out := make([]Status, len(orderedStatuses))
	copy(out, orderedStatuses)
	return out
}

// ParseStatus normalizes a stored or user-supplied status string.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	for _, status := range orderedStatuses {
		if status == normalized {
			return status, true
		}
	}
	return "", false
}

// Rank returns the position of s in the pipeline, or -1 when unknown.
func (s Status) Rank() int {
	for i, status := range orderedStatuses {
		if status == s {
			return i
		}
	}
	return -1
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool { return s.Rank() >= 0 }

// AtLeast reports whether s has reached other.
func (s Status) AtLeast(other Status) bool {
	return s.Valid() && other.Valid() && s.Rank() >= other.Rank()
}

// Next returns the status that follows s. The final status has no successor.
func (s Status) Next() (Status, bool) {
	rank := s.Rank()
	if rank < 0 || rank+1 >= len(orderedStatuses) {
		return "", false
	}
	return orderedStatuses[rank+1], true
}

// refColumn names the column holding the artifact owned by a target status.
func refColumn(status Status) (string, bool) {
	switch status {
	case StatusArticlesGathered:
		return "textkey", true
	case StatusScriptGenerated:
		return "scriptkey", true
	case StatusAudioGenerated:
		return "audiokey", true
	default:
		return "", false
	}
}

// Query is the unit of work: a topic moving through the pipeline.
type Query struct {
	ID             int64
	Text           string
	Status         Status
	TextRef        string
	ScriptRef      string
	AudioRef       string
	LeaseToken     string
	LeaseExpiresAt time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Ref returns the artifact ref written when the query reached status.
func (q *Query) Ref(status Status) string {
	if q == nil {
		return ""
	}
	switch status {
	case StatusArticlesGathered:
		return q.TextRef
	case StatusScriptGenerated:
		return q.ScriptRef
	case StatusAudioGenerated:
		return q.AudioRef
	default:
		return ""
	}
}

// Leased reports whether a stage claim is held at now.
func (q *Query) Leased(now time.Time) bool {
	return q != nil && q.LeaseToken != "" && now.Before(q.LeaseExpiresAt)
}

// Article is a search hit recorded when a query's articles were gathered.
type Article struct {
	ID        int64
	QueryID   int64
	URL       string
	Headline  string
	CreatedAt time.Time
}

// DatabaseHealth captures diagnostic information about the record store.
type DatabaseHealth struct {
	Driver        string
	Location      string
	Reachable     bool
	SchemaVersion int
	SchemaCurrent bool
	TotalQueries  int
	TotalArticles int
	StatusCounts  map[Status]int
	Error         string
}
