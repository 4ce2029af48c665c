package api

import (
	"time"

	"podcaster/internal/records"
	"podcaster/internal/stage"
)

// FromQuery converts a query record to its API representation.
func FromQuery(q *records.Query) QueryView {
	if q == nil {
		return QueryView{}
	}
	return QueryView{
		QueryID:   q.ID,
		QueryText: q.Text,
		Status:    string(q.Status),
		TextKey:   q.TextRef,
		ScriptKey: q.ScriptRef,
		AudioKey:  q.AudioRef,
		CreatedAt: formatTime(q.CreatedAt),
		UpdatedAt: formatTime(q.UpdatedAt),
	}
}

// FromQueries converts a slice of query records, preserving order.
func FromQueries(queries []*records.Query) []QueryView {
	out := make([]QueryView, 0, len(queries))
	for _, q := range queries {
		if q == nil {
			continue
		}
		out = append(out, FromQuery(q))
	}
	return out
}

// FromArticle converts an article record to its API representation.
func FromArticle(a *records.Article) ArticleView {
	if a == nil {
		return ArticleView{}
	}
	return ArticleView{
		ArticleID: a.ID,
		QueryID:   a.QueryID,
		URL:       a.URL,
		Headline:  a.Headline,
		CreatedAt: formatTime(a.CreatedAt),
	}
}

// FromArticles converts a slice of article records, preserving order.
func FromArticles(articles []*records.Article) []ArticleView {
	out := make([]ArticleView, 0, len(articles))
	for _, a := range articles {
		if a == nil {
			continue
		}
		out = append(out, FromArticle(a))
	}
	return out
}

// FromDatabaseHealth converts record store diagnostics.
func FromDatabaseHealth(h records.DatabaseHealth) DatabaseStatus {
	counts := make(map[string]int, len(records.Statuses()))
	for _, status := range records.Statuses() {
		counts[string(status)] = h.StatusCounts[status]
	}
	return DatabaseStatus{
		Driver:        h.Driver,
		Location:      h.Location,
		Reachable:     h.Reachable,
		SchemaVersion: h.SchemaVersion,
		SchemaCurrent: h.SchemaCurrent,
		TotalQueries:  h.TotalQueries,
		TotalArticles: h.TotalArticles,
		StatusCounts:  counts,
		Error:         h.Error,
	}
}

// FromStageHealth converts stage readiness records, preserving order.
func FromStageHealth(health []stage.Health) []StageHealth {
	out := make([]StageHealth, 0, len(health))
	for _, h := range health {
		out = append(out, StageHealth{Name: h.Name, Ready: h.Ready, Detail: h.Detail})
	}
	return out
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}
