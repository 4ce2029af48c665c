// Package gather implements the first pipeline stage: search for articles on
// the query's topic, reduce their bodies to plain text, and store the
// concatenation as the query's text artifact.
package gather

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"podcaster/internal/artifacts"
	"podcaster/internal/logging"
	"podcaster/internal/records"
	"podcaster/internal/services"
	"podcaster/internal/stage"
	"podcaster/internal/textutil"
)

// DefaultMaxArticles is how many search hits contribute text.
const DefaultMaxArticles = 6

// Hit is one search result.
type Hit struct {
	ID       string
	URL      string
	Headline string
}

// Searcher finds articles for a topic and fetches their bodies.
type Searcher interface {
	Search(ctx context.Context, topic string) ([]Hit, error)
	FetchBody(ctx context.Context, id string) (string, error)
}

// healthChecker is implemented by collaborators that can probe their service.
type healthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Gatherer is the gather stage handler.
type Gatherer struct {
	searcher    Searcher
	store       artifacts.Store
	maxArticles int
	logger      *slog.Logger
}

// New constructs the gather stage.
func New(searcher Searcher, store artifacts.Store, maxArticles int, logger *slog.Logger) *Gatherer {
	if maxArticles <= 0 {
		maxArticles = DefaultMaxArticles
	}
	return &Gatherer{
		searcher:    searcher,
		store:       store,
		maxArticles: maxArticles,
		logger:      logging.NewComponentLogger(logger, "gather"),
	}
}

func (g *Gatherer) Name() string { return "gather" }

func (g *Gatherer) Target() records.Status { return records.StatusArticlesGathered }

// Execute searches, folds the first hits into one text artifact, and returns
// the article rows for the controller to persist.
func (g *Gatherer) Execute(ctx context.Context, q *records.Query) (stage.Result, error) {
	if cached, ok := stage.Cached(q, g.Target()); ok {
		return cached, nil
	}
	logger := logging.WithContext(ctx, g.logger)

	hits, err := g.searcher.Search(ctx, q.Text)
	if err != nil {
		return stage.Result{}, err
	}
	if len(hits) == 0 {
		return stage.Result{}, services.Wrap(services.ErrNoContentFound, g.Name(), "search",
			fmt.Sprintf("no articles found for %q", q.Text), nil)
	}
	if len(hits) > g.maxArticles {
		hits = hits[:g.maxArticles]
	}

	bodies := make([]string, 0, len(hits))
	articles := make([]records.Article, 0, len(hits))
	for _, hit := range hits {
		raw, err := g.searcher.FetchBody(ctx, hit.ID)
		if err != nil {
			return stage.Result{}, err
		}
		if text := textutil.PlainText(raw); text != "" {
			bodies = append(bodies, text)
		}
		articles = append(articles, records.Article{URL: hit.URL, Headline: hit.Headline})
	}
	combined := strings.Join(bodies, " ")

	ref, err := g.store.Put(ctx, artifacts.TextName, []byte(combined))
	if err != nil {
		return stage.Result{}, err
	}
	logger.Info("articles combined",
		logging.Int("articles", len(articles)),
		logging.Int("text_bytes", len(combined)),
		logging.String("artifact", ref),
	)
	return stage.Result{Ref: ref, Articles: articles, Output: []byte(combined)}, nil
}

func (g *Gatherer) HealthCheck(ctx context.Context) stage.Health {
	if g.searcher == nil {
		return stage.Unhealthy(g.Name(), "content search not configured")
	}
	if checker, ok := g.searcher.(healthChecker); ok {
		if err := checker.HealthCheck(ctx); err != nil {
			return stage.Unhealthy(g.Name(), err.Error())
		}
	}
	return stage.Healthy(g.Name())
}
