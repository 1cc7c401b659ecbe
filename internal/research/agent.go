// Package research runs the query pipeline: search, summarize, cite, and
// record the result in the history log.
package research

import (
	"context"
	"log/slog"
	"time"

	"github.com/nugget/research-assistant/internal/citation"
	"github.com/nugget/research-assistant/internal/history"
	"github.com/nugget/research-assistant/internal/search"
	"github.com/nugget/research-assistant/internal/summarizer"
)

// Searcher finds results for a query. Implementations never fail; see
// [search.Searcher].
type Searcher interface {
	Search(ctx context.Context, query string) search.Outcome
}

// Summarizer condenses snippets. See [summarizer.Summarizer].
type Summarizer interface {
	Summarize(ctx context.Context, query string, snippets []string) summarizer.Summary
}

// Result is what a single query produces.
type Result struct {
	Summary string   `json:"summary"`
	Sources []string `json:"sources"`

	SearchOrigin  search.Origin     `json:"search_origin"`
	SummaryMethod summarizer.Method `json:"summary_method"`
}

// Agent wires the pipeline together.
type Agent struct {
	searcher   Searcher
	summarizer Summarizer
	history    *history.Log
	logger     *slog.Logger
}

// New creates an Agent. A nil log gets a fresh one.
func New(searcher Searcher, sum Summarizer, log *history.Log, logger *slog.Logger) *Agent {
	if log == nil {
		log = history.New()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Agent{
		searcher:   searcher,
		summarizer: sum,
		history:    log,
		logger:     logger.With("component", "research"),
	}
}

// History returns the log the agent records into.
func (a *Agent) History() *history.Log {
	return a.history
}

// HandleQuery runs one query end to end. Every failure along the way
// has already been replaced by a fallback value, so there is no error.
func (a *Agent) HandleQuery(ctx context.Context, query string) Result {
	start := time.Now()

	outcome := a.searcher.Search(ctx, query)

	snippets := make([]string, 0, len(outcome.Results))
	sources := make([]string, 0, len(outcome.Results))
	for _, r := range outcome.Results {
		if r.Snippet != "" {
			snippets = append(snippets, r.Snippet)
		}
		src := r.Source
		if src == "" {
			src = r.URL
		}
		sources = append(sources, src)
	}

	summary := a.summarizer.Summarize(ctx, query, snippets)
	citations := citation.Format(sources)

	a.history.Push(history.Entry{
		Query:   query,
		Summary: summary.Text,
		Sources: citations,
	})

	a.logger.Info("query handled",
		"query", query,
		"origin", outcome.Origin,
		"provider", outcome.Provider,
		"method", summary.Method,
		"results", len(outcome.Results),
		"snippets", len(snippets),
		"duration", time.Since(start),
	)

	return Result{
		Summary:       summary.Text,
		Sources:       citations,
		SearchOrigin:  outcome.Origin,
		SummaryMethod: summary.Method,
	}
}
