package search

import (
	"context"
	"log/slog"
	"time"
)

// Origin records which branch produced an [Outcome].
type Origin int

const (
	// OriginLive means the results came from the configured backend.
	OriginLive Origin = iota

	// OriginFallback means the backend failed or found nothing and the
	// canned mock results were substituted.
	OriginFallback
)

func (o Origin) String() string {
	switch o {
	case OriginLive:
		return "live"
	case OriginFallback:
		return "fallback"
	default:
		return "unknown"
	}
}

// MarshalText renders the origin by name in JSON and logs.
func (o Origin) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Outcome is the result of [Searcher.Search].
type Outcome struct {
	Results []Result
	Origin  Origin

	// Provider is the backend that was tried.
	Provider string

	// Err is why the fallback was used. It is nil for live results and
	// when the backend simply returned nothing.
	Err error
}

// Searcher runs the configured backend and never fails the caller.
type Searcher struct {
	provider Provider
	language string
	logger   *slog.Logger
}

// NewSearcher wraps provider (usually a [Manager]).
func NewSearcher(provider Provider, logger *slog.Logger) *Searcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Searcher{
		provider: provider,
		logger:   logger.With("component", "search", "provider", provider.Name()),
	}
}

// SetLanguage asks backends that support it for results in lang, an
// ISO 639-1 code. DuckDuckGo's instant-answer API has no such parameter
// and ignores it.
func (s *Searcher) SetLanguage(lang string) {
	s.language = lang
}

// Search makes a single attempt against the backend. A transport
// failure, a bad status, an undecodable body, or an empty result list
// all lead to [MockResults] for the query. The returned slice never
// holds more than [MaxResults] entries.
func (s *Searcher) Search(ctx context.Context, query string) Outcome {
	s.logger.Info("executing web search", "query", query)

	start := time.Now()
	results, err := s.provider.Search(ctx, query, Options{Count: MaxResults, Language: s.language})
	if err != nil {
		s.logger.Warn("web search failed, using mock results", "error", err, "duration", time.Since(start))
		return s.fallback(query, err)
	}
	if len(results) == 0 {
		s.logger.Warn("no results from provider, using mock results", "duration", time.Since(start))
		return s.fallback(query, nil)
	}

	if len(results) > MaxResults {
		results = results[:MaxResults]
	}
	s.logger.Info("found search results", "count", len(results), "duration", time.Since(start))
	return Outcome{
		Results:  results,
		Origin:   OriginLive,
		Provider: s.provider.Name(),
	}
}

func (s *Searcher) fallback(query string, err error) Outcome {
	results, rule := mockResults(query)
	s.logger.Debug("mock results selected", "rule", rule, "count", len(results))
	return Outcome{
		Results:  results,
		Origin:   OriginFallback,
		Provider: s.provider.Name(),
		Err:      err,
	}
}
