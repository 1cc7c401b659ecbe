package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nugget/research-assistant/internal/httpkit"
)

// DefaultDuckDuckGoURL is the public instant-answer endpoint.
const DefaultDuckDuckGoURL = "https://api.duckduckgo.com/"

// DuckDuckGo implements the Provider interface for the DuckDuckGo
// instant-answer API. It needs no API key. The API returns at most one
// headline abstract plus loosely related topics rather than a ranked
// document list.
type DuckDuckGo struct {
	endpoint   string
	httpClient *http.Client
}

// NewDuckDuckGo creates a DuckDuckGo provider. An empty endpoint selects
// [DefaultDuckDuckGoURL]; tests point it at a local server.
func NewDuckDuckGo(endpoint string, timeout time.Duration) *DuckDuckGo {
	if endpoint == "" {
		endpoint = DefaultDuckDuckGoURL
	}
	return &DuckDuckGo{
		endpoint: endpoint,
		httpClient: httpkit.NewClient(
			httpkit.WithTimeout(timeout),
		),
	}
}

func (d *DuckDuckGo) Name() string { return "duckduckgo" }

// ddgResponse is the subset of the instant-answer JSON that we consume.
type ddgResponse struct {
	Abstract       string     `json:"Abstract"`
	AbstractURL    string     `json:"AbstractURL"`
	AbstractSource string     `json:"AbstractSource"`
	Heading        string     `json:"Heading"`
	RelatedTopics  []ddgTopic `json:"RelatedTopics"`
}

// ddgTopic is one related topic. Category groups arrive in the same
// array with a Name and nested Topics but no Text, and are skipped.
type ddgTopic struct {
	Text     string `json:"Text"`
	FirstURL string `json:"FirstURL"`
}

func (d *DuckDuckGo) Search(ctx context.Context, query string, opts Options) ([]Result, error) {
	params := url.Values{
		"q":             {query},
		"format":        {"json"},
		"no_html":       {"1"},
		"skip_disambig": {"1"},
	}

	reqURL := d.endpoint + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("duckduckgo: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("duckduckgo: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body := httpkit.ReadErrorBody(resp.Body, 512)
		return nil, fmt.Errorf("duckduckgo: HTTP %d: %s", resp.StatusCode, body)
	}

	var dr ddgResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return nil, fmt.Errorf("duckduckgo: decode response: %w", err)
	}

	return dr.results(opts.count()), nil
}

// results converts the instant-answer payload into at most limit
// results: the abstract first (when it has text), then related topics
// that carry both text and a URL.
func (dr ddgResponse) results(limit int) []Result {
	results := make([]Result, 0, limit)

	if abstract := cleanText(dr.Abstract); abstract != "" {
		results = append(results, Result{
			Title:   orDefault(cleanText(dr.Heading), "Main Result"),
			URL:     dr.AbstractURL,
			Snippet: abstract,
			Source:  orDefault(cleanText(dr.AbstractSource), "DuckDuckGo"),
		})
	}

	// Incomplete topics are skipped without using up one of the slots.
	for _, topic := range dr.RelatedTopics {
		if len(results) >= limit {
			break
		}
		text := cleanText(topic.Text)
		if text == "" || topic.FirstURL == "" {
			continue
		}
		title, _, _ := strings.Cut(topic.Text, " - ")
		results = append(results, Result{
			Title:   orDefault(cleanText(title), "Related"),
			URL:     topic.FirstURL,
			Snippet: text,
			Source:  "DuckDuckGo",
		})
	}

	return results
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
