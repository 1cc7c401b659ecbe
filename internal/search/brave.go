package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/nugget/research-assistant/internal/httpkit"
)

// DefaultBraveURL is the Brave web search endpoint.
const DefaultBraveURL = "https://api.search.brave.com/res/v1/web/search"

// Brave implements the Provider interface for the Brave Search API.
type Brave struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
}

// NewBrave creates a Brave Search provider. An empty endpoint selects
// [DefaultBraveURL].
func NewBrave(apiKey, endpoint string, timeout time.Duration) *Brave {
	if endpoint == "" {
		endpoint = DefaultBraveURL
	}
	return &Brave{
		apiKey:   apiKey,
		endpoint: endpoint,
		httpClient: httpkit.NewClient(
			httpkit.WithTimeout(timeout),
		),
	}
}

func (b *Brave) Name() string { return "brave" }

// braveResponse is the JSON response from Brave's web search API.
type braveResponse struct {
	Web struct {
		Results []braveResult `json:"results"`
	} `json:"web"`
}

type braveResult struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
	Profile     struct {
		Name string `json:"name"`
	} `json:"profile"`
}

func (b *Brave) Search(ctx context.Context, query string, opts Options) ([]Result, error) {
	count := opts.count()

	params := url.Values{
		"q":     {query},
		"count": {strconv.Itoa(count)},
	}

	if opts.Language != "" {
		params.Set("search_lang", opts.Language)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("brave: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", b.apiKey)

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("brave: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body := httpkit.ReadErrorBody(resp.Body, 512)
		return nil, fmt.Errorf("brave: HTTP %d: %s", resp.StatusCode, body)
	}

	var br braveResponse
	if err := json.NewDecoder(resp.Body).Decode(&br); err != nil {
		return nil, fmt.Errorf("brave: decode response: %w", err)
	}

	results := make([]Result, 0, count)
	for _, r := range br.Web.Results {
		if len(results) >= count {
			break
		}
		results = append(results, Result{
			Title:   cleanText(r.Title),
			URL:     r.URL,
			Snippet: cleanText(r.Description),
			Source:  orDefault(r.Profile.Name, "Brave"),
		})
	}

	return results, nil
}
