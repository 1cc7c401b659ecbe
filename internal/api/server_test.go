package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"

	"github.com/nugget/research-assistant/internal/history"
	"github.com/nugget/research-assistant/internal/research"
	"github.com/nugget/research-assistant/internal/search"
	"github.com/nugget/research-assistant/internal/summarizer"
)

// fakeResearcher records queries into a real history log.
type fakeResearcher struct {
	log     *history.Log
	queries []string
}

func (f *fakeResearcher) HandleQuery(_ context.Context, query string) research.Result {
	f.queries = append(f.queries, query)
	res := research.Result{
		Summary:       "- **first** point\n- second point",
		Sources:       []string{"GitHub", "DuckDuckGo"},
		SearchOrigin:  search.OriginFallback,
		SummaryMethod: summarizer.MethodModel,
	}
	f.log.Push(history.Entry{Query: query, Summary: res.Summary, Sources: res.Sources})
	return res
}

func (f *fakeResearcher) History() *history.Log { return f.log }

func newTestServer() (*fakeResearcher, http.Handler) {
	fr := &fakeResearcher{log: history.New()}
	s := NewServer("127.0.0.1", 0, fr, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return fr, s.Handler()
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandleResearch(t *testing.T) {
	fr, h := newTestServer()

	rec := do(t, h, http.MethodPost, "/v1/research", `{"query": "What is Zypher?"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}

	var resp ResearchResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !slices.Equal(fr.queries, []string{"What is Zypher?"}) {
		t.Errorf("queries = %q", fr.queries)
	}
	if !slices.Equal(resp.Sources, []string{"GitHub", "DuckDuckGo"}) {
		t.Errorf("sources = %q", resp.Sources)
	}
	if !strings.Contains(resp.SummaryHTML, "<li><strong>first</strong> point</li>") {
		t.Errorf("summary_html = %q", resp.SummaryHTML)
	}
	if resp.SearchOrigin != "fallback" || resp.SummaryMethod != "model" {
		t.Errorf("origin/method = %q/%q", resp.SearchOrigin, resp.SummaryMethod)
	}
}

func TestHandleResearch_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed", `{"query":`},
		{"empty query", `{"query": ""}`},
		{"blank query", `{"query": "   "}`},
		{"missing body", ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fr, h := newTestServer()
			rec := do(t, h, http.MethodPost, "/v1/research", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
			if len(fr.queries) != 0 {
				t.Errorf("query should not run, got %q", fr.queries)
			}
		})
	}
}

func TestHandleResearch_WrongMethod(t *testing.T) {
	_, h := newTestServer()
	rec := do(t, h, http.MethodGet, "/v1/research", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestHandleHistory(t *testing.T) {
	fr, h := newTestServer()
	for _, q := range []string{"a", "b", "c", "d", "e", "f"} {
		fr.HandleQuery(context.Background(), q)
	}

	tests := []struct {
		target string
		want   []string
	}{
		{"/v1/history", []string{"b", "c", "d", "e", "f"}},
		{"/v1/history?n=2", []string{"e", "f"}},
		{"/v1/history?n=0", []string{}},
		{"/v1/history?n=50", []string{"a", "b", "c", "d", "e", "f"}},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec := do(t, h, http.MethodGet, tt.target, "")
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d", rec.Code)
			}
			var body struct {
				Entries []history.Entry `json:"entries"`
				Total   int             `json:"total"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			got := make([]string, len(body.Entries))
			for i, e := range body.Entries {
				got[i] = e.Query
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("queries = %q, want %q", got, tt.want)
			}
			if body.Total != 6 {
				t.Errorf("total = %d, want 6", body.Total)
			}
		})
	}
}

func TestHandleHistory_BadN(t *testing.T) {
	_, h := newTestServer()
	for _, n := range []string{"abc", "-1"} {
		rec := do(t, h, http.MethodGet, "/v1/history?n="+n, "")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("n=%s: status = %d, want 400", n, rec.Code)
		}
	}
}

func TestHealthAndVersion(t *testing.T) {
	_, h := newTestServer()

	rec := do(t, h, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"healthy"`) {
		t.Errorf("health = %d %s", rec.Code, rec.Body)
	}

	rec = do(t, h, http.MethodGet, "/v1/version", "")
	var info map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &info); err != nil {
		t.Fatalf("decode version: %v", err)
	}
	if info["version"] == "" {
		t.Errorf("version info = %v", info)
	}
}

func TestMarkdownToHTML(t *testing.T) {
	got, err := markdownToHTML("plain text")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(got) != "<p>plain text</p>" {
		t.Errorf("got %q", got)
	}
}
