package search

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ddgServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("format") != "json" || q.Get("no_html") != "1" || q.Get("skip_disambig") != "1" {
			t.Errorf("unexpected query parameters: %s", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/x-javascript")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestDuckDuckGo_AbstractAndTopics(t *testing.T) {
	body := `{
		"Abstract": "Go is a statically typed, compiled language.",
		"AbstractURL": "https://en.wikipedia.org/wiki/Go_(programming_language)",
		"AbstractSource": "Wikipedia",
		"Heading": "Go (programming language)",
		"RelatedTopics": [
			{"Text": "Goroutine - A lightweight thread.", "FirstURL": "https://duckduckgo.com/Goroutine"},
			{"Name": "See also", "Topics": [{"Text": "nested", "FirstURL": "https://x"}]},
			{"Text": "Missing URL topic"},
			{"Text": " - starts with separator", "FirstURL": "https://duckduckgo.com/Sep"}
		]
	}`
	srv := ddgServer(t, http.StatusOK, body)

	results, err := NewDuckDuckGo(srv.URL, 5*time.Second).Search(context.Background(), "golang", Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d: %+v", len(results), results)
	}

	want := []Result{
		{
			Title:   "Go (programming language)",
			URL:     "https://en.wikipedia.org/wiki/Go_(programming_language)",
			Snippet: "Go is a statically typed, compiled language.",
			Source:  "Wikipedia",
		},
		{
			Title:   "Goroutine",
			URL:     "https://duckduckgo.com/Goroutine",
			Snippet: "Goroutine - A lightweight thread.",
			Source:  "DuckDuckGo",
		},
		{
			Title:   "Related",
			URL:     "https://duckduckgo.com/Sep",
			Snippet: "- starts with separator",
			Source:  "DuckDuckGo",
		},
	}
	for i := range want {
		if results[i] != want[i] {
			t.Errorf("result[%d] = %+v, want %+v", i, results[i], want[i])
		}
	}
}

func TestDuckDuckGo_AbstractDefaults(t *testing.T) {
	srv := ddgServer(t, http.StatusOK, `{"Abstract": "Some text."}`)

	results, err := NewDuckDuckGo(srv.URL, 5*time.Second).Search(context.Background(), "x", Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Title != "Main Result" || results[0].Source != "DuckDuckGo" {
		t.Errorf("defaults not applied: %+v", results[0])
	}
}

func TestDuckDuckGo_EmptyAbstractIgnored(t *testing.T) {
	srv := ddgServer(t, http.StatusOK, `{"Abstract": "", "Heading": "Only a heading", "RelatedTopics": []}`)

	results, err := NewDuckDuckGo(srv.URL, 5*time.Second).Search(context.Background(), "x", Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results, got %+v", results)
	}
}

func TestDuckDuckGo_CapsAtFive(t *testing.T) {
	body := `{"Abstract": "Headline.", "RelatedTopics": [
		{"Text": "T1", "FirstURL": "https://1"},
		{"Text": "T2", "FirstURL": "https://2"},
		{"Text": "T3", "FirstURL": "https://3"},
		{"Text": "T4", "FirstURL": "https://4"},
		{"Text": "T5", "FirstURL": "https://5"},
		{"Text": "T6", "FirstURL": "https://6"}
	]}`
	srv := ddgServer(t, http.StatusOK, body)

	results, err := NewDuckDuckGo(srv.URL, 5*time.Second).Search(context.Background(), "x", Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != MaxResults {
		t.Fatalf("expected %d results, got %d", MaxResults, len(results))
	}
	if results[4].URL != "https://4" {
		t.Errorf("last result = %+v, want T4", results[4])
	}
}

func TestDuckDuckGo_IncompleteTopicsDoNotUseSlots(t *testing.T) {
	body := `{"RelatedTopics": [
		{"Text": "", "FirstURL": "https://blank"},
		{"Text": "No link"},
		{"Text": "T1", "FirstURL": "https://1"},
		{"Text": "T2", "FirstURL": "https://2"},
		{"Text": "T3", "FirstURL": "https://3"},
		{"Text": "T4", "FirstURL": "https://4"},
		{"Text": "T5", "FirstURL": "https://5"}
	]}`
	srv := ddgServer(t, http.StatusOK, body)

	results, err := NewDuckDuckGo(srv.URL, 5*time.Second).Search(context.Background(), "x", Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != MaxResults {
		t.Fatalf("expected %d results, got %d", MaxResults, len(results))
	}
	if results[0].URL != "https://1" || results[4].URL != "https://5" {
		t.Errorf("results = %+v", results)
	}
}

func TestDuckDuckGo_CleansMarkup(t *testing.T) {
	body := `{"Abstract": "Fish &amp; chips are <b>British</b>.", "RelatedTopics": []}`
	srv := ddgServer(t, http.StatusOK, body)

	results, err := NewDuckDuckGo(srv.URL, 5*time.Second).Search(context.Background(), "x", Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results[0].Snippet != "Fish & chips are British." {
		t.Errorf("snippet = %q", results[0].Snippet)
	}
}

func TestDuckDuckGo_KeepsLiteralAngleBrackets(t *testing.T) {
	body := `{"Abstract": "a<b is a comparison in many languages.", "RelatedTopics": [
		{"Text": "vector<int> - C++ container", "FirstURL": "https://cpp/vector"}
	]}`
	srv := ddgServer(t, http.StatusOK, body)

	results, err := NewDuckDuckGo(srv.URL, 5*time.Second).Search(context.Background(), "x", Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Snippet != "a<b is a comparison in many languages." {
		t.Errorf("abstract snippet = %q", results[0].Snippet)
	}
	if results[1].Title != "vector<int>" || results[1].Snippet != "vector<int> - C++ container" {
		t.Errorf("topic = %+v", results[1])
	}
}

func TestDuckDuckGo_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, "boom"},
		{"rate limited", http.StatusTooManyRequests, ""},
		{"not json", http.StatusOK, "<html>blocked</html>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := ddgServer(t, tt.status, tt.body)
			if _, err := NewDuckDuckGo(srv.URL, 5*time.Second).Search(context.Background(), "x", Options{}); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestSearcher_UnreachableNetwork(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	mgr := NewManager("duckduckgo")
	mgr.Register(NewDuckDuckGo(url, 2*time.Second))

	queries := []string{"Zypher agent framework", "how does it work", "x vs y", "anything else", ""}
	for _, q := range queries {
		out := NewSearcher(mgr, quietLogger()).Search(context.Background(), q)
		if out.Origin != OriginFallback {
			t.Errorf("%q: Origin = %v, want fallback", q, out.Origin)
		}
		if out.Err == nil {
			t.Errorf("%q: expected transport error to be recorded", q)
		}
		if n := len(out.Results); n < 0 || n > MaxResults {
			t.Errorf("%q: %d results out of bounds", q, n)
		}
	}
}

func TestSearcher_LiveDuckDuckGo(t *testing.T) {
	srv := ddgServer(t, http.StatusOK, `{"Abstract": "Live answer.", "AbstractSource": "Wikipedia"}`)
	mgr := NewManager("duckduckgo")
	mgr.Register(NewDuckDuckGo(srv.URL, 5*time.Second))

	out := NewSearcher(mgr, quietLogger()).Search(context.Background(), "zypher")
	if out.Origin != OriginLive {
		t.Fatalf("Origin = %v, want live", out.Origin)
	}
	if len(out.Results) != 1 || out.Results[0].Source != "Wikipedia" {
		t.Errorf("Results = %+v", out.Results)
	}
}

func TestCleanText(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain text", "plain text"},
		{"  spaced \n out  ", "spaced out"},
		{"a &lt; b &amp;&amp; c", "a < b && c"},
		{"<b>Go</b>lang", "Golang"},
		{"line one<br>line two", "line one line two"},
		{"<p>first</p><p>second</p>", "first second"},
		{`see <a href="https://go.dev">go.dev</a>`, "see go.dev"},
		{"one<br/>two<BR />three", "one two three"},
		{"If x<y then swap them. Done.", "If x<y then swap them. Done."},
		{"Templates like vector<int> & map - C++ reference", "Templates like vector<int> & map - C++ reference"},
		{"<i>vector</i><int>", "vector<int>"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := cleanText(tt.in); got != tt.want {
			t.Errorf("cleanText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
