// Package summarizer condenses search snippets into a short summary. A
// language model is used when one is configured; otherwise the leading
// sentences of the snippets are extracted.
package summarizer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"github.com/nugget/research-assistant/internal/llm"
)

// MaxSentences is the number of sentences kept by the extractive fallback.
const MaxSentences = 6

// Method records which branch produced a [Summary].
type Method int

const (
	// MethodNoContent means there were no snippets to summarize.
	MethodNoContent Method = iota
	// MethodModel means the text came from the language model.
	MethodModel
	// MethodExtract means the text is the leading sentences of the input.
	MethodExtract
)

func (m Method) String() string {
	switch m {
	case MethodNoContent:
		return "no_content"
	case MethodModel:
		return "model"
	case MethodExtract:
		return "extract"
	default:
		return fmt.Sprintf("method(%d)", int(m))
	}
}

// MarshalText renders the method by name in JSON output.
func (m Method) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// Summary is the result of [Summarizer.Summarize].
type Summary struct {
	Text   string
	Method Method
}

// Summarizer produces summaries. A nil completer is allowed and always
// selects the extractive path.
type Summarizer struct {
	completer llm.Completer
	logger    *slog.Logger
}

// New creates a Summarizer.
func New(completer llm.Completer, logger *slog.Logger) *Summarizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Summarizer{
		completer: completer,
		logger:    logger.With("component", "summarizer"),
	}
}

// NoContentMessage is the summary returned when there is nothing to
// summarize.
func NoContentMessage(query string) string {
	return `I couldn't find direct content for "` + query + `".`
}

// Prompt builds the instruction sent to the language model.
func Prompt(content string) string {
	return "Summarize the following content in 3 short bullet points. Content:\n\n" + content
}

// Summarize never fails. Empty snippets produce the no-content message.
func (s *Summarizer) Summarize(ctx context.Context, query string, snippets []string) Summary {
	if len(snippets) == 0 {
		return Summary{Text: NoContentMessage(query), Method: MethodNoContent}
	}

	combined := strings.Join(snippets, "\n\n")

	if s.completer != nil && s.completer.Available() {
		if text, ok := s.completer.Complete(ctx, Prompt(combined)); ok {
			return Summary{Text: text, Method: MethodModel}
		}
		s.logger.Warn("model summary unavailable, extracting sentences",
			"snippets", len(snippets),
		)
	} else {
		s.logger.Debug("no language model configured, extracting sentences")
	}

	return Summary{Text: Extract(combined, MaxSentences), Method: MethodExtract}
}

// Extract returns the first max sentences of text joined by single
// spaces. A sentence ends at '.', '!' or '?' followed by whitespace; the
// whitespace run between sentences is dropped and everything else is
// kept as written.
func Extract(text string, max int) string {
	sentences := splitSentences(text)
	if len(sentences) > max {
		sentences = sentences[:max]
	}
	return strings.Join(sentences, " ")
}

func splitSentences(text string) []string {
	var out []string
	start := 0
	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		switch runes[i] {
		case '.', '!', '?':
		default:
			continue
		}
		j := i + 1
		for j < len(runes) && unicode.IsSpace(runes[j]) {
			j++
		}
		if j == i+1 {
			continue
		}
		out = append(out, string(runes[start:i+1]))
		start = j
		i = j - 1
	}
	return append(out, string(runes[start:]))
}
