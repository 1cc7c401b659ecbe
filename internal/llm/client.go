// Package llm provides the language-model client used for summaries.
package llm

import (
	"context"
	"log/slog"
)

// LevelTrace is below Debug, used for wire-level payload logging.
const LevelTrace = slog.Level(-8)

// Completer turns a single prompt into generated text.
//
// Complete reports ok=false when no text could be produced for any
// reason (no credential, transport failure, non-success status, empty
// response). Callers treat that as "try another path", never as a hard
// failure.
type Completer interface {
	// Available reports whether a call could be attempted at all.
	Available() bool

	// Complete sends prompt as a single user message.
	Complete(ctx context.Context, prompt string) (text string, ok bool)
}
