package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/nugget/research-assistant/internal/citation"
	"github.com/nugget/research-assistant/internal/history"
	"github.com/nugget/research-assistant/internal/research"
)

// maxLineBytes bounds a single REPL input line.
const maxLineBytes = 1 << 20

// historyCommand shows recent questions instead of running a query.
const historyCommand = "history"

// queryHandler is the part of [research.Agent] the REPL uses.
type queryHandler interface {
	HandleQuery(ctx context.Context, query string) research.Result
	History() *history.Log
}

// runREPL reads one question per line until in is exhausted or ctx is
// cancelled. Blank lines are skipped. A failure while answering one
// question is logged and the loop moves on to the next line; so is a
// line longer than maxLineBytes. The prompt is only printed when
// interactive is true.
func runREPL(ctx context.Context, in io.Reader, out io.Writer, agent queryHandler, logger *slog.Logger, interactive bool) error {
	fmt.Fprintln(out, "Research Assistant")
	fmt.Fprintln(out, "Type a research query and press Enter. Ctrl+C to exit.")

	reader := bufio.NewReader(in)

	prompt := func() {
		if interactive {
			fmt.Fprint(out, "> ")
		}
	}

	prompt()
	for {
		line, tooLong, err := readLine(reader, maxLineBytes)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}
		if ctx.Err() != nil {
			return nil
		}

		if tooLong {
			logger.Warn("input line too long, skipping", "limit_bytes", maxLineBytes)
			fmt.Fprintf(out, "Question too long (limit %d bytes), skipped.\n", maxLineBytes)
			prompt()
			continue
		}

		query := strings.TrimSpace(line)
		if query == "" {
			prompt()
			continue
		}

		if query == historyCommand {
			printHistory(out, agent.History().Last(history.DefaultLast))
		} else {
			handleLine(ctx, out, agent, logger, query)
			fmt.Fprintln(out, "\nAsk another question:")
		}
		prompt()
	}
}

// readLine returns the next line without its terminator. A line longer
// than limit is consumed in full but not returned, and tooLong is set.
// io.EOF is only reported once no line remains.
func readLine(r *bufio.Reader, limit int) (line string, tooLong bool, err error) {
	var buf []byte
	for {
		chunk, isPrefix, err := r.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) && (len(buf) > 0 || tooLong) {
				return string(buf), tooLong, nil
			}
			return "", false, err
		}
		if !tooLong {
			if len(buf)+len(chunk) > limit {
				tooLong = true
				buf = nil
			} else {
				buf = append(buf, chunk...)
			}
		}
		if !isPrefix {
			return string(buf), tooLong, nil
		}
	}
}

// handleLine answers one question, recovering from any panic so the
// loop survives.
func handleLine(ctx context.Context, out io.Writer, agent queryHandler, logger *slog.Logger, query string) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("error handling query", "query", query, "panic", r)
		}
	}()

	printResult(out, agent.HandleQuery(ctx, query))
}

// printResult writes a summary followed by its sources, if any.
func printResult(out io.Writer, res research.Result) {
	fmt.Fprintln(out, "\n--- Summary ---")
	fmt.Fprintln(out)
	fmt.Fprintln(out, res.Summary)
	if len(res.Sources) > 0 {
		fmt.Fprintln(out, "\nSources:")
		for _, s := range res.Sources {
			fmt.Fprintf(out, "- %s\n", s)
		}
	}
}

func printHistory(out io.Writer, entries []history.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(out, "No questions asked yet.")
		return
	}
	for _, e := range entries {
		fmt.Fprintf(out, "\n%s  %s\n", e.CreatedAt.Format("15:04:05"), e.Query)
		for _, c := range citation.Numbered(e.Sources) {
			fmt.Fprintf(out, "    %s\n", c)
		}
	}
}
