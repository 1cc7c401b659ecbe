// Research is a command-line research assistant.
//
// It takes a free-text question, runs a web search, condenses the
// results into a short summary (with a language model when an API key is
// configured, otherwise by sentence extraction), and lists the sources.
// Every answered question is kept in an in-memory history for the life
// of the process. Configuration is loaded from a YAML file discovered
// automatically (see [config.DefaultSearchPaths]); without one, built-in
// defaults are used.
//
// Usage:
//
//	research                  Start the interactive prompt
//	research repl             Same as above
//	research ask <question>   Answer a single question and exit
//	research search <query>   Show raw search results for a query
//	research serve            Start the HTTP API server
//	research init [dir]       Write an example config file
//	research version          Print version and build information
//	research -o json ask ...  Output machine-readable JSON
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/nugget/research-assistant/internal/api"
	"github.com/nugget/research-assistant/internal/buildinfo"
	"github.com/nugget/research-assistant/internal/config"
	"github.com/nugget/research-assistant/internal/history"
	"github.com/nugget/research-assistant/internal/llm"
	"github.com/nugget/research-assistant/internal/research"
	"github.com/nugget/research-assistant/internal/search"
	"github.com/nugget/research-assistant/internal/summarizer"
)

// main constructs the OS-level environment and delegates to [run], which
// keeps os.Exit and the process globals out of the application logic.
func main() {
	ctx := context.Background()

	if err := run(ctx, os.Stdin, os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

// run is the real entry point. Answers go to stdout and logs go to
// stderr (or the configured log file). Arguments are parsed by hand
// because the flag package's global state gets in the way of calling
// run from parallel tests.
func run(ctx context.Context, stdin io.Reader, stdout io.Writer, stderr io.Writer, args []string) error {
	var configPath string
	var outputFmt string // "text" (default) or "json"
	var command string
	var cmdArgs []string

	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "-config" && i+1 < len(args):
			configPath = args[i+1]
			i++
		case strings.HasPrefix(args[i], "-config="):
			configPath = strings.TrimPrefix(args[i], "-config=")
		case (args[i] == "-o" || args[i] == "--output") && i+1 < len(args):
			outputFmt = args[i+1]
			i++
		case strings.HasPrefix(args[i], "-o="):
			outputFmt = strings.TrimPrefix(args[i], "-o=")
		case strings.HasPrefix(args[i], "--output="):
			outputFmt = strings.TrimPrefix(args[i], "--output=")
		case args[i] == "-h" || args[i] == "-help" || args[i] == "--help":
			return printUsage(stdout)
		case !strings.HasPrefix(args[i], "-") && command == "":
			command = args[i]
		default:
			if command != "" {
				cmdArgs = append(cmdArgs, args[i])
			} else {
				return fmt.Errorf("unknown flag: %s", args[i])
			}
		}
	}

	if outputFmt == "" {
		outputFmt = "text"
	}
	if outputFmt != "text" && outputFmt != "json" {
		return fmt.Errorf("unknown output format: %q (expected text or json)", outputFmt)
	}

	switch command {
	case "", "repl":
		return runInteractive(ctx, stdin, stdout, stderr, configPath)
	case "ask":
		if joinArgs(cmdArgs) == "" {
			return fmt.Errorf("usage: research ask <question>")
		}
		return runAsk(ctx, stdout, stderr, configPath, outputFmt, cmdArgs)
	case "search":
		if joinArgs(cmdArgs) == "" {
			return fmt.Errorf("usage: research search <query>")
		}
		return runSearch(ctx, stdout, stderr, configPath, outputFmt, cmdArgs)
	case "serve":
		return runServe(ctx, stderr, configPath)
	case "init":
		dir := "."
		if len(cmdArgs) > 0 {
			dir = cmdArgs[0]
		}
		return runInit(stdout, dir)
	case "version":
		return runVersion(stdout, outputFmt)
	case "help":
		return printUsage(stdout)
	default:
		return fmt.Errorf("unknown command: %s", command)
	}
}

// runVersion prints build metadata in the requested output format.
func runVersion(w io.Writer, outputFmt string) error {
	info := buildinfo.Info()
	if outputFmt == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}
	fmt.Fprintln(w, buildinfo.String())
	for _, k := range []string{"version", "git_commit", "git_branch", "build_time", "go_version", "os", "arch"} {
		if v, ok := info[k]; ok {
			fmt.Fprintf(w, "  %-12s %s\n", k+":", v)
		}
	}
	return nil
}

// joinArgs rebuilds a free-text question from positional arguments.
func joinArgs(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// printUsage writes the top-level help text to w.
func printUsage(w io.Writer) error {
	fmt.Fprintln(w, "Research - command-line research assistant")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage: research [flags] [command] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  repl            Interactive prompt (default when no command is given)")
	fmt.Fprintln(w, "  ask <question>  Answer a single question")
	fmt.Fprintln(w, "  search <query>  Show search results without summarizing")
	fmt.Fprintln(w, "  serve           Start the HTTP API server")
	fmt.Fprintln(w, "  init [dir]      Write an example config.yaml (default: .)")
	fmt.Fprintln(w, "  version         Show version information")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -config <path>    Path to config file (default: auto-discover)")
	fmt.Fprintln(w, "  -o, --output fmt  Output format: text (default) or json")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Config search order:")
	fmt.Fprintln(w, "  ./config.yaml, ~/.config/research/config.yaml, /etc/research/config.yaml")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Set %s to enable model-written summaries.\n", config.EnvOpenAIKey)
	return nil
}

// env is everything a subcommand needs once configuration is loaded.
type env struct {
	cfg      *config.Config
	logger   *slog.Logger
	searcher *search.Searcher
	agent    *research.Agent
	close    func() error
}

// setup loads configuration, builds the logger, and wires the query
// pipeline. The returned env's close function must be called on exit.
func setup(stderr io.Writer, configPath string) (*env, error) {
	cfg, cfgPath, err := loadConfig(configPath, os.Getenv)
	if err != nil {
		return nil, err
	}

	// Validate has already accepted the level.
	level, _ := config.ParseLogLevel(cfg.LogLevel)
	logOut, closeLog := cfg.LogFile.Writer(stderr)
	logger := config.NewLogger(logOut, level, cfg.LogFormat)

	if cfgPath != "" {
		logger.Debug("config loaded", "path", cfgPath)
	} else {
		logger.Debug("no config file found, using defaults")
	}

	mgr := newSearchManager(cfg)
	logger.Debug("search backends registered",
		"primary", mgr.Name(),
		"providers", mgr.Providers(),
	)
	searcher := search.NewSearcher(mgr, logger)
	searcher.SetLanguage(cfg.Search.Language)

	completer := llm.NewOpenAIClient(llm.OpenAIConfig{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
	}, logger)
	if !cfg.LLM.Configured() {
		logger.Info("no language model credential, summaries use sentence extraction",
			"env", config.EnvOpenAIKey,
		)
	}

	agent := research.New(searcher, summarizer.New(completer, logger), history.New(), logger)

	return &env{
		cfg:      cfg,
		logger:   logger,
		searcher: searcher,
		agent:    agent,
		close:    closeLog,
	}, nil
}

// loadConfig locates and parses the YAML configuration file. An explicit
// path must exist. When auto-discovery finds nothing, defaults are used
// and the returned path is empty. Environment overrides are applied and
// the result is validated.
func loadConfig(explicit string, getenv func(string) string) (*config.Config, string, error) {
	var cfg *config.Config
	cfgPath, err := config.FindConfig(explicit)
	switch {
	case errors.Is(err, config.ErrNoConfigFile):
		cfg, cfgPath = config.Default(), ""
	case err != nil:
		return nil, "", err
	default:
		cfg, err = config.Load(cfgPath)
		if err != nil {
			return nil, cfgPath, fmt.Errorf("load config %s: %w", cfgPath, err)
		}
	}

	cfg.ApplyEnv(getenv)

	if err := cfg.Validate(); err != nil {
		return nil, cfgPath, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, cfgPath, nil
}

// newSearchManager registers every backend the configuration can support
// and selects the configured one as primary.
func newSearchManager(cfg *config.Config) *search.Manager {
	mgr := search.NewManager(cfg.Search.Provider)
	mgr.Register(search.NewDuckDuckGo("", cfg.Search.Timeout))
	if cfg.Search.Brave.Configured() {
		mgr.Register(search.NewBrave(cfg.Search.Brave.APIKey, "", cfg.Search.Timeout))
	}
	if cfg.Search.SearXNG.Configured() {
		mgr.Register(search.NewSearXNG(cfg.Search.SearXNG.URL, cfg.Search.Timeout, cfg.Search.SearXNG.InsecureSkipVerify))
	}
	return mgr
}

// runInteractive handles the default command: a line-per-question
// prompt on stdin. Ctrl+C keeps its default behaviour and ends the
// process.
func runInteractive(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer, configPath string) error {
	e, err := setup(stderr, configPath)
	if err != nil {
		return err
	}
	defer e.close()

	return runREPL(ctx, stdin, stdout, e.agent, e.logger, isTerminal(stdin))
}

// runAsk answers one question and exits.
func runAsk(ctx context.Context, stdout, stderr io.Writer, configPath, outputFmt string, args []string) error {
	e, err := setup(stderr, configPath)
	if err != nil {
		return err
	}
	defer e.close()

	res := e.agent.HandleQuery(ctx, joinArgs(args))

	if outputFmt == "json" {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	printResult(stdout, res)
	return nil
}

// runSearch shows what the search layer returns for a query, including
// whether the mock fallback was used.
func runSearch(ctx context.Context, stdout, stderr io.Writer, configPath, outputFmt string, args []string) error {
	e, err := setup(stderr, configPath)
	if err != nil {
		return err
	}
	defer e.close()

	out := e.searcher.Search(ctx, joinArgs(args))

	if outputFmt == "json" {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Provider string          `json:"provider"`
			Origin   search.Origin   `json:"origin"`
			Results  []search.Result `json:"results"`
		}{out.Provider, out.Origin, out.Results})
	}

	fmt.Fprintln(stdout, search.FormatResults(out.Results))
	if out.Origin == search.OriginFallback {
		fmt.Fprintf(stdout, "\n(%s unavailable; showing offline results)\n", out.Provider)
	}
	return nil
}

// runServe starts the HTTP API and blocks until SIGINT or SIGTERM.
func runServe(ctx context.Context, stderr io.Writer, configPath string) error {
	e, err := setup(stderr, configPath)
	if err != nil {
		return err
	}
	defer e.close()

	e.logger.Info("starting research assistant",
		"version", buildinfo.Version,
		"commit", buildinfo.GitCommit,
		"search_provider", e.cfg.Search.Provider,
		"model", e.cfg.LLM.Model,
	)

	server := api.NewServer(e.cfg.Listen.Address, e.cfg.Listen.Port, e.agent, e.logger)

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go func() {
		<-ctx.Done()
		e.logger.Info("shutdown signal received")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			e.logger.Error("server shutdown failed", "error", err)
		}
	}()

	if err := server.Start(ctx); err != nil {
		if ctx.Err() == nil {
			return fmt.Errorf("server failed: %w", err)
		}
	}

	e.logger.Info("research assistant stopped", "queries", e.agent.History().Len())
	return nil
}

// isTerminal reports whether r is an interactive terminal.
func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
