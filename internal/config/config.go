// Package config handles research assistant configuration loading.
//
// Configuration is built once at start-up and passed explicitly into
// the components that need it. No other package reads the process
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvOpenAIKey is the environment variable that supplies the
// language-model credential. It overrides llm.api_key from the file.
const EnvOpenAIKey = "OPENAI_API_KEY"

// Defaults for the language-model and search sections.
const (
	DefaultLLMBaseURL     = "https://api.openai.com/v1"
	DefaultLLMModel       = "gpt-4o-mini"
	DefaultLLMMaxTokens   = 400
	DefaultLLMTemperature = 0.2
	DefaultLLMTimeout     = 60 * time.Second
	DefaultSearchProvider = "duckduckgo"
	DefaultSearchTimeout  = 15 * time.Second
	DefaultListenPort     = 8080
)

// ErrNoConfigFile is returned by FindConfig when no config file exists in
// any of the default locations. Callers treat it as "use defaults".
var ErrNoConfigFile = errors.New("no config file found")

// DefaultSearchPaths returns the config file search order.
// An explicit path (from -config flag) is checked first.
// Then: ./config.yaml, ~/.config/research/config.yaml, /etc/research/config.yaml.
func DefaultSearchPaths() []string {
	paths := []string{"config.yaml"}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "research", "config.yaml"))
	}

	paths = append(paths, "/etc/research/config.yaml")
	return paths
}

// FindConfig locates a config file. If explicit is non-empty, it must exist.
// Otherwise, searches DefaultSearchPaths and returns the first that exists.
// When nothing is found the returned error wraps [ErrNoConfigFile].
func FindConfig(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	for _, p := range DefaultSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("%w (searched: %v)", ErrNoConfigFile, DefaultSearchPaths())
}

// Config holds all research assistant configuration.
type Config struct {
	LLM       LLMConfig     `yaml:"llm"`
	Search    SearchConfig  `yaml:"search"`
	Listen    ListenConfig  `yaml:"listen"`
	LogLevel  string        `yaml:"log_level"`
	LogFormat string        `yaml:"log_format"` // text (default) or json
	LogFile   LogFileConfig `yaml:"log_file"`
}

// LLMConfig defines the chat-completion endpoint used for summaries.
// An empty APIKey is a supported state: summaries fall back to
// sentence extraction.
type LLMConfig struct {
	APIKey    string `yaml:"api_key"`
	BaseURL   string `yaml:"base_url"`
	Model     string `yaml:"model"`
	MaxTokens int    `yaml:"max_tokens"`

	// Temperature is nil when unset, so an explicit 0 survives defaults.
	Temperature *float64 `yaml:"temperature"`

	Timeout time.Duration `yaml:"timeout"`
}

// Configured reports whether an API key is set.
func (c LLMConfig) Configured() bool {
	return c.APIKey != ""
}

// SearchConfig selects and configures the live search backend.
type SearchConfig struct {
	// Provider is one of "duckduckgo", "brave", or "searxng".
	Provider string        `yaml:"provider"`
	Timeout  time.Duration `yaml:"timeout"`
	Brave    BraveConfig   `yaml:"brave"`
	SearXNG  SearXNGConfig `yaml:"searxng"`

	// Language is an optional ISO 639-1 code passed to backends that
	// can filter by it. Empty leaves the backend's default.
	Language string `yaml:"language"`
}

// BraveConfig holds configuration for the Brave Search provider.
type BraveConfig struct {
	APIKey string `yaml:"api_key"`
}

// Configured reports whether a Brave API key is set.
func (c BraveConfig) Configured() bool {
	return c.APIKey != ""
}

// SearXNGConfig holds configuration for the SearXNG provider.
type SearXNGConfig struct {
	URL                string `yaml:"url"`
	InsecureSkipVerify bool   `yaml:"insecure_skip_verify"`
}

// Configured reports whether a SearXNG URL is set.
func (c SearXNGConfig) Configured() bool {
	return c.URL != ""
}

// ListenConfig defines the HTTP server settings for serve mode.
type ListenConfig struct {
	Address string `yaml:"address"` // Bind address (default: "" = all interfaces)
	Port    int    `yaml:"port"`
}

// LogFileConfig routes logs to a size-rotated file instead of stderr.
type LogFileConfig struct {
	Path       string `yaml:"path"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// Load reads configuration from a YAML file. Environment variables in
// the file are expanded before parsing, and unset fields receive their
// defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	expanded := os.ExpandEnv(string(data))

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	return cfg, nil
}

// Default returns a configuration with every field at its default. It
// is what the assistant runs with when no config file exists.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = DefaultLLMBaseURL
	}
	if c.LLM.Model == "" {
		c.LLM.Model = DefaultLLMModel
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = DefaultLLMMaxTokens
	}
	if c.LLM.Temperature == nil {
		t := DefaultLLMTemperature
		c.LLM.Temperature = &t
	}
	if c.LLM.Timeout == 0 {
		c.LLM.Timeout = DefaultLLMTimeout
	}
	if c.Search.Provider == "" {
		c.Search.Provider = DefaultSearchProvider
	}
	if c.Search.Timeout == 0 {
		c.Search.Timeout = DefaultSearchTimeout
	}
	if c.Listen.Port == 0 {
		c.Listen.Port = DefaultListenPort
	}
	if c.LogFile.Path != "" {
		if c.LogFile.MaxSizeMB == 0 {
			c.LogFile.MaxSizeMB = 15
		}
		if c.LogFile.MaxBackups == 0 {
			c.LogFile.MaxBackups = 3
		}
		if c.LogFile.MaxAgeDays == 0 {
			c.LogFile.MaxAgeDays = 28
		}
	}
}

// ApplyEnv overlays values taken from the process environment. getenv
// is normally [os.Getenv]; tests pass a map lookup instead.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if key := getenv(EnvOpenAIKey); key != "" {
		c.LLM.APIKey = key
	}
}

// Validate checks for values that would otherwise fail later at
// runtime in a less obvious way.
func (c *Config) Validate() error {
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	switch c.LogFormat {
	case "", "text", "json":
	default:
		return fmt.Errorf("unknown log_format %q (valid: text, json)", c.LogFormat)
	}
	switch c.Search.Provider {
	case "duckduckgo":
	case "brave":
		if !c.Search.Brave.Configured() {
			return fmt.Errorf("search.provider is brave but search.brave.api_key is empty")
		}
	case "searxng":
		if !c.Search.SearXNG.Configured() {
			return fmt.Errorf("search.provider is searxng but search.searxng.url is empty")
		}
	default:
		return fmt.Errorf("unknown search.provider %q (valid: duckduckgo, brave, searxng)", c.Search.Provider)
	}
	if !validLanguage(c.Search.Language) {
		return fmt.Errorf("search.language %q is not a two-letter code", c.Search.Language)
	}
	if c.Listen.Port < 1 || c.Listen.Port > 65535 {
		return fmt.Errorf("listen.port %d out of range", c.Listen.Port)
	}
	if t := c.LLM.Temperature; t != nil && (*t < 0 || *t > 2) {
		return fmt.Errorf("llm.temperature %.2f out of range [0, 2]", *t)
	}
	return nil
}

func validLanguage(lang string) bool {
	if lang == "" {
		return true
	}
	if len(lang) != 2 {
		return false
	}
	for _, r := range lang {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}
