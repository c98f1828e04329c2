// Package config loads and hot-swaps KeyAI Desktop's runtime configuration.
package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Sudo-psc/keyai-desktop/internal/logging"
)

// Config holds every tunable named in the external interface's
// configuration table.
type Config struct {
	Capture  CaptureConfig  `yaml:"capture"`
	Persist  PersistConfig  `yaml:"persist"`
	Store    StoreConfig    `yaml:"store"`
	Search   SearchConfig   `yaml:"search"`
	Logging  logging.Settings `yaml:"logging"`
}

// CaptureConfig mirrors the CaptureConfig entity of the data model (§3):
// buffer capacity, flush interval, toggles, ignore lists. Durations are
// stored as milliseconds on the wire so the YAML/env surface stays plain
// integers, matching the config table's *_ms keys.
type CaptureConfig struct {
	BufferSize              int      `yaml:"buffer_size"`
	FlushIntervalMS         int      `yaml:"flush_interval_ms"`
	MaxEventsPerFlush       int      `yaml:"max_events_per_flush"`
	CaptureModifiers        bool     `yaml:"capture_modifiers"`
	CaptureFunctionKeys     bool     `yaml:"capture_function_keys"`
	WindowUpdateIntervalMS  int      `yaml:"window_update_interval_ms"`
	IgnoredApplications     []string `yaml:"ignored_applications"`
	IgnoredWindowPatterns   []string `yaml:"ignored_window_patterns"`

	compiledIgnoredWindows []*regexp.Regexp
}

// PersistConfig controls batching of the Persist stage.
type PersistConfig struct {
	MaxEventsPerFlush int `yaml:"max_events_per_flush"`
	FlushIntervalMS   int `yaml:"flush_interval_ms"`
	MaxRetries        int `yaml:"max_retries"`
}

// StoreConfig controls the embedded database.
type StoreConfig struct {
	Path               string `yaml:"path"`
	DatabaseKey        string `yaml:"database_key"`
	EmbeddingModelTag  string `yaml:"embedding_model_tag"`
	EmbeddingProvider  string `yaml:"embedding_provider"`
	OllamaEndpoint     string `yaml:"ollama_endpoint"`
	OllamaModel        string `yaml:"ollama_model"`
	GenAIAPIKey        string `yaml:"genai_api_key"`
	GenAIModel         string `yaml:"genai_model"`
}

// SearchConfig controls default search behavior.
type SearchConfig struct {
	DefaultLimit     int     `yaml:"default_limit"`
	HardLimitCap     int     `yaml:"hard_limit_cap"`
	TextWeight       float64 `yaml:"text_weight"`
	SemanticWeight   float64 `yaml:"semantic_weight"`
	Threshold        float64 `yaml:"threshold"`
	RRFConstant      float64 `yaml:"rrf_constant"`
	SuggestionsMaxN  int     `yaml:"suggestions_max_n"`
}

// WindowUpdateInterval returns the probe cadence as a time.Duration.
func (c CaptureConfig) WindowUpdateInterval() time.Duration {
	return time.Duration(c.WindowUpdateIntervalMS) * time.Millisecond
}

// FlushInterval returns the capture-side flush interval as a time.Duration.
func (c CaptureConfig) FlushInterval() time.Duration {
	return time.Duration(c.FlushIntervalMS) * time.Millisecond
}

// IgnoredWindowRegexes returns the compiled title regexes. Call Validate
// first; an uncompiled config returns nil.
func (c CaptureConfig) IgnoredWindowRegexes() []*regexp.Regexp {
	return c.compiledIgnoredWindows
}

// DefaultConfig returns the out-of-the-box configuration.
func DefaultConfig() *Config {
	return &Config{
		Capture: CaptureConfig{
			BufferSize:             4096,
			FlushIntervalMS:        2000,
			MaxEventsPerFlush:      500,
			CaptureModifiers:       false,
			CaptureFunctionKeys:    false,
			WindowUpdateIntervalMS: 500,
			IgnoredApplications:    []string{"1password", "keepassxc", "bitwarden"},
			IgnoredWindowPatterns:  []string{},
		},
		Persist: PersistConfig{
			MaxEventsPerFlush: 500,
			FlushIntervalMS:   2000,
			MaxRetries:        3,
		},
		Store: StoreConfig{
			Path:              defaultDatabasePath(),
			EmbeddingModelTag: "hash-v1",
			EmbeddingProvider: "hash",
			OllamaEndpoint:    "http://localhost:11434",
			OllamaModel:       "embeddinggemma",
			GenAIModel:        "gemini-embedding-001",
		},
		Search: SearchConfig{
			DefaultLimit:    50,
			HardLimitCap:    1000,
			TextWeight:      0.7,
			SemanticWeight:  0.3,
			Threshold:       0.5,
			RRFConstant:     60,
			SuggestionsMaxN: 200,
		},
		Logging: logging.Settings{
			DebugMode: false,
			Level:     "info",
		},
	}
}

func defaultDatabasePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return dir + "/keyai-desktop/events.db"
}

// Load reads YAML from path, falling back to DefaultConfig if the file is
// absent, then applies environment overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("KEYAI_BUFFER_SIZE"); v != "" {
		if n, err := parsePositiveInt(v); err == nil {
			c.Capture.BufferSize = n
		}
	}
	if v := os.Getenv("KEYAI_FLUSH_INTERVAL_MS"); v != "" {
		if n, err := parsePositiveInt(v); err == nil {
			c.Capture.FlushIntervalMS = n
			c.Persist.FlushIntervalMS = n
		}
	}
	if v := os.Getenv("KEYAI_MAX_EVENTS_PER_FLUSH"); v != "" {
		if n, err := parsePositiveInt(v); err == nil {
			c.Capture.MaxEventsPerFlush = n
			c.Persist.MaxEventsPerFlush = n
		}
	}
	if v := os.Getenv("KEYAI_DATABASE_KEY"); v != "" {
		c.Store.DatabaseKey = v
	}
	if v := os.Getenv("KEYAI_EMBEDDING_MODEL_TAG"); v != "" {
		c.Store.EmbeddingModelTag = v
	}
	if v := os.Getenv("KEYAI_DB_PATH"); v != "" {
		c.Store.Path = v
	}
}

func parsePositiveInt(s string) (int, error) {
	var n int
	if _, err := fmt.Sscanf(s, "%d", &n); err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("value must be positive, got %d", n)
	}
	return n, nil
}

// Validate compiles regexes and checks numeric ranges, matching spec's
// ConfigInvalid: "regex compile, numeric range, missing key" failure class.
// Validate also compiles IgnoredWindowPatterns into
// CaptureConfig.compiledIgnoredWindows, so callers must use the returned
// (possibly same) *Config rather than a stale copy.
func (c *Config) Validate() error {
	if c.Capture.BufferSize <= 0 {
		return fmt.Errorf("%w: capture.buffer_size must be positive", ErrConfigInvalid)
	}
	if c.Capture.FlushIntervalMS <= 0 {
		return fmt.Errorf("%w: capture.flush_interval_ms must be positive", ErrConfigInvalid)
	}
	if c.Capture.MaxEventsPerFlush <= 0 {
		return fmt.Errorf("%w: capture.max_events_per_flush must be positive", ErrConfigInvalid)
	}
	if c.Capture.WindowUpdateIntervalMS <= 0 {
		return fmt.Errorf("%w: capture.window_update_interval_ms must be positive", ErrConfigInvalid)
	}
	if c.Search.TextWeight < 0 || c.Search.SemanticWeight < 0 {
		return fmt.Errorf("%w: search weights must be non-negative", ErrConfigInvalid)
	}
	if c.Search.Threshold < 0 || c.Search.Threshold > 1 {
		return fmt.Errorf("%w: search.threshold must be within [0,1]", ErrConfigInvalid)
	}

	compiled := make([]*regexp.Regexp, 0, len(c.Capture.IgnoredWindowPatterns))
	for _, pattern := range c.Capture.IgnoredWindowPatterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return fmt.Errorf("%w: ignored_window_patterns %q: %v", ErrConfigInvalid, pattern, err)
		}
		compiled = append(compiled, re)
	}
	c.Capture.compiledIgnoredWindows = compiled
	return nil
}

// Clone returns a deep-enough copy suitable for atomic hot-swap: slices and
// the compiled regex table are copied so mutating the source config after
// UpdateConfig cannot race with readers of the published snapshot.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Capture.IgnoredApplications = append([]string(nil), c.Capture.IgnoredApplications...)
	clone.Capture.IgnoredWindowPatterns = append([]string(nil), c.Capture.IgnoredWindowPatterns...)
	clone.Capture.compiledIgnoredWindows = append([]*regexp.Regexp(nil), c.Capture.compiledIgnoredWindows...)
	return &clone
}
