// Package config provides the configuration schema, loader, and provider
// registry for the tutor client.
package config

import "time"

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Config is the root configuration structure.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`

	// LogFile receives logs while a full-screen view is active. Empty means
	// logs are discarded during those views.
	LogFile string `yaml:"log_file"`

	Portal        PortalConfig        `yaml:"portal"`
	Chat          ChatConfig          `yaml:"chat"`
	Transcription TranscriptionConfig `yaml:"transcription"`
	Quiz          QuizConfig          `yaml:"quiz"`
	Audio         ProviderEntry       `yaml:"audio"`
	ModelServer   ModelServerConfig   `yaml:"model_server"`
	Telemetry     TelemetryConfig     `yaml:"telemetry"`
}

// PortalConfig locates the portal API and the stored session.
type PortalConfig struct {
	// BaseURL is the portal API root (e.g., "http://localhost:8001").
	BaseURL string `yaml:"base_url"`

	// SessionFile stores the session cookie between invocations.
	// Defaults to <user config dir>/tutor/session.json.
	SessionFile string `yaml:"session_file"`

	// Timeout bounds non-chat portal requests.
	Timeout time.Duration `yaml:"timeout"`
}

// ChatConfig tunes message dispatch.
type ChatConfig struct {
	// Endpoint overrides the chat path relative to the portal base URL.
	Endpoint string `yaml:"endpoint"`

	// HistoryEndpoint overrides the history path.
	HistoryEndpoint string `yaml:"history_endpoint"`

	// Timeout bounds each attempt. Defaults to 90s.
	Timeout time.Duration `yaml:"timeout"`

	// MaxRetries is the number of retries after a network failure. Nil means
	// the default of 2; 0 disables retries.
	MaxRetries *int `yaml:"max_retries"`

	// RetryDelay is the pause before each retry. Defaults to 2s.
	RetryDelay time.Duration `yaml:"retry_delay"`
}

// Retries returns MaxRetries or the default.
func (c ChatConfig) Retries() int {
	if c.MaxRetries == nil {
		return DefaultChatRetries
	}
	return *c.MaxRetries
}

// TranscriptionConfig selects the speech-to-text chain.
type TranscriptionConfig struct {
	// Endpoint overrides the portal transcription path.
	Endpoint string `yaml:"endpoint"`

	// Language is the language hint sent with each clip.
	Language string `yaml:"language"`

	// Timeout bounds one transcription across all providers.
	Timeout time.Duration `yaml:"timeout"`

	// Providers is tried in order; the first is primary and the rest are
	// fallbacks. Defaults to the portal endpoint alone.
	Providers []ProviderEntry `yaml:"providers"`
}

// QuizConfig locates the test-generation server.
type QuizConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// ModelServerConfig locates the model server for health checks.
type ModelServerConfig struct {
	HealthURL string `yaml:"health_url"`
}

// TelemetryConfig configures local observability endpoints.
type TelemetryConfig struct {
	// MetricsAddr serves /metrics, /healthz and /readyz while chatting.
	// Empty disables the listener.
	MetricsAddr string `yaml:"metrics_addr"`

	// SampleRatio is the fraction of chat and quiz traces kept, in [0, 1].
	// Zero keeps all of them.
	SampleRatio float64 `yaml:"sample_ratio"`
}

// ProviderEntry is the common configuration block shared by all provider types.
// The Name field is used to look up the constructor in the [Registry].
type ProviderEntry struct {
	// Name selects the registered provider implementation (e.g., "portal", "openai").
	Name string `yaml:"name"`

	// APIKey is the authentication key for the provider's API if any.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the provider's default endpoint.
	// Leave empty to use the provider's built-in default.
	BaseURL string `yaml:"base_url"`

	// Model selects a specific model within the provider (e.g., "whisper-1").
	Model string `yaml:"model"`

	// Options holds provider-specific configuration values not covered by the
	// standard fields above. Values may be strings, numbers, booleans, or lists.
	Options map[string]any `yaml:"options"`
}

// String returns the option key as a string, or "".
func (e ProviderEntry) String(key string) string {
	s, _ := e.Options[key].(string)
	return s
}

// Int returns the option key as an int, or 0.
func (e ProviderEntry) Int(key string) int {
	switch v := e.Options[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}

// Strings returns the option key as a string list. A single string yields a
// one-element list.
func (e ProviderEntry) Strings(key string) []string {
	switch v := e.Options[key].(type) {
	case string:
		return []string{v}
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, x := range v {
			if s, ok := x.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
