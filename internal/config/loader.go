package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults applied by [ApplyDefaults].
const (
	DefaultPortalURL   = "http://localhost:8001"
	DefaultQuizURL     = "http://127.0.0.1:5002"
	DefaultHealthURL   = "http://127.0.0.1:5001/health"
	DefaultChatTimeout = 90 * time.Second
	DefaultChatRetries = 2
	DefaultRetryDelay  = 2 * time.Second
	DefaultHTTPTimeout = 30 * time.Second
	DefaultSTTTimeout  = 60 * time.Second
	DefaultQuizTimeout = 120 * time.Second
	DefaultLanguage    = "en"
	DefaultAudioDevice = "recorder"
	DefaultSTTProvider = "portal"
	sessionFileName    = "session.json"
	configDirName      = "tutor"
	defaultConfigName  = "config.yaml"
)

// ValidProviderNames lists known provider names per provider kind.
// Used by [Validate] to warn about unrecognised provider names.
var ValidProviderNames = map[string][]string{
	KindSTT:   {"portal", "openai", "whisper"},
	KindAudio: {"recorder", "wsmic", "none"},
}

// DefaultPath returns <user config dir>/tutor/config.yaml.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return defaultConfigName
	}
	return filepath.Join(dir, configDirName, defaultConfigName)
}

// Default returns a validated configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader] and [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadOptional is [Load], except that a missing file yields [Default].
func LoadOptional(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Debug("config: no config file, using defaults", "path", path)
		return Default(), nil
	}
	return cfg, err
}

// LoadFromReader decodes a YAML config from r, applies defaults and
// validates the result. Useful in tests where configs are constructed from
// string literals. An empty document yields the defaults.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	ApplyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyDefaults fills every unset field of cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.LogLevel == "" {
		cfg.LogLevel = LogInfo
	}
	if cfg.Portal.BaseURL == "" {
		cfg.Portal.BaseURL = DefaultPortalURL
	}
	if cfg.Portal.SessionFile == "" {
		if dir, err := os.UserConfigDir(); err == nil {
			cfg.Portal.SessionFile = filepath.Join(dir, configDirName, sessionFileName)
		} else {
			cfg.Portal.SessionFile = filepath.Join(".", "."+configDirName+"-"+sessionFileName)
		}
	}
	if cfg.Portal.Timeout == 0 {
		cfg.Portal.Timeout = DefaultHTTPTimeout
	}
	if cfg.Chat.Timeout == 0 {
		cfg.Chat.Timeout = DefaultChatTimeout
	}
	if cfg.Chat.RetryDelay == 0 {
		cfg.Chat.RetryDelay = DefaultRetryDelay
	}
	if cfg.Transcription.Language == "" {
		cfg.Transcription.Language = DefaultLanguage
	}
	if cfg.Transcription.Timeout == 0 {
		cfg.Transcription.Timeout = DefaultSTTTimeout
	}
	if len(cfg.Transcription.Providers) == 0 {
		cfg.Transcription.Providers = []ProviderEntry{{Name: DefaultSTTProvider}}
	}
	if cfg.Quiz.BaseURL == "" {
		cfg.Quiz.BaseURL = DefaultQuizURL
	}
	if cfg.Quiz.Timeout == 0 {
		cfg.Quiz.Timeout = DefaultQuizTimeout
	}
	if cfg.Audio.Name == "" {
		cfg.Audio.Name = DefaultAudioDevice
	}
	if cfg.ModelServer.HealthURL == "" {
		cfg.ModelServer.HealthURL = DefaultHealthURL
	}
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.LogLevel != "" && !cfg.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("log_level %q is invalid; valid values: debug, info, warn, error", cfg.LogLevel))
	}

	errs = append(errs,
		validateURL("portal.base_url", cfg.Portal.BaseURL),
		validateURL("quiz.base_url", cfg.Quiz.BaseURL),
		validateURL("model_server.health_url", cfg.ModelServer.HealthURL),
	)

	for name, d := range map[string]time.Duration{
		"portal.timeout":        cfg.Portal.Timeout,
		"chat.timeout":          cfg.Chat.Timeout,
		"chat.retry_delay":      cfg.Chat.RetryDelay,
		"transcription.timeout": cfg.Transcription.Timeout,
		"quiz.timeout":          cfg.Quiz.Timeout,
	} {
		if d < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative, got %s", name, d))
		}
	}
	if n := cfg.Chat.Retries(); n < 0 || n > 10 {
		errs = append(errs, fmt.Errorf("chat.max_retries %d is out of range [0, 10]", n))
	}

	seen := make(map[string]int, len(cfg.Transcription.Providers))
	for i, p := range cfg.Transcription.Providers {
		prefix := fmt.Sprintf("transcription.providers[%d]", i)
		if p.Name == "" {
			errs = append(errs, fmt.Errorf("%s.name is required", prefix))
			continue
		}
		if prev, ok := seen[p.Name]; ok {
			errs = append(errs, fmt.Errorf("%s.name %q is a duplicate of transcription.providers[%d]", prefix, p.Name, prev))
		}
		seen[p.Name] = i
		validateProviderName(KindSTT, p.Name)
	}

	validateProviderName(KindAudio, cfg.Audio.Name)
	if cfg.Audio.Name == "wsmic" && cfg.Audio.BaseURL == "" {
		errs = append(errs, errors.New("audio.base_url is required when audio.name is wsmic"))
	}
	if r := cfg.Audio.Int("sample_rate"); r < 0 {
		errs = append(errs, fmt.Errorf("audio.options.sample_rate %d must be positive", r))
	}
	if ch := cfg.Audio.Int("channels"); ch < 0 || ch > 2 {
		errs = append(errs, fmt.Errorf("audio.options.channels %d is out of range [1, 2]", ch))
	}
	if r := cfg.Telemetry.SampleRatio; r < 0 || r > 1 {
		errs = append(errs, fmt.Errorf("telemetry.sample_ratio %v is out of range [0, 1]", r))
	}

	return errors.Join(errs...)
}

func validateURL(field, raw string) error {
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s %q is not a valid URL: %w", field, raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s %q must use http or https", field, raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%s %q has no host", field, raw)
	}
	return nil
}

// validateProviderName logs a warning if name is non-empty and not found in
// the [ValidProviderNames] list for the given kind.
func validateProviderName(kind, name string) {
	if name == "" {
		return
	}
	known, ok := ValidProviderNames[kind]
	if !ok {
		return
	}
	if slices.Contains(known, name) {
		return
	}
	slog.Warn("unknown provider name, may be a typo or a third-party provider",
		"kind", kind,
		"name", name,
		"known", known,
	)
}
