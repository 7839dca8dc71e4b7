package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// Environment variables recognised by [ApplyEnv].
const (
	EnvLogLevel     = "TUTOR_LOG_LEVEL"
	EnvPortalURL    = "TUTOR_PORTAL_URL"
	EnvSessionFile  = "TUTOR_SESSION_FILE"
	EnvQuizURL      = "TUTOR_QUIZ_URL"
	EnvHealthURL    = "TUTOR_MODEL_HEALTH_URL"
	EnvAudioDevice  = "TUTOR_AUDIO_DEVICE"
	EnvAudioURL     = "TUTOR_AUDIO_URL"
	EnvLanguage     = "TUTOR_LANGUAGE"
	EnvMetricsAddr  = "TUTOR_METRICS_ADDR"
	EnvOpenAIAPIKey = "OPENAI_API_KEY"
)

// LoadDotEnv loads variables from the given .env files into the process
// environment. Missing files are skipped; variables already set win.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		err := godotenv.Load(p)
		if err == nil || errors.Is(err, fs.ErrNotExist) {
			continue
		}
		return fmt.Errorf("config: load %s: %w", p, err)
	}
	return nil
}

// ApplyEnv overrides cfg with the non-empty variables reported by lookup.
// OPENAI_API_KEY fills the key of every openai provider that has none.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) {
	set := func(dst *string, key string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	var level string
	set(&level, EnvLogLevel)
	if level != "" {
		cfg.LogLevel = LogLevel(level)
	}
	set(&cfg.Portal.BaseURL, EnvPortalURL)
	set(&cfg.Portal.SessionFile, EnvSessionFile)
	set(&cfg.Quiz.BaseURL, EnvQuizURL)
	set(&cfg.ModelServer.HealthURL, EnvHealthURL)
	set(&cfg.Audio.Name, EnvAudioDevice)
	set(&cfg.Audio.BaseURL, EnvAudioURL)
	set(&cfg.Transcription.Language, EnvLanguage)
	set(&cfg.Telemetry.MetricsAddr, EnvMetricsAddr)

	if key, ok := lookup(EnvOpenAIAPIKey); ok && key != "" {
		for i := range cfg.Transcription.Providers {
			p := &cfg.Transcription.Providers[i]
			if p.Name == "openai" && p.APIKey == "" {
				p.APIKey = key
			}
		}
	}
}

// Resolve loads .env from the working directory, the config file at path
// (defaults when it does not exist) and the environment overrides, and
// validates the result.
func Resolve(path string) (*Config, error) {
	if err := LoadDotEnv(".env"); err != nil {
		return nil, err
	}
	cfg, err := LoadOptional(path)
	if err != nil {
		return nil, err
	}
	ApplyEnv(cfg, os.LookupEnv)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
