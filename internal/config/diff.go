package config

import "slices"

// ConfigDiff describes what changed between two configs.
// Only the log level can be applied without restarting; other changes are
// reported so the caller can tell the user.
type ConfigDiff struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel

	// RestartRequired lists the top-level sections that changed and only
	// take effect on the next start.
	RestartRequired []string
}

// Changed reports whether anything differs.
func (d ConfigDiff) Changed() bool {
	return d.LogLevelChanged || len(d.RestartRequired) > 0
}

// Diff compares old and new configs and returns what changed.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.LogLevel != new.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.LogLevel
	}

	if old.LogFile != new.LogFile {
		d.RestartRequired = append(d.RestartRequired, "log_file")
	}
	if old.Portal != new.Portal {
		d.RestartRequired = append(d.RestartRequired, "portal")
	}
	if !chatEqual(old.Chat, new.Chat) {
		d.RestartRequired = append(d.RestartRequired, "chat")
	}
	if !transcriptionEqual(old.Transcription, new.Transcription) {
		d.RestartRequired = append(d.RestartRequired, "transcription")
	}
	if old.Quiz != new.Quiz {
		d.RestartRequired = append(d.RestartRequired, "quiz")
	}
	if !entryEqual(old.Audio, new.Audio) {
		d.RestartRequired = append(d.RestartRequired, "audio")
	}
	if old.ModelServer != new.ModelServer {
		d.RestartRequired = append(d.RestartRequired, "model_server")
	}
	if old.Telemetry != new.Telemetry {
		d.RestartRequired = append(d.RestartRequired, "telemetry")
	}

	return d
}

func chatEqual(a, b ChatConfig) bool {
	return a.Endpoint == b.Endpoint &&
		a.HistoryEndpoint == b.HistoryEndpoint &&
		a.Timeout == b.Timeout &&
		a.Retries() == b.Retries() &&
		a.RetryDelay == b.RetryDelay
}

func transcriptionEqual(a, b TranscriptionConfig) bool {
	return a.Endpoint == b.Endpoint &&
		a.Language == b.Language &&
		a.Timeout == b.Timeout &&
		slices.EqualFunc(a.Providers, b.Providers, entryEqual)
}

func entryEqual(a, b ProviderEntry) bool {
	if a.Name != b.Name || a.APIKey != b.APIKey || a.BaseURL != b.BaseURL || a.Model != b.Model {
		return false
	}
	if len(a.Options) != len(b.Options) {
		return false
	}
	for k, v := range a.Options {
		w, ok := b.Options[k]
		if !ok || !optionEqual(v, w) {
			return false
		}
	}
	return true
}

// optionEqual compares decoded YAML scalars and lists.
func optionEqual(a, b any) bool {
	la, aok := a.([]any)
	lb, bok := b.([]any)
	if aok || bok {
		return aok && bok && slices.EqualFunc(la, lb, optionEqual)
	}
	ma, aok := a.(map[string]any)
	mb, bok := b.(map[string]any)
	if aok || bok {
		if !aok || !bok || len(ma) != len(mb) {
			return false
		}
		for k, v := range ma {
			if w, ok := mb[k]; !ok || !optionEqual(v, w) {
				return false
			}
		}
		return true
	}
	return a == b
}
