package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/MrWong99/tutor/internal/config"
	"github.com/MrWong99/tutor/internal/observe"
	"github.com/MrWong99/tutor/internal/quiz"
	"github.com/MrWong99/tutor/pkg/portal"
	"github.com/MrWong99/tutor/pkg/portal/mock"
)

// ---- helpers ----

// fakePortal serves the auth endpoints with a single account.
func fakePortal(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login/", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "sessionid", Value: "abc", Path: "/"})
		fmt.Fprint(w, `{"message":"ok","user":{"username":"asha","email":"asha@example.com","standard_selected":true,"standard":"9th"}}`)
	})
	mux.HandleFunc("GET /api/auth/user-info/", func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("sessionid"); err != nil || c.Value != "abc" {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"error":"Not authenticated"}`)
			return
		}
		fmt.Fprint(w, `{"user":{"username":"asha","email":"asha@example.com","standard_selected":true,"standard":"9th","language":"hi"}}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func writeConfig(t *testing.T, baseURL string) (cfgPath, sessionPath string) {
	t.Helper()
	dir := t.TempDir()
	sessionPath = filepath.Join(dir, "session.json")
	cfgPath = filepath.Join(dir, "config.yaml")
	yaml := fmt.Sprintf("portal:\n  base_url: %s\n  session_file: %s\naudio:\n  name: none\n", baseURL, sessionPath)
	if err := os.WriteFile(cfgPath, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	return cfgPath, sessionPath
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	c := newCLI(strings.NewReader(stdin), &out, &errOut)
	root := c.root()
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

// ─── commands ───

func TestLoginThenWhoami(t *testing.T) {
	srv := fakePortal(t)
	cfgPath, sessionPath := writeConfig(t, srv.URL)

	out, err := execute(t, "secret\n", "--config", cfgPath, "login", "--email", "asha@example.com")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if !strings.Contains(out, "Signed in as asha.") {
		t.Errorf("login output = %q", out)
	}
	if _, err := os.Stat(sessionPath); err != nil {
		t.Fatalf("session file not written: %v", err)
	}

	out, err = execute(t, "", "--config", cfgPath, "whoami")
	if err != nil {
		t.Fatalf("whoami: %v", err)
	}
	for _, want := range []string{"asha", "9th", "hi"} {
		if !strings.Contains(out, want) {
			t.Errorf("whoami output missing %q:\n%s", want, out)
		}
	}
}

func TestWhoami_NotSignedIn(t *testing.T) {
	srv := fakePortal(t)
	cfgPath, _ := writeConfig(t, srv.URL)

	_, err := execute(t, "", "--config", cfgPath, "whoami")
	if !errors.Is(err, portal.ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
	if got := userMessage(err); !strings.Contains(got, "tutor login") {
		t.Errorf("userMessage = %q", got)
	}
}

func TestSettings_RequiresAField(t *testing.T) {
	srv := fakePortal(t)
	cfgPath, _ := writeConfig(t, srv.URL)

	_, err := execute(t, "", "--config", cfgPath, "settings")
	if err == nil {
		t.Fatal("settings without flags succeeded")
	}
	if got := userMessage(err); !strings.Contains(got, "at least one setting") {
		t.Errorf("userMessage = %q", got)
	}
}

func TestInvalidLogLevelFlag(t *testing.T) {
	srv := fakePortal(t)
	cfgPath, _ := writeConfig(t, srv.URL)

	if _, err := execute(t, "", "--config", cfgPath, "--log-level", "loud", "whoami"); err == nil {
		t.Error("expected error for invalid --log-level")
	}
}

// ─── helpers under test ───

func TestSlogLevel(t *testing.T) {
	tests := map[config.LogLevel]slog.Level{
		config.LogDebug: slog.LevelDebug,
		config.LogInfo:  slog.LevelInfo,
		config.LogWarn:  slog.LevelWarn,
		config.LogError: slog.LevelError,
		"":              slog.LevelInfo,
	}
	for in, want := range tests {
		if got := slogLevel(in); got != want {
			t.Errorf("slogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"quiz", &quiz.Error{Message: quiz.MsgConnectFailed}, quiz.MsgConnectFailed},
		{"app error", fmt.Errorf("wrap: %w", &portal.AppError{StatusCode: 400, Message: "Email already registered"}), "Email already registered"},
		{"plain", errors.New("boom"), "boom"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := userMessage(tc.err); got != tc.want {
				t.Errorf("userMessage = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestFindSubject(t *testing.T) {
	l := &mock.Client{SubjectsResult: []portal.Subject{{ID: 3, Name: "Physics"}, {ID: 4, Name: "Biology"}}}

	for _, ref := range []string{"4", "biology", "BIOLOGY"} {
		s, err := findSubject(context.Background(), l, ref)
		if err != nil || s.ID != 4 {
			t.Errorf("findSubject(%q) = %+v, %v; want Biology", ref, s, err)
		}
	}
	if _, err := findSubject(context.Background(), l, "history"); err == nil {
		t.Error("findSubject(history) succeeded")
	}
}

func TestBackendCheckers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}))
	defer srv.Close()
	client, err := portal.New(srv.URL, portal.WithQuizURL(srv.URL))
	if err != nil {
		t.Fatal(err)
	}

	checks := backendCheckers(client, srv.URL+"/health")
	if len(checks) != 3 {
		t.Fatalf("len(checks) = %d, want 3", len(checks))
	}
	for _, c := range checks {
		err := c.Check(context.Background())
		if (c.Name == "model server") != (err != nil) {
			t.Errorf("check %q: err = %v", c.Name, err)
		}
	}
}

func TestRegisterBuiltinProviders(t *testing.T) {
	client, err := portal.New("http://localhost:8001")
	if err != nil {
		t.Fatal(err)
	}
	reg := config.NewRegistry()
	registerBuiltinProviders(reg, client)

	if p, err := reg.CreateSTT(config.ProviderEntry{Name: "portal"}); err != nil || p == nil {
		t.Errorf("portal stt = %v, %v", p, err)
	}
	if _, err := reg.CreateSTT(config.ProviderEntry{Name: "openai"}); err == nil {
		t.Error("openai stt without api key succeeded")
	}
	if d, err := reg.CreateAudio(config.ProviderEntry{Name: "none"}); err != nil || d != nil {
		t.Errorf("none audio = %v, %v; want nil device", d, err)
	}
	if d, err := reg.CreateAudio(config.ProviderEntry{Name: "recorder"}); err != nil || d == nil {
		t.Errorf("recorder audio = %v, %v", d, err)
	}
}

func TestBuildVoice(t *testing.T) {
	client, err := portal.New("http://localhost:8001")
	if err != nil {
		t.Fatal(err)
	}
	reg := config.NewRegistry()
	registerBuiltinProviders(reg, client)
	m := observe.DefaultMetrics()

	t.Run("disabled", func(t *testing.T) {
		cfg := config.Default()
		cfg.Audio = config.ProviderEntry{Name: "none"}
		v, err := buildVoice(cfg, reg, m)
		if err != nil || v.device != nil || v.transcriber != nil {
			t.Errorf("buildVoice = %+v, %v; want disabled", v, err)
		}
	})

	t.Run("skips unusable fallback", func(t *testing.T) {
		cfg := config.Default()
		cfg.Transcription.Providers = []config.ProviderEntry{{Name: "openai"}, {Name: "portal"}}
		v, err := buildVoice(cfg, reg, m)
		if err != nil || v.device == nil || v.transcriber == nil {
			t.Errorf("buildVoice = %+v, %v; want voice enabled", v, err)
		}
	})

	t.Run("no usable provider", func(t *testing.T) {
		cfg := config.Default()
		cfg.Transcription.Providers = []config.ProviderEntry{{Name: "openai"}}
		if _, err := buildVoice(cfg, reg, m); err == nil {
			t.Error("buildVoice succeeded without a usable transcriber")
		}
	})
}

func TestPrompter_LineAndSecret(t *testing.T) {
	var out bytes.Buffer
	c := newCLI(strings.NewReader("\n  asha  \nhunter2\n"), &out, &out)
	p := c.prompter()

	if got, _ := p.line("Standard", "9th"); got != "9th" {
		t.Errorf("line with default = %q, want 9th", got)
	}
	if got, _ := p.valueOr("", "Username"); got != "asha" {
		t.Errorf("valueOr = %q, want asha", got)
	}
	if got, _ := p.secret("Password"); got != "hunter2" {
		t.Errorf("secret = %q, want hunter2", got)
	}
	if _, err := p.line("More", ""); err == nil {
		t.Error("line at end of input succeeded")
	}
	if !strings.Contains(out.String(), "Standard [9th]: ") {
		t.Errorf("prompt output = %q", out.String())
	}
}
