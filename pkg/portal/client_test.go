package portal_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/MrWong99/tutor/pkg/portal"
)

// newServer starts a portal test server backed by mux and returns a client
// pointed at it. The test-generation URL points at the same server.
func newServer(t *testing.T, mux *http.ServeMux) (*portal.Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	c, err := portal.New(srv.URL, portal.WithQuizURL(srv.URL))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c, srv
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestNew_RejectsBadBaseURL(t *testing.T) {
	for _, u := range []string{"", "ftp://example.com", "://nope"} {
		if _, err := portal.New(u); err == nil {
			t.Errorf("New(%q) succeeded, want error", u)
		}
	}
}

func TestLogin_StoresSessionCookie(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login/", func(w http.ResponseWriter, r *http.Request) {
		var cred portal.Credentials
		_ = json.NewDecoder(r.Body).Decode(&cred)
		if cred.Email != "asha@example.com" || cred.Password != "pw" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid credentials"})
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "sessionid", Value: "abc", Path: "/"})
		writeJSON(w, http.StatusOK, map[string]any{
			"message": "Login successful",
			"user":    map[string]any{"id": 7, "username": "asha", "email": cred.Email, "standard_selected": true, "standard": "9th"},
		})
	})
	mux.HandleFunc("GET /api/auth/user-info/", func(w http.ResponseWriter, r *http.Request) {
		if ck, err := r.Cookie("sessionid"); err != nil || ck.Value != "abc" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Authentication required"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"user": map[string]any{"id": 7, "username": "asha", "language": "hi"}})
	})
	c, _ := newServer(t, mux)
	ctx := context.Background()

	if _, err := c.UserInfo(ctx); !errors.Is(err, portal.ErrUnauthorized) {
		t.Fatalf("UserInfo before login: err = %v, want ErrUnauthorized", err)
	}

	u, err := c.Login(ctx, portal.Credentials{Email: "asha@example.com", Password: "pw"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	want := portal.User{ID: 7, Username: "asha", Email: "asha@example.com", StandardSelected: true, Standard: "9th"}
	if diff := cmp.Diff(want, u); diff != "" {
		t.Errorf("Login user mismatch (-want +got):\n%s", diff)
	}

	info, err := c.UserInfo(ctx)
	if err != nil {
		t.Fatalf("UserInfo after login: %v", err)
	}
	if info.Language != "hi" {
		t.Errorf("Language = %q", info.Language)
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid credentials"})
	})
	c, _ := newServer(t, mux)

	_, err := c.Login(context.Background(), portal.Credentials{Email: "x@y.z", Password: "bad"})
	var appErr *portal.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("err = %v, want *AppError", err)
	}
	if appErr.Message != "Invalid credentials" || appErr.StatusCode != 401 {
		t.Errorf("AppError = %+v", appErr)
	}
}

func TestRegister_SendsFieldsWithoutConfirmation(t *testing.T) {
	var got map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/register/", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		writeJSON(w, http.StatusCreated, map[string]any{
			"message": "Registration successful",
			"user":    map[string]any{"id": 3, "username": "ravi", "email": "ravi@example.com"},
		})
	})
	c, _ := newServer(t, mux)

	u, err := c.Register(context.Background(), portal.Registration{
		Username: "ravi", Email: "ravi@example.com", Password: "pw", Standard: "10th",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if !u.StandardSelected || u.Standard != "10th" {
		t.Errorf("user = %+v", u)
	}
	want := map[string]any{"username": "ravi", "email": "ravi@example.com", "password": "pw", "standard": "10th"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("request body mismatch (-want +got):\n%s", diff)
	}
}

func TestUpdateSettings_OmitsEmptyFields(t *testing.T) {
	var raw string
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/update-settings/", func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		raw = string(b)
		writeJSON(w, http.StatusOK, map[string]string{"message": "Settings updated successfully"})
	})
	c, _ := newServer(t, mux)

	if err := c.UpdateSettings(context.Background(), portal.Settings{Language: "gu"}); err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}
	if strings.Contains(raw, "standard") {
		t.Errorf("body = %s, standard should be omitted", raw)
	}
}

func TestSubjects_AcceptsWrappedAndBare(t *testing.T) {
	bodies := map[string]string{
		"wrapped": `{"subjects":[{"id":1,"name":"Science"},{"id":2,"name":"Maths"}]}`,
		"bare":    `[{"id":1,"name":"Science"},{"id":2,"name":"Maths"}]`,
	}
	want := []portal.Subject{{ID: 1, Name: "Science"}, {ID: 2, Name: "Maths"}}

	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("GET /api/subjects/", func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = io.WriteString(w, body)
			})
			c, _ := newServer(t, mux)

			got, err := c.Subjects(context.Background())
			if err != nil {
				t.Fatalf("Subjects: %v", err)
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestChapters(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/chapters/{id}/", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "4" {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, http.StatusOK, []map[string]any{
			{"id": 11, "title": "Matter in Our Surroundings", "order": 1, "subject_id": 4},
			{"id": 12, "title": "Is Matter Around Us Pure", "order": 2, "subject_id": 4},
		})
	})
	c, _ := newServer(t, mux)

	got, err := c.Chapters(context.Background(), 4)
	if err != nil {
		t.Fatalf("Chapters: %v", err)
	}
	if len(got) != 2 || got[0].Title != "Matter in Our Surroundings" || got[1].Order != 2 {
		t.Errorf("chapters = %+v", got)
	}
}

func TestSendChat(t *testing.T) {
	var req portal.ChatRequest
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/chat/", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&req)
		if r.Header.Get("X-Request-ID") == "" {
			t.Error("missing X-Request-ID")
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "response": "Reactants become products."})
	})
	c, _ := newServer(t, mux)

	got, err := c.SendChat(context.Background(), portal.ChatRequest{Message: "Explain chemical reactions", ChapterID: 5, SubjectID: 2})
	if err != nil {
		t.Fatalf("SendChat: %v", err)
	}
	if got != "Reactants become products." {
		t.Errorf("reply = %q", got)
	}
	if req.ChapterID != 5 || req.SubjectID != 2 {
		t.Errorf("request = %+v", req)
	}
}

func TestSendChat_ApplicationFailure(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{name: "success false", status: 200, body: `{"success":false,"error":"Connection error to model"}`, want: "Connection error to model"},
		{name: "error status", status: 503, body: `{"success":false,"error":"Model server is not running"}`, want: "Model server is not running"},
		{name: "plain text", status: 502, body: `Bad gateway upstream`, want: "Bad gateway upstream"},
		{name: "html page", status: 500, body: `<html>oops</html>`, want: "Internal Server Error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("POST /api/chat/", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})
			c, _ := newServer(t, mux)

			_, err := c.SendChat(context.Background(), portal.ChatRequest{Message: "hi", ChapterID: 1})
			var appErr *portal.AppError
			if !errors.As(err, &appErr) {
				t.Fatalf("err = %v, want *AppError", err)
			}
			if appErr.Message != tt.want {
				t.Errorf("Message = %q, want %q", appErr.Message, tt.want)
			}
		})
	}
}

func TestSendChat_TransportErrorIsNotAppError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()
	ln.Close()

	c, _ := portal.New("http://" + addr)
	_, err = c.SendChat(context.Background(), portal.ChatRequest{Message: "hi", ChapterID: 1})
	if err == nil {
		t.Fatal("expected error")
	}
	var appErr *portal.AppError
	if errors.As(err, &appErr) {
		t.Fatalf("transport error reported as AppError: %v", err)
	}
	var netErr net.Error
	if !errors.As(err, &netErr) {
		t.Errorf("err = %v, want a net.Error in the chain", err)
	}
}

func TestHistory(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/chat/history/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("subject_id") != "2" || r.URL.Query().Get("chapter_id") != "5" {
			http.Error(w, "bad query", http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"history": []map[string]string{
			{"role": "user", "message": "What is an atom?"},
			{"role": "ai", "message": "The smallest unit of matter."},
		}})
	})
	c, _ := newServer(t, mux)

	got, err := c.History(context.Background(), 2, 5)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	want := []portal.HistoryEntry{
		{Role: "user", Message: "What is an atom?"},
		{Role: "ai", Message: "The smallest unit of matter."},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestTranscribe(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/transcribe/", func(w http.ResponseWriter, r *http.Request) {
		f, hdr, err := r.FormFile("audio")
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "no audio"})
			return
		}
		defer f.Close()
		if hdr.Filename != "recording.wav" {
			t.Errorf("filename = %q", hdr.Filename)
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "transcribed_text": "what is density"})
	})
	c, _ := newServer(t, mux)

	got, err := c.Transcribe(context.Background(), []byte("RIFF...."), "en")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if got != "what is density" {
		t.Errorf("text = %q", got)
	}
}

func TestTranscribe_Failure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/transcribe/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"success": false})
	})
	c, _ := newServer(t, mux)

	_, err := c.Transcribe(context.Background(), []byte("RIFF"), "")
	var appErr *portal.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("err = %v, want *AppError", err)
	}
}

func TestGenerateTest(t *testing.T) {
	var body map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("POST /generate_test", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&body)
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "questions": []map[string]any{{
			"question":       "What is H2O?",
			"options":        []string{"Water", "Salt"},
			"correct_answer": "Water",
			"explanation":    "Two hydrogens, one oxygen.",
		}}})
	})
	c, _ := newServer(t, mux)

	qs, err := c.GenerateTest(context.Background(), 9, "Chapter 9 Science")
	if err != nil {
		t.Fatalf("GenerateTest: %v", err)
	}
	if len(qs) != 1 || qs[0].CorrectAnswer != "Water" {
		t.Errorf("questions = %+v", qs)
	}
	if body["chapter_id"] != "9" {
		t.Errorf("chapter_id = %#v, want string \"9\"", body["chapter_id"])
	}
}

func TestGenerateTest_Warning(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /generate_test", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"success": false, "warning": "No content found for this chapter"})
	})
	c, _ := newServer(t, mux)

	_, err := c.GenerateTest(context.Background(), 9, "x")
	var appErr *portal.AppError
	if !errors.As(err, &appErr) || appErr.UserMessage() != "No content found for this chapter" {
		t.Fatalf("err = %v", err)
	}
}

func TestPing(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})
	mux.HandleFunc("GET /broken", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	c, srv := newServer(t, mux)

	if err := c.Ping(context.Background(), srv.URL+"/health"); err != nil {
		t.Errorf("Ping healthy: %v", err)
	}
	if err := c.Ping(context.Background(), srv.URL+"/broken"); err == nil {
		t.Error("Ping broken: want error")
	}
}
