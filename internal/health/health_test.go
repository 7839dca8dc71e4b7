package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHealthz_AlwaysReturns200(t *testing.T) {
	h := New()

	req := httptest.NewRequest("GET", "/healthz", nil)
	rec := httptest.NewRecorder()
	h.Healthz(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var body result
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}
	if body.Status != "ok" {
		t.Errorf("status = %q, want %q", body.Status, "ok")
	}
}

func TestHealthz_ContentType(t *testing.T) {
	h := New()
	req := httptest.NewRequest("GET", "/healthz", nil)
	rec := httptest.NewRecorder()
	h.Healthz(rec, req)

	ct := rec.Header().Get("Content-Type")
	if ct != "application/json; charset=utf-8" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
}

func TestReadyz_AllCheckersPass(t *testing.T) {
	h := New(
		Checker{Name: "portal", Check: func(_ context.Context) error { return nil }},
		Checker{Name: "model server", Check: func(_ context.Context) error { return nil }},
	)

	req := httptest.NewRequest("GET", "/readyz", nil)
	rec := httptest.NewRecorder()
	h.Readyz(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var body result
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}
	if body.Status != "ok" {
		t.Errorf("status = %q, want %q", body.Status, "ok")
	}
	if body.Checks["portal"] != "ok" {
		t.Errorf("portal check = %q, want %q", body.Checks["portal"], "ok")
	}
	if body.Checks["model server"] != "ok" {
		t.Errorf("model server check = %q, want %q", body.Checks["model server"], "ok")
	}
}

func TestReadyz_CheckerFails(t *testing.T) {
	h := New(
		Checker{Name: "portal", Check: func(_ context.Context) error {
			return errors.New("connection refused")
		}},
		Checker{Name: "model server", Check: func(_ context.Context) error { return nil }},
	)

	req := httptest.NewRequest("GET", "/readyz", nil)
	rec := httptest.NewRecorder()
	h.Readyz(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}

	var body result
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}
	if body.Status != "fail" {
		t.Errorf("status = %q, want %q", body.Status, "fail")
	}
	if body.Checks["portal"] != "fail: connection refused" {
		t.Errorf("portal check = %q, want %q", body.Checks["portal"], "fail: connection refused")
	}
	if body.Checks["model server"] != "ok" {
		t.Errorf("model server check = %q, want %q", body.Checks["model server"], "ok")
	}
}

func TestReadyz_NoCheckers(t *testing.T) {
	h := New()

	req := httptest.NewRequest("GET", "/readyz", nil)
	rec := httptest.NewRecorder()
	h.Readyz(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var body result
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}
	if body.Status != "ok" {
		t.Errorf("status = %q, want %q", body.Status, "ok")
	}
}

func TestReadyz_AllCheckersFail(t *testing.T) {
	h := New(
		Checker{Name: "portal", Check: func(_ context.Context) error {
			return errors.New("timeout")
		}},
		Checker{Name: "model server", Check: func(_ context.Context) error {
			return errors.New("model server not running")
		}},
	)

	req := httptest.NewRequest("GET", "/readyz", nil)
	rec := httptest.NewRecorder()
	h.Readyz(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}

	var body result
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}
	if body.Status != "fail" {
		t.Errorf("status = %q, want %q", body.Status, "fail")
	}
	if body.Checks["portal"] != "fail: timeout" {
		t.Errorf("portal check = %q", body.Checks["portal"])
	}
	if body.Checks["model server"] != "fail: model server not running" {
		t.Errorf("model server check = %q", body.Checks["model server"])
	}
}

func TestRegister_RoutesWork(t *testing.T) {
	h := New(
		Checker{Name: "test", Check: func(_ context.Context) error { return nil }},
	)

	mux := http.NewServeMux()
	h.Register(mux)

	tests := []struct {
		path       string
		wantStatus int
	}{
		{"/healthz", http.StatusOK},
		{"/readyz", http.StatusOK},
	}

	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			req := httptest.NewRequest("GET", tc.path, nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			if rec.Code != tc.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
		})
	}
}

func TestReadyz_RespectsContextCancellation(t *testing.T) {
	h := New(
		Checker{Name: "slow", Check: func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		}},
	)

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // cancel immediately

	req := httptest.NewRequest("GET", "/readyz", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	h.Readyz(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
}

// ─── Run ───

func TestRun_PreservesOrder(t *testing.T) {
	rep := Run(context.Background(),
		Checker{Name: "portal", Check: func(_ context.Context) error { return nil }},
		Checker{Name: "quiz", Check: func(_ context.Context) error { return errors.New("refused") }},
		Checker{Name: "model server", Check: func(_ context.Context) error { return nil }},
	)

	if len(rep.Results) != 3 {
		t.Fatalf("len(Results) = %d, want 3", len(rep.Results))
	}
	for i, want := range []string{"portal", "quiz", "model server"} {
		if rep.Results[i].Name != want {
			t.Errorf("Results[%d].Name = %q, want %q", i, rep.Results[i].Name, want)
		}
	}
	if !rep.Results[0].OK() || rep.Results[1].OK() {
		t.Errorf("unexpected results: %+v", rep.Results)
	}
	if rep.OK() {
		t.Error("Report.OK() = true, want false")
	}
}

func TestRun_ChecksRunConcurrently(t *testing.T) {
	a, b := make(chan struct{}), make(chan struct{})
	// Each check waits for the other to start; sequential evaluation would
	// only finish via the check timeout.
	rep := Run(context.Background(),
		Checker{Name: "a", Check: func(ctx context.Context) error {
			close(a)
			select {
			case <-b:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}},
		Checker{Name: "b", Check: func(ctx context.Context) error {
			close(b)
			select {
			case <-a:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}},
	)
	if !rep.OK() {
		t.Errorf("Report = %+v, want all ok", rep.Results)
	}
}

func TestRun_Empty(t *testing.T) {
	rep := Run(context.Background())
	if !rep.OK() || len(rep.Results) != 0 {
		t.Errorf("Run() = %+v, want empty ok report", rep)
	}
}
