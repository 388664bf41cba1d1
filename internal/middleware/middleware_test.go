package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"orderbot/internal/model"
)

// botMux stands in for the server's routes: the webhook answers with a
// fulfillment reply, the orders API panics and health answers without an
// explicit status.
func botMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /webhook", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"fulfillmentText":"Added 1 x iPhone 15 to your cart."}`))
	})
	mux.HandleFunc("GET /api/orders", func(w http.ResponseWriter, r *http.Request) {
		panic("order lookup exploded")
	})
	mux.HandleFunc("GET /api/customer/{id}", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	})
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ok"}`))
	})
	return mux
}

// serverChain mirrors the order of cmd/webhook.
func serverChain(logger *slog.Logger, rps float64) http.Handler {
	return Chain(
		Recovery(logger),
		RequestID,
		Logging(logger),
		RateLimit(rps, 1, logger),
	)(botMux())
}

func TestLogging(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
		wantLog    []string
	}{
		{
			name:       "webhook turn",
			method:     "POST",
			path:       "/webhook",
			wantStatus: http.StatusOK,
			wantLog:    []string{"level=INFO", "method=POST", "path=/webhook", "status=200", "user_agent=dialog-platform"},
		},
		{
			name:       "health without explicit status",
			method:     "GET",
			path:       "/health",
			wantStatus: http.StatusOK,
			wantLog:    []string{"level=INFO", "path=/health", "status=200"},
		},
		{
			name:       "server error logged at warn",
			method:     "GET",
			path:       "/api/customer/7",
			wantStatus: http.StatusServiceUnavailable,
			wantLog:    []string{"level=WARN", "path=/api/customer/7", "status=503"},
		},
		{
			name:       "unknown route",
			method:     "GET",
			path:       "/checkout-sessions",
			wantStatus: http.StatusNotFound,
			wantLog:    []string{"level=INFO", "status=404"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&buf, nil))
			handler := Logging(logger)(botMux())

			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(`{}`))
			req.Header.Set("User-Agent", "dialog-platform")
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Status = %d, want %d", w.Code, tt.wantStatus)
			}
			logged := buf.String()
			for _, check := range tt.wantLog {
				if !strings.Contains(logged, check) {
					t.Errorf("Log missing %q: %s", check, logged)
				}
			}
		})
	}
}

func TestRecoveryWritesAPIError(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	handler := Recovery(logger)(botMux())

	req := httptest.NewRequest("GET", "/api/orders?customer_id=1", nil)
	w := httptest.NewRecorder()

	// Should not panic
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("body is not JSON: %v (%s)", err, w.Body.String())
	}
	if body.Error.Code != model.CodeInternal {
		t.Errorf("code = %q, want %q", body.Error.Code, model.CodeInternal)
	}

	logged := buf.String()
	for _, check := range []string{"panic recovered", "order lookup exploded", "path=/api/orders"} {
		if !strings.Contains(logged, check) {
			t.Errorf("Log missing %q: %s", check, logged)
		}
	}
}

func TestRecoveryNoPanic(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := Recovery(logger)(botMux())

	req := httptest.NewRequest("POST", "/webhook", strings.NewReader(`{}`))
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusOK)
	}
	if !strings.Contains(w.Body.String(), "fulfillmentText") {
		t.Errorf("Body = %s", w.Body.String())
	}
}

func TestServerChain(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	handler := serverChain(logger, 0)

	// A panic deep in the chain still carries the request id.
	req := httptest.NewRequest("GET", "/api/orders", nil)
	req.Header.Set(RequestIDHeader, "req-7")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Status = %d, want 500", w.Code)
	}
	if got := w.Header().Get(RequestIDHeader); got != "req-7" {
		t.Errorf("%s = %q, want req-7", RequestIDHeader, got)
	}
	if !strings.Contains(buf.String(), "request_id=req-7") {
		t.Errorf("Log missing request id: %s", buf.String())
	}
}

func TestServerChainRateLimitsWebhook(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := serverChain(logger, 1)

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest("POST", "/webhook", strings.NewReader(`{}`))
		req.RemoteAddr = "203.0.113.9:5555"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w
	}

	if w := send(); w.Code != http.StatusOK {
		t.Fatalf("first turn status = %d, want 200", w.Code)
	}
	w := send()
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("second turn status = %d, want 429", w.Code)
	}
	if !strings.Contains(w.Body.String(), model.CodeRateLimited) {
		t.Errorf("Body = %s", w.Body.String())
	}
}

func TestChain(t *testing.T) {
	var order []string

	middleware1 := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "m1-before")
			next.ServeHTTP(w, r)
			order = append(order, "m1-after")
		})
	}

	middleware2 := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "m2-before")
			next.ServeHTTP(w, r)
			order = append(order, "m2-after")
		})
	}

	handler := Chain(middleware1, middleware2)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("POST", "/webhook", nil))

	expected := []string{"m1-before", "m2-before", "handler", "m2-after", "m1-after"}
	if len(order) != len(expected) {
		t.Fatalf("Order length = %d, want %d", len(order), len(expected))
	}
	for i, v := range expected {
		if order[i] != v {
			t.Errorf("Order[%d] = %s, want %s", i, order[i], v)
		}
	}
}

func TestResponseWriterStatus(t *testing.T) {
	w := httptest.NewRecorder()
	rw := wrapped(w)

	if wrapped(rw) != rw {
		t.Error("wrapped should not wrap twice")
	}

	rw.WriteHeader(http.StatusCreated)
	rw.WriteHeader(http.StatusNotFound)
	if rw.status != http.StatusCreated || w.Code != http.StatusCreated {
		t.Errorf("status = %d, underlying = %d, want first status kept", rw.status, w.Code)
	}

	implicit := wrapped(httptest.NewRecorder())
	implicit.Write([]byte("ok"))
	if !implicit.wroteHeader || implicit.status != http.StatusOK {
		t.Errorf("implicit write: wroteHeader=%v status=%d", implicit.wroteHeader, implicit.status)
	}
}

func TestResponseWriterFlush(t *testing.T) {
	w := httptest.NewRecorder()
	rw := wrapped(w)

	var _ http.Flusher = rw
	rw.Flush()

	if !w.Flushed {
		t.Error("Flush should reach the underlying writer")
	}
	if rw.Unwrap() != w {
		t.Error("Unwrap should return the underlying writer")
	}
}
