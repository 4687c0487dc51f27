package httpx

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/md-rashed-zaman/salonbot/libs/requestid"
)

func TestChainOrderAndRequestID(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	var seen string
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestid.FromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}), WithRequestID, WithAccessLog(logger))

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	req.Header.Set(requestid.Header, "req-42")
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, req)

	if seen != "req-42" {
		t.Fatalf("expected request id propagated, got %q", seen)
	}
	if rw.Header().Get(requestid.Header) != "req-42" {
		t.Fatalf("expected request id echoed, got %q", rw.Header().Get(requestid.Header))
	}
}

func TestWithRecover(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}), WithRequestID, WithRecover(logger))

	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rw.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rw.Code)
	}
	if rw.Header().Get(requestid.Header) == "" {
		t.Fatal("expected a minted request id on the response")
	}
}
