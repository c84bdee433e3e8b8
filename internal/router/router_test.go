package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/shaibs3/groupdir/internal/telemetry"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type stubHandler struct{}

func (stubHandler) RegisterRoutes(router *mux.Router, _ *zap.Logger) {
	router.HandleFunc("/api/ping", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("pong"))
	}).Methods(http.MethodGet)
	router.HandleFunc("/api/panic", func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}).Methods(http.MethodGet)
}

func newTestRouter(t *testing.T, limiter *rate.Limiter) (*Router, *telemetry.Telemetry) {
	t.Helper()
	tel, err := telemetry.NewTelemetry(zap.NewNop())
	require.NoError(t, err)
	return NewRouter(limiter, tel, zap.NewNop(), []Handler{stubHandler{}}), tel
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestRouter_Health(t *testing.T) {
	r, _ := newTestRouter(t, rate.NewLimiter(rate.Inf, 1))
	w := serve(r.Handler(), httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestRouter_RegistersHandlers(t *testing.T) {
	r, _ := newTestRouter(t, rate.NewLimiter(rate.Inf, 1))
	w := serve(r.Handler(), httptest.NewRequest(http.MethodGet, "/api/ping", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "pong", w.Body.String())
}

func TestRouter_RateLimit(t *testing.T) {
	r, _ := newTestRouter(t, rate.NewLimiter(rate.Limit(0.001), 2))
	h := r.Handler()

	require.Equal(t, http.StatusOK, serve(h, httptest.NewRequest(http.MethodGet, "/api/ping", nil)).Code)
	require.Equal(t, http.StatusOK, serve(h, httptest.NewRequest(http.MethodGet, "/api/ping", nil)).Code)
	w := serve(h, httptest.NewRequest(http.MethodGet, "/api/ping", nil))
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	require.JSONEq(t, `{"message":"Too many requests"}`, w.Body.String())

	// Operational endpoints are exempt
	require.Equal(t, http.StatusOK, serve(h, httptest.NewRequest(http.MethodGet, "/health", nil)).Code)
}

func TestRouter_RecoversPanics(t *testing.T) {
	r, _ := newTestRouter(t, rate.NewLimiter(rate.Inf, 1))
	w := serve(r.Handler(), httptest.NewRequest(http.MethodGet, "/api/panic", nil))
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.JSONEq(t, `{"message":"Internal server error"}`, w.Body.String())
}

func TestRouter_CORS(t *testing.T) {
	r, _ := newTestRouter(t, rate.NewLimiter(rate.Inf, 1))
	h := r.Handler()

	req := httptest.NewRequest(http.MethodGet, "/api/ping", nil)
	req.Header.Set("Origin", "https://example.com")
	w := serve(h, req)
	require.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	preflight := httptest.NewRequest(http.MethodOptions, "/api/ping", nil)
	preflight.Header.Set("Origin", "https://example.com")
	preflight.Header.Set("Access-Control-Request-Method", http.MethodPost)
	preflight.Header.Set("Access-Control-Request-Headers", "Content-Type")
	w = serve(h, preflight)
	require.Less(t, w.Code, 300)
	require.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)
}

func TestRouter_Metrics(t *testing.T) {
	r, _ := newTestRouter(t, rate.NewLimiter(rate.Inf, 1))
	h := r.Handler()

	serve(h, httptest.NewRequest(http.MethodGet, "/api/ping", nil))
	w := serve(h, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	require.Contains(t, body, "http_requests_total")
	require.Contains(t, body, `route="/api/ping"`)
	require.Contains(t, body, "http_request_duration_seconds")
}

func TestRouter_CreateServer(t *testing.T) {
	r, _ := newTestRouter(t, nil)
	srv := r.CreateServer(":0")
	require.Equal(t, ":0", srv.Addr)
	require.NotNil(t, srv.Handler)
	require.NotZero(t, srv.ReadHeaderTimeout)
}
