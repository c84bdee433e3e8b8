package router

import (
	"encoding/json"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/shaibs3/groupdir/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Handler is implemented by every HTTP handler group
type Handler interface {
	RegisterRoutes(router *mux.Router, logger *zap.Logger)
}

// Router wires handlers, middleware and the operational endpoints
type Router struct {
	mux       *mux.Router
	limiter   *rate.Limiter
	telemetry *telemetry.Telemetry
	logger    *zap.Logger
	requests  metric.Int64Counter
	duration  metric.Float64Histogram
}

func NewRouter(limiter *rate.Limiter, tel *telemetry.Telemetry, logger *zap.Logger, handlers []Handler) *Router {
	r := &Router{
		mux:       mux.NewRouter(),
		limiter:   limiter,
		telemetry: tel,
		logger:    logger.Named("router"),
	}
	r.initMetrics()

	r.mux.HandleFunc("/health", r.handleHealth).Methods(http.MethodGet)
	if tel != nil {
		r.mux.Handle("/metrics", tel.Handler()).Methods(http.MethodGet)
	}
	for _, h := range handlers {
		h.RegisterRoutes(r.mux, logger)
	}

	// Route middleware runs after matching, so the route template is known
	r.mux.Use(r.metricsMiddleware, r.rateLimitMiddleware)
	return r
}

func (r *Router) initMetrics() {
	var meter metric.Meter = noop.NewMeterProvider().Meter("router")
	if r.telemetry != nil {
		meter = r.telemetry.Meter
	}
	var err error
	if r.requests, err = meter.Int64Counter("http_requests_total",
		metric.WithDescription("HTTP requests by method, route and status")); err != nil {
		r.logger.Error("failed to create request counter", zap.Error(err))
		r.requests, _ = noop.NewMeterProvider().Meter("router").Int64Counter("http_requests_total")
	}
	if r.duration, err = meter.Float64Histogram("http_request_duration_seconds",
		metric.WithDescription("HTTP request latency"), metric.WithUnit("s")); err != nil {
		r.logger.Error("failed to create duration histogram", zap.Error(err))
		r.duration, _ = noop.NewMeterProvider().Meter("router").Float64Histogram("http_request_duration_seconds")
	}
}

// Handler returns the full middleware chain: CORS, recovery, access log,
// then the mux with its route middleware
func (r *Router) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(r.recoveryMiddleware(r.loggingMiddleware(r.mux)))
}

func (r *Router) CreateServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           r.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

func (r *Router) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// statusRecorder captures the status code written by the next handler
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (r *Router) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				r.logger.Error("panic while serving request",
					zap.Any("panic", rec),
					zap.String("path", req.URL.Path),
					zap.ByteString("stack", debug.Stack()))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`{"message":"Internal server error"}`))
			}
		}()
		next.ServeHTTP(w, req)
	})
}

func (r *Router) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, req)
		r.logger.Info("request handled",
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)))
	})
}

func (r *Router) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, req)

		attrs := metric.WithAttributes(
			attribute.String("method", req.Method),
			attribute.String("route", routeTemplate(req)),
			attribute.String("status", strconv.Itoa(rec.status)),
		)
		r.requests.Add(req.Context(), 1, attrs)
		r.duration.Record(req.Context(), time.Since(start).Seconds(), attrs)
	})
}

// rateLimitMiddleware sheds API traffic; /health and /metrics are exempt
func (r *Router) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		switch routeTemplate(req) {
		case "/health", "/metrics":
			next.ServeHTTP(w, req)
			return
		}
		if r.limiter != nil && !r.limiter.Allow() {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"message":"Too many requests"}`))
			return
		}
		next.ServeHTTP(w, req)
	})
}

func routeTemplate(req *http.Request) string {
	if route := mux.CurrentRoute(req); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}
