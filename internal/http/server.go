package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"cashflow/internal/cache"
	"cashflow/internal/core"
	"cashflow/internal/forecast"
	"cashflow/internal/ledger"
	applog "cashflow/internal/log"
	"cashflow/internal/schedule"
)

// Server exposes the cash position API over HTTP.
type Server struct {
	http.Server

	logger     *applog.Logger
	svc        *ledger.Service
	builder    *forecast.Builder
	sched      schedule.Config
	accessCode string

	rateLimiter   *rateLimiter
	forecastCache *cache.TTLCache[[]core.ForecastEntry]
	sweeper       *cache.Sweeper

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr, accessCode string, svc *ledger.Service, builder *forecast.Builder, sched schedule.Config, logger *applog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		},
		logger:        logger.WithComponent(applog.ComponentHTTP),
		svc:           svc,
		builder:       builder,
		sched:         sched,
		accessCode:    accessCode,
		rateLimiter:   newRateLimiter(60, time.Minute),
		forecastCache: cache.New[[]core.ForecastEntry](16, 30*time.Second),
		sweeper:       cache.NewSweeper(),
	}

	s.sweeper.Register(s.forecastCache)
	s.sweeper.Start(10 * time.Minute)

	mux.HandleFunc("/", s.withGuards(s.handleIndex))
	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)

	mux.HandleFunc("/statement", s.withGuards(s.protected(s.handleStatement)))
	mux.HandleFunc("/anchor-balance", s.withGuards(s.protected(s.handleAnchorBalance)))
	mux.HandleFunc("/transactions", s.withGuards(s.protected(s.handleDeleteTransactions)))

	mux.HandleFunc("/forecast", s.withGuards(s.handleForecast))
	mux.HandleFunc("/balance/", s.withGuards(s.handleBalance))
	mux.HandleFunc("/low-point", s.withGuards(s.handleLowPoint))
	mux.HandleFunc("/high-point", s.withGuards(s.handleHighPoint))
	mux.HandleFunc("/turning-points", s.withGuards(s.handleTurningPoints))
	mux.HandleFunc("/pending-events", s.withGuards(s.handlePendingEvents))
	mux.HandleFunc("/ask", s.withGuards(s.handleAsk))

	return s
}

// Shutdown gracefully shuts down the server and its background routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.sweeper.Stop()
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// withGuards adds security headers, rate limiting and request logging.
func (s *Server) withGuards(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)
		requestID := generateRequestID()

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		s.logger.InfoContext(ctx, "request started",
			"request_id", requestID,
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldRemote, clientIP)

		if mutating(r.Method) && !s.rateLimiter.allow(clientIP) {
			s.logger.Warn("rate limit exceeded", applog.FieldRemote, clientIP, applog.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Content-Security-Policy", "default-src 'self'")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		s.logger.InfoContext(ctx, "request completed",
			"request_id", requestID,
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldStatus, rw.statusCode,
			applog.FieldDuration, time.Since(start).Milliseconds())
	}
}

// protected rejects requests that fail the access code check.
func (s *Server) protected(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.authorized(r) {
			s.logger.Warn("access code rejected", applog.FieldRemote, extractClientIP(r), applog.FieldPath, r.URL.Path)
			writeError(w, http.StatusForbidden, "invalid access code")
			return
		}
		next(w, r)
	}
}

func mutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

type contextKey string

const requestIDKey contextKey = "request_id"

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if _, err := s.builder.CurrentBalance(r.Context(), core.DayOf(time.Now())); err != nil {
		writeError(w, http.StatusServiceUnavailable, "storage not ready")
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"message": "cash position API",
	})
}

// invalidateForecast drops cached forecast reads after any write.
func (s *Server) invalidateForecast() {
	s.forecastCache.Flush()
}
