// Package http exposes the forecasting and simulation engine as a JSON API
// consumed by the dashboard UI.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/RDL-Tech-Solutions/jurus-sub003/internal/cache"
	"github.com/RDL-Tech-Solutions/jurus-sub003/internal/config"
	"github.com/RDL-Tech-Solutions/jurus-sub003/internal/forecast"
	applog "github.com/RDL-Tech-Solutions/jurus-sub003/internal/log"
	"github.com/RDL-Tech-Solutions/jurus-sub003/internal/storage"
)

type Server struct {
	http.Server
	repo        *storage.SQLiteRepository
	logger      *applog.Logger
	rateLimiter *rateLimiter

	// LRU cache for forecast responses, keyed by target month;
	// invalidated by every mutating endpoint and by consumed
	// effectuation events.
	forecastCache *cache.LRU[forecast.Result]

	monteCarloMaxTrials int
	monteCarloWorkers   int

	stopCacheCleanup chan struct{}
	shutdownOnce     sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, repo *storage.SQLiteRepository, cfg *config.Config) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		repo:                repo,
		logger:              applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentHTTP),
		rateLimiter:         newRateLimiter(),
		forecastCache:       cache.NewLRU[forecast.Result](cfg.ForecastCacheSize, cfg.ForecastCacheTTL),
		monteCarloMaxTrials: cfg.MonteCarloMaxTrials,
		monteCarloWorkers:   cfg.MonteCarloWorkers,
		stopCacheCleanup:    make(chan struct{}),
	}

	go s.startCacheCleanup()

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("POST /api/v1/simulations", s.with(s.handleSimulate))
	mux.HandleFunc("POST /api/v1/simulations/sensitivity", s.with(s.handleSensitivity))
	mux.HandleFunc("POST /api/v1/simulations/montecarlo", s.with(s.handleMonteCarlo))

	mux.HandleFunc("GET /api/v1/forecast", s.with(s.handleForecast))

	mux.HandleFunc("GET /api/v1/transactions", s.with(s.handleListTransactions))
	mux.HandleFunc("POST /api/v1/transactions", s.with(s.handleCreateTransaction))
	mux.HandleFunc("DELETE /api/v1/transactions/{id}", s.with(s.handleDeleteTransaction))

	mux.HandleFunc("GET /api/v1/recurrences", s.with(s.handleListRecurrences))
	mux.HandleFunc("POST /api/v1/recurrences", s.with(s.handleCreateRecurrence))
	mux.HandleFunc("PUT /api/v1/recurrences/{id}/active", s.with(s.handleSetRecurrenceActive))
	mux.HandleFunc("DELETE /api/v1/recurrences/{id}", s.with(s.handleDeleteRecurrence))

	mux.HandleFunc("GET /api/v1/cards", s.with(s.handleListCards))
	mux.HandleFunc("POST /api/v1/cards", s.with(s.handleCreateCard))
	mux.HandleFunc("DELETE /api/v1/cards/{id}", s.with(s.handleDeleteCard))
	mux.HandleFunc("POST /api/v1/cards/{id}/charges", s.with(s.handleCreateCharge))
	mux.HandleFunc("GET /api/v1/charges", s.with(s.handleListCharges))
	mux.HandleFunc("DELETE /api/v1/charges/{id}", s.with(s.handleDeleteCharge))

	mux.HandleFunc("GET /api/v1/debts", s.with(s.handleListDebts))
	mux.HandleFunc("POST /api/v1/debts", s.with(s.handleCreateDebt))
	mux.HandleFunc("DELETE /api/v1/debts/{id}", s.with(s.handleDeleteDebt))

	mux.HandleFunc("GET /api/v1/balance", s.with(s.handleGetBalance))
	mux.HandleFunc("PUT /api/v1/balance", s.with(s.handleSetBalance))

	mux.HandleFunc("POST /api/v1/statements/paid", s.with(s.handleMarkStatementPaid))
	mux.HandleFunc("DELETE /api/v1/statements/paid", s.with(s.handleUnmarkStatementPaid))

	return s
}

// with adds security headers, rate limiting, request IDs and request
// logging to a handler.
func (s *Server) with(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Extract client IP (considering proxies)
		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		s.logger.InfoContext(ctx, "Request started",
			applog.FieldRequestID, requestID,
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldClientIP, clientIP,
			applog.FieldUserAgent, r.Header.Get("User-Agent"))

		// Rate-limit mutations only; reads are cached and cheap
		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			s.logger.WarnContext(ctx, "Rate limit exceeded",
				applog.FieldClientIP, clientIP,
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, fmt.Errorf("rate limit exceeded, try again later"))
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		s.logger.InfoContext(ctx, "Request completed",
			applog.FieldRequestID, requestID,
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldStatusCode, rw.statusCode,
			applog.FieldDuration, time.Since(start).Milliseconds(),
			applog.FieldClientIP, clientIP)
	}
}

type requestIDKey struct{}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// generateRequestID creates a unique request ID for tracing
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to timestamp if random fails
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

// forecastCacheKey identifies one forecast by its target month.
func forecastCacheKey(year, month int) string {
	return strconv.Itoa(year) + "-" + strconv.Itoa(month)
}

// InvalidateForecasts drops every cached forecast. Mutations call it
// directly; the AMQP consumer calls it when the worker effectuates
// occurrences behind the server's back. A change in any month shifts the
// carried-forward balance of every later month, so the whole cache goes.
func (s *Server) InvalidateForecasts() {
	s.forecastCache.Purge()
}

// startCacheCleanup runs periodic cleanup of expired forecast entries
func (s *Server) startCacheCleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if cleaned := s.forecastCache.CleanExpired(); cleaned > 0 {
				s.logger.WithComponent(applog.ComponentCache).
					Debug("Forecast cache cleanup completed", "entries_removed", cleaned)
			}
		case <-s.stopCacheCleanup:
			return
		}
	}
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.stopCacheCleanup != nil {
			close(s.stopCacheCleanup)
		}
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
