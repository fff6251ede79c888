// Package http exposes the projection engine and record stores over a
// JSON API.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"bilancio/internal/backend"
	"bilancio/internal/cache"
	applog "bilancio/internal/log"
)

type Server struct {
	http.Server

	store        backend.Store
	summaryCache cache.Cache
	rateLimiter  *rateLimiter

	cancelJanitor context.CancelFunc
	shutdownOnce  sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// server. summaryCache may be nil to disable summary caching.
func NewServer(addr string, store backend.Store, summaryCache cache.Cache) *Server {
	mux := http.NewServeMux()

	janitorCtx, cancel := context.WithCancel(context.Background())

	s := &Server{
		Server: http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		store:         store,
		summaryCache:  summaryCache,
		rateLimiter:   newRateLimiter(),
		cancelJanitor: cancel,
	}

	if lru, ok := summaryCache.(*cache.LRU); ok {
		lru.StartJanitor(janitorCtx, 10*time.Minute)
	}

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)

	mux.HandleFunc("POST /api/transactions", s.wrap(s.handleCreateTransaction))
	mux.HandleFunc("GET /api/transactions", s.wrap(s.handleListTransactions))
	mux.HandleFunc("GET /api/transactions/{id}", s.wrap(s.handleGetTransaction))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.wrap(s.handleDeleteTransaction))

	mux.HandleFunc("POST /api/cards", s.wrap(s.handleCreateCard))
	mux.HandleFunc("GET /api/cards", s.wrap(s.handleListCards))
	mux.HandleFunc("GET /api/cards/{id}", s.wrap(s.handleGetCard))
	mux.HandleFunc("DELETE /api/cards/{id}", s.wrap(s.handleDeleteCard))

	mux.HandleFunc("POST /api/purchases", s.wrap(s.handleCreatePurchase))
	mux.HandleFunc("GET /api/purchases", s.wrap(s.handleListPurchases))
	mux.HandleFunc("DELETE /api/purchases/{id}", s.wrap(s.handleDeletePurchase))

	mux.HandleFunc("POST /api/loans", s.wrap(s.handleCreateLoan))
	mux.HandleFunc("GET /api/loans", s.wrap(s.handleListLoans))
	mux.HandleFunc("DELETE /api/loans/{id}", s.wrap(s.handleDeleteLoan))

	mux.HandleFunc("GET /api/categories", s.wrap(s.handleListCategories))

	mux.HandleFunc("GET /api/summary", s.wrap(s.handleSummary))
	mux.HandleFunc("GET /api/balance", s.wrap(s.handleBalance))
	mux.HandleFunc("GET /api/pace", s.wrap(s.handlePace))

	return s
}

// Shutdown stops the janitor and rate limiter before draining connections.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.cancelJanitor != nil {
			s.cancelJanitor()
		}
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// wrap adds request IDs, logging, security headers, and rate limiting on
// mutating requests.
func (s *Server) wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

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

		slog.InfoContext(ctx, "request started",
			applog.FieldRequestID, requestID,
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldClientIP, clientIP)

		if isMutating(r.Method) && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "rate limit exceeded",
				applog.FieldClientIP, clientIP,
				applog.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		slog.InfoContext(ctx, "request completed",
			applog.FieldRequestID, requestID,
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldStatusCode, rw.statusCode,
			applog.FieldDuration, time.Since(start).Milliseconds())
	}
}

type requestIDKey struct{}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	default:
		return false
	}
}

// responseWriter captures the status code for request logging.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	// A one-row read proves the store is reachable.
	if _, err := s.store.ListCategories(r.Context(), "readiness-probe"); err != nil {
		writeError(w, http.StatusServiceUnavailable, "store not ready")
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
