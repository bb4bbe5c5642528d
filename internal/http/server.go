// Package http exposes the ledger over a JSON API.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"dompet/internal/cache"
	"dompet/internal/core"
	"dompet/internal/services"
)

type Server struct {
	http.Server
	ledger      *services.LedgerService
	reports     *services.ReportService
	fuel        *services.FuelService
	ready       func(context.Context) error
	rateLimiter *rateLimiter

	// Read-side caches keyed by "year-month". Any mutation can shift the
	// aggregates of an arbitrary month, so invalidation clears both caches.
	dashboardCache *cache.LRU[core.DashboardSummary]
	budgetsCache   *cache.LRU[[]core.CategoryBudget]
	janitor        *cache.Janitor

	shutdownOnce sync.Once
}

// NewServer wires routes and middleware, returning a ready-to-run server.
// The ready func backs /readyz; pass the repository's Ping.
func NewServer(addr string, ledger *services.LedgerService, reports *services.ReportService, fuel *services.FuelService, ready func(context.Context) error) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		ledger:         ledger,
		reports:        reports,
		fuel:           fuel,
		ready:          ready,
		rateLimiter:    newRateLimiter(),
		dashboardCache: cache.NewLRU[core.DashboardSummary](100, 5*time.Minute),
		budgetsCache:   cache.NewLRU[[]core.CategoryBudget](100, 5*time.Minute),
		janitor:        cache.NewJanitor(),
	}
	s.janitor.Register(s.dashboardCache)
	s.janitor.Register(s.budgetsCache)
	s.janitor.Start(10 * time.Minute)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /wallets", s.with(s.handleListWallets))
	mux.HandleFunc("POST /wallets", s.with(s.handleCreateWallet))
	mux.HandleFunc("GET /wallets/{id}", s.with(s.handleGetWallet))

	mux.HandleFunc("GET /categories", s.with(s.handleListCategories))
	mux.HandleFunc("POST /categories", s.with(s.handleCreateCategory))
	mux.HandleFunc("PUT /categories/{id}", s.with(s.handleUpdateCategory))
	mux.HandleFunc("DELETE /categories/{id}", s.with(s.handleDeleteCategory))

	mux.HandleFunc("GET /transactions", s.with(s.handleListTransactions))
	mux.HandleFunc("POST /transactions", s.with(s.handleCreateTransaction))
	mux.HandleFunc("GET /transactions/{id}", s.with(s.handleGetTransaction))
	mux.HandleFunc("PUT /transactions/{id}", s.with(s.handleEditTransaction))
	mux.HandleFunc("DELETE /transactions/{id}", s.with(s.handleDeleteTransaction))

	mux.HandleFunc("GET /budgets", s.with(s.handleListBudgets))
	mux.HandleFunc("GET /budgets/{id}", s.with(s.handleBudgetStatus))
	mux.HandleFunc("POST /budgets/transfer", s.with(s.handleTransferBudget))
	mux.HandleFunc("POST /budgets/wallet-transfer", s.with(s.handleTransferWalletBudget))
	mux.HandleFunc("POST /budgets/rollover", s.with(s.handleRollover))

	mux.HandleFunc("GET /dashboard", s.with(s.handleDashboard))
	mux.HandleFunc("GET /trends", s.with(s.handleTrends))

	mux.HandleFunc("GET /fuel-logs", s.with(s.handleListFuelLogs))
	mux.HandleFunc("POST /fuel-logs", s.with(s.handleCreateFuelLog))
	mux.HandleFunc("DELETE /fuel-logs/{id}", s.with(s.handleDeleteFuelLog))

	return s
}

// Shutdown stops the server and its background cleanup routines, once.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.janitor.Stop()
		s.rateLimiter.stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

// with adds security headers, rate limiting for mutations, a request ID and
// request logging around a handler.
func (s *Server) with(next http.HandlerFunc) http.HandlerFunc {
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

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP)

		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &statusWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", clientIP)
	}
}

type requestIDKey struct{}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusWriter) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		if err := s.ready(r.Context()); err != nil {
			slog.ErrorContext(r.Context(), "Readiness check failed", "error", err)
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func cacheKey(year, month int) string {
	return strconv.Itoa(year) + "-" + strconv.Itoa(month)
}

// invalidateReadCaches drops all memoized aggregates. Called after every
// mutation; edits may be dated in any month, so per-key invalidation would
// be guesswork.
func (s *Server) invalidateReadCaches() {
	s.dashboardCache.Clear()
	s.budgetsCache.Clear()
}
