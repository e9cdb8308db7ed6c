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

	"github.com/go-chi/chi/v5"

	"fintrack/internal/cache"
	applog "fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

// Server is the JSON API over the finance ledger.
type Server struct {
	http.Server

	repo      *storage.SQLiteRepository
	txs       *services.TransactionService
	imports   *services.ImportService
	recurring *services.RecurringService
	rates     *services.RatesService
	reports   *services.ReportService

	rateLimiter  *rateLimiter
	janitor      *cache.Janitor
	shutdownOnce sync.Once
}

// Deps carries everything the server needs. All fields are required except
// none; the constructor wires routes around them.
type Deps struct {
	Repo      *storage.SQLiteRepository
	Txs       *services.TransactionService
	Imports   *services.ImportService
	Recurring *services.RecurringService
	Rates     *services.RatesService
	Reports   *services.ReportService
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, deps Deps) *Server {
	s := &Server{
		repo:        deps.Repo,
		txs:         deps.Txs,
		imports:     deps.Imports,
		recurring:   deps.Recurring,
		rates:       deps.Rates,
		reports:     deps.Reports,
		rateLimiter: newRateLimiter(),
	}

	r := chi.NewRouter()
	r.Use(s.withObservability)

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/api", func(api chi.Router) {
		api.Use(withIdentity)

		api.Route("/accounts", func(ar chi.Router) {
			ar.Get("/", s.handleListAccounts)
			ar.Post("/", s.handleCreateAccount)
			ar.Get("/{id}", s.handleGetAccount)
			ar.Put("/{id}", s.handleUpdateAccount)
			ar.Delete("/{id}", s.handleDeleteAccount)
		})

		api.Route("/transactions", func(tr chi.Router) {
			tr.Get("/", s.handleListTransactions)
			tr.Post("/", s.handleCreateTransaction)
			tr.Get("/{id}", s.handleGetTransaction)
			tr.Put("/{id}", s.handleUpdateTransaction)
			tr.Delete("/{id}", s.handleDeleteTransaction)
		})

		api.Route("/categories", func(cr chi.Router) {
			cr.Get("/", s.handleListCategories)
			cr.Post("/", s.handleCreateCategory)
			cr.Get("/{id}", s.handleGetCategory)
			cr.Put("/{id}", s.handleUpdateCategory)
			cr.Delete("/{id}", s.handleDeleteCategory)
		})

		api.Route("/budgets", func(br chi.Router) {
			br.Get("/", s.handleListBudgets)
			br.Post("/", s.handleCreateBudget)
			br.Get("/{id}", s.handleGetBudget)
			br.Put("/{id}", s.handleUpdateBudget)
			br.Delete("/{id}", s.handleDeleteBudget)
		})

		api.Route("/recurring", func(rr chi.Router) {
			rr.Get("/", s.handleListRecurring)
			rr.Post("/", s.handleCreateRecurring)
			rr.Delete("/{id}", s.handleDeleteRecurring)
		})

		api.Get("/reports/{range}", s.handleReport)
		api.Get("/calendar/{year}/{month}", s.handleCalendar)
		api.Get("/heatmap", s.handleHeatmap)
		api.Get("/weekdays", s.handleWeekdays)

		api.Post("/import/preview", s.handleImportPreview)
		api.Post("/import/commit", s.handleImportCommit)

		api.Get("/rates", s.handleGetRates)
		api.Post("/rates/refresh", s.handleRefreshRates)
		api.Get("/currencies", s.handleListCurrencies)

		api.Get("/settings", s.handleGetSettings)
		api.Put("/settings", s.handleUpdateSettings)
	})

	s.Server = http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if deps.Reports != nil {
		s.janitor = cache.NewJanitor(deps.Reports.Caches()...)
		go s.janitor.Run(10 * time.Minute)
	}

	return s
}

// Shutdown stops the background goroutines and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.janitor != nil {
			s.janitor.Stop()
		}
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// withObservability adds request IDs, security headers, rate limiting on
// mutating methods, and request logging.
func (s *Server) withObservability(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), contextKey("request_id"), requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			applog.FieldRequestID, requestID,
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldClientIP, clientIP)

		if mutating(r.Method) && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded",
				applog.FieldClientIP, clientIP,
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		duration := time.Since(start)
		slog.InfoContext(ctx, "Request completed",
			applog.FieldRequestID, requestID,
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldStatusCode, rw.statusCode,
			applog.FieldDuration, duration.Milliseconds(),
			applog.FieldClientIP, clientIP)
	})
}

func mutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

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
	if s.repo != nil {
		if err := s.repo.Ping(r.Context()); err != nil {
			slog.ErrorContext(r.Context(), "Readiness check failed", applog.FieldError, err)
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("database unavailable"))
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
