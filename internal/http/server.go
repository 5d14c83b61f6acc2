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

	"tabungan/internal/core"
	applog "tabungan/internal/log"
	"tabungan/internal/services"
)

// GoalAPI is the slice of the goal service the handlers consume.
type GoalAPI interface {
	CreateGoal(ctx context.Context, in services.CreateGoalInput) (*core.SavingsGoal, error)
	GetGoal(ctx context.Context, ownerID, id string) (*core.SavingsGoal, int, error)
	ListGoals(ctx context.Context, ownerID string) ([]core.SavingsGoal, services.GoalSummary, error)
	UpdateGoal(ctx context.Context, ownerID, id string, patch services.GoalPatch) (*core.SavingsGoal, error)
	DeleteGoal(ctx context.Context, ownerID, id string) error
	Contribute(ctx context.Context, ownerID, goalID string, amount core.Money, note string) (*core.SavingsGoal, *core.Contribution, error)
	ToggleAutoContribute(ctx context.Context, ownerID, goalID string, enabled bool, amount core.Money, frequency core.Frequency) (*core.SavingsGoal, error)
	ContributionHistory(ctx context.Context, ownerID, goalID string) (*core.SavingsGoal, []core.Contribution, error)
}

// TransactionAPI is the slice of the transaction service the handlers consume.
type TransactionAPI interface {
	AddTransaction(ctx context.Context, t core.Transaction) (*core.Transaction, error)
	ListTransactions(ctx context.Context, ownerID string, kind core.TransactionKind) ([]core.Transaction, error)
	DeleteTransaction(ctx context.Context, ownerID, id string) error
	Dashboard(ctx context.Context, ownerID string) (*services.Dashboard, error)
}

type Server struct {
	http.Server
	goals        GoalAPI
	transactions TransactionAPI
	rateLimiter  *rateLimiter
	shutdownOnce sync.Once
}

// NewServer wires routes and middleware, returning a ready-to-run server.
func NewServer(addr string, goals GoalAPI, transactions TransactionAPI) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		goals:        goals,
		transactions: transactions,
		rateLimiter:  newRateLimiter(),
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("POST /api/v1/savings", s.withMiddleware(s.handleCreateGoal))
	mux.HandleFunc("GET /api/v1/savings", s.withMiddleware(s.handleListGoals))
	mux.HandleFunc("GET /api/v1/savings/{id}", s.withMiddleware(s.handleGetGoal))
	mux.HandleFunc("PUT /api/v1/savings/{id}", s.withMiddleware(s.handleUpdateGoal))
	mux.HandleFunc("DELETE /api/v1/savings/{id}", s.withMiddleware(s.handleDeleteGoal))
	mux.HandleFunc("POST /api/v1/savings/{id}/contribute", s.withMiddleware(s.handleContribute))
	mux.HandleFunc("POST /api/v1/savings/{id}/auto-contribute", s.withMiddleware(s.handleToggleAutoContribute))
	mux.HandleFunc("GET /api/v1/savings/{id}/contributions", s.withMiddleware(s.handleContributionHistory))

	mux.HandleFunc("POST /api/v1/income", s.withMiddleware(s.handleAddIncome))
	mux.HandleFunc("GET /api/v1/income", s.withMiddleware(s.handleListIncome))
	mux.HandleFunc("DELETE /api/v1/income/{id}", s.withMiddleware(s.handleDeleteIncome))

	mux.HandleFunc("POST /api/v1/expense", s.withMiddleware(s.handleAddExpense))
	mux.HandleFunc("GET /api/v1/expense", s.withMiddleware(s.handleListExpense))
	mux.HandleFunc("DELETE /api/v1/expense/{id}", s.withMiddleware(s.handleDeleteExpense))

	mux.HandleFunc("GET /api/v1/dashboard", s.withMiddleware(s.handleDashboard))

	return s
}

// Shutdown stops the rate limiter maintenance goroutine along with the
// listener.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// withMiddleware adds request logging, security headers, and rate limiting
// on mutating methods.
func (s *Server) withMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ip := clientIP(r)
		requestID := generateRequestID()

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			applog.FieldRequestID, requestID,
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldClientIP, ip)

		if r.Method != http.MethodGet && !s.rateLimiter.allow(ip) {
			slog.WarnContext(ctx, "Rate limit exceeded",
				applog.FieldRequestID, requestID,
				applog.FieldClientIP, ip,
				applog.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded"})
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		slog.InfoContext(ctx, "Request completed",
			applog.FieldRequestID, requestID,
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldStatusCode, rw.statusCode,
			applog.FieldDuration, time.Since(start).Milliseconds())
	}
}

// requireOwner resolves the caller identity or writes a 401.
func requireOwner(w http.ResponseWriter, r *http.Request) (string, bool) {
	owner, err := ownerID(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
		return "", false
	}
	return owner, true
}

type contextKey string

// requestIDKey carries the request ID for handlers that log mid-request.
const requestIDKey contextKey = "request_id"

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

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
