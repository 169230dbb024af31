// Package http exposes the ledger over a JSON API.
package http

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"max.ks1230/budget-tracker/internal/entity/ledger"
	"max.ks1230/budget-tracker/internal/entity/user"
)

type config interface {
	Addr() string
	ReadTimeout() time.Duration
	WriteTimeout() time.Duration
}

type appConfig interface {
	MaxDateRangeDays() int
	SignInURL() string
}

type ledgerService interface {
	GetSettings(ctx context.Context, id user.Identity) (user.Settings, error)
	UpdateCurrency(ctx context.Context, id user.Identity, code string) (user.Settings, error)

	ListCategories(ctx context.Context, id user.Identity, kind *ledger.Kind) ([]ledger.Category, error)
	CreateCategory(ctx context.Context, id user.Identity, name, icon string, kind ledger.Kind) (ledger.Category, error)
	DeleteCategory(ctx context.Context, id user.Identity, name string, kind ledger.Kind) error

	CreateTransaction(ctx context.Context, id user.Identity, req ledger.NewTransaction) (ledger.Transaction, error)
	DeleteTransaction(ctx context.Context, id user.Identity, transactionID uuid.UUID) error

	GetTransactionHistory(ctx context.Context, id user.Identity, from, to time.Time) ([]ledger.HistoryTransaction, error)
	GetBalanceStats(ctx context.Context, id user.Identity, from, to time.Time) (ledger.Balance, error)
	GetCategoryStats(ctx context.Context, id user.Identity, from, to time.Time) ([]ledger.CategoryStat, error)
	GetHistoryPeriods(ctx context.Context, id user.Identity) ([]int, error)
	GetYearHistory(ctx context.Context, id user.Identity, year int) ([]ledger.HistoryPoint, error)
	GetMonthHistory(ctx context.Context, id user.Identity, year, month int) ([]ledger.HistoryPoint, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	http.Server
	ledger       ledgerService
	health       pinger
	maxRangeDays int
	signInURL    string
}

func NewServer(config config, app appConfig, svc ledgerService, health pinger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:         config.Addr(),
			Handler:      mux,
			ReadTimeout:  config.ReadTimeout(),
			WriteTimeout: config.WriteTimeout(),
		},
		ledger:       svc,
		health:       health,
		maxRangeDays: app.MaxDateRangeDays(),
		signInURL:    app.SignInURL(),
	}

	s.route(mux, "GET /api/user-settings", s.handleGetSettings)
	s.route(mux, "PUT /api/user-settings", s.handleUpdateSettings)

	s.route(mux, "GET /api/categories", s.handleListCategories)
	s.route(mux, "POST /api/categories", s.handleCreateCategory)
	s.route(mux, "DELETE /api/categories", s.handleDeleteCategory)

	s.route(mux, "POST /api/transactions", s.handleCreateTransaction)
	s.route(mux, "DELETE /api/transactions/{id}", s.handleDeleteTransaction)

	s.route(mux, "GET /api/transaction-history", s.handleTransactionHistory)
	s.route(mux, "GET /api/stats/balance", s.handleBalanceStats)
	s.route(mux, "GET /api/stats/categories", s.handleCategoryStats)
	s.route(mux, "GET /api/history-periods", s.handleHistoryPeriods)
	s.route(mux, "GET /api/history-data", s.handleHistoryData)

	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /healthz", s.handleHealth)

	return s
}

// route registers an authenticated, instrumented API handler.
func (s *Server) route(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	mux.Handle(pattern, s.instrument(pattern, s.authenticate(h)))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.health.Ping(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
