package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"max.ks1230/budget-tracker/internal/entity/ledger"
	"max.ks1230/budget-tracker/internal/entity/user"
)

const driverMemory = "memory"

// Storage is the union of what the ledger service and the HTTP health check need.
type Storage interface {
	Ping(ctx context.Context) error
	Close() error

	GetOrCreateSettings(ctx context.Context, userID, defCurrency string) (user.Settings, error)
	SaveSettings(ctx context.Context, settings user.Settings) error

	FindCategory(ctx context.Context, userID, name string) (ledger.Category, error)
	ListCategories(ctx context.Context, userID string, kind *ledger.Kind) ([]ledger.Category, error)
	CreateCategory(ctx context.Context, cat ledger.Category) error
	DeleteCategory(ctx context.Context, userID, name string, kind ledger.Kind) error

	CreateTransaction(ctx context.Context, t ledger.Transaction) error
	DeleteTransaction(ctx context.Context, userID string, id uuid.UUID) (ledger.Transaction, error)

	YearHistory(ctx context.Context, userID string, year int) ([]ledger.YearAggregate, error)
	MonthHistory(ctx context.Context, userID string, year, month int) ([]ledger.MonthAggregate, error)
	HistoryYears(ctx context.Context, userID string) ([]int, error)
	CategoryStats(ctx context.Context, userID string, from, to time.Time) ([]ledger.CategoryStat, error)
	Balance(ctx context.Context, userID string, from, to time.Time) (ledger.Balance, error)
	Transactions(ctx context.Context, userID string, from, to time.Time) ([]ledger.Transaction, error)
}

var (
	_ Storage = (*SQLStorage)(nil)
	_ Storage = (*InMemStorage)(nil)
)

// New picks the storage implementation by the configured driver.
func New(config config) (Storage, error) {
	switch config.Driver() {
	case driverPostgres, driverSQLite:
		return NewSQLStorage(config)
	case driverMemory:
		return NewInMemStorage(), nil
	}
	return nil, errors.Errorf("unknown storage driver %q", config.Driver())
}
