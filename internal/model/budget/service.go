package budget

import (
	"context"
	"time"

	"github.com/google/uuid"

	"max.ks1230/budget-tracker/internal/entity/ledger"
	"max.ks1230/budget-tracker/internal/entity/user"
)

//go:generate minimock -i changeNotifier,overviewCache -o ./mock/ -s _mock.go

type ledgerStorage interface {
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

// changeNotifier is told about every committed write so that cached overview
// results can be dropped.
type changeNotifier interface {
	TransactionsChanged(ctx context.Context, change ledger.Change) error
}

// overviewCache hands out a generation on Get; Set must be given the generation
// of the Get that preceded the storage read.
type overviewCache interface {
	Get(ctx context.Context, userID, key string, dst interface{}) (generation uint64, hit bool)
	Set(ctx context.Context, userID, key string, generation uint64, value interface{})
}

type config interface {
	DefaultCurrency() string
}

type Service struct {
	storage         ledgerStorage
	notifier        changeNotifier
	cache           overviewCache
	defaultCurrency string
	now             func() time.Time
}

func NewService(config config, storage ledgerStorage, notifier changeNotifier, cache overviewCache) *Service {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if cache == nil {
		cache = nopCache{}
	}
	return &Service{
		storage:         storage,
		notifier:        notifier,
		cache:           cache,
		defaultCurrency: config.DefaultCurrency(),
		now:             time.Now,
	}
}

type nopNotifier struct{}

func (nopNotifier) TransactionsChanged(context.Context, ledger.Change) error { return nil }

type nopCache struct{}

func (nopCache) Get(context.Context, string, string, interface{}) (uint64, bool) { return 0, false }
func (nopCache) Set(context.Context, string, string, uint64, interface{})        {}
