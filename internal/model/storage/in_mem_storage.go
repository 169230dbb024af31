package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"max.ks1230/budget-tracker/internal/entity/ledger"
	"max.ks1230/budget-tracker/internal/entity/user"
	"max.ks1230/budget-tracker/internal/model/customerr"
)

type monthKey struct {
	userID string
	ledger.PeriodKey
}

type yearKey struct {
	userID      string
	year, month int
}

type sums struct {
	income, expense decimal.Decimal
}

// InMemStorage is a process-local ledger used by the sqlite-less dev setup and by
// tests. Every write unit runs under one lock, so it is all-or-nothing for readers.
type InMemStorage struct {
	mu           sync.RWMutex
	settings     map[string]user.Settings
	categories   map[string][]ledger.Category
	transactions map[uuid.UUID]ledger.Transaction
	months       map[monthKey]sums
	years        map[yearKey]sums
}

func NewInMemStorage() *InMemStorage {
	return &InMemStorage{
		settings:     make(map[string]user.Settings),
		categories:   make(map[string][]ledger.Category),
		transactions: make(map[uuid.UUID]ledger.Transaction),
		months:       make(map[monthKey]sums),
		years:        make(map[yearKey]sums),
	}
}

func (s *InMemStorage) Ping(_ context.Context) error {
	return nil
}

func (s *InMemStorage) Close() error {
	return nil
}

func (s *InMemStorage) GetOrCreateSettings(_ context.Context, userID, defCurrency string) (user.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.settings[userID]
	if !ok {
		st = user.Settings{UserID: userID, Currency: defCurrency}
		s.settings[userID] = st
	}
	return st, nil
}

func (s *InMemStorage) SaveSettings(_ context.Context, settings user.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.settings[settings.UserID] = settings
	return nil
}

func (s *InMemStorage) FindCategory(_ context.Context, userID, name string) (ledger.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	found := make([]ledger.Category, 0, 2)
	for _, c := range s.categories[userID] {
		if c.Name == name {
			found = append(found, c)
		}
	}
	if len(found) == 0 {
		return ledger.Category{}, &customerr.NotFoundError{Entity: "category", Key: name}
	}
	sort.SliceStable(found, func(i, j int) bool {
		if found[i].Kind != found[j].Kind {
			return found[i].Kind < found[j].Kind
		}
		return found[i].CreatedAt.Before(found[j].CreatedAt)
	})
	return found[0], nil
}

func (s *InMemStorage) ListCategories(_ context.Context, userID string, kind *ledger.Kind) ([]ledger.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res := make([]ledger.Category, 0)
	for _, c := range s.categories[userID] {
		if kind == nil || c.Kind == *kind {
			res = append(res, c)
		}
	}
	sort.Slice(res, func(i, j int) bool {
		if res[i].Name != res[j].Name {
			return res[i].Name < res[j].Name
		}
		return res[i].Kind < res[j].Kind
	})
	return res, nil
}

func (s *InMemStorage) CreateCategory(_ context.Context, cat ledger.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.categories[cat.UserID] {
		if c.Name == cat.Name && c.Kind == cat.Kind {
			return &customerr.ConflictError{Entity: "category", Key: cat.Name}
		}
	}
	s.categories[cat.UserID] = append(s.categories[cat.UserID], cat)
	return nil
}

func (s *InMemStorage) DeleteCategory(_ context.Context, userID, name string, kind ledger.Kind) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cats := s.categories[userID]
	for i, c := range cats {
		if c.Name == name && c.Kind == kind {
			s.categories[userID] = append(cats[:i:i], cats[i+1:]...)
			return nil
		}
	}
	return &customerr.NotFoundError{Entity: "category", Key: name}
}

func (s *InMemStorage) CreateTransaction(_ context.Context, t ledger.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.transactions[t.ID]; ok {
		return customerr.Storage("create transaction", &customerr.ConflictError{Entity: "transaction", Key: t.ID.String()})
	}
	t.Date = t.Date.UTC()
	s.transactions[t.ID] = t
	s.apply(t, false)
	return nil
}

func (s *InMemStorage) DeleteTransaction(_ context.Context, userID string, id uuid.UUID) (ledger.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.transactions[id]
	if !ok || t.UserID != userID {
		return ledger.Transaction{}, &customerr.NotFoundError{Entity: "transaction", Key: id.String()}
	}
	delete(s.transactions, id)
	s.apply(t, true)
	return t, nil
}

// apply adds (or with revert, subtracts) the transaction amount to both aggregates.
// Callers hold the write lock.
func (s *InMemStorage) apply(t ledger.Transaction, revert bool) {
	key := ledger.PeriodOf(t.Date)
	income, expense := ledger.Split(t.Kind, t.Amount)
	if revert {
		income, expense = income.Neg(), expense.Neg()
	}

	mk := monthKey{userID: t.UserID, PeriodKey: key}
	m := s.months[mk]
	s.months[mk] = sums{income: m.income.Add(income), expense: m.expense.Add(expense)}

	yk := yearKey{userID: t.UserID, year: key.Year, month: key.Month}
	y := s.years[yk]
	s.years[yk] = sums{income: y.income.Add(income), expense: y.expense.Add(expense)}
}

func (s *InMemStorage) YearHistory(_ context.Context, userID string, year int) ([]ledger.YearAggregate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res := make([]ledger.YearAggregate, 0)
	for k, v := range s.years {
		if k.userID == userID && k.year == year {
			res = append(res, ledger.YearAggregate{
				UserID: userID, Year: year, Month: k.month, Income: v.income, Expense: v.expense,
			})
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Month < res[j].Month })
	return res, nil
}

func (s *InMemStorage) MonthHistory(_ context.Context, userID string, year, month int) ([]ledger.MonthAggregate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res := make([]ledger.MonthAggregate, 0)
	for k, v := range s.months {
		if k.userID == userID && k.Year == year && k.Month == month {
			res = append(res, ledger.MonthAggregate{
				UserID: userID, Year: year, Month: month, Day: k.Day, Income: v.income, Expense: v.expense,
			})
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Day < res[j].Day })
	return res, nil
}

func (s *InMemStorage) HistoryYears(_ context.Context, userID string) ([]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[int]struct{})
	res := make([]int, 0)
	for k, v := range s.years {
		if k.userID != userID || (v.income.IsZero() && v.expense.IsZero()) {
			continue
		}
		if _, ok := seen[k.year]; !ok {
			seen[k.year] = struct{}{}
			res = append(res, k.year)
		}
	}
	sort.Ints(res)
	return res, nil
}

func (s *InMemStorage) CategoryStats(_ context.Context, userID string, from, to time.Time) ([]ledger.CategoryStat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type statKey struct {
		category, icon string
		kind           ledger.Kind
	}
	grouped := make(map[statKey]decimal.Decimal)
	for _, t := range s.transactions {
		if t.UserID == userID && inRange(t.Date, from, to) {
			k := statKey{category: t.Category, icon: t.CategoryIcon, kind: t.Kind}
			grouped[k] = grouped[k].Add(t.Amount)
		}
	}

	res := make([]ledger.CategoryStat, 0, len(grouped))
	for k, v := range grouped {
		res = append(res, ledger.CategoryStat{Category: k.category, CategoryIcon: k.icon, Kind: k.kind, Amount: v})
	}
	sort.Slice(res, func(i, j int) bool {
		if !res[i].Amount.Equal(res[j].Amount) {
			return res[i].Amount.GreaterThan(res[j].Amount)
		}
		return res[i].Category < res[j].Category
	})
	return res, nil
}

func (s *InMemStorage) Balance(_ context.Context, userID string, from, to time.Time) (ledger.Balance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res := ledger.Balance{Income: decimal.Zero, Expense: decimal.Zero}
	for _, t := range s.transactions {
		if t.UserID != userID || !inRange(t.Date, from, to) {
			continue
		}
		if t.Kind == ledger.Income {
			res.Income = res.Income.Add(t.Amount)
		} else {
			res.Expense = res.Expense.Add(t.Amount)
		}
	}
	return res, nil
}

func (s *InMemStorage) Transactions(_ context.Context, userID string, from, to time.Time) ([]ledger.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res := make([]ledger.Transaction, 0)
	for _, t := range s.transactions {
		if t.UserID == userID && inRange(t.Date, from, to) {
			res = append(res, t)
		}
	}
	sort.Slice(res, func(i, j int) bool {
		if !res[i].Date.Equal(res[j].Date) {
			return res[i].Date.After(res[j].Date)
		}
		return res[i].CreatedAt.After(res[j].CreatedAt)
	})
	return res, nil
}

func inRange(t, from, to time.Time) bool {
	return !t.Before(from) && !t.After(to)
}
