package budget

import (
	"context"
	"fmt"
	"time"

	"github.com/jinzhu/now"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"max.ks1230/budget-tracker/internal/entity/ledger"
	"max.ks1230/budget-tracker/internal/entity/user"
	"max.ks1230/budget-tracker/internal/logger"
	"max.ks1230/budget-tracker/internal/model/customerr"
)

const (
	monthsInYear = 12
	cacheDateFmt = "20060102T150405"
)

// GetYearHistory returns one point per month (0..11) of the year, zero filled.
func (s *Service) GetYearHistory(ctx context.Context, id user.Identity, year int) ([]ledger.HistoryPoint, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "getYearHistory")
	defer span.Finish()

	if !id.Valid() {
		return nil, &customerr.UnauthenticatedError{}
	}

	key := fmt.Sprintf("year:%d", year)
	var cached []ledger.HistoryPoint
	gen, hit := s.cached(ctx, id.ID, key, &cached)
	if hit {
		return cached, nil
	}

	rows, err := s.storage.YearHistory(ctx, id.ID, year)
	if err != nil {
		return nil, errors.Wrap(err, "get year history")
	}

	byMonth := make(map[int]ledger.YearAggregate, len(rows))
	for _, r := range rows {
		byMonth[r.Month] = r
	}

	history := make([]ledger.HistoryPoint, 0, monthsInYear)
	for month := 0; month < monthsInYear; month++ {
		p := ledger.HistoryPoint{Year: year, Month: month, Income: decimal.Zero, Expense: decimal.Zero}
		if r, ok := byMonth[month]; ok {
			p.Income, p.Expense = r.Income, r.Expense
		}
		history = append(history, p)
	}

	s.cache.Set(ctx, id.ID, key, gen, history)
	return history, nil
}

// GetMonthHistory returns one point per calendar day of the month, zero filled.
// Month is zero based.
func (s *Service) GetMonthHistory(ctx context.Context, id user.Identity, year, month int) ([]ledger.HistoryPoint, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "getMonthHistory")
	defer span.Finish()

	if !id.Valid() {
		return nil, &customerr.UnauthenticatedError{}
	}
	if month < 0 || month >= monthsInYear {
		return nil, customerr.Validation("month %d out of range", month)
	}

	key := fmt.Sprintf("month:%d:%d", year, month)
	var cached []ledger.HistoryPoint
	gen, hit := s.cached(ctx, id.ID, key, &cached)
	if hit {
		return cached, nil
	}

	rows, err := s.storage.MonthHistory(ctx, id.ID, year, month)
	if err != nil {
		return nil, errors.Wrap(err, "get month history")
	}

	byDay := make(map[int]ledger.MonthAggregate, len(rows))
	for _, r := range rows {
		byDay[r.Day] = r
	}

	days := DaysInMonth(year, month)
	history := make([]ledger.HistoryPoint, 0, days)
	for d := 1; d <= days; d++ {
		p := ledger.HistoryPoint{Year: year, Month: month, Day: d, Income: decimal.Zero, Expense: decimal.Zero}
		if r, ok := byDay[d]; ok {
			p.Income, p.Expense = r.Income, r.Expense
		}
		history = append(history, p)
	}

	s.cache.Set(ctx, id.ID, key, gen, history)
	return history, nil
}

// DaysInMonth counts the days of a zero based month.
func DaysInMonth(year, month int) int {
	first := time.Date(year, time.Month(month+1), 1, 0, 0, 0, 0, time.UTC)
	return now.With(first).EndOfMonth().Day()
}

// GetHistoryPeriods lists the years that have aggregated data, or the current
// year when there is none yet.
func (s *Service) GetHistoryPeriods(ctx context.Context, id user.Identity) ([]int, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "getHistoryPeriods")
	defer span.Finish()

	if !id.Valid() {
		return nil, &customerr.UnauthenticatedError{}
	}

	years, err := s.storage.HistoryYears(ctx, id.ID)
	if err != nil {
		return nil, errors.Wrap(err, "get history periods")
	}
	if len(years) == 0 {
		return []int{s.now().UTC().Year()}, nil
	}
	return years, nil
}

func (s *Service) GetCategoryStats(ctx context.Context, id user.Identity, from, to time.Time) ([]ledger.CategoryStat, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "getCategoryStats")
	defer span.Finish()

	if !id.Valid() {
		return nil, &customerr.UnauthenticatedError{}
	}

	key := rangeKey("categories", from, to)
	var cached []ledger.CategoryStat
	gen, hit := s.cached(ctx, id.ID, key, &cached)
	if hit {
		return cached, nil
	}

	stats, err := s.storage.CategoryStats(ctx, id.ID, from, to)
	if err != nil {
		return nil, errors.Wrap(err, "get category stats")
	}

	s.cache.Set(ctx, id.ID, key, gen, stats)
	return stats, nil
}

func (s *Service) GetBalanceStats(ctx context.Context, id user.Identity, from, to time.Time) (ledger.Balance, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "getBalanceStats")
	defer span.Finish()

	if !id.Valid() {
		return ledger.Balance{}, &customerr.UnauthenticatedError{}
	}

	key := rangeKey("balance", from, to)
	var cached ledger.Balance
	gen, hit := s.cached(ctx, id.ID, key, &cached)
	if hit {
		return cached, nil
	}

	balance, err := s.storage.Balance(ctx, id.ID, from, to)
	if err != nil {
		return ledger.Balance{}, errors.Wrap(err, "get balance stats")
	}

	s.cache.Set(ctx, id.ID, key, gen, balance)
	return balance, nil
}

// GetTransactionHistory lists transactions newest first, with amounts formatted in
// the user's currency.
func (s *Service) GetTransactionHistory(ctx context.Context, id user.Identity, from, to time.Time) ([]ledger.HistoryTransaction, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "getTransactionHistory")
	defer span.Finish()

	if !id.Valid() {
		return nil, &customerr.UnauthenticatedError{}
	}

	settings, err := s.storage.GetOrCreateSettings(ctx, id.ID, s.defaultCurrency)
	if err != nil {
		return nil, errors.Wrap(err, "get transaction history")
	}
	format := NewFormatter(settings.CurrencyOrDefault(s.defaultCurrency))

	txs, err := s.storage.Transactions(ctx, id.ID, from, to)
	if err != nil {
		return nil, errors.Wrap(err, "get transaction history")
	}

	res := make([]ledger.HistoryTransaction, 0, len(txs))
	for _, t := range txs {
		res = append(res, ledger.HistoryTransaction{Transaction: t, FormattedAmount: format(t.Amount)})
	}
	return res, nil
}

func (s *Service) cached(ctx context.Context, userID, key string, dst interface{}) (uint64, bool) {
	gen, hit := s.cache.Get(ctx, userID, key, dst)
	observeCache(hit)
	if hit {
		logger.Debug("overview cache hit", zap.String("userID", userID), zap.String("key", key))
	}
	return gen, hit
}

func rangeKey(prefix string, from, to time.Time) string {
	return prefix + ":" + from.UTC().Format(cacheDateFmt) + ":" + to.UTC().Format(cacheDateFmt)
}

// ValidateRange rejects reversed ranges and ranges longer than maxDays.
func ValidateRange(from, to time.Time, maxDays int) error {
	if to.Before(from) {
		return customerr.Validation("range end %s is before start %s",
			to.Format(time.RFC3339), from.Format(time.RFC3339))
	}
	days := int(to.Sub(from).Hours() / 24)
	if days > maxDays {
		return customerr.Validation("range of %d days exceeds the maximum of %d", days, maxDays)
	}
	return nil
}
