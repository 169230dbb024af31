package reports

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jinzhu/now"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"max.ks1230/budget-tracker/internal/entity/ledger"
	"max.ks1230/budget-tracker/internal/entity/user"
	"max.ks1230/budget-tracker/internal/logger"
	"max.ks1230/budget-tracker/internal/model/budget"
	"max.ks1230/budget-tracker/internal/model/customerr"
)

const (
	PeriodWeek  = "week"
	PeriodMonth = "month"
	PeriodYear  = "year"
)

var periodStarts = map[string]func(*now.Now) time.Time{
	PeriodWeek:  (*now.Now).BeginningOfWeek,
	PeriodMonth: (*now.Now).BeginningOfMonth,
	PeriodYear:  (*now.Now).BeginningOfYear,
}

type statsSource interface {
	GetSettings(ctx context.Context, id user.Identity) (user.Settings, error)
	GetBalanceStats(ctx context.Context, id user.Identity, from, to time.Time) (ledger.Balance, error)
	GetCategoryStats(ctx context.Context, id user.Identity, from, to time.Time) ([]ledger.CategoryStat, error)
}

type config interface {
	DefaultCurrency() string
}

// Report is a period summary: the balance plus expense categories largest first.
type Report struct {
	Period     string
	From, To   time.Time
	Currency   string
	Balance    ledger.Balance
	Categories []ledger.CategoryStat
}

type Generator struct {
	stats           statsSource
	defaultCurrency string
	now             func() time.Time
}

func NewGenerator(config config, stats statsSource) *Generator {
	return &Generator{
		stats:           stats,
		defaultCurrency: config.DefaultCurrency(),
		now:             time.Now,
	}
}

// Range resolves a period name to [start of period, now] in UTC.
func (g *Generator) Range(period string) (from, to time.Time, err error) {
	start, ok := periodStarts[period]
	if !ok {
		return time.Time{}, time.Time{}, customerr.Validation("report period %q is not supported", period)
	}
	to = g.now().UTC()
	return start(now.With(to)), to, nil
}

func (g *Generator) GenerateReport(ctx context.Context, id user.Identity, period string) (Report, error) {
	logger.Info("GenerateReport - start", zap.String("userID", id.ID), zap.String("period", period))
	defer logger.Info("GenerateReport - end")

	from, to, err := g.Range(period)
	if err != nil {
		return Report{}, err
	}

	settings, err := g.stats.GetSettings(ctx, id)
	if err != nil {
		return Report{}, errors.Wrap(err, "generate report")
	}
	balance, err := g.stats.GetBalanceStats(ctx, id, from, to)
	if err != nil {
		return Report{}, errors.Wrap(err, "generate report")
	}
	stats, err := g.stats.GetCategoryStats(ctx, id, from, to)
	if err != nil {
		return Report{}, errors.Wrap(err, "generate report")
	}

	return Report{
		Period:     period,
		From:       from,
		To:         to,
		Currency:   settings.CurrencyOrDefault(g.defaultCurrency),
		Balance:    balance,
		Categories: expensesOnly(stats),
	}, nil
}

func expensesOnly(stats []ledger.CategoryStat) []ledger.CategoryStat {
	res := make([]ledger.CategoryStat, 0, len(stats))
	for _, st := range stats {
		if st.Kind == ledger.Expense {
			res = append(res, st)
		}
	}
	sort.SliceStable(res, func(i, j int) bool {
		return res[i].Amount.GreaterThan(res[j].Amount)
	})
	return res
}

// Format renders the report as chat text.
func Format(report Report) string {
	format := budget.NewFormatter(report.Currency)

	res := make([]string, 0, len(report.Categories)+4)
	for _, st := range report.Categories {
		name := strings.TrimSpace(st.CategoryIcon + " " + st.Category)
		res = append(res, fmt.Sprintf("%s: %s", name, format(st.Amount)))
	}
	if len(res) > 0 {
		res = append(res, "")
	}
	res = append(res,
		"Income: "+format(report.Balance.Income),
		"Expense: "+format(report.Balance.Expense),
		"Total: "+format(report.Balance.Income.Sub(report.Balance.Expense)),
	)
	return strings.Join(res, "\n")
}

// IsEmpty reports whether nothing was recorded in the period.
func (r Report) IsEmpty() bool {
	return r.Balance.Income.Equal(decimal.Zero) && r.Balance.Expense.Equal(decimal.Zero)
}

func ReportPeriods() []string {
	res := make([]string, 0, len(periodStarts))
	for k := range periodStarts {
		res = append(res, k)
	}
	sort.Strings(res)
	return res
}
