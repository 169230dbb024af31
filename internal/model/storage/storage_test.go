package storage

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"max.ks1230/budget-tracker/internal/entity/ledger"
	"max.ks1230/budget-tracker/internal/entity/user"
	"max.ks1230/budget-tracker/internal/model/customerr"
)

const userID = "user_1"

type testConfig struct {
	driver, dsn string
}

func (c testConfig) Driver() string { return c.driver }
func (c testConfig) DSN() string    { return c.dsn }

func newSQLite(t *testing.T) Storage {
	dsn := filepath.Join(t.TempDir(), "ledger.db") + "?_time_format=sqlite"
	s, err := New(testConfig{driver: driverSQLite, dsn: dsn})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newInMem(_ *testing.T) Storage {
	return NewInMemStorage()
}

var implementations = map[string]func(t *testing.T) Storage{
	"memory": newInMem,
	"sqlite": newSQLite,
}

func forEachStorage(t *testing.T, test func(t *testing.T, s Storage)) {
	for name, factory := range implementations {
		factory := factory
		t.Run(name, func(t *testing.T) {
			test(t, factory(t))
		})
	}
}

func dec(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newTx(kind ledger.Kind, amount int64, date time.Time) ledger.Transaction {
	return ledger.Transaction{
		ID:        uuid.New(),
		UserID:    userID,
		Amount:    dec(amount),
		Kind:      kind,
		Date:      date,
		Category:  "Misc",
		CreatedAt: time.Now(),
	}
}

func monthRow(t *testing.T, s Storage, y, m, d int) ledger.MonthAggregate {
	rows, err := s.MonthHistory(context.Background(), userID, y, m)
	require.NoError(t, err)
	for _, r := range rows {
		if r.Day == d {
			return r
		}
	}
	t.Fatalf("no month aggregate for %d-%d-%d", y, m, d)
	return ledger.MonthAggregate{}
}

func Test_OnCreateTransaction_ShouldIncrementBothAggregates(t *testing.T) {
	forEachStorage(t, func(t *testing.T, s Storage) {
		ctx := context.Background()
		date := day(2024, time.March, 15)

		require.NoError(t, s.CreateTransaction(ctx, newTx(ledger.Income, 100, date)))
		require.NoError(t, s.CreateTransaction(ctx, newTx(ledger.Income, 50, date.Add(5*time.Hour))))
		require.NoError(t, s.CreateTransaction(ctx, newTx(ledger.Expense, 30, date)))
		require.NoError(t, s.CreateTransaction(ctx, newTx(ledger.Expense, 7, day(2024, time.March, 2))))

		row := monthRow(t, s, 2024, 2, 15)
		assert.True(t, row.Income.Equal(dec(150)), row.Income.String())
		assert.True(t, row.Expense.Equal(dec(30)), row.Expense.String())

		years, err := s.YearHistory(ctx, userID, 2024)
		require.NoError(t, err)
		require.Len(t, years, 1)
		assert.Equal(t, 2, years[0].Month)
		assert.True(t, years[0].Income.Equal(dec(150)))
		assert.True(t, years[0].Expense.Equal(dec(37)))
	})
}

func Test_OnConcurrentCreates_ShouldNotLoseUpdates(t *testing.T) {
	forEachStorage(t, func(t *testing.T, s Storage) {
		ctx := context.Background()
		date := day(2024, time.March, 15)

		var wg sync.WaitGroup
		errs := make(chan error, 2)
		for _, tx := range []ledger.Transaction{
			newTx(ledger.Income, 100, date),
			newTx(ledger.Expense, 30, date),
		} {
			wg.Add(1)
			go func(tx ledger.Transaction) {
				defer wg.Done()
				errs <- s.CreateTransaction(ctx, tx)
			}(tx)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		row := monthRow(t, s, 2024, 2, 15)
		assert.Equal(t, 15, row.Day)
		assert.True(t, row.Income.Equal(dec(100)))
		assert.True(t, row.Expense.Equal(dec(30)))
	})
}

func Test_OnCreateTransaction_ShouldKeyAggregatesByUTCDate(t *testing.T) {
	forEachStorage(t, func(t *testing.T, s Storage) {
		ctx := context.Background()
		date := time.Date(2024, time.January, 1, 23, 30, 0, 0, time.UTC).
			In(time.FixedZone("UTC-5", -5*60*60))

		require.NoError(t, s.CreateTransaction(ctx, newTx(ledger.Income, 10, date)))

		row := monthRow(t, s, 2024, 0, 1)
		assert.True(t, row.Income.Equal(dec(10)))
	})
}

func Test_OnDeleteTransaction_ShouldDecrementAggregates(t *testing.T) {
	forEachStorage(t, func(t *testing.T, s Storage) {
		ctx := context.Background()
		date := day(2024, time.May, 5)
		keep := newTx(ledger.Expense, 20, date)
		drop := newTx(ledger.Expense, 80, date)
		require.NoError(t, s.CreateTransaction(ctx, keep))
		require.NoError(t, s.CreateTransaction(ctx, drop))

		deleted, err := s.DeleteTransaction(ctx, userID, drop.ID)
		require.NoError(t, err)
		assert.Equal(t, drop.ID, deleted.ID)
		assert.True(t, deleted.Amount.Equal(dec(80)))

		row := monthRow(t, s, 2024, 4, 5)
		assert.True(t, row.Expense.Equal(dec(20)))
		years, err := s.YearHistory(ctx, userID, 2024)
		require.NoError(t, err)
		require.Len(t, years, 1)
		assert.True(t, years[0].Expense.Equal(dec(20)))

		txs, err := s.Transactions(ctx, userID, day(2024, time.May, 1), day(2024, time.May, 31))
		require.NoError(t, err)
		require.Len(t, txs, 1)
		assert.Equal(t, keep.ID, txs[0].ID)
	})
}

func Test_OnDeleteForeignTransaction_ShouldReturnNotFound(t *testing.T) {
	forEachStorage(t, func(t *testing.T, s Storage) {
		ctx := context.Background()
		tx := newTx(ledger.Income, 5, day(2024, time.May, 5))
		require.NoError(t, s.CreateTransaction(ctx, tx))

		_, err := s.DeleteTransaction(ctx, "someone_else", tx.ID)
		assert.True(t, customerr.IsNotFound(err))

		_, err = s.DeleteTransaction(ctx, userID, uuid.New())
		assert.True(t, customerr.IsNotFound(err))
	})
}

func Test_OnBalance_ShouldSumKindsWithinInclusiveRange(t *testing.T) {
	forEachStorage(t, func(t *testing.T, s Storage) {
		ctx := context.Background()
		require.NoError(t, s.CreateTransaction(ctx, newTx(ledger.Income, 200, day(2024, time.January, 1))))
		require.NoError(t, s.CreateTransaction(ctx, newTx(ledger.Expense, 80, day(2024, time.January, 31))))
		require.NoError(t, s.CreateTransaction(ctx, newTx(ledger.Expense, 999, day(2024, time.February, 1))))

		bal, err := s.Balance(ctx, userID, day(2024, time.January, 1), day(2024, time.January, 31))
		require.NoError(t, err)
		assert.True(t, bal.Income.Equal(dec(200)))
		assert.True(t, bal.Expense.Equal(dec(80)))
	})
}

func Test_OnCategoryStats_ShouldGroupByCategoryAndKind(t *testing.T) {
	forEachStorage(t, func(t *testing.T, s Storage) {
		ctx := context.Background()
		date := day(2024, time.June, 10)
		food1 := newTx(ledger.Expense, 10, date)
		food1.Category, food1.CategoryIcon = "Food", "🍔"
		food2 := newTx(ledger.Expense, 15, date)
		food2.Category, food2.CategoryIcon = "Food", "🍔"
		salary := newTx(ledger.Income, 1000, date)
		salary.Category, salary.CategoryIcon = "Salary", "💰"
		for _, tx := range []ledger.Transaction{food1, food2, salary} {
			require.NoError(t, s.CreateTransaction(ctx, tx))
		}

		stats, err := s.CategoryStats(ctx, userID, day(2024, time.June, 1), day(2024, time.June, 30))
		require.NoError(t, err)
		require.Len(t, stats, 2)
		assert.Equal(t, "Salary", stats[0].Category)
		assert.Equal(t, ledger.Income, stats[0].Kind)
		assert.Equal(t, "Food", stats[1].Category)
		assert.Equal(t, "🍔", stats[1].CategoryIcon)
		assert.True(t, stats[1].Amount.Equal(dec(25)))
	})
}

func Test_OnTransactions_ShouldOrderByDateDescending(t *testing.T) {
	forEachStorage(t, func(t *testing.T, s Storage) {
		ctx := context.Background()
		older := newTx(ledger.Income, 1, day(2024, time.July, 1))
		newer := newTx(ledger.Income, 2, day(2024, time.July, 20))
		require.NoError(t, s.CreateTransaction(ctx, older))
		require.NoError(t, s.CreateTransaction(ctx, newer))

		txs, err := s.Transactions(ctx, userID, day(2024, time.July, 1), day(2024, time.July, 31))
		require.NoError(t, err)
		require.Len(t, txs, 2)
		assert.Equal(t, newer.ID, txs[0].ID)
		assert.Equal(t, older.ID, txs[1].ID)
		assert.True(t, txs[1].Date.Equal(older.Date))
	})
}

func Test_OnCategories_ShouldEnforceUniquenessPerKind(t *testing.T) {
	forEachStorage(t, func(t *testing.T, s Storage) {
		ctx := context.Background()
		now := time.Now()
		gift := ledger.Category{UserID: userID, Name: "Gift", Icon: "🎁", Kind: ledger.Income, CreatedAt: now}

		require.NoError(t, s.CreateCategory(ctx, gift))
		assert.True(t, customerr.IsConflict(s.CreateCategory(ctx, gift)))

		spent := gift
		spent.Kind, spent.Icon = ledger.Expense, "🎀"
		require.NoError(t, s.CreateCategory(ctx, spent))

		found, err := s.FindCategory(ctx, userID, "Gift")
		require.NoError(t, err)
		assert.Equal(t, ledger.Expense, found.Kind)

		income := ledger.Income
		listed, err := s.ListCategories(ctx, userID, &income)
		require.NoError(t, err)
		require.Len(t, listed, 1)
		assert.Equal(t, "🎁", listed[0].Icon)

		require.NoError(t, s.DeleteCategory(ctx, userID, "Gift", ledger.Expense))
		assert.True(t, customerr.IsNotFound(s.DeleteCategory(ctx, userID, "Gift", ledger.Expense)))

		_, err = s.FindCategory(ctx, userID, "Missing")
		assert.True(t, customerr.IsNotFound(err))
	})
}

func Test_OnSettings_ShouldBeCreatedLazilyAndUpdated(t *testing.T) {
	forEachStorage(t, func(t *testing.T, s Storage) {
		ctx := context.Background()

		st, err := s.GetOrCreateSettings(ctx, userID, "USD")
		require.NoError(t, err)
		assert.Equal(t, user.Settings{UserID: userID, Currency: "USD"}, st)

		require.NoError(t, s.SaveSettings(ctx, user.Settings{UserID: userID, Currency: "EUR"}))

		st, err = s.GetOrCreateSettings(ctx, userID, "USD")
		require.NoError(t, err)
		assert.Equal(t, "EUR", st.Currency)
	})
}

func Test_OnHistoryYears_ShouldReturnDistinctSortedYears(t *testing.T) {
	forEachStorage(t, func(t *testing.T, s Storage) {
		ctx := context.Background()
		for _, d := range []time.Time{day(2023, time.May, 1), day(2021, time.May, 1), day(2023, time.June, 1)} {
			require.NoError(t, s.CreateTransaction(ctx, newTx(ledger.Income, 1, d)))
		}

		years, err := s.HistoryYears(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, []int{2021, 2023}, years)
	})
}

func newFractionalTx(kind ledger.Kind, amount string, date time.Time) ledger.Transaction {
	tx := newTx(kind, 0, date)
	tx.Amount = decimal.RequireFromString(amount)
	return tx
}

func Test_OnFractionalAmounts_ShouldSumExactly(t *testing.T) {
	forEachStorage(t, func(t *testing.T, s Storage) {
		ctx := context.Background()
		date := day(2024, time.March, 15)
		first := newFractionalTx(ledger.Income, "0.1", date)
		require.NoError(t, s.CreateTransaction(ctx, first))
		require.NoError(t, s.CreateTransaction(ctx, newFractionalTx(ledger.Income, "0.2", date)))
		require.NoError(t, s.CreateTransaction(ctx, newFractionalTx(ledger.Expense, "0.0001", date)))
		require.NoError(t, s.CreateTransaction(ctx, newFractionalTx(ledger.Expense, "1234567.8912", date)))

		want := decimal.RequireFromString("0.3")
		wantExpense := decimal.RequireFromString("1234567.8913")

		row := monthRow(t, s, 2024, 2, 15)
		assert.True(t, row.Income.Equal(want), row.Income.String())
		assert.True(t, row.Expense.Equal(wantExpense), row.Expense.String())

		years, err := s.YearHistory(ctx, userID, 2024)
		require.NoError(t, err)
		require.Len(t, years, 1)
		assert.True(t, years[0].Income.Equal(want), years[0].Income.String())
		assert.True(t, years[0].Expense.Equal(wantExpense), years[0].Expense.String())

		balance, err := s.Balance(ctx, userID, day(2024, time.March, 1), day(2024, time.March, 31))
		require.NoError(t, err)
		assert.True(t, balance.Income.Equal(want), balance.Income.String())
		assert.True(t, balance.Expense.Equal(wantExpense), balance.Expense.String())

		stats, err := s.CategoryStats(ctx, userID, day(2024, time.March, 1), day(2024, time.March, 31))
		require.NoError(t, err)
		require.Len(t, stats, 2)
		for _, st := range stats {
			if st.Kind == ledger.Income {
				assert.True(t, st.Amount.Equal(want), st.Amount.String())
			}
		}

		txs, err := s.Transactions(ctx, userID, date, date)
		require.NoError(t, err)
		for _, tx := range txs {
			if tx.ID == first.ID {
				assert.True(t, tx.Amount.Equal(first.Amount), tx.Amount.String())
			}
		}
	})
}

func Test_OnRepeatedDelete_ShouldSubtractOnce(t *testing.T) {
	forEachStorage(t, func(t *testing.T, s Storage) {
		ctx := context.Background()
		date := day(2024, time.July, 4)
		keep := newFractionalTx(ledger.Expense, "10.25", date)
		drop := newFractionalTx(ledger.Expense, "4.75", date)
		require.NoError(t, s.CreateTransaction(ctx, keep))
		require.NoError(t, s.CreateTransaction(ctx, drop))

		const attempts = 4
		var wg sync.WaitGroup
		errs := make(chan error, attempts)
		for i := 0; i < attempts; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := s.DeleteTransaction(ctx, userID, drop.ID)
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)

		deleted := 0
		for err := range errs {
			if err == nil {
				deleted++
				continue
			}
			assert.True(t, customerr.IsNotFound(err), err.Error())
		}
		assert.Equal(t, 1, deleted)

		row := monthRow(t, s, 2024, 6, 4)
		assert.True(t, row.Expense.Equal(keep.Amount), row.Expense.String())
		years, err := s.YearHistory(ctx, userID, 2024)
		require.NoError(t, err)
		require.Len(t, years, 1)
		assert.True(t, years[0].Expense.Equal(keep.Amount), years[0].Expense.String())
	})
}

func Test_OnCreateDeleteInterleaving_ShouldKeepAggregatesEqualToLedger(t *testing.T) {
	forEachStorage(t, func(t *testing.T, s Storage) {
		ctx := context.Background()
		date := day(2024, time.September, 9)
		amounts := []string{"0.1", "0.2", "0.3", "19.99", "0.0007", "5"}

		var created []ledger.Transaction
		for i, amount := range amounts {
			kind := ledger.Income
			if i%2 == 1 {
				kind = ledger.Expense
			}
			tx := newFractionalTx(kind, amount, date.Add(time.Duration(i)*time.Hour))
			require.NoError(t, s.CreateTransaction(ctx, tx))
			created = append(created, tx)

			if i%3 == 2 {
				_, err := s.DeleteTransaction(ctx, userID, created[i-1].ID)
				require.NoError(t, err)
			}
		}

		txs, err := s.Transactions(ctx, userID, date, date.Add(24*time.Hour-time.Nanosecond))
		require.NoError(t, err)
		income, expense := decimal.Zero, decimal.Zero
		for _, tx := range txs {
			inc, exp := ledger.Split(tx.Kind, tx.Amount)
			income, expense = income.Add(inc), expense.Add(exp)
		}

		row := monthRow(t, s, 2024, 8, 9)
		assert.True(t, row.Income.Equal(income), "%s != %s", row.Income, income)
		assert.True(t, row.Expense.Equal(expense), "%s != %s", row.Expense, expense)

		years, err := s.YearHistory(ctx, userID, 2024)
		require.NoError(t, err)
		require.Len(t, years, 1)
		assert.True(t, years[0].Income.Equal(income))
		assert.True(t, years[0].Expense.Equal(expense))
	})
}

func Test_OnHistoryYearsAfterDeletingEverything_ShouldBeEmpty(t *testing.T) {
	forEachStorage(t, func(t *testing.T, s Storage) {
		ctx := context.Background()
		gone := newFractionalTx(ledger.Income, "3.5", day(2022, time.February, 2))
		stays := newTx(ledger.Expense, 1, day(2024, time.February, 2))
		require.NoError(t, s.CreateTransaction(ctx, gone))
		require.NoError(t, s.CreateTransaction(ctx, stays))

		_, err := s.DeleteTransaction(ctx, userID, gone.ID)
		require.NoError(t, err)

		years, err := s.HistoryYears(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, []int{2024}, years)

		_, err = s.DeleteTransaction(ctx, userID, stays.ID)
		require.NoError(t, err)

		years, err = s.HistoryYears(ctx, userID)
		require.NoError(t, err)
		assert.Empty(t, years)
	})
}
