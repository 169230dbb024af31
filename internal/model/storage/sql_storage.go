package storage

import (
	"context"
	"database/sql"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	// postgres driver
	_ "github.com/lib/pq"
	// sqlite driver
	_ "modernc.org/sqlite"

	"max.ks1230/budget-tracker/internal/entity/ledger"
	"max.ks1230/budget-tracker/internal/entity/user"
	"max.ks1230/budget-tracker/internal/logger"
	"max.ks1230/budget-tracker/internal/model/customerr"
)

const (
	driverPostgres = "postgres"
	driverSQLite   = "sqlite"
)

const (
	monthUpsertSuffix = "ON CONFLICT (user_id, day, month, year) DO UPDATE SET " +
		"income = month_history.income + EXCLUDED.income, " +
		"expense = month_history.expense + EXCLUDED.expense"
	yearUpsertSuffix = "ON CONFLICT (user_id, month, year) DO UPDATE SET " +
		"income = year_history.income + EXCLUDED.income, " +
		"expense = year_history.expense + EXCLUDED.expense"
)

var transactionColumns = []string{
	"id", "user_id", "amount", "type", "date", "description", "category", "category_icon", "created_at",
}

type config interface {
	Driver() string
	DSN() string
}

// SQLStorage keeps the ledger and its aggregates in postgres or sqlite.
type SQLStorage struct {
	db     *sql.DB
	psql   sq.StatementBuilderType
	amount amountCodec
}

func NewSQLStorage(config config) (*SQLStorage, error) {
	driver := config.Driver()

	if err := RunMigrations(driver, config.DSN()); err != nil {
		return nil, errors.Wrap(err, "cannot migrate database")
	}

	db, err := sql.Open(driver, config.DSN())
	if err != nil {
		return nil, errors.Wrap(err, "cannot connect to database")
	}
	if err = db.Ping(); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "cannot connect to database")
	}
	return newSQLStorage(db, driver), nil
}

func newSQLStorage(db *sql.DB, driver string) *SQLStorage {
	builder := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	codec := amountCodec{}
	if driver == driverSQLite {
		codec.minorUnits = true
		builder = sq.StatementBuilder.PlaceholderFormat(sq.Question)
		// sqlite allows one writer; serializing connections keeps concurrent
		// write units from failing with SQLITE_BUSY.
		db.SetMaxOpenConns(1)
	}
	return &SQLStorage{db: db, psql: builder, amount: codec}
}

func (s *SQLStorage) Close() error {
	return s.db.Close()
}

func (s *SQLStorage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLStorage) GetOrCreateSettings(ctx context.Context, userID, defCurrency string) (user.Settings, error) {
	insert := s.psql.Insert("user_settings").
		Columns("user_id", "currency").
		Values(userID, defCurrency).
		Suffix("ON CONFLICT (user_id) DO NOTHING")

	if _, err := insert.RunWith(s.db).ExecContext(ctx); err != nil {
		return user.Settings{}, customerr.Storage("create settings", err)
	}

	query := s.psql.Select("user_id", "currency").
		From("user_settings").
		Where(sq.Eq{"user_id": userID})

	var res user.Settings
	err := query.RunWith(s.db).QueryRowContext(ctx).Scan(&res.UserID, &res.Currency)
	if err != nil {
		return user.Settings{}, customerr.Storage("get settings", err)
	}
	return res, nil
}

func (s *SQLStorage) SaveSettings(ctx context.Context, settings user.Settings) error {
	query := s.psql.Insert("user_settings").
		Columns("user_id", "currency").
		Values(settings.UserID, settings.Currency).
		Suffix("ON CONFLICT (user_id) DO UPDATE SET currency = EXCLUDED.currency")

	_, err := query.RunWith(s.db).ExecContext(ctx)
	return customerr.Storage("save settings", err)
}

// FindCategory looks a category up by name only. When an income and an expense
// category share the name, the result is ordered by kind and creation time so the
// choice is stable.
func (s *SQLStorage) FindCategory(ctx context.Context, userID, name string) (ledger.Category, error) {
	query := s.psql.Select("user_id", "name", "icon", "type", "created_at").
		From("categories").
		Where(sq.Eq{"user_id": userID, "name": name}).
		OrderBy("type", "created_at")

	cats, err := s.queryCategories(ctx, query)
	if err != nil {
		return ledger.Category{}, customerr.Storage("find category", err)
	}
	if len(cats) == 0 {
		return ledger.Category{}, &customerr.NotFoundError{Entity: "category", Key: name}
	}
	if len(cats) > 1 {
		logger.Warn("category name is ambiguous across kinds",
			zap.String("userID", userID), zap.String("category", name), zap.String("picked", string(cats[0].Kind)))
	}
	return cats[0], nil
}

func (s *SQLStorage) ListCategories(ctx context.Context, userID string, kind *ledger.Kind) ([]ledger.Category, error) {
	where := sq.Eq{"user_id": userID}
	if kind != nil {
		where["type"] = string(*kind)
	}
	query := s.psql.Select("user_id", "name", "icon", "type", "created_at").
		From("categories").
		Where(where).
		OrderBy("name", "type")

	cats, err := s.queryCategories(ctx, query)
	if err != nil {
		return nil, customerr.Storage("list categories", err)
	}
	return cats, nil
}

func (s *SQLStorage) queryCategories(ctx context.Context, query sq.SelectBuilder) ([]ledger.Category, error) {
	rows, err := query.RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	res := make([]ledger.Category, 0)
	for rows.Next() {
		var c ledger.Category
		var kind string
		if err = rows.Scan(&c.UserID, &c.Name, &c.Icon, &kind, &c.CreatedAt); err != nil {
			return nil, err
		}
		c.Kind = ledger.Kind(kind)
		res = append(res, c)
	}
	return res, rows.Err()
}

func (s *SQLStorage) CreateCategory(ctx context.Context, cat ledger.Category) error {
	query := s.psql.Insert("categories").
		Columns("user_id", "name", "icon", "type", "created_at").
		Values(cat.UserID, cat.Name, cat.Icon, string(cat.Kind), cat.CreatedAt.UTC()).
		Suffix("ON CONFLICT (user_id, name, type) DO NOTHING")

	res, err := query.RunWith(s.db).ExecContext(ctx)
	if err != nil {
		return customerr.Storage("create category", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return customerr.Storage("create category", err)
	} else if n == 0 {
		return &customerr.ConflictError{Entity: "category", Key: cat.Name}
	}
	return nil
}

func (s *SQLStorage) DeleteCategory(ctx context.Context, userID, name string, kind ledger.Kind) error {
	query := s.psql.Delete("categories").
		Where(sq.Eq{"user_id": userID, "name": name, "type": string(kind)})

	res, err := query.RunWith(s.db).ExecContext(ctx)
	if err != nil {
		return customerr.Storage("delete category", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return customerr.Storage("delete category", err)
	} else if n == 0 {
		return &customerr.NotFoundError{Entity: "category", Key: name}
	}
	return nil
}

// CreateTransaction writes the ledger row and increments both aggregates in one
// SQL transaction. Increments are applied by the database, never read-modify-write.
func (s *SQLStorage) CreateTransaction(ctx context.Context, t ledger.Transaction) error {
	date := t.Date.UTC()
	key := ledger.PeriodOf(date)
	income, expense := ledger.Split(t.Kind, t.Amount)
	incomeValue, expenseValue := s.amount.value(income), s.amount.value(expense)

	return s.inTx(ctx, "create transaction", func(tx *sql.Tx) error {
		_, err := s.psql.Insert("transactions").
			Columns(transactionColumns...).
			Values(t.ID, t.UserID, s.amount.value(t.Amount), string(t.Kind), date, t.Description,
				t.Category, t.CategoryIcon, t.CreatedAt.UTC()).
			RunWith(tx).ExecContext(ctx)
		if err != nil {
			return errors.Wrap(err, "insert transaction")
		}

		_, err = s.psql.Insert("month_history").
			Columns("user_id", "day", "month", "year", "income", "expense").
			Values(t.UserID, key.Day, key.Month, key.Year, incomeValue, expenseValue).
			Suffix(monthUpsertSuffix).
			RunWith(tx).ExecContext(ctx)
		if err != nil {
			return errors.Wrap(err, "upsert month history")
		}

		_, err = s.psql.Insert("year_history").
			Columns("user_id", "month", "year", "income", "expense").
			Values(t.UserID, key.Month, key.Year, incomeValue, expenseValue).
			Suffix(yearUpsertSuffix).
			RunWith(tx).ExecContext(ctx)
		return errors.Wrap(err, "upsert year history")
	})
}

// DeleteTransaction removes the row and takes its amount back out of both
// aggregates in the same SQL transaction. The aggregates are only touched when
// this call actually deleted the row, so a repeated delete cannot subtract twice.
func (s *SQLStorage) DeleteTransaction(ctx context.Context, userID string, id uuid.UUID) (ledger.Transaction, error) {
	var deleted ledger.Transaction

	err := s.inTx(ctx, "delete transaction", func(tx *sql.Tx) error {
		row := s.psql.Delete("transactions").
			Where(sq.Eq{"id": id, "user_id": userID}).
			Suffix("RETURNING " + strings.Join(transactionColumns, ", ")).
			RunWith(tx).QueryRowContext(ctx)

		var err error
		deleted, err = s.scanTransaction(row)
		if errors.Is(err, sql.ErrNoRows) {
			return &customerr.NotFoundError{Entity: "transaction", Key: id.String()}
		}
		if err != nil {
			return errors.Wrap(err, "delete transaction row")
		}

		key := ledger.PeriodOf(deleted.Date)
		income, expense := ledger.Split(deleted.Kind, deleted.Amount)
		incomeValue, expenseValue := s.amount.value(income), s.amount.value(expense)

		_, err = s.psql.Update("month_history").
			Set("income", sq.Expr("income - ?", incomeValue)).
			Set("expense", sq.Expr("expense - ?", expenseValue)).
			Where(sq.Eq{"user_id": userID, "day": key.Day, "month": key.Month, "year": key.Year}).
			RunWith(tx).ExecContext(ctx)
		if err != nil {
			return errors.Wrap(err, "decrement month history")
		}

		_, err = s.psql.Update("year_history").
			Set("income", sq.Expr("income - ?", incomeValue)).
			Set("expense", sq.Expr("expense - ?", expenseValue)).
			Where(sq.Eq{"user_id": userID, "month": key.Month, "year": key.Year}).
			RunWith(tx).ExecContext(ctx)
		return errors.Wrap(err, "decrement year history")
	})
	if err != nil {
		return ledger.Transaction{}, err
	}
	return deleted, nil
}

func (s *SQLStorage) inTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return customerr.Storage(op, err)
	}
	defer func() {
		txErr := tx.Rollback()
		if txErr != nil && !errors.Is(txErr, sql.ErrTxDone) {
			logger.Error("error when transaction rollback", zap.String("op", op), zap.Error(txErr))
		}
	}()

	if err = fn(tx); err != nil {
		if customerr.IsNotFound(err) {
			return err
		}
		return customerr.Storage(op, err)
	}
	return customerr.Storage(op, tx.Commit())
}

func (s *SQLStorage) YearHistory(ctx context.Context, userID string, year int) ([]ledger.YearAggregate, error) {
	query := s.psql.Select("month", "COALESCE(SUM(income), 0)", "COALESCE(SUM(expense), 0)").
		From("year_history").
		Where(sq.Eq{"user_id": userID, "year": year}).
		GroupBy("month").
		OrderBy("month")

	rows, err := query.RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, customerr.Storage("get year history", err)
	}
	defer closeRows(rows)

	res := make([]ledger.YearAggregate, 0)
	for rows.Next() {
		agg := ledger.YearAggregate{UserID: userID, Year: year}
		if err = rows.Scan(&agg.Month, s.amount.dest(&agg.Income), s.amount.dest(&agg.Expense)); err != nil {
			return nil, customerr.Storage("get year history", err)
		}
		res = append(res, agg)
	}
	return res, customerr.Storage("get year history", rows.Err())
}

func (s *SQLStorage) MonthHistory(ctx context.Context, userID string, year, month int) ([]ledger.MonthAggregate, error) {
	query := s.psql.Select("day", "COALESCE(SUM(income), 0)", "COALESCE(SUM(expense), 0)").
		From("month_history").
		Where(sq.Eq{"user_id": userID, "year": year, "month": month}).
		GroupBy("day").
		OrderBy("day")

	rows, err := query.RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, customerr.Storage("get month history", err)
	}
	defer closeRows(rows)

	res := make([]ledger.MonthAggregate, 0)
	for rows.Next() {
		agg := ledger.MonthAggregate{UserID: userID, Year: year, Month: month}
		if err = rows.Scan(&agg.Day, s.amount.dest(&agg.Income), s.amount.dest(&agg.Expense)); err != nil {
			return nil, customerr.Storage("get month history", err)
		}
		res = append(res, agg)
	}
	return res, customerr.Storage("get month history", rows.Err())
}

// HistoryYears skips years whose aggregates went back to zero after deletes.
func (s *SQLStorage) HistoryYears(ctx context.Context, userID string) ([]int, error) {
	query := s.psql.Select("year").
		Distinct().
		From("year_history").
		Where(sq.Eq{"user_id": userID}).
		Where(sq.Or{sq.NotEq{"income": 0}, sq.NotEq{"expense": 0}}).
		OrderBy("year")

	rows, err := query.RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, customerr.Storage("get history years", err)
	}
	defer closeRows(rows)

	res := make([]int, 0)
	for rows.Next() {
		var year int
		if err = rows.Scan(&year); err != nil {
			return nil, customerr.Storage("get history years", err)
		}
		res = append(res, year)
	}
	return res, customerr.Storage("get history years", rows.Err())
}

func (s *SQLStorage) CategoryStats(ctx context.Context, userID string, from, to time.Time) ([]ledger.CategoryStat, error) {
	query := s.psql.Select("category", "category_icon", "type", "SUM(amount) AS total").
		From("transactions").
		Where(sq.Eq{"user_id": userID}).
		Where(sq.GtOrEq{"date": from.UTC()}).
		Where(sq.LtOrEq{"date": to.UTC()}).
		GroupBy("category", "category_icon", "type").
		OrderBy("total DESC", "category")

	rows, err := query.RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, customerr.Storage("get category stats", err)
	}
	defer closeRows(rows)

	res := make([]ledger.CategoryStat, 0)
	for rows.Next() {
		var st ledger.CategoryStat
		var kind string
		if err = rows.Scan(&st.Category, &st.CategoryIcon, &kind, s.amount.dest(&st.Amount)); err != nil {
			return nil, customerr.Storage("get category stats", err)
		}
		st.Kind = ledger.Kind(kind)
		res = append(res, st)
	}
	return res, customerr.Storage("get category stats", rows.Err())
}

func (s *SQLStorage) Balance(ctx context.Context, userID string, from, to time.Time) (ledger.Balance, error) {
	query := s.psql.Select("type", "SUM(amount)").
		From("transactions").
		Where(sq.Eq{"user_id": userID}).
		Where(sq.GtOrEq{"date": from.UTC()}).
		Where(sq.LtOrEq{"date": to.UTC()}).
		GroupBy("type")

	rows, err := query.RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return ledger.Balance{}, customerr.Storage("get balance", err)
	}
	defer closeRows(rows)

	res := ledger.Balance{Income: decimal.Zero, Expense: decimal.Zero}
	for rows.Next() {
		var kind string
		var sum decimal.Decimal
		if err = rows.Scan(&kind, s.amount.dest(&sum)); err != nil {
			return ledger.Balance{}, customerr.Storage("get balance", err)
		}
		switch ledger.Kind(kind) {
		case ledger.Income:
			res.Income = sum
		case ledger.Expense:
			res.Expense = sum
		}
	}
	return res, customerr.Storage("get balance", rows.Err())
}

func (s *SQLStorage) Transactions(ctx context.Context, userID string, from, to time.Time) ([]ledger.Transaction, error) {
	query := s.psql.Select(transactionColumns...).
		From("transactions").
		Where(sq.Eq{"user_id": userID}).
		Where(sq.GtOrEq{"date": from.UTC()}).
		Where(sq.LtOrEq{"date": to.UTC()}).
		OrderBy("date DESC", "created_at DESC")

	res, err := s.scanTransactions(ctx, query.RunWith(s.db))
	if err != nil {
		return nil, customerr.Storage("get transactions", err)
	}
	return res, nil
}

func (s *SQLStorage) scanTransactions(ctx context.Context, query sq.SelectBuilder) ([]ledger.Transaction, error) {
	rows, err := query.QueryContext(ctx)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	res := make([]ledger.Transaction, 0)
	for rows.Next() {
		t, err := s.scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, t)
	}
	return res, rows.Err()
}

func (s *SQLStorage) scanTransaction(row sq.RowScanner) (ledger.Transaction, error) {
	var t ledger.Transaction
	var kind string
	err := row.Scan(&t.ID, &t.UserID, s.amount.dest(&t.Amount), &kind, &t.Date, &t.Description,
		&t.Category, &t.CategoryIcon, &t.CreatedAt)
	if err != nil {
		return ledger.Transaction{}, err
	}
	t.Kind = ledger.Kind(kind)
	t.Date = t.Date.UTC()
	return t, nil
}

func closeRows(rows *sql.Rows) {
	if err := rows.Close(); err != nil {
		logger.Error("error closing rows", zap.Error(err))
	}
}
