package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"max.ks1230/budget-tracker/internal/entity/ledger"
	"max.ks1230/budget-tracker/internal/entity/user"
	"max.ks1230/budget-tracker/internal/model/budget"
	"max.ks1230/budget-tracker/internal/model/storage"
)

type testConfig struct{}

func (testConfig) Addr() string                { return ":0" }
func (testConfig) ReadTimeout() time.Duration  { return time.Second }
func (testConfig) WriteTimeout() time.Duration { return time.Second }
func (testConfig) MaxDateRangeDays() int       { return 90 }
func (testConfig) SignInURL() string           { return "/sign-in" }
func (testConfig) DefaultCurrency() string     { return "USD" }

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func newTestServer(t *testing.T) *Server {
	t.Helper()
	store := storage.NewInMemStorage()
	svc := budget.NewService(testConfig{}, store, nil, nil)
	return NewServer(testConfig{}, testConfig{}, svc, store)
}

func do(s *Server, method, target, userID, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set(userIDHeader, userID)
	}
	rr := httptest.NewRecorder()
	s.Handler.ServeHTTP(rr, req)
	return rr
}

func seedCategories(t *testing.T, s *Server) {
	t.Helper()
	rr := do(s, http.MethodPost, "/api/categories", "alice", `{"name":"Salary","icon":"💰","type":"income"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	rr = do(s, http.MethodPost, "/api/categories", "alice", `{"name":"Food","icon":"🍕","type":"expense"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
}

func Test_OnMissingIdentity_ShouldRedirectToSignIn(t *testing.T) {
	s := newTestServer(t)

	rr := do(s, http.MethodGet, "/api/user-settings", "", "")

	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/sign-in", rr.Header().Get("Location"))
}

func Test_OnHealth_ShouldReflectStorage(t *testing.T) {
	s := newTestServer(t)
	rr := do(s, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rr.Code)

	s.health = stubPinger{err: errors.New("down")}
	rr = do(s, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func Test_OnSettings_ShouldDefaultAndUpdate(t *testing.T) {
	s := newTestServer(t)

	rr := do(s, http.MethodGet, "/api/user-settings", "alice", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var settings user.Settings
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &settings))
	assert.Equal(t, "USD", settings.Currency)

	rr = do(s, http.MethodPut, "/api/user-settings", "alice", `{"currency":"JPY"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &settings))
	assert.Equal(t, "JPY", settings.Currency)

	rr = do(s, http.MethodPut, "/api/user-settings", "alice", `{"currency":"XYZ"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func Test_OnDuplicateCategory_ShouldReturnConflict(t *testing.T) {
	s := newTestServer(t)
	seedCategories(t, s)

	rr := do(s, http.MethodPost, "/api/categories", "alice", `{"name":"Food","icon":"🍔","type":"expense"}`)
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = do(s, http.MethodGet, "/api/categories?type=expense", "alice", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var cats []ledger.Category
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &cats))
	require.Len(t, cats, 1)
	assert.Equal(t, "🍕", cats[0].Icon)
}

func Test_OnDeleteCategory_ShouldRemoveItOnce(t *testing.T) {
	s := newTestServer(t)
	seedCategories(t, s)

	rr := do(s, http.MethodDelete, "/api/categories?name=Food&type=expense", "alice", "")
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = do(s, http.MethodDelete, "/api/categories?name=Food&type=expense", "alice", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func Test_OnTransactionWithUnknownCategory_ShouldReturnNotFound(t *testing.T) {
	s := newTestServer(t)

	rr := do(s, http.MethodPost, "/api/transactions", "alice",
		`{"amount":"10","type":"expense","date":"2024-01-10","category":"Food"}`)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func Test_OnInvalidTransaction_ShouldReturnBadRequest(t *testing.T) {
	s := newTestServer(t)
	seedCategories(t, s)

	for _, body := range []string{
		`{"amount":"-1","type":"expense","date":"2024-01-10","category":"Food"}`,
		`{"amount":"1","type":"gift","date":"2024-01-10","category":"Food"}`,
		`{"amount":"1","type":"expense","date":"10/01/2024","category":"Food"}`,
		`{"amount":"1","type":"expense","category":"Food"}`,
		`{"amount":"1","type":"expense","date":"2024-01-10","category":"Food","extra":true}`,
		`not json`,
	} {
		rr := do(s, http.MethodPost, "/api/transactions", "alice", body)
		assert.Equal(t, http.StatusBadRequest, rr.Code, body)
	}
}

func Test_OnJanuaryTransactions_ShouldReturnBalanceAndHistory(t *testing.T) {
	s := newTestServer(t)
	seedCategories(t, s)

	rr := do(s, http.MethodPost, "/api/transactions", "alice",
		`{"amount":200,"type":"income","date":"2024-01-05","category":"Salary","description":"pay"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	rr = do(s, http.MethodPost, "/api/transactions", "alice",
		`{"amount":"80","type":"expense","date":"2024-01-31T18:00:00Z","category":"Food"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = do(s, http.MethodGet, "/api/stats/balance?from=2024-01-01&to=2024-01-31", "alice", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var balance ledger.Balance
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &balance))
	assert.True(t, balance.Income.Equal(decimal.NewFromInt(200)))
	assert.True(t, balance.Expense.Equal(decimal.NewFromInt(80)))

	rr = do(s, http.MethodGet, "/api/transaction-history?from=2024-01-01&to=2024-01-31", "alice", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var history []ledger.HistoryTransaction
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &history))
	require.Len(t, history, 2)
	assert.Equal(t, "Food", history[0].Category)
	assert.NotEmpty(t, history[0].FormattedAmount)

	rr = do(s, http.MethodGet, "/api/stats/categories?from=2024-01-01&to=2024-01-31", "alice", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var stats []ledger.CategoryStat
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &stats))
	require.Len(t, stats, 2)
	assert.Equal(t, "Salary", stats[0].Category)

	rr = do(s, http.MethodGet, "/api/stats/balance?from=2024-01-01&to=2024-01-31", "bob", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &balance))
	assert.True(t, balance.Income.IsZero())
}

func Test_OnBadRange_ShouldReturnBadRequest(t *testing.T) {
	s := newTestServer(t)

	for _, target := range []string{
		"/api/stats/balance?from=2024-02-01&to=2024-01-01",
		"/api/stats/balance?from=2024-01-01&to=2024-12-31",
		"/api/stats/balance?from=2024-01-01",
		"/api/stats/categories?from=yesterday&to=2024-01-01",
		"/api/transaction-history?from=2024-01-01&to=tomorrow",
	} {
		rr := do(s, http.MethodGet, target, "alice", "")
		assert.Equal(t, http.StatusBadRequest, rr.Code, target)
	}
}

func Test_OnDeleteTransaction_ShouldRevertHistoryAndRejectRepeats(t *testing.T) {
	s := newTestServer(t)
	seedCategories(t, s)

	rr := do(s, http.MethodPost, "/api/transactions", "alice",
		`{"amount":"50","type":"expense","date":"2024-03-15","category":"Food"}`)
	require.Equal(t, http.StatusCreated, rr.Code)
	var created ledger.Transaction
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))

	rr = do(s, http.MethodDelete, "/api/transactions/"+created.ID.String(), "bob", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = do(s, http.MethodDelete, "/api/transactions/"+created.ID.String(), "alice", "")
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = do(s, http.MethodDelete, "/api/transactions/"+created.ID.String(), "alice", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = do(s, http.MethodDelete, "/api/transactions/not-a-uuid", "alice", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(s, http.MethodGet, "/api/history-data?timeFrame=month&year=2024&month=2", "alice", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var points []ledger.HistoryPoint
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &points))
	require.Len(t, points, 31)
	assert.True(t, points[14].Expense.IsZero())
}

func Test_OnHistoryData_ShouldValidateAndShapeSeries(t *testing.T) {
	s := newTestServer(t)

	rr := do(s, http.MethodGet, "/api/history-data?timeFrame=year&year=2024", "alice", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var points []ledger.HistoryPoint
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &points))
	assert.Len(t, points, 12)

	rr = do(s, http.MethodGet, "/api/history-data?timeFrame=month&year=2024&month=1", "alice", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &points))
	assert.Len(t, points, 29)

	for _, target := range []string{
		"/api/history-data?timeFrame=week&year=2024",
		"/api/history-data?timeFrame=year&year=1999",
		"/api/history-data?timeFrame=month&year=2024&month=12",
		"/api/history-data?timeFrame=month&year=2024",
	} {
		rr = do(s, http.MethodGet, target, "alice", "")
		assert.Equal(t, http.StatusBadRequest, rr.Code, target)
	}
}

func Test_OnHistoryPeriods_ShouldListYearsWithData(t *testing.T) {
	s := newTestServer(t)
	seedCategories(t, s)

	rr := do(s, http.MethodPost, "/api/transactions", "alice",
		`{"amount":"5","type":"expense","date":"2023-06-01","category":"Food"}`)
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = do(s, http.MethodGet, "/api/history-periods", "alice", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var years []int
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &years))
	assert.Equal(t, []int{2023}, years)
}

func Test_OnParseTime_ShouldExtendBareEndDate(t *testing.T) {
	to, err := parseTime("2024-01-31", true)
	require.NoError(t, err)
	assert.Equal(t, 23, to.Hour())
	assert.Equal(t, 31, to.Day())

	from, err := parseTime("2024-01-01T10:00:00+02:00", false)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.January, 1, 8, 0, 0, 0, time.UTC), from)
}
