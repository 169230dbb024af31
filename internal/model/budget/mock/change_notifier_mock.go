package mock

import (
	"context"
	"sync"
	mm_atomic "sync/atomic"
	"time"

	"github.com/gojuno/minimock/v3"

	"max.ks1230/budget-tracker/internal/entity/ledger"
)

// ChangeNotifierMock implements budget.changeNotifier
type ChangeNotifierMock struct {
	t minimock.Tester

	funcTransactionsChanged          func(ctx context.Context, change ledger.Change) (err error)
	inspectFuncTransactionsChanged   func(ctx context.Context, change ledger.Change)
	afterTransactionsChangedCounter  uint64
	beforeTransactionsChangedCounter uint64
	TransactionsChangedMock          mChangeNotifierMockTransactionsChanged
}

// NewChangeNotifierMock returns a mock for budget.changeNotifier
func NewChangeNotifierMock(t minimock.Tester) *ChangeNotifierMock {
	m := &ChangeNotifierMock{t: t}
	if controller, ok := t.(minimock.MockController); ok {
		controller.RegisterMocker(m)
	}

	m.TransactionsChangedMock = mChangeNotifierMockTransactionsChanged{mock: m}

	return m
}

type mChangeNotifierMockTransactionsChanged struct {
	mock           *ChangeNotifierMock
	defaultResult  *ChangeNotifierMockTransactionsChangedResults
	expectedParams *ChangeNotifierMockTransactionsChangedParams

	mutex    sync.RWMutex
	callArgs []*ChangeNotifierMockTransactionsChangedParams
}

// ChangeNotifierMockTransactionsChangedParams contains parameters of the changeNotifier.TransactionsChanged
type ChangeNotifierMockTransactionsChangedParams struct {
	ctx    context.Context
	change ledger.Change
}

// ChangeNotifierMockTransactionsChangedResults contains results of the changeNotifier.TransactionsChanged
type ChangeNotifierMockTransactionsChangedResults struct {
	err error
}

// Expect sets up expected params for changeNotifier.TransactionsChanged
func (mmTransactionsChanged *mChangeNotifierMockTransactionsChanged) Expect(ctx context.Context, change ledger.Change) *mChangeNotifierMockTransactionsChanged {
	if mmTransactionsChanged.mock.funcTransactionsChanged != nil {
		mmTransactionsChanged.mock.t.Fatalf("ChangeNotifierMock.TransactionsChanged mock is already set by Set")
	}
	mmTransactionsChanged.expectedParams = &ChangeNotifierMockTransactionsChangedParams{ctx, change}
	return mmTransactionsChanged
}

// Inspect accepts an inspector function that has same arguments as the changeNotifier.TransactionsChanged
func (mmTransactionsChanged *mChangeNotifierMockTransactionsChanged) Inspect(f func(ctx context.Context, change ledger.Change)) *mChangeNotifierMockTransactionsChanged {
	if mmTransactionsChanged.mock.inspectFuncTransactionsChanged != nil {
		mmTransactionsChanged.mock.t.Fatalf("Inspect function is already set for ChangeNotifierMock.TransactionsChanged")
	}
	mmTransactionsChanged.mock.inspectFuncTransactionsChanged = f
	return mmTransactionsChanged
}

// Return sets up results that will be returned by changeNotifier.TransactionsChanged
func (mmTransactionsChanged *mChangeNotifierMockTransactionsChanged) Return(err error) *ChangeNotifierMock {
	if mmTransactionsChanged.mock.funcTransactionsChanged != nil {
		mmTransactionsChanged.mock.t.Fatalf("ChangeNotifierMock.TransactionsChanged mock is already set by Set")
	}
	mmTransactionsChanged.defaultResult = &ChangeNotifierMockTransactionsChangedResults{err}
	return mmTransactionsChanged.mock
}

// Set uses given function f to mock the changeNotifier.TransactionsChanged method
func (mmTransactionsChanged *mChangeNotifierMockTransactionsChanged) Set(f func(ctx context.Context, change ledger.Change) (err error)) *ChangeNotifierMock {
	if mmTransactionsChanged.defaultResult != nil {
		mmTransactionsChanged.mock.t.Fatalf("Default expectation is already set for the changeNotifier.TransactionsChanged method")
	}
	mmTransactionsChanged.mock.funcTransactionsChanged = f
	return mmTransactionsChanged.mock
}

// TransactionsChanged implements budget.changeNotifier
func (mmTransactionsChanged *ChangeNotifierMock) TransactionsChanged(ctx context.Context, change ledger.Change) (err error) {
	mm_atomic.AddUint64(&mmTransactionsChanged.beforeTransactionsChangedCounter, 1)
	defer mm_atomic.AddUint64(&mmTransactionsChanged.afterTransactionsChangedCounter, 1)

	if mmTransactionsChanged.inspectFuncTransactionsChanged != nil {
		mmTransactionsChanged.inspectFuncTransactionsChanged(ctx, change)
	}

	params := &ChangeNotifierMockTransactionsChangedParams{ctx, change}

	mmTransactionsChanged.TransactionsChangedMock.mutex.Lock()
	mmTransactionsChanged.TransactionsChangedMock.callArgs = append(mmTransactionsChanged.TransactionsChangedMock.callArgs, params)
	mmTransactionsChanged.TransactionsChangedMock.mutex.Unlock()

	if mmTransactionsChanged.TransactionsChangedMock.defaultResult != nil {
		if want := mmTransactionsChanged.TransactionsChangedMock.expectedParams; want != nil && !minimock.Equal(*want, *params) {
			mmTransactionsChanged.t.Errorf("ChangeNotifierMock.TransactionsChanged got unexpected parameters, want: %#v, got: %#v", *want, *params)
		}
		return mmTransactionsChanged.TransactionsChangedMock.defaultResult.err
	}
	if mmTransactionsChanged.funcTransactionsChanged != nil {
		return mmTransactionsChanged.funcTransactionsChanged(ctx, change)
	}
	mmTransactionsChanged.t.Fatalf("Unexpected call to ChangeNotifierMock.TransactionsChanged. %v %v", ctx, change)
	return
}

// TransactionsChangedAfterCounter returns a count of finished ChangeNotifierMock.TransactionsChanged invocations
func (mmTransactionsChanged *ChangeNotifierMock) TransactionsChangedAfterCounter() uint64 {
	return mm_atomic.LoadUint64(&mmTransactionsChanged.afterTransactionsChangedCounter)
}

// TransactionsChangedBeforeCounter returns a count of ChangeNotifierMock.TransactionsChanged invocations
func (mmTransactionsChanged *ChangeNotifierMock) TransactionsChangedBeforeCounter() uint64 {
	return mm_atomic.LoadUint64(&mmTransactionsChanged.beforeTransactionsChangedCounter)
}

// MinimockTransactionsChangedDone returns true if the count of the TransactionsChanged invocations corresponds
// the number of defined expectations
func (m *ChangeNotifierMock) MinimockTransactionsChangedDone() bool {
	if m.TransactionsChangedMock.defaultResult == nil && m.funcTransactionsChanged == nil {
		return true
	}
	return mm_atomic.LoadUint64(&m.afterTransactionsChangedCounter) > 0
}

// MinimockFinish checks that all mocked methods have been called the expected number of times
func (m *ChangeNotifierMock) MinimockFinish() {
	if !m.MinimockTransactionsChangedDone() {
		m.t.Error("Expected call to ChangeNotifierMock.TransactionsChanged")
	}
}

// MinimockWait waits for all mocked methods to be called the expected number of times
func (m *ChangeNotifierMock) MinimockWait(timeout time.Duration) {
	timeoutCh := time.After(timeout)
	for {
		if m.MinimockTransactionsChangedDone() {
			return
		}
		select {
		case <-timeoutCh:
			m.MinimockFinish()
			return
		case <-time.After(10 * time.Millisecond):
		}
	}
}
