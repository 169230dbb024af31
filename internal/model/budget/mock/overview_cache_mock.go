package mock

import (
	"context"
	"sync"
	mm_atomic "sync/atomic"
	"time"

	"github.com/gojuno/minimock/v3"
)

// OverviewCacheMock implements budget.overviewCache
type OverviewCacheMock struct {
	t minimock.Tester

	funcGet          func(ctx context.Context, userID string, key string, dst interface{}) (u1 uint64, b1 bool)
	afterGetCounter  uint64
	beforeGetCounter uint64
	GetMock          mOverviewCacheMockGet

	funcSet          func(ctx context.Context, userID string, key string, generation uint64, value interface{})
	afterSetCounter  uint64
	beforeSetCounter uint64
	SetMock          mOverviewCacheMockSet
}

// NewOverviewCacheMock returns a mock for budget.overviewCache
func NewOverviewCacheMock(t minimock.Tester) *OverviewCacheMock {
	m := &OverviewCacheMock{t: t}
	if controller, ok := t.(minimock.MockController); ok {
		controller.RegisterMocker(m)
	}

	m.GetMock = mOverviewCacheMockGet{mock: m}
	m.SetMock = mOverviewCacheMockSet{mock: m}

	return m
}

type mOverviewCacheMockGet struct {
	mock          *OverviewCacheMock
	defaultResult *OverviewCacheMockGetResults

	mutex    sync.RWMutex
	callKeys []string
}

// OverviewCacheMockGetResults contains results of the overviewCache.Get
type OverviewCacheMockGetResults struct {
	u1 uint64
	b1 bool
}

// Return sets up results that will be returned by overviewCache.Get
func (mmGet *mOverviewCacheMockGet) Return(u1 uint64, b1 bool) *OverviewCacheMock {
	if mmGet.mock.funcGet != nil {
		mmGet.mock.t.Fatalf("OverviewCacheMock.Get mock is already set by Set")
	}
	mmGet.defaultResult = &OverviewCacheMockGetResults{u1: u1, b1: b1}
	return mmGet.mock
}

// Set uses given function f to mock the overviewCache.Get method
func (mmGet *mOverviewCacheMockGet) Set(f func(ctx context.Context, userID string, key string, dst interface{}) (u1 uint64, b1 bool)) *OverviewCacheMock {
	if mmGet.defaultResult != nil {
		mmGet.mock.t.Fatalf("Default expectation is already set for the overviewCache.Get method")
	}
	mmGet.mock.funcGet = f
	return mmGet.mock
}

// Calls returns the keys of all calls that were made to overviewCache.Get
func (mmGet *mOverviewCacheMockGet) Calls() []string {
	mmGet.mutex.RLock()
	defer mmGet.mutex.RUnlock()

	keys := make([]string, len(mmGet.callKeys))
	copy(keys, mmGet.callKeys)
	return keys
}

// Get implements budget.overviewCache
func (mmGet *OverviewCacheMock) Get(ctx context.Context, userID string, key string, dst interface{}) (u1 uint64, b1 bool) {
	mm_atomic.AddUint64(&mmGet.beforeGetCounter, 1)
	defer mm_atomic.AddUint64(&mmGet.afterGetCounter, 1)

	mmGet.GetMock.mutex.Lock()
	mmGet.GetMock.callKeys = append(mmGet.GetMock.callKeys, key)
	mmGet.GetMock.mutex.Unlock()

	if mmGet.GetMock.defaultResult != nil {
		return mmGet.GetMock.defaultResult.u1, mmGet.GetMock.defaultResult.b1
	}
	if mmGet.funcGet != nil {
		return mmGet.funcGet(ctx, userID, key, dst)
	}
	mmGet.t.Fatalf("Unexpected call to OverviewCacheMock.Get. %v %v %v", userID, key, dst)
	return
}

// GetAfterCounter returns a count of finished OverviewCacheMock.Get invocations
func (mmGet *OverviewCacheMock) GetAfterCounter() uint64 {
	return mm_atomic.LoadUint64(&mmGet.afterGetCounter)
}

type mOverviewCacheMockSet struct {
	mock     *OverviewCacheMock
	returned bool

	mutex    sync.RWMutex
	callKeys []string
}

// Return makes overviewCache.Set a no-op
func (mmSet *mOverviewCacheMockSet) Return() *OverviewCacheMock {
	if mmSet.mock.funcSet != nil {
		mmSet.mock.t.Fatalf("OverviewCacheMock.Set mock is already set by Set")
	}
	mmSet.returned = true
	return mmSet.mock
}

// Set uses given function f to mock the overviewCache.Set method
func (mmSet *mOverviewCacheMockSet) Set(f func(ctx context.Context, userID string, key string, generation uint64, value interface{})) *OverviewCacheMock {
	if mmSet.returned {
		mmSet.mock.t.Fatalf("Default expectation is already set for the overviewCache.Set method")
	}
	mmSet.mock.funcSet = f
	return mmSet.mock
}

// Calls returns the keys of all calls that were made to overviewCache.Set
func (mmSet *mOverviewCacheMockSet) Calls() []string {
	mmSet.mutex.RLock()
	defer mmSet.mutex.RUnlock()

	keys := make([]string, len(mmSet.callKeys))
	copy(keys, mmSet.callKeys)
	return keys
}

// Set implements budget.overviewCache
func (mmSet *OverviewCacheMock) Set(ctx context.Context, userID string, key string, generation uint64, value interface{}) {
	mm_atomic.AddUint64(&mmSet.beforeSetCounter, 1)
	defer mm_atomic.AddUint64(&mmSet.afterSetCounter, 1)

	mmSet.SetMock.mutex.Lock()
	mmSet.SetMock.callKeys = append(mmSet.SetMock.callKeys, key)
	mmSet.SetMock.mutex.Unlock()

	if mmSet.SetMock.returned {
		return
	}
	if mmSet.funcSet != nil {
		mmSet.funcSet(ctx, userID, key, generation, value)
		return
	}
	mmSet.t.Fatalf("Unexpected call to OverviewCacheMock.Set. %v %v %v %v", userID, key, generation, value)
}

// SetAfterCounter returns a count of finished OverviewCacheMock.Set invocations
func (mmSet *OverviewCacheMock) SetAfterCounter() uint64 {
	return mm_atomic.LoadUint64(&mmSet.afterSetCounter)
}

// MinimockGetDone returns true if overviewCache.Get was called when it was mocked
func (m *OverviewCacheMock) MinimockGetDone() bool {
	if m.GetMock.defaultResult == nil && m.funcGet == nil {
		return true
	}
	return mm_atomic.LoadUint64(&m.afterGetCounter) > 0
}

// MinimockSetDone returns true if overviewCache.Set was called when it was mocked
func (m *OverviewCacheMock) MinimockSetDone() bool {
	if !m.SetMock.returned && m.funcSet == nil {
		return true
	}
	return mm_atomic.LoadUint64(&m.afterSetCounter) > 0
}

// MinimockFinish checks that all mocked methods have been called the expected number of times
func (m *OverviewCacheMock) MinimockFinish() {
	if !m.MinimockGetDone() {
		m.t.Error("Expected call to OverviewCacheMock.Get")
	}
	if !m.MinimockSetDone() {
		m.t.Error("Expected call to OverviewCacheMock.Set")
	}
}

// MinimockWait waits for all mocked methods to be called the expected number of times
func (m *OverviewCacheMock) MinimockWait(timeout time.Duration) {
	timeoutCh := time.After(timeout)
	for {
		if m.MinimockGetDone() && m.MinimockSetDone() {
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
