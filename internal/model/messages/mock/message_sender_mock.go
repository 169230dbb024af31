package mock

import (
	"sync"
	mm_atomic "sync/atomic"
	"time"

	"github.com/gojuno/minimock/v3"
)

// MessageSenderMock implements messages.messageSender
type MessageSenderMock struct {
	t minimock.Tester

	funcSendMessage          func(text string, userID int64) (err error)
	inspectFuncSendMessage   func(text string, userID int64)
	afterSendMessageCounter  uint64
	beforeSendMessageCounter uint64
	SendMessageMock          mMessageSenderMockSendMessage
}

// NewMessageSenderMock returns a mock for messages.messageSender
func NewMessageSenderMock(t minimock.Tester) *MessageSenderMock {
	m := &MessageSenderMock{t: t}
	if controller, ok := t.(minimock.MockController); ok {
		controller.RegisterMocker(m)
	}

	m.SendMessageMock = mMessageSenderMockSendMessage{mock: m}

	return m
}

type mMessageSenderMockSendMessage struct {
	mock           *MessageSenderMock
	defaultResult  *MessageSenderMockSendMessageResults
	expectedParams *MessageSenderMockSendMessageParams

	mutex    sync.RWMutex
	callArgs []*MessageSenderMockSendMessageParams
}

// MessageSenderMockSendMessageParams contains parameters of the messageSender.SendMessage
type MessageSenderMockSendMessageParams struct {
	text   string
	userID int64
}

// MessageSenderMockSendMessageResults contains results of the messageSender.SendMessage
type MessageSenderMockSendMessageResults struct {
	err error
}

// Expect sets up expected params for messageSender.SendMessage
func (mmSendMessage *mMessageSenderMockSendMessage) Expect(text string, userID int64) *mMessageSenderMockSendMessage {
	if mmSendMessage.mock.funcSendMessage != nil {
		mmSendMessage.mock.t.Fatalf("MessageSenderMock.SendMessage mock is already set by Set")
	}
	mmSendMessage.expectedParams = &MessageSenderMockSendMessageParams{text, userID}
	return mmSendMessage
}

// Inspect accepts an inspector function that has same arguments as the messageSender.SendMessage
func (mmSendMessage *mMessageSenderMockSendMessage) Inspect(f func(text string, userID int64)) *mMessageSenderMockSendMessage {
	if mmSendMessage.mock.inspectFuncSendMessage != nil {
		mmSendMessage.mock.t.Fatalf("Inspect function is already set for MessageSenderMock.SendMessage")
	}
	mmSendMessage.mock.inspectFuncSendMessage = f
	return mmSendMessage
}

// Return sets up results that will be returned by messageSender.SendMessage
func (mmSendMessage *mMessageSenderMockSendMessage) Return(err error) *MessageSenderMock {
	if mmSendMessage.mock.funcSendMessage != nil {
		mmSendMessage.mock.t.Fatalf("MessageSenderMock.SendMessage mock is already set by Set")
	}
	mmSendMessage.defaultResult = &MessageSenderMockSendMessageResults{err}
	return mmSendMessage.mock
}

// Set uses given function f to mock the messageSender.SendMessage method
func (mmSendMessage *mMessageSenderMockSendMessage) Set(f func(text string, userID int64) (err error)) *MessageSenderMock {
	if mmSendMessage.defaultResult != nil {
		mmSendMessage.mock.t.Fatalf("Default expectation is already set for the messageSender.SendMessage method")
	}
	mmSendMessage.mock.funcSendMessage = f
	return mmSendMessage.mock
}

// SendMessage implements messages.messageSender
func (mmSendMessage *MessageSenderMock) SendMessage(text string, userID int64) (err error) {
	mm_atomic.AddUint64(&mmSendMessage.beforeSendMessageCounter, 1)
	defer mm_atomic.AddUint64(&mmSendMessage.afterSendMessageCounter, 1)

	if mmSendMessage.inspectFuncSendMessage != nil {
		mmSendMessage.inspectFuncSendMessage(text, userID)
	}

	params := &MessageSenderMockSendMessageParams{text, userID}

	mmSendMessage.SendMessageMock.mutex.Lock()
	mmSendMessage.SendMessageMock.callArgs = append(mmSendMessage.SendMessageMock.callArgs, params)
	mmSendMessage.SendMessageMock.mutex.Unlock()

	if mmSendMessage.SendMessageMock.defaultResult != nil {
		if want := mmSendMessage.SendMessageMock.expectedParams; want != nil && !minimock.Equal(*want, *params) {
			mmSendMessage.t.Errorf("MessageSenderMock.SendMessage got unexpected parameters, want: %#v, got: %#v", *want, *params)
		}
		return mmSendMessage.SendMessageMock.defaultResult.err
	}
	if mmSendMessage.funcSendMessage != nil {
		return mmSendMessage.funcSendMessage(text, userID)
	}
	mmSendMessage.t.Fatalf("Unexpected call to MessageSenderMock.SendMessage. %v %v", text, userID)
	return
}

// SendMessageAfterCounter returns a count of finished MessageSenderMock.SendMessage invocations
func (mmSendMessage *MessageSenderMock) SendMessageAfterCounter() uint64 {
	return mm_atomic.LoadUint64(&mmSendMessage.afterSendMessageCounter)
}

// SendMessageBeforeCounter returns a count of MessageSenderMock.SendMessage invocations
func (mmSendMessage *MessageSenderMock) SendMessageBeforeCounter() uint64 {
	return mm_atomic.LoadUint64(&mmSendMessage.beforeSendMessageCounter)
}

// MinimockSendMessageDone returns true if the count of the SendMessage invocations corresponds
// the number of defined expectations
func (m *MessageSenderMock) MinimockSendMessageDone() bool {
	if m.SendMessageMock.defaultResult == nil && m.funcSendMessage == nil {
		return true
	}
	return mm_atomic.LoadUint64(&m.afterSendMessageCounter) > 0
}

// MinimockFinish checks that all mocked methods have been called the expected number of times
func (m *MessageSenderMock) MinimockFinish() {
	if !m.MinimockSendMessageDone() {
		m.t.Error("Expected call to MessageSenderMock.SendMessage")
	}
}

// MinimockWait waits for all mocked methods to be called the expected number of times
func (m *MessageSenderMock) MinimockWait(timeout time.Duration) {
	timeoutCh := time.After(timeout)
	for {
		if m.MinimockSendMessageDone() {
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
