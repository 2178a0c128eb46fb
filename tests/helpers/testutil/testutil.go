// Package testutil provides testing utilities and helpers for backend tests.
package testutil

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/GriffinCanCode/AgentOS/browserdesk/internal/shared/types"
)

// NotificationRecorder collects host notifications in emission order.
type NotificationRecorder struct {
	mu    sync.Mutex
	items []types.Notification
}

// Notify records n.
func (r *NotificationRecorder) Notify(n types.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, n)
}

// All returns a copy of every recorded notification.
func (r *NotificationRecorder) All() []types.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]types.Notification, len(r.items))
	copy(out, r.items)
	return out
}

// OfType returns the recorded notifications of type t.
func (r *NotificationRecorder) OfType(t types.NotificationType) []types.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []types.Notification
	for _, n := range r.items {
		if n.Type == t {
			out = append(out, n)
		}
	}
	return out
}

// Visibility returns the isVisible values emitted for sessionID.
func (r *NotificationRecorder) Visibility(sessionID string) []bool {
	var out []bool
	for _, n := range r.OfType(types.NotifySetVisibility) {
		if n.SessionID == sessionID && n.IsVisible != nil {
			out = append(out, *n.IsVisible)
		}
	}
	return out
}

// Len returns the number of recorded notifications.
func (r *NotificationRecorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

// Reset discards everything recorded so far.
func (r *NotificationRecorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = nil
}

// FakeScheduler is a manual clock for debounced timers. Timers only fire from
// Advance, on the caller's goroutine.
type FakeScheduler struct {
	mu     sync.Mutex
	now    time.Duration
	seq    int
	timers map[int]*fakeTimer
}

type fakeTimer struct {
	at  time.Duration
	seq int
	f   func()
}

// NewFakeScheduler creates a scheduler at time zero.
func NewFakeScheduler() *FakeScheduler {
	return &FakeScheduler{timers: make(map[int]*fakeTimer)}
}

// AfterFunc arms f to run once the clock has advanced by d.
func (s *FakeScheduler) AfterFunc(d time.Duration, f func()) func() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	id := s.seq
	s.timers[id] = &fakeTimer{at: s.now + d, seq: id, f: f}
	return func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		_, ok := s.timers[id]
		delete(s.timers, id)
		return ok
	}
}

// Advance moves the clock forward by d and runs every timer that came due.
func (s *FakeScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	s.now += d
	var due []*fakeTimer
	for id, t := range s.timers {
		if t.at <= s.now {
			due = append(due, t)
			delete(s.timers, id)
		}
	}
	s.mu.Unlock()

	sort.Slice(due, func(i, j int) bool {
		if due[i].at == due[j].at {
			return due[i].seq < due[j].seq
		}
		return due[i].at < due[j].at
	})
	for _, t := range due {
		t.f()
	}
}

// Pending returns the number of armed timers.
func (s *FakeScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// MockView is a mock implementation of tab.View for testing.
type MockView struct {
	mock.Mock
}

// ID mocks the ID method.
func (m *MockView) ID() string {
	return m.Called().String(0)
}

// CanGoBack mocks the CanGoBack method.
func (m *MockView) CanGoBack() bool {
	return m.Called().Bool(0)
}

// CanGoForward mocks the CanGoForward method.
func (m *MockView) CanGoForward() bool {
	return m.Called().Bool(0)
}

// LoadURL mocks the LoadURL method.
func (m *MockView) LoadURL(ctx context.Context, url string) error {
	return m.Called(ctx, url).Error(0)
}

// Reload mocks the Reload method.
func (m *MockView) Reload(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// GoBack mocks the GoBack method.
func (m *MockView) GoBack(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// GoForward mocks the GoForward method.
func (m *MockView) GoForward(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// NewMockView creates a mock view with the given history flags.
func NewMockView(t *testing.T, id string, canBack, canForward bool) *MockView {
	t.Helper()
	m := new(MockView)
	m.On("ID").Return(id).Maybe()
	m.On("CanGoBack").Return(canBack).Maybe()
	m.On("CanGoForward").Return(canForward).Maybe()
	return m
}

// MockAgent is a mock implementation of agent.Agent for testing.
type MockAgent struct {
	mock.Mock
}

// HandleChat mocks the HandleChat method.
func (m *MockAgent) HandleChat(ctx context.Context, req types.ChatRequest) (<-chan types.ChatEvent, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(<-chan types.ChatEvent), args.Error(1)
}

// Cleanup mocks the Cleanup method.
func (m *MockAgent) Cleanup() error {
	return m.Called().Error(0)
}

// UpdateConfig mocks the UpdateConfig method.
func (m *MockAgent) UpdateConfig(cfg types.AgentConfig) {
	m.Called(cfg)
}

// NewMockAgent creates a mock agent whose Cleanup and UpdateConfig succeed.
func NewMockAgent(t *testing.T) *MockAgent {
	t.Helper()
	m := new(MockAgent)
	m.On("Cleanup").Return(nil).Maybe()
	m.On("UpdateConfig", mock.Anything).Return().Maybe()
	return m
}

// ChatStream returns a closed channel pre-filled with events.
func ChatStream(events ...types.ChatEvent) <-chan types.ChatEvent {
	ch := make(chan types.ChatEvent, len(events))
	for _, e := range events {
		ch <- e
	}
	close(ch)
	return ch
}

// MockServiceProvider is a mock implementation of service.Provider for testing.
type MockServiceProvider struct {
	mock.Mock
}

// Definition mocks the Definition method.
func (m *MockServiceProvider) Definition() types.Service {
	args := m.Called()
	return args.Get(0).(types.Service)
}

// Execute mocks the Execute method.
func (m *MockServiceProvider) Execute(ctx context.Context, toolID string, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	args := m.Called(ctx, toolID, params, appCtx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Result), args.Error(1)
}

// NewMockServiceProvider creates a new mock service provider with default behaviors.
func NewMockServiceProvider(t *testing.T, serviceID string) *MockServiceProvider {
	t.Helper()
	m := new(MockServiceProvider)
	m.On("Definition").Return(CreateTestService(t, serviceID, types.CategorySystem)).Maybe()
	return m
}

// CreateTestService creates a test service definition.
func CreateTestService(t *testing.T, id string, category types.Category) types.Service {
	t.Helper()

	return types.Service{
		ID:           id,
		Name:         "Test Service",
		Description:  "A test service for unit testing",
		Category:     category,
		Capabilities: []string{"test"},
		Tools: []types.Tool{
			{
				ID:          id + ".test",
				Name:        "test",
				Description: "Test tool",
				Parameters:  []types.Parameter{},
				Returns:     "object",
			},
		},
	}
}

// AssertSuccess is a helper to assert a successful result.
func AssertSuccess(t *testing.T, result *types.Result) {
	t.Helper()
	if result == nil {
		t.Fatal("Result is nil")
	}
	if !result.Success {
		msg := "<nil>"
		if result.Error != nil {
			msg = *result.Error
		}
		t.Fatalf("Expected success, got error: %s", msg)
	}
}

// AssertError is a helper to assert an error result.
func AssertError(t *testing.T, result *types.Result) {
	t.Helper()
	if result == nil {
		t.Fatal("Result is nil")
	}
	if result.Success {
		t.Fatal("Expected error, got success")
	}
	if result.Error == nil {
		t.Fatal("Expected error message, got nil")
	}
}

// AssertDataField is a helper to assert a data field exists and matches expected value.
func AssertDataField(t *testing.T, result *types.Result, field string, expected interface{}) {
	t.Helper()
	if result == nil || result.Data == nil {
		t.Fatal("Result data is nil")
	}

	actual, ok := result.Data[field]
	if !ok {
		t.Fatalf("Field %s not found in result data", field)
	}

	if actual != expected {
		t.Fatalf("Field %s: expected %v, got %v", field, expected, actual)
	}
}
