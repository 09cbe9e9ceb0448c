package shutdown

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/core-tools/hsu-companion-go/pkg/processregistry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockLogger is a mock implementation of Logger for testing
type MockLogger struct {
	mock.Mock
}

func (m *MockLogger) LogLevelf(level int, format string, args ...interface{}) {
	m.Called(format, args)
}

func (m *MockLogger) Debugf(format string, args ...interface{}) {
	m.Called(format, args)
}

func (m *MockLogger) Infof(format string, args ...interface{}) {
	m.Called(format, args)
}

func (m *MockLogger) Warnf(format string, args ...interface{}) {
	m.Called(format, args)
}

func (m *MockLogger) Errorf(format string, args ...interface{}) {
	m.Called(format, args)
}

func newMockLogger() *MockLogger {
	logger := &MockLogger{}
	logger.On("Debugf", mock.Anything, mock.Anything).Maybe()
	logger.On("Infof", mock.Anything, mock.Anything).Maybe()
	logger.On("Warnf", mock.Anything, mock.Anything).Maybe()
	logger.On("Errorf", mock.Anything, mock.Anything).Maybe()
	return logger
}

// countingHandle counts kill signals instead of signalling a real process
type countingHandle struct {
	pid     int
	kills   int32
	killErr error
}

func (h *countingHandle) ID() string { return "companion-test" }
func (h *countingHandle) PID() int   { return h.pid }
func (h *countingHandle) Kill() error {
	atomic.AddInt32(&h.kills, 1)
	return h.killErr
}

func (h *countingHandle) Kills() int {
	return int(atomic.LoadInt32(&h.kills))
}

// waitingHandle confirms exit once exited is closed
type waitingHandle struct {
	countingHandle
	exited chan struct{}
}

func (h *waitingHandle) Wait(ctx context.Context) error {
	select {
	case <-h.exited:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// recordingCollector captures termination outcomes
type recordingCollector struct {
	mutex    sync.Mutex
	outcomes []string
	up       []bool
}

func (c *recordingCollector) PathResolution(mode string, err error)           {}
func (c *recordingCollector) LaunchAttempt(duration time.Duration, err error) {}
func (c *recordingCollector) LifecycleTransition(from, to string)             {}
func (c *recordingCollector) Termination(outcome string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.outcomes = append(c.outcomes, outcome)
}
func (c *recordingCollector) CompanionUp(up bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.up = append(c.up, up)
}

func newStoredRegistry(t *testing.T, handle processregistry.ProcessHandle) *processregistry.Registry {
	registry := processregistry.NewRegistry(newMockLogger())
	require.NoError(t, registry.Store(handle))
	return registry
}

func TestTrigger_KillsExactlyOnce(t *testing.T) {
	handle := &countingHandle{pid: 1234}
	collector := &recordingCollector{}
	trigger := NewTrigger(newStoredRegistry(t, handle), Config{}, collector, newMockLogger())

	assert.Equal(t, OutcomeTerminated, trigger.Fire(context.Background()))
	assert.Equal(t, 1, handle.Kills())

	assert.Equal(t, OutcomeNoHandle, trigger.Fire(context.Background()))
	assert.Equal(t, 1, handle.Kills(), "duplicate destroy event must not signal again")

	assert.Equal(t, []string{"terminated", "no_handle"}, collector.outcomes)
	assert.Equal(t, []bool{false}, collector.up)
}

func TestTrigger_NoHandleStored(t *testing.T) {
	logger := newMockLogger()
	trigger := NewTrigger(newStoredRegistry(t, nil), Config{}, nil, logger)

	assert.Equal(t, OutcomeNoHandle, trigger.Fire(context.Background()))
	logger.AssertNotCalled(t, "Warnf", mock.Anything, mock.Anything)
	logger.AssertNotCalled(t, "Errorf", mock.Anything, mock.Anything)
}

func TestTrigger_KillFailureIsDiscarded(t *testing.T) {
	handle := &countingHandle{pid: 77, killErr: os.ErrProcessDone}
	trigger := NewTrigger(newStoredRegistry(t, handle), Config{}, nil, newMockLogger())

	var outcome Outcome
	require.NotPanics(t, func() { outcome = trigger.Fire(context.Background()) })
	assert.Equal(t, OutcomeTerminateFailed, outcome)

	assert.Equal(t, OutcomeNoHandle, trigger.Fire(context.Background()))
	assert.Equal(t, 1, handle.Kills())
}

func TestTrigger_ConcurrentFire(t *testing.T) {
	handle := &countingHandle{pid: 4321}
	trigger := NewTrigger(newStoredRegistry(t, handle), Config{}, nil, newMockLogger())

	const windows = 16
	var terminated int32
	var wg sync.WaitGroup
	for i := 0; i < windows; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if trigger.Fire(context.Background()) == OutcomeTerminated {
				atomic.AddInt32(&terminated, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), terminated)
	assert.Equal(t, 1, handle.Kills())
}

func TestTrigger_ExitWaitConfirmed(t *testing.T) {
	handle := &waitingHandle{countingHandle: countingHandle{pid: 55}, exited: make(chan struct{})}
	close(handle.exited)

	logger := newMockLogger()
	trigger := NewTrigger(newStoredRegistry(t, handle), Config{ExitWaitTimeout: time.Second}, nil, logger)

	assert.Equal(t, OutcomeTerminated, trigger.Fire(context.Background()))
	logger.AssertCalled(t, "Infof", "Companion process exit confirmed, PID: %d", []interface{}{55})
}

func TestTrigger_ExitWaitIsBounded(t *testing.T) {
	handle := &waitingHandle{countingHandle: countingHandle{pid: 56}, exited: make(chan struct{})}

	logger := newMockLogger()
	trigger := NewTrigger(newStoredRegistry(t, handle), Config{ExitWaitTimeout: 20 * time.Millisecond}, nil, logger)

	started := time.Now()
	assert.Equal(t, OutcomeTerminated, trigger.Fire(context.Background()))
	assert.Less(t, time.Since(started), 2*time.Second)
	logger.AssertCalled(t, "Warnf", "Companion process exit not confirmed within %v, PID: %d, error: %v",
		[]interface{}{20 * time.Millisecond, 56, context.DeadlineExceeded})
}

func TestTrigger_NoWaitByDefault(t *testing.T) {
	handle := &waitingHandle{countingHandle: countingHandle{pid: 57}, exited: make(chan struct{})}
	trigger := NewTrigger(newStoredRegistry(t, handle), Config{}, nil, newMockLogger())

	done := make(chan Outcome, 1)
	go func() { done <- trigger.Fire(context.Background()) }()

	select {
	case outcome := <-done:
		assert.Equal(t, OutcomeTerminated, outcome)
	case <-time.After(2 * time.Second):
		t.Fatal("Fire must not wait for exit when no timeout is configured")
	}
}

func TestTrigger_WorksWithAnySlot(t *testing.T) {
	handle := &countingHandle{pid: 9}
	slot := &onceSlot{handle: handle}
	trigger := NewTrigger(slot, Config{}, nil, newMockLogger())

	assert.Equal(t, OutcomeTerminated, trigger.Fire(context.Background()))
	assert.Equal(t, OutcomeNoHandle, trigger.Fire(context.Background()))
}

type onceSlot struct {
	mutex  sync.Mutex
	handle processregistry.ProcessHandle
}

func (s *onceSlot) Take() (processregistry.ProcessHandle, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.handle == nil {
		return nil, false
	}
	h := s.handle
	s.handle = nil
	return h, true
}

// panickingHandle fails every call the way a broken handle implementation would
type panickingHandle struct{}

func (h *panickingHandle) ID() string  { panic("id unavailable") }
func (h *panickingHandle) PID() int    { panic("pid unavailable") }
func (h *panickingHandle) Kill() error { panic("kill unavailable") }

func TestTrigger_PanickingHandleIsDropped(t *testing.T) {
	collector := &recordingCollector{}
	trigger := NewTrigger(newStoredRegistry(t, &panickingHandle{}), Config{}, collector, newMockLogger())

	var outcome Outcome
	assert.NotPanics(t, func() { outcome = trigger.Fire(context.Background()) })
	assert.Equal(t, OutcomeTerminateFailed, outcome)
	assert.Equal(t, OutcomeNoHandle, trigger.Fire(context.Background()))
	assert.Equal(t, []string{string(OutcomeTerminateFailed), string(OutcomeNoHandle)}, collector.outcomes)
}
