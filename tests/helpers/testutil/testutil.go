// Package testutil provides testing utilities and helpers for desktop tests.
package testutil

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/GriffinCanCode/AgentOS/desktop/internal/domain/events"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/infrastructure/store"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/shared/types"
)

// MockNotifier is a mock implementation of the launch notifier for testing.
type MockNotifier struct {
	mock.Mock
}

// Emit mocks the Emit method.
func (m *MockNotifier) Emit(channel events.Channel, payload any) {
	m.Called(channel, payload)
}

// NewMockNotifier creates a mock notifier that accepts any emission.
func NewMockNotifier(t *testing.T) *MockNotifier {
	t.Helper()
	m := new(MockNotifier)
	m.On("Emit", mock.Anything, mock.Anything).Maybe()
	return m
}

// MockPathRecorder is a mock implementation of the path hint recorder.
type MockPathRecorder struct {
	mock.Mock
}

// RememberPath mocks the RememberPath method.
func (m *MockPathRecorder) RememberPath(ctx context.Context, appID types.AppID, path string) error {
	args := m.Called(ctx, appID, path)
	return args.Error(0)
}

// NewMockPathRecorder creates a recorder that succeeds for any path.
func NewMockPathRecorder(t *testing.T) *MockPathRecorder {
	t.Helper()
	m := new(MockPathRecorder)
	m.On("RememberPath", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	return m
}

// SequentialIDs returns an id generator yielding I1, I2, ...
func SequentialIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("I%d", n)
	}
}

// FixedClock returns a clock frozen at a known instant.
func FixedClock() func() time.Time {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return at }
}

// FlushBus waits until every queued delivery on bus has run.
func FlushBus(t *testing.T, bus *events.Bus) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := bus.Flush(ctx); err != nil {
		t.Fatalf("flush event bus: %v", err)
	}
}

// AssertOrder fails unless snapshot's stacking order equals expected.
func AssertOrder(t *testing.T, snapshot types.Snapshot, expected ...string) {
	t.Helper()
	if len(snapshot.InstanceOrder) != len(expected) {
		t.Fatalf("order: expected %v, got %v", expected, snapshot.InstanceOrder)
	}
	for i := range expected {
		if snapshot.InstanceOrder[i] != expected[i] {
			t.Fatalf("order: expected %v, got %v", expected, snapshot.InstanceOrder)
		}
	}
}

// AssertForeground fails unless instanceID is the single foreground instance.
func AssertForeground(t *testing.T, snapshot types.Snapshot, instanceID string) {
	t.Helper()
	for id, inst := range snapshot.Instances {
		if inst.IsForeground != (id == instanceID) {
			t.Fatalf("foreground: expected %s, instance %s has isForeground=%v", instanceID, id, inst.IsForeground)
		}
	}
	if _, ok := snapshot.Instances[instanceID]; !ok {
		t.Fatalf("foreground: instance %s not in snapshot", instanceID)
	}
}

// OpenStore opens an in-memory store closed automatically at test cleanup.
func OpenStore(t testing.TB) *store.Store {
	t.Helper()
	s, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("testutil.OpenStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}
