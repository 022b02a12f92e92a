package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/AgentOS/desktop/internal/domain/events"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/domain/window"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/infrastructure/store"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/shared/types"
	th "github.com/GriffinCanCode/AgentOS/desktop/tests/helpers/testutil"
)

func TestRememberPath(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newTestManager(t)

	require.NoError(t, m.RememberPath(ctx, types.AppFiles, "/files/docs"))

	hint, ok, err := m.Hint(ctx, types.AppFiles)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "/files/docs", hint.InitialPath)
	assert.False(t, hint.IsOpen)

	_, ok, err = m.Hint(ctx, types.AppBrowser)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRecordHintsFollowsState(t *testing.T) {
	ctx := context.Background()
	m, reg, _ := newTestManager(t)

	a, _ := reg.Create(types.AppNotes, nil)
	reg.UpdateGeometry(a, &types.Position{X: 5, Y: 5}, &types.Size{Width: 640, Height: 480})
	b, _ := reg.Create(types.AppTerminal, nil)
	reg.Minimize(b)

	require.NoError(t, m.RecordHints(ctx, reg.Snapshot()))

	hints, err := m.Hints(ctx)
	require.NoError(t, err)
	require.Len(t, hints, 2)
	assert.Equal(t, types.AppNotes, hints[0].AppID)
	assert.True(t, hints[0].IsOpen)
	assert.False(t, hints[0].IsMinimized)
	assert.Equal(t, &types.Size{Width: 640, Height: 480}, hints[0].Size)
	assert.Equal(t, types.AppTerminal, hints[1].AppID)
	assert.True(t, hints[1].IsMinimized)

	reg.Close(a)
	require.NoError(t, m.RecordHints(ctx, reg.Snapshot()))

	hint, ok, err := m.Hint(ctx, types.AppNotes)
	require.NoError(t, err)
	require.True(t, ok)
	assert.False(t, hint.IsOpen)
	assert.Equal(t, &types.Position{X: 5, Y: 5}, hint.Position, "closed apps keep their last geometry")
}

func TestRecordHintsKeepsPath(t *testing.T) {
	ctx := context.Background()
	m, reg, _ := newTestManager(t)

	require.NoError(t, m.RememberPath(ctx, types.AppFiles, "/files/home"))
	reg.Create(types.AppFiles, nil)
	require.NoError(t, m.RecordHints(ctx, reg.Snapshot()))

	hint, _, err := m.Hint(ctx, types.AppFiles)
	require.NoError(t, err)
	assert.Equal(t, "/files/home", hint.InitialPath)
	assert.True(t, hint.IsOpen)
}

func TestHandleStateChanged(t *testing.T) {
	ctx := context.Background()
	m, reg, _ := newTestManager(t)

	bus := events.NewBus(events.DefaultConfig(), nil)
	t.Cleanup(bus.Close)
	bus.Subscribe(events.ChannelStateChanged, m.HandleStateChanged(ctx))

	reg.Create(types.AppCalculator, nil)
	bus.Emit(events.ChannelStateChanged, reg.Snapshot())
	bus.Emit(events.ChannelStateChanged, "ignored")
	th.FlushBus(t, bus)

	hint, ok, err := m.Hint(ctx, types.AppCalculator)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, hint.IsOpen)
}

type flakyStore struct {
	*store.Store
	writes int
}

func (f *flakyStore) PutState(context.Context, string, []byte) error {
	f.writes++
	return errors.New("database is locked")
}

func TestRecordHintsStopsWritingWhenStoreFails(t *testing.T) {
	ctx := context.Background()
	reg := window.New(nil, window.WithIDGenerator(th.SequentialIDs()), window.WithClock(th.FixedClock()))
	flaky := &flakyStore{Store: th.OpenStore(t)}
	m, err := NewManager(reg, flaky, nil)
	require.NoError(t, err)
	t.Cleanup(m.Close)
	m.WithBreaker(resilience.New("hints", resilience.Settings{FailureThreshold: 2, Cooldown: time.Hour}))

	a, _ := reg.Create(types.AppNotes, nil)
	assert.Error(t, m.RecordHints(ctx, reg.Snapshot()))
	reg.UpdateGeometry(a, &types.Position{X: 1, Y: 1}, nil)
	assert.Error(t, m.RecordHints(ctx, reg.Snapshot()))
	require.Equal(t, 2, flaky.writes)

	reg.UpdateGeometry(a, &types.Position{X: 2, Y: 2}, nil)
	err = m.RecordHints(ctx, reg.Snapshot())
	assert.ErrorIs(t, err, resilience.ErrOpen)
	assert.Equal(t, 2, flaky.writes, "open breaker skips the store")
}
