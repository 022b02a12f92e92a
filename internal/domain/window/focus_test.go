package window

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/AgentOS/desktop/internal/shared/types"
)

func TestBringToForegroundMovesToTop(t *testing.T) {
	r := newTestRegistry()

	a := mustCreate(t, r, types.AppBookmarks)
	b := mustCreate(t, r, types.AppNotes)

	require.True(t, r.BringToForeground(a))

	assert.Equal(t, []string{b, a}, r.Snapshot().InstanceOrder)
	instA, _ := r.Get(a)
	instB, _ := r.Get(b)
	assert.True(t, instA.IsForeground)
	assert.False(t, instB.IsForeground)
}

func TestBringToForegroundIsIdempotent(t *testing.T) {
	r := newTestRegistry()

	a := mustCreate(t, r, types.AppBookmarks)
	mustCreate(t, r, types.AppNotes)
	r.BringToForeground(a)
	before := r.Snapshot()

	assert.False(t, r.BringToForeground(a))
	assert.Equal(t, before, r.Snapshot(), "no reorder or version bump when already foreground")
}

func TestBringToForegroundUnminimizes(t *testing.T) {
	r := newTestRegistry()

	a := mustCreate(t, r, types.AppBookmarks)
	mustCreate(t, r, types.AppNotes)
	r.Minimize(a)

	require.True(t, r.BringToForeground(a))
	inst, _ := r.Get(a)
	assert.False(t, inst.IsMinimized)
	assert.True(t, inst.IsForeground)
}

func TestBringToForegroundMissing(t *testing.T) {
	r := newTestRegistry()
	assert.False(t, r.BringToForeground("missing"))
}

func TestZIndexOf(t *testing.T) {
	r := newTestRegistry()

	a := mustCreate(t, r, types.AppBookmarks)
	b := mustCreate(t, r, types.AppNotes)
	c := mustCreate(t, r, types.AppSettings)
	r.BringToForeground(a)

	za, _ := r.ZIndexOf(a)
	zb, _ := r.ZIndexOf(b)
	zc, _ := r.ZIndexOf(c)
	assert.Equal(t, 3, za)
	assert.Equal(t, 1, zb)
	assert.Equal(t, 2, zc)

	_, ok := r.ZIndexOf("missing")
	assert.False(t, ok)
}

func TestNavigateSingleInstanceIsNoop(t *testing.T) {
	r := newTestRegistry()

	a := mustCreate(t, r, types.AppNotes)
	mustCreate(t, r, types.AppBookmarks)
	before := r.Snapshot()

	target, changed := r.NavigateNext(a)
	assert.Equal(t, a, target)
	assert.False(t, changed)
	assert.Equal(t, before, r.Snapshot())
}

func TestNavigateNextCycles(t *testing.T) {
	r := newTestRegistry()

	a := mustCreate(t, r, types.AppNotes)
	b := mustCreate(t, r, types.AppNotes)

	target, changed := r.NavigateNext(b)
	require.True(t, changed)
	assert.Equal(t, a, target, "wraps from the newest to the oldest")

	target, changed = r.NavigateNext(target)
	require.True(t, changed)
	assert.Equal(t, b, target, "cycle returns to the start")

	fg, _ := r.Foreground()
	assert.Equal(t, b, fg.InstanceID)
}

func TestNavigateSkipsOtherApps(t *testing.T) {
	r := newTestRegistry()

	a := mustCreate(t, r, types.AppNotes)
	mustCreate(t, r, types.AppBookmarks)
	c := mustCreate(t, r, types.AppNotes)
	mustCreate(t, r, types.AppTerminal)

	target, _ := r.NavigateNext(a)
	assert.Equal(t, c, target)

	target, _ = r.NavigatePrevious(a)
	assert.Equal(t, c, target)
}

func TestNavigatePreviousOrder(t *testing.T) {
	r := newTestRegistry()

	a := mustCreate(t, r, types.AppTerminal)
	b := mustCreate(t, r, types.AppTerminal)
	c := mustCreate(t, r, types.AppTerminal)

	var visited []string
	cur := a
	for i := 0; i < 3; i++ {
		cur, _ = r.NavigatePrevious(cur)
		visited = append(visited, cur)
	}
	assert.Equal(t, []string{c, b, a}, visited)
}

func TestNavigateUsesCreatedAtBeforeSequence(t *testing.T) {
	times := []time.Time{
		time.Date(2024, 1, 1, 0, 0, 2, 0, time.UTC),
		time.Date(2024, 1, 1, 0, 0, 1, 0, time.UTC),
	}
	i := 0
	r := newTestRegistry(WithClock(func() time.Time {
		ts := times[i%len(times)]
		i++
		return ts
	}))

	later := mustCreate(t, r, types.AppNotes)   // created at :02
	earlier := mustCreate(t, r, types.AppNotes) // created at :01

	sibs := r.InstancesOf(types.AppNotes)
	require.Len(t, sibs, 2)
	assert.Equal(t, earlier, sibs[0].InstanceID)
	assert.Equal(t, later, sibs[1].InstanceID)
}

func TestNavigateRestoresMinimizedSibling(t *testing.T) {
	r := newTestRegistry()

	a := mustCreate(t, r, types.AppNotes)
	b := mustCreate(t, r, types.AppNotes)
	r.Minimize(a)

	target, changed := r.NavigateNext(b)
	require.True(t, changed)
	assert.Equal(t, a, target)

	inst, _ := r.Get(a)
	assert.False(t, inst.IsMinimized)
	assert.True(t, inst.IsForeground)
}

func TestNavigateMissing(t *testing.T) {
	r := newTestRegistry()

	target, changed := r.NavigateNext("missing")
	assert.Empty(t, target)
	assert.False(t, changed)
}
