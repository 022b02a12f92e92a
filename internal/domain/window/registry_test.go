package window

import (
	"errors"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/AgentOS/desktop/internal/domain/catalog"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/shared/types"
)

func TestCreate(t *testing.T) {
	r := newTestRegistry()

	instanceID, err := r.Create(types.AppBookmarks, map[string]any{"note": "x"})
	require.NoError(t, err)
	assert.Equal(t, "I1", instanceID)

	inst, ok := r.Get(instanceID)
	require.True(t, ok)
	assert.True(t, inst.IsOpen)
	assert.True(t, inst.IsForeground)
	assert.False(t, inst.IsMinimized)
	assert.Equal(t, types.AppBookmarks, inst.AppID)
	assert.Equal(t, map[string]any{"note": "x"}, inst.InitialData)
	assert.Equal(t, uint64(1), inst.Sequence)
	assert.Equal(t, []string{"I1"}, r.Snapshot().InstanceOrder)
}

func TestCreateDemotesPreviousForeground(t *testing.T) {
	r := newTestRegistry()

	a := mustCreate(t, r, types.AppBookmarks)
	b := mustCreate(t, r, types.AppNotes)

	instA, _ := r.Get(a)
	instB, _ := r.Get(b)
	assert.False(t, instA.IsForeground)
	assert.True(t, instB.IsForeground)
	assert.Equal(t, []string{a, b}, r.Snapshot().InstanceOrder)
}

func TestCreateUnknownApp(t *testing.T) {
	r := New(catalog.New())

	_, err := r.Create("solitaire", nil)
	require.Error(t, err)

	var unknown *types.UnknownAppError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, types.AppID("solitaire"), unknown.AppID)
	assert.ErrorIs(t, err, types.ErrUnknownApp)

	snap := r.Snapshot()
	assert.Empty(t, snap.Instances)
	assert.Zero(t, snap.Version, "rejected create must not mutate")
}

func TestCreateExplicitID(t *testing.T) {
	r := newTestRegistry()

	instanceID, err := r.Create(types.AppSettings, nil, WithID("restored-1"))
	require.NoError(t, err)
	assert.Equal(t, "restored-1", instanceID)

	_, err = r.Create(types.AppSettings, nil, WithID("restored-1"))
	assert.ErrorIs(t, err, ErrInstanceExists)
	assert.Len(t, r.List(), 1)
}

func TestCreateMinimizedKeepsForeground(t *testing.T) {
	r := newTestRegistry()

	a := mustCreate(t, r, types.AppBookmarks)
	b, err := r.Create(types.AppNotes, nil, WithMinimized(), WithTitle("Draft"),
		WithGeometry(&types.Position{X: 1, Y: 2}, &types.Size{Width: 3, Height: 4}))
	require.NoError(t, err)

	fg, ok := r.Foreground()
	require.True(t, ok)
	assert.Equal(t, a, fg.InstanceID)

	instB, _ := r.Get(b)
	assert.True(t, instB.IsMinimized)
	assert.False(t, instB.IsForeground)
	assert.Equal(t, "Draft", instB.Title)
	assert.Equal(t, &types.Position{X: 1, Y: 2}, instB.Position)
	assert.Equal(t, &types.Size{Width: 3, Height: 4}, instB.Size)
	assert.Equal(t, []string{a, b}, r.Snapshot().InstanceOrder)
}

func TestCloseForegroundPromotesTopmost(t *testing.T) {
	r := newTestRegistry()

	a := mustCreate(t, r, types.AppBookmarks)
	b := mustCreate(t, r, types.AppNotes)
	c := mustCreate(t, r, types.AppSettings)

	require.True(t, r.Close(c))

	fg, ok := r.Foreground()
	require.True(t, ok)
	assert.Equal(t, b, fg.InstanceID)
	assert.Equal(t, []string{a, b}, r.Snapshot().InstanceOrder)
	_, exists := r.Get(c)
	assert.False(t, exists)
}

func TestCloseSkipsMinimizedWhenPromoting(t *testing.T) {
	r := newTestRegistry()

	a := mustCreate(t, r, types.AppBookmarks)
	b := mustCreate(t, r, types.AppNotes)
	c := mustCreate(t, r, types.AppSettings)
	r.Minimize(b)
	require.True(t, r.BringToForeground(c))

	r.Close(c)

	fg, ok := r.Foreground()
	require.True(t, ok)
	assert.Equal(t, a, fg.InstanceID)
}

func TestCloseOnlyInstanceLeavesNoForeground(t *testing.T) {
	r := newTestRegistry()

	a := mustCreate(t, r, types.AppBookmarks)
	require.True(t, r.Close(a))

	_, ok := r.Foreground()
	assert.False(t, ok)
	assert.Empty(t, r.Snapshot().InstanceOrder)
}

func TestCloseNonForegroundKeepsForeground(t *testing.T) {
	r := newTestRegistry()

	a := mustCreate(t, r, types.AppBookmarks)
	b := mustCreate(t, r, types.AppNotes)

	r.Close(a)

	fg, _ := r.Foreground()
	assert.Equal(t, b, fg.InstanceID)
}

func TestCloseIsIdempotent(t *testing.T) {
	r := newTestRegistry()

	a := mustCreate(t, r, types.AppBookmarks)
	mustCreate(t, r, types.AppNotes)

	assert.True(t, r.Close(a))
	once := r.Snapshot()

	assert.False(t, r.Close(a))
	twice := r.Snapshot()

	assert.Equal(t, once, twice)
	assert.False(t, r.Close("never-existed"))
}

func TestUpdateGeometryMergesFields(t *testing.T) {
	r := newTestRegistry()
	a := mustCreate(t, r, types.AppBookmarks)

	require.True(t, r.UpdateGeometry(a, &types.Position{X: 10, Y: 20}, nil))
	require.True(t, r.UpdateGeometry(a, nil, &types.Size{Width: 300, Height: 200}))

	inst, _ := r.Get(a)
	assert.Equal(t, &types.Position{X: 10, Y: 20}, inst.Position)
	assert.Equal(t, &types.Size{Width: 300, Height: 200}, inst.Size)

	assert.False(t, r.UpdateGeometry(a, nil, nil))
	assert.False(t, r.UpdateGeometry("missing", &types.Position{}, nil))
}

func TestReturnedInstancesAreCopies(t *testing.T) {
	r := newTestRegistry()
	a := mustCreate(t, r, types.AppBookmarks)
	r.UpdateGeometry(a, &types.Position{X: 1, Y: 1}, nil)

	inst, _ := r.Get(a)
	inst.Position.X = 999
	inst.IsForeground = false

	again, _ := r.Get(a)
	assert.Equal(t, 1, again.Position.X)
	assert.True(t, again.IsForeground)
}

func TestUpdateData(t *testing.T) {
	r := newTestRegistry()
	a := mustCreate(t, r, types.AppBookmarks)

	require.True(t, r.UpdateData(a, "bookmark-7"))
	inst, _ := r.Get(a)
	assert.Equal(t, "bookmark-7", inst.InitialData)

	assert.False(t, r.UpdateData("missing", "x"))
}

func TestSetTitle(t *testing.T) {
	r := newTestRegistry()
	a := mustCreate(t, r, types.AppNotes)

	assert.True(t, r.SetTitle(a, "Groceries"))
	assert.False(t, r.SetTitle(a, "Groceries"))
	inst, _ := r.Get(a)
	assert.Equal(t, "Groceries", inst.Title)
}

func TestMinimizeAndRestore(t *testing.T) {
	r := newTestRegistry()

	a := mustCreate(t, r, types.AppBookmarks)
	b := mustCreate(t, r, types.AppNotes)

	require.True(t, r.Minimize(b))
	instB, _ := r.Get(b)
	assert.True(t, instB.IsMinimized)
	assert.False(t, instB.IsForeground)

	fg, _ := r.Foreground()
	assert.Equal(t, a, fg.InstanceID, "foreground passes to the topmost visible instance")
	assert.False(t, r.Minimize(b), "minimizing twice is a no-op")

	require.True(t, r.Restore(b))
	instB, _ = r.Get(b)
	assert.False(t, instB.IsMinimized)
	assert.True(t, instB.IsForeground)
	assert.Equal(t, []string{a, b}, r.Snapshot().InstanceOrder)

	assert.False(t, r.Restore("missing"))
}

func TestRestoreMovesToTop(t *testing.T) {
	r := newTestRegistry()

	a := mustCreate(t, r, types.AppBookmarks)
	b := mustCreate(t, r, types.AppNotes)
	r.Minimize(a)

	require.True(t, r.Restore(a))
	assert.Equal(t, []string{b, a}, r.Snapshot().InstanceOrder)
}

func TestMinimizeAllLeavesNoForeground(t *testing.T) {
	r := newTestRegistry()

	a := mustCreate(t, r, types.AppBookmarks)
	b := mustCreate(t, r, types.AppNotes)
	r.Minimize(b)
	r.Minimize(a)

	_, ok := r.Foreground()
	assert.False(t, ok)
	checkInvariants(t, r.Snapshot())
}

func TestObserverReceivesEveryChange(t *testing.T) {
	var versions []uint64
	r := newTestRegistry(WithObserver(func(s types.Snapshot) {
		versions = append(versions, s.Version)
	}))

	a := mustCreate(t, r, types.AppBookmarks)
	r.UpdateData(a, "x")
	r.Close("missing")
	r.BringToForeground(a)
	r.Close(a)

	assert.Equal(t, []uint64{1, 2, 3}, versions, "no-ops must not notify")
}

func TestObserversSeeVersionsInCommitOrder(t *testing.T) {
	const workers, updates = 8, 500

	var (
		mu       sync.Mutex
		versions []uint64
	)
	r := newTestRegistry(WithObserver(func(s types.Snapshot) {
		mu.Lock()
		versions = append(versions, s.Version)
		mu.Unlock()
	}))
	a := mustCreate(t, r, types.AppBookmarks)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < updates; i++ {
				r.UpdateGeometry(a, &types.Position{X: w, Y: i}, nil)
			}
		}(w)
	}
	wg.Wait()

	require.Len(t, versions, workers*updates+1)
	for i, v := range versions {
		require.Equal(t, uint64(i+1), v, "snapshot %d delivered out of order", i)
	}
}

func TestPanicInAtomicallyDoesNotStallObservers(t *testing.T) {
	var versions []uint64
	r := newTestRegistry(WithObserver(func(s types.Snapshot) {
		versions = append(versions, s.Version)
	}))

	assert.Panics(t, func() {
		_ = r.Atomically(func(tx *Txn) error {
			_, _ = tx.Create(types.AppBookmarks, nil)
			panic("boom")
		})
	})
	mustCreate(t, r, types.AppNotes)

	assert.Equal(t, []uint64{1, 2}, versions)
}

func TestAtomicallyNotifiesOnce(t *testing.T) {
	calls := 0
	r := newTestRegistry(WithObserver(func(types.Snapshot) { calls++ }))

	err := r.Atomically(func(tx *Txn) error {
		a, err := tx.Create(types.AppBookmarks, nil)
		if err != nil {
			return err
		}
		tx.Minimize(a)
		_, err = tx.Create(types.AppNotes, nil)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Len(t, r.List(), 2)
}

func TestAtomicallyReleasesLockOnPanic(t *testing.T) {
	r := newTestRegistry()

	assert.Panics(t, func() {
		_ = r.Atomically(func(tx *Txn) error { panic("boom") })
	})

	mustCreate(t, r, types.AppBookmarks)
}

func TestTxnCloseAll(t *testing.T) {
	r := newTestRegistry()
	mustCreate(t, r, types.AppBookmarks)
	mustCreate(t, r, types.AppNotes)

	var closed int
	require.NoError(t, r.Atomically(func(tx *Txn) error {
		closed = tx.CloseAll()
		return nil
	}))

	assert.Equal(t, 2, closed)
	assert.Empty(t, r.List())
}

func TestStats(t *testing.T) {
	r := newTestRegistry()
	a := mustCreate(t, r, types.AppBookmarks)
	b := mustCreate(t, r, types.AppNotes)
	r.Minimize(a)

	stats := r.Stats()
	assert.Equal(t, 2, stats.TotalInstances)
	assert.Equal(t, 1, stats.MinimizedInstances)
	require.NotNil(t, stats.ForegroundID)
	assert.Equal(t, b, *stats.ForegroundID)
}

// TestRandomOperationsHoldInvariants drives the registry with random
// operation sequences and checks the invariants after every step.
func TestRandomOperationsHoldInvariants(t *testing.T) {
	apps := []types.AppID{types.AppBookmarks, types.AppNotes, types.AppTerminal}

	for seed := int64(1); seed <= 20; seed++ {
		rng := rand.New(rand.NewSource(seed))
		r := newTestRegistry()

		pick := func() string {
			list := r.List()
			if len(list) == 0 || rng.Intn(10) == 0 {
				return "ghost"
			}
			return list[rng.Intn(len(list))].InstanceID
		}

		for step := 0; step < 200; step++ {
			switch rng.Intn(8) {
			case 0, 1:
				_, err := r.Create(apps[rng.Intn(len(apps))], step)
				require.NoError(t, err)
			case 2:
				r.Close(pick())
			case 3:
				r.Minimize(pick())
			case 4:
				r.Restore(pick())
			case 5:
				r.BringToForeground(pick())
			case 6:
				r.NavigateNext(pick())
			case 7:
				r.NavigatePrevious(pick())
			}
			checkInvariants(t, r.Snapshot())
		}
	}
}
