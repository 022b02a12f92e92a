package window

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/AgentOS/desktop/internal/shared/types"
)

// newTestRegistry returns a registry with ids I1, I2, ... and a frozen clock
func newTestRegistry(opts ...Option) *Registry {
	n := 0
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	base := []Option{
		WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("I%d", n)
		}),
		WithClock(func() time.Time { return fixed }),
	}
	return New(nil, append(base, opts...)...)
}

func mustCreate(t *testing.T, r *Registry, appID types.AppID) string {
	t.Helper()
	instanceID, err := r.Create(appID, nil)
	require.NoError(t, err)
	return instanceID
}

// checkInvariants asserts the registry-wide invariants on a snapshot
func checkInvariants(t *testing.T, snap types.Snapshot) {
	t.Helper()

	require.Len(t, snap.InstanceOrder, len(snap.Instances), "order must cover exactly the open instances")

	seen := make(map[string]bool)
	for _, instanceID := range snap.InstanceOrder {
		require.False(t, seen[instanceID], "duplicate %s in order", instanceID)
		seen[instanceID] = true
		_, ok := snap.Instances[instanceID]
		require.True(t, ok, "order references missing instance %s", instanceID)
	}

	foreground, visible := 0, 0
	for _, inst := range snap.Instances {
		require.True(t, inst.IsOpen)
		require.True(t, inst.AppID.Known())
		if inst.IsForeground {
			foreground++
			require.False(t, inst.IsMinimized, "minimized instance %s is foreground", inst.InstanceID)
		}
		if !inst.IsMinimized {
			visible++
		}
	}
	require.LessOrEqual(t, foreground, 1, "more than one foreground instance")
	if visible == 0 {
		require.Zero(t, foreground)
	}
}
