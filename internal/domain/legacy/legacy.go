// Package legacy projects the instance registry onto the per-application
// aggregate that older consumers read: one entry per app id, regardless of
// how many instances the app has.
package legacy

import (
	"sort"

	"github.com/GriffinCanCode/AgentOS/desktop/internal/shared/types"
)

// Project derives the per-app view from snapshot. It is recomputed on every
// call and never cached. Geometry and payload come from the app's foreground
// instance, else from its earliest created instance.
func Project(snapshot types.Snapshot) map[types.AppID]types.AppState {
	instances := make([]types.Instance, 0, len(snapshot.Instances))
	for _, inst := range snapshot.Instances {
		instances = append(instances, inst)
	}
	sort.Slice(instances, func(i, j int) bool {
		return instances[i].Sequence < instances[j].Sequence
	})

	view := make(map[types.AppID]types.AppState)
	for _, inst := range instances {
		state, seen := view[inst.AppID]
		switch {
		case !seen:
			state = fromInstance(inst)
		case inst.IsForeground && !state.IsForeground:
			open := state.IsOpen
			state = fromInstance(inst)
			state.IsOpen = state.IsOpen || open
		default:
			state.IsOpen = state.IsOpen || inst.IsOpen
		}
		view[inst.AppID] = state
	}
	return view
}

// Lookup returns the projected state of a single app
func Lookup(snapshot types.Snapshot, appID types.AppID) (types.AppState, bool) {
	state, ok := Project(snapshot)[appID]
	return state, ok
}

func fromInstance(inst types.Instance) types.AppState {
	state := types.AppState{
		IsOpen:       inst.IsOpen,
		IsForeground: inst.IsForeground,
		InitialData:  inst.InitialData,
	}
	if inst.Position != nil {
		pos := *inst.Position
		state.Position = &pos
	}
	if inst.Size != nil {
		size := *inst.Size
		state.Size = &size
	}
	return state
}
