package window

import (
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/desktop/internal/shared/types"
)

// BringToForeground focuses an instance, un-minimizes it and moves it to the
// top of the order. Already-foreground instances are left exactly as they are.
func (r *Registry) BringToForeground(instanceID string) bool {
	return r.mutate(func() bool { return r.bringToForegroundLocked(instanceID) })
}

// Foreground returns the current foreground instance, if any
func (r *Registry) Foreground() (types.Instance, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if inst, ok := r.foregroundLocked(); ok {
		return copyInstance(inst), true
	}
	return types.Instance{}, false
}

// ZIndexOf returns the 1-based stacking index of an instance. Higher is closer
// to the viewer; indexes are unique because the order is a sequence.
func (r *Registry) ZIndexOf(instanceID string) (int, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i, oid := range r.order {
		if oid == instanceID {
			return i + 1, true
		}
	}
	return 0, false
}

// NavigateNext focuses the next instance of the same app in creation order,
// wrapping around. It returns the focused id and whether anything changed.
func (r *Registry) NavigateNext(instanceID string) (string, bool) {
	return r.navigate(instanceID, 1)
}

// NavigatePrevious is NavigateNext in the other direction
func (r *Registry) NavigatePrevious(instanceID string) (string, bool) {
	return r.navigate(instanceID, -1)
}

func (r *Registry) navigate(instanceID string, step int) (string, bool) {
	var target string
	changed := r.mutate(func() bool {
		var changed bool
		target, changed = r.navigateLocked(instanceID, step)
		return changed
	})
	return target, changed
}

// navigateLocked steps through same-app siblings (must hold lock)
func (r *Registry) navigateLocked(instanceID string, step int) (string, bool) {
	inst, ok := r.instances[instanceID]
	if !ok {
		return "", false
	}

	sibs := r.siblingsLocked(inst.AppID)
	if len(sibs) < 2 {
		return instanceID, false
	}

	idx := 0
	for i, s := range sibs {
		if s.InstanceID == instanceID {
			idx = i
			break
		}
	}

	n := len(sibs)
	target := sibs[((idx+step)%n+n)%n].InstanceID
	return target, r.bringToForegroundLocked(target)
}

// bringToForegroundLocked focuses an instance and moves it to the top (must hold lock)
func (r *Registry) bringToForegroundLocked(instanceID string) bool {
	inst, ok := r.instances[instanceID]
	if !ok || inst.IsForeground {
		return false
	}

	inst.IsMinimized = false
	r.removeFromOrderLocked(instanceID)
	r.order = append(r.order, instanceID)
	r.focusLocked(inst)

	r.logger.Debug("Instance focused",
		zap.String("instance_id", instanceID),
		zap.String("app_id", string(inst.AppID)),
	)
	return true
}

// focusLocked makes inst the only foreground instance without touching the order
func (r *Registry) focusLocked(inst *types.Instance) {
	if current, ok := r.foregroundLocked(); ok && current != inst {
		current.IsForeground = false
	}
	inst.IsForeground = true
	r.focusSeq++
	r.lastFocus[inst.InstanceID] = r.focusSeq
}

// promoteLocked focuses the topmost non-minimized instance, if any (must hold lock)
func (r *Registry) promoteLocked() {
	for i := len(r.order) - 1; i >= 0; i-- {
		inst := r.instances[r.order[i]]
		if inst != nil && !inst.IsMinimized {
			r.focusLocked(inst)
			return
		}
	}
}

func (r *Registry) foregroundLocked() (*types.Instance, bool) {
	for _, inst := range r.instances {
		if inst.IsForeground {
			return inst, true
		}
	}
	return nil, false
}
