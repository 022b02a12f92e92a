package window

import "github.com/GriffinCanCode/AgentOS/desktop/internal/shared/types"

// Txn exposes registry operations inside Atomically. It must not be used
// after the callback returns.
type Txn struct {
	r       *Registry
	changed bool
}

func (tx *Txn) track(changed bool) bool {
	tx.changed = tx.changed || changed
	return changed
}

// Create is Registry.Create within the transaction
func (tx *Txn) Create(appID types.AppID, initialData any, opts ...CreateOption) (string, error) {
	instanceID, err := tx.r.createLocked(appID, initialData, opts...)
	tx.track(err == nil)
	return instanceID, err
}

// Close is Registry.Close within the transaction
func (tx *Txn) Close(instanceID string) bool {
	return tx.track(tx.r.closeLocked(instanceID))
}

// CloseAll closes every instance and returns how many were closed
func (tx *Txn) CloseAll() int {
	ids := make([]string, len(tx.r.order))
	copy(ids, tx.r.order)

	closed := 0
	for _, instanceID := range ids {
		if tx.Close(instanceID) {
			closed++
		}
	}
	return closed
}

// UpdateGeometry is Registry.UpdateGeometry within the transaction
func (tx *Txn) UpdateGeometry(instanceID string, pos *types.Position, size *types.Size) bool {
	return tx.track(tx.r.updateGeometryLocked(instanceID, pos, size))
}

// UpdateData is Registry.UpdateData within the transaction
func (tx *Txn) UpdateData(instanceID string, initialData any) bool {
	return tx.track(tx.r.updateDataLocked(instanceID, initialData))
}

// Minimize is Registry.Minimize within the transaction
func (tx *Txn) Minimize(instanceID string) bool {
	return tx.track(tx.r.minimizeLocked(instanceID))
}

// Restore is Registry.Restore within the transaction
func (tx *Txn) Restore(instanceID string) bool {
	return tx.track(tx.r.restoreLocked(instanceID))
}

// BringToForeground is Registry.BringToForeground within the transaction
func (tx *Txn) BringToForeground(instanceID string) bool {
	return tx.track(tx.r.bringToForegroundLocked(instanceID))
}

// Get is Registry.Get within the transaction
func (tx *Txn) Get(instanceID string) (types.Instance, bool) {
	inst, ok := tx.r.instances[instanceID]
	if !ok {
		return types.Instance{}, false
	}
	return copyInstance(inst), true
}

// MostRecent returns the most recently foregrounded open instance of appID
func (tx *Txn) MostRecent(appID types.AppID) (types.Instance, bool) {
	inst, ok := tx.r.mostRecentLocked(appID)
	if !ok {
		return types.Instance{}, false
	}
	return copyInstance(inst), true
}

// Known reports whether appID may be instantiated
func (tx *Txn) Known(appID types.AppID) bool {
	return tx.r.knownLocked(appID)
}

// List is Registry.List within the transaction
func (tx *Txn) List() []types.Instance {
	return tx.r.listLocked()
}
