// Package window owns every live application instance and its stacking order.
//
// The Registry is the single source of truth for instance records and the
// back-to-front instance order. All mutation goes through its methods (or a
// Txn inside Atomically); readers receive copies.
//
// Invariants held after every operation:
//   - at most one instance is foreground, and never a minimized one
//   - the order holds exactly the ids of open instances, without duplicates
//   - every instance references a registered app id
//
// Operations addressing a missing instance are no-ops that report false,
// because UI events routinely race with a close.
//
// Example Usage:
//
//	reg := window.New(catalog.New())
//	id, err := reg.Create(types.AppBookmarks, nil)
//	reg.Minimize(id)
//	reg.Restore(id)
package window
