// Package types provides shared data structures for the desktop backend.
//
// Core Types:
//   - Instance: One running occurrence of an application
//   - Snapshot: All instances plus their back-to-front stacking order
//   - AppState: Per-application aggregate for legacy consumers
//   - Definition: Static description of a registered application
//   - LaunchIntent: Request to open or bring forward an application
//
// Application ids form a closed set (see AllAppIDs). Anything outside it
// is rejected with UnknownAppError before any state is touched.
//
// Example Usage:
//
//	intent := types.LaunchIntent{
//	    AppID:       types.AppBookmarks,
//	    InitialData: map[string]any{"note": "x"},
//	}
package types
