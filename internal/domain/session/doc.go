// Package session persists desktop state outside the instance registry.
//
// Two kinds of state are kept:
//   - App hints: a narrow, app-scoped record (initial path, last geometry,
//     open and minimized flags) refreshed from the legacy projection on
//     every state change and used to seed the next launch.
//   - Workspace sessions: named captures of every open instance that can be
//     restored later with the same instance ids, stacking order, geometry
//     and payloads.
//
// Session blobs are JSON encoded with sonic and compressed with zstd.
//
// Restoration:
//  1. Load and decode the session blob
//  2. Drop instances whose app is no longer registered
//  3. Close every open instance and recreate the saved ones in one
//     registry transaction, back to front
//  4. Re-apply the saved foreground instance
//
// Example Usage:
//
//	manager := session.NewManager(registry, st, logger)
//	saved, err := manager.Save(ctx, "Morning", "mail and notes")
//	_, err = manager.Restore(ctx, saved.ID)
package session
