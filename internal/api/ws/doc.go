// Package ws streams desktop state to the browser renderer over WebSocket.
//
// On connect the renderer receives a "state" message carrying the registry
// snapshot and the per-app legacy view; the same message is pushed after
// every committed change. Instance data replacements are pushed as
// "data-changed".
//
// Message Types (Client → Server):
//   - launch: route a launch intent through the event bridge
//   - focus, close, minimize, restore: act on instanceId
//   - next, previous: cycle between instances of the same app
//   - geometry: merge position and size into instanceId
//   - ping: keep-alive
//
// Message Types (Server → Client):
//   - state, data-changed, ack, pong, error
//
// Example Usage:
//
//	handler := ws.NewHandler(registry, bus, logger, cfg.Server.AllowedOrigins...)
//	router.GET("/stream", handler.HandleConnection)
package ws
