// Package server wires the desktop runtime: catalog, instance registry,
// event bridge, launch router, persistence and the HTTP and WebSocket surfaces.
package server
