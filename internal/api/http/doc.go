/*
Package http exposes the desktop runtime over a gin REST API.

Mutations on a missing instance are soft no-ops and answer 200 with
"changed": false. Unknown applications answer 404 with code "unknown_app".
Launches go either straight to the router (POST /launch) or through the event
bridge (POST /events/launch), where an optional delay_ms is honoured.
*/
package http
