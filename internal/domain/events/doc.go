/*
Package events implements the event bridge between the shell's request
surfaces and the instance runtime.

Emission is asynchronous and fire-and-forget. A single dispatch goroutine
delivers events in emission order, so handlers for one bus never run
concurrently with each other. Handler panics are recovered and logged.

When a channel has no subscriber, a durable bus keeps the newest event
per channel and hands it to the first subscriber. A non-durable bus drops
it and counts the miss.
*/
package events
