// Package event defines the message exchanged between components: a
// named record matched against handlers by (name, channel), carrying a
// payload and a Value result container. Events are plain data; the
// dispatch, caching, and completion-tracking logic that interprets them
// lives in pkg/bus.
package event
