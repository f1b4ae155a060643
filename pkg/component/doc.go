// Package component implements the hierarchical tree that event-bus
// managers are built from. A Component owns a channel and a handler
// table; registering one under another splices it into that component's
// tree and rebinds it to that tree's root. The root itself is embedded
// in a pkg/bus.Manager, which implements the Root interface declared
// here so that component need not import bus.
package component
