package netmon

import "context"

// Monitor is the read side of an interface monitor. Callers must check
// Capabilities before relying on a class of events: a backend that lacks
// CapMTUChange, for example, never reports MTU changes.
//
// Queries never block. Before Enumerated is closed they return whatever has
// been learned so far.
type Monitor interface {
	Capabilities() Capabilities
	// NetworkInterface returns the interface called name, or
	// ErrInterfaceNotFound.
	NetworkInterface(name string) (NetworkInterface, error)
	// NetworkInterfaces returns all known interfaces ordered by index.
	NetworkInterfaces() []NetworkInterface
	// Subscribe delivers the current interfaces as InterfaceAdded events,
	// followed by every later change. The returned func unsubscribes and
	// closes the channel.
	Subscribe() (<-chan InterfaceEvent, func())
	// Enumerated is closed once the initial enumeration has completed.
	Enumerated() <-chan struct{}
}

// Backend discovers interfaces using a platform-specific mechanism (rtnetlink
// on Linux, route sockets on macOS).
type Backend interface {
	// Capabilities is fixed for the lifetime of the backend.
	Capabilities() Capabilities
	// Start enumerates the existing interfaces into table, then keeps it up to
	// date. Every change is passed to emit, in the order it was detected,
	// followed by a single EnumerationCompleted once the initial listing is
	// done. Blocks until ctx is cancelled or an error occurs.
	Start(ctx context.Context, table *Table, emit EventHandler) error
}
