package netmon

type EventType string

const (
	InterfaceAdded       EventType = "INTERFACE_ADDED"
	InterfaceRemoved     EventType = "INTERFACE_REMOVED"
	StateChanged         EventType = "STATE_CHANGED"
	MTUChanged           EventType = "MTU_CHANGED"
	AddressAdded         EventType = "ADDRESS_ADDED"
	AddressRemoved       EventType = "ADDRESS_REMOVED"
	EnumerationCompleted EventType = "ENUMERATION_COMPLETED"
	NetworkStateChanged  EventType = "NETWORK_STATE_CHANGED"
)

// InterfaceEvent is a change detected by a backend. Interface holds the
// affected interface after the change (or its last state for removals).
type InterfaceEvent struct {
	Type          EventType
	InterfaceName string
	Index         int
	Interface     NetworkInterface

	OldState InterfaceState
	OldMTU   int
	Address  Address

	// Generation is the table generation that produced the event, zero for
	// events not tied to a table mutation.
	Generation uint64
}

type EventHandler func(event InterfaceEvent)
