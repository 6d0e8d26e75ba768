package netmon

import "strings"

// Capabilities describes which monitoring features a backend provides. A
// backend computes its set once; it never changes afterwards.
type Capabilities uint32

const (
	// CapEnum: the backend lists existing interfaces.
	CapEnum Capabilities = 1 << iota
	// CapIfAddRemove: InterfaceAdded / InterfaceRemoved are delivered.
	CapIfAddRemove
	// CapStateChange: StateChanged is delivered.
	CapStateChange
	// CapMTUChange: MTUChanged is delivered.
	CapMTUChange
	// CapAddrAddRemove: AddressAdded / AddressRemoved are delivered.
	CapAddrAddRemove
)

var capNames = []struct {
	c    Capabilities
	name string
}{
	{CapEnum, "enum"},
	{CapIfAddRemove, "if-add-remove"},
	{CapStateChange, "state-change"},
	{CapMTUChange, "mtu-change"},
	{CapAddrAddRemove, "addr-add-remove"},
}

// Has reports whether every capability in c2 is present.
func (c Capabilities) Has(c2 Capabilities) bool {
	return c&c2 == c2
}

// Names lists the capabilities present in c.
func (c Capabilities) Names() []string {
	names := []string{}
	for _, cn := range capNames {
		if c&cn.c != 0 {
			names = append(names, cn.name)
		}
	}
	return names
}

func (c Capabilities) String() string {
	if c == 0 {
		return "none"
	}
	return strings.Join(c.Names(), "|")
}

func (c Capabilities) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}
