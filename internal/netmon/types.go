package netmon

import (
	"fmt"
	"net"
	"net/netip"
	"slices"
	"strings"
)

// InterfaceState is the operational state of an interface.
type InterfaceState int

const (
	StateUnknown InterfaceState = iota
	StateNotPresent
	StateDown
	StateLowerLayerDown
	StateTesting
	StateDormant
	StateUp
)

var stateNames = [...]string{
	StateUnknown:        "unknown",
	StateNotPresent:     "not-present",
	StateDown:           "down",
	StateLowerLayerDown: "lower-layer-down",
	StateTesting:        "testing",
	StateDormant:        "dormant",
	StateUp:             "up",
}

func (s InterfaceState) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

func (s InterfaceState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// InterfaceFlags are the administrative interface flags, using the Linux
// IFF_* bit values.
type InterfaceFlags uint32

const (
	FlagUp           InterfaceFlags = 0x1
	FlagBroadcast    InterfaceFlags = 0x2
	FlagLoopback     InterfaceFlags = 0x8
	FlagPointToPoint InterfaceFlags = 0x10
	FlagRunning      InterfaceFlags = 0x40
	FlagMulticast    InterfaceFlags = 0x1000

	flagLowerUp InterfaceFlags = 0x10000
	flagDormant InterfaceFlags = 0x20000
)

var flagNames = []struct {
	flag InterfaceFlags
	name string
}{
	{FlagUp, "up"},
	{FlagBroadcast, "broadcast"},
	{FlagLoopback, "loopback"},
	{FlagPointToPoint, "pointtopoint"},
	{FlagRunning, "running"},
	{FlagMulticast, "multicast"},
}

func (f InterfaceFlags) String() string {
	var names []string
	for _, fn := range flagNames {
		if f&fn.flag != 0 {
			names = append(names, fn.name)
		}
	}
	if len(names) == 0 {
		return "0"
	}
	return strings.Join(names, "|")
}

func (f InterfaceFlags) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// InterfaceType is a coarse link type.
type InterfaceType int

const (
	TypeUnknown InterfaceType = iota
	TypeLoopback
	TypeEthernet
)

func (t InterfaceType) String() string {
	switch t {
	case TypeLoopback:
		return "loopback"
	case TypeEthernet:
		return "ethernet"
	default:
		return "unknown"
	}
}

func (t InterfaceType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// AddressScope is the reachability scope of an address.
type AddressScope int

const (
	ScopeNowhere AddressScope = iota
	ScopeHost
	ScopeLink
	ScopeGlobal
)

func (s AddressScope) String() string {
	switch s {
	case ScopeNowhere:
		return "nowhere"
	case ScopeHost:
		return "host"
	case ScopeLink:
		return "link"
	default:
		return "global"
	}
}

func (s AddressScope) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// AddressFamily distinguishes IPv4 from IPv6 addresses.
type AddressFamily uint8

const (
	FamilyIPv4 AddressFamily = iota + 1
	FamilyIPv6
)

func (f AddressFamily) String() string {
	switch f {
	case FamilyIPv4:
		return "ipv4"
	case FamilyIPv6:
		return "ipv6"
	}
	return "unknown"
}

// Address is a network address assigned to an interface. Its family follows
// from IP.
type Address struct {
	IP        netip.Addr
	Broadcast netip.Addr
	PrefixLen int
	Scope     AddressScope
	Flags     uint32
}

// Prefix returns the address with its prefix length.
func (a Address) Prefix() netip.Prefix {
	return netip.PrefixFrom(a.IP, a.PrefixLen)
}

// Is6 reports whether a is an IPv6 address.
func (a Address) Is6() bool {
	return a.IP.Is6() && !a.IP.Is4In6()
}

// Family reports whether a is an IPv4 or IPv6 address.
func (a Address) Family() AddressFamily {
	if a.Is6() {
		return FamilyIPv6
	}
	return FamilyIPv4
}

func (a Address) String() string {
	return a.Prefix().String()
}

// sameAddress reports whether a and b identify the same assignment.
func sameAddress(a, b Address) bool {
	return a.IP == b.IP && a.PrefixLen == b.PrefixLen
}

// NetworkInterface is a snapshot of one interface. Values returned by the
// monitor are copies; changing them has no effect on the monitor.
type NetworkInterface struct {
	Index        int
	Name         string
	Type         InterfaceType
	HardwareAddr net.HardwareAddr
	State        InterfaceState
	Flags        InterfaceFlags
	MTU          int
	Addresses    []Address
}

// Clone returns a deep copy of i.
func (i NetworkInterface) Clone() NetworkInterface {
	c := i
	c.HardwareAddr = slices.Clone(i.HardwareAddr)
	c.Addresses = slices.Clone(i.Addresses)
	return c
}

// IsUp reports whether the interface is operationally up.
func (i NetworkInterface) IsUp() bool {
	return i.State == StateUp
}

// IsLoopback reports whether the interface is a loopback interface.
func (i NetworkInterface) IsLoopback() bool {
	return i.Type == TypeLoopback || i.Flags&FlagLoopback != 0
}

func (i NetworkInterface) String() string {
	return fmt.Sprintf("%s[%d] state=%s mtu=%d flags=%s addrs=%v", i.Name, i.Index, i.State, i.MTU, i.Flags, i.Addresses)
}
