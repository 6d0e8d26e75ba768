package netmon

import (
	"net"
	"net/netip"
	"slices"

	log "github.com/sirupsen/logrus"
)

// Backends without a kernel change feed of their own describe interfaces with
// the net package. The helpers below fold those descriptions into a Table.

var netFlags = []struct {
	from net.Flags
	to   InterfaceFlags
}{
	{net.FlagUp, FlagUp},
	{net.FlagBroadcast, FlagBroadcast},
	{net.FlagLoopback, FlagLoopback},
	{net.FlagPointToPoint, FlagPointToPoint},
	{net.FlagRunning, FlagRunning},
	{net.FlagMulticast, FlagMulticast},
}

func linkFromNet(iface *net.Interface) linkUpdate {
	var flags InterfaceFlags
	for _, f := range netFlags {
		if iface.Flags&f.from != 0 {
			flags |= f.to
		}
	}

	typ := TypeUnknown
	switch {
	case iface.Flags&net.FlagLoopback != 0:
		typ = TypeLoopback
	case len(iface.HardwareAddr) == 6:
		typ = TypeEthernet
	}

	return linkUpdate{
		index:  iface.Index,
		flags:  flags,
		fields: fieldName | fieldType | fieldHardwareAddr | fieldMTU,
		name:   iface.Name,
		typ:    typ,
		hwAddr: iface.HardwareAddr,
		mtu:    iface.MTU,
	}
}

func addressesFromNet(addrs []net.Addr) []Address {
	var out []Address
	for _, a := range addrs {
		ipNet, ok := a.(*net.IPNet)
		if !ok {
			continue
		}
		ip, ok := netip.AddrFromSlice(ipNet.IP)
		if !ok {
			continue
		}
		ip = ip.Unmap()
		ones, _ := ipNet.Mask.Size()

		scope := ScopeGlobal
		switch {
		case ip.IsLoopback():
			scope = ScopeHost
		case ip.IsLinkLocalUnicast():
			scope = ScopeLink
		}
		out = append(out, Address{IP: ip, PrefixLen: ones, Scope: scope})
	}
	return out
}

// reconcileInterface makes the table entry for iface match it.
func reconcileInterface(table *Table, iface *net.Interface, addrs []net.Addr) []InterfaceEvent {
	events := table.updateLink(linkFromNet(iface))
	return append(events, table.syncAddresses(iface.Index, addressesFromNet(addrs))...)
}

func publishEvents(table *Table, emit EventHandler, events []InterfaceEvent) {
	if len(events) == 0 {
		return
	}
	promInterfaces.Set(float64(table.Len()))
	for _, ev := range events {
		log.WithFields(log.Fields{
			"event":     ev.Type,
			"interface": ev.InterfaceName,
			"index":     ev.Index,
		}).Debug("Interface change detected")
		emit(ev)
	}
}

// NetInterface converts i to a net.Interface, for APIs that select
// interfaces that way.
func (i NetworkInterface) NetInterface() net.Interface {
	var flags net.Flags
	for _, f := range netFlags {
		if i.Flags&f.to != 0 {
			flags |= f.from
		}
	}
	return net.Interface{
		Index:        i.Index,
		MTU:          i.MTU,
		Name:         i.Name,
		HardwareAddr: slices.Clone(i.HardwareAddr),
		Flags:        flags,
	}
}
