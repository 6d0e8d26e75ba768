package netmon

import (
	"bytes"
	"net"
	"slices"
	"sync"

	"github.com/dmdmdm-nz/netmond/internal/nlmsg"
)

type linkField uint8

const (
	fieldName linkField = 1 << iota
	fieldType
	fieldHardwareAddr
	fieldMTU
	fieldOperState
)

// linkUpdate carries the fields of one link report. Fields not marked in
// fields keep their previous value.
type linkUpdate struct {
	index     int
	flags     InterfaceFlags
	fields    linkField
	name      string
	typ       InterfaceType
	hwAddr    net.HardwareAddr
	mtu       int
	operState uint8
}

type entry struct {
	iface     NetworkInterface
	operState uint8
}

// Table maps kernel interface indexes to interfaces. Only the backend that
// owns the table mutates it; readers get copies.
type Table struct {
	mu         sync.RWMutex
	entries    map[int]*entry
	generation uint64
}

func NewTable() *Table {
	return &Table{entries: make(map[int]*entry)}
}

// Get returns the interface called name.
func (t *Table) Get(name string) (NetworkInterface, bool) {
	if name == "" {
		return NetworkInterface{}, false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, e := range t.entries {
		if e.iface.Name == name {
			return e.iface.Clone(), true
		}
	}
	return NetworkInterface{}, false
}

// GetByIndex returns the interface with the given kernel index.
func (t *Table) GetByIndex(index int) (NetworkInterface, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.entries[index]
	if !ok {
		return NetworkInterface{}, false
	}
	return e.iface.Clone(), true
}

// List returns all known interfaces ordered by index.
func (t *Table) List() []NetworkInterface {
	list, _ := t.Snapshot()
	return list
}

// Snapshot returns all known interfaces together with the generation they
// reflect.
func (t *Table) Snapshot() ([]NetworkInterface, uint64) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	list := make([]NetworkInterface, 0, len(t.entries))
	for _, e := range t.entries {
		list = append(list, e.iface.Clone())
	}
	slices.SortFunc(list, func(a, b NetworkInterface) int { return a.Index - b.Index })
	return list, t.generation
}

func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// Generation increases with every mutation of the table.
func (t *Table) Generation() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.generation
}

// updateLink merges u into the entry for its index. Only state and MTU
// changes produce events; a rename, new hardware address or type change is
// visible in the table and in the Interface of the next event for the index.
func (t *Table) updateLink(u linkUpdate) []InterfaceEvent {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, exists := t.entries[u.index]
	if !exists {
		e = &entry{iface: NetworkInterface{Index: u.index}}
	}
	before := e.iface

	if u.fields&fieldName != 0 {
		e.iface.Name = u.name
	}
	if u.fields&fieldType != 0 {
		e.iface.Type = u.typ
	}
	if u.fields&fieldHardwareAddr != 0 {
		e.iface.HardwareAddr = slices.Clone(u.hwAddr)
	}
	if u.fields&fieldMTU != 0 {
		e.iface.MTU = u.mtu
	}
	if u.fields&fieldOperState != 0 {
		e.operState = u.operState
	}
	e.iface.Flags = u.flags
	e.iface.State = computeState(u.flags, e.operState)

	if !exists {
		t.entries[u.index] = e
		gen := t.bump()
		return []InterfaceEvent{t.event(InterfaceAdded, e, gen)}
	}
	if !linkChanged(before, e.iface) {
		return nil
	}

	gen := t.bump()
	var events []InterfaceEvent
	if before.State != e.iface.State {
		ev := t.event(StateChanged, e, gen)
		ev.OldState = before.State
		events = append(events, ev)
	}
	if before.MTU != e.iface.MTU {
		ev := t.event(MTUChanged, e, gen)
		ev.OldMTU = before.MTU
		events = append(events, ev)
	}
	return events
}

func (t *Table) removeLink(index int) []InterfaceEvent {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[index]
	if !ok {
		return nil
	}
	delete(t.entries, index)
	return []InterfaceEvent{t.event(InterfaceRemoved, e, t.bump())}
}

// addAddress assigns addr to the interface with the given index, creating a
// placeholder entry if the index has not been reported yet.
func (t *Table) addAddress(index int, addr Address) []InterfaceEvent {
	t.mu.Lock()
	defer t.mu.Unlock()

	var events []InterfaceEvent
	e, ok := t.entries[index]
	if !ok {
		e = &entry{iface: NetworkInterface{Index: index}}
		t.entries[index] = e
		events = append(events, t.event(InterfaceAdded, e, t.bump()))
	}

	i := slices.IndexFunc(e.iface.Addresses, func(a Address) bool { return sameAddress(a, addr) })
	if i >= 0 {
		if e.iface.Addresses[i] != addr {
			e.iface.Addresses[i] = addr
			t.bump()
		}
		return events
	}

	e.iface.Addresses = append(e.iface.Addresses, addr)
	ev := t.event(AddressAdded, e, t.bump())
	ev.Address = addr
	return append(events, ev)
}

func (t *Table) removeAddress(index int, addr Address) []InterfaceEvent {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[index]
	if !ok {
		return nil
	}
	i := slices.IndexFunc(e.iface.Addresses, func(a Address) bool { return sameAddress(a, addr) })
	if i < 0 {
		return nil
	}
	removed := e.iface.Addresses[i]
	e.iface.Addresses = slices.Delete(e.iface.Addresses, i, i+1)
	ev := t.event(AddressRemoved, e, t.bump())
	ev.Address = removed
	return []InterfaceEvent{ev}
}

// syncAddresses makes the address list of index equal to addrs, reporting
// every address that appeared or disappeared.
func (t *Table) syncAddresses(index int, addrs []Address) []InterfaceEvent {
	current, ok := t.GetByIndex(index)
	if !ok {
		return nil
	}
	var events []InterfaceEvent
	for _, old := range current.Addresses {
		if !slices.ContainsFunc(addrs, func(a Address) bool { return sameAddress(a, old) }) {
			events = append(events, t.removeAddress(index, old)...)
		}
	}
	for _, a := range addrs {
		events = append(events, t.addAddress(index, a)...)
	}
	return events
}

func (t *Table) bump() uint64 {
	t.generation++
	return t.generation
}

func (t *Table) event(typ EventType, e *entry, gen uint64) InterfaceEvent {
	return InterfaceEvent{
		Type:          typ,
		InterfaceName: e.iface.Name,
		Index:         e.iface.Index,
		Interface:     e.iface.Clone(),
		Generation:    gen,
	}
}

func linkChanged(a, b NetworkInterface) bool {
	return a.Name != b.Name ||
		a.Type != b.Type ||
		!bytes.Equal(a.HardwareAddr, b.HardwareAddr) ||
		a.Flags != b.Flags ||
		a.State != b.State ||
		a.MTU != b.MTU
}

// computeState derives the operational state. An interface is up only when
// it is both administratively up and running.
func computeState(flags InterfaceFlags, operState uint8) InterfaceState {
	if flags&FlagUp == 0 {
		return StateDown
	}
	if flags&FlagRunning != 0 {
		return StateUp
	}
	switch operState {
	case nlmsg.OperNotPresent:
		return StateNotPresent
	case nlmsg.OperDown:
		return StateDown
	case nlmsg.OperLowerLayerDown:
		return StateLowerLayerDown
	case nlmsg.OperTesting:
		return StateTesting
	case nlmsg.OperDormant:
		return StateDormant
	}
	if flags&flagDormant != 0 {
		return StateDormant
	}
	return StateLowerLayerDown
}
