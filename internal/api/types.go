package api

import (
	"github.com/dmdmdm-nz/netmond/internal/netmon"
)

type AddressInfo struct {
	Address   string `json:"address" plist:"address"`
	Family    string `json:"family" plist:"family"`
	Scope     string `json:"scope" plist:"scope"`
	Broadcast string `json:"broadcast,omitempty" plist:"broadcast,omitempty"`
	Flags     uint32 `json:"flags,omitempty" plist:"flags,omitempty"`
}

type InterfaceInfo struct {
	Index        int           `json:"index" plist:"index"`
	Name         string        `json:"name" plist:"name"`
	Type         string        `json:"type" plist:"type"`
	HardwareAddr string        `json:"hardwareAddr,omitempty" plist:"hardwareAddr,omitempty"`
	State        string        `json:"state" plist:"state"`
	Up           bool          `json:"up" plist:"up"`
	Flags        string        `json:"flags" plist:"flags"`
	MTU          int           `json:"mtu" plist:"mtu"`
	Addresses    []AddressInfo `json:"addresses" plist:"addresses"`
}

type EventInfo struct {
	Type       string         `json:"type"`
	Interface  string         `json:"interface,omitempty"`
	Index      int            `json:"index,omitempty"`
	OldState   string         `json:"oldState,omitempty"`
	OldMTU     int            `json:"oldMtu,omitempty"`
	Address    *AddressInfo   `json:"address,omitempty"`
	Generation uint64         `json:"generation,omitempty"`
	Details    *InterfaceInfo `json:"details,omitempty"`
}

type CapabilitiesInfo struct {
	Capabilities []string `json:"capabilities"`
	Enumerated   bool     `json:"enumerated"`
}

// SessionInfo is the first message on an event stream.
type SessionInfo struct {
	Session      string   `json:"session"`
	Capabilities []string `json:"capabilities"`
}

type ErrorInfo struct {
	Error string `json:"error"`
}

func NewAddressInfo(a netmon.Address) AddressInfo {
	info := AddressInfo{
		Address: a.String(),
		Family:  a.Family().String(),
		Scope:   a.Scope.String(),
		Flags:   a.Flags,
	}
	if a.Broadcast.IsValid() {
		info.Broadcast = a.Broadcast.String()
	}
	return info
}

func NewInterfaceInfo(i netmon.NetworkInterface) InterfaceInfo {
	info := InterfaceInfo{
		Index:     i.Index,
		Name:      i.Name,
		Type:      i.Type.String(),
		State:     i.State.String(),
		Up:        i.IsUp(),
		Flags:     i.Flags.String(),
		MTU:       i.MTU,
		Addresses: make([]AddressInfo, 0, len(i.Addresses)),
	}
	if len(i.HardwareAddr) > 0 {
		info.HardwareAddr = i.HardwareAddr.String()
	}
	for _, a := range i.Addresses {
		info.Addresses = append(info.Addresses, NewAddressInfo(a))
	}
	return info
}

func NewEventInfo(ev netmon.InterfaceEvent) EventInfo {
	info := EventInfo{
		Type:       string(ev.Type),
		Interface:  ev.InterfaceName,
		Index:      ev.Index,
		Generation: ev.Generation,
	}
	switch ev.Type {
	case netmon.EnumerationCompleted, netmon.NetworkStateChanged:
		return info
	case netmon.StateChanged:
		info.OldState = ev.OldState.String()
	case netmon.MTUChanged:
		info.OldMTU = ev.OldMTU
	case netmon.AddressAdded, netmon.AddressRemoved:
		a := NewAddressInfo(ev.Address)
		info.Address = &a
	}
	details := NewInterfaceInfo(ev.Interface)
	info.Details = &details
	return info
}

func NewCapabilitiesInfo(m netmon.Monitor) CapabilitiesInfo {
	info := CapabilitiesInfo{Capabilities: m.Capabilities().Names()}
	select {
	case <-m.Enumerated():
		info.Enumerated = true
	default:
	}
	return info
}
