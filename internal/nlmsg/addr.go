package nlmsg

import (
	"fmt"
	"net/netip"
)

// ifaddrmsg layout: family u8, prefixlen u8, flags u8, scope u8, index u32.
const ifAddrLen = 8

// IFA_* attribute types.
const (
	IFAAddress   uint16 = 1
	IFALocal     uint16 = 2
	IFALabel     uint16 = 3
	IFABroadcast uint16 = 4
	IFAFlags     uint16 = 8
)

// Address families as used by the Linux kernel.
const (
	FamilyUnspec uint8 = 0
	FamilyInet   uint8 = 2
	FamilyInet6  uint8 = 10
)

// Route scopes.
const (
	ScopeUniverse uint8 = 0
	ScopeSite     uint8 = 200
	ScopeLink     uint8 = 253
	ScopeHost     uint8 = 254
	ScopeNowhere  uint8 = 255
)

// AddrMessage is the decoded body of RTM_NEWADDR / RTM_DELADDR.
type AddrMessage struct {
	Family    uint8
	PrefixLen uint8
	Flags     uint32
	Scope     uint8
	Index     uint32

	// Address is IFA_LOCAL when present, IFA_ADDRESS otherwise. On
	// point-to-point links IFA_ADDRESS is the peer.
	Address   netip.Addr
	Broadcast netip.Addr
	Label     string
}

// ParseAddr decodes an address message body.
func ParseAddr(m Message) (AddrMessage, error) {
	if m.Type != RTMNewAddr && m.Type != RTMDelAddr {
		return AddrMessage{}, fmt.Errorf("nlmsg: %s is not an address message", m.TypeName())
	}
	if len(m.Body) < ifAddrLen {
		return AddrMessage{}, ErrTruncated
	}
	b := m.Body
	am := AddrMessage{
		Family:    b[0],
		PrefixLen: b[1],
		Flags:     uint32(b[2]),
		Scope:     b[3],
		Index:     byteOrder.Uint32(b[4:8]),
	}

	attrs := Attrs(b[min(Align(ifAddrLen), len(b)):])
	if err := attrs.Validate(); err != nil {
		return AddrMessage{}, err
	}

	var local, address netip.Addr
	var err error
	attrs.Each(func(a Attr) bool {
		switch a.Type {
		case IFALocal:
			local, err = decodeIP(am.Family, a.Data)
		case IFAAddress:
			address, err = decodeIP(am.Family, a.Data)
		case IFABroadcast:
			am.Broadcast, err = decodeIP(am.Family, a.Data)
		case IFALabel:
			am.Label = attrString(a.Data)
		case IFAFlags:
			if v, ok := attrUint32(a.Data); ok {
				am.Flags = v
			}
		}
		return err == nil
	})
	if err != nil {
		return AddrMessage{}, err
	}
	if local.IsValid() {
		am.Address = local
	} else {
		am.Address = address
	}
	return am, nil
}

func decodeIP(family uint8, b []byte) (netip.Addr, error) {
	want := 0
	switch family {
	case FamilyInet:
		want = 4
	case FamilyInet6:
		want = 16
	default:
		// Unknown families are carried through untouched and ignored by callers.
		return netip.Addr{}, nil
	}
	if len(b) != want {
		return netip.Addr{}, fmt.Errorf("%w: address length %d for family %d", ErrMalformedAttr, len(b), family)
	}
	addr, _ := netip.AddrFromSlice(b)
	return addr, nil
}
