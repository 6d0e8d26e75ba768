package nlmsg

import (
	"fmt"
	"net"
)

// ifinfomsg layout: family u8, pad u8, type u16, index i32, flags u32, change u32.
const ifInfoLen = 16

// IFLA_* attribute types.
const (
	IFLAAddress   uint16 = 1
	IFLABroadcast uint16 = 2
	IFLAIfName    uint16 = 3
	IFLAMTU       uint16 = 4
	IFLAOperState uint16 = 16
	IFLAExtMask   uint16 = 29
)

// ARPHRD link types we distinguish.
const (
	ARPHRDEther    uint16 = 1
	ARPHRDLoopback uint16 = 772
)

// Operational states carried in IFLA_OPERSTATE (RFC 2863).
const (
	OperUnknown        uint8 = 0
	OperNotPresent     uint8 = 1
	OperDown           uint8 = 2
	OperLowerLayerDown uint8 = 3
	OperTesting        uint8 = 4
	OperDormant        uint8 = 5
	OperUp             uint8 = 6
)

// LinkField marks which optional attributes a link message carried.
type LinkField uint8

const (
	LinkName LinkField = 1 << iota
	LinkHardwareAddr
	LinkMTU
	LinkOperState
)

// LinkMessage is the decoded body of RTM_NEWLINK / RTM_DELLINK.
type LinkMessage struct {
	Family   uint8
	LinkType uint16
	Index    int32
	Flags    uint32
	Change   uint32

	Present      LinkField
	Name         string
	HardwareAddr net.HardwareAddr
	MTU          uint32
	OperState    uint8
}

// Has reports whether the attribute f was present.
func (l LinkMessage) Has(f LinkField) bool {
	return l.Present&f != 0
}

// ParseLink decodes a link message body.
func ParseLink(m Message) (LinkMessage, error) {
	if m.Type != RTMNewLink && m.Type != RTMDelLink {
		return LinkMessage{}, fmt.Errorf("nlmsg: %s is not a link message", m.TypeName())
	}
	if len(m.Body) < ifInfoLen {
		return LinkMessage{}, ErrTruncated
	}
	b := m.Body
	lm := LinkMessage{
		Family:   b[0],
		LinkType: byteOrder.Uint16(b[2:4]),
		Index:    int32(byteOrder.Uint32(b[4:8])),
		Flags:    byteOrder.Uint32(b[8:12]),
		Change:   byteOrder.Uint32(b[12:16]),
	}

	attrs := Attrs(b[min(Align(ifInfoLen), len(b)):])
	if err := attrs.Validate(); err != nil {
		return LinkMessage{}, err
	}
	var err error
	attrs.Each(func(a Attr) bool {
		switch a.Type {
		case IFLAIfName:
			lm.Name = attrString(a.Data)
			lm.Present |= LinkName
		case IFLAAddress:
			lm.HardwareAddr = net.HardwareAddr(append([]byte(nil), a.Data...))
			lm.Present |= LinkHardwareAddr
		case IFLAMTU:
			v, ok := attrUint32(a.Data)
			if !ok {
				err = fmt.Errorf("%w: IFLA_MTU length %d", ErrMalformedAttr, len(a.Data))
				return false
			}
			lm.MTU = v
			lm.Present |= LinkMTU
		case IFLAOperState:
			if len(a.Data) < 1 {
				err = fmt.Errorf("%w: empty IFLA_OPERSTATE", ErrMalformedAttr)
				return false
			}
			lm.OperState = a.Data[0]
			lm.Present |= LinkOperState
		}
		return true
	})
	if err != nil {
		return LinkMessage{}, err
	}
	return lm, nil
}
