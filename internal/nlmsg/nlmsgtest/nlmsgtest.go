// Package nlmsgtest builds rtnetlink messages for tests.
package nlmsgtest

import (
	"encoding/binary"
	"net/netip"

	"github.com/dmdmdm-nz/netmond/internal/nlmsg"
)

var order = binary.NativeEndian

// Attr encodes one attribute, padded to the alignment boundary.
func Attr(typ uint16, data []byte) []byte {
	l := 4 + len(data)
	b := make([]byte, nlmsg.Align(l))
	order.PutUint16(b[0:2], uint16(l))
	order.PutUint16(b[2:4], typ)
	copy(b[4:], data)
	return b
}

// String returns a zero terminated string payload.
func String(s string) []byte {
	return append([]byte(s), 0)
}

// Uint32 returns a native endian uint32 payload.
func Uint32(v uint32) []byte {
	b := make([]byte, 4)
	order.PutUint32(b, v)
	return b
}

// Message frames body behind a netlink header and pads the result.
func Message(typ, flags uint16, seq, portID uint32, body []byte) []byte {
	l := nlmsg.HeaderLen + len(body)
	b := make([]byte, nlmsg.Align(l))
	order.PutUint32(b[0:4], uint32(l))
	order.PutUint16(b[4:6], typ)
	order.PutUint16(b[6:8], flags)
	order.PutUint32(b[8:12], seq)
	order.PutUint32(b[12:16], portID)
	copy(b[nlmsg.HeaderLen:], body)
	return b
}

// WithOrigin returns a copy of msg with its sequence number and port id
// replaced, as the kernel does for notifications caused by another socket's
// request.
func WithOrigin(msg []byte, seq, portID uint32) []byte {
	b := append([]byte(nil), msg...)
	order.PutUint32(b[8:12], seq)
	order.PutUint32(b[12:16], portID)
	return b
}

// LinkBody encodes an ifinfomsg followed by attrs.
func LinkBody(index int32, linkType uint16, flags uint32, attrs ...[]byte) []byte {
	b := make([]byte, 16)
	order.PutUint16(b[2:4], linkType)
	order.PutUint32(b[4:8], uint32(index))
	order.PutUint32(b[8:12], flags)
	for _, a := range attrs {
		b = append(b, a...)
	}
	return b
}

// Link builds an RTM_NEWLINK message carrying a name.
func Link(seq uint32, index int32, name string, flags uint32, attrs ...[]byte) []byte {
	all := append([][]byte{Attr(nlmsg.IFLAIfName, String(name))}, attrs...)
	return Message(nlmsg.RTMNewLink, nlmsg.FlagMulti, seq, 0, LinkBody(index, nlmsg.ARPHRDEther, flags, all...))
}

// DelLink builds an RTM_DELLINK message.
func DelLink(seq uint32, index int32, name string) []byte {
	return Message(nlmsg.RTMDelLink, 0, seq, 0,
		LinkBody(index, nlmsg.ARPHRDEther, 0, Attr(nlmsg.IFLAIfName, String(name))))
}

// AddrBody encodes an ifaddrmsg followed by attrs.
func AddrBody(family, prefixLen, scope uint8, index uint32, attrs ...[]byte) []byte {
	b := make([]byte, 8)
	b[0] = family
	b[1] = prefixLen
	b[3] = scope
	order.PutUint32(b[4:8], index)
	for _, a := range attrs {
		b = append(b, a...)
	}
	return b
}

// Addr builds an RTM_NEWADDR (or RTM_DELADDR when typ says so) message for prefix.
func Addr(typ uint16, seq uint32, index uint32, prefix netip.Prefix) []byte {
	family := nlmsg.FamilyInet
	if prefix.Addr().Is6() {
		family = nlmsg.FamilyInet6
	}
	ip := prefix.Addr().AsSlice()
	attrs := [][]byte{Attr(nlmsg.IFAAddress, ip)}
	if family == nlmsg.FamilyInet {
		attrs = append(attrs, Attr(nlmsg.IFALocal, ip))
	}
	body := AddrBody(family, uint8(prefix.Bits()), nlmsg.ScopeUniverse, index, attrs...)
	return Message(typ, nlmsg.FlagMulti, seq, 0, body)
}

// Route builds a route message for the given table.
func Route(typ uint16, table uint8) []byte {
	body := make([]byte, 12)
	body[0] = nlmsg.FamilyInet
	body[4] = table
	return Message(typ, 0, 0, 0, body)
}

// Done builds an NLMSG_DONE terminating the dump with sequence seq.
func Done(seq uint32) []byte {
	return Message(nlmsg.TypeDone, nlmsg.FlagMulti, seq, 0, Uint32(0))
}

// Error builds an NLMSG_ERROR reply with the given positive errno.
func Error(seq uint32, errno int32, request []byte) []byte {
	body := Uint32(uint32(-errno))
	if len(request) >= nlmsg.HeaderLen {
		body = append(body, request[:nlmsg.HeaderLen]...)
	}
	return Message(nlmsg.TypeError, 0, seq, 0, body)
}

// Concat packs several messages into one datagram.
func Concat(msgs ...[]byte) []byte {
	var b []byte
	for _, m := range msgs {
		b = append(b, m...)
	}
	return b
}
