package nlmsg

import "fmt"

// rtmsg layout: family, dst_len, src_len, tos, table, protocol, scope, type (u8 each), flags u32.
const rtMsgLen = 12

// TableMain is the id of the main routing table.
const TableMain uint8 = 254

// RouteMessage is the fixed part of RTM_NEWROUTE / RTM_DELROUTE. Route
// attributes are not decoded.
type RouteMessage struct {
	Family   uint8
	DstLen   uint8
	Table    uint8
	Protocol uint8
	Scope    uint8
	Type     uint8
	Flags    uint32
}

// ParseRoute decodes the fixed part of a route message body.
func ParseRoute(m Message) (RouteMessage, error) {
	if m.Type != RTMNewRoute && m.Type != RTMDelRoute {
		return RouteMessage{}, fmt.Errorf("nlmsg: %s is not a route message", m.TypeName())
	}
	if len(m.Body) < rtMsgLen {
		return RouteMessage{}, ErrTruncated
	}
	b := m.Body
	return RouteMessage{
		Family:   b[0],
		DstLen:   b[1],
		Table:    b[4],
		Protocol: b[5],
		Scope:    b[6],
		Type:     b[7],
		Flags:    byteOrder.Uint32(b[8:12]),
	}, nil
}
