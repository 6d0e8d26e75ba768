// Package nlmsg frames and decodes rtnetlink messages.
//
// The kernel packs several messages into one datagram, each starting with a
// fixed 16 byte header and padded to a 4 byte boundary. A Scanner walks such a
// buffer without copying; the Message values it yields alias the buffer and
// must be cloned if they outlive it.
package nlmsg

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// HeaderLen is the size of the netlink message header.
const HeaderLen = 16

const alignTo = 4

// Message types shared by every netlink family.
const (
	TypeNoop    uint16 = 0x1
	TypeError   uint16 = 0x2
	TypeDone    uint16 = 0x3
	TypeOverrun uint16 = 0x4
)

// rtnetlink message types.
const (
	RTMNewLink  uint16 = 16
	RTMDelLink  uint16 = 17
	RTMGetLink  uint16 = 18
	RTMNewAddr  uint16 = 20
	RTMDelAddr  uint16 = 21
	RTMGetAddr  uint16 = 22
	RTMNewRoute uint16 = 24
	RTMDelRoute uint16 = 25
)

// Header flags.
const (
	FlagRequest  uint16 = 0x1
	FlagMulti    uint16 = 0x2
	FlagAck      uint16 = 0x4
	FlagEcho     uint16 = 0x8
	FlagDumpIntr uint16 = 0x10
	FlagRoot     uint16 = 0x100
	FlagMatch    uint16 = 0x200
	FlagDump            = FlagRoot | FlagMatch
)

var byteOrder = binary.NativeEndian

// ErrIncomplete is reported when the buffer ends in the middle of a message.
// More bytes are needed; nothing has been consumed.
var ErrIncomplete = errors.New("nlmsg: incomplete message")

// FramingError describes a header whose declared length cannot be valid.
type FramingError struct {
	Offset int
	Len    uint32
}

func (e *FramingError) Error() string {
	return fmt.Sprintf("nlmsg: bad message length %d at offset %d", e.Len, e.Offset)
}

// Align rounds n up to the netlink alignment boundary.
func Align(n int) int {
	return (n + alignTo - 1) &^ (alignTo - 1)
}

// Header is the fixed netlink message header.
type Header struct {
	Len    uint32
	Type   uint16
	Flags  uint16
	Seq    uint32
	PortID uint32
}

// Message is one framed netlink message. Body excludes the header and any
// trailing alignment padding.
type Message struct {
	Header
	Body []byte
}

// Clone returns a copy of m that does not alias the read buffer.
func (m Message) Clone() Message {
	body := make([]byte, len(m.Body))
	copy(body, m.Body)
	return Message{Header: m.Header, Body: body}
}

// TypeName returns a short human readable name for the message type.
func (m Message) TypeName() string {
	return TypeName(m.Type)
}

// TypeName returns a short human readable name for a message type.
func TypeName(t uint16) string {
	switch t {
	case TypeNoop:
		return "noop"
	case TypeError:
		return "error"
	case TypeDone:
		return "done"
	case TypeOverrun:
		return "overrun"
	case RTMNewLink:
		return "newlink"
	case RTMDelLink:
		return "dellink"
	case RTMGetLink:
		return "getlink"
	case RTMNewAddr:
		return "newaddr"
	case RTMDelAddr:
		return "deladdr"
	case RTMGetAddr:
		return "getaddr"
	case RTMNewRoute:
		return "newroute"
	case RTMDelRoute:
		return "delroute"
	default:
		return fmt.Sprintf("type-%d", t)
	}
}

// ParseHeader decodes a header from the first HeaderLen bytes of b.
func ParseHeader(b []byte) (Header, error) {
	if len(b) < HeaderLen {
		return Header{}, ErrIncomplete
	}
	return Header{
		Len:    byteOrder.Uint32(b[0:4]),
		Type:   byteOrder.Uint16(b[4:6]),
		Flags:  byteOrder.Uint16(b[6:8]),
		Seq:    byteOrder.Uint32(b[8:12]),
		PortID: byteOrder.Uint32(b[12:16]),
	}, nil
}

// Scanner yields the messages packed in a buffer.
//
//	s := nlmsg.NewScanner(buf)
//	for s.Scan() {
//		handle(s.Message())
//	}
//	if err := s.Err(); err != nil { ... }
//
// Scanning stops at the first incomplete or malformed message. After a
// FramingError the caller may call Resync to skip the bad message and keep
// scanning.
type Scanner struct {
	buf  []byte
	off  int
	skip int
	msg  Message
	err  error
}

// NewScanner returns a Scanner over b. The scanner never modifies b.
func NewScanner(b []byte) *Scanner {
	return &Scanner{buf: b}
}

// Scan advances to the next complete message.
func (s *Scanner) Scan() bool {
	if s.err != nil {
		return false
	}
	rest := s.buf[s.off:]
	if len(rest) == 0 {
		return false
	}
	h, err := ParseHeader(rest)
	if err != nil {
		s.err = err
		return false
	}
	if h.Len < HeaderLen {
		s.err = &FramingError{Offset: s.off, Len: h.Len}
		s.skip = min(max(Align(int(h.Len)), alignTo), len(rest))
		return false
	}
	// Compared unsigned: a declared length above MaxInt32 must not wrap.
	if uint64(h.Len) > uint64(len(rest)) {
		s.err = ErrIncomplete
		return false
	}
	s.msg = Message{Header: h, Body: rest[HeaderLen:h.Len]}
	// The last message of a datagram may omit its padding.
	s.off += min(Align(int(h.Len)), len(rest))
	return true
}

// Message returns the message found by the last successful Scan.
func (s *Scanner) Message() Message {
	return s.msg
}

// Err returns nil when the buffer was consumed exactly, ErrIncomplete when it
// ends inside a message, or a *FramingError.
func (s *Scanner) Err() error {
	return s.err
}

// Offset is the number of bytes consumed so far.
func (s *Scanner) Offset() int {
	return s.off
}

// Resync discards the message that caused a FramingError so that scanning
// can resume at the next candidate boundary. It is a no-op otherwise.
func (s *Scanner) Resync() {
	var fe *FramingError
	if !errors.As(s.err, &fe) {
		return
	}
	s.off += s.skip
	s.skip = 0
	s.err = nil
}
