package nlmsg

import (
	"bytes"
	"errors"
)

const attrHeaderLen = 4

const (
	attrFlagNested       = 0x8000
	attrFlagNetByteorder = 0x4000
	attrTypeMask         = ^uint16(attrFlagNested | attrFlagNetByteorder)
)

// ErrMalformedAttr is returned when an attribute region cannot be walked.
var ErrMalformedAttr = errors.New("nlmsg: malformed attribute")

// ErrTruncated is returned when a message body is shorter than its fixed part.
var ErrTruncated = errors.New("nlmsg: truncated message body")

// Attr is a single type-length-value attribute.
type Attr struct {
	Type uint16
	Data []byte
}

// Attrs is a region of consecutive attributes.
type Attrs []byte

// Each calls fn for every attribute until fn returns false. It stops silently
// at the first malformed attribute; use Validate to detect that case.
func (a Attrs) Each(fn func(Attr) bool) {
	b := []byte(a)
	for len(b) >= attrHeaderLen {
		l := int(byteOrder.Uint16(b[0:2]))
		if l < attrHeaderLen || l > len(b) {
			return
		}
		at := Attr{
			Type: byteOrder.Uint16(b[2:4]) & attrTypeMask,
			Data: b[attrHeaderLen:l],
		}
		if !fn(at) {
			return
		}
		b = b[min(Align(l), len(b)):]
	}
}

// Lookup returns the data of the first attribute of type typ.
func (a Attrs) Lookup(typ uint16) ([]byte, bool) {
	var (
		data  []byte
		found bool
	)
	a.Each(func(at Attr) bool {
		if at.Type == typ {
			data, found = at.Data, true
			return false
		}
		return true
	})
	return data, found
}

// Validate checks that the whole region is made of well formed attributes.
func (a Attrs) Validate() error {
	b := []byte(a)
	for len(b) > 0 {
		if len(b) < attrHeaderLen {
			return ErrMalformedAttr
		}
		l := int(byteOrder.Uint16(b[0:2]))
		if l < attrHeaderLen || l > len(b) {
			return ErrMalformedAttr
		}
		b = b[min(Align(l), len(b)):]
	}
	return nil
}

func attrString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

func attrUint32(b []byte) (uint32, bool) {
	if len(b) < 4 {
		return 0, false
	}
	return byteOrder.Uint32(b), true
}
