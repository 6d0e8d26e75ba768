package nlmsg

import (
	"fmt"
	"syscall"
)

// ErrorMessage is the body of an NLMSG_ERROR reply.
type ErrorMessage struct {
	// Errno is the positive error number, zero for an acknowledgement.
	Errno syscall.Errno
	// Request is the header of the request that failed, when echoed back.
	Request    Header
	HasRequest bool
}

// IsAck reports whether the message acknowledges a request rather than
// rejecting it.
func (e ErrorMessage) IsAck() bool {
	return e.Errno == 0
}

// ParseError decodes an NLMSG_ERROR body.
func ParseError(m Message) (ErrorMessage, error) {
	if m.Type != TypeError {
		return ErrorMessage{}, fmt.Errorf("nlmsg: %s is not an error message", m.TypeName())
	}
	if len(m.Body) < 4 {
		return ErrorMessage{}, ErrTruncated
	}
	code := int32(byteOrder.Uint32(m.Body[0:4]))
	if code < 0 {
		code = -code
	}
	em := ErrorMessage{Errno: syscall.Errno(code)}
	if h, err := ParseHeader(m.Body[4:]); err == nil {
		em.Request = h
		em.HasRequest = true
	}
	return em, nil
}
