package netmon

import (
	"errors"
	"fmt"
	"syscall"

	"github.com/dmdmdm-nz/netmond/internal/nlmsg"
)

// ErrInterfaceNotFound is returned when no interface has the requested name.
var ErrInterfaceNotFound = errors.New("network interface not found")

// errOverrun is returned by a conn when the kernel dropped notifications
// because the socket receive buffer was full.
var errOverrun = errors.New("netlink receive buffer overrun")

// errTruncated is returned by a conn when a datagram did not fit the read
// buffer. The bytes that did fit are still returned.
var errTruncated = errors.New("netlink datagram truncated")

// EnumerationError reports that the kernel rejected a dump request. The
// monitor cannot build a complete table and stops.
type EnumerationError struct {
	Phase   string
	Request uint16
	Errno   syscall.Errno
}

func (e *EnumerationError) Error() string {
	return fmt.Sprintf("enumeration failed while %s: %s request rejected: %v", e.Phase, nlmsg.TypeName(e.Request), e.Errno)
}

func (e *EnumerationError) Unwrap() error {
	return e.Errno
}
