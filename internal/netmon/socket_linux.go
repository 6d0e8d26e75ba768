//go:build linux

package netmon

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	log "github.com/sirupsen/logrus"
	"github.com/vishvananda/netlink/nl"
	"golang.org/x/sys/unix"
)

const (
	receiveBufferSize = 1 << 20

	// RTEXT_FILTER_SKIP_STATS keeps link dumps small.
	rtextFilterSkipStats = 0x8
)

var multicastGroups = []int{
	unix.RTNLGRP_LINK,
	unix.RTNLGRP_IPV4_IFADDR,
	unix.RTNLGRP_IPV6_IFADDR,
	unix.RTNLGRP_IPV4_ROUTE,
	unix.RTNLGRP_IPV6_ROUTE,
}

// netlinkSocket is a NETLINK_ROUTE socket subscribed to link, address and
// route notifications. Reads park in the Go poller so Close unblocks them.
type netlinkSocket struct {
	f         *os.File
	portID    uint32
	closeOnce sync.Once
	closeErr  error
}

func openSocket() (*netlinkSocket, error) {
	fd, err := unix.Socket(unix.AF_NETLINK, unix.SOCK_RAW|unix.SOCK_CLOEXEC|unix.SOCK_NONBLOCK, unix.NETLINK_ROUTE)
	if err != nil {
		return nil, fmt.Errorf("creating netlink socket: %w", err)
	}

	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_RCVBUF, receiveBufferSize); err != nil {
		log.WithError(err).Warn("Failed to raise netlink receive buffer size")
	}

	if err := unix.Bind(fd, &unix.SockaddrNetlink{Family: unix.AF_NETLINK}); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("binding netlink socket: %w", err)
	}

	sa, err := unix.Getsockname(fd)
	if err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("reading netlink socket address: %w", err)
	}
	nsa, ok := sa.(*unix.SockaddrNetlink)
	if !ok {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("unexpected netlink socket address %T", sa)
	}

	for _, group := range multicastGroups {
		if err := unix.SetsockoptInt(fd, unix.SOL_NETLINK, unix.NETLINK_ADD_MEMBERSHIP, group); err != nil {
			_ = unix.Close(fd)
			return nil, fmt.Errorf("joining netlink group %d: %w", group, err)
		}
	}

	return &netlinkSocket{
		f:      os.NewFile(uintptr(fd), "netlink-route"),
		portID: nsa.Pid,
	}, nil
}

// Read receives one datagram into b.
func (s *netlinkSocket) Read(b []byte) (int, error) {
	rc, err := s.f.SyscallConn()
	if err != nil {
		return 0, err
	}
	var (
		n, flags int
		readErr  error
	)
	err = rc.Read(func(fd uintptr) bool {
		n, _, flags, _, readErr = unix.Recvmsg(int(fd), b, nil, 0)
		return !errors.Is(readErr, unix.EAGAIN)
	})
	switch {
	case err != nil:
		return 0, err
	case errors.Is(readErr, unix.ENOBUFS):
		return 0, errOverrun
	case readErr != nil:
		return 0, readErr
	case flags&unix.MSG_TRUNC != 0:
		return n, errTruncated
	case n == 0:
		return 0, io.EOF
	}
	return n, nil
}

func (s *netlinkSocket) Close() error {
	s.closeOnce.Do(func() { s.closeErr = s.f.Close() })
	return s.closeErr
}

func (s *netlinkSocket) sendDumpRequest(msgType uint16, seq uint32) error {
	req := nl.NewNetlinkRequest(int(msgType), unix.NLM_F_DUMP)
	req.Seq = seq

	switch msgType {
	case unix.RTM_GETLINK:
		req.AddData(nl.NewIfInfomsg(unix.AF_UNSPEC))
		req.AddData(nl.NewRtAttr(unix.IFLA_EXT_MASK, nl.Uint32Attr(rtextFilterSkipStats)))
	case unix.RTM_GETADDR:
		req.AddData(nl.NewIfAddrmsg(unix.AF_UNSPEC))
	default:
		return fmt.Errorf("unsupported dump request type %d", msgType)
	}

	return s.send(req.Serialize())
}

func (s *netlinkSocket) send(b []byte) error {
	rc, err := s.f.SyscallConn()
	if err != nil {
		return err
	}
	var sendErr error
	err = rc.Write(func(fd uintptr) bool {
		sendErr = unix.Sendto(int(fd), b, 0, &unix.SockaddrNetlink{Family: unix.AF_NETLINK})
		return !errors.Is(sendErr, unix.EAGAIN)
	})
	if err != nil {
		return err
	}
	return sendErr
}
