//go:build linux

package netmon

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
)

type netlinkBackend struct{}

// NewBackend creates the Linux backend, which reads rtnetlink directly.
func NewBackend() Backend {
	return &netlinkBackend{}
}

func (b *netlinkBackend) Capabilities() Capabilities {
	return CapEnum | CapIfAddRemove | CapStateChange | CapMTUChange | CapAddrAddRemove
}

func (b *netlinkBackend) Start(ctx context.Context, table *Table, emit EventHandler) error {
	sock, err := openSocket()
	if err != nil {
		return err
	}

	log.WithField("port", sock.portID).Debug("Netlink socket open")

	return runNetlink(ctx, sock, sock, sock.portID, initialSeq(), table, emit)
}

// initialSeq seeds sequence numbers from the clock so that replies meant for
// an earlier process with the same port id are not mistaken for ours.
func initialSeq() uint32 {
	return uint32(time.Now().Unix())
}
