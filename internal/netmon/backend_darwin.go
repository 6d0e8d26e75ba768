//go:build darwin

package netmon

import (
	"context"
	"fmt"
	"net"
	"os"

	log "github.com/sirupsen/logrus"
	"golang.org/x/net/route"
	"golang.org/x/sys/unix"
)

type routeBackend struct{}

// NewBackend creates the macOS backend, which follows AF_ROUTE notifications.
// Route messages carry no MTU, so MTU changes are not reported.
func NewBackend() Backend {
	return &routeBackend{}
}

func (b *routeBackend) Capabilities() Capabilities {
	return CapEnum | CapIfAddRemove | CapStateChange | CapAddrAddRemove
}

func (b *routeBackend) Start(ctx context.Context, table *Table, emit EventHandler) error {
	fd, err := unix.Socket(unix.AF_ROUTE, unix.SOCK_RAW, unix.AF_UNSPEC)
	if err != nil {
		return fmt.Errorf("creating route socket: %w", err)
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		_ = unix.Close(fd)
		return fmt.Errorf("configuring route socket: %w", err)
	}
	f := os.NewFile(uintptr(fd), "route")
	defer f.Close()

	// Close socket when context is cancelled
	stop := context.AfterFunc(ctx, func() { _ = f.Close() })
	defer stop()

	if err := b.enumerate(table, emit); err != nil {
		return err
	}
	emit(InterfaceEvent{Type: EnumerationCompleted})
	log.WithField("interfaces", table.Len()).Info("Network interface enumeration complete")

	buf := make([]byte, os.Getpagesize())
	for {
		n, err := f.Read(buf)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("reading route socket: %w", err)
		}

		msgs, err := route.ParseRIB(route.RIBTypeRoute, buf[:n])
		if err != nil {
			log.WithError(err).Trace("Ignoring unparseable route message")
			continue
		}
		for _, m := range msgs {
			switch m := m.(type) {
			case *route.InterfaceMessage:
				log.WithFields(log.Fields{
					"ifIndex": m.Index,
					"flags":   m.Flags,
				}).Trace("Received interface event")
				b.reconcile(table, m.Index, emit)
			case *route.InterfaceAddrMessage:
				log.WithField("ifIndex", m.Index).Trace("Received address event")
				b.reconcile(table, m.Index, emit)
			case *route.RouteMessage:
				emit(InterfaceEvent{Type: NetworkStateChanged})
			}
		}
	}
}

func (b *routeBackend) enumerate(table *Table, emit EventHandler) error {
	ifaces, err := net.Interfaces()
	if err != nil {
		return fmt.Errorf("listing interfaces: %w", err)
	}
	for i := range ifaces {
		addrs, err := ifaces[i].Addrs()
		if err != nil {
			log.WithError(err).WithField("interface", ifaces[i].Name).Warn("Failed to list interface addresses")
		}
		publishEvents(table, emit, reconcileInterface(table, &ifaces[i], addrs))
	}
	return nil
}

// reconcile re-reads one interface. Route messages only say that something
// changed, not what.
func (b *routeBackend) reconcile(table *Table, index int, emit EventHandler) {
	if index == 0 {
		return
	}
	iface, err := net.InterfaceByIndex(index)
	if err != nil {
		// Interface may have been removed
		publishEvents(table, emit, table.removeLink(index))
		return
	}
	addrs, err := iface.Addrs()
	if err != nil {
		log.WithError(err).WithField("interface", iface.Name).Trace("Failed to list interface addresses")
		return
	}
	publishEvents(table, emit, reconcileInterface(table, iface, addrs))
}
