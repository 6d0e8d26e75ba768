//go:build !linux && !darwin

package netmon

import (
	"context"

	log "github.com/sirupsen/logrus"
)

type noopBackend struct{}

// NewBackend returns a backend that reports nothing. Monitoring is not
// supported on this platform.
func NewBackend() Backend {
	return noopBackend{}
}

func (noopBackend) Capabilities() Capabilities {
	return 0
}

func (noopBackend) Start(ctx context.Context, table *Table, emit EventHandler) error {
	log.Warn("Network interface monitoring is not supported on this platform")
	emit(InterfaceEvent{Type: EnumerationCompleted})
	<-ctx.Done()
	return nil
}
