package netmon

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/dmdmdm-nz/netmond/internal/runtime"
)

// Service owns the interface table, runs a Backend against it and fans events
// out to subscribers. It implements Monitor.
type Service struct {
	backend Backend
	caps    Capabilities
	table   *Table

	enumerated     chan struct{}
	enumeratedOnce sync.Once

	subsMu           sync.Mutex
	subs             map[int]*runtime.SubQueue[InterfaceEvent]
	nextSubscriberID int
	closed           bool
}

var _ Monitor = (*Service)(nil)

func NewService(backend Backend) *Service {
	return &Service{
		backend:    backend,
		caps:       backend.Capabilities(),
		table:      NewTable(),
		enumerated: make(chan struct{}),
		subs:       make(map[int]*runtime.SubQueue[InterfaceEvent]),
	}
}

func (s *Service) Capabilities() Capabilities {
	return s.caps
}

func (s *Service) NetworkInterface(name string) (NetworkInterface, error) {
	iface, ok := s.table.Get(name)
	if !ok {
		return NetworkInterface{}, ErrInterfaceNotFound
	}
	return iface, nil
}

func (s *Service) NetworkInterfaces() []NetworkInterface {
	return s.table.List()
}

func (s *Service) Enumerated() <-chan struct{} {
	return s.enumerated
}

func (s *Service) Subscribe() (<-chan InterfaceEvent, func()) {
	sub := runtime.NewSubQueue[InterfaceEvent](16)

	// Register subscriber in paused mode (live events will enqueue).
	s.subsMu.Lock()
	if s.closed {
		s.subsMu.Unlock()
		sub.Close()
		return sub.Chan(), func() {}
	}
	id := s.nextSubscriberID
	s.nextSubscriberID++
	s.subs[id] = sub
	promSubscribers.Set(float64(len(s.subs)))
	s.subsMu.Unlock()

	// Anything queued so far that the snapshot already reflects is dropped.
	snapshot, gen := s.table.Snapshot()
	sub.SetFilter(func(ev InterfaceEvent) bool {
		return ev.Generation == 0 || ev.Generation > gen
	})

	adds := make([]InterfaceEvent, 0, len(snapshot))
	for _, iface := range snapshot {
		adds = append(adds, InterfaceEvent{
			Type:          InterfaceAdded,
			InterfaceName: iface.Name,
			Index:         iface.Index,
			Interface:     iface,
			Generation:    gen,
		})
	}
	sub.Preload(adds)

	// Transition to live: flush queued live events, then unpause.
	sub.SetPaused(false)

	unsub := func() {
		s.subsMu.Lock()
		if q, ok := s.subs[id]; ok {
			delete(s.subs, id)
			q.Close()
			promSubscribers.Set(float64(len(s.subs)))
		}
		s.subsMu.Unlock()
	}
	return sub.Chan(), unsub
}

// Start runs the backend until ctx is cancelled or the backend fails. When
// the backend fails the service is closed, which ends every subscription.
func (s *Service) Start(ctx context.Context) error {
	log.WithField("capabilities", s.caps).Info("Starting network interface monitoring service")

	err := s.backend.Start(ctx, s.table, s.handleEvent)
	if err != nil {
		log.WithError(err).Error("Network interface monitoring failed")
		_ = s.Close()
		return err
	}

	log.Info("Stopping network interface monitoring service")
	return nil
}

func (s *Service) Close() error {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	for id, q := range s.subs {
		q.Close()
		delete(s.subs, id)
	}
	promSubscribers.Set(0)
	return nil
}

func (s *Service) handleEvent(ev InterfaceEvent) {
	if ev.Type == EnumerationCompleted {
		s.enumeratedOnce.Do(func() { close(s.enumerated) })
	}
	if need := eventCapability(ev.Type); need != 0 && !s.caps.Has(need) {
		return
	}
	s.broadcast(ev)
}

func (s *Service) broadcast(ev InterfaceEvent) {
	promEvents.WithLabelValues(string(ev.Type)).Inc()

	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for _, sub := range s.subs {
		sub.Enqueue(ev)
	}
}

// eventCapability returns the capability a backend needs to deliver events of
// type t, or 0 if any backend may deliver them.
func eventCapability(t EventType) Capabilities {
	switch t {
	case InterfaceAdded, InterfaceRemoved:
		return CapIfAddRemove
	case StateChanged:
		return CapStateChange
	case MTUChanged:
		return CapMTUChange
	case AddressAdded, AddressRemoved:
		return CapAddrAddRemove
	default:
		return 0
	}
}
