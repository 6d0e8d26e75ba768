package announce

import (
	"context"
	"net"
	"slices"
	"sync"

	"github.com/dmdmdm-nz/zeroconf"
	log "github.com/sirupsen/logrus"

	"github.com/dmdmdm-nz/netmond/internal/netmon"
)

// ServiceType is the DNS-SD service type netmond advertises its API under.
const ServiceType = "_netmond._tcp"

const domain = "local."

type registration interface {
	Shutdown()
}

type registerFunc func(instance, service, domain string, port int, text []string, ifaces []net.Interface) (registration, error)

func zeroconfRegister(instance, service, domain string, port int, text []string, ifaces []net.Interface) (registration, error) {
	server, err := zeroconf.Register(instance, service, domain, port, text, ifaces)
	if err != nil {
		return nil, err
	}
	return server, nil
}

type advert struct {
	name  string
	addrs []netmon.Address
	reg   registration
}

// Service advertises the API over mDNS on every interface that can carry it:
// up, multicast capable, not loopback and holding at least one address. It
// follows interface events and re-registers when an interface's addresses
// change.
type Service struct {
	instance string
	port     int
	text     []string
	register registerFunc

	// NetMon subscription
	ifCh    <-chan netmon.InterfaceEvent
	ifUnsub func()

	mu     sync.Mutex
	active map[int]*advert
	closed bool
}

func NewService(instance string, port int, text []string) *Service {
	return &Service{
		instance: instance,
		port:     port,
		text:     text,
		register: zeroconfRegister,
		active:   make(map[int]*advert),
	}
}

// AttachNetmon wires the Netmon stream (must be called before Start).
func (s *Service) AttachNetmon(ch <-chan netmon.InterfaceEvent, unsub func()) {
	s.ifCh = ch
	s.ifUnsub = unsub
}

// Interfaces returns the names of the interfaces currently advertised on.
func (s *Service) Interfaces() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.active))
	for _, a := range s.active {
		names = append(names, a.name)
	}
	slices.Sort(names)
	return names
}

func (s *Service) Start(ctx context.Context) error {
	log.WithFields(log.Fields{
		"instance": s.instance,
		"service":  ServiceType,
		"port":     s.port,
	}).Info("Starting mDNS announcement service")
	defer log.Info("Stopping mDNS announcement service")
	if s.ifCh == nil {
		log.Error("AttachNetmon was not called before Start")
		<-ctx.Done()
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-s.ifCh:
			if !ok {
				return nil
			}
			s.handleNetworkInterfaceEvent(ev)
		}
	}
}

func (s *Service) Close() error {
	if s.ifUnsub != nil {
		s.ifUnsub()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	for index := range s.active {
		s.withdrawLocked(index)
	}
	return nil
}

func (s *Service) handleNetworkInterfaceEvent(ev netmon.InterfaceEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	switch ev.Type {
	case netmon.InterfaceRemoved:
		s.withdrawLocked(ev.Index)
	case netmon.InterfaceAdded, netmon.StateChanged, netmon.MTUChanged, netmon.AddressAdded, netmon.AddressRemoved:
		// Renames produce no event of their own. Every event carries the
		// current name, so a stale advert is replaced here.
		s.reconcileLocked(ev.Interface)
	}
}

func (s *Service) reconcileLocked(iface netmon.NetworkInterface) {
	if !eligible(iface) {
		s.withdrawLocked(iface.Index)
		return
	}
	if a, ok := s.active[iface.Index]; ok {
		if a.name == iface.Name && slices.Equal(a.addrs, iface.Addresses) {
			return
		}
		s.withdrawLocked(iface.Index)
	}

	logger := log.WithFields(log.Fields{
		"interface": iface.Name,
		"index":     iface.Index,
	})
	reg, err := s.register(s.instance, ServiceType, domain, s.port, s.text, []net.Interface{iface.NetInterface()})
	if err != nil {
		logger.WithError(err).Warn("Failed to advertise on interface")
		return
	}
	s.active[iface.Index] = &advert{
		name:  iface.Name,
		addrs: slices.Clone(iface.Addresses),
		reg:   reg,
	}
	logger.Info("Advertising API")
}

func (s *Service) withdrawLocked(index int) {
	a, ok := s.active[index]
	if !ok {
		return
	}
	delete(s.active, index)
	a.reg.Shutdown()
	log.WithField("interface", a.name).Info("Stopped advertising API")
}

func eligible(iface netmon.NetworkInterface) bool {
	return iface.Name != "" &&
		iface.IsUp() &&
		!iface.IsLoopback() &&
		iface.Flags&netmon.FlagMulticast != 0 &&
		len(iface.Addresses) > 0
}
