package netmon

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/dmdmdm-nz/netmond/internal/nlmsg"
)

type phase int

const (
	phaseIdle phase = iota
	phaseEnumeratingLinks
	phaseEnumeratingAddresses
	phaseLive
	phaseFailed
)

func (p phase) String() string {
	switch p {
	case phaseIdle:
		return "idle"
	case phaseEnumeratingLinks:
		return "enumerating links"
	case phaseEnumeratingAddresses:
		return "enumerating addresses"
	case phaseLive:
		return "live"
	default:
		return "failed"
	}
}

// maxDeferred bounds the unsolicited messages held back while a dump is in
// progress.
const maxDeferred = 4096

// dumpRequester sends a dump request for msgType tagged with seq.
type dumpRequester interface {
	sendDumpRequest(msgType uint16, seq uint32) error
}

type pendingRequest struct {
	seq     uint32
	request uint16
	reply   uint16
	phase   phase
}

// enumerator drives the link dump, then the address dump, then applies live
// notifications. It is not safe for concurrent use; the read loop is its only
// caller.
type enumerator struct {
	table     *Table
	requester dumpRequester
	portID    uint32
	emit      EventHandler

	phase    phase
	pending  *pendingRequest
	seq      uint32
	deferred []nlmsg.Message
}

func newEnumerator(table *Table, requester dumpRequester, portID, seq uint32, emit EventHandler) *enumerator {
	return &enumerator{
		table:     table,
		requester: requester,
		portID:    portID,
		seq:       seq,
		emit:      emit,
	}
}

// start requests the link dump.
func (e *enumerator) start() error {
	return e.request(nlmsg.RTMGetLink, nlmsg.RTMNewLink, phaseEnumeratingLinks)
}

func (e *enumerator) request(msgType, reply uint16, next phase) error {
	seq := e.nextSeq()
	if err := e.requester.sendDumpRequest(msgType, seq); err != nil {
		e.phase = phaseFailed
		return fmt.Errorf("sending %s dump request: %w", nlmsg.TypeName(msgType), err)
	}
	e.pending = &pendingRequest{seq: seq, request: msgType, reply: reply, phase: next}
	e.phase = next

	log.WithFields(log.Fields{
		"request": nlmsg.TypeName(msgType),
		"seq":     seq,
	}).Debug("Sent dump request")
	return nil
}

func (e *enumerator) nextSeq() uint32 {
	e.seq++
	if e.seq == 0 {
		// Zero marks unsolicited messages.
		e.seq++
	}
	return e.seq
}

// handle processes one message. The returned error is fatal to the monitor.
func (e *enumerator) handle(m nlmsg.Message) error {
	promMessages.WithLabelValues(m.TypeName()).Inc()

	if e.phase == phaseFailed {
		e.drop(m, "failed")
		return nil
	}
	if e.isReply(m) {
		return e.handleReply(m)
	}

	switch m.Type {
	case nlmsg.TypeDone, nlmsg.TypeError, nlmsg.TypeNoop:
		// Control messages are only meaningful as replies.
		e.drop(m, "unsolicited-control")
		return nil
	}
	if m.Seq != 0 && m.PortID == e.portID {
		// Only dumps are ever sent on this socket, so this is a late reply to
		// one that already finished.
		e.drop(m, "stale-sequence")
		return nil
	}

	// Notifications caused by another process's request carry its sequence
	// number and port id. They are changes like any other.
	if e.phase != phaseLive {
		e.deferMessage(m)
		return nil
	}
	e.apply(m)
	return nil
}

// isReply reports whether m answers the pending dump request.
func (e *enumerator) isReply(m nlmsg.Message) bool {
	if e.pending == nil || m.Seq == 0 || m.Seq != e.pending.seq {
		return false
	}
	return m.PortID == 0 || m.PortID == e.portID
}

func (e *enumerator) handleReply(m nlmsg.Message) error {
	if m.Flags&nlmsg.FlagDumpIntr != 0 {
		log.WithFields(log.Fields{
			"phase": e.phase.String(),
			"seq":   m.Seq,
		}).Warn("Netlink dump was interrupted, interface data may be inconsistent")
	}

	switch m.Type {
	case nlmsg.TypeDone:
		return e.completePhase()
	case nlmsg.TypeError:
		return e.handleError(m)
	case e.pending.reply:
		e.apply(m)
	default:
		e.drop(m, "unexpected-reply")
	}
	return nil
}

func (e *enumerator) completePhase() error {
	done := e.pending
	e.pending = nil

	switch done.phase {
	case phaseEnumeratingLinks:
		log.WithField("interfaces", e.table.Len()).Debug("Link enumeration complete")
		return e.request(nlmsg.RTMGetAddr, nlmsg.RTMNewAddr, phaseEnumeratingAddresses)
	case phaseEnumeratingAddresses:
		e.phase = phaseLive
		promInterfaces.Set(float64(e.table.Len()))
		log.WithFields(log.Fields{
			"interfaces": e.table.Len(),
			"deferred":   len(e.deferred),
		}).Info("Network interface enumeration complete")

		e.emit(InterfaceEvent{Type: EnumerationCompleted})
		e.replayDeferred()
	}
	return nil
}

func (e *enumerator) handleError(m nlmsg.Message) error {
	em, err := nlmsg.ParseError(m)
	if err != nil {
		log.WithError(err).Warn("Discarding malformed netlink error message")
		e.drop(m, "malformed")
		return nil
	}
	if em.IsAck() {
		log.WithField("seq", m.Seq).Trace("Netlink request acknowledged")
		return nil
	}

	failed := e.pending
	e.pending = nil
	e.phase = phaseFailed
	return &EnumerationError{
		Phase:   failed.phase.String(),
		Request: failed.request,
		Errno:   em.Errno,
	}
}

func (e *enumerator) deferMessage(m nlmsg.Message) {
	if len(e.deferred) >= maxDeferred {
		log.WithField("type", m.TypeName()).Warn("Too many notifications during enumeration, dropping")
		e.drop(m, "defer-overflow")
		return
	}
	e.deferred = append(e.deferred, m.Clone())
}

func (e *enumerator) replayDeferred() {
	msgs := e.deferred
	e.deferred = nil
	for _, m := range msgs {
		e.apply(m)
	}
}

func (e *enumerator) apply(m nlmsg.Message) {
	switch m.Type {
	case nlmsg.RTMNewLink, nlmsg.RTMDelLink:
		e.applyLink(m)
	case nlmsg.RTMNewAddr, nlmsg.RTMDelAddr:
		e.applyAddr(m)
	case nlmsg.RTMNewRoute, nlmsg.RTMDelRoute:
		e.applyRoute(m)
	case nlmsg.TypeOverrun:
		log.Warn("Netlink overrun reported by kernel")
		promOverruns.Inc()
	default:
		log.WithField("type", m.TypeName()).Trace("Ignoring netlink message")
	}
}

func (e *enumerator) applyLink(m nlmsg.Message) {
	lm, err := nlmsg.ParseLink(m)
	if err != nil {
		log.WithError(err).WithField("type", m.TypeName()).Warn("Discarding malformed link message")
		e.drop(m, "malformed")
		return
	}

	if m.Type == nlmsg.RTMDelLink {
		e.publish(e.table.removeLink(int(lm.Index)))
		return
	}

	u := linkUpdate{
		index:  int(lm.Index),
		flags:  InterfaceFlags(lm.Flags),
		fields: fieldType,
		typ:    interfaceType(lm.LinkType),
	}
	if lm.Has(nlmsg.LinkName) {
		u.fields |= fieldName
		u.name = lm.Name
	}
	if lm.Has(nlmsg.LinkHardwareAddr) {
		u.fields |= fieldHardwareAddr
		u.hwAddr = lm.HardwareAddr
	}
	if lm.Has(nlmsg.LinkMTU) {
		u.fields |= fieldMTU
		u.mtu = int(lm.MTU)
	}
	if lm.Has(nlmsg.LinkOperState) {
		u.fields |= fieldOperState
		u.operState = lm.OperState
	}
	e.publish(e.table.updateLink(u))
}

func (e *enumerator) applyAddr(m nlmsg.Message) {
	am, err := nlmsg.ParseAddr(m)
	if err != nil {
		log.WithError(err).WithField("type", m.TypeName()).Warn("Discarding malformed address message")
		e.drop(m, "malformed")
		return
	}
	if am.Family != nlmsg.FamilyInet && am.Family != nlmsg.FamilyInet6 {
		log.WithField("family", am.Family).Trace("Ignoring address of unsupported family")
		return
	}
	if !am.Address.IsValid() {
		log.WithField("index", am.Index).Warn("Discarding address message without an address")
		e.drop(m, "malformed")
		return
	}

	addr := Address{
		IP:        am.Address,
		Broadcast: am.Broadcast,
		PrefixLen: int(am.PrefixLen),
		Scope:     addressScope(am.Scope),
		Flags:     am.Flags,
	}
	if m.Type == nlmsg.RTMDelAddr {
		e.publish(e.table.removeAddress(int(am.Index), addr))
	} else {
		e.publish(e.table.addAddress(int(am.Index), addr))
	}
}

func (e *enumerator) applyRoute(m nlmsg.Message) {
	rm, err := nlmsg.ParseRoute(m)
	if err != nil {
		log.WithError(err).Warn("Discarding malformed route message")
		e.drop(m, "malformed")
		return
	}
	if rm.Table != nlmsg.TableMain {
		return
	}
	log.WithFields(log.Fields{
		"type":   m.TypeName(),
		"family": rm.Family,
		"dstLen": rm.DstLen,
	}).Trace("Route changed")
	e.emit(InterfaceEvent{Type: NetworkStateChanged})
}

func (e *enumerator) publish(events []InterfaceEvent) {
	publishEvents(e.table, e.emit, events)
}

func (e *enumerator) drop(m nlmsg.Message, reason string) {
	promDropped.WithLabelValues(reason).Inc()
	log.WithFields(log.Fields{
		"type":   m.TypeName(),
		"seq":    m.Seq,
		"port":   m.PortID,
		"reason": reason,
	}).Trace("Dropping netlink message")
}

func interfaceType(linkType uint16) InterfaceType {
	switch linkType {
	case nlmsg.ARPHRDLoopback:
		return TypeLoopback
	case nlmsg.ARPHRDEther:
		return TypeEthernet
	default:
		return TypeUnknown
	}
}

func addressScope(scope uint8) AddressScope {
	switch scope {
	case nlmsg.ScopeNowhere:
		return ScopeNowhere
	case nlmsg.ScopeHost:
		return ScopeHost
	case nlmsg.ScopeLink:
		return ScopeLink
	default:
		return ScopeGlobal
	}
}
