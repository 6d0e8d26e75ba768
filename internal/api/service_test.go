package api

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/dmdmdm-nz/netmond/internal/netmon"
)

var (
	testLo = netmon.NetworkInterface{
		Index: 1,
		Name:  "lo",
		Type:  netmon.TypeLoopback,
		Flags: netmon.FlagUp | netmon.FlagRunning | netmon.FlagLoopback,
		State: netmon.StateUp,
		MTU:   65536,
		Addresses: []netmon.Address{
			{IP: netip.MustParseAddr("127.0.0.1"), PrefixLen: 8, Scope: netmon.ScopeHost},
		},
	}
	testEth0 = netmon.NetworkInterface{
		Index:        2,
		Name:         "eth0",
		Type:         netmon.TypeEthernet,
		HardwareAddr: net.HardwareAddr{0x02, 0x42, 0xac, 0x11, 0x00, 0x02},
		Flags:        netmon.FlagUp | netmon.FlagRunning | netmon.FlagBroadcast | netmon.FlagMulticast,
		State:        netmon.StateUp,
		MTU:          1500,
	}
)

func closedChan() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

func newTestServer(t *testing.T, m netmon.Monitor, rps float64) *httptest.Server {
	t.Helper()
	s := NewService("127.0.0.1", 0, m, rps)
	server := httptest.NewServer(s.Handler())
	t.Cleanup(server.Close)
	return server
}

func get(t *testing.T, url string, v any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if v != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			t.Fatalf("decoding %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

func TestHealth(t *testing.T) {
	g := NewWithT(t)
	m := NewMockMonitor(gomock.NewController(t))
	server := newTestServer(t, m, 0)

	g.Expect(get(t, server.URL+"/health", nil)).To(Equal(http.StatusOK))
}

func TestReady(t *testing.T) {
	g := NewWithT(t)
	m := NewMockMonitor(gomock.NewController(t))
	server := newTestServer(t, m, 0)

	pending := make(chan struct{})
	m.EXPECT().Enumerated().Return((<-chan struct{})(pending))
	g.Expect(get(t, server.URL+"/ready", nil)).To(Equal(http.StatusServiceUnavailable))

	m.EXPECT().Enumerated().Return(closedChan())
	g.Expect(get(t, server.URL+"/ready", nil)).To(Equal(http.StatusOK))
}

func TestCapabilities(t *testing.T) {
	g := NewWithT(t)
	m := NewMockMonitor(gomock.NewController(t))
	server := newTestServer(t, m, 0)

	m.EXPECT().Capabilities().Return(netmon.CapEnum | netmon.CapStateChange)
	m.EXPECT().Enumerated().Return(closedChan())

	var info CapabilitiesInfo
	g.Expect(get(t, server.URL+"/capabilities", &info)).To(Equal(http.StatusOK))
	g.Expect(info.Capabilities).To(Equal([]string{"enum", "state-change"}))
	g.Expect(info.Enumerated).To(BeTrue())
}

func TestListInterfaces(t *testing.T) {
	g := NewWithT(t)
	m := NewMockMonitor(gomock.NewController(t))
	server := newTestServer(t, m, 0)

	m.EXPECT().NetworkInterfaces().Return([]netmon.NetworkInterface{testLo, testEth0})

	var infos []InterfaceInfo
	g.Expect(get(t, server.URL+"/interfaces", &infos)).To(Equal(http.StatusOK))
	g.Expect(infos).To(HaveLen(2))
	g.Expect(infos[0].Name).To(Equal("lo"))
	g.Expect(infos[0].Type).To(Equal("loopback"))
	g.Expect(infos[0].Addresses).To(ConsistOf(AddressInfo{
		Address: "127.0.0.1/8",
		Family:  "ipv4",
		Scope:   "host",
	}))
	g.Expect(infos[1].Name).To(Equal("eth0"))
	g.Expect(infos[1].HardwareAddr).To(Equal("02:42:ac:11:00:02"))
	g.Expect(infos[1].Up).To(BeTrue())
	g.Expect(infos[1].MTU).To(Equal(1500))
	g.Expect(infos[1].Addresses).To(BeEmpty())
}

func TestListInterfacesEmpty(t *testing.T) {
	g := NewWithT(t)
	m := NewMockMonitor(gomock.NewController(t))
	server := newTestServer(t, m, 0)

	m.EXPECT().NetworkInterfaces().Return(nil)

	resp, err := http.Get(server.URL + "/interfaces")
	g.Expect(err).NotTo(HaveOccurred())
	defer func() {
		_ = resp.Body.Close()
	}()
	var body json.RawMessage
	g.Expect(json.NewDecoder(resp.Body).Decode(&body)).To(Succeed())
	g.Expect(string(body)).To(Equal("[]"))
}

func TestGetInterface(t *testing.T) {
	g := NewWithT(t)
	m := NewMockMonitor(gomock.NewController(t))
	server := newTestServer(t, m, 0)

	m.EXPECT().NetworkInterface("eth0").Return(testEth0, nil)

	var info InterfaceInfo
	g.Expect(get(t, server.URL+"/interfaces/eth0", &info)).To(Equal(http.StatusOK))
	g.Expect(info.Index).To(Equal(2))
	g.Expect(info.State).To(Equal("up"))
}

func TestGetInterfaceNotFound(t *testing.T) {
	g := NewWithT(t)
	m := NewMockMonitor(gomock.NewController(t))
	server := newTestServer(t, m, 0)

	m.EXPECT().NetworkInterface("wlan9").Return(netmon.NetworkInterface{}, netmon.ErrInterfaceNotFound)

	resp, err := http.Get(server.URL + "/interfaces/wlan9")
	g.Expect(err).NotTo(HaveOccurred())
	defer func() {
		_ = resp.Body.Close()
	}()
	g.Expect(resp.StatusCode).To(Equal(http.StatusNotFound))

	var e ErrorInfo
	g.Expect(json.NewDecoder(resp.Body).Decode(&e)).To(Succeed())
	g.Expect(e.Error).To(ContainSubstring("wlan9"))
}

func TestRateLimit(t *testing.T) {
	g := NewWithT(t)
	m := NewMockMonitor(gomock.NewController(t))
	// One request per second allows a burst of two.
	server := newTestServer(t, m, 1)

	limited := 0
	for range 3 {
		if get(t, server.URL+"/health", nil) == http.StatusTooManyRequests {
			limited++
		}
	}
	g.Expect(limited).To(Equal(1))
}

func dialEvents(t *testing.T, server *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/events" + query
	c, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("dialing %s: %v", url, err)
	}
	t.Cleanup(func() { _ = c.CloseNow() })
	return c
}

func readJSON(t *testing.T, c *websocket.Conn, v any) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, b, err := c.Read(ctx)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

func TestStreamEvents(t *testing.T) {
	g := NewWithT(t)
	m := NewMockMonitor(gomock.NewController(t))
	server := newTestServer(t, m, 0)

	events := make(chan netmon.InterfaceEvent, 4)
	unsubscribed := make(chan struct{})
	m.EXPECT().Subscribe().Return((<-chan netmon.InterfaceEvent)(events), func() { close(unsubscribed) })
	m.EXPECT().Capabilities().Return(netmon.CapEnum | netmon.CapIfAddRemove)

	c := dialEvents(t, server, "")

	var hello SessionInfo
	g.Expect(readJSON(t, c, &hello)).To(Succeed())
	g.Expect(hello.Session).NotTo(BeEmpty())
	g.Expect(hello.Capabilities).To(Equal([]string{"enum", "if-add-remove"}))

	events <- netmon.InterfaceEvent{
		Type:          netmon.InterfaceAdded,
		InterfaceName: "eth0",
		Index:         2,
		Interface:     testEth0,
		Generation:    7,
	}
	events <- netmon.InterfaceEvent{Type: netmon.EnumerationCompleted}

	var added EventInfo
	g.Expect(readJSON(t, c, &added)).To(Succeed())
	g.Expect(added.Type).To(Equal("INTERFACE_ADDED"))
	g.Expect(added.Interface).To(Equal("eth0"))
	g.Expect(added.Generation).To(Equal(uint64(7)))
	g.Expect(added.Details).NotTo(BeNil())
	g.Expect(added.Details.MTU).To(Equal(1500))

	var done EventInfo
	g.Expect(readJSON(t, c, &done)).To(Succeed())
	g.Expect(done).To(Equal(EventInfo{Type: "ENUMERATION_COMPLETED"}))

	close(events)
	var ignored EventInfo
	err := readJSON(t, c, &ignored)
	g.Expect(websocket.CloseStatus(err)).To(Equal(websocket.StatusGoingAway))
	g.Eventually(unsubscribed).Should(BeClosed())
}

func TestStreamEventsFiltersInterface(t *testing.T) {
	g := NewWithT(t)
	m := NewMockMonitor(gomock.NewController(t))
	server := newTestServer(t, m, 0)

	events := make(chan netmon.InterfaceEvent, 4)
	m.EXPECT().Subscribe().Return((<-chan netmon.InterfaceEvent)(events), func() {})
	m.EXPECT().Capabilities().Return(netmon.CapEnum)

	c := dialEvents(t, server, "?interface=eth0")

	var hello SessionInfo
	g.Expect(readJSON(t, c, &hello)).To(Succeed())

	events <- netmon.InterfaceEvent{Type: netmon.InterfaceAdded, InterfaceName: "lo", Index: 1, Interface: testLo}
	events <- netmon.InterfaceEvent{Type: netmon.NetworkStateChanged}
	events <- netmon.InterfaceEvent{
		Type:          netmon.MTUChanged,
		InterfaceName: "eth0",
		Index:         2,
		Interface:     testEth0,
		OldMTU:        9000,
	}

	var signal EventInfo
	g.Expect(readJSON(t, c, &signal)).To(Succeed())
	g.Expect(signal.Type).To(Equal("NETWORK_STATE_CHANGED"))

	var changed EventInfo
	g.Expect(readJSON(t, c, &changed)).To(Succeed())
	g.Expect(changed.Type).To(Equal("MTU_CHANGED"))
	g.Expect(changed.Interface).To(Equal("eth0"))
	g.Expect(changed.OldMTU).To(Equal(9000))
}
