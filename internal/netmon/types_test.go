package netmon

import (
	"net"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmdmdm-nz/netmond/internal/nlmsg"
)

func TestComputeState(t *testing.T) {
	tests := []struct {
		name      string
		flags     InterfaceFlags
		operState uint8
		want      InterfaceState
	}{
		{"up and running", FlagUp | FlagRunning, nlmsg.OperUp, StateUp},
		{"running wins over operstate", FlagUp | FlagRunning, nlmsg.OperDormant, StateUp},
		{"admin down", FlagRunning, nlmsg.OperUp, StateDown},
		{"admin down no flags", 0, nlmsg.OperUnknown, StateDown},
		{"no carrier", FlagUp, nlmsg.OperLowerLayerDown, StateLowerLayerDown},
		{"not present", FlagUp, nlmsg.OperNotPresent, StateNotPresent},
		{"oper down", FlagUp, nlmsg.OperDown, StateDown},
		{"testing", FlagUp, nlmsg.OperTesting, StateTesting},
		{"dormant", FlagUp, nlmsg.OperDormant, StateDormant},
		{"unknown operstate", FlagUp, nlmsg.OperUnknown, StateLowerLayerDown},
		{"unknown operstate dormant flag", FlagUp | flagDormant, nlmsg.OperUnknown, StateDormant},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, computeState(tt.flags, tt.operState))
		})
	}
}

func TestInterfaceState_String(t *testing.T) {
	assert.Equal(t, "up", StateUp.String())
	assert.Equal(t, "lower-layer-down", StateLowerLayerDown.String())
	assert.Equal(t, "unknown", StateUnknown.String())
	assert.Equal(t, "state(42)", InterfaceState(42).String())
}

func TestInterfaceFlags_String(t *testing.T) {
	assert.Equal(t, "up|broadcast|running|multicast", (FlagUp | FlagBroadcast | FlagRunning | FlagMulticast).String())
	assert.Equal(t, "loopback", FlagLoopback.String())
	assert.Equal(t, "0", InterfaceFlags(0).String())
	// Kernel-only bits are not named.
	assert.Equal(t, "up", (FlagUp | flagLowerUp).String())
}

func TestCapabilities(t *testing.T) {
	c := CapEnum | CapStateChange

	assert.True(t, c.Has(CapEnum))
	assert.True(t, c.Has(CapEnum|CapStateChange))
	assert.False(t, c.Has(CapEnum|CapMTUChange))
	assert.Equal(t, []string{"enum", "state-change"}, c.Names())
	assert.Equal(t, "enum|state-change", c.String())

	var none Capabilities
	assert.Equal(t, "none", none.String())
	assert.Empty(t, none.Names())
	assert.True(t, none.Has(0))

	all := CapEnum | CapIfAddRemove | CapStateChange | CapMTUChange | CapAddrAddRemove
	assert.Len(t, all.Names(), 5)
}

func TestAddress(t *testing.T) {
	v4 := Address{IP: netip.MustParseAddr("192.0.2.1"), PrefixLen: 24}
	v6 := Address{IP: netip.MustParseAddr("2001:db8::1"), PrefixLen: 64}

	assert.Equal(t, "192.0.2.1/24", v4.String())
	assert.Equal(t, netip.MustParsePrefix("192.0.2.1/24"), v4.Prefix())
	assert.False(t, v4.Is6())
	assert.True(t, v6.Is6())
	assert.Equal(t, FamilyIPv4, v4.Family())
	assert.Equal(t, FamilyIPv6, v6.Family())
	assert.Equal(t, "ipv6", v6.Family().String())
	mapped := Address{IP: netip.MustParseAddr("::ffff:192.0.2.1"), PrefixLen: 120}
	assert.Equal(t, FamilyIPv4, mapped.Family())

	assert.True(t, sameAddress(v4, Address{IP: v4.IP, PrefixLen: 24, Scope: ScopeLink}))
	assert.False(t, sameAddress(v4, Address{IP: v4.IP, PrefixLen: 16}))
}

func TestNetworkInterface_CloneIsIndependent(t *testing.T) {
	orig := NetworkInterface{
		Index:        2,
		Name:         "eth0",
		HardwareAddr: net.HardwareAddr{1, 2, 3, 4, 5, 6},
		Addresses:    []Address{{IP: netip.MustParseAddr("192.0.2.1"), PrefixLen: 24}},
	}

	c := orig.Clone()
	c.HardwareAddr[0] = 0xff
	c.Addresses[0].PrefixLen = 8

	assert.Equal(t, byte(1), orig.HardwareAddr[0])
	assert.Equal(t, 24, orig.Addresses[0].PrefixLen)
}

func TestNetworkInterface_Predicates(t *testing.T) {
	lo := NetworkInterface{Name: "lo", Type: TypeLoopback, State: StateUp}
	assert.True(t, lo.IsLoopback())
	assert.True(t, lo.IsUp())

	eth := NetworkInterface{Name: "eth0", Type: TypeEthernet, State: StateDormant}
	assert.False(t, eth.IsLoopback())
	assert.False(t, eth.IsUp())
}
