//go:build linux

package nlmsg_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vishvananda/netlink/nl"
	"golang.org/x/sys/unix"

	"github.com/dmdmdm-nz/netmond/internal/nlmsg"
	"github.com/dmdmdm-nz/netmond/internal/nlmsg/nlmsgtest"
)

func TestConstants_MatchKernelHeaders(t *testing.T) {
	assert.Equal(t, unix.SizeofNlMsghdr, nlmsg.HeaderLen)

	assert.EqualValues(t, unix.NLMSG_NOOP, nlmsg.TypeNoop)
	assert.EqualValues(t, unix.NLMSG_ERROR, nlmsg.TypeError)
	assert.EqualValues(t, unix.NLMSG_DONE, nlmsg.TypeDone)
	assert.EqualValues(t, unix.NLMSG_OVERRUN, nlmsg.TypeOverrun)

	assert.EqualValues(t, unix.RTM_NEWLINK, nlmsg.RTMNewLink)
	assert.EqualValues(t, unix.RTM_DELLINK, nlmsg.RTMDelLink)
	assert.EqualValues(t, unix.RTM_GETLINK, nlmsg.RTMGetLink)
	assert.EqualValues(t, unix.RTM_NEWADDR, nlmsg.RTMNewAddr)
	assert.EqualValues(t, unix.RTM_DELADDR, nlmsg.RTMDelAddr)
	assert.EqualValues(t, unix.RTM_GETADDR, nlmsg.RTMGetAddr)
	assert.EqualValues(t, unix.RTM_NEWROUTE, nlmsg.RTMNewRoute)
	assert.EqualValues(t, unix.RTM_DELROUTE, nlmsg.RTMDelRoute)

	assert.EqualValues(t, unix.NLM_F_REQUEST, nlmsg.FlagRequest)
	assert.EqualValues(t, unix.NLM_F_MULTI, nlmsg.FlagMulti)
	assert.EqualValues(t, unix.NLM_F_DUMP_INTR, nlmsg.FlagDumpIntr)
	assert.EqualValues(t, unix.NLM_F_DUMP, nlmsg.FlagDump)

	assert.EqualValues(t, unix.IFLA_ADDRESS, nlmsg.IFLAAddress)
	assert.EqualValues(t, unix.IFLA_IFNAME, nlmsg.IFLAIfName)
	assert.EqualValues(t, unix.IFLA_MTU, nlmsg.IFLAMTU)
	assert.EqualValues(t, unix.IFLA_OPERSTATE, nlmsg.IFLAOperState)
	assert.EqualValues(t, unix.IFLA_EXT_MASK, nlmsg.IFLAExtMask)

	assert.EqualValues(t, unix.IFA_ADDRESS, nlmsg.IFAAddress)
	assert.EqualValues(t, unix.IFA_LOCAL, nlmsg.IFALocal)
	assert.EqualValues(t, unix.IFA_LABEL, nlmsg.IFALabel)
	assert.EqualValues(t, unix.IFA_BROADCAST, nlmsg.IFABroadcast)
	assert.EqualValues(t, unix.IFA_FLAGS, nlmsg.IFAFlags)

	assert.EqualValues(t, unix.AF_INET, nlmsg.FamilyInet)
	assert.EqualValues(t, unix.AF_INET6, nlmsg.FamilyInet6)
	assert.EqualValues(t, unix.RT_SCOPE_LINK, nlmsg.ScopeLink)
	assert.EqualValues(t, unix.RT_SCOPE_HOST, nlmsg.ScopeHost)
	assert.EqualValues(t, unix.RT_TABLE_MAIN, nlmsg.TableMain)
	assert.EqualValues(t, unix.ARPHRD_LOOPBACK, nlmsg.ARPHRDLoopback)
	assert.EqualValues(t, unix.ARPHRD_ETHER, nlmsg.ARPHRDEther)
}

// Messages serialized by the vishvananda/netlink request builder must frame
// and decode identically.
func TestScanner_DecodesNetlinkLibraryRequest(t *testing.T) {
	req := nl.NewNetlinkRequest(unix.RTM_NEWLINK, unix.NLM_F_MULTI)
	req.Seq = 77
	msg := nl.NewIfInfomsg(unix.AF_UNSPEC)
	msg.Index = 3
	msg.Flags = unix.IFF_UP | unix.IFF_RUNNING
	req.AddData(msg)
	req.AddData(nl.NewRtAttr(unix.IFLA_IFNAME, nl.ZeroTerminated("veth0")))
	req.AddData(nl.NewRtAttr(unix.IFLA_MTU, nl.Uint32Attr(1450)))

	s := nlmsg.NewScanner(req.Serialize())
	require.True(t, s.Scan())
	m := s.Message()
	assert.Equal(t, uint32(77), m.Seq)
	assert.Equal(t, nlmsg.RTMNewLink, m.Type)

	lm, err := nlmsg.ParseLink(m)
	require.NoError(t, err)
	assert.Equal(t, int32(3), lm.Index)
	assert.Equal(t, "veth0", lm.Name)
	assert.Equal(t, uint32(1450), lm.MTU)
	assert.Equal(t, uint32(unix.IFF_UP|unix.IFF_RUNNING), lm.Flags)

	assert.False(t, s.Scan())
	assert.NoError(t, s.Err())
}

func TestFixtures_MatchNetlinkLibraryEncoding(t *testing.T) {
	attr := nl.NewRtAttr(unix.IFLA_IFNAME, nl.ZeroTerminated("eth0"))
	assert.Equal(t, attr.Serialize(), nlmsgtest.Attr(nlmsg.IFLAIfName, nlmsgtest.String("eth0")))

	info := nl.NewIfInfomsg(unix.AF_UNSPEC)
	info.Index = 2
	info.Type = unix.ARPHRD_ETHER
	info.Flags = unix.IFF_UP
	assert.Equal(t, info.Serialize(), nlmsgtest.LinkBody(2, nlmsg.ARPHRDEther, unix.IFF_UP))
}
