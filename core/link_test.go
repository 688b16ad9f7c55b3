package core

import (
	"errors"
	"fmt"
	"net/netip"
	"testing"

	"github.com/encodeous/linksynth/mock"
	"github.com/encodeous/linksynth/state"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ifaceAddr(t *testing.T, g state.LinkGraph, node state.NodeId, iface string) state.IfaceAddr {
	t.Helper()
	addr, err := g.InterfaceAddress(node, iface)
	require.NoError(t, err)
	return addr
}

func edgeAddr(t *testing.T, g state.LinkGraph, src, dst state.NodeId) state.IfaceAddr {
	t.Helper()
	iface, err := g.EdgeInterface(src, dst)
	require.NoError(t, err)
	return ifaceAddr(t, g, src, iface)
}

func synthTwo(t *testing.T, a, b string, opts Options) (*mock.RecordingGraph, error) {
	t.Helper()
	g := mock.NewRecordingGraph(mock.Two(state.MustParseIfaceAddr(a), state.MustParseIfaceAddr(b)))
	return g, New(g, opts).SynthesizeLink("r1", "r2")
}

func TestSynthesizeLink_BothHoles(t *testing.T) {
	g := mock.Two(state.Unset, state.Unset)
	s := New(g, Options{})
	require.NoError(t, s.SynthesizeLink("r1", "r2"))

	assert.Equal(t, state.MustParseIfaceAddr("10.0.0.0/31"), ifaceAddr(t, g, "r1", "Fa0/0"))
	assert.Equal(t, state.MustParseIfaceAddr("10.0.0.1/31"), ifaceAddr(t, g, "r2", "Fa0/0"))
	next, ok := s.LinkPool().Peek()
	assert.True(t, ok)
	assert.Equal(t, netip.MustParsePrefix("10.0.0.2/31"), next)
	assert.Equal(t, 2, s.Stats().LinkAddrs)
}

func TestSynthesizeLink_BothHolesLargerPool(t *testing.T) {
	g := mock.Two(state.Unset, state.Unset)
	s := New(g, Options{LinkPool: netip.MustParsePrefix("10.0.1.0/24")})
	require.NoError(t, s.SynthesizeLink("r1", "r2"))
	assert.Equal(t, state.MustParseIfaceAddr("10.0.1.1/24"), ifaceAddr(t, g, "r1", "Fa0/0"))
	assert.Equal(t, state.MustParseIfaceAddr("10.0.1.2/24"), ifaceAddr(t, g, "r2", "Fa0/0"))
}

func TestSynthesizeLink_OneSideConcrete(t *testing.T) {
	cases := []struct {
		a, b         string
		wantA, wantB string
	}{
		{"192.168.1.1/30", "?", "192.168.1.1/30", "192.168.1.2/30"},
		{"?", "192.168.1.1/30", "192.168.1.2/30", "192.168.1.1/30"},
		{"192.168.1.2/30", "?", "192.168.1.2/30", "192.168.1.1/30"},
		{"10.0.5.1/31", "?", "10.0.5.1/31", "10.0.5.0/31"},
		{"fd00::1/64", "?", "fd00::1/64", "fd00::2/64"},
	}
	for _, c := range cases {
		t.Run(fmt.Sprintf("%s-%s", c.a, c.b), func(t *testing.T) {
			g := mock.Two(state.MustParseIfaceAddr(c.a), state.MustParseIfaceAddr(c.b))
			s := New(g, Options{})
			require.NoError(t, s.SynthesizeLink("r1", "r2"))
			assert.Equal(t, state.MustParseIfaceAddr(c.wantA), ifaceAddr(t, g, "r1", "Fa0/0"))
			assert.Equal(t, state.MustParseIfaceAddr(c.wantB), ifaceAddr(t, g, "r2", "Fa0/0"))

			// the pool is only used when both ends are holes
			assert.Empty(t, s.LinkPool().Claimed())
			assert.Equal(t, 1, s.Stats().LinkAddrs)
		})
	}
}

func TestSynthesizeLink_Concrete(t *testing.T) {
	g, err := synthTwo(t, "10.0.0.1/24", "10.0.0.2/24", Options{})
	assert.NoError(t, err)
	assert.Empty(t, g.Mutations)
}

func TestSynthesizeLink_SubnetMismatch(t *testing.T) {
	for _, c := range [][2]string{
		{"10.0.0.0/31", "10.0.0.4/30"},
		{"10.0.0.1/24", "10.0.0.2/25"},
		{"10.0.0.1/24", "10.0.1.2/24"},
	} {
		g, err := synthTwo(t, c[0], c[1], Options{})
		require.ErrorIs(t, err, ErrSubnetMismatch, c)
		var mismatch *SubnetMismatchError
		require.True(t, errors.As(err, &mismatch))
		assert.Equal(t, Endpoint{Node: "r1", Iface: "Fa0/0", Addr: netip.MustParsePrefix(c[0])}, mismatch.Src)
		assert.Equal(t, Endpoint{Node: "r2", Iface: "Fa0/0", Addr: netip.MustParsePrefix(c[1])}, mismatch.Dst)
		assert.Empty(t, g.Mutations)
	}
}

func TestSynthesizeLink_DuplicateAddress(t *testing.T) {
	g, err := synthTwo(t, "10.0.0.1/24", "10.0.0.1/24", Options{})
	require.ErrorIs(t, err, ErrDuplicateAddress)
	var dup *DuplicateAddressError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, state.NodeId("r1"), dup.Src.Node)
	assert.Equal(t, state.NodeId("r2"), dup.Dst.Node)
	assert.Empty(t, g.Mutations)
}

func TestSynthesizeLink_Shutdown(t *testing.T) {
	for _, addrs := range [][2]string{{"10.0.0.1/24", "10.0.0.2/24"}, {"?", "?"}} {
		topo := mock.Two(state.MustParseIfaceAddr(addrs[0]), state.MustParseIfaceAddr(addrs[1]))
		require.NoError(t, topo.SetInterfaceShutdown("r2", "Fa0/0", true))

		assert.NoError(t, New(topo.Clone(), Options{}).SynthesizeLink("r1", "r2"))

		g := mock.NewRecordingGraph(topo)
		err := New(g, Options{Full: true}).SynthesizeLink("r1", "r2")
		require.ErrorIs(t, err, ErrInterfaceDown)
		var down *InterfaceDownError
		require.True(t, errors.As(err, &down))
		assert.Equal(t, &InterfaceDownError{Node: "r2", Iface: "Fa0/0"}, down)
		assert.Empty(t, g.Mutations)
	}
}

func TestSynthesizeLink_NoFreeHost(t *testing.T) {
	_, err := synthTwo(t, "10.0.0.1/32", "?", Options{})
	assert.ErrorIs(t, err, ErrNoFreeHost)

	// a /32 pool has no room for two hosts either
	_, err = synthTwo(t, "?", "?", Options{LinkPool: netip.MustParsePrefix("10.9.0.0/32")})
	var exhausted *ExhaustedError
	require.True(t, errors.As(err, &exhausted))
	assert.Equal(t, netip.MustParsePrefix("10.9.0.0/32"), exhausted.Subnet)
}

func TestSynthesizeLink_Preconditions(t *testing.T) {
	g := mock.Two(state.Unset, state.Unset)
	err := New(g, Options{}).SynthesizeLink("r1", "r3")
	assert.ErrorIs(t, err, ErrPrecondition)
	assert.ErrorIs(t, err, state.ErrNotFound)

	topo := state.NewTopology()
	require.NoError(t, topo.AddRouter("r1"))
	require.NoError(t, topo.AddRouter("r2"))
	require.NoError(t, topo.AddLink("r1", "r2"))
	err = New(topo, Options{}).SynthesizeLink("r1", "r2")
	var pre *PreconditionError
	require.True(t, errors.As(err, &pre))
	assert.Equal(t, state.NodeId("r1"), pre.Node)
	assert.Contains(t, pre.Error(), "no interface name")
}

func TestSynthesizeLink_Idempotent(t *testing.T) {
	g := mock.NewRecordingGraph(mock.Two(state.Unset, state.Unset))
	s := New(g, Options{})
	require.NoError(t, s.SynthesizeLink("r1", "r2"))
	require.Len(t, g.Mutations, 2)
	require.NoError(t, s.SynthesizeLink("r2", "r1"))
	require.NoError(t, s.SynthesizeLink("r1", "r2"))
	assert.Len(t, g.Mutations, 2)
}

func triangle(t *testing.T) *state.Topology {
	topo := state.NewTopology()
	for _, r := range []state.NodeId{"R1", "R2", "R3"} {
		require.NoError(t, topo.AddRouter(r))
	}
	require.NoError(t, topo.AddNetwork("LAN"))
	require.NoError(t, topo.AddLink("R1", "R2"))
	require.NoError(t, topo.AddLink("R1", "R3"))
	require.NoError(t, topo.AddLink("R2", "R3"))
	require.NoError(t, topo.AddLink("R3", "LAN"))
	return topo
}

func TestSynthesizeAll(t *testing.T) {
	topo := triangle(t)
	s := New(topo, Options{})
	require.NoError(t, s.SynthesizeAll())

	assert.Equal(t, state.MustParseIfaceAddr("10.0.0.0/31"), edgeAddr(t, topo, "R1", "R2"))
	assert.Equal(t, state.MustParseIfaceAddr("10.0.0.1/31"), edgeAddr(t, topo, "R2", "R1"))
	assert.Equal(t, state.MustParseIfaceAddr("10.0.0.2/31"), edgeAddr(t, topo, "R1", "R3"))
	assert.Equal(t, state.MustParseIfaceAddr("10.0.0.3/31"), edgeAddr(t, topo, "R3", "R1"))
	assert.Equal(t, state.MustParseIfaceAddr("10.0.0.4/31"), edgeAddr(t, topo, "R2", "R3"))
	assert.Equal(t, state.MustParseIfaceAddr("10.0.0.5/31"), edgeAddr(t, topo, "R3", "R2"))
	assert.Equal(t, 6, s.Stats().LinkAddrs)

	// the LAN side is named but left alone
	assert.True(t, edgeAddr(t, topo, "R3", "LAN").IsUnset())
	iface, err := topo.EdgeInterface("LAN", "R3")
	require.NoError(t, err)
	assert.Equal(t, "", iface)

	g := mock.NewRecordingGraph(topo)
	require.NoError(t, New(g, Options{}).SynthesizeAll())
	assert.Empty(t, g.Mutations)
}

func TestSynthesizeAll_ExtraDownLink(t *testing.T) {
	topo := triangle(t)
	require.NoError(t, topo.AssignInterfaceNames())
	iface, err := topo.EdgeInterface("R2", "R3")
	require.NoError(t, err)
	require.NoError(t, topo.SetInterfaceShutdown("R2", iface, true))
	require.NoError(t, topo.SetInterfaceAddress("R1", "Fa0/0", netip.MustParsePrefix("10.0.0.1/24")))

	require.NoError(t, New(topo.Clone(), Options{}).SynthesizeAll())

	g := mock.NewRecordingGraph(topo)
	err = New(g, Options{Full: true}).SynthesizeAll()
	assert.ErrorIs(t, err, ErrInterfaceDown)
	// links before the down one are still resolved, nothing is rolled back
	assert.NotEmpty(t, g.Mutations)
	assert.Equal(t, state.MustParseIfaceAddr("10.0.0.2/24"), edgeAddr(t, topo, "R2", "R1"))
}

func TestSynthesizeLink_SubnetAgreement(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("both ends share the claimed subnet", prop.ForAll(
		func(base uint32, bits int) bool {
			addr := netip.AddrFrom4([4]byte{byte(base >> 24), byte(base >> 16), byte(base >> 8), byte(base)})
			pool := netip.PrefixFrom(addr, bits).Masked()
			g := mock.Two(state.Unset, state.Unset)
			if err := New(g, Options{LinkPool: pool}).SynthesizeLink("r1", "r2"); err != nil {
				return false
			}
			a, _ := g.InterfaceAddress("r1", "Fa0/0")
			b, _ := g.InterfaceAddress("r2", "Fa0/0")
			return a.Subnet() == pool && b.Subnet() == pool && a.Addr() != b.Addr() &&
				pool.Contains(a.Addr()) && pool.Contains(b.Addr())
		},
		gen.UInt32(),
		gen.IntRange(8, 31),
	))

	properties.Property("one hole adopts the other subnet", prop.ForAll(
		func(base uint32, bits int) bool {
			addr := netip.AddrFrom4([4]byte{byte(base >> 24), byte(base >> 16), byte(base >> 8), byte(base)})
			concrete := netip.PrefixFrom(addr, bits)
			g := mock.Two(state.Assigned(concrete), state.Unset)
			err := New(g, Options{}).SynthesizeLink("r1", "r2")
			b, _ := g.InterfaceAddress("r2", "Fa0/0")
			if err != nil {
				// the only host left may be the concrete one, or it may be no host at all
				return errors.Is(err, ErrNoFreeHost) && b.IsUnset()
			}
			return b.Subnet() == concrete.Masked() && b.Addr() != addr
		},
		gen.UInt32(),
		gen.IntRange(8, 31),
	))

	properties.TestingRun(t)
}
