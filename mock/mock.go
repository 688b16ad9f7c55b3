package mock

import (
	"fmt"
	"net/netip"

	"github.com/encodeous/linksynth/state"
)

// Mutation is one write the synthesizer made to a graph
type Mutation struct {
	Op    string
	Node  state.NodeId
	Iface string
	Value string
}

func (m Mutation) String() string {
	return fmt.Sprintf("%s %s:%s=%s", m.Op, m.Node, m.Iface, m.Value)
}

// RecordingGraph forwards every call to the wrapped graph and records the writes
type RecordingGraph struct {
	state.Graph
	Mutations []Mutation
}

func NewRecordingGraph(g state.Graph) *RecordingGraph {
	return &RecordingGraph{Graph: g}
}

func (r *RecordingGraph) record(op string, node state.NodeId, iface, value string) {
	r.Mutations = append(r.Mutations, Mutation{Op: op, Node: node, Iface: iface, Value: value})
}

func (r *RecordingGraph) SetInterfaceAddress(node state.NodeId, iface string, addr netip.Prefix) error {
	r.record("iface", node, iface, addr.String())
	return r.Graph.SetInterfaceAddress(node, iface, addr)
}

func (r *RecordingGraph) SetBgpNeighborInterface(node, neighbor state.NodeId, iface string) error {
	r.record("session", node, string(neighbor), iface)
	return r.Graph.SetBgpNeighborInterface(node, neighbor, iface)
}

func (r *RecordingGraph) SetLoopbackAddress(node state.NodeId, iface string, addr state.IfaceAddr) error {
	r.record("loopback", node, iface, addr.String())
	return r.Graph.SetLoopbackAddress(node, iface, addr)
}

// Two builds the smallest topology there is: r1 and r2 joined by one link, both ends named
// Fa0/0 and up, with the given addresses
func Two(a, b state.IfaceAddr) *state.Topology {
	t := state.NewTopology()
	must(t.AddRouter("r1"))
	must(t.AddRouter("r2"))
	must(t.AddLink("r1", "r2"))
	for _, end := range []struct {
		src, dst state.NodeId
		addr     state.IfaceAddr
	}{{"r1", "r2", a}, {"r2", "r1", b}} {
		must(t.AddInterface(end.src, "Fa0/0", false))
		must(t.SetEdgeInterface(end.src, end.dst, "Fa0/0"))
		if !end.addr.IsUnset() {
			must(t.SetInterfaceAddress(end.src, "Fa0/0", end.addr.Prefix()))
		}
	}
	return t
}

// IBGP builds r1 - r2 - r3 in a line, all in AS 100, with sessions r1-r2, r1-r3 and r2-r3
// and a peer ext in AS 200 linked to and peering with r1. Interfaces are left unnamed.
func IBGP() *state.Topology {
	t := state.NewTopology()
	for _, r := range []state.NodeId{"r1", "r2", "r3"} {
		must(t.AddRouter(r))
		must(t.SetBgpAsNumber(r, 100))
	}
	must(t.AddPeer("ext"))
	must(t.SetBgpAsNumber("ext", 200))
	must(t.AddLink("r1", "r2"))
	must(t.AddLink("r2", "r3"))
	must(t.AddLink("ext", "r1"))
	must(t.AddBgpNeighbor("r1", "r2", "", "", ""))
	must(t.AddBgpNeighbor("r1", "r3", "", "", ""))
	must(t.AddBgpNeighbor("r2", "r3", "", "", ""))
	must(t.AddBgpNeighbor("ext", "r1", "", "", ""))
	return t
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}
