package state

import (
	"fmt"
	"maps"
	"net/netip"
	"slices"
)

type NodeKind int

const (
	KindRouter NodeKind = iota
	// KindPeer is a router outside the administrative domain
	KindPeer
	// KindNetwork is a plain subnet, not a router
	KindNetwork
)

func (k NodeKind) String() string {
	switch k {
	case KindRouter:
		return "router"
	case KindPeer:
		return "peer"
	case KindNetwork:
		return "network"
	}
	return fmt.Sprintf("NodeKind(%d)", int(k))
}

type Interface struct {
	Shutdown    bool
	Addr        IfaceAddr
	Description string
}

type Loopback struct {
	Addr        IfaceAddr
	Description string
}

type BgpNeighbor struct {
	// Iface is the interface on the neighbor the session binds to, "" while unresolved
	Iface       string
	Description string
}

type Node struct {
	Id        NodeId
	Kind      NodeKind
	Asn       *uint32
	Ifaces    map[string]*Interface
	Loopbacks map[string]*Loopback
	Neighbors map[NodeId]*BgpNeighbor
}

func (n *Node) clone() *Node {
	c := &Node{
		Id:        n.Id,
		Kind:      n.Kind,
		Ifaces:    make(map[string]*Interface, len(n.Ifaces)),
		Loopbacks: make(map[string]*Loopback, len(n.Loopbacks)),
		Neighbors: make(map[NodeId]*BgpNeighbor, len(n.Neighbors)),
	}
	if n.Asn != nil {
		asn := *n.Asn
		c.Asn = &asn
	}
	for k, v := range n.Ifaces {
		iface := *v
		c.Ifaces[k] = &iface
	}
	for k, v := range n.Loopbacks {
		lo := *v
		c.Loopbacks[k] = &lo
	}
	for k, v := range n.Neighbors {
		neigh := *v
		c.Neighbors[k] = &neigh
	}
	return c
}

// Topology is an in-memory Graph. Access must be done from a single goroutine.
type Topology struct {
	nodes map[NodeId]*Node
	// edges maps a directed edge to the name of its interface on the source side
	edges map[Edge]string
}

var _ Graph = (*Topology)(nil)

func NewTopology() *Topology {
	return &Topology{
		nodes: make(map[NodeId]*Node),
		edges: make(map[Edge]string),
	}
}

// Clone returns a deep copy. Callers that need all-or-nothing synthesis run it against a
// clone and keep the original on failure.
func (t *Topology) Clone() *Topology {
	c := NewTopology()
	for id, n := range t.nodes {
		c.nodes[id] = n.clone()
	}
	maps.Copy(c.edges, t.edges)
	return c
}

func (t *Topology) addNode(id NodeId, kind NodeKind) error {
	if _, ok := t.nodes[id]; ok {
		return fmt.Errorf("node %s already exists", id)
	}
	t.nodes[id] = &Node{
		Id:        id,
		Kind:      kind,
		Ifaces:    make(map[string]*Interface),
		Loopbacks: make(map[string]*Loopback),
		Neighbors: make(map[NodeId]*BgpNeighbor),
	}
	return nil
}

func (t *Topology) AddRouter(id NodeId) error {
	return t.addNode(id, KindRouter)
}

func (t *Topology) AddPeer(id NodeId) error {
	return t.addNode(id, KindPeer)
}

func (t *Topology) AddNetwork(id NodeId) error {
	return t.addNode(id, KindNetwork)
}

func (t *Topology) node(id NodeId) (*Node, error) {
	n, ok := t.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node %s: %w", id, ErrNotFound)
	}
	return n, nil
}

func (t *Topology) router(id NodeId) (*Node, error) {
	n, err := t.node(id)
	if err != nil {
		return nil, err
	}
	if n.Kind == KindNetwork {
		return nil, fmt.Errorf("node %s is not a router", id)
	}
	return n, nil
}

func (t *Topology) iface(id NodeId, name string) (*Interface, error) {
	n, err := t.router(id)
	if err != nil {
		return nil, err
	}
	iface, ok := n.Ifaces[name]
	if !ok {
		return nil, fmt.Errorf("interface %s on %s: %w", name, id, ErrNotFound)
	}
	return iface, nil
}

// Node returns a copy of the node, so the caller cannot mutate the topology through it
func (t *Topology) Node(id NodeId) (Node, error) {
	n, err := t.node(id)
	if err != nil {
		return Node{}, err
	}
	return *n.clone(), nil
}

func (t *Topology) Kind(id NodeId) (NodeKind, bool) {
	n, ok := t.nodes[id]
	if !ok {
		return 0, false
	}
	return n.Kind, true
}

func (t *Topology) nodesOf(pred func(n *Node) bool) []NodeId {
	ids := make([]NodeId, 0)
	for id, n := range t.nodes {
		if pred(n) {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

func (t *Topology) Nodes() []NodeId {
	return t.nodesOf(func(n *Node) bool { return true })
}

func (t *Topology) Networks() []NodeId {
	return t.nodesOf(func(n *Node) bool { return n.Kind == KindNetwork })
}

func (t *Topology) Routers() []NodeId {
	return t.nodesOf(func(n *Node) bool { return n.Kind != KindNetwork })
}

func (t *Topology) IsRouter(id NodeId) bool {
	n, ok := t.nodes[id]
	return ok && n.Kind != KindNetwork
}

func (t *Topology) IsPeer(id NodeId) bool {
	n, ok := t.nodes[id]
	return ok && n.Kind == KindPeer
}

func (t *Topology) IsNetwork(id NodeId) bool {
	n, ok := t.nodes[id]
	return ok && n.Kind == KindNetwork
}

// AddEdge adds the directed edge src -> dst. At least one side must be a router.
func (t *Topology) AddEdge(src, dst NodeId) error {
	if src == dst {
		return fmt.Errorf("self loop on %s", src)
	}
	if _, err := t.node(src); err != nil {
		return err
	}
	if _, err := t.node(dst); err != nil {
		return err
	}
	if !t.IsRouter(src) && !t.IsRouter(dst) {
		return fmt.Errorf("not a valid link %s -> %s, one side must be a router", src, dst)
	}
	e := Edge{src, dst}
	if _, ok := t.edges[e]; ok {
		return fmt.Errorf("duplicate edge found: %s, %s", src, dst)
	}
	t.edges[e] = ""
	return nil
}

// AddLink adds the edges in both directions
func (t *Topology) AddLink(a, b NodeId) error {
	if err := t.AddEdge(a, b); err != nil {
		return err
	}
	return t.AddEdge(b, a)
}

func (t *Topology) Edges() []Edge {
	edges := slices.Collect(maps.Keys(t.edges))
	SortPairs(edges)
	return edges
}

func (t *Topology) outEdges(src NodeId) []Edge {
	edges := make([]Edge, 0)
	for e := range t.edges {
		if e.V1 == src {
			edges = append(edges, e)
		}
	}
	SortPairs(edges)
	return edges
}

func (t *Topology) HasEdge(src, dst NodeId) bool {
	_, ok := t.edges[Edge{src, dst}]
	return ok
}

func (t *Topology) EdgeInterface(src, dst NodeId) (string, error) {
	name, ok := t.edges[Edge{src, dst}]
	if !ok {
		return "", fmt.Errorf("edge %s -> %s: %w", src, dst, ErrNotFound)
	}
	return name, nil
}

func (t *Topology) SetEdgeInterface(src, dst NodeId, iface string) error {
	e := Edge{src, dst}
	if _, ok := t.edges[e]; !ok {
		return fmt.Errorf("edge %s -> %s: %w", src, dst, ErrNotFound)
	}
	if _, err := t.iface(src, iface); err != nil {
		return err
	}
	t.edges[e] = iface
	return nil
}

func (t *Topology) AddInterface(id NodeId, name string, shutdown bool) error {
	n, err := t.router(id)
	if err != nil {
		return err
	}
	if _, ok := n.Ifaces[name]; ok {
		return fmt.Errorf("interface %s already exists on %s", name, id)
	}
	n.Ifaces[name] = &Interface{Shutdown: shutdown}
	return nil
}

// Interfaces returns the interface names of a router, sorted
func (t *Topology) Interfaces(id NodeId) []string {
	n, ok := t.nodes[id]
	if !ok {
		return nil
	}
	return slices.Sorted(maps.Keys(n.Ifaces))
}

func (t *Topology) Interface(id NodeId, name string) (Interface, error) {
	iface, err := t.iface(id, name)
	if err != nil {
		return Interface{}, err
	}
	return *iface, nil
}

func (t *Topology) IsInterfaceDown(id NodeId, name string) (bool, error) {
	iface, err := t.iface(id, name)
	if err != nil {
		return false, err
	}
	return iface.Shutdown, nil
}

func (t *Topology) SetInterfaceShutdown(id NodeId, name string, shutdown bool) error {
	iface, err := t.iface(id, name)
	if err != nil {
		return err
	}
	iface.Shutdown = shutdown
	return nil
}

func (t *Topology) SetInterfaceDescription(id NodeId, name, description string) error {
	iface, err := t.iface(id, name)
	if err != nil {
		return err
	}
	iface.Description = description
	return nil
}

func (t *Topology) InterfaceAddress(id NodeId, name string) (IfaceAddr, error) {
	iface, err := t.iface(id, name)
	if err != nil {
		return Unset, err
	}
	return iface.Addr, nil
}

func (t *Topology) SetInterfaceAddress(id NodeId, name string, addr netip.Prefix) error {
	if !addr.IsValid() {
		return fmt.Errorf("invalid address for %s on %s", name, id)
	}
	return t.setInterfaceAddr(id, name, Assigned(addr))
}

// ClearInterfaceAddress turns the interface address back into a hole
func (t *Topology) ClearInterfaceAddress(id NodeId, name string) error {
	return t.setInterfaceAddr(id, name, Unset)
}

func (t *Topology) setInterfaceAddr(id NodeId, name string, addr IfaceAddr) error {
	iface, err := t.iface(id, name)
	if err != nil {
		return err
	}
	iface.Addr = addr
	return nil
}

func faName(n int) string {
	return fmt.Sprintf("Fa%d/%d", n/2, n%2)
}

// AssignInterfaceNames names every outgoing edge that has no interface yet. Router to router
// edges get Fa0/0, Fa0/1, Fa1/0, ...; router to network edges get <router>-veth<n>.
func (t *Topology) AssignInterfaceNames() error {
	for _, id := range t.Nodes() {
		count := 0
		n := t.nodes[id]
		for _, e := range t.outEdges(id) {
			if t.edges[e] != "" {
				continue
			}
			dst := e.V2
			var name string
			switch {
			case t.IsRouter(id) && t.IsRouter(dst):
				name = faName(count)
				for n.Ifaces[name] != nil {
					count++
					name = faName(count)
				}
			case t.IsRouter(id) && t.IsNetwork(dst):
				name = fmt.Sprintf("%s-veth%d", id, count)
				for n.Ifaces[name] != nil {
					count++
					name = fmt.Sprintf("%s-veth%d", id, count)
				}
			case t.IsNetwork(id) && t.IsRouter(dst):
				continue
			default:
				return fmt.Errorf("not a valid link %s -> %s", id, dst)
			}
			n.Ifaces[name] = &Interface{
				Shutdown:    false,
				Addr:        Unset,
				Description: fmt.Sprintf("To %s", dst),
			}
			t.edges[e] = name
		}
	}
	return nil
}

func (t *Topology) SetBgpAsNumber(id NodeId, asn uint32) error {
	n, err := t.router(id)
	if err != nil {
		return err
	}
	n.Asn = &asn
	return nil
}

func (t *Topology) BgpAsNumber(id NodeId) (uint32, bool) {
	n, ok := t.nodes[id]
	if !ok || n.Asn == nil {
		return 0, false
	}
	return *n.Asn, true
}

// AddBgpNeighbor declares a session between a and b. aIface is the interface on a that b
// peers with and bIface the interface on b that a peers with; either may be "" to leave it
// for the synthesizer.
func (t *Topology) AddBgpNeighbor(a, b NodeId, aIface, bIface, description string) error {
	na, err := t.router(a)
	if err != nil {
		return err
	}
	nb, err := t.router(b)
	if err != nil {
		return err
	}
	if _, ok := na.Neighbors[b]; ok {
		return fmt.Errorf("router %s already has BGP neighbor %s configured", a, b)
	}
	if _, ok := nb.Neighbors[a]; ok {
		return fmt.Errorf("router %s already has BGP neighbor %s configured", b, a)
	}
	descA, descB := description, description
	if description == "" {
		descA = fmt.Sprintf("To %s", b)
		descB = fmt.Sprintf("To %s", a)
	}
	if len(descA) > MaxDescriptionLen || len(descB) > MaxDescriptionLen {
		return fmt.Errorf("description for session %s, %s is longer than %d", a, b, MaxDescriptionLen)
	}
	na.Neighbors[b] = &BgpNeighbor{Iface: bIface, Description: descA}
	nb.Neighbors[a] = &BgpNeighbor{Iface: aIface, Description: descB}
	return nil
}

func (t *Topology) BgpNeighbors(id NodeId) []NodeId {
	n, ok := t.nodes[id]
	if !ok {
		return nil
	}
	return slices.Sorted(maps.Keys(n.Neighbors))
}

func (t *Topology) neighbor(id, neighbor NodeId) (*BgpNeighbor, error) {
	n, err := t.node(id)
	if err != nil {
		return nil, err
	}
	neigh, ok := n.Neighbors[neighbor]
	if !ok {
		return nil, fmt.Errorf("BGP neighbor %s of %s: %w", neighbor, id, ErrNotFound)
	}
	return neigh, nil
}

func (t *Topology) BgpNeighborInterface(id, neighbor NodeId) (string, error) {
	neigh, err := t.neighbor(id, neighbor)
	if err != nil {
		return "", err
	}
	return neigh.Iface, nil
}

func (t *Topology) BgpNeighborDescription(id, neighbor NodeId) (string, error) {
	neigh, err := t.neighbor(id, neighbor)
	if err != nil {
		return "", err
	}
	return neigh.Description, nil
}

// SetBgpNeighborInterface binds the session from id to neighbor to an interface or
// loopback that exists on neighbor
func (t *Topology) SetBgpNeighborInterface(id, neighbor NodeId, iface string) error {
	neigh, err := t.neighbor(id, neighbor)
	if err != nil {
		return err
	}
	nn := t.nodes[neighbor]
	if nn.Ifaces[iface] == nil && nn.Loopbacks[iface] == nil {
		return fmt.Errorf("interface %s on %s: %w", iface, neighbor, ErrNotFound)
	}
	neigh.Iface = iface
	return nil
}

func (t *Topology) LoopbackInterfaces(id NodeId) []string {
	n, ok := t.nodes[id]
	if !ok {
		return nil
	}
	return slices.Sorted(maps.Keys(n.Loopbacks))
}

func (t *Topology) LoopbackAddress(id NodeId, name string) (IfaceAddr, error) {
	n, err := t.router(id)
	if err != nil {
		return Unset, err
	}
	lo, ok := n.Loopbacks[name]
	if !ok {
		return Unset, fmt.Errorf("loopback %s on %s: %w", name, id, ErrNotFound)
	}
	return lo.Addr, nil
}

// SetLoopbackAddress creates the loopback if needed. A loopback that already holds an
// address cannot be reassigned.
func (t *Topology) SetLoopbackAddress(id NodeId, name string, addr IfaceAddr) error {
	n, err := t.router(id)
	if err != nil {
		return err
	}
	lo, ok := n.Loopbacks[name]
	if !ok {
		n.Loopbacks[name] = &Loopback{Addr: addr}
		return nil
	}
	if !lo.Addr.IsUnset() && lo.Addr != addr {
		return fmt.Errorf("loopback %s on %s already has address %s", name, id, lo.Addr)
	}
	lo.Addr = addr
	return nil
}

func (t *Topology) SetLoopbackDescription(id NodeId, name, description string) error {
	n, err := t.router(id)
	if err != nil {
		return err
	}
	lo, ok := n.Loopbacks[name]
	if !ok {
		return fmt.Errorf("loopback %s on %s: %w", name, id, ErrNotFound)
	}
	lo.Description = description
	return nil
}
