package state

import (
	"errors"
	"net/netip"
)

var ErrNotFound = errors.New("not found")

type NodeId string

type Edge = Pair[NodeId, NodeId]

// LinkGraph is what link addressing needs from a topology
type LinkGraph interface {
	// Routers returns every router (local or peer), sorted
	Routers() []NodeId
	// Edges returns every directed edge, sorted
	Edges() []Edge
	IsRouter(node NodeId) bool
	HasEdge(src, dst NodeId) bool
	// AssignInterfaceNames gives every edge without an interface name a fresh one. It must be idempotent.
	AssignInterfaceNames() error
	// EdgeInterface returns the name of the interface on src facing dst, "" if none was assigned
	EdgeInterface(src, dst NodeId) (string, error)
	IsInterfaceDown(node NodeId, iface string) (bool, error)
	InterfaceAddress(node NodeId, iface string) (IfaceAddr, error)
	SetInterfaceAddress(node NodeId, iface string, addr netip.Prefix) error
}

// PeeringGraph is what BGP peering resolution needs from a topology
type PeeringGraph interface {
	Routers() []NodeId
	HasEdge(src, dst NodeId) bool
	EdgeInterface(src, dst NodeId) (string, error)
	BgpAsNumber(node NodeId) (uint32, bool)
	// BgpNeighbors returns the declared neighbors of node, sorted
	BgpNeighbors(node NodeId) []NodeId
	// BgpNeighborInterface returns the interface on neighbor that node peers with, "" if unresolved
	BgpNeighborInterface(node, neighbor NodeId) (string, error)
	SetBgpNeighborInterface(node, neighbor NodeId, iface string) error
	LoopbackInterfaces(node NodeId) []string
	// SetLoopbackAddress creates the loopback if it does not exist yet
	SetLoopbackAddress(node NodeId, iface string, addr IfaceAddr) error
}

// LoopbackGraph is what loopback addressing needs from a topology
type LoopbackGraph interface {
	Routers() []NodeId
	// LoopbackInterfaces returns the loopback names of node, sorted
	LoopbackInterfaces(node NodeId) []string
	LoopbackAddress(node NodeId, iface string) (IfaceAddr, error)
	SetLoopbackAddress(node NodeId, iface string, addr IfaceAddr) error
}

// Graph is the full capability set the synthesizer reads from and writes into
type Graph interface {
	LinkGraph
	PeeringGraph
	LoopbackGraph
}
