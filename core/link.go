package core

import (
	"net/netip"

	"github.com/encodeous/linksynth/state"
)

type side struct {
	node  state.NodeId
	iface string
	addr  state.IfaceAddr
}

func (sd side) endpoint() Endpoint {
	return Endpoint{Node: sd.node, Iface: sd.iface, Addr: sd.addr.Prefix()}
}

func (s *Synthesizer) readSide(node, peer state.NodeId) (side, error) {
	iface, err := s.g.EdgeInterface(node, peer)
	if err != nil {
		return side{}, precondition(node, err, "no edge towards %s", peer)
	}
	if iface == "" {
		return side{}, precondition(node, nil, "edge towards %s has no interface name", peer)
	}
	return side{node: node, iface: iface}, nil
}

func (s *Synthesizer) readAddr(sd *side) error {
	addr, err := s.g.InterfaceAddress(sd.node, sd.iface)
	if err != nil {
		return precondition(sd.node, err, "interface %s holds neither an address nor a hole", sd.iface)
	}
	sd.addr = addr
	return nil
}

// assignHost gives sd the lowest host of subnet that is not the address of other
func (s *Synthesizer) assignHost(sd *side, subnet netip.Prefix, other state.IfaceAddr) error {
	var avoid netip.Addr
	if !other.IsUnset() {
		avoid = other.Addr()
	}
	host, ok := pickHost(subnet, avoid)
	if !ok {
		return &ExhaustedError{Subnet: subnet, Err: ErrNoFreeHost}
	}
	addr := netip.PrefixFrom(host, subnet.Bits())
	if err := s.g.SetInterfaceAddress(sd.node, sd.iface, addr); err != nil {
		return precondition(sd.node, err, "cannot set address on %s", sd.iface)
	}
	sd.addr = state.Assigned(addr)
	s.stats.LinkAddrs++
	s.log.Debug("assigned link address", "node", sd.node, "iface", sd.iface, "addr", addr)
	return nil
}

// SynthesizeLink resolves the addresses on both ends of the link between src and dst.
// A link with two holes gets a fresh subnet from the link pool, a link with one hole
// adopts the subnet of the other end, and a link with no holes is only checked.
// src is resolved before dst, so dst never collides with src.
func (s *Synthesizer) SynthesizeLink(src, dst state.NodeId) error {
	a, err := s.readSide(src, dst)
	if err != nil {
		return err
	}
	b, err := s.readSide(dst, src)
	if err != nil {
		return err
	}
	if s.full {
		for _, sd := range []side{a, b} {
			down, err := s.g.IsInterfaceDown(sd.node, sd.iface)
			if err != nil {
				return precondition(sd.node, err, "cannot read state of %s", sd.iface)
			}
			if down {
				return &InterfaceDownError{Node: sd.node, Iface: sd.iface}
			}
		}
	}
	if err := s.readAddr(&a); err != nil {
		return err
	}
	if err := s.readAddr(&b); err != nil {
		return err
	}

	var subnet netip.Prefix
	switch {
	case a.addr.IsUnset() && b.addr.IsUnset():
		subnet, err = s.linkPool.Claim()
		if err != nil {
			return err
		}
		s.log.Debug("claimed link subnet", "src", src, "dst", dst, "subnet", subnet)
	case a.addr.IsUnset():
		subnet = b.addr.Subnet()
	case b.addr.IsUnset():
		subnet = a.addr.Subnet()
	default:
		if a.addr.Subnet() != b.addr.Subnet() {
			return &SubnetMismatchError{Src: a.endpoint(), Dst: b.endpoint()}
		}
	}

	if a.addr.IsUnset() {
		if err := s.assignHost(&a, subnet, b.addr); err != nil {
			return err
		}
	}
	if b.addr.IsUnset() {
		if err := s.assignHost(&b, subnet, a.addr); err != nil {
			return err
		}
	}
	if a.addr.Addr() == b.addr.Addr() {
		return &DuplicateAddressError{Src: a.endpoint(), Dst: b.endpoint()}
	}
	return nil
}

// SynthesizeAll names every interface, then resolves every router to router link.
// Edges touching a network are left alone.
func (s *Synthesizer) SynthesizeAll() error {
	if err := s.g.AssignInterfaceNames(); err != nil {
		return precondition("", err, "cannot assign interface names")
	}
	for _, e := range s.g.Edges() {
		if !s.g.IsRouter(e.V1) || !s.g.IsRouter(e.V2) {
			continue
		}
		if err := s.SynthesizeLink(e.V1, e.V2); err != nil {
			return err
		}
	}
	s.log.Info("link addressing complete", "assigned", s.stats.LinkAddrs)
	return nil
}
