package core

import (
	"fmt"
	"net"
	"net/netip"

	"github.com/cilium/cilium/pkg/ip"
	"github.com/encodeous/linksynth/state"
	"github.com/gaissmai/bart"
	"go4.org/netipx"
)

// Overlap is a pair of address blocks owned by different links or loopbacks that share addresses
type Overlap struct {
	Prefix     netip.Prefix
	Owner      string
	Other      netip.Prefix
	OtherOwner string
}

func (o Overlap) String() string {
	return fmt.Sprintf("%s (%s) overlaps %s (%s)", o.Prefix, o.Owner, o.Other, o.OtherOwner)
}

type Report struct {
	Stats
	// LinkRanges and LoopbackRanges summarize what was claimed from each pool
	LinkRanges     []netip.Prefix
	LoopbackRanges []netip.Prefix
	Overlaps       []Overlap
}

func coalesce(prefixes []netip.Prefix) []netip.Prefix {
	nets := make([]*net.IPNet, 0, len(prefixes))
	for _, p := range prefixes {
		nets = append(nets, netipx.PrefixIPNet(p.Masked()))
	}
	ipv4, ipv6 := ip.CoalesceCIDRs(nets)
	out := make([]netip.Prefix, 0, len(ipv4)+len(ipv6))
	for _, n := range append(ipv4, ipv6...) {
		if p, ok := netipx.FromStdIPNet(n); ok {
			out = append(out, p)
		}
	}
	return out
}

// Report summarizes what the synthesizer did. It does not inspect the graph, see Audit.
func (s *Synthesizer) Report() Report {
	return Report{
		Stats:          s.stats,
		LinkRanges:     coalesce(s.linkPool.Claimed()),
		LoopbackRanges: coalesce(s.loopbackPool.Claimed()),
	}
}

type auditTable struct {
	table    bart.Table[string]
	overlaps []Overlap
}

func (a *auditTable) insert(p netip.Prefix, owner string) {
	p = p.Masked()
	if prev, ok := a.table.Get(p); ok {
		if prev != owner {
			a.overlaps = append(a.overlaps, Overlap{Prefix: p, Owner: owner, Other: p, OtherOwner: prev})
		}
		return
	}
	for other, otherOwner := range a.table.Supernets(p) {
		a.overlaps = append(a.overlaps, Overlap{Prefix: p, Owner: owner, Other: other, OtherOwner: otherOwner})
	}
	for other, otherOwner := range a.table.Subnets(p) {
		a.overlaps = append(a.overlaps, Overlap{Prefix: p, Owner: owner, Other: other, OtherOwner: otherOwner})
	}
	a.table.Insert(p, owner)
}

// Audit looks for address blocks that are used by more than one link or loopback. Such
// topologies are legal as far as the synthesizer is concerned, so overlaps are reported
// rather than rejected. Holes are skipped.
func Audit(g state.Graph) ([]Overlap, error) {
	var a auditTable
	for _, e := range g.Edges() {
		if e.V1 > e.V2 || !g.IsRouter(e.V1) || !g.IsRouter(e.V2) {
			continue
		}
		owner := fmt.Sprintf("link %s-%s", e.V1, e.V2)
		for _, end := range []state.Edge{e, e.Flip()} {
			iface, err := g.EdgeInterface(end.V1, end.V2)
			if err != nil {
				return nil, err
			}
			if iface == "" {
				continue
			}
			addr, err := g.InterfaceAddress(end.V1, iface)
			if err != nil {
				return nil, err
			}
			if !addr.IsUnset() {
				a.insert(addr.Prefix(), owner)
			}
		}
	}
	for _, node := range g.Routers() {
		for _, lo := range g.LoopbackInterfaces(node) {
			addr, err := g.LoopbackAddress(node, lo)
			if err != nil {
				return nil, err
			}
			if !addr.IsUnset() {
				a.insert(addr.Prefix(), fmt.Sprintf("loopback %s:%s", node, lo))
			}
		}
	}
	return a.overlaps, nil
}
