package core

import (
	"slices"

	"github.com/encodeous/linksynth/state"
)

// ResolveNextHop returns the interface on neighbor that node should bind its session to.
// External sessions over a direct link use the link interface of the neighbor, everything
// else uses the neighbor's internal session loopback, which is created as a hole if missing.
func (s *Synthesizer) ResolveNextHop(node, neighbor state.NodeId) (string, error) {
	nodeAs, _ := s.g.BgpAsNumber(node)
	neighAs, _ := s.g.BgpAsNumber(neighbor)
	if nodeAs != neighAs && s.g.HasEdge(neighbor, node) {
		iface, err := s.g.EdgeInterface(neighbor, node)
		if err != nil {
			return "", precondition(neighbor, err, "cannot read interface towards %s", node)
		}
		if iface == "" {
			return "", precondition(neighbor, nil, "edge towards %s has no interface, run link addressing first", node)
		}
		return iface, nil
	}
	if !slices.Contains(s.g.LoopbackInterfaces(neighbor), s.ibgpLoopback) {
		if err := s.g.SetLoopbackAddress(neighbor, s.ibgpLoopback, state.Unset); err != nil {
			return "", precondition(neighbor, err, "cannot create loopback %s", s.ibgpLoopback)
		}
		s.stats.Loopbacks++
		s.log.Debug("created session loopback", "node", neighbor, "iface", s.ibgpLoopback)
	}
	return s.ibgpLoopback, nil
}

// ResolveAllPeerings binds every unresolved session of every router with an AS number
func (s *Synthesizer) ResolveAllPeerings() error {
	for _, node := range s.g.Routers() {
		if _, ok := s.g.BgpAsNumber(node); !ok {
			continue
		}
		for _, neighbor := range s.g.BgpNeighbors(node) {
			iface, err := s.g.BgpNeighborInterface(node, neighbor)
			if err != nil {
				return precondition(node, err, "cannot read session towards %s", neighbor)
			}
			if iface == "" {
				iface, err = s.ResolveNextHop(node, neighbor)
				if err != nil {
					return err
				}
				if err := s.g.SetBgpNeighborInterface(node, neighbor, iface); err != nil {
					return precondition(node, err, "cannot bind session towards %s", neighbor)
				}
				s.stats.Peerings++
				s.log.Debug("bound session", "node", node, "neighbor", neighbor, "iface", iface)
			}
			if iface == "" {
				return precondition(node, nil, "session towards %s is unbound, run link addressing first", neighbor)
			}
		}
	}
	s.log.Info("peering resolution complete", "bound", s.stats.Peerings, "loopbacks", s.stats.Loopbacks)
	return nil
}
