package core

import (
	"net/netip"

	"github.com/encodeous/linksynth/state"
)

// AssignLoopbacks gives every loopback hole a network from the loopback pool. Routers and
// loopbacks are visited in sorted order so repeated runs hand out the same addresses.
func (s *Synthesizer) AssignLoopbacks() error {
	for _, node := range s.g.Routers() {
		for _, lo := range s.g.LoopbackInterfaces(node) {
			addr, err := s.g.LoopbackAddress(node, lo)
			if err != nil {
				return precondition(node, err, "cannot read loopback %s", lo)
			}
			if !addr.IsUnset() {
				continue
			}
			network, err := s.loopbackPool.Claim()
			if err != nil {
				return err
			}
			p := netip.PrefixFrom(firstHost(network), network.Bits())
			if err := s.g.SetLoopbackAddress(node, lo, state.Assigned(p)); err != nil {
				return precondition(node, err, "cannot set address on loopback %s", lo)
			}
			s.stats.LoopbackAddrs++
			s.log.Debug("assigned loopback address", "node", node, "iface", lo, "addr", p)
		}
	}
	s.log.Info("loopback addressing complete", "assigned", s.stats.LoopbackAddrs)
	return nil
}
