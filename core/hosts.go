package core

import (
	"net/netip"

	"go4.org/netipx"
)

// hostRange returns the first and last usable host of a subnet. IPv4 drops the network and
// broadcast address unless the subnet is a /31, IPv6 drops the subnet-router anycast address
// unless the subnet is a /127. Single address subnets have no hosts.
func hostRange(subnet netip.Prefix) (first, last netip.Addr, ok bool) {
	subnet = subnet.Masked()
	first, last = subnet.Addr(), netipx.PrefixLastIP(subnet)
	hostBits := subnet.Addr().BitLen() - subnet.Bits()
	switch {
	case hostBits == 0:
		return netip.Addr{}, netip.Addr{}, false
	case hostBits == 1:
		return first, last, true
	case subnet.Addr().Is4():
		return first.Next(), last.Prev(), true
	default:
		return first.Next(), last, true
	}
}

// pickHost returns the lowest host of subnet that is not avoid. avoid may be invalid.
func pickHost(subnet netip.Prefix, avoid netip.Addr) (netip.Addr, bool) {
	first, last, ok := hostRange(subnet)
	if !ok {
		return netip.Addr{}, false
	}
	for a := first; a.IsValid() && a.Compare(last) <= 0; a = a.Next() {
		if a != avoid {
			return a, true
		}
	}
	return netip.Addr{}, false
}

// firstHost is the address a loopback takes from a freshly claimed network
func firstHost(subnet netip.Prefix) netip.Addr {
	if first, _, ok := hostRange(subnet); ok {
		return first
	}
	return subnet.Masked().Addr()
}
