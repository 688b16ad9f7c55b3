package state

import "net/netip"

var (
	// DefaultLinkPool is where point-to-point subnets are claimed from
	DefaultLinkPool = netip.MustParsePrefix("10.0.0.0/31")
	// DefaultLoopbackPool is where loopback networks are claimed from
	DefaultLoopbackPool = netip.MustParsePrefix("192.0.0.0/32")
	// DefaultIbgpLoopback is the loopback an internal session binds to when none is configured
	DefaultIbgpLoopback = "lo100"

	// HoleText is how an unset address is written in topology files
	HoleText = "?"

	// MaxDescriptionLen is the longest description most router OSes accept
	MaxDescriptionLen = 80
)
