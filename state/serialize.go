package state

import (
	"fmt"
	"net/netip"
	"strings"
)

// IfaceAddr is the address state of an interface. The zero value is Unset, meaning the
// value is left for the synthesizer to fill in.
type IfaceAddr struct {
	prefix netip.Prefix
}

var Unset = IfaceAddr{}

// Assigned returns a concrete interface address. The host bits of p are kept, so
// 10.0.0.1/31 is the address 10.0.0.1 on the subnet 10.0.0.0/31.
func Assigned(p netip.Prefix) IfaceAddr {
	return IfaceAddr{prefix: p}
}

func MustParseIfaceAddr(s string) IfaceAddr {
	a, err := ParseIfaceAddr(s)
	if err != nil {
		panic(err)
	}
	return a
}

func ParseIfaceAddr(s string) (IfaceAddr, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == HoleText {
		return Unset, nil
	}
	p, err := netip.ParsePrefix(s)
	if err != nil {
		return Unset, fmt.Errorf("invalid interface address %q: %w", s, err)
	}
	return Assigned(p), nil
}

func (a IfaceAddr) IsUnset() bool {
	return !a.prefix.IsValid()
}

// Prefix returns the address together with its prefix length
func (a IfaceAddr) Prefix() netip.Prefix {
	return a.prefix
}

func (a IfaceAddr) Addr() netip.Addr {
	return a.prefix.Addr()
}

// Subnet returns the network the address lives in
func (a IfaceAddr) Subnet() netip.Prefix {
	return a.prefix.Masked()
}

func (a IfaceAddr) String() string {
	if a.IsUnset() {
		return HoleText
	}
	return a.prefix.String()
}

// IsZero lets omitempty drop holes
func (a IfaceAddr) IsZero() bool {
	return a.IsUnset()
}

func (a IfaceAddr) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *IfaceAddr) UnmarshalText(text []byte) error {
	v, err := ParseIfaceAddr(string(text))
	if err != nil {
		return err
	}
	*a = v
	return nil
}
