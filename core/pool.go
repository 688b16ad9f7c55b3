package core

import (
	"fmt"
	"net/netip"

	"github.com/apparentlymart/go-cidr/cidr"
	"go4.org/netipx"
)

// Advance returns the network of the same length directly after p
func Advance(p netip.Prefix) (netip.Prefix, error) {
	p = p.Masked()
	next, rolled := cidr.NextSubnet(netipx.PrefixIPNet(p), p.Bits())
	if rolled {
		return netip.Prefix{}, fmt.Errorf("no network after %s: %w", p, ErrPoolExhausted)
	}
	np, ok := netipx.FromStdIPNet(next)
	if !ok {
		return netip.Prefix{}, fmt.Errorf("no network after %s: %w", p, ErrPoolExhausted)
	}
	return np, nil
}

// Pool is a cursor into an address space that only moves forward. Networks it handed out
// are never handed out again.
type Pool struct {
	name    string
	start   netip.Prefix
	next    netip.Prefix
	drained bool
	claimed []netip.Prefix
}

func NewPool(name string, start netip.Prefix) *Pool {
	return &Pool{
		name:  name,
		start: start.Masked(),
		next:  start.Masked(),
	}
}

// Peek returns the network the next Claim hands out
func (p *Pool) Peek() (netip.Prefix, bool) {
	return p.next, !p.drained
}

// Claim hands out the current network and moves the cursor past it
func (p *Pool) Claim() (netip.Prefix, error) {
	if p.drained {
		return netip.Prefix{}, &ExhaustedError{Pool: p.name, Err: ErrPoolExhausted}
	}
	cur := p.next
	next, err := Advance(cur)
	if err != nil {
		// cur is still free, only the one after it does not exist
		p.drained = true
	} else {
		p.next = next
	}
	p.claimed = append(p.claimed, cur)
	return cur, nil
}

// Claimed returns every network handed out so far, in order
func (p *Pool) Claimed() []netip.Prefix {
	return append([]netip.Prefix(nil), p.claimed...)
}
