package core

import (
	"errors"
	"fmt"
	"net/netip"

	"github.com/encodeous/linksynth/state"
)

var (
	ErrInterfaceDown    = errors.New("interface is down")
	ErrSubnetMismatch   = errors.New("subnets do not match")
	ErrDuplicateAddress = errors.New("duplicate address")
	ErrPrecondition     = errors.New("precondition violated")
	ErrPoolExhausted    = errors.New("address pool exhausted")
	ErrNoFreeHost       = errors.New("no free host address")
)

// Endpoint is one side of a link as seen in an error
type Endpoint struct {
	Node  state.NodeId
	Iface string
	Addr  netip.Prefix
}

func (e Endpoint) String() string {
	if e.Addr.IsValid() {
		return fmt.Sprintf("%s:%s (%s)", e.Node, e.Iface, e.Addr)
	}
	return fmt.Sprintf("%s:%s", e.Node, e.Iface)
}

// InterfaceDownError is returned in full mode when a link interface is administratively down
type InterfaceDownError struct {
	Node  state.NodeId
	Iface string
}

func (e *InterfaceDownError) Error() string {
	return fmt.Sprintf("interface %s on %s is shut down but must be up", e.Iface, e.Node)
}

func (e *InterfaceDownError) Unwrap() error {
	return ErrInterfaceDown
}

// SubnetMismatchError is returned when both ends of a link are configured in different subnets
type SubnetMismatchError struct {
	Src, Dst Endpoint
}

func (e *SubnetMismatchError) Error() string {
	return fmt.Sprintf("link %s <-> %s: subnets %s and %s do not match",
		e.Src, e.Dst, e.Src.Addr.Masked(), e.Dst.Addr.Masked())
}

func (e *SubnetMismatchError) Unwrap() error {
	return ErrSubnetMismatch
}

// DuplicateAddressError is returned when both ends of a link hold the same host address
type DuplicateAddressError struct {
	Src, Dst Endpoint
}

func (e *DuplicateAddressError) Error() string {
	return fmt.Sprintf("link %s <-> %s: both ends use %s", e.Src, e.Dst, e.Src.Addr.Addr())
}

func (e *DuplicateAddressError) Unwrap() error {
	return ErrDuplicateAddress
}

// PreconditionError means the graph handed to the synthesizer is malformed or the passes
// ran out of order. It points at a defect upstream rather than a bad topology.
type PreconditionError struct {
	Node   state.NodeId
	Detail string
	Err    error
}

func (e *PreconditionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("precondition violated on %s: %s: %v", e.Node, e.Detail, e.Err)
	}
	return fmt.Sprintf("precondition violated on %s: %s", e.Node, e.Detail)
}

func (e *PreconditionError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrPrecondition, e.Err}
	}
	return []error{ErrPrecondition}
}

func precondition(node state.NodeId, err error, format string, args ...any) error {
	return &PreconditionError{Node: node, Detail: fmt.Sprintf(format, args...), Err: err}
}

// ExhaustedError is returned when a pool or a subnet has no address left to hand out
type ExhaustedError struct {
	Pool   string
	Subnet netip.Prefix
	Err    error
}

func (e *ExhaustedError) Error() string {
	if e.Subnet.IsValid() {
		return fmt.Sprintf("subnet %s: %v", e.Subnet, e.Err)
	}
	return fmt.Sprintf("%s pool: %v", e.Pool, e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}
