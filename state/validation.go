package state

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var namePattern = regexp.MustCompile("^[0-9A-Za-z._-]+$")

// interface names such as Fa0/0, GigabitEthernet0/0/1.100, lo100 or r1-veth0
var ifnamePattern = regexp.MustCompile("^[0-9A-Za-z][0-9A-Za-z./:_-]*$")

func NameValidator(s string) error {
	if !namePattern.MatchString(s) {
		return fmt.Errorf("%s is not a valid name, must match pattern %s", s, namePattern.String())
	}
	if len(s) > 100 {
		return fmt.Errorf("len(\"%s\") = %d > 100 is too long", s, len(s))
	}
	return nil
}

func IfaceNameValidator(s string) error {
	if !ifnamePattern.MatchString(s) {
		return fmt.Errorf("%s is not a valid interface name, must match pattern %s", s, ifnamePattern.String())
	}
	if len(s) > 64 {
		return fmt.Errorf("len(\"%s\") = %d > 64 is too long", s, len(s))
	}
	return nil
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("nodename", func(fl validator.FieldLevel) bool {
			return NameValidator(fl.Field().String()) == nil
		})
		_ = validate.RegisterValidation("ifname", func(fl validator.FieldLevel) bool {
			return IfaceNameValidator(fl.Field().String()) == nil
		})
	})
	return validate
}

func describeValidationErrors(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s=%s (value %v)", fe.Namespace(), fe.Tag(), fe.Param(), fe.Value()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
		}
	}
	return errors.New("invalid topology config: " + strings.Join(msgs, "; "))
}

// TopologyConfigValidator checks field formats first, then the references between nodes
func TopologyConfigValidator(cfg *TopologyCfg) error {
	if err := structValidator().Struct(cfg); err != nil {
		return describeValidationErrors(err)
	}
	ids := cfg.nodeIds()
	seen := make(map[NodeId]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			return fmt.Errorf("duplicate node id: %s", id)
		}
		seen[id] = true
	}
	for _, r := range slices.Concat(cfg.Routers, cfg.Peers) {
		names := make(map[string]bool, len(r.Interfaces))
		for _, iface := range r.Interfaces {
			if names[iface.Name] {
				return fmt.Errorf("duplicate interface %s on %s", iface.Name, r.Id)
			}
			if _, ok := r.Loopbacks[iface.Name]; ok {
				return fmt.Errorf("interface %s on %s is also declared as a loopback", iface.Name, r.Id)
			}
			names[iface.Name] = true
		}
	}
	isNetwork := func(id NodeId) bool {
		return slices.Contains(cfg.Networks, id)
	}
	links := make([]Pair[NodeId, NodeId], 0, len(cfg.Links))
	for _, l := range cfg.Links {
		if !seen[l.A] {
			return fmt.Errorf("node %s not defined", l.A)
		}
		if !seen[l.B] {
			return fmt.Errorf("node %s not defined", l.B)
		}
		if isNetwork(l.A) && isNetwork(l.B) {
			return fmt.Errorf("link %s, %s connects two networks", l.A, l.B)
		}
		if isNetwork(l.A) && l.AIface != "" || isNetwork(l.B) && l.BIface != "" {
			return fmt.Errorf("link %s, %s names an interface on a network", l.A, l.B)
		}
		p := MakeSortedPair(l.A, l.B)
		if slices.Contains(links, p) {
			return fmt.Errorf("duplicate link found: %s, %s", l.A, l.B)
		}
		links = append(links, p)
	}
	if _, err := ExpandMesh(cfg.Mesh, ids); err != nil {
		return err
	}
	sessions := make([]Pair[NodeId, NodeId], 0, len(cfg.Sessions))
	for _, s := range cfg.Sessions {
		for _, id := range []NodeId{s.A, s.B} {
			if !seen[id] {
				return fmt.Errorf("node %s not defined", id)
			}
			if isNetwork(id) {
				return fmt.Errorf("BGP session %s, %s: %s is a network", s.A, s.B, id)
			}
		}
		p := MakeSortedPair(s.A, s.B)
		if slices.Contains(sessions, p) {
			return fmt.Errorf("duplicate BGP session found: %s, %s", s.A, s.B)
		}
		sessions = append(sessions, p)
	}
	return nil
}
