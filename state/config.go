package state

import (
	"fmt"
	"maps"
	"net/netip"
	"os"
	"slices"

	"github.com/goccy/go-yaml"
)

// SettingsCfg holds the synthesizer options a topology file may carry. Unset fields fall
// back to the defaults.
type SettingsCfg struct {
	LinkPool     *netip.Prefix `yaml:"link_pool,omitempty"`     // where point-to-point subnets are claimed from
	LoopbackPool *netip.Prefix `yaml:"loopback_pool,omitempty"` // where loopback networks are claimed from
	IbgpLoopback string        `yaml:"ibgp_loopback,omitempty" validate:"omitempty,ifname"`
	Full         bool          `yaml:"full,omitempty"` // every interface on a router link must be up
}

type InterfaceCfg struct {
	Name        string    `validate:"required,ifname"`
	Addr        IfaceAddr `yaml:"addr,omitempty"`
	Shutdown    bool      `yaml:"shutdown,omitempty"`
	Description string    `yaml:"description,omitempty" validate:"max=80"`
}

type RouterCfg struct {
	Id         NodeId               `validate:"required,nodename"`
	Asn        *uint32              `yaml:"asn,omitempty" validate:"omitempty,min=1"`
	Interfaces []InterfaceCfg       `yaml:"interfaces,omitempty" validate:"dive"`
	Loopbacks  map[string]IfaceAddr `yaml:"loopbacks,omitempty" validate:"dive,keys,ifname,endkeys"`
}

// LinkCfg connects two nodes in both directions. AIface and BIface name the interfaces on
// each side and may be left empty.
type LinkCfg struct {
	A      NodeId `validate:"required,nodename"`
	B      NodeId `validate:"required,nodename,nefield=A"`
	AIface string `yaml:"a_iface,omitempty" validate:"omitempty,ifname"`
	BIface string `yaml:"b_iface,omitempty" validate:"omitempty,ifname"`
}

// SessionCfg declares a BGP session. AIface is the interface on A that B peers with, BIface
// the interface on B that A peers with.
type SessionCfg struct {
	A           NodeId `validate:"required,nodename"`
	B           NodeId `validate:"required,nodename,nefield=A"`
	AIface      string `yaml:"a_iface,omitempty" validate:"omitempty,ifname"`
	BIface      string `yaml:"b_iface,omitempty" validate:"omitempty,ifname"`
	Description string `yaml:"description,omitempty" validate:"max=80"`
}

type TopologyCfg struct {
	Settings SettingsCfg  `yaml:"settings,omitempty"`
	Routers  []RouterCfg  `yaml:"routers,omitempty" validate:"dive"`
	Peers    []RouterCfg  `yaml:"peers,omitempty" validate:"dive"`
	Networks []NodeId     `yaml:"networks,omitempty" validate:"dive,nodename"`
	Links    []LinkCfg    `yaml:"links,omitempty" validate:"dive"`
	Mesh     []string     `yaml:"mesh,omitempty"` // mesh lines, see ExpandMesh
	Sessions []SessionCfg `yaml:"sessions,omitempty" validate:"dive"`
}

func ReadTopologyCfg(path string) (*TopologyCfg, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg TopologyCfg
	err = yaml.Unmarshal(file, &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &cfg, nil
}

func WriteTopologyCfg(path string, cfg *TopologyCfg) error {
	bytes, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, bytes, 0600)
}

func (c *TopologyCfg) nodeIds() []NodeId {
	ids := make([]NodeId, 0, len(c.Routers)+len(c.Peers)+len(c.Networks))
	for _, r := range c.Routers {
		ids = append(ids, r.Id)
	}
	for _, p := range c.Peers {
		ids = append(ids, p.Id)
	}
	return append(ids, c.Networks...)
}

func addRouterCfg(t *Topology, r RouterCfg) error {
	for _, iface := range r.Interfaces {
		if err := t.AddInterface(r.Id, iface.Name, iface.Shutdown); err != nil {
			return err
		}
		if !iface.Addr.IsUnset() {
			if err := t.SetInterfaceAddress(r.Id, iface.Name, iface.Addr.Prefix()); err != nil {
				return err
			}
		}
		if iface.Description != "" {
			if err := t.SetInterfaceDescription(r.Id, iface.Name, iface.Description); err != nil {
				return err
			}
		}
	}
	for _, name := range slices.Sorted(maps.Keys(r.Loopbacks)) {
		if err := t.SetLoopbackAddress(r.Id, name, r.Loopbacks[name]); err != nil {
			return err
		}
	}
	if r.Asn != nil {
		return t.SetBgpAsNumber(r.Id, *r.Asn)
	}
	return nil
}

func bindLinkIface(t *Topology, src, dst NodeId, iface string) error {
	if iface == "" {
		return nil
	}
	if _, err := t.Interface(src, iface); err != nil {
		// interfaces named on a link but not declared on the router start up and unset
		if err := t.AddInterface(src, iface, false); err != nil {
			return err
		}
		if err := t.SetInterfaceDescription(src, iface, fmt.Sprintf("To %s", dst)); err != nil {
			return err
		}
	}
	return t.SetEdgeInterface(src, dst, iface)
}

// Build turns the configuration into a Topology. The configuration must have been validated.
func (c *TopologyCfg) Build() (*Topology, error) {
	t := NewTopology()
	for _, r := range c.Routers {
		if err := t.AddRouter(r.Id); err != nil {
			return nil, err
		}
		if err := addRouterCfg(t, r); err != nil {
			return nil, err
		}
	}
	for _, p := range c.Peers {
		if err := t.AddPeer(p.Id); err != nil {
			return nil, err
		}
		if err := addRouterCfg(t, p); err != nil {
			return nil, err
		}
	}
	for _, n := range c.Networks {
		if err := t.AddNetwork(n); err != nil {
			return nil, err
		}
	}
	for _, l := range c.Links {
		if err := t.AddLink(l.A, l.B); err != nil {
			return nil, err
		}
		if err := bindLinkIface(t, l.A, l.B, l.AIface); err != nil {
			return nil, err
		}
		if err := bindLinkIface(t, l.B, l.A, l.BIface); err != nil {
			return nil, err
		}
	}
	mesh, err := ExpandMesh(c.Mesh, c.nodeIds())
	if err != nil {
		return nil, err
	}
	for _, l := range mesh {
		if t.HasEdge(l.V1, l.V2) || t.HasEdge(l.V2, l.V1) {
			// explicit links win over mesh lines
			continue
		}
		if err := t.AddLink(l.V1, l.V2); err != nil {
			return nil, err
		}
	}
	for _, s := range c.Sessions {
		if err := t.AddBgpNeighbor(s.A, s.B, s.AIface, s.BIface, s.Description); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func dumpRouter(t *Topology, id NodeId) (RouterCfg, error) {
	n, err := t.Node(id)
	if err != nil {
		return RouterCfg{}, err
	}
	r := RouterCfg{Id: id, Asn: n.Asn}
	for _, name := range t.Interfaces(id) {
		iface := n.Ifaces[name]
		r.Interfaces = append(r.Interfaces, InterfaceCfg{
			Name:        name,
			Addr:        iface.Addr,
			Shutdown:    iface.Shutdown,
			Description: iface.Description,
		})
	}
	if len(n.Loopbacks) > 0 {
		r.Loopbacks = make(map[string]IfaceAddr, len(n.Loopbacks))
		for name, lo := range n.Loopbacks {
			r.Loopbacks[name] = lo.Addr
		}
	}
	return r, nil
}

// DumpTopologyCfg writes the topology back into configuration form. Mesh lines are emitted
// as explicit links, so dumping then building gives back the same topology.
func DumpTopologyCfg(t *Topology, settings SettingsCfg) (*TopologyCfg, error) {
	cfg := &TopologyCfg{Settings: settings}
	for _, id := range t.Routers() {
		r, err := dumpRouter(t, id)
		if err != nil {
			return nil, err
		}
		if t.IsPeer(id) {
			cfg.Peers = append(cfg.Peers, r)
		} else {
			cfg.Routers = append(cfg.Routers, r)
		}
	}
	cfg.Networks = t.Networks()
	for _, e := range t.Edges() {
		if e.V1 > e.V2 && t.HasEdge(e.V2, e.V1) {
			continue
		}
		if !t.HasEdge(e.V2, e.V1) {
			return nil, fmt.Errorf("edge %s -> %s has no reverse edge", e.V1, e.V2)
		}
		aIface, _ := t.EdgeInterface(e.V1, e.V2)
		bIface, _ := t.EdgeInterface(e.V2, e.V1)
		cfg.Links = append(cfg.Links, LinkCfg{A: e.V1, B: e.V2, AIface: aIface, BIface: bIface})
	}
	for _, a := range t.Routers() {
		for _, b := range t.BgpNeighbors(a) {
			if b < a {
				continue
			}
			aIface, err := t.BgpNeighborInterface(b, a)
			if err != nil {
				return nil, err
			}
			bIface, err := t.BgpNeighborInterface(a, b)
			if err != nil {
				return nil, err
			}
			desc, _ := t.BgpNeighborDescription(a, b)
			if desc == fmt.Sprintf("To %s", b) {
				desc = ""
			}
			cfg.Sessions = append(cfg.Sessions, SessionCfg{A: a, B: b, AIface: aIface, BIface: bIface, Description: desc})
		}
	}
	return cfg, nil
}
