package core

import (
	"log/slog"
	"net/netip"

	"github.com/encodeous/linksynth/state"
)

type Options struct {
	LinkPool     netip.Prefix // first point-to-point subnet, defaults to state.DefaultLinkPool
	LoopbackPool netip.Prefix // first loopback network, defaults to state.DefaultLoopbackPool
	IbgpLoopback string       // loopback internal sessions bind to, defaults to state.DefaultIbgpLoopback
	Full         bool         // every interface on a router link must be administratively up
	Log          *slog.Logger
}

// OptionsFromSettings fills the options a topology file carries; zero fields keep their defaults
func OptionsFromSettings(s state.SettingsCfg) Options {
	opts := Options{
		IbgpLoopback: s.IbgpLoopback,
		Full:         s.Full,
	}
	if s.LinkPool != nil {
		opts.LinkPool = *s.LinkPool
	}
	if s.LoopbackPool != nil {
		opts.LoopbackPool = *s.LoopbackPool
	}
	return opts
}

// Synthesizer fills in link addresses, BGP session bindings and loopback addresses of a
// partially specified topology. It is not safe for concurrent use and assumes exclusive
// access to the graph while it runs. Nothing is rolled back on failure.
type Synthesizer struct {
	g            state.Graph
	full         bool
	ibgpLoopback string
	linkPool     *Pool
	loopbackPool *Pool
	log          *slog.Logger

	stats Stats
}

// Stats counts what a synthesizer changed
type Stats struct {
	LinkAddrs     int // interface addresses assigned on links
	Peerings      int // BGP sessions bound to an interface
	Loopbacks     int // loopbacks created for internal sessions
	LoopbackAddrs int // loopback addresses assigned
}

func New(g state.Graph, opts Options) *Synthesizer {
	if !opts.LinkPool.IsValid() {
		opts.LinkPool = state.DefaultLinkPool
	}
	if !opts.LoopbackPool.IsValid() {
		opts.LoopbackPool = state.DefaultLoopbackPool
	}
	if opts.IbgpLoopback == "" {
		opts.IbgpLoopback = state.DefaultIbgpLoopback
	}
	if opts.Log == nil {
		opts.Log = slog.New(slog.DiscardHandler)
	}
	return &Synthesizer{
		g:            g,
		full:         opts.Full,
		ibgpLoopback: opts.IbgpLoopback,
		linkPool:     NewPool("link", opts.LinkPool),
		loopbackPool: NewPool("loopback", opts.LoopbackPool),
		log:          opts.Log,
	}
}

// Synthesize runs link addressing, then peering resolution, then loopback addressing.
// Each pass depends on what the previous one wrote into the graph.
func (s *Synthesizer) Synthesize() error {
	if err := s.SynthesizeAll(); err != nil {
		return err
	}
	if err := s.ResolveAllPeerings(); err != nil {
		return err
	}
	return s.AssignLoopbacks()
}

func (s *Synthesizer) Stats() Stats {
	return s.stats
}

func (s *Synthesizer) LinkPool() *Pool {
	return s.linkPool
}

func (s *Synthesizer) LoopbackPool() *Pool {
	return s.loopbackPool
}
