package core

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"

	"github.com/encodeous/linksynth/state"
	"github.com/encodeous/tint"
	slogmulti "github.com/samber/slog-multi"
)

// NewLogger logs to w through tint, and additionally to logPath as plain text if it is set.
// The returned closer releases the log file.
func NewLogger(w io.Writer, level slog.Level, logPath string) (*slog.Logger, io.Closer, error) {
	handlers := make([]slog.Handler, 0)
	handlers = append(handlers,
		tint.NewHandler(w, &tint.Options{
			Level:        level,
			AddSource:    false,
			CustomPrefix: "linksynth",
			ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
				if attr.Key == "time" {
					return slog.Attr{}
				}
				return attr
			},
		}))

	var closer io.Closer = io.NopCloser(nil)
	if logPath != "" {
		err := os.MkdirAll(path.Dir(logPath), 0700)
		if err != nil {
			return nil, nil, err
		}
		f, err := os.OpenFile(logPath, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0600)
		if err != nil {
			return nil, nil, err
		}
		handlers = append(handlers, slog.NewTextHandler(f, &slog.HandlerOptions{Level: level}))
		closer = f
	}
	return slog.New(slogmulti.Fanout(handlers...)), closer, nil
}

// RunCfg describes one synthesis run over a topology file
type RunCfg struct {
	TopologyPath string
	// OutputPath receives the completed topology, nothing is written when empty
	OutputPath string
	// Override replaces the settings of the topology file where set
	Override func(opts *Options)
	Log      *slog.Logger
}

type RunResult struct {
	Topology *state.Topology
	Settings state.SettingsCfg
	Report   Report
}

// LoadTopology reads, validates and builds a topology file
func LoadTopology(path string) (*state.Topology, *state.TopologyCfg, error) {
	cfg, err := state.ReadTopologyCfg(path)
	if err != nil {
		return nil, nil, err
	}
	err = state.TopologyConfigValidator(cfg)
	if err != nil {
		return nil, nil, err
	}
	topo, err := cfg.Build()
	if err != nil {
		return nil, nil, err
	}
	return topo, cfg, nil
}

func settingsFromOptions(opts Options) state.SettingsCfg {
	link, lo := opts.LinkPool, opts.LoopbackPool
	return state.SettingsCfg{
		LinkPool:     &link,
		LoopbackPool: &lo,
		IbgpLoopback: opts.IbgpLoopback,
		Full:         opts.Full,
	}
}

// Run synthesizes a topology file. Synthesis works on a copy of the topology, so a failed
// run leaves neither the loaded topology nor the output file half written.
func Run(cfg RunCfg) (*RunResult, error) {
	log := cfg.Log
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	topo, tcfg, err := LoadTopology(cfg.TopologyPath)
	if err != nil {
		return nil, err
	}
	opts := OptionsFromSettings(tcfg.Settings)
	if cfg.Override != nil {
		cfg.Override(&opts)
	}
	opts.Log = log

	work := topo.Clone()
	syn := New(work, opts)
	log.Info("synthesizing", "topology", cfg.TopologyPath, "full", opts.Full,
		"link_pool", syn.linkPool.next, "loopback_pool", syn.loopbackPool.next)
	err = syn.Synthesize()
	if err != nil {
		return nil, fmt.Errorf("synthesis of %s failed: %w", cfg.TopologyPath, err)
	}

	report := syn.Report()
	report.Overlaps, err = Audit(work)
	if err != nil {
		return nil, err
	}
	for _, o := range report.Overlaps {
		log.Warn("overlapping addresses", "prefix", o.Prefix, "owner", o.Owner, "other", o.Other, "other_owner", o.OtherOwner)
	}

	// the output records the options in effect, without the pool cursors having moved,
	// so running it again reproduces the same topology
	settings := settingsFromOptions(Options{
		LinkPool:     syn.linkPool.start,
		LoopbackPool: syn.loopbackPool.start,
		IbgpLoopback: syn.ibgpLoopback,
		Full:         syn.full,
	})
	if cfg.OutputPath != "" {
		out, err := state.DumpTopologyCfg(work, settings)
		if err != nil {
			return nil, err
		}
		err = state.WriteTopologyCfg(cfg.OutputPath, out)
		if err != nil {
			return nil, err
		}
		log.Info("wrote topology", "path", cfg.OutputPath)
	}
	return &RunResult{Topology: work, Settings: settings, Report: report}, nil
}
