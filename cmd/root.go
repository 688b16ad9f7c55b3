package cmd

import (
	"io"
	"log/slog"
	"net/netip"
	"os"

	"github.com/encodeous/linksynth/core"
	"github.com/spf13/cobra"
)

// globalFlags are shared by every subcommand
type globalFlags struct {
	topologyPath string
	verbose      bool
	logPath      string
}

// synthFlags override the settings section of the topology file
type synthFlags struct {
	full         bool
	linkPool     string
	loopbackPool string
	ibgpLoopback string
}

func (f *synthFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.full, "full", false, "require every interface on a router link to be up")
	cmd.Flags().StringVar(&f.linkPool, "link-pool", "", "first point-to-point subnet to hand out, e.g. 10.0.0.0/31")
	cmd.Flags().StringVar(&f.loopbackPool, "loopback-pool", "", "first loopback network to hand out, e.g. 192.0.0.0/32")
	cmd.Flags().StringVar(&f.ibgpLoopback, "ibgp-loopback", "", "loopback internal BGP sessions bind to")
}

func (f *synthFlags) override(cmd *cobra.Command) (func(opts *core.Options), error) {
	var linkPool, loopbackPool netip.Prefix
	var err error
	if f.linkPool != "" {
		linkPool, err = netip.ParsePrefix(f.linkPool)
		if err != nil {
			return nil, err
		}
	}
	if f.loopbackPool != "" {
		loopbackPool, err = netip.ParsePrefix(f.loopbackPool)
		if err != nil {
			return nil, err
		}
	}
	fullSet := cmd.Flags().Changed("full")
	return func(opts *core.Options) {
		if linkPool.IsValid() {
			opts.LinkPool = linkPool
		}
		if loopbackPool.IsValid() {
			opts.LoopbackPool = loopbackPool
		}
		if f.ibgpLoopback != "" {
			opts.IbgpLoopback = f.ibgpLoopback
		}
		if fullSet {
			opts.Full = f.full
		}
	}, nil
}

func (g *globalFlags) logger(cmd *cobra.Command) (*slog.Logger, io.Closer, error) {
	level := slog.LevelInfo
	if g.verbose {
		level = slog.LevelDebug
	}
	return core.NewLogger(cmd.ErrOrStderr(), level, g.logPath)
}

// NewRootCmd builds the command tree
func NewRootCmd() *cobra.Command {
	g := &globalFlags{}
	rootCmd := &cobra.Command{
		Use:   "linksynth",
		Short: "Fills in link addresses, loopbacks and BGP session bindings of a topology",
		Long: `linksynth takes a partially specified router topology and completes it.
Point-to-point subnets, host addresses, loopback addresses and the interface every BGP session binds to
are synthesized where the topology leaves them open ("?"), and inconsistent topologies are rejected.`,
		SilenceUsage: true,
	}

	rootCmd.AddGroup(&cobra.Group{
		ID:    "synth",
		Title: "Synthesis Commands",
	})
	rootCmd.PersistentFlags().StringVarP(&g.topologyPath, "topology", "t", DefaultTopologyPath, "topology file")
	rootCmd.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&g.logPath, "log", "", "if set, also write logs to this file")

	rootCmd.AddCommand(newSynthCmd(g))
	rootCmd.AddCommand(newCheckCmd(g))
	rootCmd.AddCommand(newInspectCmd(g))
	return rootCmd
}

// Execute runs the command line. This is called by main.main().
func Execute() {
	err := NewRootCmd().Execute()
	if err != nil {
		os.Exit(1)
	}
}
