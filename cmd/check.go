package cmd

import (
	"fmt"

	"github.com/encodeous/linksynth/core"
	"github.com/spf13/cobra"
)

func newCheckCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check that a topology can be completed with every link up",
		RunE: func(cmd *cobra.Command, args []string) error {
			log, closer, err := g.logger(cmd)
			if err != nil {
				return err
			}
			defer closer.Close()
			res, err := core.Run(core.RunCfg{
				TopologyPath: g.topologyPath,
				Override: func(opts *core.Options) {
					opts.Full = true
				},
				Log: log,
			})
			if err != nil {
				log.Error("topology is not valid", "error", err)
				return err
			}
			printReport(cmd.OutOrStdout(), res.Report)
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Topology is valid")
			return nil
		},
		GroupID: "synth",
	}
}
