package cmd

import (
	"github.com/encodeous/linksynth/core"
	"github.com/spf13/cobra"
)

func newSynthCmd(g *globalFlags) *cobra.Command {
	sf := &synthFlags{}
	var outPath string
	synthCmd := &cobra.Command{
		Use:   "synth",
		Short: "Synthesize a topology and write the completed topology",
		Long: `Synthesizes every open value of the topology and writes the completed topology to the output file.
The output is only written if synthesis succeeds.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, closer, err := g.logger(cmd)
			if err != nil {
				return err
			}
			defer closer.Close()
			override, err := sf.override(cmd)
			if err != nil {
				return err
			}
			res, err := core.Run(core.RunCfg{
				TopologyPath: g.topologyPath,
				OutputPath:   outPath,
				Override:     override,
				Log:          log,
			})
			if err != nil {
				log.Error("synthesis failed", "error", err)
				return err
			}
			printReport(cmd.OutOrStdout(), res.Report)
			return nil
		},
		GroupID: "synth",
	}
	sf.register(synthCmd)
	synthCmd.Flags().StringVarP(&outPath, "output", "o", DefaultOutputPath, "where to write the completed topology")
	return synthCmd
}
