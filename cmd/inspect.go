package cmd

import (
	"fmt"
	"io"

	"github.com/encodeous/linksynth/core"
	"github.com/encodeous/linksynth/state"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetBorder(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeader(header)
	return table
}

func writeInterfaces(w io.Writer, topo *state.Topology) {
	table := newTable(w, "Router", "Interface", "Address", "State", "Description")
	for _, id := range topo.Routers() {
		for _, name := range topo.Interfaces(id) {
			iface, err := topo.Interface(id, name)
			if err != nil {
				continue
			}
			st := "up"
			if iface.Shutdown {
				st = "down"
			}
			table.Append([]string{string(id), name, iface.Addr.String(), st, iface.Description})
		}
		for _, lo := range topo.LoopbackInterfaces(id) {
			addr, err := topo.LoopbackAddress(id, lo)
			if err != nil {
				continue
			}
			table.Append([]string{string(id), lo, addr.String(), "loopback", ""})
		}
	}
	table.Render()
}

func writeSessions(w io.Writer, topo *state.Topology) {
	table := newTable(w, "Router", "AS", "Neighbor", "Neighbor AS", "Neighbor Interface", "Neighbor Address")
	asString := func(id state.NodeId) string {
		if asn, ok := topo.BgpAsNumber(id); ok {
			return fmt.Sprint(asn)
		}
		return "-"
	}
	for _, id := range topo.Routers() {
		for _, neigh := range topo.BgpNeighbors(id) {
			iface, err := topo.BgpNeighborInterface(id, neigh)
			if err != nil {
				continue
			}
			addr, err := topo.InterfaceAddress(neigh, iface)
			if err != nil {
				addr, _ = topo.LoopbackAddress(neigh, iface)
			}
			table.Append([]string{string(id), asString(id), string(neigh), asString(neigh), iface, addr.String()})
		}
	}
	table.Render()
}

func newInspectCmd(g *globalFlags) *cobra.Command {
	sf := &synthFlags{}
	inspectCmd := &cobra.Command{
		Use:   "inspect",
		Short: "Synthesize a topology and print interfaces and BGP sessions",
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
				Override:     override,
				Log:          log,
			})
			if err != nil {
				log.Error("synthesis failed", "error", err)
				return err
			}
			out := cmd.OutOrStdout()
			writeInterfaces(out, res.Topology)
			_, _ = fmt.Fprintln(out)
			writeSessions(out, res.Topology)
			return nil
		},
		GroupID: "synth",
	}
	sf.register(inspectCmd)
	return inspectCmd
}
