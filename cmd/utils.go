package cmd

import (
	"fmt"
	"io"

	"github.com/encodeous/linksynth/core"
)

const (
	DefaultTopologyPath = "topology.yaml"
	DefaultOutputPath   = "topology.out.yaml"
)

func printReport(w io.Writer, report core.Report) {
	_, _ = fmt.Fprintf(w, "link addresses assigned:     %d\n", report.LinkAddrs)
	_, _ = fmt.Fprintf(w, "sessions bound:              %d\n", report.Peerings)
	_, _ = fmt.Fprintf(w, "session loopbacks created:   %d\n", report.Loopbacks)
	_, _ = fmt.Fprintf(w, "loopback addresses assigned: %d\n", report.LoopbackAddrs)
	for _, r := range report.LinkRanges {
		_, _ = fmt.Fprintf(w, "link range:     %s\n", r)
	}
	for _, r := range report.LoopbackRanges {
		_, _ = fmt.Fprintf(w, "loopback range: %s\n", r)
	}
	for _, o := range report.Overlaps {
		_, _ = fmt.Fprintf(w, "warning: %s\n", o)
	}
}
