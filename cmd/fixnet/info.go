package main

import (
	"fmt"
	"runtime"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/sys/cpu"

	"github.com/sea212/Implementation-of-an-artificial-neural-network-on-a-zynq7045-fpga-using-sdsoc/fixed"
	"github.com/sea212/Implementation-of-an-artificial-neural-network-on-a-zynq7045-fpga-using-sdsoc/internal/netfile"
	"github.com/sea212/Implementation-of-an-artificial-neural-network-on-a-zynq7045-fpga-using-sdsoc/neuralnet"
)

func newInfoCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Print capacity, number format, CPU and usage statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)

			fmt.Fprintf(w, "capacity:\t%d nodes per layer\n", neuralnet.MaxNodes)
			fmt.Fprintf(w, "format:\tQ%d.%d, range [%v, %v], step %g\n",
				fixed.IntBits, fixed.FracBits, fixed.Min, fixed.Max, fixed.Epsilon.Float64())
			fmt.Fprintf(w, "weight memory:\t%s\n", humanize.IBytes(uint64(2*neuralnet.MatrixCells*2)))
			fmt.Fprintf(w, "file format:\tversion %d, magic %08x\n", netfile.Version, netfile.MagicNumber)

			fmt.Fprintf(w, "GOOS/GOARCH:\t%s/%s\n", runtime.GOOS, runtime.GOARCH)
			fmt.Fprintf(w, "NumCPU:\t%d\n", runtime.NumCPU())
			for _, f := range cpuFeatures() {
				fmt.Fprintf(w, "  %s:\t%v\n", f.name, f.ok)
			}

			store, err := root.openStorage()
			if err != nil {
				return err
			}
			defer store.Close()

			stats, err := store.LoadStats()
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "runs:\t%d (%d loads, %d executions)\n", stats.Runs, stats.Loads, stats.Executions)
			fmt.Fprintf(w, "average run:\t%v\n", stats.AverageRunTime())
			if stats.LastSet != "" {
				fmt.Fprintf(w, "last set:\t%s\n", stats.LastSet)
			}

			return w.Flush()
		},
	}
}

type cpuFeature struct {
	name string
	ok   bool
}

func cpuFeatures() []cpuFeature {
	switch runtime.GOARCH {
	case "arm64":
		return []cpuFeature{
			{"ASIMD", cpu.ARM64.HasASIMD},
			{"ASIMDHP", cpu.ARM64.HasASIMDHP},
			{"SVE", cpu.ARM64.HasSVE},
			{"SVE2", cpu.ARM64.HasSVE2},
		}
	case "amd64":
		return []cpuFeature{
			{"SSE2", cpu.X86.HasSSE2},
			{"SSE41", cpu.X86.HasSSE41},
			{"AVX", cpu.X86.HasAVX},
			{"AVX2", cpu.X86.HasAVX2},
			{"AVX512F", cpu.X86.HasAVX512F},
			{"AVX512BW", cpu.X86.HasAVX512BW},
		}
	}
	return nil
}
