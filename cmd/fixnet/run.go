package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sea212/Implementation-of-an-artificial-neural-network-on-a-zynq7045-fpga-using-sdsoc/fixed"
	"github.com/sea212/Implementation-of-an-artificial-neural-network-on-a-zynq7045-fpga-using-sdsoc/internal/netfile"
	"github.com/sea212/Implementation-of-an-artificial-neural-network-on-a-zynq7045-fpga-using-sdsoc/internal/reference"
	"github.com/sea212/Implementation-of-an-artificial-neural-network-on-a-zynq7045-fpga-using-sdsoc/internal/storage"
	"github.com/sea212/Implementation-of-an-artificial-neural-network-on-a-zynq7045-fpga-using-sdsoc/neuralnet"
)

type runOptions struct {
	set       string
	file      string
	input     string
	compare   bool
	workers   int
	inclusive bool
}

func newRunCmd(root *rootOptions) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Load a weight set and run one forward pass",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNetwork(cmd, root, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.set, "set", "", "stored weight set (default: preferences)")
	flags.StringVar(&opts.file, "file", "", "weight file instead of a stored set")
	flags.StringVar(&opts.input, "input", "", "input values, comma separated")
	flags.BoolVar(&opts.compare, "compare", false, "also print the float64 reference result")
	flags.IntVar(&opts.workers, "workers", 0, "goroutines per accumulation stage (default: preferences)")
	flags.BoolVar(&opts.inclusive, "inclusive-bounds", false, "sweep one unit past each layer width")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func runNetwork(cmd *cobra.Command, root *rootOptions, opts *runOptions) error {
	store, err := root.openStorage()
	if err != nil {
		return err
	}
	defer store.Close()

	prefs, err := store.LoadPreferences()
	if err != nil {
		return err
	}

	ws, setName, err := resolveWeightSet(store, prefs, opts)
	if err != nil {
		return err
	}

	input, err := parseVector(opts.input)
	if err != nil {
		return err
	}
	if len(input) > ws.Dims.Input {
		root.log.V(1).Info("ignoring extra input values", "given", len(input), "used", ws.Dims.Input)
	}

	c := neuralnet.New()
	c.SetLogger(root.log)

	workers := prefs.Workers
	if cmd.Flags().Changed("workers") {
		workers = opts.workers
	}
	c.SetWorkers(workers)

	mode, err := neuralnet.ParseBoundMode(prefs.BoundMode)
	if err != nil {
		return err
	}
	if opts.inclusive {
		mode = neuralnet.InclusiveBounds
	}
	c.SetBoundMode(mode)

	output := make([]fixed.Fixed, ws.Dims.Output)
	start := time.Now()
	err = c.Step(neuralnet.Request{
		Load:      true,
		Execute:   true,
		Dims:      ws.Dims,
		Weights01: ws.Weights01,
		Weights12: ws.Weights12,
		Input:     input,
		Output:    output,
	})
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, formatVector(output))

	if opts.compare {
		want, err := reference.ForwardFixed(ws.Dims, ws.Weights01, ws.Weights12, input)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "reference: %v\n", want)
		fmt.Fprintf(out, "max deviation: %g (%.1f steps)\n",
			reference.MaxAbsDiff(output, want),
			reference.MaxAbsDiff(output, want)/fixed.Epsilon.Float64())
	}

	root.log.V(1).Info("run finished", "set", setName, "elapsed", elapsed.String(), "workers", workers, "bounds", mode.String())

	return store.RecordRun(storage.RunResult{
		Set:      setName,
		Loaded:   true,
		Executed: true,
		Duration: elapsed,
	})
}

// resolveWeightSet picks --file, then --set, then the preferred default set.
func resolveWeightSet(store *storage.Storage, prefs *storage.Preferences, opts *runOptions) (*netfile.WeightSet, string, error) {
	if opts.file != "" {
		ws, err := netfile.Load(opts.file)
		return ws, "", err
	}

	name := opts.set
	if name == "" {
		name = prefs.DefaultSet
	}
	if name == "" {
		return nil, "", fmt.Errorf("no weight set given: use --set, --file or prefs --default-set")
	}

	ws, err := store.LoadWeightSet(name)
	return ws, name, err
}
