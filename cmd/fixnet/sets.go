package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/sea212/Implementation-of-an-artificial-neural-network-on-a-zynq7045-fpga-using-sdsoc/internal/netfile"
	"github.com/sea212/Implementation-of-an-artificial-neural-network-on-a-zynq7045-fpga-using-sdsoc/neuralnet"
)

func newRandomCmd(root *rootOptions) *cobra.Command {
	var (
		dimsFlag string
		seed     int64
		scale    float64
		outPath  string
		name     string
	)

	cmd := &cobra.Command{
		Use:   "random",
		Short: "Generate a deterministic random weight set",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if outPath == "" && name == "" {
				return fmt.Errorf("need --out or --name")
			}
			dims, err := parseDims(dimsFlag)
			if err != nil {
				return err
			}

			w01, w12 := neuralnet.RandomWeights(dims, seed, scale)
			ws, err := netfile.NewWeightSet(dims, w01, w12)
			if err != nil {
				return err
			}

			if outPath != "" {
				if err := netfile.Save(outPath, ws); err != nil {
					return err
				}
				root.log.Info("weight set written", "path", outPath, "dims", dims.String())
			}
			if name != "" {
				store, err := root.openStorage()
				if err != nil {
					return err
				}
				defer store.Close()
				if err := store.SaveWeightSet(name, ws); err != nil {
					return err
				}
				root.log.Info("weight set stored", "name", name, "dims", dims.String())
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dimsFlag, "dims", "4,8,2", "layer widths input,hidden,output")
	cmd.Flags().Int64Var(&seed, "seed", 12345, "generator seed")
	cmd.Flags().Float64Var(&scale, "scale", 0.25, "weight magnitude")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "write the set to this file")
	cmd.Flags().StringVar(&name, "name", "", "store the set under this name")
	return cmd
}

func newImportCmd(root *rootOptions) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Store a weight file under a name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" {
				return fmt.Errorf("--name is required")
			}
			ws, err := netfile.Load(args[0])
			if err != nil {
				return err
			}

			store, err := root.openStorage()
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.SaveWeightSet(name, ws); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %s as %q (%v)\n", args[0], name, ws.Dims)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "name to store the set under")
	return cmd
}

func newListCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored weight sets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := root.openStorage()
			if err != nil {
				return err
			}
			defer store.Close()

			sets, err := store.ListWeightSets()
			if err != nil {
				return err
			}
			prefs, err := store.LoadPreferences()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tDIMS\tSIZE\t")
			for _, s := range sets {
				mark := ""
				if s.Name == prefs.DefaultSet {
					mark = "(default)"
				}
				fmt.Fprintf(w, "%s\t%v\t%s\t%s\n", s.Name, s.Dims, humanize.Bytes(uint64(s.Size)), mark)
			}
			return w.Flush()
		},
	}
}

func newDeleteCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete NAME",
		Short: "Delete a stored weight set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := root.openStorage()
			if err != nil {
				return err
			}
			defer store.Close()
			return store.DeleteWeightSet(args[0])
		},
	}
}

func newPrefsCmd(root *rootOptions) *cobra.Command {
	var (
		defaultSet string
		workers    int
		boundMode  string
	)

	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Show or change run defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := root.openStorage()
			if err != nil {
				return err
			}
			defer store.Close()

			prefs, err := store.LoadPreferences()
			if err != nil {
				return err
			}

			changed := false
			if cmd.Flags().Changed("default-set") {
				prefs.DefaultSet = defaultSet
				changed = true
			}
			if cmd.Flags().Changed("workers") {
				prefs.Workers = max(workers, 1)
				changed = true
			}
			if cmd.Flags().Changed("bound-mode") {
				if _, err := neuralnet.ParseBoundMode(boundMode); err != nil {
					return err
				}
				prefs.BoundMode = boundMode
				changed = true
			}
			if changed {
				if err := store.SavePreferences(prefs); err != nil {
					return err
				}
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "default set:\t%s\n", prefs.DefaultSet)
			fmt.Fprintf(w, "workers:\t%d\n", prefs.Workers)
			fmt.Fprintf(w, "bound mode:\t%s\n", prefs.BoundMode)
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&defaultSet, "default-set", "", "weight set used when run has no --set")
	cmd.Flags().IntVar(&workers, "workers", 1, "goroutines per accumulation stage")
	cmd.Flags().StringVar(&boundMode, "bound-mode", "strict", "strict or inclusive")
	return cmd
}
