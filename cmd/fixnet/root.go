package main

import (
	"fmt"
	"log"
	"os"
	"runtime/pprof"

	"github.com/go-logr/logr"
	"github.com/go-logr/stdr"
	"github.com/spf13/cobra"

	"github.com/sea212/Implementation-of-an-artificial-neural-network-on-a-zynq7045-fpga-using-sdsoc/internal/storage"
)

// Environment fallbacks for persistent flags
const (
	envDataDir    = "FIXNET_DATA_DIR"
	envCPUProfile = "CPUPROFILE"
)

type rootOptions struct {
	dataDir    string
	verbosity  int
	cpuprofile string

	log         logr.Logger
	profileFile *os.File
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "fixnet",
		Short:         "Run a two-layer Q2.14 fixed-point network",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			opts.teardown()
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.dataDir, "data-dir", "", "data directory (env "+envDataDir+", default: platform data dir)")
	flags.IntVarP(&opts.verbosity, "verbose", "v", 0, "log verbosity")
	flags.StringVar(&opts.cpuprofile, "cpuprofile", "", "write cpu profile to file (env "+envCPUProfile+")")

	cmd.AddCommand(
		newRandomCmd(opts),
		newImportCmd(opts),
		newListCmd(opts),
		newDeleteCmd(opts),
		newPrefsCmd(opts),
		newRunCmd(opts),
		newInfoCmd(opts),
	)

	return cmd
}

func (o *rootOptions) setup() error {
	stdr.SetVerbosity(o.verbosity)
	o.log = stdr.New(log.New(os.Stderr, "", log.LstdFlags)).WithName("fixnet")

	if o.dataDir == "" {
		o.dataDir = os.Getenv(envDataDir)
	}

	// Start CPU profiling if requested (via flag or environment variable)
	profilePath := o.cpuprofile
	if profilePath == "" {
		profilePath = os.Getenv(envCPUProfile)
	}
	if profilePath != "" {
		f, err := os.Create(profilePath)
		if err != nil {
			return fmt.Errorf("could not create CPU profile: %w", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			f.Close()
			return fmt.Errorf("could not start CPU profile: %w", err)
		}
		o.profileFile = f
		o.log.Info("CPU profiling enabled", "path", profilePath)
	}
	return nil
}

func (o *rootOptions) teardown() {
	if o.profileFile != nil {
		pprof.StopCPUProfile()
		o.profileFile.Close()
		o.profileFile = nil
	}
}

// openStorage opens the database; callers must Close it.
func (o *rootOptions) openStorage() (*storage.Storage, error) {
	return storage.NewStorage(o.dataDir, o.log)
}
