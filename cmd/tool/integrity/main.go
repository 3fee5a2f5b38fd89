package integrity

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/spf13/cobra"

	"github.com/alpacahq/eventstore/block"
	"github.com/alpacahq/eventstore/datafile"
	"github.com/alpacahq/eventstore/executor"
	"github.com/alpacahq/eventstore/utils"
	"github.com/alpacahq/eventstore/utils/log"
	"github.com/alpacahq/eventstore/utils/pool"
)

const (
	usage   = "integrity"
	short   = "Checks the block layout of a data file"
	long    = "This command checks every block header and path of a data file and the order of the block directory"
	example = "eventstore tool integrity --dir <path> --parallel"

	// Flag descriptions.
	configDesc    = "set the path for the eventstore YAML configuration file"
	dirDesc       = "set filesystem path of the data directory, overrides --config"
	blockSizeDesc = "set the block size of the data file when --dir is used"
	parallelDesc  = "check blocks in parallel, default is false"

	defaultConfigFilePath = "./eventstore.yml"
)

var (
	// Available flags.
	configFilePath string
	dir            string
	blockSize      string
	parallel       bool

	// Cmd is the integrity command.
	Cmd = &cobra.Command{
		Use:     usage,
		Short:   short,
		Long:    long,
		Aliases: []string{"ic", "integritycheck"},
		Example: example,
		RunE:    executeIntegrity,
	}
)

// nolint:gochecknoinits // cobra's standard way to initialize flags
func init() {
	Cmd.Flags().StringVarP(&configFilePath, "config", "c", defaultConfigFilePath, configDesc)
	Cmd.Flags().StringVarP(&dir, "dir", "d", "", dirDesc)
	Cmd.Flags().StringVar(&blockSize, "block-size", "", blockSizeDesc)
	Cmd.Flags().BoolVar(&parallel, "parallel", false, parallelDesc)
}

func executeIntegrity(cmd *cobra.Command, _ []string) error {
	cfg, err := utils.LoadConfig(configFilePath, dir, blockSize)
	if err != nil {
		return err
	}
	cmd.SilenceUsage = true

	f, err := datafile.OpenExisting(cfg.DataFilePath(), cfg.BlockSize)
	if err != nil {
		return err
	}
	defer f.Close()

	workers := 1
	if parallel {
		log.Info("Running in parallel")
		workers = runtime.NumCPU()
	} else {
		log.Info("Running single threaded")
	}

	errs := Check(f, workers)
	for _, err := range errs {
		fmt.Fprintln(cmd.OutOrStdout(), err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("%d integrity errors in %s", len(errs), f.Path())
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d blocks OK\n", f.BlockCount())
	return nil
}

// Check verifies every block of f on up to workers goroutines, then the
// directory. Block errors come first, in block order.
func Check(f block.File, workers int) []error {
	blocks := f.Blocks()
	blockErrs := make([]error, len(blocks))

	var mu sync.Mutex
	p := pool.NewPool(workers, func(input interface{}) {
		b := input.(*block.Block)
		err := executor.VerifyBlock(f, b)
		mu.Lock()
		blockErrs[b.Index] = err
		mu.Unlock()
	})

	c := make(chan interface{})
	done := make(chan struct{})
	go func() {
		p.Work(c)
		close(done)
	}()
	for _, b := range blocks {
		c <- b
	}
	close(c)
	<-done
	p.Wait()

	var errs []error
	for _, err := range blockErrs {
		if err != nil {
			errs = append(errs, err)
		}
	}
	return append(errs, executor.VerifyDirectory(f)...)
}
