package load

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/alpacahq/eventstore/executor"
	"github.com/alpacahq/eventstore/utils"
	"github.com/alpacahq/eventstore/utils/log"
)

const (
	usage   = "load"
	short   = "Loads events from a CSV file"
	long    = "This command inserts the events of a CSV file with the columns object_id,timestamp,action,data into a data file"
	example = "eventstore load --config ./data/eventstore.yml --file events.csv"

	// Flag descriptions.
	configDesc    = "set the path for the eventstore YAML configuration file"
	dirDesc       = "set filesystem path of the data directory, overrides --config"
	blockSizeDesc = "set the block size of the data file when --dir is used"
	fileDesc      = "set the path of the CSV file to load"
	batchDesc     = "set the number of events inserted per write"

	defaultConfigFilePath = "./eventstore.yml"
	defaultBatchSize      = 10000
)

var (
	// Available flags.
	configFilePath string
	dir            string
	blockSize      string
	csvFilePath    string
	batchSize      int

	// Cmd is the load command.
	Cmd = &cobra.Command{
		Use:        usage,
		Short:      short,
		Long:       long,
		SuggestFor: []string{"import", "ingest"},
		Example:    example,
		RunE:       executeLoad,
	}
)

// nolint:gochecknoinits // cobra's standard way to initialize flags
func init() {
	Cmd.Flags().StringVarP(&configFilePath, "config", "c", defaultConfigFilePath, configDesc)
	Cmd.Flags().StringVarP(&dir, "dir", "d", "", dirDesc)
	Cmd.Flags().StringVar(&blockSize, "block-size", "", blockSizeDesc)
	Cmd.Flags().StringVarP(&csvFilePath, "file", "f", "", fileDesc)
	_ = Cmd.MarkFlagRequired("file")
	Cmd.Flags().IntVar(&batchSize, "batch", defaultBatchSize, batchDesc)
}

// executeLoad implements the load command.
func executeLoad(cmd *cobra.Command, _ []string) error {
	cfg, err := utils.LoadConfig(configFilePath, dir, blockSize)
	if err != nil {
		return err
	}
	cmd.SilenceUsage = true
	log.SetLevel(cfg.LogLevel)

	fp, err := os.Open(csvFilePath)
	if err != nil {
		return errors.Wrapf(err, "open %s", csvFilePath)
	}
	defer fp.Close()

	n, err := Load(cfg, fp, batchSize)
	if err != nil {
		return err
	}
	log.Info("loaded %d events from %s", n, csvFilePath)
	return nil
}

// Load inserts the events of the CSV read from r in batches of batch events
// and returns how many were written. A failed batch is not counted, though
// its events before the failing one stay written.
func Load(cfg *utils.EventStoreConfig, r io.Reader, batch int) (int, error) {
	events, err := readEvents(r)
	if err != nil {
		return 0, err
	}
	if batch < 1 {
		batch = defaultBatchSize
	}

	instance, err := executor.NewInstanceSetup(cfg)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err := instance.Close(); err != nil {
			log.Error("close data file: %v", err)
		}
	}()

	written := 0
	for lo := 0; lo < len(events); lo += batch {
		hi := lo + batch
		if hi > len(events) {
			hi = len(events)
		}
		if err := instance.Writer.Write(events[lo:hi]); err != nil {
			return written, err
		}
		written = hi
		log.Debug("loaded %d/%d events, %d blocks", written, len(events), instance.DataFile.BlockCount())
	}
	return written, nil
}
