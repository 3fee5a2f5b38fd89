package snapshot

import (
	"bufio"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/alpacahq/eventstore/datafile"
	"github.com/alpacahq/eventstore/utils"
	"github.com/alpacahq/eventstore/utils/log"
)

const (
	usage   = "snapshot"
	short   = "Writes a snapshot of a data file"
	long    = "This command copies the mapped bytes of a data file into a snapshot file, snappy compressed unless snapshot_compression is none"
	example = "eventstore tool snapshot --config ./data/eventstore.yml --out data.snap"

	restoreUsage   = "restore"
	restoreShort   = "Restores a data file from a snapshot"
	restoreLong    = "This command writes the data file of a new data directory from a snapshot taken with the snapshot tool"
	restoreExample = "eventstore tool restore --dir ./restored --block-size 64KB --in data.snap"

	// Flag descriptions.
	configDesc      = "set the path for the eventstore YAML configuration file"
	dirDesc         = "set filesystem path of the data directory, overrides --config"
	blockSizeDesc   = "set the block size of the data file when --dir is used"
	outDesc         = "set the path of the snapshot file to write"
	inDesc          = "set the path of the snapshot file to read"
	compressionDesc = "override snapshot_compression: snappy or none"

	defaultConfigFilePath = "./eventstore.yml"
)

var (
	// Available flags.
	configFilePath string
	dir            string
	blockSize      string
	outPath        string
	inPath         string
	compression    string

	// Cmd is the snapshot command.
	Cmd = &cobra.Command{
		Use:     usage,
		Short:   short,
		Long:    long,
		Aliases: []string{"backup"},
		Example: example,
		RunE:    executeSnapshot,
	}

	// RestoreCmd is the restore command.
	RestoreCmd = &cobra.Command{
		Use:     restoreUsage,
		Short:   restoreShort,
		Long:    restoreLong,
		Example: restoreExample,
		RunE:    executeRestore,
	}
)

// nolint:gochecknoinits // cobra's standard way to initialize flags
func init() {
	for _, c := range []*cobra.Command{Cmd, RestoreCmd} {
		c.Flags().StringVarP(&configFilePath, "config", "c", defaultConfigFilePath, configDesc)
		c.Flags().StringVarP(&dir, "dir", "d", "", dirDesc)
		c.Flags().StringVar(&blockSize, "block-size", "", blockSizeDesc)
		c.Flags().StringVar(&compression, "compression", "", compressionDesc)
	}
	Cmd.Flags().StringVarP(&outPath, "out", "o", "", outDesc)
	_ = Cmd.MarkFlagRequired("out")
	RestoreCmd.Flags().StringVarP(&inPath, "in", "i", "", inDesc)
	_ = RestoreCmd.MarkFlagRequired("in")
}

func compressed(cfg *utils.EventStoreConfig) (bool, error) {
	mode := cfg.SnapshotCompression
	if compression != "" {
		mode = compression
	}
	switch mode {
	case "snappy":
		return true, nil
	case "none":
		return false, nil
	}
	return false, errors.Errorf("unknown snapshot compression %q", mode)
}

func executeSnapshot(cmd *cobra.Command, _ []string) error {
	cfg, err := utils.LoadConfig(configFilePath, dir, blockSize)
	if err != nil {
		return err
	}
	compress, err := compressed(cfg)
	if err != nil {
		return err
	}
	cmd.SilenceUsage = true
	return Snapshot(cfg, outPath, compress)
}

// Snapshot writes the data file of cfg to outPath.
func Snapshot(cfg *utils.EventStoreConfig, outPath string, compress bool) error {
	f, err := datafile.OpenExisting(cfg.DataFilePath(), cfg.BlockSize)
	if err != nil {
		return err
	}
	defer f.Close()

	out, err := os.OpenFile(outPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return errors.Wrapf(err, "create snapshot %s", outPath)
	}
	w := bufio.NewWriter(out)
	if err := f.Snapshot(w, compress); err != nil {
		out.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		out.Close()
		return errors.Wrapf(err, "write snapshot %s", outPath)
	}
	if err := out.Close(); err != nil {
		return errors.Wrapf(err, "close snapshot %s", outPath)
	}
	log.Info("wrote snapshot of %d blocks to %s", f.BlockCount(), outPath)
	return nil
}

func executeRestore(cmd *cobra.Command, _ []string) error {
	cfg, err := utils.LoadConfig(configFilePath, dir, blockSize)
	if err != nil {
		return err
	}
	compress, err := compressed(cfg)
	if err != nil {
		return err
	}
	cmd.SilenceUsage = true
	return Restore(cfg, inPath, compress)
}

// Restore writes the data file of cfg from the snapshot at inPath. The data
// file must not exist yet.
func Restore(cfg *utils.EventStoreConfig, inPath string, compress bool) error {
	in, err := os.Open(inPath)
	if err != nil {
		return errors.Wrapf(err, "open snapshot %s", inPath)
	}
	defer in.Close()

	if err := os.MkdirAll(cfg.RootDirectory, 0o770); err != nil {
		return errors.Wrapf(err, "create root directory %s", cfg.RootDirectory)
	}
	f, err := datafile.Restore(bufio.NewReader(in), cfg.DataFilePath(), cfg.BlockSize, compress)
	if err != nil {
		return err
	}
	log.Info("restored %d blocks into %s", f.BlockCount(), f.Path())
	return f.Close()
}
