// Package create makes a new data directory with an empty data file.
package create

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/alpacahq/eventstore/datafile"
	"github.com/alpacahq/eventstore/utils"
	"github.com/alpacahq/eventstore/utils/io"
	"github.com/alpacahq/eventstore/utils/log"
)

const (
	usage   = "create"
	short   = "Creates a new data directory"
	long    = "This command creates a data directory holding an empty data file and an eventstore.yml pointing at it"
	example = "eventstore create --dir ./data --block-size 64KB"

	// Flag descriptions.
	dirDesc       = "set filesystem path of the data directory to create"
	blockSizeDesc = "set the size of every block in the data file"

	defaultConfig = `root_directory: %s
block_size: %s
log_level: info
sync_on_write: false
disk_usage_monitor_interval: 0
snapshot_compression: snappy
`
)

var (
	// Available flags.
	dir       string
	blockSize string

	// Cmd is the create command.
	Cmd = &cobra.Command{
		Use:        usage,
		Short:      short,
		Long:       long,
		SuggestFor: []string{"init", "new"},
		Example:    example,
		RunE:       executeCreate,
	}
)

// nolint:gochecknoinits // cobra's standard way to initialize flags
func init() {
	Cmd.Flags().StringVarP(&dir, "dir", "d", "", dirDesc)
	_ = Cmd.MarkFlagRequired("dir")
	Cmd.Flags().StringVar(&blockSize, "block-size", io.FormatByteSize(utils.DefaultBlockSize), blockSizeDesc)
}

// executeCreate implements the create command.
func executeCreate(cmd *cobra.Command, _ []string) error {
	cfg, err := utils.LoadConfig("", dir, blockSize)
	if err != nil {
		return err
	}
	cmd.SilenceUsage = true
	return Create(cfg)
}

// Create makes the root directory of cfg, writes an empty data file into it
// and, when missing, a configuration file next to it.
func Create(cfg *utils.EventStoreConfig) error {
	if err := os.MkdirAll(cfg.RootDirectory, 0o770); err != nil {
		return err
	}
	path := cfg.DataFilePath()
	if _, err := os.Stat(path); err == nil {
		return &os.PathError{Op: "create", Path: path, Err: os.ErrExist}
	}
	f, err := datafile.Open(path, cfg.BlockSize)
	if err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	confPath := filepath.Join(cfg.RootDirectory, utils.ConfigFileName)
	if _, err := os.Stat(confPath); os.IsNotExist(err) {
		abs, err := filepath.Abs(cfg.RootDirectory)
		if err != nil {
			return err
		}
		data := []byte(fmt.Sprintf(defaultConfig, abs, strconv.Itoa(cfg.BlockSize)))
		if err := os.WriteFile(confPath, data, 0o600); err != nil {
			return err
		}
	}
	log.Info("created %s with blocks of %s", path, io.FormatByteSize(cfg.BlockSize))
	return nil
}
