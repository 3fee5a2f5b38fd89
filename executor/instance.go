package executor

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/alpacahq/eventstore/datafile"
	"github.com/alpacahq/eventstore/metrics"
	"github.com/alpacahq/eventstore/utils"
	"github.com/alpacahq/eventstore/utils/log"
)

type InstanceMetadata struct {
	// RootDir is the absolute path to the data directory
	RootDir  string
	DataFile *datafile.DataFile
	Writer   *Writer

	stopMonitor context.CancelFunc
}

// NewInstanceSetup opens (or creates) the data file under the configured root
// directory and puts a Writer in front of it.
func NewInstanceSetup(cfg *utils.EventStoreConfig) (*InstanceMetadata, error) {
	start := time.Now()
	rootDir, err := filepath.Abs(filepath.Clean(cfg.RootDirectory))
	if err != nil {
		return nil, errors.Wrapf(err, "take absolute path of root directory %s", cfg.RootDirectory)
	}
	log.Info("Root Directory: %s", rootDir)
	if err := os.MkdirAll(rootDir, 0o770); err != nil {
		return nil, errors.Wrapf(err, "create root directory %s", rootDir)
	}

	f, err := datafile.Open(filepath.Join(rootDir, utils.DataFileName), cfg.BlockSize)
	if err != nil {
		return nil, err
	}
	w, err := NewWriter(f, cfg.SyncOnWrite)
	if err != nil {
		f.Close()
		return nil, err
	}

	m := &InstanceMetadata{
		RootDir:  rootDir,
		DataFile: f,
		Writer:   w,
	}
	if cfg.DiskUsageMonitorInterval > 0 {
		ctx, cancel := context.WithCancel(context.Background())
		m.stopMonitor = cancel
		go metrics.StartDiskUsageMonitor(ctx, metrics.DiskUsage, rootDir, cfg.DiskUsageMonitorInterval)
	}
	metrics.StartupTime.Set(time.Since(start).Seconds())
	return m, nil
}

// Close stops the writer and the disk usage monitor, then syncs and closes the
// data file.
func (m *InstanceMetadata) Close() error {
	if m.stopMonitor != nil {
		m.stopMonitor()
	}
	m.Writer.Close()
	return m.DataFile.Close()
}
