package utils

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/alpacahq/eventstore/utils/io"
	"github.com/alpacahq/eventstore/utils/log"
)

const (
	DefaultBlockSize = 64 * 1024
	MinBlockSize     = 128
	DataFileName     = "data.bin"
	ConfigFileName   = "eventstore.yml"
)

var InstanceConfig EventStoreConfig

func init() {
	InstanceConfig.BlockSize = DefaultBlockSize
	InstanceConfig.SnapshotCompression = "snappy"
}

type EventStoreConfig struct {
	RootDirectory            string
	BlockSize                int
	LogLevel                 log.Level
	SyncOnWrite              bool
	DiskUsageMonitorInterval time.Duration
	SnapshotCompression      string
	StartTime                time.Time
}

// DataFilePath is the location of the mapped data file under the root directory.
func (m *EventStoreConfig) DataFilePath() string {
	return strings.TrimRight(m.RootDirectory, "/") + "/" + DataFileName
}

// ParseFile reads and parses the YAML configuration at path.
func (m *EventStoreConfig) ParseFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	return m.Parse(data)
}

func (m *EventStoreConfig) Parse(data []byte) error {
	var (
		err error
		aux struct {
			RootDirectory            string `yaml:"root_directory"`
			BlockSize                string `yaml:"block_size"`
			LogLevel                 string `yaml:"log_level"`
			SyncOnWrite              string `yaml:"sync_on_write"`
			DiskUsageMonitorInterval int    `yaml:"disk_usage_monitor_interval"`
			SnapshotCompression      string `yaml:"snapshot_compression"`
		}
	)

	if err := yaml.Unmarshal(data, &aux); err != nil {
		return err
	}

	if aux.RootDirectory == "" {
		log.Error("Invalid root directory.")
		return errors.New("invalid root directory")
	}

	m.BlockSize = DefaultBlockSize
	if aux.BlockSize != "" {
		m.BlockSize, err = io.ParseByteSize(aux.BlockSize)
		if err != nil {
			log.Error("Invalid block size: %v", aux.BlockSize)
			return fmt.Errorf("invalid block size %q: %w", aux.BlockSize, err)
		}
	}
	if m.BlockSize < MinBlockSize {
		return fmt.Errorf("block size %d is below the minimum of %d bytes", m.BlockSize, MinBlockSize)
	}

	m.LogLevel = log.ParseLevel(aux.LogLevel)
	log.SetLevel(m.LogLevel)

	if aux.SyncOnWrite != "" {
		syncOnWrite, err := strconv.ParseBool(aux.SyncOnWrite)
		if err != nil {
			log.Error("Invalid value: %v for sync_on_write. Disabling sync...", aux.SyncOnWrite)
		} else {
			m.SyncOnWrite = syncOnWrite
		}
	}

	if aux.DiskUsageMonitorInterval > 0 {
		m.DiskUsageMonitorInterval = time.Duration(aux.DiskUsageMonitorInterval) * time.Second
	}

	switch strings.ToLower(aux.SnapshotCompression) {
	case "", "snappy":
		m.SnapshotCompression = "snappy"
	case "none":
		m.SnapshotCompression = "none"
	default:
		return fmt.Errorf("unknown snapshot compression %q", aux.SnapshotCompression)
	}

	m.RootDirectory = aux.RootDirectory
	return nil
}

// LoadConfig builds the configuration for a command. Without rootDir the YAML
// file at configPath is parsed. With rootDir the eventstore.yml inside it is
// used instead, and blockSize may be given only when that file is missing or
// agrees with it. A data directory without eventstore.yml needs blockSize,
// since the block grid of a data file cannot be read back from the file.
func LoadConfig(configPath, rootDir, blockSize string) (*EventStoreConfig, error) {
	cfg := InstanceConfig
	if rootDir == "" {
		if err := cfg.ParseFile(configPath); err != nil {
			return nil, err
		}
		return &cfg, nil
	}

	confPath := filepath.Join(rootDir, ConfigFileName)
	found := false
	if _, err := os.Stat(confPath); err == nil {
		if err := cfg.ParseFile(confPath); err != nil {
			return nil, err
		}
		found = true
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("stat %s: %w", confPath, err)
	}
	cfg.RootDirectory = rootDir

	if blockSize == "" {
		if !found {
			return nil, fmt.Errorf("%s not found: pass the block size the data file was created with", confPath)
		}
		return &cfg, nil
	}
	size, err := io.ParseByteSize(blockSize)
	if err != nil {
		return nil, fmt.Errorf("invalid block size %q: %w", blockSize, err)
	}
	if size < MinBlockSize {
		return nil, fmt.Errorf("block size %d is below the minimum of %d bytes", size, MinBlockSize)
	}
	if found && size != cfg.BlockSize {
		return nil, fmt.Errorf("block size %d does not match block_size %d in %s", size, cfg.BlockSize, confPath)
	}
	cfg.BlockSize = size
	return &cfg, nil
}
