package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var namespace = "alpaca"
var subsystem = "eventstore"

var (
	// StartupTime stores how long opening the data file took (in seconds)
	StartupTime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "startup_seconds",
			Help:      "Seconds taken to open the data file and rebuild its directory",
		},
	)

	// EventsWrittenTotal stores the number of events inserted into blocks
	EventsWrittenTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "events_written_total",
		Help:      "Number of events inserted into blocks",
	})

	// WriteDuration stores the processing time for every write batch
	WriteDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "write_duration_seconds",
		Help:      "Processing time of a write batch, including splits and msync",
	})

	// BlockSplitsTotal stores the number of inserts that had to split their block or span
	BlockSplitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "block_splits_total",
		Help:      "Number of inserts that redistributed a block or span over new blocks",
	})

	// BlockCount stores the number of blocks in the data file
	BlockCount = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "blocks",
		Help:      "Number of blocks in the data file",
	})

	// SpannedBlockCount stores the number of blocks that belong to a span
	SpannedBlockCount = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "spanned_blocks",
		Help:      "Number of blocks holding a fragment of a spanning path",
	})

	// DiskUsage stores the bytes the data directory actually occupies on disk
	DiskUsage = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "disk_usage_bytes",
		Help:      "Bytes used on disk by the data directory",
	})
)
