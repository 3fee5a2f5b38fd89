package executor

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/alpacahq/eventstore/block"
	"github.com/alpacahq/eventstore/metrics"
	"github.com/alpacahq/eventstore/paths"
	"github.com/alpacahq/eventstore/utils/log"
)

// DataFile is the storage a Writer inserts into.
type DataFile interface {
	block.GrowableFile
	Sync() error
}

// Writer serializes inserts into one data file and serves lookups while no
// insert is running.
type Writer struct {
	mu          sync.RWMutex
	file        DataFile
	syncOnWrite bool
	closed      bool

	// index maps an object id to the block holding its path, or to the first
	// block of its span.
	index map[uint64]uint32
}

func NewWriter(f DataFile, syncOnWrite bool) (*Writer, error) {
	w := &Writer{
		file:        f,
		syncOnWrite: syncOnWrite,
	}
	if err := w.rebuildIndex(); err != nil {
		return nil, err
	}
	w.setGauges()
	return w, nil
}

// Write inserts events in order. Events written before a failing event stay
// written; the error names the object whose insert failed.
func (w *Writer) Write(events []paths.Event) error {
	start := time.Now()
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return writerClosed("write")
	}

	stale := false
	var werr error
	written := 0
	for i := range events {
		ev := &events[i]
		if ev.ObjectID == 0 {
			werr = invalidObject("write")
			break
		}
		before := w.file.BlockCount()
		target := route(w.file.Blocks(), ev.ObjectID)
		if target == nil {
			werr = errors.Errorf("data file has no blocks")
			break
		}
		spanned := target.Spanned

		b, err := block.Insert(w.file, target, ev)
		if err != nil {
			werr = errors.Wrapf(err, "insert event for object %d at %d", ev.ObjectID, ev.Timestamp)
			break
		}
		written++

		grew := w.file.BlockCount() != before
		if grew || spanned {
			metrics.BlockSplitsTotal.Inc()
		}
		switch {
		case grew:
			stale = true
		case stale:
		case b.Spanned:
			s, err := block.SpanStart(w.file, b)
			if err != nil {
				stale = true
				break
			}
			w.index[ev.ObjectID] = s.Index
		default:
			w.index[ev.ObjectID] = b.Index
		}
	}
	metrics.EventsWrittenTotal.Add(float64(written))

	if stale {
		if err := w.rebuildIndex(); err != nil {
			log.Error("rebuild object index: %v", err)
			if werr == nil {
				werr = err
			}
		}
	}
	w.setGauges()

	if w.syncOnWrite && written > 0 {
		if err := w.file.Sync(); err != nil && werr == nil {
			werr = errors.Wrap(err, "sync after write")
		}
	}
	metrics.WriteDuration.Observe(time.Since(start).Seconds())
	return werr
}

// route picks the block an event for objectID is inserted through: the first
// block whose object ids reach objectID, or the last block. An object that
// would land on a span of another object goes to the block in front of the
// span when that block is not itself a span.
//
// Splits never leave empty blocks behind, so the only empty block is the
// single block of a fresh file.
func route(blocks []*block.Block, objectID uint64) *block.Block {
	if len(blocks) == 0 {
		return nil
	}
	i := sort.Search(len(blocks), func(i int) bool {
		return !blocks[i].IsEmpty() && blocks[i].MaxObjectID >= objectID
	})
	if i == len(blocks) {
		return blocks[len(blocks)-1]
	}
	target := blocks[i]
	if target.Spanned && target.MinObjectID != objectID && i > 0 && !blocks[i-1].Spanned {
		return blocks[i-1]
	}
	return target
}

func (w *Writer) rebuildIndex() error {
	index := make(map[uint64]uint32)
	for _, b := range w.file.Blocks() {
		if b.IsEmpty() {
			continue
		}
		region, err := block.Region(w.file, b)
		if err != nil {
			return err
		}
		if err := indexRegion(index, region, b.Index); err != nil {
			return errors.Wrapf(err, "index block %d", b.Index)
		}
	}
	w.index = index
	return nil
}

func indexRegion(index map[uint64]uint32, region []byte, blockIndex uint32) error {
	it, err := paths.NewIterator(region)
	if err != nil {
		return err
	}
	defer it.Close()

	for !it.EOF() {
		if _, ok := index[it.ObjectID()]; !ok {
			index[it.ObjectID()] = blockIndex
		}
		if err := it.Next(); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) setGauges() {
	spanned := 0
	for _, b := range w.file.Blocks() {
		if b.Spanned {
			spanned++
		}
	}
	metrics.BlockCount.Set(float64(w.file.BlockCount()))
	metrics.SpannedBlockCount.Set(float64(spanned))
}

// Locate returns the block holding objectID's path, or the first block of its
// span. It returns nil when the object has no events.
func (w *Writer) Locate(objectID uint64) (*block.Block, error) {
	if objectID == 0 {
		return nil, invalidObject("locate")
	}
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.closed {
		return nil, writerClosed("locate")
	}
	return w.locate(objectID), nil
}

func (w *Writer) locate(objectID uint64) *block.Block {
	i, ok := w.index[objectID]
	if !ok {
		return nil
	}
	blocks := w.file.Blocks()
	if int(i) >= len(blocks) {
		return nil
	}
	return blocks[i]
}

// Events returns every event of objectID in timestamp order, joining the
// fragments of a span. The payloads are copies.
func (w *Writer) Events(objectID uint64) ([]paths.Event, error) {
	if objectID == 0 {
		return nil, invalidObject("events")
	}
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.closed {
		return nil, writerClosed("events")
	}
	b := w.locate(objectID)
	if b == nil {
		return nil, nil
	}
	count, err := block.SpanCount(w.file, b)
	if err != nil {
		return nil, err
	}

	var out []paths.Event
	blocks := w.file.Blocks()
	for i := b.Index; i < b.Index+count; i++ {
		path, err := block.FindPath(w.file, blocks[i], objectID)
		if err != nil {
			return nil, err
		}
		if path == nil {
			return nil, integrityError(fmt.Sprintf("object %d missing from block %d", objectID, i))
		}
		_, events, err := paths.DecodeEvents(path)
		if err != nil {
			return nil, errors.Wrapf(err, "decode object %d in block %d", objectID, i)
		}
		out = append(out, events...)
	}
	return out, nil
}

// Verify checks every block and the directory as a whole.
func (w *Writer) Verify() []error {
	w.mu.RLock()
	defer w.mu.RUnlock()

	var errs []error
	for _, b := range w.file.Blocks() {
		if err := VerifyBlock(w.file, b); err != nil {
			errs = append(errs, err)
		}
	}
	return append(errs, VerifyDirectory(w.file)...)
}

// Sync flushes the data file.
func (w *Writer) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Sync()
}

// Close stops the writer. The data file stays open; its owner closes it.
func (w *Writer) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
}
