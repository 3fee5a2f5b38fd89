// Package datafile owns the memory-mapped file that backs a block store: its
// block size, the mapping, the ordered block directory and growth of the
// file when blocks split.
//
// A DataFile provides no concurrency guarantee. Callers serialize writers and
// must not read while InsertBlocks runs.
package datafile

import (
	"os"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"github.com/alpacahq/eventstore/block"
	"github.com/alpacahq/eventstore/utils/log"
)

var _ block.GrowableFile = (*DataFile)(nil)

type DataFile struct {
	path      string
	fp        *os.File
	data      []byte
	blockSize int
	blocks    []*block.Block
}

// Open maps the data file at path, creating it with a single empty block when
// it does not exist or is empty. The directory is rebuilt from the block
// headers.
func Open(path string, blockSize int) (*DataFile, error) {
	if blockSize <= block.HeaderSize {
		return nil, errors.Errorf("block size %d must be larger than the %d byte header", blockSize, block.HeaderSize)
	}
	fp, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, errors.Wrapf(err, "open data file %s", path)
	}
	fi, err := fp.Stat()
	if err != nil {
		fp.Close()
		return nil, errors.Wrapf(err, "stat data file %s", path)
	}
	size := fi.Size()
	if size == 0 {
		if err := fp.Truncate(int64(blockSize)); err != nil {
			fp.Close()
			return nil, errors.Wrapf(err, "allocate first block of %s", path)
		}
		size = int64(blockSize)
	}
	if size%int64(blockSize) != 0 {
		fp.Close()
		return nil, errors.Errorf("size %d of %s is not a multiple of the block size %d", size, path, blockSize)
	}

	f := &DataFile{
		path:      path,
		fp:        fp,
		blockSize: blockSize,
	}
	if err := f.mmap(int(size)); err != nil {
		fp.Close()
		return nil, err
	}
	if err := f.loadDirectory(); err != nil {
		f.Close()
		return nil, err
	}
	log.Info("opened data file %s: %d blocks of %d bytes", path, len(f.blocks), blockSize)
	return f, nil
}

// OpenExisting is Open for a data file that must already exist.
func OpenExisting(path string, blockSize int) (*DataFile, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, errors.Wrapf(err, "data file %s", path)
	}
	return Open(path, blockSize)
}

func (f *DataFile) Path() string { return f.path }

func (f *DataFile) BlockSize() int { return f.blockSize }

// Data is the mapped region, nil once the file is closed.
func (f *DataFile) Data() []byte { return f.data }

func (f *DataFile) Blocks() []*block.Block { return f.blocks }

func (f *DataFile) BlockCount() int { return len(f.blocks) }

func (f *DataFile) mmap(size int) error {
	data, err := unix.Mmap(int(f.fp.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return errors.Wrapf(err, "mmap %d bytes of %s", size, f.path)
	}
	f.data = data
	return nil
}

func (f *DataFile) munmap() error {
	if f.data == nil {
		return nil
	}
	if err := unix.Munmap(f.data); err != nil {
		return errors.Wrapf(err, "munmap %s", f.path)
	}
	f.data = nil
	return nil
}

func (f *DataFile) remap(size int) error {
	if err := f.munmap(); err != nil {
		return err
	}
	return f.mmap(size)
}

func (f *DataFile) loadDirectory() error {
	count := len(f.data) / f.blockSize
	blocks := make([]*block.Block, count)
	for i := range blocks {
		b := &block.Block{Index: uint32(i)}
		data, err := block.Bytes(f, b)
		if err != nil {
			return err
		}
		if _, err := block.Unpack(b, data); err != nil {
			return errors.Wrapf(err, "read header of block %d", i)
		}
		blocks[i] = b
	}
	markSpans(blocks)
	f.blocks = blocks
	return nil
}

// markSpans restores the span flags, which are not part of the header: two
// neighbouring blocks that each hold only the same object are a span.
func markSpans(blocks []*block.Block) {
	for i := 1; i < len(blocks); i++ {
		prev, b := blocks[i-1], blocks[i]
		if b.IsEmpty() || prev.MinObjectID != b.MinObjectID {
			continue
		}
		if prev.MinObjectID == prev.MaxObjectID && b.MinObjectID == b.MaxObjectID {
			prev.Spanned = true
			b.Spanned = true
		}
	}
}

// InsertBlocks grows the file by n empty blocks placed at directory index at.
// Blocks from at onwards move n blocks towards the end of the file. When the
// file cannot be grown or remapped it is left as it was.
func (f *DataFile) InsertBlocks(at uint32, n int) error {
	if n <= 0 {
		return errors.Errorf("cannot insert %d blocks", n)
	}
	if int(at) > len(f.blocks) {
		return errors.Errorf("insert position %d is past the %d blocks of %s", at, len(f.blocks), f.path)
	}
	if f.data == nil {
		return errors.Errorf("data file %s is not mapped", f.path)
	}

	bs := f.blockSize
	oldSize := len(f.data)
	newSize := oldSize + n*bs
	if err := f.fp.Truncate(int64(newSize)); err != nil {
		return errors.Wrapf(err, "grow %s to %d bytes", f.path, newSize)
	}
	if err := f.remap(newSize); err != nil {
		if terr := f.fp.Truncate(int64(oldSize)); terr != nil {
			log.Error("failed to shrink %s back to %d bytes: %v", f.path, oldSize, terr)
		}
		if f.data == nil {
			if merr := f.mmap(oldSize); merr != nil {
				log.Error("failed to remap %s: %v", f.path, merr)
			}
		}
		return err
	}

	start := int(at) * bs
	copy(f.data[start+n*bs:], f.data[start:oldSize])
	fresh := f.data[start : start+n*bs]
	for i := range fresh {
		fresh[i] = 0
	}

	blocks := make([]*block.Block, 0, len(f.blocks)+n)
	blocks = append(blocks, f.blocks[:at]...)
	for i := 0; i < n; i++ {
		blocks = append(blocks, &block.Block{})
	}
	blocks = append(blocks, f.blocks[at:]...)
	for i, b := range blocks {
		b.Index = uint32(i)
	}
	f.blocks = blocks

	log.Debug("inserted %d blocks at %d in %s, now %d blocks", n, at, f.path, len(blocks))
	return nil
}

// Sync flushes the mapped region to disk.
func (f *DataFile) Sync() error {
	if f.data == nil {
		return nil
	}
	if err := unix.Msync(f.data, unix.MS_SYNC); err != nil {
		return errors.Wrapf(err, "msync %s", f.path)
	}
	return nil
}

// Close syncs, unmaps and closes the file.
func (f *DataFile) Close() error {
	syncErr := f.Sync()
	unmapErr := f.munmap()
	closeErr := f.fp.Close()
	switch {
	case syncErr != nil:
		return syncErr
	case unmapErr != nil:
		return unmapErr
	case closeErr != nil:
		return errors.Wrapf(closeErr, "close %s", f.path)
	}
	return nil
}
