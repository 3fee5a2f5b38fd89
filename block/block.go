// Package block manages the fixed-size blocks of a mapped event data file:
// the on-disk block header, block addressing, spans of blocks holding a
// single large object path, path lookup and the split algorithm that keeps
// every block within the file's block size as events are appended.
//
// A block never holds a reference to its data file. Every operation takes the
// file as an argument so that a remap or growth of the file can never leave a
// block pointing at stale memory.
package block

import (
	"fmt"

	"github.com/alpacahq/eventstore/paths"
)

// File is the view of a mapped data file the block operations need.
type File interface {
	// BlockSize is the fixed size of every block in bytes.
	BlockSize() int
	// Data is the mapped region, nil when the file is not mapped.
	Data() []byte
	// Blocks is the directory of blocks ordered by index.
	Blocks() []*Block
	BlockCount() int
}

// GrowableFile is a File whose directory can grow during a split.
type GrowableFile interface {
	File
	// InsertBlocks inserts n empty blocks at directory index at, shifting the
	// bytes and indices of the blocks from at onwards. On error the file must
	// be left unchanged.
	InsertBlocks(at uint32, n int) error
}

// Block is one fixed-size unit of a data file.
type Block struct {
	Index        uint32
	MinObjectID  uint64
	MaxObjectID  uint64
	MinTimestamp uint64
	MaxTimestamp uint64
	// Spanned is set on every block of a run of blocks holding the path of a
	// single object too large for one block.
	Spanned bool
}

// IsEmpty reports whether the block holds no paths. Object id 0 is reserved,
// so an empty block is one whose range starts at 0.
func (b *Block) IsEmpty() bool {
	return b.MinObjectID == 0
}

// ContainsObject reports whether objectID falls inside the block's range.
func (b *Block) ContainsObject(objectID uint64) bool {
	return !b.IsEmpty() && objectID >= b.MinObjectID && objectID <= b.MaxObjectID
}

// Reset clears the block's ranges and span flag.
func (b *Block) Reset() {
	b.MinObjectID, b.MaxObjectID = 0, 0
	b.MinTimestamp, b.MaxTimestamp = 0, 0
	b.Spanned = false
}

// Widen extends the ranges of b to cover ev. An empty block takes the ranges of ev.
func (b *Block) Widen(ev *paths.Event) {
	if b.IsEmpty() {
		b.MinObjectID, b.MaxObjectID = ev.ObjectID, ev.ObjectID
		b.MinTimestamp, b.MaxTimestamp = ev.Timestamp, ev.Timestamp
		return
	}
	if ev.ObjectID < b.MinObjectID {
		b.MinObjectID = ev.ObjectID
	}
	if ev.ObjectID > b.MaxObjectID {
		b.MaxObjectID = ev.ObjectID
	}
	if ev.Timestamp < b.MinTimestamp {
		b.MinTimestamp = ev.Timestamp
	}
	if ev.Timestamp > b.MaxTimestamp {
		b.MaxTimestamp = ev.Timestamp
	}
}

func (b *Block) String() string {
	return fmt.Sprintf("block[%d objects=%d..%d ts=%d..%d spanned=%v]",
		b.Index, b.MinObjectID, b.MaxObjectID, b.MinTimestamp, b.MaxTimestamp, b.Spanned)
}

// Capacity is the number of bytes available for paths in each block of f.
func Capacity(f File) int {
	return f.BlockSize() - HeaderSize
}
