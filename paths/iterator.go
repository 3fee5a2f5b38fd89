package paths

import (
	"fmt"
	"sync"
)

var iteratorPool = sync.Pool{
	New: func() interface{} { return new(Iterator) },
}

// Iterator walks the paths stored in one block's data region (the block bytes
// following its header). It must be released with Close.
type Iterator struct {
	region   []byte
	offset   int
	size     int
	objectID uint64
	eof      bool
}

// NewIterator returns an iterator positioned at the first path of region.
func NewIterator(region []byte) (*Iterator, error) {
	it := iteratorPool.Get().(*Iterator)
	it.region = region
	it.offset = 0
	if err := it.load(); err != nil {
		it.Close()
		return nil, err
	}
	return it, nil
}

func (it *Iterator) load() error {
	objectID, eventsLen, ok := ReadPathHeader(it.region[it.offset:])
	if !ok {
		it.eof = true
		it.objectID = 0
		it.size = 0
		return nil
	}
	size := PathHeaderSize + eventsLen
	if len(it.region)-it.offset < size {
		it.eof = true
		return malformedPath(fmt.Sprintf("path of object %d at offset %d overruns block", objectID, it.offset))
	}
	it.eof = false
	it.objectID = objectID
	it.size = size
	return nil
}

// EOF reports whether the iterator has moved past the last path.
func (it *Iterator) EOF() bool {
	return it.eof
}

// ObjectID is the object id of the path under the cursor, 0 at EOF.
func (it *Iterator) ObjectID() uint64 {
	return it.objectID
}

// Offset is the byte offset of the cursor within the region. At EOF it is the
// number of bytes used by paths.
func (it *Iterator) Offset() int {
	return it.offset
}

// Path is the view of the path under the cursor, nil at EOF.
func (it *Iterator) Path() []byte {
	if it.eof {
		return nil
	}
	return it.region[it.offset : it.offset+it.size]
}

// Next advances to the following path.
func (it *Iterator) Next() error {
	if it.eof {
		return nil
	}
	it.offset += it.size
	return it.load()
}

// Close returns the iterator to the pool. The iterator must not be used
// afterwards.
func (it *Iterator) Close() {
	if it == nil {
		return
	}
	it.region = nil
	it.offset = 0
	it.size = 0
	it.objectID = 0
	it.eof = true
	iteratorPool.Put(it)
}

// Used returns the number of bytes of region occupied by paths.
func Used(region []byte) (int, error) {
	it, err := NewIterator(region)
	if err != nil {
		return 0, err
	}
	defer it.Close()
	for !it.EOF() {
		if err := it.Next(); err != nil {
			return 0, err
		}
	}
	return it.Offset(), nil
}
