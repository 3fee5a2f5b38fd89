package block_test

import (
	"errors"

	"github.com/alpacahq/eventstore/block"
	"github.com/alpacahq/eventstore/paths"
)

// memFile is an in-memory block.GrowableFile.
type memFile struct {
	blockSize int
	data      []byte
	blocks    []*block.Block
	unmapped  bool
	growErr   error
}

func newMemFile(blockSize, count int) *memFile {
	m := &memFile{
		blockSize: blockSize,
		data:      make([]byte, blockSize*count),
	}
	for i := 0; i < count; i++ {
		m.blocks = append(m.blocks, &block.Block{Index: uint32(i)})
	}
	return m
}

func (m *memFile) BlockSize() int { return m.blockSize }

func (m *memFile) Data() []byte {
	if m.unmapped {
		return nil
	}
	return m.data
}

func (m *memFile) Blocks() []*block.Block { return m.blocks }

func (m *memFile) BlockCount() int { return len(m.blocks) }

func (m *memFile) InsertBlocks(at uint32, n int) error {
	if m.growErr != nil {
		return m.growErr
	}
	if int(at) > len(m.blocks) || n <= 0 {
		return errors.New("bad insert")
	}
	bs := m.blockSize
	grown := make([]byte, len(m.data)+n*bs)
	copy(grown, m.data[:int(at)*bs])
	copy(grown[(int(at)+n)*bs:], m.data[int(at)*bs:])
	m.data = grown

	fresh := make([]*block.Block, n)
	for i := range fresh {
		fresh[i] = &block.Block{}
	}
	blocks := make([]*block.Block, 0, len(m.blocks)+n)
	blocks = append(blocks, m.blocks[:at]...)
	blocks = append(blocks, fresh...)
	blocks = append(blocks, m.blocks[at:]...)
	for i, b := range blocks {
		b.Index = uint32(i)
	}
	m.blocks = blocks
	return nil
}

// route picks the first block whose range reaches objectID, else the last.
func route(f block.File, objectID uint64) *block.Block {
	blocks := f.Blocks()
	for _, b := range blocks {
		if !b.IsEmpty() && b.MaxObjectID >= objectID {
			return b
		}
	}
	return blocks[len(blocks)-1]
}

// allEvents decodes every path of every block, keyed by object id, along
// with the indexes of the blocks each object was found in.
func allEvents(f block.File) (map[uint64][]paths.Event, map[uint64][]uint32, error) {
	evs := map[uint64][]paths.Event{}
	where := map[uint64][]uint32{}
	for _, b := range f.Blocks() {
		region, err := block.Region(f, b)
		if err != nil {
			return nil, nil, err
		}
		it, err := paths.NewIterator(region)
		if err != nil {
			return nil, nil, err
		}
		for !it.EOF() {
			id, decoded, err := paths.DecodeEvents(it.Path())
			if err != nil {
				it.Close()
				return nil, nil, err
			}
			evs[id] = append(evs[id], decoded...)
			where[id] = append(where[id], b.Index)
			if err := it.Next(); err != nil {
				it.Close()
				return nil, nil, err
			}
		}
		it.Close()
	}
	return evs, where, nil
}
