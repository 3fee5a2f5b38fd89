package executor

import (
	"fmt"

	"github.com/alpacahq/eventstore/block"
	"github.com/alpacahq/eventstore/paths"
)

// VerifyBlock checks the contents of one block against its directory entry:
// the on-disk header, ascending object ids, timestamp order within each path
// and the recorded ranges. A spanned block must hold a single path.
func VerifyBlock(f block.File, b *block.Block) error {
	data, err := block.Bytes(f, b)
	if err != nil {
		return err
	}
	var onDisk block.Block
	if _, err := block.Unpack(&onDisk, data); err != nil {
		return err
	}
	if onDisk.MinObjectID != b.MinObjectID || onDisk.MaxObjectID != b.MaxObjectID ||
		onDisk.MinTimestamp != b.MinTimestamp || onDisk.MaxTimestamp != b.MaxTimestamp {
		return integrityError(fmt.Sprintf("block %d: header %s differs from directory %s", b.Index, &onDisk, b))
	}

	var got block.Block
	count, prevID := 0, uint64(0)
	it, err := paths.NewIterator(data[block.HeaderSize:])
	if err != nil {
		return err
	}
	defer it.Close()
	for !it.EOF() {
		objectID, events, err := paths.DecodeEvents(it.Path())
		if err != nil {
			return integrityError(fmt.Sprintf("block %d: %v", b.Index, err))
		}
		if objectID <= prevID {
			return integrityError(fmt.Sprintf("block %d: object %d follows object %d", b.Index, objectID, prevID))
		}
		if len(events) == 0 {
			return integrityError(fmt.Sprintf("block %d: object %d has an empty path", b.Index, objectID))
		}
		for i := range events {
			if i > 0 && events[i].Timestamp < events[i-1].Timestamp {
				return integrityError(fmt.Sprintf("block %d: object %d event %d is out of timestamp order",
					b.Index, objectID, i))
			}
			got.Widen(&events[i])
		}
		prevID = objectID
		count++
		if err := it.Next(); err != nil {
			return integrityError(fmt.Sprintf("block %d: %v", b.Index, err))
		}
	}

	if got.MinObjectID != b.MinObjectID || got.MaxObjectID != b.MaxObjectID ||
		got.MinTimestamp != b.MinTimestamp || got.MaxTimestamp != b.MaxTimestamp {
		return integrityError(fmt.Sprintf("block %d: ranges %s do not match contents %s", b.Index, b, &got))
	}
	if b.Spanned && count != 1 {
		return integrityError(fmt.Sprintf("block %d: spanned block holds %d paths", b.Index, count))
	}
	return nil
}

// VerifyDirectory checks the order of blocks: object ids ascend across the
// directory, and spans are runs of at least two spanned blocks of one object
// whose timestamps continue from block to block.
func VerifyDirectory(f block.File) []error {
	var errs []error
	blocks := f.Blocks()
	for i, b := range blocks {
		if b.Index != uint32(i) {
			errs = append(errs, integrityError(fmt.Sprintf("block at %d has index %d", i, b.Index)))
		}
		if b.IsEmpty() {
			if len(blocks) > 1 {
				errs = append(errs, integrityError(fmt.Sprintf("block %d is empty in a directory of %d blocks",
					i, len(blocks))))
			}
			if b.Spanned {
				errs = append(errs, integrityError(fmt.Sprintf("block %d is empty but spanned", i)))
			}
			continue
		}
		if b.Spanned {
			if b.MinObjectID != b.MaxObjectID {
				errs = append(errs, integrityError(fmt.Sprintf("spanned block %d holds objects %d..%d",
					i, b.MinObjectID, b.MaxObjectID)))
			}
			if !spanNeighbour(blocks, i-1, b) && !spanNeighbour(blocks, i+1, b) {
				errs = append(errs, integrityError(fmt.Sprintf("spanned block %d has no span neighbour", i)))
			}
		}
		if i == 0 {
			continue
		}
		prev := blocks[i-1]
		if prev.IsEmpty() {
			continue
		}
		if b.Spanned && spanNeighbour(blocks, i-1, b) {
			if prev.MaxTimestamp > b.MinTimestamp {
				errs = append(errs, integrityError(fmt.Sprintf("span of object %d goes back in time at block %d",
					b.MinObjectID, i)))
			}
			continue
		}
		if prev.MaxObjectID >= b.MinObjectID {
			errs = append(errs, integrityError(fmt.Sprintf("block %d starts at object %d, not after object %d of block %d",
				i, b.MinObjectID, prev.MaxObjectID, i-1)))
		}
	}
	return errs
}

func spanNeighbour(blocks []*block.Block, i int, b *block.Block) bool {
	if i < 0 || i >= len(blocks) {
		return false
	}
	n := blocks[i]
	return n.Spanned && n.MinObjectID == b.MinObjectID && n.MaxObjectID == b.MaxObjectID
}
