package block

import (
	"fmt"
)

// SpanCount returns the number of consecutive blocks holding the path that
// starts in b. b must be the first block of its span; use SpanStart when that
// is not known.
func SpanCount(f File, b *Block) (uint32, error) {
	if b == nil {
		return 0, precondition("block required")
	}
	if f == nil {
		return 0, precondition("data file required")
	}
	if !b.Spanned {
		return 1, nil
	}

	blocks := f.Blocks()
	if len(blocks) == 0 {
		return 0, precondition("data file has no blocks")
	}
	if int(b.Index) >= len(blocks) {
		return 0, precondition(fmt.Sprintf("block %d is outside a directory of %d blocks", b.Index, len(blocks)))
	}

	index := int(b.Index) + 1
	for index < len(blocks) && blocks[index].MinObjectID == b.MinObjectID {
		index++
	}
	return uint32(index) - b.Index, nil
}

// SpanStart returns the first block of the span b belongs to, or b itself
// when it is not spanned.
func SpanStart(f File, b *Block) (*Block, error) {
	if b == nil {
		return nil, precondition("block required")
	}
	if f == nil {
		return nil, precondition("data file required")
	}
	if !b.Spanned {
		return b, nil
	}
	blocks := f.Blocks()
	if int(b.Index) >= len(blocks) {
		return nil, precondition(fmt.Sprintf("block %d is outside a directory of %d blocks", b.Index, len(blocks)))
	}
	i := int(b.Index)
	for i > 0 && blocks[i-1].Spanned && blocks[i-1].MinObjectID == b.MinObjectID {
		i--
	}
	return blocks[i], nil
}
