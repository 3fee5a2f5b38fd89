package block

import (
	"fmt"
)

// Offset returns the byte offset of b from the start of f.
func Offset(f File, b *Block) (int64, error) {
	if b == nil {
		return 0, invalidArgument("block required")
	}
	if f == nil {
		return 0, precondition("data file required")
	}
	if f.BlockSize() <= 0 {
		return 0, precondition("data file must have a nonzero block size")
	}
	return int64(f.BlockSize()) * int64(b.Index), nil
}

// Bytes returns the mapped bytes of b, header included. The returned slice is
// capped at the block boundary.
func Bytes(f File, b *Block) ([]byte, error) {
	if b == nil {
		return nil, invalidArgument("block required")
	}
	if f == nil {
		return nil, precondition("data file required")
	}
	data := f.Data()
	if data == nil {
		return nil, precondition("data file must be mapped")
	}
	offset, err := Offset(f, b)
	if err != nil {
		return nil, err
	}
	end := offset + int64(f.BlockSize())
	if end > int64(len(data)) {
		return nil, precondition(fmt.Sprintf("block %d lies outside the %d mapped bytes", b.Index, len(data)))
	}
	return data[offset:end:end], nil
}

// Region returns the bytes of b that follow its header.
func Region(f File, b *Block) ([]byte, error) {
	data, err := Bytes(f, b)
	if err != nil {
		return nil, err
	}
	if len(data) < HeaderSize {
		return nil, precondition(fmt.Sprintf("block size %d is smaller than the header", len(data)))
	}
	return data[HeaderSize:], nil
}
