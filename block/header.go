package block

import (
	"encoding/binary"
	"fmt"
)

// HeaderSize is the size of the header at the start of every block: the
// object id range followed by the timestamp range, each bound an 8-byte
// big-endian integer, with no padding and no version tag.
const HeaderSize = 32

// Pack writes the header of b into buf and returns the number of bytes
// written.
func Pack(b *Block, buf []byte) (int, error) {
	if b == nil {
		return 0, invalidArgument("block required")
	}
	if buf == nil {
		return 0, invalidArgument("buffer required")
	}
	if len(buf) < HeaderSize {
		return 0, invalidArgument(fmt.Sprintf("header needs %d bytes, buffer has %d", HeaderSize, len(buf)))
	}

	binary.BigEndian.PutUint64(buf[0:8], b.MinObjectID)
	binary.BigEndian.PutUint64(buf[8:16], b.MaxObjectID)
	binary.BigEndian.PutUint64(buf[16:24], b.MinTimestamp)
	binary.BigEndian.PutUint64(buf[24:32], b.MaxTimestamp)
	return HeaderSize, nil
}

// Unpack reads a header from buf into b and returns the number of bytes
// read. On failure it returns 0 and leaves b untouched.
func Unpack(b *Block, buf []byte) (int, error) {
	if b == nil {
		return 0, invalidArgument("block required")
	}
	if buf == nil {
		return 0, invalidArgument("buffer required")
	}
	if len(buf) < HeaderSize {
		return 0, invalidArgument(fmt.Sprintf("header needs %d bytes, buffer has %d", HeaderSize, len(buf)))
	}

	b.MinObjectID = binary.BigEndian.Uint64(buf[0:8])
	b.MaxObjectID = binary.BigEndian.Uint64(buf[8:16])
	b.MinTimestamp = binary.BigEndian.Uint64(buf[16:24])
	b.MaxTimestamp = binary.BigEndian.Uint64(buf[24:32])
	return HeaderSize, nil
}
