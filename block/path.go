package block

import (
	"github.com/alpacahq/eventstore/paths"
)

// FindPath returns the bytes of the path of objectID inside b, or nil when b
// holds no such path. A miss is not an error.
func FindPath(f File, b *Block, objectID uint64) ([]byte, error) {
	if b == nil {
		return nil, invalidArgument("block required")
	}
	if objectID == 0 {
		return nil, invalidArgument("object id required")
	}
	region, err := Region(f, b)
	if err != nil {
		return nil, err
	}
	_, path, err := locatePath(region, objectID)
	if err != nil {
		return nil, err
	}
	return path, nil
}

// locatePath walks region up to objectID. It returns the offset of the
// matching path and its bytes, or, on a miss, the offset at which a path for
// objectID would keep the region ordered and a nil path.
func locatePath(region []byte, objectID uint64) (int, []byte, error) {
	it, err := paths.NewIterator(region)
	if err != nil {
		return 0, nil, err
	}
	defer it.Close()

	for !it.EOF() && it.ObjectID() < objectID {
		if err := it.Next(); err != nil {
			return 0, nil, err
		}
	}
	if !it.EOF() && it.ObjectID() == objectID {
		return it.Offset(), it.Path(), nil
	}
	return it.Offset(), nil, nil
}

// Size returns the serialized size of b: its header plus the bytes used by
// its paths.
func Size(f File, b *Block) (int, error) {
	region, err := Region(f, b)
	if err != nil {
		return 0, err
	}
	used, err := paths.Used(region)
	if err != nil {
		return 0, err
	}
	return HeaderSize + used, nil
}
