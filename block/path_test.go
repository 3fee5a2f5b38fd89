package block_test

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alpacahq/eventstore/block"
	"github.com/alpacahq/eventstore/paths"
)

func fileWithObjects(t *testing.T, blockSize int, ids ...uint64) *memFile {
	t.Helper()
	f := newMemFile(blockSize, 1)
	for i, id := range ids {
		_, err := block.Insert(f, f.blocks[0], &paths.Event{ObjectID: id, Timestamp: uint64(100 + i), Payload: []byte("x")})
		require.Nil(t, err)
	}
	return f
}

func TestFindPath(t *testing.T) {
	t.Parallel()
	f := fileWithObjects(t, 512, 4, 2, 9)

	for _, id := range []uint64{2, 4, 9} {
		p, err := block.FindPath(f, f.blocks[0], id)
		require.Nil(t, err)
		require.NotNil(t, p)
		assert.Equal(t, id, binary.BigEndian.Uint64(p[:8]))
		assert.Equal(t, paths.PathHeaderSize+paths.EventHeaderSize+1, len(p))
	}
}

func TestFindPathMiss(t *testing.T) {
	t.Parallel()
	f := fileWithObjects(t, 512, 4, 2, 9)

	for _, id := range []uint64{1, 3, 10} {
		p, err := block.FindPath(f, f.blocks[0], id)
		assert.Nil(t, err)
		assert.Nil(t, p)
	}

	empty := newMemFile(512, 1)
	p, err := block.FindPath(empty, empty.blocks[0], 1)
	assert.Nil(t, err)
	assert.Nil(t, p)
}

func TestFindPathInvalid(t *testing.T) {
	t.Parallel()
	f := newMemFile(512, 1)
	var ie block.InvalidArgumentError

	p, err := block.FindPath(f, f.blocks[0], 0)
	assert.True(t, errors.As(err, &ie))
	assert.Nil(t, p)

	p, err = block.FindPath(f, nil, 3)
	assert.True(t, errors.As(err, &ie))
	assert.Nil(t, p)

	f.unmapped = true
	p, err = block.FindPath(f, f.blocks[0], 3)
	var pe block.PreconditionError
	assert.True(t, errors.As(err, &pe))
	assert.Nil(t, p)
}

func TestSize(t *testing.T) {
	t.Parallel()
	f := fileWithObjects(t, 512, 1, 2)
	sz, err := block.Size(f, f.blocks[0])
	require.Nil(t, err)
	assert.Equal(t, block.HeaderSize+2*(paths.PathHeaderSize+paths.EventHeaderSize+1), sz)
}
