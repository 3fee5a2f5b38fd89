package datafile_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alpacahq/eventstore/block"
	"github.com/alpacahq/eventstore/datafile"
	"github.com/alpacahq/eventstore/paths"
)

const testBlockSize = 256

func openTemp(t *testing.T) (*datafile.DataFile, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.bin")
	f, err := datafile.Open(path, testBlockSize)
	require.Nil(t, err)
	return f, path
}

func insert(t *testing.T, f *datafile.DataFile, objectID, ts uint64) {
	t.Helper()
	var target *block.Block
	for _, b := range f.Blocks() {
		if !b.IsEmpty() && b.MaxObjectID >= objectID {
			target = b
			break
		}
	}
	if target == nil {
		target = f.Blocks()[f.BlockCount()-1]
	}
	_, err := block.Insert(f, target, &paths.Event{ObjectID: objectID, Timestamp: ts, Payload: make([]byte, 8)})
	require.Nil(t, err)
}

func TestOpenCreatesOneEmptyBlock(t *testing.T) {
	t.Parallel()
	f, path := openTemp(t)
	defer f.Close()

	assert.Equal(t, 1, f.BlockCount())
	assert.True(t, f.Blocks()[0].IsEmpty())
	assert.Len(t, f.Data(), testBlockSize)

	fi, err := os.Stat(path)
	require.Nil(t, err)
	assert.Equal(t, int64(testBlockSize), fi.Size())
}

func TestOpenRejectsMisalignedFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "data.bin")
	require.Nil(t, os.WriteFile(path, make([]byte, testBlockSize+1), 0o600))

	f, err := datafile.Open(path, testBlockSize)
	assert.NotNil(t, err)
	assert.Nil(t, f)
}

func TestOpenRejectsTinyBlockSize(t *testing.T) {
	t.Parallel()
	f, err := datafile.Open(filepath.Join(t.TempDir(), "data.bin"), block.HeaderSize)
	assert.NotNil(t, err)
	assert.Nil(t, f)
}

func TestInsertBlocksShiftsData(t *testing.T) {
	t.Parallel()
	f, _ := openTemp(t)
	defer f.Close()

	require.Nil(t, f.InsertBlocks(1, 1))
	copy(f.Data()[testBlockSize:], bytes.Repeat([]byte{0xee}, testBlockSize))
	f.Blocks()[1].MinObjectID = 42

	require.Nil(t, f.InsertBlocks(1, 2))
	require.Equal(t, 4, f.BlockCount())
	assert.Len(t, f.Data(), 4*testBlockSize)
	for i, b := range f.Blocks() {
		assert.Equal(t, uint32(i), b.Index)
	}
	assert.Equal(t, uint64(42), f.Blocks()[3].MinObjectID)
	assert.Equal(t, make([]byte, 2*testBlockSize), f.Data()[testBlockSize:3*testBlockSize])
	assert.Equal(t, bytes.Repeat([]byte{0xee}, testBlockSize), f.Data()[3*testBlockSize:])
}

func TestInsertBlocksRejectsBadArguments(t *testing.T) {
	t.Parallel()
	f, _ := openTemp(t)
	defer f.Close()

	assert.NotNil(t, f.InsertBlocks(0, 0))
	assert.NotNil(t, f.InsertBlocks(5, 1))
	assert.Equal(t, 1, f.BlockCount())
}

func TestReopenRestoresDirectory(t *testing.T) {
	t.Parallel()
	f, path := openTemp(t)
	for id := uint64(1); id <= 12; id++ {
		insert(t, f, id, id*10)
	}
	// object 20 outgrows a block and becomes a span
	for ts := uint64(0); ts < 25; ts++ {
		insert(t, f, 20, ts)
	}
	want := make([]block.Block, f.BlockCount())
	for i, b := range f.Blocks() {
		want[i] = *b
	}
	require.Nil(t, f.Close())

	f, err := datafile.Open(path, testBlockSize)
	require.Nil(t, err)
	defer f.Close()

	require.Equal(t, len(want), f.BlockCount())
	spanned := 0
	for i, b := range f.Blocks() {
		assert.Equal(t, want[i], *b, "block %d", i)
		if b.Spanned {
			spanned++
		}
	}
	assert.GreaterOrEqual(t, spanned, 2)

	p, err := block.FindPath(f, f.Blocks()[0], 1)
	require.Nil(t, err)
	assert.NotNil(t, p)
}

func TestSnapshotRestore(t *testing.T) {
	t.Parallel()
	for _, compress := range []bool{true, false} {
		f, _ := openTemp(t)
		for id := uint64(1); id <= 20; id++ {
			insert(t, f, id, id)
		}

		var buf bytes.Buffer
		require.Nil(t, f.Snapshot(&buf, compress))

		restored, err := datafile.Restore(&buf, filepath.Join(t.TempDir(), "restored.bin"), testBlockSize, compress)
		require.Nil(t, err)
		assert.Equal(t, f.Data(), restored.Data())
		assert.Equal(t, f.BlockCount(), restored.BlockCount())

		require.Nil(t, restored.Close())
		require.Nil(t, f.Close())
	}
}

func TestCloseUnmaps(t *testing.T) {
	t.Parallel()
	f, _ := openTemp(t)
	require.Nil(t, f.Close())
	assert.Nil(t, f.Data())

	_, err := block.Bytes(f, &block.Block{})
	var pe block.PreconditionError
	assert.ErrorAs(t, err, &pe)
}

func TestOpenExisting(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "data.bin")
	_, err := datafile.OpenExisting(path, testBlockSize)
	assert.True(t, os.IsNotExist(errors.Cause(err)))

	f, err := datafile.Open(path, testBlockSize)
	require.Nil(t, err)
	require.Nil(t, f.Close())

	f, err = datafile.OpenExisting(path, testBlockSize)
	require.Nil(t, err)
	require.Nil(t, f.Close())
}
