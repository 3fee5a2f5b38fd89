package executor_test

import (
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alpacahq/eventstore/block"
	"github.com/alpacahq/eventstore/executor"
	"github.com/alpacahq/eventstore/paths"
	"github.com/alpacahq/eventstore/utils/test"
)

func newWriter(t *testing.T, blockSize int) *executor.Writer {
	t.Helper()
	f, _ := test.MakeDataFile(t, blockSize)
	w, err := executor.NewWriter(f, false)
	require.Nil(t, err)
	return w
}

// expected groups events by object, in the order Insert keeps them: by
// timestamp, equal timestamps in write order.
func expected(events []paths.Event) map[uint64][]paths.Event {
	out := make(map[uint64][]paths.Event)
	for _, ev := range events {
		out[ev.ObjectID] = append(out[ev.ObjectID], ev)
	}
	for _, evs := range out {
		sort.SliceStable(evs, func(i, j int) bool { return evs[i].Timestamp < evs[j].Timestamp })
	}
	return out
}

func assertEvents(t *testing.T, w *executor.Writer, want map[uint64][]paths.Event) {
	t.Helper()
	for id, evs := range want {
		got, err := w.Events(id)
		require.Nil(t, err)
		if diff := cmp.Diff(evs, got); diff != "" {
			t.Errorf("object %d events mismatch (-want +got):\n%s", id, diff)
		}
	}
}

func TestWriteRoundRobin(t *testing.T) {
	t.Parallel()
	w := newWriter(t, 256)
	events := test.RoundRobinEvents(20, 5, 8)

	require.Nil(t, w.Write(events))

	assert.Empty(t, w.Verify())
	assertEvents(t, w, expected(events))
}

func TestWriteRandomOrder(t *testing.T) {
	t.Parallel()
	w := newWriter(t, 256)
	events := test.SyntheticEvents(500, 30, 4, 7)

	// written in several batches to exercise the index across rebuilds
	for lo := 0; lo < len(events); lo += 60 {
		hi := lo + 60
		if hi > len(events) {
			hi = len(events)
		}
		require.Nil(t, w.Write(events[lo:hi]))
	}

	assert.Empty(t, w.Verify())
	assertEvents(t, w, expected(events))
}

func TestWriteSpanningObject(t *testing.T) {
	t.Parallel()
	w := newWriter(t, 256)
	events := test.RoundRobinEvents(10, 2, 8)
	for ts := 0; ts < 40; ts++ {
		events = append(events, paths.Event{ObjectID: 7, Timestamp: uint64(5000 - ts), Payload: []byte("12345678")})
	}

	require.Nil(t, w.Write(events))

	assert.Empty(t, w.Verify())
	assertEvents(t, w, expected(events))

	b, err := w.Locate(7)
	require.Nil(t, err)
	require.NotNil(t, b)
	assert.True(t, b.Spanned)
	assert.Equal(t, uint64(7), b.MinObjectID)

	got, err := w.Events(7)
	require.Nil(t, err)
	assert.Len(t, got, 42)
}

func TestWriteAroundSpan(t *testing.T) {
	t.Parallel()
	w := newWriter(t, 256)
	var events []paths.Event
	for ts := 0; ts < 30; ts++ {
		events = append(events, paths.Event{ObjectID: 50, Timestamp: uint64(ts), Payload: []byte("12345678")})
	}
	// objects on both sides of the span arrive after it exists
	for _, id := range []uint64{10, 90, 20, 60, 49, 51} {
		events = append(events, paths.Event{ObjectID: id, Timestamp: 1, Payload: []byte("x")})
	}

	require.Nil(t, w.Write(events))

	assert.Empty(t, w.Verify())
	assertEvents(t, w, expected(events))
}

func TestWriteRejectsReservedObject(t *testing.T) {
	t.Parallel()
	w := newWriter(t, 256)
	events := []paths.Event{
		{ObjectID: 3, Timestamp: 1},
		{ObjectID: 0, Timestamp: 2},
		{ObjectID: 4, Timestamp: 3},
	}

	err := w.Write(events)
	var ioe executor.InvalidObjectError
	assert.ErrorAs(t, err, &ioe)

	got, err := w.Events(3)
	require.Nil(t, err)
	assert.Len(t, got, 1)
	got, err = w.Events(4)
	require.Nil(t, err)
	assert.Nil(t, got)
}

func TestWriteRejectsOversizedEvent(t *testing.T) {
	t.Parallel()
	w := newWriter(t, 256)

	err := w.Write([]paths.Event{{ObjectID: 1, Payload: make([]byte, 256)}})
	var iae block.InvalidArgumentError
	assert.ErrorAs(t, err, &iae)
	assert.Contains(t, err.Error(), "insert event for object 1")
	assert.Contains(t, err.Error(), "block/insert.go:")
	assert.NotContains(t, err.Error(), "pkg/errors")
}

func TestLocate(t *testing.T) {
	t.Parallel()
	w := newWriter(t, 256)
	require.Nil(t, w.Write(test.RoundRobinEvents(30, 2, 4)))

	b, err := w.Locate(12)
	require.Nil(t, err)
	require.NotNil(t, b)
	assert.True(t, b.ContainsObject(12))

	b, err = w.Locate(31)
	assert.Nil(t, err)
	assert.Nil(t, b)

	_, err = w.Locate(0)
	var ioe executor.InvalidObjectError
	assert.ErrorAs(t, err, &ioe)
}

func TestVerifyDetectsTampering(t *testing.T) {
	t.Parallel()
	f, _ := test.MakeDataFile(t, 256)
	w, err := executor.NewWriter(f, false)
	require.Nil(t, err)
	require.Nil(t, w.Write(test.RoundRobinEvents(30, 2, 4)))
	require.Empty(t, w.Verify())

	f.Blocks()[0].MaxTimestamp++

	errs := w.Verify()
	require.NotEmpty(t, errs)
	var ie executor.IntegrityError
	assert.ErrorAs(t, errs[0], &ie)
}

func TestClosedWriter(t *testing.T) {
	t.Parallel()
	w := newWriter(t, 256)
	w.Close()

	var wce executor.WriterClosedError
	assert.ErrorAs(t, w.Write([]paths.Event{{ObjectID: 1}}), &wce)
	_, err := w.Events(1)
	assert.ErrorAs(t, err, &wce)
}
