// Package paths implements the byte layout of object paths inside a block
// and the iterator used to walk them.
//
// A path is a 12-byte header followed by its events:
//
//	objectID   uint64 big-endian
//	eventsLen  uint32 big-endian (bytes of event data that follow)
//
// and each event is
//
//	timestamp  uint64 big-endian
//	payloadLen uint32 big-endian
//	payload    [payloadLen]byte
//
// Object id 0 is reserved; a zero object id marks the unused tail of a block.
package paths

import (
	"encoding/binary"
	"fmt"
	"math"
)

const (
	PathHeaderSize  = 12
	EventHeaderSize = 12
)

// Event is a single timestamped occurrence for an object. Payload is opaque.
type Event struct {
	ObjectID  uint64
	Timestamp uint64
	Payload   []byte
}

// Size is the number of bytes the event occupies inside a path.
func (e *Event) Size() int {
	return EventHeaderSize + len(e.Payload)
}

// EncodeEvent writes e into buf and returns the number of bytes written.
func EncodeEvent(buf []byte, e *Event) (int, error) {
	sz := e.Size()
	if len(buf) < sz {
		return 0, shortBuffer(fmt.Sprintf("event needs %d bytes, have %d", sz, len(buf)))
	}
	if uint64(len(e.Payload)) > math.MaxUint32 {
		return 0, malformedPath("payload too large")
	}
	binary.BigEndian.PutUint64(buf[0:8], e.Timestamp)
	binary.BigEndian.PutUint32(buf[8:12], uint32(len(e.Payload)))
	copy(buf[EventHeaderSize:sz], e.Payload)
	return sz, nil
}

// DecodeEvent reads one event from the front of buf. The payload is copied so
// the result stays valid after the underlying block bytes move.
func DecodeEvent(buf []byte, objectID uint64) (Event, int, error) {
	if len(buf) < EventHeaderSize {
		return Event{}, 0, malformedPath("truncated event header")
	}
	ts := binary.BigEndian.Uint64(buf[0:8])
	n := int(binary.BigEndian.Uint32(buf[8:12]))
	if len(buf)-EventHeaderSize < n {
		return Event{}, 0, malformedPath(fmt.Sprintf("event payload of %d bytes overruns path", n))
	}
	payload := make([]byte, n)
	copy(payload, buf[EventHeaderSize:EventHeaderSize+n])
	return Event{ObjectID: objectID, Timestamp: ts, Payload: payload}, EventHeaderSize + n, nil
}

// ReadPathHeader returns the object id and event byte length at the front of
// buf. ok is false when buf is too short or holds the zero terminator.
func ReadPathHeader(buf []byte) (objectID uint64, eventsLen int, ok bool) {
	if len(buf) < PathHeaderSize {
		return 0, 0, false
	}
	objectID = binary.BigEndian.Uint64(buf[0:8])
	if objectID == 0 {
		return 0, 0, false
	}
	return objectID, int(binary.BigEndian.Uint32(buf[8:12])), true
}

// PutPathHeader writes a path header at the front of buf.
func PutPathHeader(buf []byte, objectID uint64, eventsLen int) {
	binary.BigEndian.PutUint64(buf[0:8], objectID)
	binary.BigEndian.PutUint32(buf[8:12], uint32(eventsLen))
}

// PathSize is the encoded size of a path holding events.
func PathSize(events []Event) int {
	sz := PathHeaderSize
	for i := range events {
		sz += events[i].Size()
	}
	return sz
}

// EncodePath writes a full path into buf and returns the bytes written.
func EncodePath(buf []byte, objectID uint64, events []Event) (int, error) {
	if objectID == 0 {
		return 0, malformedPath("object id 0 is reserved")
	}
	sz := PathSize(events)
	if len(buf) < sz {
		return 0, shortBuffer(fmt.Sprintf("path needs %d bytes, have %d", sz, len(buf)))
	}
	PutPathHeader(buf, objectID, sz-PathHeaderSize)
	off := PathHeaderSize
	for i := range events {
		n, err := EncodeEvent(buf[off:], &events[i])
		if err != nil {
			return 0, err
		}
		off += n
	}
	return off, nil
}

// DecodeEvents decodes every event of the path at the front of path.
func DecodeEvents(path []byte) (objectID uint64, events []Event, err error) {
	objectID, eventsLen, ok := ReadPathHeader(path)
	if !ok {
		return 0, nil, malformedPath("missing path header")
	}
	if len(path)-PathHeaderSize < eventsLen {
		return 0, nil, malformedPath(fmt.Sprintf("path of object %d overruns buffer", objectID))
	}
	data := path[PathHeaderSize : PathHeaderSize+eventsLen]
	for len(data) > 0 {
		ev, n, err := DecodeEvent(data, objectID)
		if err != nil {
			return 0, nil, err
		}
		events = append(events, ev)
		data = data[n:]
	}
	return objectID, events, nil
}

// EventInsertOffset returns the offset, relative to the start of path, at
// which an event with timestamp ts belongs: after every event whose timestamp
// is less than or equal to ts.
func EventInsertOffset(path []byte, ts uint64) (int, error) {
	_, eventsLen, ok := ReadPathHeader(path)
	if !ok || len(path)-PathHeaderSize < eventsLen {
		return 0, malformedPath("missing path header")
	}
	off := PathHeaderSize
	end := PathHeaderSize + eventsLen
	for off < end {
		if end-off < EventHeaderSize {
			return 0, malformedPath("truncated event header")
		}
		if binary.BigEndian.Uint64(path[off:off+8]) > ts {
			break
		}
		off += EventHeaderSize + int(binary.BigEndian.Uint32(path[off+8:off+12]))
	}
	if off > end {
		return 0, malformedPath("event overruns path")
	}
	return off, nil
}
