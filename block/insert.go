package block

import (
	"fmt"

	"github.com/alpacahq/eventstore/paths"
)

// Insert adds ev to b and returns the block that holds it afterwards.
//
// The caller picks b as the block whose object id range should contain the
// event's object: the block already holding the object's path, or the block
// whose neighbours keep object ids ascending across the directory. Any block
// of a span may be passed; the whole span is treated as one unit.
//
// When the event fits, it is written in place: appended to the object's path
// in timestamp order, or as a new path at the position that keeps object ids
// ascending. Otherwise the block (or span) is split and its paths are
// redistributed across newly inserted blocks; see split.
func Insert(f GrowableFile, b *Block, ev *paths.Event) (*Block, error) {
	if b == nil {
		return nil, invalidArgument("block required")
	}
	if ev == nil {
		return nil, invalidArgument("event required")
	}
	if ev.ObjectID == 0 {
		return nil, invalidArgument("event object id required")
	}
	if f == nil {
		return nil, precondition("data file required")
	}
	if f.BlockSize() <= HeaderSize {
		return nil, precondition(fmt.Sprintf("block size %d leaves no room for paths", f.BlockSize()))
	}
	if need := paths.PathHeaderSize + ev.Size(); need > Capacity(f) {
		return nil, invalidArgument(fmt.Sprintf("event of %d bytes cannot fit in a %d byte block", need, f.BlockSize()))
	}

	start, err := SpanStart(f, b)
	if err != nil {
		return nil, err
	}
	count, err := SpanCount(f, start)
	if err != nil {
		return nil, err
	}

	if !start.Spanned {
		ok, err := insertInPlace(f, start, ev)
		if err != nil {
			return nil, err
		}
		if ok {
			return start, nil
		}
	}
	return split(f, start, count, ev)
}

// insertInPlace writes ev into b without moving it to another block. It
// reports false, leaving b untouched, when the event does not fit.
func insertInPlace(f File, b *Block, ev *paths.Event) (bool, error) {
	data, err := Bytes(f, b)
	if err != nil {
		return false, err
	}
	region := data[HeaderSize:]
	used, err := paths.Used(region)
	if err != nil {
		return false, err
	}

	pathOffset, path, err := locatePath(region, ev.ObjectID)
	if err != nil {
		return false, err
	}

	at, add := pathOffset, paths.PathHeaderSize+ev.Size()
	if path != nil {
		rel, err := paths.EventInsertOffset(path, ev.Timestamp)
		if err != nil {
			return false, err
		}
		at, add = pathOffset+rel, ev.Size()
	}
	if used+add > len(region) {
		return false, nil
	}

	copy(region[at+add:used+add], region[at:used])
	if path != nil {
		if _, err := paths.EncodeEvent(region[at:at+add], ev); err != nil {
			return false, err
		}
		_, eventsLen, _ := paths.ReadPathHeader(region[pathOffset:])
		paths.PutPathHeader(region[pathOffset:], ev.ObjectID, eventsLen+add)
	} else {
		if _, err := paths.EncodePath(region[at:at+add], ev.ObjectID, []paths.Event{*ev}); err != nil {
			return false, err
		}
	}

	b.Widen(ev)
	if _, err := Pack(b, data); err != nil {
		return false, err
	}
	return true, nil
}
