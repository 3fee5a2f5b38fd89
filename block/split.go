package block

import (
	"fmt"
	"sort"

	"github.com/alpacahq/eventstore/paths"
	"github.com/alpacahq/eventstore/utils/log"
)

// bucket holds every event of one object found in the blocks being split.
type bucket struct {
	objectID uint64
	events   []paths.Event
	// newAt is the index of the event being inserted, -1 when this bucket
	// does not receive it.
	newAt int
}

func (bk *bucket) size() int {
	return paths.PathSize(bk.events)
}

// fragment is a path, or a contiguous piece of a spanning path, as written
// into one block.
type fragment struct {
	objectID uint64
	events   []paths.Event
	hasNew   bool
}

// group is the content of one block after a split.
type group struct {
	fragments []fragment
	spanned   bool
}

// segment is either a run of ordinary buckets laid out on path boundaries or
// a single oversized bucket laid out on event boundaries.
type segment struct {
	buckets  []*bucket
	spanning bool
	units    []int
	limit    int
	groups   int
}

type unitRange struct {
	lo, hi int
}

// split redistributes the paths of the count blocks starting at start,
// together with ev, over as many blocks as needed (never fewer than count).
//
// Every new block image is built in memory before the file is touched. The
// only fallible call against the file is the directory growth; if it fails
// nothing has been modified.
func split(f GrowableFile, start *Block, count uint32, ev *paths.Event) (*Block, error) {
	buckets, err := gatherBuckets(f, start, count)
	if err != nil {
		return nil, err
	}
	buckets = addEvent(buckets, ev)

	groups, err := layout(buckets, Capacity(f), int(count))
	if err != nil {
		return nil, err
	}
	if len(groups) < int(count) {
		return nil, corruptSplit(fmt.Sprintf("layout produced %d blocks for a span of %d", len(groups), count))
	}

	blockSize := f.BlockSize()
	images := make([][]byte, len(groups))
	headers := make([]Block, len(groups))
	target := -1
	for i := range groups {
		img := make([]byte, blockSize)
		off := HeaderSize
		h := &headers[i]
		h.Spanned = groups[i].spanned
		for _, frag := range groups[i].fragments {
			n, err := paths.EncodePath(img[off:], frag.objectID, frag.events)
			if err != nil {
				return nil, err
			}
			off += n
			for j := range frag.events {
				h.Widen(&frag.events[j])
			}
			if frag.hasNew {
				target = i
			}
		}
		if _, err := Pack(h, img); err != nil {
			return nil, err
		}
		images[i] = img
	}
	if target < 0 {
		return nil, corruptSplit(fmt.Sprintf("event for object %d was not placed", ev.ObjectID))
	}

	if extra := len(groups) - int(count); extra > 0 {
		if err := f.InsertBlocks(start.Index+count, extra); err != nil {
			return nil, err
		}
	}

	blocks := f.Blocks()
	first := int(start.Index)
	if first+len(images) > len(blocks) {
		return nil, corruptSplit(fmt.Sprintf("directory of %d blocks cannot hold %d blocks from %d",
			len(blocks), len(images), first))
	}
	dsts := make([][]byte, len(images))
	for i := range images {
		dsts[i], err = Bytes(f, blocks[first+i])
		if err != nil {
			return nil, corruptSplit(fmt.Sprintf("block %d: %v", first+i, err))
		}
	}
	for i := range images {
		copy(dsts[i], images[i])
		b := blocks[first+i]
		b.MinObjectID, b.MaxObjectID = headers[i].MinObjectID, headers[i].MaxObjectID
		b.MinTimestamp, b.MaxTimestamp = headers[i].MinTimestamp, headers[i].MaxTimestamp
		b.Spanned = headers[i].Spanned
	}

	log.Debug("split blocks %d..%d into %d blocks, event for object %d placed in block %d",
		first, first+int(count)-1, len(images), ev.ObjectID, first+target)
	return blocks[first+target], nil
}

// gatherBuckets decodes the paths of the count blocks starting at start.
// Fragments of a spanning path are merged into one bucket.
func gatherBuckets(f File, start *Block, count uint32) ([]*bucket, error) {
	blocks := f.Blocks()
	if int(start.Index)+int(count) > len(blocks) {
		return nil, precondition(fmt.Sprintf("span of %d blocks from %d exceeds a directory of %d blocks",
			count, start.Index, len(blocks)))
	}

	var buckets []*bucket
	for i := start.Index; i < start.Index+count; i++ {
		region, err := Region(f, blocks[i])
		if err != nil {
			return nil, err
		}
		if err := decodeRegion(region, &buckets); err != nil {
			return nil, err
		}
	}
	return buckets, nil
}

func decodeRegion(region []byte, buckets *[]*bucket) error {
	it, err := paths.NewIterator(region)
	if err != nil {
		return err
	}
	defer it.Close()

	for !it.EOF() {
		objectID, events, err := paths.DecodeEvents(it.Path())
		if err != nil {
			return err
		}
		if n := len(*buckets); n > 0 && (*buckets)[n-1].objectID == objectID {
			(*buckets)[n-1].events = append((*buckets)[n-1].events, events...)
		} else {
			*buckets = append(*buckets, &bucket{objectID: objectID, events: events, newAt: -1})
		}
		if err := it.Next(); err != nil {
			return err
		}
	}
	return nil
}

// addEvent places ev in its object's bucket after every event with an equal
// or earlier timestamp, creating the bucket in object id order if needed.
func addEvent(buckets []*bucket, ev *paths.Event) []*bucket {
	e := *ev
	i := sort.Search(len(buckets), func(i int) bool { return buckets[i].objectID >= ev.ObjectID })
	if i < len(buckets) && buckets[i].objectID == ev.ObjectID {
		bk := buckets[i]
		j := sort.Search(len(bk.events), func(j int) bool { return bk.events[j].Timestamp > ev.Timestamp })
		bk.events = append(bk.events, paths.Event{})
		copy(bk.events[j+1:], bk.events[j:])
		bk.events[j] = e
		bk.newAt = j
		return buckets
	}
	buckets = append(buckets, nil)
	copy(buckets[i+1:], buckets[i:])
	buckets[i] = &bucket{objectID: ev.ObjectID, events: []paths.Event{e}, newAt: 0}
	return buckets
}

// layout assigns buckets to blocks of the given payload capacity. Ordinary
// buckets are kept whole and packed into the fewest blocks, balanced so the
// fullest block is as small as possible. A bucket larger than capacity is
// cut on event boundaries into balanced fragments, one block each. The result
// has at least minGroups blocks.
func layout(buckets []*bucket, capacity, minGroups int) ([]group, error) {
	var segs []*segment
	for _, bk := range buckets {
		if bk.size() > capacity {
			units := make([]int, len(bk.events))
			for i := range bk.events {
				units[i] = bk.events[i].Size()
			}
			segs = append(segs, &segment{
				buckets:  []*bucket{bk},
				spanning: true,
				units:    units,
				limit:    capacity - paths.PathHeaderSize,
			})
			continue
		}
		if len(segs) == 0 || segs[len(segs)-1].spanning {
			segs = append(segs, &segment{limit: capacity})
		}
		seg := segs[len(segs)-1]
		seg.buckets = append(seg.buckets, bk)
		seg.units = append(seg.units, bk.size())
	}

	total := 0
	for _, s := range segs {
		s.groups = countGroups(s.units, s.limit)
		total += s.groups
	}
	for total < minGroups {
		s := growable(segs)
		if s == nil {
			return nil, corruptSplit(fmt.Sprintf("%d buckets cannot fill %d blocks", len(buckets), minGroups))
		}
		s.groups++
		total++
	}

	out := make([]group, 0, total)
	for _, s := range segs {
		for _, r := range partition(s.units, s.limit, s.groups) {
			if s.spanning {
				bk := s.buckets[0]
				out = append(out, group{
					spanned: true,
					fragments: []fragment{{
						objectID: bk.objectID,
						events:   bk.events[r.lo:r.hi],
						hasNew:   bk.newAt >= r.lo && bk.newAt < r.hi,
					}},
				})
				continue
			}
			var g group
			for _, bk := range s.buckets[r.lo:r.hi] {
				g.fragments = append(g.fragments, fragment{objectID: bk.objectID, events: bk.events, hasNew: bk.newAt >= 0})
			}
			out = append(out, g)
		}
	}
	return out, nil
}

// growable picks the segment that should take one more block, preferring
// spanning segments.
func growable(segs []*segment) *segment {
	var fallback *segment
	for _, s := range segs {
		if s.groups >= len(s.units) {
			continue
		}
		if s.spanning {
			return s
		}
		if fallback == nil {
			fallback = s
		}
	}
	return fallback
}

// countGroups is the number of groups a greedy fill of units produces when
// no group may exceed limit.
func countGroups(units []int, limit int) int {
	return len(greedy(units, limit))
}

func greedy(units []int, limit int) []unitRange {
	var out []unitRange
	lo, sum := 0, 0
	for i, u := range units {
		if sum+u > limit && i > lo {
			out = append(out, unitRange{lo, i})
			lo, sum = i, 0
		}
		sum += u
	}
	if lo < len(units) {
		out = append(out, unitRange{lo, len(units)})
	}
	return out
}

// partition cuts units into exactly n contiguous ranges, none larger than
// limit, minimising the largest range.
func partition(units []int, limit, n int) []unitRange {
	lo, sum := 0, 0
	for _, u := range units {
		if u > lo {
			lo = u
		}
		sum += u
	}
	hi := limit
	if sum < hi {
		hi = sum
	}
	if lo > hi {
		hi = lo
	}
	for lo < hi {
		mid := lo + (hi-lo)/2
		if countGroups(units, mid) <= n {
			hi = mid
		} else {
			lo = mid + 1
		}
	}

	ranges := greedy(units, lo)
	for len(ranges) < n {
		next := splitWidest(units, ranges)
		if len(next) == len(ranges) {
			break
		}
		ranges = next
	}
	return ranges
}

// splitWidest cuts the heaviest range holding more than one unit at the
// point closest to its middle.
func splitWidest(units []int, ranges []unitRange) []unitRange {
	best, bestSum := -1, -1
	for i, r := range ranges {
		if r.hi-r.lo < 2 {
			continue
		}
		s := rangeSum(units, r)
		if s > bestSum {
			best, bestSum = i, s
		}
	}
	if best < 0 {
		return ranges
	}

	r := ranges[best]
	cut, acc, bestDiff := r.lo+1, 0, -1
	for i := r.lo; i < r.hi-1; i++ {
		acc += units[i]
		diff := bestSum - 2*acc
		if diff < 0 {
			diff = -diff
		}
		if bestDiff < 0 || diff < bestDiff {
			cut, bestDiff = i+1, diff
		}
	}

	out := make([]unitRange, 0, len(ranges)+1)
	out = append(out, ranges[:best]...)
	out = append(out, unitRange{r.lo, cut}, unitRange{cut, r.hi})
	out = append(out, ranges[best+1:]...)
	return out
}

func rangeSum(units []int, r unitRange) int {
	s := 0
	for _, u := range units[r.lo:r.hi] {
		s += u
	}
	return s
}
