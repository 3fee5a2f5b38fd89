package test

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/alpacahq/eventstore/datafile"
	"github.com/alpacahq/eventstore/paths"
	"github.com/alpacahq/eventstore/utils"
	"github.com/alpacahq/eventstore/utils/log"
)

// MakeDataFile creates an empty data file of the given block size in a
// temporary directory that is removed when the test ends.
func MakeDataFile(t testing.TB, blockSize int) (f *datafile.DataFile, rootDir string) {
	t.Helper()
	rootDir = t.TempDir()
	f, err := datafile.Open(filepath.Join(rootDir, utils.DataFileName), blockSize)
	if err != nil {
		t.Fatalf("create data file in %s: %v", rootDir, err)
	}
	t.Cleanup(func() {
		if f.Data() != nil {
			_ = f.Close()
		}
	})
	return f, rootDir
}

// SyntheticEvents generates count events spread over objects object ids
// (1..objects), with timestamps in random order and payloads of payloadSize
// bytes. The same seed always gives the same events.
func SyntheticEvents(count, objects, payloadSize int, seed int64) []paths.Event {
	r := rand.New(rand.NewSource(seed))
	events := make([]paths.Event, count)
	for i := range events {
		payload := make([]byte, payloadSize)
		r.Read(payload)
		events[i] = paths.Event{
			ObjectID:  uint64(r.Intn(objects) + 1),
			Timestamp: uint64(r.Int63n(1 << 40)),
			Payload:   payload,
		}
	}
	return events
}

// RoundRobinEvents generates perObject events for each of the object ids
// 1..objects, interleaved across objects, with ascending timestamps.
func RoundRobinEvents(objects, perObject, payloadSize int) []paths.Event {
	events := make([]paths.Event, 0, objects*perObject)
	for i := 0; i < perObject; i++ {
		for id := 1; id <= objects; id++ {
			events = append(events, paths.Event{
				ObjectID:  uint64(id),
				Timestamp: uint64(1000 + i),
				Payload:   make([]byte, payloadSize),
			})
		}
	}
	return events
}

func CleanupDummyDataDir(path string) {
	if err := os.RemoveAll(path); err != nil {
		log.Error("failed to remove %s: %v", path, err)
	}
}
