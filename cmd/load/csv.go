package load

import (
	"io"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"

	"github.com/alpacahq/eventstore/executor"
	"github.com/alpacahq/eventstore/paths"
)

// eventRow is one line of an event CSV file. The header names the columns.
type eventRow struct {
	ObjectID  uint64 `csv:"object_id"`
	Timestamp uint64 `csv:"timestamp"`
	Action    string `csv:"action"`
	Data      string `csv:"data"`
}

// readEvents decodes the CSV in r into events whose payload is the msgpack
// encoding of the action and data columns.
func readEvents(r io.Reader) ([]paths.Event, error) {
	var rows []*eventRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, errors.Wrap(err, "parse event csv")
	}
	events := make([]paths.Event, 0, len(rows))
	for i, row := range rows {
		if row.ObjectID == 0 {
			return nil, errors.Errorf("row %d: object_id must be positive", i+1)
		}
		payload, err := executor.EncodePayload(&executor.Payload{Action: row.Action, Data: row.Data})
		if err != nil {
			return nil, errors.Wrapf(err, "row %d", i+1)
		}
		events = append(events, paths.Event{
			ObjectID:  row.ObjectID,
			Timestamp: row.Timestamp,
			Payload:   payload,
		})
	}
	return events, nil
}
