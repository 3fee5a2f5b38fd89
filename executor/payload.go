package executor

import (
	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack"
)

// Payload is the content the load command packs into an event's opaque
// payload bytes.
type Payload struct {
	Action string `msgpack:"action"`
	Data   string `msgpack:"data"`
}

func EncodePayload(p *Payload) ([]byte, error) {
	buf, err := msgpack.Marshal(p)
	if err != nil {
		return nil, errors.Wrap(err, "encode payload")
	}
	return buf, nil
}

func DecodePayload(buf []byte) (*Payload, error) {
	var p Payload
	if err := msgpack.Unmarshal(buf, &p); err != nil {
		return nil, errors.Wrap(err, "decode payload")
	}
	return &p, nil
}
