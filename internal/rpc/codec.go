package rpc

import (
	"bufio"
	"bytes"
	"encoding/gob"
	"fmt"
	"io"

	"github.com/multiformats/go-varint"
)

// MaxFrameSize bounds a single message on the wire. The largest legitimate
// payload is a border update for a very large shard edge, which stays well
// under this.
const MaxFrameSize = 32 << 20

// envelope wraps a message so gob can carry any registered concrete type
// through a single interface field.
type envelope struct {
	Msg any
}

// WriteMessage frames and writes one message: an unsigned varint length
// prefix followed by the gob-encoded envelope.
func WriteMessage(w io.Writer, msg any) error {
	var body bytes.Buffer
	if err := gob.NewEncoder(&body).Encode(envelope{Msg: msg}); err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	if body.Len() > MaxFrameSize {
		return fmt.Errorf("message of %d bytes exceeds frame limit", body.Len())
	}

	prefix := varint.ToUvarint(uint64(body.Len()))
	if _, err := w.Write(prefix); err != nil {
		return fmt.Errorf("write length prefix: %w", err)
	}
	if _, err := w.Write(body.Bytes()); err != nil {
		return fmt.Errorf("write message body: %w", err)
	}
	return nil
}

// ReadMessage reads one framed message from r. The reader must be buffered
// so the varint prefix can be consumed byte by byte.
func ReadMessage(r *bufio.Reader) (any, error) {
	size, err := varint.ReadUvarint(r)
	if err != nil {
		return nil, err
	}
	if size > MaxFrameSize {
		return nil, fmt.Errorf("frame of %d bytes exceeds limit", size)
	}

	body := make([]byte, size)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, fmt.Errorf("read message body: %w", err)
	}

	var env envelope
	if err := gob.NewDecoder(bytes.NewReader(body)).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode message: %w", err)
	}
	return env.Msg, nil
}
