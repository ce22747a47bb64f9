package transport

import (
	"encoding/binary"
	"fmt"
	"io"
)

const (
	// MessageHeaderSize is the fixed 5-byte header: 1 version byte + 4
	// little-endian body-length bytes.
	MessageHeaderSize = 5
	// ProtocolVersionByte is the only version this core ever writes or
	// accepts.
	ProtocolVersionByte byte = 1
	// MaxMessageSize is the largest body this core will accept (1 MiB).
	MaxMessageSize = 1024 * 1024
)

// ErrMessageTooLarge is returned when a peer announces a body larger than
// MaxMessageSize. The caller must drop the session.
type ErrMessageTooLarge struct{ Size uint32 }

func (e ErrMessageTooLarge) Error() string {
	return fmt.Sprintf("transport: message size %d exceeds limit %d", e.Size, MaxMessageSize)
}

// ErrBadVersion is returned when a peer sends a header with an unsupported
// version byte.
type ErrBadVersion struct{ Got byte }

func (e ErrBadVersion) Error() string {
	return fmt.Sprintf("transport: unsupported protocol version byte %d", e.Got)
}

// writeFrame writes the 5-byte header followed by body to w.
func writeFrame(w io.Writer, body []byte) error {
	if len(body) > MaxMessageSize {
		return ErrMessageTooLarge{Size: uint32(len(body))}
	}
	var header [MessageHeaderSize]byte
	header[0] = ProtocolVersionByte
	binary.LittleEndian.PutUint32(header[1:], uint32(len(body)))
	if _, err := w.Write(header[:]); err != nil {
		return err
	}
	_, err := w.Write(body)
	return err
}

// readFrame reads one length-prefixed message body from r.
func readFrame(r io.Reader) ([]byte, error) {
	var header [MessageHeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}
	if header[0] != ProtocolVersionByte {
		return nil, ErrBadVersion{Got: header[0]}
	}
	bodySize := binary.LittleEndian.Uint32(header[1:])
	if bodySize > MaxMessageSize {
		return nil, ErrMessageTooLarge{Size: bodySize}
	}
	body := make([]byte, bodySize)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, err
	}
	return body, nil
}
