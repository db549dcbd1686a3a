package buffer

import (
	"bytes"
	"encoding/binary"
	"unicode/utf8"
	"unsafe"

	"github.com/pgwire/pgwire/codes"
	pgwireerr "github.com/pgwire/pgwire/errors"
)

// Framer splits framed PostgreSQL backend messages out of an append-only
// read buffer without copying. Unlike the teacher's bufio-backed Reader
// (which blocks on io.ReadFull per message because a server can afford a
// dedicated goroutine per connection), a client's drain loop wants to frame
// everything a single Read syscall already delivered before blocking on the
// socket again — so Framer operates purely over an in-memory slice handed
// to it by the caller.
type Framer struct{}

// Next returns the next complete frame (identifier byte + 4-byte big-endian
// length + body) and the bytes remaining after it. The length field counts
// itself but not the identifier byte, matching the wire format.
//
// If buf holds fewer than 5 bytes, or fewer than the frame's full length,
// Next returns ok=false and buf unchanged as rest — a partial frame is never
// consumed, and the caller should read more bytes from the socket and call
// Next again once it has.
func (Framer) Next(buf []byte) (frame, rest []byte, ok bool) {
	if len(buf) < 5 {
		return nil, buf, false
	}

	length := binary.BigEndian.Uint32(buf[1:5])
	total := 1 + int(length) // identifier byte + (length prefix + body)
	if len(buf) < total {
		return nil, buf, false
	}

	return buf[:total], buf[total:], true
}

// Reader provides cursor-style access to the body of a single decoded frame.
// It borrows from the slice it was constructed with; callers that need a
// decoded value to outlive the next read cycle must copy it out.
type Reader struct {
	Msg []byte
}

// NewReader constructs a Reader over the given frame body.
func NewReader(body []byte) *Reader {
	return &Reader{Msg: body}
}

// Len returns the number of unread bytes remaining in the frame body.
func (reader *Reader) Len() int {
	return len(reader.Msg)
}

// GetByte returns the next raw byte from the buffer.
func (reader *Reader) GetByte() (byte, error) {
	if len(reader.Msg) < 1 {
		return 0, NewInsufficientData(len(reader.Msg))
	}

	b := reader.Msg[0]
	reader.Msg = reader.Msg[1:]
	return b, nil
}

// GetPrepareType returns the buffer's contents as a PrepareType.
func (reader *Reader) GetPrepareType() (PrepareType, error) {
	v, err := reader.GetBytes(1)
	if err != nil {
		return 0, err
	}

	return PrepareType(v[0]), nil
}

// GetString reads a NUL-terminated string. Text that is not valid UTF-8
// fails with an error wrapping errors.ErrProtocolUTF8.
func (reader *Reader) GetString() (string, error) {
	pos := bytes.IndexByte(reader.Msg, 0)
	if pos == -1 {
		return "", NewMissingNulTerminator()
	}

	if !utf8.Valid(reader.Msg[:pos]) {
		return "", pgwireerr.WithSeverity(pgwireerr.WithCode(pgwireerr.ErrProtocolUTF8, codes.CharacterNotInRepertoire), pgwireerr.LevelFatal)
	}

	// Note: this avoids a copy by aliasing the byte slice as a string. It is
	// safe only because the read buffer backing reader.Msg is never reused
	// while a decoded value derived from it is still reachable by the caller.
	s := reader.Msg[:pos]
	reader.Msg = reader.Msg[pos+1:]
	return *((*string)(unsafe.Pointer(&s))), nil
}

// GetBytes returns the next n bytes from the buffer. A length of -1
// represents a SQL NULL and returns (nil, nil). Any other negative length is
// not a value the wire format can produce; it is treated as a protocol
// error rather than a slice index, which would panic.
func (reader *Reader) GetBytes(n int) ([]byte, error) {
	if n == -1 {
		return nil, nil
	}

	if n < -1 {
		return nil, NewInsufficientData(n)
	}

	if len(reader.Msg) < n {
		return nil, NewInsufficientData(len(reader.Msg))
	}

	v := reader.Msg[:n]
	reader.Msg = reader.Msg[n:]
	return v, nil
}

// GetUint16 returns the buffer's contents as a big-endian uint16.
func (reader *Reader) GetUint16() (uint16, error) {
	if len(reader.Msg) < 2 {
		return 0, NewInsufficientData(len(reader.Msg))
	}

	v := binary.BigEndian.Uint16(reader.Msg[:2])
	reader.Msg = reader.Msg[2:]
	return v, nil
}

// GetUint32 returns the buffer's contents as a big-endian uint32.
func (reader *Reader) GetUint32() (uint32, error) {
	if len(reader.Msg) < 4 {
		return 0, NewInsufficientData(len(reader.Msg))
	}

	v := binary.BigEndian.Uint32(reader.Msg[:4])
	reader.Msg = reader.Msg[4:]
	return v, nil
}

// GetInt16 returns the buffer's contents as a big-endian int16.
func (reader *Reader) GetInt16() (int16, error) {
	v, err := reader.GetUint16()
	return int16(v), err
}

// GetInt32 returns the buffer's contents as a big-endian int32.
func (reader *Reader) GetInt32() (int32, error) {
	v, err := reader.GetUint32()
	return int32(v), err
}
