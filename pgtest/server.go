// Package pgtest provides a fake PostgreSQL backend for exercising
// pgwire.Connection without a real server: a net.Pipe-backed Server that a
// test scripts message-by-message, plus builders for the raw wire frames
// it sends.
package pgtest

import (
	"bufio"
	"encoding/binary"
	"net"
	"testing"

	"github.com/pgwire/pgwire/pkg/types"
)

// Server is the backend half of a net.Pipe standing in for a real
// PostgreSQL server. Client is the net.Conn to hand to pgwire.Open.
type Server struct {
	t      *testing.T
	Client net.Conn
	conn   net.Conn
	reader *bufio.Reader
}

// NewPipe returns a connected client/server pair: Client is the socket a
// test passes to pgwire.Open, Server is the fake backend driving it.
func NewPipe(t *testing.T) *Server {
	client, server := net.Pipe()
	return &Server{t: t, Client: client, conn: server, reader: bufio.NewReader(server)}
}

// Close closes both ends of the pipe.
func (s *Server) Close() {
	s.conn.Close()
	s.Client.Close()
}

// ExpectStartup reads a StartupMessage and returns the parameters it
// carried (the "user"/"database"/extra key-value pairs), discarding the
// leading protocol version.
func (s *Server) ExpectStartup() map[string]string {
	s.t.Helper()

	length := s.readUint32()
	body := s.readN(int(length) - 4)

	// First 4 bytes of body are the protocol version.
	params := map[string]string{}
	fields := splitNulTerminated(body[4:])
	for i := 0; i+1 < len(fields); i += 2 {
		params[fields[i]] = fields[i+1]
	}

	return params
}

// ExpectMessage reads one typed frontend frame and returns its identifier
// and raw body, for tests that need to assert on the exact bytes a
// Connection sent (e.g. a Parse or Bind message).
func (s *Server) ExpectMessage() (types.ClientMessage, []byte) {
	s.t.Helper()

	identifier := s.readByte()
	length := s.readUint32()
	body := s.readN(int(length) - 4)

	return types.ClientMessage(identifier), body
}

// SendAuthenticationOk writes Authentication{Ok}.
func (s *Server) SendAuthenticationOk() {
	s.send(types.ServerAuth, encodeUint32(0))
}

// SendAuthenticationCleartext writes Authentication{CleartextPassword}.
func (s *Server) SendAuthenticationCleartext() {
	s.send(types.ServerAuth, encodeUint32(3))
}

// SendAuthenticationMD5 writes Authentication{MD5Password} with the given
// 4-byte salt.
func (s *Server) SendAuthenticationMD5(salt [4]byte) {
	body := append(encodeUint32(5), salt[:]...)
	s.send(types.ServerAuth, body)
}

// SendParameterStatus writes a ParameterStatus message.
func (s *Server) SendParameterStatus(name, value string) {
	body := append(nulTerminated(name), nulTerminated(value)...)
	s.send(types.ServerParameterStatus, body)
}

// SendBackendKeyData writes a BackendKeyData message.
func (s *Server) SendBackendKeyData(pid, secret uint32) {
	body := append(encodeUint32(pid), encodeUint32(secret)...)
	s.send(types.ServerBackendKeyData, body)
}

// SendReadyForQuery writes ReadyForQuery with the given transaction status
// byte ('I', 'T', or 'E').
func (s *Server) SendReadyForQuery(status byte) {
	s.send(types.ServerReady, []byte{status})
}

// SendCommandComplete writes a CommandComplete message with the given tag.
func (s *Server) SendCommandComplete(tag string) {
	s.send(types.ServerCommandComplete, nulTerminated(tag))
}

// SendErrorResponse writes a minimal ErrorResponse carrying the required
// Severity/Code/Message fields.
func (s *Server) SendErrorResponse(severity, code, message string) {
	body := append([]byte{'S'}, nulTerminated(severity)...)
	body = append(body, 'C')
	body = append(body, nulTerminated(code)...)
	body = append(body, 'M')
	body = append(body, nulTerminated(message)...)
	body = append(body, 0)
	s.send(types.ServerErrorResponse, body)
}

// SendRaw writes a message with an arbitrary identifier and pre-built body,
// for frames pgtest has no dedicated builder for.
func (s *Server) SendRaw(identifier types.ServerMessage, body []byte) {
	s.send(identifier, body)
}

// SendRowDescription writes a RowDescription naming text-format columns,
// each with a zero table OID/attr, OID 25 (text), and type size and type
// modifier -1.
func (s *Server) SendRowDescription(columns ...string) {
	body := encodeUint16(uint16(len(columns)))
	for _, name := range columns {
		body = append(body, nulTerminated(name)...)
		body = append(body, encodeUint32(0)...)  // table OID
		body = append(body, encodeUint16(0)...)  // column attr
		body = append(body, encodeUint32(25)...) // type OID: text
		body = append(body, encodeInt16(-1)...)  // type size
		body = append(body, encodeInt32(-1)...)  // type modifier
		body = append(body, encodeInt16(0)...)   // format: text
	}
	s.send(types.ServerRowDescription, body)
}

// SendDataRow writes a DataRow with the given column values, each encoded
// as text; a nil entry in values encodes SQL NULL.
func (s *Server) SendDataRow(values ...[]byte) {
	body := encodeUint16(uint16(len(values)))
	for _, v := range values {
		if v == nil {
			body = append(body, encodeInt32(-1)...)
			continue
		}
		body = append(body, encodeInt32(int32(len(v)))...)
		body = append(body, v...)
	}
	s.send(types.ServerDataRow, body)
}

// SendParseComplete writes a bodiless ParseComplete message.
func (s *Server) SendParseComplete() { s.send(types.ServerParseComplete, nil) }

// SendBindComplete writes a bodiless BindComplete message.
func (s *Server) SendBindComplete() { s.send(types.ServerBindComplete, nil) }

// SendCloseComplete writes a bodiless CloseComplete message.
func (s *Server) SendCloseComplete() { s.send(types.ServerCloseComplete, nil) }

func (s *Server) send(identifier types.ServerMessage, body []byte) {
	s.t.Helper()

	frame := make([]byte, 0, 5+len(body))
	frame = append(frame, byte(identifier))
	frame = append(frame, encodeUint32(uint32(len(body)+4))...)
	frame = append(frame, body...)

	if _, err := s.conn.Write(frame); err != nil {
		s.t.Fatalf("pgtest: write failed: %v", err)
	}
}

func (s *Server) readByte() byte {
	s.t.Helper()
	b, err := s.reader.ReadByte()
	if err != nil {
		s.t.Fatalf("pgtest: read failed: %v", err)
	}
	return b
}

func (s *Server) readN(n int) []byte {
	s.t.Helper()
	buf := make([]byte, n)
	if _, err := readFull(s.reader, buf); err != nil {
		s.t.Fatalf("pgtest: read failed: %v", err)
	}
	return buf
}

func (s *Server) readUint32() uint32 {
	return binary.BigEndian.Uint32(s.readN(4))
}

func readFull(r *bufio.Reader, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := r.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func encodeUint32(v uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	return b
}

func encodeUint16(v uint16) []byte {
	b := make([]byte, 2)
	binary.BigEndian.PutUint16(b, v)
	return b
}

func encodeInt16(v int16) []byte { return encodeUint16(uint16(v)) }

func encodeInt32(v int32) []byte { return encodeUint32(uint32(v)) }

func nulTerminated(s string) []byte {
	return append([]byte(s), 0)
}

func splitNulTerminated(body []byte) []string {
	var fields []string
	start := 0
	for i, b := range body {
		if b == 0 {
			fields = append(fields, string(body[start:i]))
			start = i + 1
		}
	}
	return fields
}
