package errors

import (
	"errors"
	"fmt"

	"github.com/pgwire/pgwire/codes"
)

// Source represents whenever possible the source of a given error.
type Source struct {
	File     string
	Line     int32
	Function string
}

// ErrIO wraps a failure returned by the underlying socket (connect, read,
// write). The connection is poisoned and driven to Closed.
var ErrIO = errors.New("pgwire: I/O error")

// NewIOError decorates a socket-layer error so it is recognizable with
// errors.Is(err, ErrIO), and tags it with the call site that detected it.
func NewIOError(cause error) error {
	err := fmt.Errorf("%w: %w", ErrIO, cause)
	file, line, fn := CaptureSource(0)
	return WithSource(err, file, line, fn)
}

// ErrProtocolTruncated is returned when a frame is shorter than its 5-byte
// header, or a notice/error body ends before its terminating zero tag. A
// socket closed mid-frame surfaces as ErrIO, and a field cut short inside a
// complete frame as ErrProtocolInvalid.
var ErrProtocolTruncated = errors.New("pgwire: truncated message")

// ErrProtocolInvalid is returned when a frame's body does not match the
// shape its identifier promises (wrong length, bad tag, missing terminator).
var ErrProtocolInvalid = errors.New("pgwire: invalid message")

// ErrProtocolUTF8 is returned when a string field fails UTF-8 validation.
var ErrProtocolUTF8 = errors.New("pgwire: invalid UTF-8")

// ErrProtocolParseInt is returned when a field expected to hold an ASCII
// integer (a notice/error body's P, p or L field) fails to parse.
var ErrProtocolParseInt = errors.New("pgwire: invalid integer field")

// NewProtocolError decorates cause with codes.ProtocolViolation and wraps it
// against kind, one of the ErrProtocol* taxonomy sentinels above, so
// errors.Is(err, kind) succeeds.
func NewProtocolError(kind error, cause error) error {
	err := fmt.Errorf("%w: %w", kind, cause)
	file, line, fn := CaptureSource(0)
	return WithSource(WithSeverity(WithCode(err, codes.ProtocolViolation), LevelFatal), file, line, fn)
}

// ErrAuthUnsupported is returned when the server requests an authentication
// method this client does not implement (anything but cleartext or MD5).
var ErrAuthUnsupported = errors.New("pgwire: unsupported authentication method")

// ErrAuthRejected is returned when the server answers the startup handshake
// with an ErrorResponse; the captured *ServerError is wrapped alongside it.
var ErrAuthRejected = errors.New("pgwire: authentication rejected")

// NewAuthError wraps cause against one of the two auth taxonomy sentinels.
func NewAuthError(kind error, cause error) error {
	err := fmt.Errorf("%w: %w", kind, cause)
	file, line, fn := CaptureSource(0)
	return WithSource(err, file, line, fn)
}

// ServerError is the client-side representation of a backend ErrorResponse:
// a recoverable error the caller can inspect and continue operating the
// connection after its ReadyForQuery arrives.
type ServerError struct {
	Code           codes.Code
	Message        string
	Detail         string
	Hint           string
	Severity       Severity
	ConstraintName string
	Source         *Source
}

func (err *ServerError) Error() string {
	if err.Code != "" {
		return fmt.Sprintf("%s (%s): %s", err.Severity, err.Code, err.Message)
	}
	return fmt.Sprintf("%s: %s", err.Severity, err.Message)
}

// StateError is returned when a caller issues a request while the
// Connection is not Ready: the socket is never touched.
type StateError struct {
	Expected string
	Actual   string
}

func (err *StateError) Error() string {
	return fmt.Sprintf("pgwire: connection not ready: expected state %s, was %s", err.Expected, err.Actual)
}

// NewStateError constructs a StateError for the given expected/actual state
// labels (SessionState.String() values).
func NewStateError(expected, actual string) error {
	return &StateError{Expected: expected, Actual: actual}
}

// Flatten extracts the decorated facets of err into a source/severity/code
// triple, useful for logging. It does not change err's identity for
// errors.Is/As purposes.
func Flatten(err error) (source *Source, severity Severity, code codes.Code) {
	if err == nil {
		return nil, LevelFatal, codes.Internal
	}

	return GetSource(err), DefaultSeverity(GetSeverity(err)), GetCode(err)
}
