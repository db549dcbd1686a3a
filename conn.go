// Package pgwire implements the core of a client for the PostgreSQL wire
// protocol (version 3): a framed binary codec, startup/authentication
// negotiation, simple-query execution, and the scaffolding of extended
// query (parse/bind/execute/close) flow.
package pgwire

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/pgwire/pgwire/codes"
	"github.com/pgwire/pgwire/errors"
	"github.com/pgwire/pgwire/message"
	"github.com/pgwire/pgwire/pkg/buffer"
	"github.com/pgwire/pgwire/session"
)

// defaultReadChunk is how many bytes Connection asks the socket for per
// Read call; the read buffer grows to fit whatever actually arrives.
const defaultReadChunk = 4096

// Connection owns a single TCP socket speaking the PostgreSQL v3 protocol,
// its accumulated read buffer, and the session state machine driving it.
// It is not safe for concurrent use: a connection is a single in-order
// request/response channel (spec.md §5).
type Connection struct {
	cfg    *Config
	socket net.Conn
	logger *slog.Logger

	writer *buffer.Writer
	framer buffer.Framer
	read   []byte // accumulated, not-yet-framed bytes read from the socket

	machine *session.Machine

	parameters map[string]string
	backendPID uint32
	backendKey uint32

	preparedCounter int
}

// Connect dials host:port, performs the StartupMessage/authentication
// handshake, and returns a Connection in the Ready state.
func Connect(ctx context.Context, host string, port int, user string, opts ...OptionFn) (*Connection, error) {
	cfg := newConfig(host, port, user, opts)
	if err := cfg.resolvePassword(); err != nil {
		return nil, err
	}

	dialer := net.Dialer{Timeout: cfg.DialTimeout}
	address := net.JoinHostPort(host, strconv.Itoa(port))

	socket, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, errors.NewIOError(err)
	}

	if tcp, ok := socket.(*net.TCPConn); ok {
		_ = tcp.SetNoDelay(true)
	}

	conn, err := Open(ctx, socket, cfg)
	if err != nil {
		socket.Close()
		return nil, err
	}

	return conn, nil
}

// Open performs the StartupMessage/authentication handshake over an
// already-established socket and returns a Connection in the Ready state.
// Most callers want Connect; Open exists for embedders supplying their own
// dialer (a connection pool, a Unix socket, a test harness) and for pgtest's
// fake server.
func Open(ctx context.Context, socket net.Conn, cfg *Config) (*Connection, error) {
	conn := &Connection{
		cfg:        cfg,
		socket:     socket,
		logger:     cfg.Logger,
		writer:     buffer.NewWriter(cfg.Logger, socket),
		machine:    session.NewMachine(),
		parameters: map[string]string{},
	}

	if err := conn.startup(ctx); err != nil {
		return nil, err
	}

	return conn, nil
}

func (conn *Connection) startup(ctx context.Context) error {
	if err := message.EncodeStartupMessage(conn.writer, conn.cfg.User, conn.cfg.Database, conn.cfg.RuntimeParameters); err != nil {
		return conn.poison(errors.NewIOError(err))
	}
	conn.machine.StartupSent()

	for {
		msg, err := conn.next(ctx)
		if err != nil {
			// The server conventionally closes the socket right after a
			// startup-time ErrorResponse instead of sending ReadyForQuery;
			// the rejection captured below would otherwise be lost behind
			// the resulting EOF.
			if conn.machine.State() == session.AuthRejected {
				return conn.poison(errors.NewAuthError(errors.ErrAuthRejected, conn.machine.PendingError()))
			}
			return conn.poison(err)
		}

		switch msg.Kind {
		case message.KindAuthentication:
			done, err := conn.handleAuthentication(msg.Auth)
			if err != nil {
				return conn.poison(err)
			}
			if done {
				continue
			}
		case message.KindParameterStatus:
			conn.absorbParameterStatus(msg.ParamStatus)
		case message.KindBackendKeyData:
			conn.backendPID = msg.BackendKey.ProcessID
			conn.backendKey = msg.BackendKey.SecretKey
		case message.KindNoticeResponse:
			conn.absorbNotice(msg.Notice)
		case message.KindErrorResponse:
			conn.machine.CaptureServerError(serverErrorFromNotice(msg.Notice))
		case message.KindReadyForQuery:
			rejected := conn.machine.State() == session.AuthRejected
			err := conn.machine.ReadyForQuery()
			if rejected {
				return conn.poison(errors.NewAuthError(errors.ErrAuthRejected, err))
			}
			return err
		default:
			conn.logger.Debug("<- ignoring message during startup", slog.String("kind", msg.Kind.String()))
		}
	}
}

// handleAuthentication answers the server's Authentication challenge. It
// returns done=true once the challenge needed no reply or its reply was
// sent, or an error wrapping ErrAuthUnsupported (unsupported method, or no
// password configured) or ErrIO (the reply could not be written).
func (conn *Connection) handleAuthentication(auth message.Authentication) (bool, error) {
	switch auth.Kind {
	case message.AuthOk:
		conn.machine.AuthenticationOK()
		return true, nil
	case message.AuthCleartext:
		if conn.cfg.Password == "" {
			return false, errors.NewAuthError(errors.ErrAuthUnsupported, fmt.Errorf("cleartext auth requested but no password configured"))
		}
		if err := message.EncodePasswordMessage(conn.writer, conn.cfg.Password); err != nil {
			return false, errors.NewIOError(err)
		}
		return true, nil
	case message.AuthMD5:
		if conn.cfg.Password == "" {
			return false, errors.NewAuthError(errors.ErrAuthUnsupported, fmt.Errorf("md5 auth requested but no password configured"))
		}
		hash := message.EncodeMD5Password(conn.cfg.User, conn.cfg.Password, auth.Salt)
		if err := message.EncodePasswordMessage(conn.writer, hash); err != nil {
			return false, errors.NewIOError(err)
		}
		return true, nil
	default:
		return false, errors.NewAuthError(errors.ErrAuthUnsupported, fmt.Errorf("authentication method %s is not supported", auth.Kind))
	}
}

func (conn *Connection) absorbParameterStatus(ps message.ParameterStatus) {
	conn.parameters[ps.Name] = ps.Value
	if conn.cfg.Parameters != nil {
		conn.cfg.Parameters(ps.Name, ps.Value)
	}
}

func (conn *Connection) absorbNotice(body message.NoticeBody) {
	if conn.cfg.Notices != nil {
		conn.cfg.Notices(noticeEventFromBody(body))
	}
}

func serverErrorFromNotice(body message.NoticeBody) error {
	return &errors.ServerError{
		Code:           codesCode(body.Code),
		Message:        body.Message,
		Detail:         body.Detail,
		Hint:           body.Hint,
		Severity:       severityFromNotice(body),
		ConstraintName: body.ConstraintName,
		Source:         sourceFromNotice(body),
	}
}

// sourceFromNotice reports where inside the backend the error originated,
// when the server included the F/L/R fields (it often doesn't outside a
// debug build).
func sourceFromNotice(body message.NoticeBody) *errors.Source {
	if body.SourceFile == "" && body.SourceLine == 0 && body.SourceRoutine == "" {
		return nil
	}
	return &errors.Source{File: body.SourceFile, Line: body.SourceLine, Function: body.SourceRoutine}
}

// Parameter returns the current value the server reported for a runtime
// parameter (e.g. "server_version", "client_encoding"), and whether it has
// been reported at all.
func (conn *Connection) Parameter(name string) (string, bool) {
	v, ok := conn.parameters[name]
	return v, ok
}

// BackendPID returns the process ID the server reported in BackendKeyData;
// zero before startup completes.
func (conn *Connection) BackendPID() uint32 { return conn.backendPID }

// State returns the connection's current session state.
func (conn *Connection) State() session.State { return conn.machine.State() }

// next frames and decodes the next backend message, reading more bytes from
// the socket if the accumulated buffer holds no complete frame.
func (conn *Connection) next(ctx context.Context) (message.Backend, error) {
	for {
		frame, rest, ok := conn.framer.Next(conn.read)
		if ok {
			conn.read = rest
			msg, err := message.DecodeBackend(frame)
			if err != nil {
				return message.Backend{}, err
			}
			conn.logger.Debug("<- received message", slog.String("kind", msg.Kind.String()))
			return msg, nil
		}

		if err := conn.fill(ctx); err != nil {
			return message.Backend{}, err
		}
	}
}

// fill performs one blocking Read and appends whatever arrived to the
// unframed tail of the read buffer. Per spec.md §9's resolution of the
// source's open question: a blocking read, not a spinning poll.
func (conn *Connection) fill(ctx context.Context) error {
	if conn.cfg.ReadTimeout > 0 {
		_ = conn.socket.SetReadDeadline(time.Now().Add(conn.cfg.ReadTimeout))
	}

	chunk := make([]byte, defaultReadChunk)
	n, err := conn.socket.Read(chunk)
	if n > 0 {
		conn.read = append(conn.read, chunk[:n]...)
	}
	if err != nil {
		return errors.NewIOError(err)
	}

	return nil
}

// poison marks the connection Closed, logs the facets of err relevant to
// diagnosing a dead connection, and returns err unchanged, so callers can
// `return conn.poison(err)`.
func (conn *Connection) poison(err error) error {
	conn.machine.Close()

	if err != nil {
		source, severity, code := errors.Flatten(err)
		attrs := []slog.Attr{
			slog.String("severity", string(severity)),
			slog.String("code", string(code)),
		}
		if source != nil {
			attrs = append(attrs,
				slog.String("source_file", source.File),
				slog.Int("source_line", int(source.Line)),
				slog.String("source_function", source.Function),
			)
		}
		conn.logger.LogAttrs(context.Background(), slog.LevelDebug, "connection poisoned", attrs...)
	}

	return err
}

// Close sends a best-effort Terminate and closes the socket (spec.md §5:
// teardown errors are logged, never raised).
func (conn *Connection) Close() error {
	if conn.machine.State() != session.Closed {
		if err := message.EncodeTerminate(conn.writer); err != nil {
			conn.logger.Debug("failed to send Terminate", slog.Any("err", err))
		}
	}
	conn.machine.Close()
	return conn.socket.Close()
}

// FormatCode re-exports message.Format for callers building Bind parameters
// without importing the message package directly.
type FormatCode = message.Format

const (
	TextFormat   = message.FormatText
	BinaryFormat = message.FormatBinary
)

func codesCode(sqlstate string) codes.Code {
	return codes.Code(sqlstate)
}

func severityFromNotice(body message.NoticeBody) errors.Severity {
	switch body.Severity {
	case message.SeverityError:
		return errors.LevelError
	case message.SeverityFatal:
		return errors.LevelFatal
	case message.SeverityPanic:
		return errors.LevelPanic
	case message.SeverityWarning:
		return errors.LevelWarning
	case message.SeverityNotice:
		return errors.LevelNotice
	case message.SeverityDebug:
		return errors.LevelDebug
	case message.SeverityInfo:
		return errors.LevelInfo
	case message.SeverityLog:
		return errors.LevelLog
	default:
		return errors.LevelError
	}
}

