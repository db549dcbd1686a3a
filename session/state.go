// Package session implements the Connection's state machine: the legal
// transitions a PostgreSQL v3 session moves through from startup to
// termination, and the bookkeeping (captured server error, busy request
// kind) a Connection needs to drive a drain loop correctly.
package session

import "github.com/pgwire/pgwire/errors"

// State is one node of the session lifecycle.
type State uint8

const (
	// New is the state of a Connection before StartupMessage is sent.
	New State = iota
	// AwaitingAuth is entered once StartupMessage has been sent; the
	// Connection is negotiating authentication.
	AwaitingAuth
	// Authenticated is entered on Authentication(Ok); ParameterStatus,
	// BackendKeyData and NoticeResponse are absorbed here until
	// ReadyForQuery arrives.
	Authenticated
	// AuthRejected is entered when the server sends ErrorResponse before
	// Authenticated; the connection is drained to close.
	AuthRejected
	// Ready is the only state from which a caller may initiate a request.
	Ready
	// Busy is entered for the duration of a request; BusyKind names which
	// one.
	Busy
	// Closed is terminal: Terminate was sent, or the socket was lost.
	Closed
)

func (s State) String() string {
	switch s {
	case New:
		return "New"
	case AwaitingAuth:
		return "AwaitingAuth"
	case Authenticated:
		return "Authenticated"
	case AuthRejected:
		return "AuthRejected"
	case Ready:
		return "Ready"
	case Busy:
		return "Busy"
	case Closed:
		return "Closed"
	default:
		return "Unknown"
	}
}

// BusyKind names the request in flight while State == Busy.
type BusyKind uint8

const (
	BusyNone BusyKind = iota
	BusySimpleQuery
	BusyParse
	BusyBind
	BusyExecute
	BusySync
	BusyClose
)

func (k BusyKind) String() string {
	switch k {
	case BusySimpleQuery:
		return "SimpleQuery"
	case BusyParse:
		return "Parse"
	case BusyBind:
		return "Bind"
	case BusyExecute:
		return "Execute"
	case BusySync:
		return "Sync"
	case BusyClose:
		return "Close"
	default:
		return "None"
	}
}

// Machine tracks the current State/BusyKind pair and enforces the
// transition rules of spec.md §4.7. It owns no I/O: the Connection drives
// it from decoded messages and asks it, before emitting a request, whether
// the caller is allowed to proceed.
type Machine struct {
	state State
	busy  BusyKind
	// pendingError is the ErrorResponse captured while Busy; it is returned
	// to the caller once the following ReadyForQuery restores Ready.
	pendingError error
}

// NewMachine constructs a Machine in the New state.
func NewMachine() *Machine {
	return &Machine{state: New}
}

// State returns the current lifecycle state.
func (m *Machine) State() State { return m.state }

// BusyKind returns the in-flight request kind, valid only while State() ==
// Busy.
func (m *Machine) BusyKind() BusyKind { return m.busy }

// label renders "Busy(kind)" to match spec.md's state names in error text.
func (m *Machine) label() string {
	if m.state == Busy {
		return "Busy(" + m.busy.String() + ")"
	}
	return m.state.String()
}

// RequireReady returns a StateError without mutating the machine if the
// caller may not initiate a new request right now (spec.md §8 property 5:
// the socket must not be touched in this case).
func (m *Machine) RequireReady() error {
	if m.state != Ready {
		return errors.NewStateError(Ready.String(), m.label())
	}
	return nil
}

// BeginRequest transitions Ready -> Busy(kind). Callers must have already
// checked RequireReady (or be willing to overwrite an invalid transition —
// BeginRequest panics if called outside Ready, since that indicates a bug in
// the Connection rather than caller misuse).
func (m *Machine) BeginRequest(kind BusyKind) {
	if m.state != Ready {
		panic("session: BeginRequest called while not Ready")
	}
	m.state = Busy
	m.busy = kind
	m.pendingError = nil
}

// StartupSent transitions New -> AwaitingAuth.
func (m *Machine) StartupSent() {
	m.state = AwaitingAuth
}

// AuthenticationOK transitions AwaitingAuth -> Authenticated.
func (m *Machine) AuthenticationOK() {
	if m.state == AwaitingAuth {
		m.state = Authenticated
	}
}

// CaptureServerError records a backend ErrorResponse received while Busy (or
// during startup): the rest of the pipeline up to the next ReadyForQuery is
// still drained, then the captured error is surfaced to the caller.
func (m *Machine) CaptureServerError(err error) {
	switch m.state {
	case AwaitingAuth, Authenticated:
		m.state = AuthRejected
		m.pendingError = err
	case Busy:
		m.pendingError = err
	}
}

// PendingError returns the error captured by CaptureServerError without
// consuming it. Callers that need to inspect a rejection before the
// matching ReadyForQuery arrives (or before the socket closes instead of
// sending one) use this; ReadyForQuery remains the one place pendingError
// is cleared.
func (m *Machine) PendingError() error {
	return m.pendingError
}

// ReadyForQuery transitions Busy|Authenticated|AuthRejected -> Ready and
// returns the error captured during the just-finished request, if any.
func (m *Machine) ReadyForQuery() error {
	err := m.pendingError
	m.pendingError = nil
	m.busy = BusyNone
	m.state = Ready
	return err
}

// Close transitions unconditionally to Closed: Terminate was sent, a fatal
// protocol error occurred, or the socket was lost.
func (m *Machine) Close() {
	m.state = Closed
}
