package pgwire

import (
	"context"
	"strconv"

	"github.com/pgwire/pgwire/errors"
	"github.com/pgwire/pgwire/message"
	"github.com/pgwire/pgwire/pkg/buffer"
	"github.com/pgwire/pgwire/session"
)

// Row is a decoded DataRow: each column is nil for SQL NULL, or its raw
// text/binary bytes per the preceding RowDescription's format.
type Row struct {
	Columns [][]byte
}

// Parameter re-exports message.Parameter for callers building Bind calls
// without importing the message package directly.
type Parameter = message.Parameter

// Result is the accumulated outcome of draining a request to its
// ReadyForQuery (spec.md §4.7's drain loop contract).
type Result struct {
	Fields  []message.FieldDescription
	Rows    []Row
	Tag     string
	Suspend bool // true if terminated by PortalSuspended rather than CommandComplete
}

// SimpleQuery sends a Query message and drains the response to
// ReadyForQuery, returning every row and the final command tag.
func (conn *Connection) SimpleQuery(ctx context.Context, sql string) (*Result, error) {
	if err := conn.machine.RequireReady(); err != nil {
		return nil, err
	}

	if err := message.EncodeQuery(conn.writer, sql); err != nil {
		return nil, conn.poison(errors.NewIOError(err))
	}
	conn.machine.BeginRequest(session.BusySimpleQuery)

	return conn.drain(ctx)
}

// drain reads and dispatches messages until ReadyForQuery, accumulating a
// Result. A captured server error is returned once ReadyForQuery restores
// Ready; the connection remains usable (spec.md §8 property 6).
func (conn *Connection) drain(ctx context.Context) (*Result, error) {
	result := &Result{}

	for {
		msg, err := conn.next(ctx)
		if err != nil {
			return nil, conn.poison(err)
		}

		switch msg.Kind {
		case message.KindRowDescription:
			result.Fields = msg.RowDescription.Fields
		case message.KindDataRow:
			result.Rows = append(result.Rows, Row{Columns: msg.DataRow.Columns})
		case message.KindCommandComplete:
			result.Tag = msg.CommandComplete.Tag
		case message.KindPortalSuspended:
			result.Suspend = true
		case message.KindEmptyQueryResponse, message.KindParseComplete,
			message.KindBindComplete, message.KindCloseComplete, message.KindNoData:
			// Acknowledgements with no payload to accumulate.
		case message.KindParameterStatus:
			conn.absorbParameterStatus(msg.ParamStatus)
		case message.KindNoticeResponse:
			conn.absorbNotice(msg.Notice)
		case message.KindErrorResponse:
			conn.machine.CaptureServerError(serverErrorFromNotice(msg.Notice))
		case message.KindReadyForQuery:
			if err := conn.machine.ReadyForQuery(); err != nil {
				return nil, err
			}
			return result, nil
		default:
			conn.logger.Debug("<- ignoring unrecognized message while draining")
		}
	}
}

// PreparedStatement is a handle to a server-side prepared statement minted
// by Prepare. Its lifetime is bounded by the owning Connection; Close emits
// Close{'S', name} + Sync and awaits CloseComplete.
type PreparedStatement struct {
	conn *Connection
	name string
	sql  string
}

// Name returns the sequential decimal name minted for this statement.
func (stmt *PreparedStatement) Name() string { return stmt.name }

// Prepare sends a Parse message naming a new sequential statement, drains
// to ReadyForQuery, and returns a handle bound to that name.
func (conn *Connection) Prepare(ctx context.Context, sql string, paramOIDs []uint32) (*PreparedStatement, error) {
	if err := conn.machine.RequireReady(); err != nil {
		return nil, err
	}

	name := conn.nextStatementName()
	if err := message.EncodeParse(conn.writer, name, sql, paramOIDs); err != nil {
		return nil, conn.poison(errors.NewIOError(err))
	}
	if err := message.EncodeSync(conn.writer); err != nil {
		return nil, conn.poison(errors.NewIOError(err))
	}
	conn.machine.BeginRequest(session.BusyParse)

	if _, err := conn.drain(ctx); err != nil {
		return nil, err
	}

	return &PreparedStatement{conn: conn, name: name, sql: sql}, nil
}

func (conn *Connection) nextStatementName() string {
	conn.preparedCounter++
	return strconv.Itoa(conn.preparedCounter)
}

// Portal is a handle to a bound destination for Execute, produced by
// (*PreparedStatement).Bind.
type Portal struct {
	conn      *Connection
	name      string
	statement *PreparedStatement
}

// Name returns the portal's name ("" denotes the unnamed portal).
func (p *Portal) Name() string { return p.name }

// Bind sends a Bind message binding stmt to a new unnamed portal with the
// given parameters and requested result formats, and drains to
// ReadyForQuery.
func (stmt *PreparedStatement) Bind(ctx context.Context, params []message.Parameter, resultFormats []message.Format) (*Portal, error) {
	conn := stmt.conn
	if err := conn.machine.RequireReady(); err != nil {
		return nil, err
	}

	portalName := ""
	if err := message.EncodeBind(conn.writer, portalName, stmt.name, params, resultFormats); err != nil {
		return nil, conn.poison(errors.NewIOError(err))
	}
	if err := message.EncodeSync(conn.writer); err != nil {
		return nil, conn.poison(errors.NewIOError(err))
	}
	conn.machine.BeginRequest(session.BusyBind)

	if _, err := conn.drain(ctx); err != nil {
		return nil, err
	}

	return &Portal{conn: conn, name: portalName, statement: stmt}, nil
}

// Execute sends an Execute message for the portal requesting up to maxRows
// rows (0 means all remaining), followed by Sync, and drains the result.
func (p *Portal) Execute(ctx context.Context, maxRows uint32) (*Result, error) {
	conn := p.conn
	if err := conn.machine.RequireReady(); err != nil {
		return nil, err
	}

	if err := message.EncodeExecute(conn.writer, p.name, maxRows); err != nil {
		return nil, conn.poison(errors.NewIOError(err))
	}
	if err := message.EncodeSync(conn.writer); err != nil {
		return nil, conn.poison(errors.NewIOError(err))
	}
	conn.machine.BeginRequest(session.BusyExecute)

	return conn.drain(ctx)
}

// Close emits Close{'S', name} + Sync for the prepared statement and awaits
// CloseComplete, releasing its name on the server. Per spec.md §9, the
// statement holds a non-owning back-reference to its Connection rather than
// shared ownership; Close is the caller's responsibility, there is no
// finalizer.
func (stmt *PreparedStatement) Close(ctx context.Context) error {
	conn := stmt.conn
	if err := conn.machine.RequireReady(); err != nil {
		return err
	}

	if err := message.EncodeClose(conn.writer, buffer.PrepareStatement, stmt.name); err != nil {
		return conn.poison(errors.NewIOError(err))
	}
	if err := message.EncodeSync(conn.writer); err != nil {
		return conn.poison(errors.NewIOError(err))
	}
	conn.machine.BeginRequest(session.BusyClose)

	_, err := conn.drain(ctx)
	return err
}
