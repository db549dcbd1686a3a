package types

// ClientMessage represents a frontend (client-to-server) pgwire message
// identifier byte. These are the identifiers this module writes.
type ClientMessage byte

// ServerMessage represents a backend (server-to-client) pgwire message
// identifier byte. These are the identifiers this module reads.
type ServerMessage byte

// http://www.postgresql.org/docs/9.4/static/protocol-message-formats.html
const (
	ClientPassword    ClientMessage = 'p'
	ClientSimpleQuery ClientMessage = 'Q'
	ClientParse       ClientMessage = 'P'
	ClientBind        ClientMessage = 'B'
	ClientExecute     ClientMessage = 'E'
	ClientSync        ClientMessage = 'S'
	ClientClose       ClientMessage = 'C'
	ClientTerminate   ClientMessage = 'X'

	ServerAuth                 ServerMessage = 'R'
	ServerParameterStatus      ServerMessage = 'S'
	ServerBackendKeyData       ServerMessage = 'K'
	ServerReady                ServerMessage = 'Z'
	ServerRowDescription       ServerMessage = 'T'
	ServerDataRow              ServerMessage = 'D'
	ServerCommandComplete      ServerMessage = 'C'
	ServerParseComplete        ServerMessage = '1'
	ServerBindComplete         ServerMessage = '2'
	ServerCloseComplete        ServerMessage = '3'
	ServerNoData               ServerMessage = 'n'
	ServerPortalSuspended      ServerMessage = 's'
	ServerEmptyQuery           ServerMessage = 'I'
	ServerErrorResponse        ServerMessage = 'E'
	ServerNoticeResponse       ServerMessage = 'N'
	ServerParameterDescription ServerMessage = 't'

	// Supplemented identifiers (SPEC_FULL.md §4.1): named so the decoder's
	// dispatch table can recognize them, though each still decodes to
	// Unknown until a typed case is added.
	ServerCopyInResponse       ServerMessage = 'G'
	ServerCopyOutResponse      ServerMessage = 'H'
	ServerCopyBothResponse     ServerMessage = 'W'
	ServerNotificationResponse ServerMessage = 'A'
	ServerFunctionCallResponse ServerMessage = 'V'
)

// String returns the human-readable name of a backend message identifier.
func (m ServerMessage) String() string {
	switch m {
	case ServerAuth:
		return "Authentication"
	case ServerParameterStatus:
		return "ParameterStatus"
	case ServerBackendKeyData:
		return "BackendKeyData"
	case ServerReady:
		return "ReadyForQuery"
	case ServerRowDescription:
		return "RowDescription"
	case ServerDataRow:
		return "DataRow"
	case ServerCommandComplete:
		return "CommandComplete"
	case ServerParseComplete:
		return "ParseComplete"
	case ServerBindComplete:
		return "BindComplete"
	case ServerCloseComplete:
		return "CloseComplete"
	case ServerNoData:
		return "NoData"
	case ServerPortalSuspended:
		return "PortalSuspended"
	case ServerEmptyQuery:
		return "EmptyQueryResponse"
	case ServerErrorResponse:
		return "ErrorResponse"
	case ServerNoticeResponse:
		return "NoticeResponse"
	case ServerParameterDescription:
		return "ParameterDescription"
	case ServerCopyInResponse:
		return "CopyInResponse"
	case ServerCopyOutResponse:
		return "CopyOutResponse"
	case ServerCopyBothResponse:
		return "CopyBothResponse"
	case ServerNotificationResponse:
		return "NotificationResponse"
	case ServerFunctionCallResponse:
		return "FunctionCallResponse"
	default:
		return "Unknown"
	}
}

// String returns the human-readable name of a frontend message identifier.
func (m ClientMessage) String() string {
	switch m {
	case ClientPassword:
		return "PasswordMessage"
	case ClientSimpleQuery:
		return "Query"
	case ClientParse:
		return "Parse"
	case ClientBind:
		return "Bind"
	case ClientExecute:
		return "Execute"
	case ClientSync:
		return "Sync"
	case ClientClose:
		return "Close"
	case ClientTerminate:
		return "Terminate"
	default:
		return "Unknown"
	}
}
