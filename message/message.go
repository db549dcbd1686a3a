// Package message implements the PostgreSQL frontend/backend message
// surface: decoding backend messages out of a framed body, encoding
// frontend requests, and parsing the notice/error tagged-field body they
// both share.
package message

import (
	"fmt"

	"github.com/lib/pq/oid"
)

// AuthKind identifies the sub-message carried by an Authentication reply.
type AuthKind int

const (
	AuthOk AuthKind = iota
	AuthKerberosV5
	AuthCleartext
	AuthMD5
	AuthSCMCredential
	AuthGSS
	AuthGSSContinue
	AuthSSPI
	AuthUnknown
)

func (k AuthKind) String() string {
	switch k {
	case AuthOk:
		return "Ok"
	case AuthKerberosV5:
		return "KerberosV5"
	case AuthCleartext:
		return "Cleartext"
	case AuthMD5:
		return "Md5"
	case AuthSCMCredential:
		return "ScmCredential"
	case AuthGSS:
		return "Gss"
	case AuthGSSContinue:
		return "GssContinue"
	case AuthSSPI:
		return "Sspi"
	default:
		return "Unknown"
	}
}

// Authentication is the decoded body of a backend 'R' message.
type Authentication struct {
	Kind AuthKind
	Salt [4]byte // set when Kind == AuthMD5
	Data []byte  // set when Kind == AuthGSSContinue
	Code uint32  // set when Kind == AuthUnknown, the raw sub-kind code
}

// ParameterStatus is the decoded body of a backend 'S' message.
type ParameterStatus struct {
	Name  string
	Value string
}

// BackendKeyData is the decoded body of a backend 'K' message.
type BackendKeyData struct {
	ProcessID uint32
	SecretKey uint32
}

// TransactionStatus is the single byte carried by ReadyForQuery.
type TransactionStatus byte

const (
	TransactionIdle   TransactionStatus = 'I'
	TransactionInTx   TransactionStatus = 'T'
	TransactionFailed TransactionStatus = 'E'
)

// ReadyForQuery is the decoded body of a backend 'Z' message.
type ReadyForQuery struct {
	Status TransactionStatus
}

// Format is the text/binary encoding of a column or bind parameter.
type Format int16

const (
	FormatText   Format = 0
	FormatBinary Format = 1
)

func (f Format) String() string {
	if f == FormatBinary {
		return "Binary"
	}
	return "Text"
}

// FieldDescription describes one column of a RowDescription.
type FieldDescription struct {
	Name         string
	TableOID     uint32
	ColumnAttr   uint16
	TypeOID      oid.Oid
	TypeSize     int16
	TypeModifier int32
	Format       Format
}

// RowDescription is the decoded body of a backend 'T' message.
type RowDescription struct {
	Fields []FieldDescription
}

// DataRow is the decoded body of a backend 'D' message. Each column is nil
// when the wire carried length -1 (SQL NULL), or the raw column bytes
// (text or binary, per the preceding RowDescription) otherwise.
type DataRow struct {
	Columns [][]byte
}

// CommandComplete is the decoded body of a backend 'C' message.
type CommandComplete struct {
	Tag string
}

// Kind identifies which variant a decoded Backend message holds.
type Kind int

const (
	KindAuthentication Kind = iota
	KindParameterStatus
	KindBackendKeyData
	KindReadyForQuery
	KindRowDescription
	KindDataRow
	KindCommandComplete
	KindParseComplete
	KindBindComplete
	KindCloseComplete
	KindNoData
	KindPortalSuspended
	KindEmptyQueryResponse
	KindErrorResponse
	KindNoticeResponse
	KindUnknown
)

func (k Kind) String() string {
	switch k {
	case KindAuthentication:
		return "Authentication"
	case KindParameterStatus:
		return "ParameterStatus"
	case KindBackendKeyData:
		return "BackendKeyData"
	case KindReadyForQuery:
		return "ReadyForQuery"
	case KindRowDescription:
		return "RowDescription"
	case KindDataRow:
		return "DataRow"
	case KindCommandComplete:
		return "CommandComplete"
	case KindParseComplete:
		return "ParseComplete"
	case KindBindComplete:
		return "BindComplete"
	case KindCloseComplete:
		return "CloseComplete"
	case KindNoData:
		return "NoData"
	case KindPortalSuspended:
		return "PortalSuspended"
	case KindEmptyQueryResponse:
		return "EmptyQueryResponse"
	case KindErrorResponse:
		return "ErrorResponse"
	case KindNoticeResponse:
		return "NoticeResponse"
	default:
		return "Unknown"
	}
}

// Backend is a decoded backend message: exactly one of the typed fields
// below is meaningful, selected by Kind. Bodiless kinds (ParseComplete,
// BindComplete, CloseComplete, NoData, PortalSuspended, EmptyQueryResponse)
// carry no payload at all.
type Backend struct {
	Kind Kind

	Auth            Authentication
	ParamStatus     ParameterStatus
	BackendKey      BackendKeyData
	Ready           ReadyForQuery
	RowDescription  RowDescription
	DataRow         DataRow
	CommandComplete CommandComplete
	Notice          NoticeBody

	// UnknownIdentifier and UnknownBody hold the raw frame when Kind ==
	// KindUnknown: an identifier this module does not interpret, forwarded
	// rather than rejected (spec §4.3's catch-all).
	UnknownIdentifier byte
	UnknownBody       []byte
}

func (m Backend) String() string {
	return fmt.Sprintf("Backend(%s)", m.Kind)
}
