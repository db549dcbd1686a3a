package message

import (
	baseerrors "errors"

	"github.com/lib/pq/oid"
	"github.com/pgwire/pgwire/errors"
	"github.com/pgwire/pgwire/pkg/buffer"
	"github.com/pgwire/pgwire/pkg/types"
)

var (
	errFrameTooShort  = baseerrors.New("frame shorter than the minimum header size")
	errUnexpectedBody = baseerrors.New("message body length does not match its identifier's expected shape")
	errUnknownAuthCode = baseerrors.New("unrecognized authentication sub-kind")
	errBadFormatCode  = baseerrors.New("field format code is neither 0 (text) nor 1 (binary)")
)

// decoders is the dispatch table driving DecodeBackend: one entry per
// recognized backend identifier byte, per the "prefer a dispatch table over
// chained conditionals" guidance for adding messages later (CopyData,
// NotificationResponse, ...) as a local change.
var decoders = map[types.ServerMessage]func([]byte) (Backend, error){
	types.ServerAuth:            decodeAuthentication,
	types.ServerParameterStatus: decodeParameterStatus,
	types.ServerBackendKeyData:  decodeBackendKeyData,
	types.ServerReady:           decodeReadyForQuery,
	types.ServerRowDescription:  decodeRowDescription,
	types.ServerDataRow:         decodeDataRow,
	types.ServerCommandComplete: decodeCommandComplete,
	types.ServerParseComplete:   decodeBodiless(KindParseComplete),
	types.ServerBindComplete:    decodeBodiless(KindBindComplete),
	types.ServerCloseComplete:   decodeBodiless(KindCloseComplete),
	types.ServerNoData:          decodeBodiless(KindNoData),
	types.ServerPortalSuspended: decodeBodiless(KindPortalSuspended),
	types.ServerEmptyQuery:      decodeBodiless(KindEmptyQueryResponse),
	types.ServerErrorResponse:   decodeErrorResponse,
	types.ServerNoticeResponse:  decodeNoticeResponse,
}

// DecodeBackend decodes one complete frame (identifier byte + length-
// prefixed body, as produced by buffer.Framer) into a Backend message. Any
// identifier not present in the dispatch table — including the
// supplemented-but-unimplemented CopyInResponse/NotificationResponse/etc.
// identifiers named in pkg/types — decodes to KindUnknown rather than
// failing (spec §4.3's catch-all).
func DecodeBackend(frame []byte) (Backend, error) {
	if len(frame) < 5 {
		return Backend{}, errors.NewProtocolError(errors.ErrProtocolTruncated, errFrameTooShort)
	}

	identifier := types.ServerMessage(frame[0])
	body := frame[5:]

	decode, ok := decoders[identifier]
	if !ok {
		return Backend{Kind: KindUnknown, UnknownIdentifier: frame[0], UnknownBody: body}, nil
	}

	return decode(body)
}

func decodeBodiless(kind Kind) func([]byte) (Backend, error) {
	return func(body []byte) (Backend, error) {
		if len(body) != 0 {
			return Backend{}, errors.NewProtocolError(errors.ErrProtocolInvalid, errUnexpectedBody)
		}
		return Backend{Kind: kind}, nil
	}
}

func decodeAuthentication(body []byte) (Backend, error) {
	reader := buffer.NewReader(body)

	code, err := reader.GetUint32()
	if err != nil {
		return Backend{}, errors.NewProtocolError(errors.ErrProtocolInvalid, err)
	}

	auth := Authentication{}

	switch code {
	case 0:
		auth.Kind = AuthOk
	case 2:
		auth.Kind = AuthKerberosV5
	case 3:
		auth.Kind = AuthCleartext
	case 5:
		salt, err := reader.GetBytes(4)
		if err != nil {
			return Backend{}, errors.NewProtocolError(errors.ErrProtocolInvalid, err)
		}
		auth.Kind = AuthMD5
		copy(auth.Salt[:], salt)
	case 6:
		auth.Kind = AuthSCMCredential
	case 7:
		auth.Kind = AuthGSS
	case 8:
		data, err := reader.GetBytes(reader.Len())
		if err != nil {
			return Backend{}, errors.NewProtocolError(errors.ErrProtocolInvalid, err)
		}
		auth.Kind = AuthGSSContinue
		auth.Data = append([]byte(nil), data...)
	case 9:
		auth.Kind = AuthSSPI
	case 1, 4:
		auth.Kind = AuthUnknown
		auth.Code = code
	default:
		if code >= 10 && code <= 255 {
			auth.Kind = AuthUnknown
			auth.Code = code
		} else {
			return Backend{}, errors.NewProtocolError(errors.ErrProtocolInvalid, errUnknownAuthCode)
		}
	}

	if reader.Len() != 0 {
		return Backend{}, errors.NewProtocolError(errors.ErrProtocolInvalid, errUnexpectedBody)
	}

	return Backend{Kind: KindAuthentication, Auth: auth}, nil
}

func decodeParameterStatus(body []byte) (Backend, error) {
	reader := buffer.NewReader(body)

	name, err := reader.GetString()
	if err != nil {
		return Backend{}, errors.NewProtocolError(errors.ErrProtocolInvalid, err)
	}

	value, err := reader.GetString()
	if err != nil {
		return Backend{}, errors.NewProtocolError(errors.ErrProtocolInvalid, err)
	}

	if reader.Len() != 0 {
		return Backend{}, errors.NewProtocolError(errors.ErrProtocolInvalid, errUnexpectedBody)
	}

	return Backend{Kind: KindParameterStatus, ParamStatus: ParameterStatus{Name: name, Value: value}}, nil
}

func decodeBackendKeyData(body []byte) (Backend, error) {
	if len(body) != 8 {
		return Backend{}, errors.NewProtocolError(errors.ErrProtocolInvalid, errUnexpectedBody)
	}

	reader := buffer.NewReader(body)
	pid, _ := reader.GetUint32()
	secret, _ := reader.GetUint32()

	return Backend{Kind: KindBackendKeyData, BackendKey: BackendKeyData{ProcessID: pid, SecretKey: secret}}, nil
}

func decodeReadyForQuery(body []byte) (Backend, error) {
	if len(body) != 1 {
		return Backend{}, errors.NewProtocolError(errors.ErrProtocolInvalid, errUnexpectedBody)
	}

	return Backend{Kind: KindReadyForQuery, Ready: ReadyForQuery{Status: TransactionStatus(body[0])}}, nil
}

func decodeRowDescription(body []byte) (Backend, error) {
	reader := buffer.NewReader(body)

	count, err := reader.GetUint16()
	if err != nil {
		return Backend{}, errors.NewProtocolError(errors.ErrProtocolInvalid, err)
	}

	fields := make([]FieldDescription, 0, count)
	for i := uint16(0); i < count; i++ {
		name, err := reader.GetString()
		if err != nil {
			return Backend{}, errors.NewProtocolError(errors.ErrProtocolInvalid, err)
		}

		tableOID, err := reader.GetUint32()
		if err != nil {
			return Backend{}, errors.NewProtocolError(errors.ErrProtocolInvalid, err)
		}

		attr, err := reader.GetUint16()
		if err != nil {
			return Backend{}, errors.NewProtocolError(errors.ErrProtocolInvalid, err)
		}

		typeOID, err := reader.GetUint32()
		if err != nil {
			return Backend{}, errors.NewProtocolError(errors.ErrProtocolInvalid, err)
		}

		size, err := reader.GetInt16()
		if err != nil {
			return Backend{}, errors.NewProtocolError(errors.ErrProtocolInvalid, err)
		}

		modifier, err := reader.GetInt32()
		if err != nil {
			return Backend{}, errors.NewProtocolError(errors.ErrProtocolInvalid, err)
		}

		format, err := reader.GetInt16()
		if err != nil {
			return Backend{}, errors.NewProtocolError(errors.ErrProtocolInvalid, err)
		}

		if format != int16(FormatText) && format != int16(FormatBinary) {
			return Backend{}, errors.NewProtocolError(errors.ErrProtocolInvalid, errBadFormatCode)
		}

		fields = append(fields, FieldDescription{
			Name:         name,
			TableOID:     tableOID,
			ColumnAttr:   attr,
			TypeOID:      oid.Oid(typeOID),
			TypeSize:     size,
			TypeModifier: modifier,
			Format:       Format(format),
		})
	}

	if reader.Len() != 0 {
		return Backend{}, errors.NewProtocolError(errors.ErrProtocolInvalid, errUnexpectedBody)
	}

	return Backend{Kind: KindRowDescription, RowDescription: RowDescription{Fields: fields}}, nil
}

func decodeDataRow(body []byte) (Backend, error) {
	reader := buffer.NewReader(body)

	count, err := reader.GetUint16()
	if err != nil {
		return Backend{}, errors.NewProtocolError(errors.ErrProtocolInvalid, err)
	}

	columns := make([][]byte, 0, count)
	for i := uint16(0); i < count; i++ {
		length, err := reader.GetInt32()
		if err != nil {
			return Backend{}, errors.NewProtocolError(errors.ErrProtocolInvalid, err)
		}

		value, err := reader.GetBytes(int(length))
		if err != nil {
			return Backend{}, errors.NewProtocolError(errors.ErrProtocolInvalid, err)
		}

		columns = append(columns, value)
	}

	if reader.Len() != 0 {
		return Backend{}, errors.NewProtocolError(errors.ErrProtocolInvalid, errUnexpectedBody)
	}

	return Backend{Kind: KindDataRow, DataRow: DataRow{Columns: columns}}, nil
}

func decodeCommandComplete(body []byte) (Backend, error) {
	reader := buffer.NewReader(body)

	tag, err := reader.GetString()
	if err != nil {
		return Backend{}, errors.NewProtocolError(errors.ErrProtocolInvalid, err)
	}

	if reader.Len() != 0 {
		return Backend{}, errors.NewProtocolError(errors.ErrProtocolInvalid, errUnexpectedBody)
	}

	return Backend{Kind: KindCommandComplete, CommandComplete: CommandComplete{Tag: tag}}, nil
}

func decodeErrorResponse(body []byte) (Backend, error) {
	notice, err := ParseNotice(body)
	if err != nil {
		return Backend{}, err
	}

	return Backend{Kind: KindErrorResponse, Notice: notice}, nil
}

func decodeNoticeResponse(body []byte) (Backend, error) {
	notice, err := ParseNotice(body)
	if err != nil {
		return Backend{}, err
	}

	return Backend{Kind: KindNoticeResponse, Notice: notice}, nil
}
