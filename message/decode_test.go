package message

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func frame(identifier byte, body []byte) []byte {
	length := uint32(len(body) + 4)
	f := make([]byte, 0, 5+len(body))
	f = append(f, identifier)
	f = append(f, byte(length>>24), byte(length>>16), byte(length>>8), byte(length))
	f = append(f, body...)
	return f
}

func TestDecodeAuthenticationOk(t *testing.T) {
	msg, err := DecodeBackend(frame('R', []byte{0, 0, 0, 0}))
	require.NoError(t, err)
	require.Equal(t, KindAuthentication, msg.Kind)
	require.Equal(t, AuthOk, msg.Auth.Kind)
}

func TestDecodeAuthenticationMD5(t *testing.T) {
	body := []byte{0, 0, 0, 5, 0xAA, 0xBB, 0xCC, 0xDD}
	msg, err := DecodeBackend(frame('R', body))
	require.NoError(t, err)
	require.Equal(t, AuthMD5, msg.Auth.Kind)
	require.Equal(t, [4]byte{0xAA, 0xBB, 0xCC, 0xDD}, msg.Auth.Salt)
}

func TestDecodeAuthenticationUnknownForwardCompatible(t *testing.T) {
	body := []byte{0, 0, 0, 42}
	msg, err := DecodeBackend(frame('R', body))
	require.NoError(t, err)
	require.Equal(t, AuthUnknown, msg.Auth.Kind)
	require.EqualValues(t, 42, msg.Auth.Code)
}

func TestDecodeAuthenticationOutOfRangeFails(t *testing.T) {
	body := []byte{0, 0, 1, 0} // 256, outside the 10..=255 forward-compat band
	_, err := DecodeBackend(frame('R', body))
	require.Error(t, err)
}

func TestDecodeParameterStatus(t *testing.T) {
	body := append([]byte("client_encoding\x00"), []byte("UTF8\x00")...)
	msg, err := DecodeBackend(frame('S', body))
	require.NoError(t, err)
	require.Equal(t, KindParameterStatus, msg.Kind)
	require.Equal(t, "client_encoding", msg.ParamStatus.Name)
	require.Equal(t, "UTF8", msg.ParamStatus.Value)
}

func TestDecodeBackendKeyData(t *testing.T) {
	body := []byte{0, 0, 0x1, 0x2, 0, 0, 0x3, 0x4}
	msg, err := DecodeBackend(frame('K', body))
	require.NoError(t, err)
	require.EqualValues(t, 0x102, msg.BackendKey.ProcessID)
	require.EqualValues(t, 0x304, msg.BackendKey.SecretKey)
}

func TestDecodeReadyForQuery(t *testing.T) {
	msg, err := DecodeBackend(frame('Z', []byte{'I'}))
	require.NoError(t, err)
	require.Equal(t, KindReadyForQuery, msg.Kind)
	require.Equal(t, TransactionIdle, msg.Ready.Status)
}

// TestRowDescriptionAndDataRow mirrors spec scenario (c): a one-column
// RowDescription named "version" followed by its DataRow and completion.
func TestRowDescriptionAndDataRow(t *testing.T) {
	rowDescBody := []byte{
		0x00, 0x01, // field count
	}
	rowDescBody = append(rowDescBody, []byte("version\x00")...)
	rowDescBody = append(rowDescBody,
		0x00, 0x00, 0x00, 0x00, // table oid
		0x00, 0x00, // attr
		0x00, 0x00, 0x00, 0x19, // type oid (25 = text)
		0xff, 0xff, // type size -1
		0xff, 0xff, 0xff, 0xff, // type modifier -1
		0x00, 0x00, // format text
	)

	msg, err := DecodeBackend(frame('T', rowDescBody))
	require.NoError(t, err)
	require.Len(t, msg.RowDescription.Fields, 1)
	field := msg.RowDescription.Fields[0]
	require.Equal(t, "version", field.Name)
	require.EqualValues(t, 25, field.TypeOID)
	require.Equal(t, FormatText, field.Format)

	version := "PostgreSQL 9.6.1 on x86_64-pc-linux-gnu, compiled by gcc (GCC) 6.2.1 20160830, 64-bit"
	require.Len(t, version, 85)

	dataRowBody := []byte{0x00, 0x01}
	dataRowBody = append(dataRowBody, 0, 0, 0, byte(len(version)))
	dataRowBody = append(dataRowBody, []byte(version)...)

	dataMsg, err := DecodeBackend(frame('D', dataRowBody))
	require.NoError(t, err)
	require.Len(t, dataMsg.DataRow.Columns, 1)
	require.Equal(t, version, string(dataMsg.DataRow.Columns[0]))

	completeMsg, err := DecodeBackend(frame('C', []byte("SELECT 1\x00")))
	require.NoError(t, err)
	require.Equal(t, "SELECT 1", completeMsg.CommandComplete.Tag)
}

func TestDecodeDataRowNullColumn(t *testing.T) {
	body := []byte{0x00, 0x01, 0xff, 0xff, 0xff, 0xff} // 1 column, length -1
	msg, err := DecodeBackend(frame('D', body))
	require.NoError(t, err)
	require.Len(t, msg.DataRow.Columns, 1)
	require.Nil(t, msg.DataRow.Columns[0])
}

func TestDecodeBodilessMessages(t *testing.T) {
	for id, kind := range map[byte]Kind{
		'1': KindParseComplete,
		'2': KindBindComplete,
		'3': KindCloseComplete,
		'n': KindNoData,
		's': KindPortalSuspended,
		'I': KindEmptyQueryResponse,
	} {
		msg, err := DecodeBackend(frame(id, nil))
		require.NoError(t, err)
		require.Equal(t, kind, msg.Kind)
	}
}

func TestDecodeBodilessRejectsNonEmptyBody(t *testing.T) {
	_, err := DecodeBackend(frame('1', []byte{0x01}))
	require.Error(t, err)
}

func TestDecodeUnknownIdentifierDoesNotFail(t *testing.T) {
	msg, err := DecodeBackend(frame('G', []byte{0x00}))
	require.NoError(t, err)
	require.Equal(t, KindUnknown, msg.Kind)
	require.Equal(t, byte('G'), msg.UnknownIdentifier)
	require.Equal(t, []byte{0x00}, msg.UnknownBody)
}

func TestDecodeRowDescriptionRejectsBadLengthMismatch(t *testing.T) {
	// One byte short of a complete field entry.
	body := []byte{0x00, 0x01}
	body = append(body, []byte("x\x00")...)
	body = append(body, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0x19, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x00) // missing last byte
	_, err := DecodeBackend(frame('T', body))
	require.Error(t, err)
}

func TestDecodeErrorResponse(t *testing.T) {
	body := buildNoticeBody(map[byte]string{
		'S': "ERROR",
		'C': "42601",
		'M': "syntax error at or near \"SELEC\"",
	})

	msg, err := DecodeBackend(frame('E', body))
	require.NoError(t, err)
	require.Equal(t, KindErrorResponse, msg.Kind)
	require.Equal(t, "42601", msg.Notice.Code)
	require.Contains(t, msg.Notice.Message, "syntax error")
}

func buildNoticeBody(fields map[byte]string) []byte {
	order := []byte{'S', 'V', 'C', 'M', 'D', 'H', 'P', 'p', 'q'}
	var body []byte
	for _, tag := range order {
		if v, ok := fields[tag]; ok {
			body = append(body, tag)
			body = append(body, []byte(v)...)
			body = append(body, 0)
		}
	}
	body = append(body, 0)
	return body
}
