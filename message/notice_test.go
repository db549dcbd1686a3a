package message

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseNoticeRequiresMessageAndCode(t *testing.T) {
	body := buildNoticeBody(map[byte]string{"S"[0]: "ERROR"})
	_, err := ParseNotice(body)
	require.Error(t, err)
}

func TestParseNoticeRequiresSeverity(t *testing.T) {
	body := buildNoticeBody(map[byte]string{'C': "42601", 'M': "boom"})
	_, err := ParseNotice(body)
	require.Error(t, err)
}

func TestParseNoticeAcceptsVOverS(t *testing.T) {
	body := buildNoticeBody(map[byte]string{'S': "FEHLER", 'V': "ERROR", 'C': "42601", 'M': "boom"})
	notice, err := ParseNotice(body)
	require.NoError(t, err)
	require.Equal(t, SeverityError, notice.Severity)
}

func TestParseNoticeUnknownTagPreserved(t *testing.T) {
	body := []byte{}
	body = append(body, 'S')
	body = append(body, []byte("ERROR\x00")...)
	body = append(body, 'C')
	body = append(body, []byte("42601\x00")...)
	body = append(body, 'M')
	body = append(body, []byte("boom\x00")...)
	body = append(body, 'Z') // unrecognized tag
	body = append(body, []byte("extra\x00")...)
	body = append(body, 0)

	notice, err := ParseNotice(body)
	require.NoError(t, err)
	require.Len(t, notice.Extra, 1)
	require.Equal(t, byte('Z'), notice.Extra[0].Tag)
	require.Equal(t, "extra", notice.Extra[0].Value)
}

func TestParseNoticeRejectsTrailingBytes(t *testing.T) {
	body := buildNoticeBody(map[byte]string{'S': "ERROR", 'C': "42601", 'M': "boom"})
	body = append(body, 0x01) // trailing byte after the zero terminator
	_, err := ParseNotice(body)
	require.Error(t, err)
}

func TestParseNoticeInternalPosition(t *testing.T) {
	body := []byte{}
	body = append(body, 'S')
	body = append(body, []byte("ERROR\x00")...)
	body = append(body, 'C')
	body = append(body, []byte("42601\x00")...)
	body = append(body, 'M')
	body = append(body, []byte("boom\x00")...)
	body = append(body, 'p')
	body = append(body, []byte("7\x00")...)
	body = append(body, 'q')
	body = append(body, []byte("SELECT $1\x00")...)
	body = append(body, 0)

	notice, err := ParseNotice(body)
	require.NoError(t, err)
	require.NotNil(t, notice.Position)
	require.True(t, notice.Position.Internal)
	require.Equal(t, 7, notice.Position.Position)
	require.Equal(t, "SELECT $1", notice.Position.Query)
}

func TestParseNoticeMalformedPositionFails(t *testing.T) {
	body := []byte{}
	body = append(body, 'S')
	body = append(body, []byte("ERROR\x00")...)
	body = append(body, 'C')
	body = append(body, []byte("42601\x00")...)
	body = append(body, 'M')
	body = append(body, []byte("boom\x00")...)
	body = append(body, 'P')
	body = append(body, []byte("not-a-number\x00")...)
	body = append(body, 0)

	_, err := ParseNotice(body)
	require.Error(t, err)
}
