package buffer

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/pgwire/pgwire/pkg/types"
	"github.com/stretchr/testify/require"
)

func TestWriterRoundTrip(t *testing.T) {
	var dst bytes.Buffer
	writer := NewWriter(slog.Default(), &dst)

	writer.Start(types.ClientSimpleQuery)
	writer.AddString("SELECT 1")
	writer.AddNullTerminate()
	require.NoError(t, writer.End())

	out := dst.Bytes()
	require.Equal(t, byte(types.ClientSimpleQuery), out[0])

	var framer Framer
	frame, rest, ok := framer.Next(out)
	require.True(t, ok)
	require.Empty(t, rest)

	reader := NewReader(frame[5:])
	query, err := reader.GetString()
	require.NoError(t, err)
	require.Equal(t, "SELECT 1", query)
	require.Zero(t, reader.Len())
}

func TestWriterStartupMessageIsUntyped(t *testing.T) {
	var dst bytes.Buffer
	writer := NewWriter(slog.Default(), &dst)

	writer.StartUntyped()
	writer.AddInt32(int32(types.Version30))
	writer.AddString("user")
	writer.AddNullTerminate()
	writer.AddString("alice")
	writer.AddNullTerminate()
	writer.AddByte(0)
	require.NoError(t, writer.End())

	out := dst.Bytes()
	length := uint32(out[0])<<24 | uint32(out[1])<<16 | uint32(out[2])<<8 | uint32(out[3])
	require.EqualValues(t, len(out), length)
}

func TestWriterTerminateFrame(t *testing.T) {
	var dst bytes.Buffer
	writer := NewWriter(slog.Default(), &dst)

	writer.Start(types.ClientTerminate)
	require.NoError(t, writer.End())

	require.Equal(t, []byte{'X', 0, 0, 0, 4}, dst.Bytes())
}
