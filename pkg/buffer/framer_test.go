package buffer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFramerSplit(t *testing.T) {
	input := []byte{
		0x45, 0x00, 0x00, 0x00, 0x05, 0x01,
		0x48, 0x00, 0x00, 0x00, 0x0C, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08,
	}

	var framer Framer

	first, rest, ok := framer.Next(input)
	require.True(t, ok)
	require.Len(t, first, 6)
	require.Equal(t, byte(0x45), first[0])

	second, rest, ok := framer.Next(rest)
	require.True(t, ok)
	require.Len(t, second, 13)
	require.Equal(t, byte(0x48), second[0])
	require.Empty(t, rest)
}

func TestFramerNeedsMoreData(t *testing.T) {
	var framer Framer

	for _, buf := range [][]byte{
		nil,
		{0x45},
		{0x45, 0x00, 0x00, 0x00},
		{0x45, 0x00, 0x00, 0x00, 0x05},
		{0x45, 0x00, 0x00, 0x00, 0x06, 0x01},
	} {
		frame, rest, ok := framer.Next(buf)
		require.False(t, ok)
		require.Nil(t, frame)
		require.Equal(t, buf, rest)
	}
}

func TestFramerNeverConsumesPartialFrame(t *testing.T) {
	full := []byte{0x45, 0x00, 0x00, 0x00, 0x05, 0x01}

	var framer Framer
	for n := 0; n < len(full); n++ {
		frame, rest, ok := framer.Next(full[:n])
		require.False(t, ok, "prefix of length %d must not yield a complete frame", n)
		require.Nil(t, frame)
		require.Equal(t, full[:n], rest)
	}

	frame, rest, ok := framer.Next(full)
	require.True(t, ok)
	require.Equal(t, full, frame)
	require.Empty(t, rest)
}
