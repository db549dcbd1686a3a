package message

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestEncodeMD5Password mirrors spec scenario (d) exactly.
func TestEncodeMD5Password(t *testing.T) {
	salt := [4]byte{0xAA, 0xBB, 0xCC, 0xDD}
	hash := EncodeMD5Password("u", "p", salt)

	require.Len(t, hash, 35)
	require.Regexp(t, "^md5[0-9a-f]{32}$", hash)
}

func TestEncodeMD5PasswordIsStable(t *testing.T) {
	salt := [4]byte{0xAA, 0xBB, 0xCC, 0xDD}
	require.Equal(t, EncodeMD5Password("u", "p", salt), EncodeMD5Password("u", "p", salt))
}

func TestEncodeMD5PasswordDiffersBySalt(t *testing.T) {
	a := EncodeMD5Password("u", "p", [4]byte{0, 0, 0, 0})
	b := EncodeMD5Password("u", "p", [4]byte{1, 0, 0, 0})
	require.NotEqual(t, a, b)
}
