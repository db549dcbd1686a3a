package message

import (
	"crypto/md5"
	"encoding/hex"
)

// EncodeMD5Password computes the PasswordMessage hash for MD5 challenge
// authentication (spec §4.6):
//
//	"md5" + hex(md5(hex(md5(password+user)) + salt))
//
// User and password bytes are passed through unchanged; neither is assumed
// to be ASCII.
func EncodeMD5Password(user, password string, salt [4]byte) string {
	inner := md5.Sum([]byte(password + user))
	innerHex := hex.EncodeToString(inner[:])

	outer := md5.New()
	outer.Write([]byte(innerHex))
	outer.Write(salt[:])

	return "md5" + hex.EncodeToString(outer.Sum(nil))
}
