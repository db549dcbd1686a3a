package message

import (
	"github.com/pgwire/pgwire/pkg/buffer"
	"github.com/pgwire/pgwire/pkg/types"
)

// Parameter is one bound value for an extended-query Bind message: its wire
// format (text/binary) plus the raw encoded bytes, or a nil Value for NULL.
type Parameter struct {
	Format Format
	Value  []byte
}

// EncodeStartupMessage builds the untyped StartupMessage that opens a
// connection: protocol version, then "user" and (optionally) "database" and
// any extra key/value pairs, terminated by a single NUL (spec §4.4).
func EncodeStartupMessage(writer *buffer.Writer, user, database string, extra map[string]string) error {
	writer.StartUntyped()
	writer.AddInt32(int32(types.Version30))

	writer.AddString("user")
	writer.AddNullTerminate()
	writer.AddString(user)
	writer.AddNullTerminate()

	if database != "" {
		writer.AddString("database")
		writer.AddNullTerminate()
		writer.AddString(database)
		writer.AddNullTerminate()
	}

	for k, v := range extra {
		writer.AddString(k)
		writer.AddNullTerminate()
		writer.AddString(v)
		writer.AddNullTerminate()
	}

	writer.AddByte(0)
	return writer.End()
}

// EncodePasswordMessage builds a PasswordMessage ('p') carrying the given
// cleartext password or MD5 hash verbatim.
func EncodePasswordMessage(writer *buffer.Writer, hash string) error {
	writer.Start(types.ClientPassword)
	writer.AddString(hash)
	writer.AddNullTerminate()
	return writer.End()
}

// EncodeQuery builds a simple-query ('Q') message.
func EncodeQuery(writer *buffer.Writer, sql string) error {
	writer.Start(types.ClientSimpleQuery)
	writer.AddString(sql)
	writer.AddNullTerminate()
	return writer.End()
}

// EncodeParse builds a Parse ('P') message naming param_oids as the types
// of the statement's positional parameters (0 lets the server infer a type).
func EncodeParse(writer *buffer.Writer, name, sql string, paramOIDs []uint32) error {
	writer.Start(types.ClientParse)
	writer.AddString(name)
	writer.AddNullTerminate()
	writer.AddString(sql)
	writer.AddNullTerminate()
	writer.AddInt16(int16(len(paramOIDs)))
	for _, oid := range paramOIDs {
		writer.AddInt32(int32(oid))
	}
	return writer.End()
}

// EncodeBind builds a Bind ('B') message binding statement to portal with
// the given parameters and requested result column formats.
func EncodeBind(writer *buffer.Writer, portal, statement string, params []Parameter, resultFormats []Format) error {
	writer.Start(types.ClientBind)
	writer.AddString(portal)
	writer.AddNullTerminate()
	writer.AddString(statement)
	writer.AddNullTerminate()

	writer.AddInt16(int16(len(params)))
	for _, p := range params {
		writer.AddInt16(int16(p.Format))
	}

	writer.AddInt16(int16(len(params)))
	for _, p := range params {
		if p.Value == nil {
			writer.AddInt32(-1)
			continue
		}
		writer.AddInt32(int32(len(p.Value)))
		writer.AddBytes(p.Value)
	}

	writer.AddInt16(int16(len(resultFormats)))
	for _, f := range resultFormats {
		writer.AddInt16(int16(f))
	}

	return writer.End()
}

// EncodeExecute builds an Execute ('E') message. maxRows of 0 requests all
// remaining rows from the portal.
func EncodeExecute(writer *buffer.Writer, portal string, maxRows uint32) error {
	writer.Start(types.ClientExecute)
	writer.AddString(portal)
	writer.AddNullTerminate()
	writer.AddInt32(int32(maxRows))
	return writer.End()
}

// EncodeSync builds an empty-body Sync ('S') message.
func EncodeSync(writer *buffer.Writer) error {
	writer.Start(types.ClientSync)
	return writer.End()
}

// EncodeClose builds a Close ('C') message for a prepared statement (kind ==
// PrepareStatement) or a portal (kind == PreparePortal).
func EncodeClose(writer *buffer.Writer, kind buffer.PrepareType, name string) error {
	writer.Start(types.ClientClose)
	writer.AddByte(byte(kind))
	writer.AddString(name)
	writer.AddNullTerminate()
	return writer.End()
}

// EncodeTerminate builds an empty-body Terminate ('X') message.
func EncodeTerminate(writer *buffer.Writer) error {
	writer.Start(types.ClientTerminate)
	return writer.End()
}
