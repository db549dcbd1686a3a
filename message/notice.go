package message

import (
	baseerrors "errors"
	"strconv"

	"github.com/pgwire/pgwire/errors"
	"github.com/pgwire/pgwire/pkg/buffer"
)

var (
	errProtocolTrailingBytes      = baseerrors.New("notice body has trailing bytes after terminator")
	errNoticeMissingRequiredField = baseerrors.New("notice body missing required M/C or S/V field")
)

// Severity is the parsed value of a NoticeBody's 'V' (preferred) or 'S'
// field. An unrecognized spelling decodes to SeverityNone rather than
// failing — the raw string survives in NoticeBody.SeverityRaw/SeverityLocalized.
type Severity string

const (
	SeverityNone    Severity = ""
	SeverityError   Severity = "ERROR"
	SeverityFatal   Severity = "FATAL"
	SeverityPanic   Severity = "PANIC"
	SeverityWarning Severity = "WARNING"
	SeverityNotice  Severity = "NOTICE"
	SeverityDebug   Severity = "DEBUG"
	SeverityInfo    Severity = "INFO"
	SeverityLog     Severity = "LOG"
)

func parseSeverity(s string) Severity {
	switch Severity(s) {
	case SeverityError, SeverityFatal, SeverityPanic, SeverityWarning,
		SeverityNotice, SeverityDebug, SeverityInfo, SeverityLog:
		return Severity(s)
	default:
		return SeverityNone
	}
}

// Position locates the error within the submitted query text: Public when
// only a top-level cursor position (field 'P') is present, Internal when an
// internally generated query is implicated (fields 'p' + optional 'q').
type Position struct {
	Public   int
	Internal bool
	Position int
	Query    string
}

// NoticeBody is the parsed tag→value body shared by ErrorResponse and
// NoticeResponse (spec §4.5). Known tags are promoted to named fields; tags
// this module does not recognize survive in Extra in encounter order.
type NoticeBody struct {
	SeverityLocalized string
	SeverityRaw       string
	Severity          Severity
	Code              string
	Message           string
	Detail            string
	Hint              string
	Position          *Position
	InternalQuery     string
	// ConstraintName, SourceFile, SourceLine and SourceRoutine are the
	// backend-side facets of spec §4.5's tagged field set ('n', 'F', 'L',
	// 'R'): the constraint a row violated, and where inside the server the
	// error originated. Both are zero-valued when the backend omits them,
	// which it does for most non-constraint errors and in production
	// builds that strip debug symbols.
	ConstraintName string
	SourceFile     string
	SourceLine     int32
	SourceRoutine  string
	Extra          []NoticeField
}

// NoticeField is an (tag, value) pair for a tag this module does not assign
// a named slot to.
type NoticeField struct {
	Tag   byte
	Value string
}

// ParseNotice parses the tagged-field body shared by ErrorResponse and
// NoticeResponse (spec §4.5): a sequence of tag:u8 value\0 pairs terminated
// by a zero tag byte, with no trailing bytes permitted after the terminator.
func ParseNotice(body []byte) (NoticeBody, error) {
	var (
		notice   NoticeBody
		reader   = buffer.NewReader(body)
		hasP     bool
		hasSVI   bool // at least one of S/V present
		position int
		internal bool
		query    string
	)

	for {
		tag, err := reader.GetByte()
		if err != nil {
			return NoticeBody{}, errors.NewProtocolError(errors.ErrProtocolTruncated, err)
		}

		if tag == 0 {
			break
		}

		value, err := reader.GetString()
		if err != nil {
			return NoticeBody{}, errors.NewProtocolError(errors.ErrProtocolInvalid, err)
		}

		switch tag {
		case byte(buffer.NoticeFieldSeverityLocalized):
			notice.SeverityLocalized = value
			hasSVI = true
		case byte(buffer.NoticeFieldSeverity):
			notice.SeverityRaw = value
			notice.Severity = parseSeverity(value)
			hasSVI = true
		case byte(buffer.NoticeFieldCode):
			notice.Code = value
		case byte(buffer.NoticeFieldMessage):
			notice.Message = value
		case byte(buffer.NoticeFieldDetail):
			notice.Detail = value
		case byte(buffer.NoticeFieldHint):
			notice.Hint = value
		case byte(buffer.NoticeFieldPosition):
			n, err := strconv.Atoi(value)
			if err != nil {
				return NoticeBody{}, errors.NewProtocolError(errors.ErrProtocolParseInt, err)
			}
			position = n
			hasP = true
		case byte(buffer.NoticeFieldInternalPosition):
			n, err := strconv.Atoi(value)
			if err != nil {
				return NoticeBody{}, errors.NewProtocolError(errors.ErrProtocolParseInt, err)
			}
			position = n
			internal = true
			hasP = true
		case byte(buffer.NoticeFieldInternalQuery):
			query = value
			notice.InternalQuery = value
		case byte(buffer.NoticeFieldConstraintName):
			notice.ConstraintName = value
		case byte(buffer.NoticeFieldSourceFile):
			notice.SourceFile = value
		case byte(buffer.NoticeFieldSourceLine):
			n, err := strconv.Atoi(value)
			if err != nil {
				return NoticeBody{}, errors.NewProtocolError(errors.ErrProtocolParseInt, err)
			}
			notice.SourceLine = int32(n)
		case byte(buffer.NoticeFieldSourceRoutine):
			notice.SourceRoutine = value
		default:
			notice.Extra = append(notice.Extra, NoticeField{Tag: tag, Value: value})
		}
	}

	if reader.Len() != 0 {
		return NoticeBody{}, errors.NewProtocolError(errors.ErrProtocolInvalid, errProtocolTrailingBytes)
	}

	if notice.Message == "" || notice.Code == "" || !hasSVI {
		return NoticeBody{}, errors.NewProtocolError(errors.ErrProtocolInvalid, errNoticeMissingRequiredField)
	}

	if notice.SeverityRaw == "" {
		notice.Severity = parseSeverity(notice.SeverityLocalized)
	}

	if hasP {
		notice.Position = &Position{Internal: internal, Position: position}
		if internal {
			notice.Position.Query = query
		} else {
			notice.Position.Public = position
		}
	}

	return notice, nil
}
