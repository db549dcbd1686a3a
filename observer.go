package pgwire

import "github.com/pgwire/pgwire/message"

// NoticeEvent is the payload delivered to a NoticeObserver: the parsed
// fields of a NoticeResponse the server sent, whether during startup or
// while a request is in flight (spec.md §3: "ParameterStatus and
// NoticeResponse may arrive at any time after AwaitingAuth").
type NoticeEvent struct {
	Severity message.Severity
	Code     string
	Message  string
	Detail   string
	Hint     string
}

func noticeEventFromBody(body message.NoticeBody) NoticeEvent {
	return NoticeEvent{
		Severity: body.Severity,
		Code:     body.Code,
		Message:  body.Message,
		Detail:   body.Detail,
		Hint:     body.Hint,
	}
}
