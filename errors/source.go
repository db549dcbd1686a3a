package errors

import (
	"errors"
	"runtime"
)

// CaptureSource returns the file, line and function name of the caller of
// the function that calls CaptureSource (skip=0 names that function's own
// caller). Used by the IO/Protocol/Auth constructors below to attach a
// Go-side source location to an error, distinct from ServerError.Source
// (which names a position inside the *backend*, reported by the wire
// protocol's F/L/R notice fields).
func CaptureSource(skip int) (file string, line int32, function string) {
	pc, f, l, ok := runtime.Caller(skip + 2)
	if !ok {
		return "", 0, ""
	}

	file, line = f, int32(l)
	if fn := runtime.FuncForPC(pc); fn != nil {
		function = fn.Name()
	}

	return file, line, function
}

// WithSource decorates the error with the source location that detected it
func WithSource(err error, file string, line int32, function string) error {
	if err == nil {
		return nil
	}

	return &withSource{cause: err, file: file, line: line, function: function}
}

// GetSource returns the Postgres source inside the given error. If no source
// is found nil is returned.
func GetSource(err error) *Source {
	if s, ok := err.(*withSource); ok {
		return &Source{File: s.file, Line: s.line, Function: s.function}
	}

	if n := errors.Unwrap(err); n != nil {
		return GetSource(n)
	}

	return nil
}

type withSource struct {
	cause    error
	file     string
	line     int32
	function string
}

func (w *withSource) Error() string { return w.cause.Error() }
func (w *withSource) Unwrap() error { return w.cause }
