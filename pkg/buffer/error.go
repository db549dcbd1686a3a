package buffer

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/pgwire/pgwire/codes"
	pgwireerr "github.com/pgwire/pgwire/errors"
)

// ErrMissingNulTerminator is thrown when no NUL terminator is found while
// decoding a message field as a string.
var ErrMissingNulTerminator = errors.New("NUL terminator not found")

// NewMissingNulTerminator constructs an error wrapping ErrMissingNulTerminator
// with additional metadata.
func NewMissingNulTerminator() error {
	return pgwireerr.WithSeverity(pgwireerr.WithCode(ErrMissingNulTerminator, codes.DataCorrupted), pgwireerr.LevelFatal)
}

// ErrInsufficientData is thrown when a frame body does not contain enough
// bytes to decode the requested field.
var ErrInsufficientData = errors.New("insufficient data")

// NewInsufficientData constructs an error wrapping ErrInsufficientData with
// additional metadata.
func NewInsufficientData(length int) error {
	err := fmt.Errorf("length: %d %w", length, ErrInsufficientData)
	return pgwireerr.WithSeverity(pgwireerr.WithCode(err, codes.DataCorrupted), pgwireerr.LevelFatal)
}

// ErrMessageSizeExceeded describes a frame whose body is larger than a
// maximum message size. Framer and Reader impose no maximum and never return
// it; NewMessageSizeExceeded builds one for callers that enforce a limit.
var ErrMessageSizeExceeded = MessageSizeExceeded{Message: "maximum message size exceeded"}

// MessageSizeExceeded carries the offending and maximum message sizes.
type MessageSizeExceeded struct {
	Message string
	Size    int
	Max     int
}

func (err MessageSizeExceeded) Error() string { return err.Message }

func (err MessageSizeExceeded) Is(target error) bool {
	return reflect.TypeOf(target) == reflect.TypeOf(err)
}

// NewMessageSizeExceeded constructs an error wrapping MessageSizeExceeded
// with additional metadata.
func NewMessageSizeExceeded(max, size int) error {
	err := MessageSizeExceeded{
		Message: fmt.Sprintf("message size %d, bigger than maximum allowed message size %d", size, max),
		Size:    size,
		Max:     max,
	}

	return pgwireerr.WithSeverity(pgwireerr.WithCode(err, codes.ProgramLimitExceeded), pgwireerr.LevelError)
}

// UnwrapMessageSizeExceeded attempts to unwrap the given error as
// MessageSizeExceeded, reporting whether one was found.
func UnwrapMessageSizeExceeded(err error) (result MessageSizeExceeded, _ bool) {
	return result, errors.As(err, &result)
}
