package hdlc

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingStartFlag is returned for empty input or input that does
	// not begin with Flag.
	ErrMissingStartFlag = errors.New("hdlc: missing start flag")
	// ErrMissingEndFlag is returned when the input does not end with Flag
	// or is shorter than the two byte empty frame.
	ErrMissingEndFlag = errors.New("hdlc: missing end flag")
	// ErrUnexpectedFlag is returned for an unescaped Flag before the
	// terminating one.
	ErrUnexpectedFlag = errors.New("hdlc: unexpected flag in payload")
	// ErrInvalidEscape is returned when Escape is followed by another
	// Escape or by a byte that does not unescape to Flag or Escape.
	ErrInvalidEscape = errors.New("hdlc: invalid escape sequence")
	// ErrTruncatedEscape is returned when the frame ends right after an
	// Escape byte.
	ErrTruncatedEscape = errors.New("hdlc: truncated escape sequence")

	// ErrFrameTooLong is returned by Reader when a frame grows past the
	// configured maximum size.
	ErrFrameTooLong = errors.New("hdlc: frame too long")
)

// FrameError describes why a frame was rejected. Err is one of the
// package sentinel errors and Offset is the index into the frame of the
// offending byte.
type FrameError struct {
	Err    error
	Offset int
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("%v at offset %d", e.Err, e.Offset)
}

func (e *FrameError) Unwrap() error {
	return e.Err
}

func frameError(err error, offset int) error {
	return &FrameError{Err: err, Offset: offset}
}

// Kind returns a short stable name for the rejection class of err, or
// "unknown" when err is not a framing error.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrMissingStartFlag):
		return "missing_start_flag"
	case errors.Is(err, ErrMissingEndFlag):
		return "missing_end_flag"
	case errors.Is(err, ErrUnexpectedFlag):
		return "unexpected_flag"
	case errors.Is(err, ErrInvalidEscape):
		return "invalid_escape"
	case errors.Is(err, ErrTruncatedEscape):
		return "truncated_escape"
	case errors.Is(err, ErrFrameTooLong):
		return "frame_too_long"
	default:
		return "unknown"
	}
}
