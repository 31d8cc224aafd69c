package hdlc

import (
	"bufio"
	"io"
)

// DefaultMaxFrameSize bounds the raw frame length Reader will buffer.
const DefaultMaxFrameSize = 1024

// Reader extracts frames from a byte stream.
//
// Bytes before the first Flag are discarded and consecutive Flags collapse
// into a single boundary, so the empty gaps between back to back frames are
// never returned. Each frame must carry its own opening Flag: after a closing
// Flag, bytes up to the next Flag are discarded, so a stream that shares one
// Flag between frames (7E 01 7E 02 7E) loses every second frame. A partially
// collected frame survives read errors such as timeouts; the next call
// continues where the previous one stopped.
type Reader struct {
	r       *bufio.Reader
	max     int
	buf     []byte
	inFrame bool
	skipped int
}

// NewReader returns a Reader that rejects frames longer than maxFrameSize
// bytes, flags included. A non-positive maxFrameSize selects
// DefaultMaxFrameSize.
func NewReader(r io.Reader, maxFrameSize int) *Reader {
	if maxFrameSize <= 0 {
		maxFrameSize = DefaultMaxFrameSize
	}
	if maxFrameSize < 2 {
		maxFrameSize = 2
	}
	return &Reader{
		r:   bufio.NewReader(r),
		max: maxFrameSize,
		buf: make([]byte, 0, 64),
	}
}

// ReadFrame returns the next raw frame, Flag delimiters included. The
// returned slice is owned by the caller.
//
// ErrFrameTooLong drops the oversized frame; the following call
// resynchronises on the next Flag. io.ErrUnexpectedEOF is returned together
// with the partial frame when the stream ends mid-frame.
func (r *Reader) ReadFrame() ([]byte, error) {
	for {
		b, err := r.r.ReadByte()
		if err != nil {
			if err == io.EOF && r.inFrame && len(r.buf) > 1 {
				frame := r.take()
				return frame, io.ErrUnexpectedEOF
			}
			return nil, err
		}

		if !r.inFrame {
			if b == Flag {
				r.inFrame = true
				r.buf = append(r.buf[:0], Flag)
			} else {
				r.skipped++
			}
			continue
		}

		if b == Flag {
			if len(r.buf) == 1 {
				// Flag right after Flag: treat as the opening one.
				continue
			}
			r.buf = append(r.buf, Flag)
			return r.take(), nil
		}

		if len(r.buf)+1 >= r.max {
			// No room left for the closing Flag.
			r.skipped += len(r.buf) + 1
			r.inFrame = false
			r.buf = r.buf[:0]
			return nil, ErrFrameTooLong
		}
		r.buf = append(r.buf, b)
	}
}

// ReadPayload reads the next frame and decodes it. Framing errors from
// Decode are returned as is; the stream stays usable afterwards.
func (r *Reader) ReadPayload() ([]byte, error) {
	frame, err := r.ReadFrame()
	if err != nil {
		if err == io.ErrUnexpectedEOF {
			if _, derr := Decode(frame); derr != nil {
				return nil, derr
			}
		}
		return nil, err
	}
	return Decode(frame)
}

// Skipped returns the number of bytes discarded so far outside of frames,
// including bytes of dropped oversized frames.
func (r *Reader) Skipped() int {
	return r.skipped
}

func (r *Reader) take() []byte {
	frame := make([]byte, len(r.buf))
	copy(frame, r.buf)
	r.buf = r.buf[:0]
	r.inFrame = false
	return frame
}
