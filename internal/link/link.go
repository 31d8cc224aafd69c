package link

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"

	"github.com/iohe/sensirion-hdlc/hdlc"
)

// Stats counts link traffic.
type Stats struct {
	Sent     int
	Received int
	Skipped  int
	Dropped  map[string]int
}

// DroppedTotal returns the number of rejected frames over all kinds.
func (s Stats) DroppedTotal() int {
	total := 0
	for _, n := range s.Dropped {
		total += n
	}
	return total
}

// Link exchanges framed payloads over a byte transport.
//
// Malformed frames are counted, logged and skipped; the reader
// resynchronises on the next flag. Nothing is retried or re-requested.
// Send and Receive may run on different goroutines, but only one goroutine
// may receive at a time.
type Link struct {
	rw     io.ReadWriter
	reader *hdlc.Reader
	log    zerolog.Logger

	wmu sync.Mutex
	mu  sync.Mutex
	st  Stats
}

// New creates a Link on rw. maxFrameSize bounds received frames; zero
// selects hdlc.DefaultMaxFrameSize.
func New(rw io.ReadWriter, logger zerolog.Logger, maxFrameSize int) *Link {
	return &Link{
		rw:     rw,
		reader: hdlc.NewReader(rw, maxFrameSize),
		log:    logger,
		st:     Stats{Dropped: make(map[string]int)},
	}
}

// Send encodes payload and writes the frame.
// An empty payload is written as 7E 7E, which the receiving side treats as
// idle flags, so empty payloads never arrive through Receive.
func (l *Link) Send(payload []byte) error {
	frame := hdlc.Encode(payload)

	l.wmu.Lock()
	_, err := l.rw.Write(frame)
	l.wmu.Unlock()
	if err != nil {
		return fmt.Errorf("write frame: %w", err)
	}

	l.mu.Lock()
	l.st.Sent++
	l.mu.Unlock()

	l.log.Debug().Int("payload_len", len(payload)).Hex("frame", frame).Msg("frame sent")
	return nil
}

// Receive returns the next well-formed, non-empty payload. Read timeouts
// from the transport are absorbed; ctx is checked between reads, so the
// wait is bounded by ctx plus one transport read timeout.
func (l *Link) Receive(ctx context.Context) ([]byte, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		payload, err := l.reader.ReadPayload()
		switch {
		case err == nil:
			l.mu.Lock()
			l.st.Received++
			l.st.Skipped = l.reader.Skipped()
			l.mu.Unlock()
			l.log.Debug().Int("payload_len", len(payload)).Msg("frame received")
			return payload, nil
		case errors.Is(err, os.ErrDeadlineExceeded):
			continue
		case isFramingError(err):
			kind := hdlc.Kind(err)
			l.mu.Lock()
			l.st.Dropped[kind]++
			l.st.Skipped = l.reader.Skipped()
			l.mu.Unlock()
			l.log.Warn().Err(err).Str("kind", kind).Msg("dropped malformed frame")
			continue
		default:
			return nil, err
		}
	}
}

// Transact sends payload and waits for the next reply.
func (l *Link) Transact(ctx context.Context, payload []byte) ([]byte, error) {
	if err := l.Send(payload); err != nil {
		return nil, err
	}
	reply, err := l.Receive(ctx)
	if err != nil {
		return nil, fmt.Errorf("waiting for reply: %w", err)
	}
	return reply, nil
}

// Monitor calls fn for every payload until ctx is done, the transport
// reports EOF, or fn returns an error. EOF and cancellation end the
// monitor without error.
func (l *Link) Monitor(ctx context.Context, fn func(payload []byte) error) error {
	for {
		payload, err := l.Receive(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		if err := fn(payload); err != nil {
			return err
		}
	}
}

// Stats returns a snapshot of the link counters.
func (l *Link) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()

	st := l.st
	st.Dropped = make(map[string]int, len(l.st.Dropped))
	for k, v := range l.st.Dropped {
		st.Dropped[k] = v
	}
	return st
}

func isFramingError(err error) bool {
	var fe *hdlc.FrameError
	return errors.As(err, &fe) || errors.Is(err, hdlc.ErrFrameTooLong)
}
