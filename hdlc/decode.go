package hdlc

type decodeState int

const (
	stateNormal decodeState = iota
	stateEscapePending
)

// Decode extracts the payload from a frame.
// The input is never modified. On failure the payload is nil and the
// error is a *FrameError wrapping one of the Err* sentinels.
func Decode(frame []byte) ([]byte, error) {
	if len(frame) == 0 || frame[0] != Flag {
		return nil, frameError(ErrMissingStartFlag, 0)
	}
	last := len(frame) - 1
	if last < 1 || frame[last] != Flag {
		return nil, frameError(ErrMissingEndFlag, last)
	}

	payload := make([]byte, 0, last-1)
	state := stateNormal

	for i := 1; i < last; i++ {
		b := frame[i]
		switch state {
		case stateNormal:
			switch b {
			case Escape:
				state = stateEscapePending
			case Flag:
				return nil, frameError(ErrUnexpectedFlag, i)
			default:
				payload = append(payload, b)
			}
		case stateEscapePending:
			// A second Escape lands here too: 0x7D^0x20 is not reserved.
			orig := b ^ EscapeXor
			if !NeedsEscape(orig) {
				return nil, frameError(ErrInvalidEscape, i)
			}
			payload = append(payload, orig)
			state = stateNormal
		}
	}

	if state == stateEscapePending {
		return nil, frameError(ErrTruncatedEscape, last)
	}
	return payload, nil
}
