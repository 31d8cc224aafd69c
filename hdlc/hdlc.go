package hdlc

const (
	Flag      = 0x7E
	Escape    = 0x7D
	EscapeXor = 0x20
)

// NeedsEscape reports whether b must be escaped inside a frame.
func NeedsEscape(b byte) bool {
	return b == Flag || b == Escape
}

// EncodedLen returns the length of the frame Encode produces for payload.
func EncodedLen(payload []byte) int {
	n := len(payload) + 2
	for _, b := range payload {
		if NeedsEscape(b) {
			n++
		}
	}
	return n
}

// Encode wraps payload in a frame.
// Adds Flag at start and end, escapes reserved bytes.
func Encode(payload []byte) []byte {
	return AppendEncode(make([]byte, 0, EncodedLen(payload)), payload)
}

// AppendEncode appends the frame for payload to dst and returns the
// extended buffer.
func AppendEncode(dst, payload []byte) []byte {
	dst = append(dst, Flag)
	for _, b := range payload {
		if NeedsEscape(b) {
			dst = append(dst, Escape, b^EscapeXor)
			continue
		}
		dst = append(dst, b)
	}
	return append(dst, Flag)
}
