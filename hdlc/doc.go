// Package hdlc implements the Sensirion flavour of HDLC byte stuffing.
//
// A frame is the payload wrapped in Flag bytes, with every Flag or Escape
// byte inside the payload replaced by Escape followed by the byte XOR 0x20:
//
//	Frame        ::= Flag byte* Flag
//	byte         ::= normal_byte | Escape escaped_byte
//	escaped_byte ::= original_byte ^ 0x20   (original_byte is Flag or Escape)
//
// Encode and Decode are pure functions and safe for concurrent use. Reader
// adds stream framing on top of an io.Reader for transport code.
package hdlc
