package hdlc_test

import (
	"bytes"
	"testing"

	"github.com/iohe/sensirion-hdlc/hdlc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// payloadGen leans on reserved bytes so escaping paths are hit often.
var payloadGen = rapid.SliceOf(rapid.OneOf(
	rapid.Byte(),
	rapid.SampledFrom([]byte{hdlc.Flag, hdlc.Escape, 0x5E, 0x5D}),
))

func TestRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		payload := payloadGen.Draw(t, "payload")
		decoded, err := hdlc.Decode(hdlc.Encode(payload))
		require.NoError(t, err)
		assert.Equal(t, len(payload), len(decoded))
		assert.True(t, bytes.Equal(payload, decoded), "decoded %X, want %X", decoded, payload)
	})
}

func TestFrameShape(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		payload := payloadGen.Draw(t, "payload")
		frame := hdlc.Encode(payload)

		require.GreaterOrEqual(t, len(frame), 2)
		assert.Equal(t, byte(hdlc.Flag), frame[0])
		assert.Equal(t, byte(hdlc.Flag), frame[len(frame)-1])
		assert.Equal(t, hdlc.EncodedLen(payload), len(frame))

		interior := frame[1 : len(frame)-1]
		assert.NotContains(t, interior, byte(hdlc.Flag))
		for i := 0; i < len(interior); i++ {
			if interior[i] == hdlc.Escape {
				require.Less(t, i+1, len(interior), "dangling escape")
				assert.Contains(t, []byte{0x5E, 0x5D}, interior[i+1])
				i++
			}
		}
	})
}

func TestEscapingPositions(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		payload := payloadGen.Draw(t, "payload")
		frame := hdlc.Encode(payload)

		pos := 1
		for _, b := range payload {
			if hdlc.NeedsEscape(b) {
				assert.Equal(t, []byte{hdlc.Escape, b ^ hdlc.EscapeXor}, frame[pos:pos+2])
				pos += 2
				continue
			}
			assert.Equal(t, b, frame[pos])
			pos++
		}
		assert.Equal(t, len(frame)-1, pos)
	})
}

func TestDecodeRejectsOrInverts(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		frame := payloadGen.Draw(t, "frame")
		orig := append([]byte(nil), frame...)

		payload, err := hdlc.Decode(frame)
		assert.True(t, bytes.Equal(orig, frame), "input mutated")
		if err != nil {
			assert.Nil(t, payload)
			assert.NotEqual(t, "unknown", hdlc.Kind(err))
			_, again := hdlc.Decode(frame)
			assert.Equal(t, err.Error(), again.Error())
			return
		}
		// Anything that decodes is the unique encoding of its payload.
		assert.Equal(t, frame, hdlc.Encode(payload))
	})
}
