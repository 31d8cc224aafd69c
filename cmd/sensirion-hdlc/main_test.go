package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iohe/sensirion-hdlc/hdlc"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("SHDLC_LOG_LEVEL", "off")

	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCodecCommands(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		out     string
		errPart string
	}{
		{"encode flag", []string{"encode", "7E"}, "7E 7D 5E 7E\n", ""},
		{"encode empty payload", []string{"encode", ""}, "7E 7E\n", ""},
		{"decode escaped escape", []string{"decode", "7E 7D 5D 7E"}, "7D\n", ""},
		{"decode empty frame", []string{"decode", "7E7E"}, "(empty)\n", ""},
		{"decode bad escape", []string{"decode", "7E 7D 41 7E"}, "", "invalid_escape"},
		{"decode missing end flag", []string{"decode", "7E 41"}, "", "missing_end_flag"},
		{"encode bad hex", []string{"encode", "7G"}, "", "invalid hex"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out, err := runCLI(t, tc.args...)
			if tc.errPart != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.errPart)
				assert.Empty(t, out)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.out, out)
		})
	}
}

func TestScanCommand(t *testing.T) {
	var capture []byte
	capture = append(capture, hdlc.Encode([]byte{0x00, 0x7E})...)
	capture = append(capture, 0x7E, 0x7D, 0x41, 0x7E)

	path := filepath.Join(t.TempDir(), "capture.bin")
	require.NoError(t, os.WriteFile(path, capture, 0o644))

	out, err := runCLI(t, "scan", path)
	require.NoError(t, err)
	assert.Contains(t, out, "     1  00 7E\n")
	assert.Contains(t, out, "Frames: 1 ok, 1 dropped, 0 bytes skipped")
	assert.Contains(t, out, "invalid_escape")

	out, err = runCLI(t, "scan", "--quiet", path)
	require.NoError(t, err)
	assert.NotContains(t, out, "00 7E")
	assert.Contains(t, out, "Frames: 1 ok, 1 dropped")
}

func TestScanCommand_MissingFile(t *testing.T) {
	_, err := runCLI(t, "scan", filepath.Join(t.TempDir(), "absent.bin"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open capture")
}

func TestPortFlagsArePersistent(t *testing.T) {
	cmd := newRootCmd()
	for _, name := range []string{"port", "baud", "timeout"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), name)
	}
}
