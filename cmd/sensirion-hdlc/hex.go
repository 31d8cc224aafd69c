package main

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// parseHex accepts "7E0102", "7e 01 02", "0x7E,0x01" or "7E:01:02".
func parseHex(args []string) ([]byte, error) {
	s := strings.Join(args, " ")
	s = strings.NewReplacer("0x", " ", "0X", " ", ",", " ", ":", " ").Replace(s)
	s = strings.Join(strings.Fields(s), "")
	if len(s)%2 != 0 {
		return nil, fmt.Errorf("odd number of hex digits in %q", strings.Join(args, " "))
	}
	data, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex input: %w", err)
	}
	return data, nil
}

// formatHex renders bytes as space separated upper case pairs.
func formatHex(data []byte) string {
	if len(data) == 0 {
		return "(empty)"
	}
	var sb strings.Builder
	for i, b := range data {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%02X", b)
	}
	return sb.String()
}
