package tlv

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// Hex constructs a byte slice from a series of hex strings.
// Spaces are ignored so fixtures can be written as "00 A4 04 0C".
func Hex(parts ...string) []byte {
	cleanHex := strings.ReplaceAll(strings.Join(parts, ""), " ", "")

	data, err := hex.DecodeString(cleanHex)
	if err != nil {
		panic(fmt.Sprintf("invalid input '%s': %v", cleanHex, err))
	}
	return data
}

// MakeSafeASCII replaces every non-printable character with a dot.
func MakeSafeASCII(data []byte) string {
	return strings.Map(func(r rune) rune {
		if r >= 32 && r <= 126 {
			return r
		}
		return '.'
	}, string(data))
}
