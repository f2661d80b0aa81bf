package record

import (
	"encoding/binary"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/gregLibert/tachograph-card/pkg/bits"
	"golang.org/x/text/encoding/charmap"
)

// DefaultCharset decodes fixed-width text fields that carry no code page.
var DefaultCharset = charmap.ISO8859_1

// codePages maps the leading code page byte of a name field to its charset.
// 12 was never published and 11 has no exact charmap.
var codePages = map[byte]*charmap.Charmap{
	1:  charmap.ISO8859_1,
	2:  charmap.ISO8859_2,
	3:  charmap.ISO8859_3,
	4:  charmap.ISO8859_4,
	5:  charmap.ISO8859_5,
	6:  charmap.ISO8859_6,
	7:  charmap.ISO8859_7,
	8:  charmap.ISO8859_8,
	9:  charmap.ISO8859_9,
	10: charmap.ISO8859_10,
	13: charmap.ISO8859_13,
	14: charmap.ISO8859_14,
	15: charmap.ISO8859_15,
	16: charmap.ISO8859_16,
}

// DecodeText decodes a fixed-width text field in DefaultCharset.
func DecodeText(data []byte) (string, error) {
	return DecodeTextIn(DefaultCharset, data)
}

// DecodeTextIn decodes one byte per character with cm and trims space and NUL
// padding at both ends. Undefined bytes and control characters are rejected.
func DecodeTextIn(cm *charmap.Charmap, data []byte) (string, error) {
	runes := make([]rune, len(data))
	for i, b := range data {
		r := cm.DecodeByte(b)
		if r == unicode.ReplacementChar {
			return "", fmt.Errorf("%w: byte 0x%02X at %d undefined in %s", ErrInvalidEncoding, b, i, cm)
		}
		runes[i] = r
	}

	text := strings.TrimFunc(string(runes), func(r rune) bool {
		return r == ' ' || r == 0
	})

	if i := strings.IndexFunc(text, unicode.IsControl); i >= 0 {
		return "", fmt.Errorf("%w: control character %U in text", ErrInvalidEncoding, []rune(text[i:])[0])
	}
	return text, nil
}

// DecodeName decodes a name field. A first byte below 0x20 cannot be text and
// is read as the code page of the remaining bytes; otherwise the whole field is
// text in DefaultCharset. A zero first byte is padding.
func DecodeName(data []byte) (string, error) {
	if len(data) == 0 || data[0] == 0 || data[0] >= 0x20 {
		return DecodeText(data)
	}

	cm, ok := codePages[data[0]]
	if !ok {
		return "", fmt.Errorf("%w: unsupported code page %d", ErrInvalidEncoding, data[0])
	}
	return DecodeTextIn(cm, data[1:])
}

// DecodeBCD maps every nibble, most significant first, to its decimal digit.
func DecodeBCD(data []byte) (string, error) {
	digits := make([]byte, 0, len(data)*2)
	for i, n := range bits.Nibbles(data) {
		if n > 9 {
			return "", fmt.Errorf("%w: nibble 0x%X at position %d", ErrInvalidBCDDigit, n, i)
		}
		digits = append(digits, '0'+n)
	}
	return string(digits), nil
}

// DecodeTimeReal reads a 4-byte big-endian count of seconds since 1970-01-01 UTC.
// Zero means "not set" and yields the zero time.
func DecodeTimeReal(data []byte) (time.Time, error) {
	if len(data) != 4 {
		return time.Time{}, fmt.Errorf("%w: TimeReal needs 4 bytes, have %d", ErrTruncatedData, len(data))
	}

	secs := binary.BigEndian.Uint32(data)
	if secs == 0 {
		return time.Time{}, nil
	}
	return time.Unix(int64(secs), 0).UTC(), nil
}
