package iso7816

import (
	"bytes"
	"errors"
	"fmt"
)

// APDU (Application Protocol Data Unit) structures according to ISO/IEC 7816-3 and 7816-4.
//
// COMMAND APDU (C-APDU):
//   - Header (4 bytes): CLA, INS, P1, P2.
//   - Body: optional Lc + Data, optional Le.
//
// ENCODING CASES (ISO 7816-3):
//   - Case 1: Header only.
//   - Case 2: Header + Le.
//   - Case 3: Header + Lc + Data.
//   - Case 4: Header + Lc + Data + Le.
//
// Only short length fields are produced: Lc and Le are a single byte each,
// with Le = 00 standing for 256. Extended lengths are refused.
//
// RESPONSE APDU (R-APDU): optional data followed by the SW1-SW2 trailer.

// APDU limits for short length encoding.
const (
	// MaxShortLc is the maximum data length (Nc) encodable on one byte.
	MaxShortLc = 255

	// MaxShortLe is the maximum expected response length; encoded as 0x00.
	MaxShortLe = 256
)

// ErrInvalidParameter is returned when a command cannot be built from the given parameters.
var ErrInvalidParameter = errors.New("invalid parameter")

// CommandAPDU represents a command sent to the card.
type CommandAPDU struct {
	Class       Class
	Instruction Instruction
	P1, P2      byte
	Data        []byte
	Ne          int // Expected response length (0 means none)
}

// NewCommandAPDU creates a basic command.
func NewCommandAPDU(cla Class, ins Instruction, p1, p2 byte, data []byte, ne int) *CommandAPDU {
	return &CommandAPDU{
		Class:       cla,
		Instruction: ins,
		P1:          p1,
		P2:          p2,
		Data:        data,
		Ne:          ne,
	}
}

// Bytes encodes the CommandAPDU into its short-form byte representation.
func (c *CommandAPDU) Bytes() ([]byte, error) {
	nc := len(c.Data)
	if nc > MaxShortLc {
		return nil, fmt.Errorf("%w: Lc %d exceeds %d", ErrInvalidParameter, nc, MaxShortLc)
	}
	if c.Ne < 0 || c.Ne > MaxShortLe {
		return nil, fmt.Errorf("%w: Le %d outside 0..%d", ErrInvalidParameter, c.Ne, MaxShortLe)
	}

	buf := new(bytes.Buffer)
	buf.WriteByte(c.Class.Encode())
	buf.WriteByte(byte(c.Instruction.Raw))
	buf.WriteByte(c.P1)
	buf.WriteByte(c.P2)

	if nc > 0 {
		buf.WriteByte(byte(nc))
		buf.Write(c.Data)
	}

	if c.Ne > 0 {
		// 256 wraps to 0x00, which is how short Le spells it.
		buf.WriteByte(byte(c.Ne))
	}

	return buf.Bytes(), nil
}

// String returns a readable representation of the command meta-data.
func (c *CommandAPDU) String() string {
	return fmt.Sprintf("%s | P1: %02X, P2: %02X | Lc: %d | Le: %d",
		c.Instruction.Verbose(), c.P1, c.P2, len(c.Data), c.Ne)
}

// ResponseAPDU represents the reply from the card (R-APDU).
type ResponseAPDU struct {
	Data   []byte
	Status StatusWord
}

// ParseResponseAPDU splits raw card bytes into data and status word.
// The input must contain at least 2 bytes (SW1, SW2).
func ParseResponseAPDU(raw []byte) (*ResponseAPDU, error) {
	if len(raw) < 2 {
		return nil, fmt.Errorf("response too short: length %d", len(raw))
	}

	indexSW1 := len(raw) - 2
	data := make([]byte, indexSW1)
	copy(data, raw[:indexSW1])

	return &ResponseAPDU{
		Data:   data,
		Status: NewStatusWord(raw[indexSW1], raw[indexSW1+1]),
	}, nil
}

// String returns a readable representation of the response.
func (r *ResponseAPDU) String() string {
	return fmt.Sprintf("Data (%d bytes) | Status: %s", len(r.Data), r.Status.Verbose())
}
