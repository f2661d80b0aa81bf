package iso7816

import (
	"fmt"

	"github.com/gregLibert/tachograph-card/pkg/bits"
)

// Instruction Byte (INS) Logic according to ISO/IEC 7816-4.
//
// Bit 1 of an interindustry INS selects the BER-TLV variant of a command
// (READ BINARY 0xB0 vs 0xB1). INS values 6X and 9X are reserved for the
// transport layer and rejected.

// InsCode is a typed representation of the instruction byte.
type InsCode byte

// Instruction codes used when reading transparent files.
const (
	INS_VERIFY                InsCode = 0x20
	INS_MANAGE_SECURITY_ENV   InsCode = 0x22
	INS_EXTERNAL_AUTHENTICATE InsCode = 0x82
	INS_GET_CHALLENGE         InsCode = 0x84
	INS_INTERNAL_AUTHENTICATE InsCode = 0x88
	INS_SELECT                InsCode = 0xA4
	INS_READ_BINARY           InsCode = 0xB0
	INS_READ_BINARY_BER       InsCode = 0xB1
	INS_READ_RECORD           InsCode = 0xB2
	INS_GET_RESPONSE          InsCode = 0xC0
	INS_GET_DATA              InsCode = 0xCA
	INS_UPDATE_BINARY         InsCode = 0xD6
)

var insNames = map[InsCode]string{
	INS_VERIFY:                "VERIFY",
	INS_MANAGE_SECURITY_ENV:   "MANAGE SECURITY ENVIRONMENT",
	INS_EXTERNAL_AUTHENTICATE: "EXTERNAL AUTHENTICATE",
	INS_GET_CHALLENGE:         "GET CHALLENGE",
	INS_INTERNAL_AUTHENTICATE: "INTERNAL AUTHENTICATE",
	INS_SELECT:                "SELECT",
	INS_READ_BINARY:           "READ BINARY",
	INS_READ_BINARY_BER:       "READ BINARY (BER-TLV)",
	INS_READ_RECORD:           "READ RECORD",
	INS_GET_RESPONSE:          "GET RESPONSE",
	INS_GET_DATA:              "GET DATA",
	INS_UPDATE_BINARY:         "UPDATE BINARY",
}

func (i InsCode) String() string {
	if name, ok := insNames[i]; ok {
		return name
	}
	return fmt.Sprintf("INS(0x%02X)", byte(i))
}

// Instruction represents the parsed ISO 7816-4 Instruction byte (INS).
type Instruction struct {
	Raw      InsCode
	IsBERTLV bool
}

// NewInstruction creates an Instruction object with validation.
func NewInstruction(ins InsCode) (Instruction, error) {
	highNibble := bits.HighNibble(byte(ins))
	if highNibble == 0x6 || highNibble == 0x9 {
		return Instruction{}, fmt.Errorf("%w: INS 0x%02X, 6X and 9X are reserved", ErrInvalidParameter, byte(ins))
	}

	return Instruction{
		Raw:      ins,
		IsBERTLV: bits.IsSet(byte(ins), 1),
	}, nil
}

// mustInstruction is for the package's own constant codes, which are never reserved.
func mustInstruction(ins InsCode) Instruction {
	i, err := NewInstruction(ins)
	if err != nil {
		panic(err)
	}
	return i
}

// Verbose returns a human-readable description of the instruction.
func (i Instruction) Verbose() string {
	format := "Standard"
	if i.IsBERTLV {
		format = "BER-TLV"
	}
	return fmt.Sprintf("INS: 0x%02X | Command: %s | Format: %s", byte(i.Raw), i.Raw, format)
}
