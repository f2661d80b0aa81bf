package iso7816

import (
	"fmt"
)

// READ BINARY COMMAND LOGIC (ISO 7816-4):
// READ BINARY (INS 'B0') returns part of the current transparent EF.
//
// P1-P2 (bit 8 of P1 = 0): 15-bit offset of the first byte to read.
// Le: number of bytes expected, '00' meaning 256.
//
// The short-EF form (bit 8 of P1 = 1, SFI in bits 5-1) is not used here: files
// are always selected explicitly first.

// MaxReadBinaryOffset is the largest offset expressible in P1-P2.
const MaxReadBinaryOffset = 0x7FFF

// ReadBinary builds 00 B0 P1 P2 Le reading length bytes of the current EF at offset.
// A length of 0 requests 256 bytes.
func ReadBinary(cla Class, offset uint16, length byte) (*CommandAPDU, error) {
	if offset > MaxReadBinaryOffset {
		return nil, fmt.Errorf("%w: offset 0x%04X exceeds 0x%04X", ErrInvalidParameter, offset, MaxReadBinaryOffset)
	}

	return NewCommandAPDU(
		cla,
		mustInstruction(INS_READ_BINARY),
		byte(offset>>8),
		byte(offset),
		nil,
		shortLe(length),
	), nil
}

// Offset returns the P1-P2 offset of a READ BINARY command.
func (c *CommandAPDU) Offset() uint16 {
	return uint16(c.P1&0x7F)<<8 | uint16(c.P2)
}
