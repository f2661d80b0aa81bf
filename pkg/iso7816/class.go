package iso7816

import (
	"fmt"

	"github.com/gregLibert/tachograph-card/pkg/bits"
)

// Class Byte (CLA) Structure according to ISO/IEC 7816-4.
//
// Bit 8: Proprietary (1) or Interindustry (0).
// Bit 7: Type of Interindustry (0=First, 1=Further).
// Bit 5: Command Chaining (0=Last/Only, 1=More follow).
//
// First Interindustry (00xx xxxx): bits 4-3 secure messaging, bits 2-1 logical channel (0-3).
// Further Interindustry (01xx xxxx): bit 6 secure messaging, bits 4-1 logical channel minus 4.
//
// This package only reads plain files, so any CLA announcing secure messaging is rejected.

// Class represents the parsed ISO 7816-4 Class byte (CLA).
type Class struct {
	Raw           byte
	IsProprietary bool
	IsChained     bool
	Channel       uint8 // Logical channel number (0-19)
}

// NewClass creates a Class object by decoding a raw CLA byte.
func NewClass(cla byte) (Class, error) {
	if cla == 0xFF {
		return Class{}, fmt.Errorf("%w: CLA 0xFF is reserved", ErrInvalidParameter)
	}

	c := Class{Raw: cla}

	if bits.IsSet(cla, 8) {
		c.IsProprietary = true
		return c, nil
	}

	c.IsChained = bits.IsSet(cla, 5)

	if !bits.IsSet(cla, 7) {
		if bits.GetRange(cla, 4, 3) != 0 {
			return Class{}, fmt.Errorf("%w: CLA 0x%02X requests secure messaging", ErrInvalidParameter, cla)
		}
		c.Channel = bits.GetRange(cla, 2, 1)
	} else {
		if bits.IsSet(cla, 6) {
			return Class{}, fmt.Errorf("%w: CLA 0x%02X requests secure messaging", ErrInvalidParameter, cla)
		}
		c.Channel = bits.GetRange(cla, 4, 1) + 4
	}

	return c, nil
}

// NewInterindustryClass builds a plain (no secure messaging) class for the given logical channel.
func NewInterindustryClass(isChained bool, channel uint8) (Class, error) {
	if channel > 19 {
		return Class{}, fmt.Errorf("%w: channel %d out of range (max 19)", ErrInvalidParameter, channel)
	}

	c := Class{IsChained: isChained, Channel: channel}
	c.Raw = c.Encode()
	return c, nil
}

// Encode converts the Class object back to its byte representation.
func (c Class) Encode() byte {
	if c.IsProprietary {
		return c.Raw
	}

	var res byte
	if c.IsChained {
		res = bits.Set(res, 5)
	}

	if c.Channel <= 3 {
		return res | c.Channel
	}

	res = bits.Set(res, 7)
	return res | (c.Channel - 4)
}

// Verbose returns a human-readable description of the CLA byte configuration.
func (c Class) Verbose() string {
	if c.IsProprietary {
		return fmt.Sprintf("Class: Proprietary (0x%02X)", c.Raw)
	}

	rangeName := "First Interindustry (Ch 0-3)"
	if c.Channel >= 4 {
		rangeName = "Further Interindustry (Ch 4-19)"
	}

	chaining := "Last or only command"
	if c.IsChained {
		chaining = "More commands follow (Chaining)"
	}

	return fmt.Sprintf("Range: %s\nChaining: %s\nLogical Channel: %d", rangeName, chaining, c.Channel)
}
