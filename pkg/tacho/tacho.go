// Package tacho reads the identification data of a tachograph driver card.
//
// The card is driven through a fixed, read-only sequence:
//
//	SELECT DF (by name)        00 A4 04 0C 06 FF 54 41 43 48 4F
//	SELECT EF 0520 under DF    00 A4 02 0C 02 05 20
//	READ BINARY 65 bytes @0    00 B0 00 00 41
//	READ BINARY 78 bytes @65   00 B0 00 41 4E
//
// No authentication, PIN verification or secure messaging is involved.
package tacho

import (
	"fmt"

	"github.com/gregLibert/tachograph-card/pkg/iso7816"
)

// SelectorKind tells how a FileSelector is addressed.
type SelectorKind int

const (
	// KindDF is a dedicated file selected by its name (AID).
	KindDF SelectorKind = iota
	// KindEF is an elementary file selected by its identifier under the current DF.
	KindEF
)

func (k SelectorKind) String() string {
	if k == KindEF {
		return "EF"
	}
	return "DF"
}

// FileSelector identifies a file on the card. It is immutable.
type FileSelector struct {
	kind SelectorKind
	id   string
}

// DFName returns a selector for the dedicated file with the given name.
func DFName(name ...byte) FileSelector {
	return FileSelector{kind: KindDF, id: string(name)}
}

// EFID returns a selector for the elementary file with the given identifier.
func EFID(fid ...byte) FileSelector {
	return FileSelector{kind: KindEF, id: string(fid)}
}

// Kind reports whether f names a DF or an EF.
func (f FileSelector) Kind() SelectorKind {
	return f.kind
}

// Bytes returns a copy of the identifier.
func (f FileSelector) Bytes() []byte {
	return []byte(f.id)
}

func (f FileSelector) String() string {
	return fmt.Sprintf("%s %X", f.kind, f.id)
}

// Command builds the SELECT for f.
func (f FileSelector) Command(cla iso7816.Class) (*iso7816.CommandAPDU, error) {
	if f.kind == KindEF {
		return iso7816.SelectEFUnderDF(cla, f.Bytes())
	}
	return iso7816.SelectDF(cla, f.Bytes())
}

// Files of the driver card application.
var (
	// TachographDF is the first generation application, "TACHO".
	TachographDF = DFName(0xFF, 0x54, 0x41, 0x43, 0x48, 0x4F)
	// SmartTachographDF is the second generation application, "SMRDT".
	SmartTachographDF = DFName(0xFF, 0x53, 0x4D, 0x52, 0x44, 0x54)
	// IdentificationEF holds CardIdentification followed by DriverCardHolderIdentification.
	IdentificationEF = EFID(0x05, 0x20)
)

// Positions of the two records inside IdentificationEF.
const (
	CardIdentificationOffset   = 0x0000
	CardIdentificationLength   = 0x41
	HolderIdentificationOffset = CardIdentificationOffset + CardIdentificationLength
	HolderIdentificationLength = 0x4E
)
