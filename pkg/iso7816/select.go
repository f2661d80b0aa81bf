package iso7816

import (
	"fmt"
)

// SELECT (INS 'A4') makes a file current; READ BINARY then acts on it.
// Every selection built here uses P2 = 0C: first occurrence, no response data.

// SelectionMethod is P1 of SELECT.
type SelectionMethod byte

const (
	SelectByFileID         SelectionMethod = 0x00
	SelectEFUnderCurrentDF SelectionMethod = 0x02
	SelectByDFName         SelectionMethod = 0x04
)

var methodNames = map[SelectionMethod]string{
	SelectByFileID:         "by file identifier",
	0x01:                   "child DF",
	SelectEFUnderCurrentDF: "EF under current DF",
	0x03:                   "parent DF",
	SelectByDFName:         "by DF name",
	0x08:                   "path from MF",
	0x09:                   "path from current DF",
}

func (s SelectionMethod) String() string {
	if name, ok := methodNames[s]; ok {
		return name
	}
	return fmt.Sprintf("unknown method (0x%02X)", byte(s))
}

// FileOccurrence is P2 bits 2-1. Only the first occurrence is ever requested.
type FileOccurrence byte

const FirstOrOnlyOccurrence FileOccurrence = 0x00

func (f FileOccurrence) String() string {
	return [...]string{"first/only", "last", "next", "previous"}[f&0x03]
}

// SelectionControl is P2 bits 4-3: what the card answers with.
type SelectionControl byte

const (
	ReturnFCI    SelectionControl = 0x00
	ReturnFCP    SelectionControl = 0x04
	ReturnFMD    SelectionControl = 0x08
	ReturnNoData SelectionControl = 0x0C
)

func (s SelectionControl) String() string {
	return [...]string{"FCI", "FCP", "FMD", "no response data"}[(s&0x0C)>>2]
}

// MasterFileID is the reserved identifier of the MF.
var MasterFileID = []byte{0x3F, 0x00}

// NewSelectCommand creates a generic SELECT command.
func NewSelectCommand(
	cla Class,
	method SelectionMethod,
	occurrence FileOccurrence,
	ctrl SelectionControl,
	data []byte,
) *CommandAPDU {
	p2 := byte(ctrl) | byte(occurrence)

	// T=0 cannot carry Lc and Le together; with data we leave Le out and let
	// the client collect any '61 XX' answer.
	ne := 0
	if len(data) == 0 && ctrl != ReturnNoData {
		ne = MaxShortLe
	}

	return NewCommandAPDU(cla, mustInstruction(INS_SELECT), byte(method), p2, data, ne)
}

// SelectDF selects a dedicated file by its name (AID): 00 A4 04 0C Lc name.
func SelectDF(cla Class, name []byte) (*CommandAPDU, error) {
	if err := checkSelector("DF name", name); err != nil {
		return nil, err
	}
	return NewSelectCommand(cla, SelectByDFName, FirstOrOnlyOccurrence, ReturnNoData, name), nil
}

// SelectEFUnderDF selects an elementary file of the current DF: 00 A4 02 0C Lc id.
func SelectEFUnderDF(cla Class, fid []byte) (*CommandAPDU, error) {
	if err := checkSelector("EF identifier", fid); err != nil {
		return nil, err
	}
	return NewSelectCommand(cla, SelectEFUnderCurrentDF, FirstOrOnlyOccurrence, ReturnNoData, fid), nil
}

// SelectMF selects the Master File by its reserved identifier 3F00.
func SelectMF(cla Class) *CommandAPDU {
	return NewSelectCommand(cla, SelectByFileID, FirstOrOnlyOccurrence, ReturnNoData, MasterFileID)
}

func checkSelector(what string, sel []byte) error {
	if len(sel) == 0 {
		return fmt.Errorf("%w: empty %s", ErrInvalidParameter, what)
	}
	if len(sel) > MaxShortLc {
		return fmt.Errorf("%w: %s of %d bytes exceeds %d", ErrInvalidParameter, what, len(sel), MaxShortLc)
	}
	return nil
}
