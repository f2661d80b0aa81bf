package iso7816

import (
	"bytes"
	"errors"
	"testing"

	"github.com/gregLibert/tachograph-card/pkg/tlv"
)

func TestSelectCommands(t *testing.T) {
	cls := Class{}

	mustCmd := func(cmd *CommandAPDU, err error) *CommandAPDU {
		t.Helper()
		if err != nil {
			t.Fatalf("builder failed: %v", err)
		}
		return cmd
	}

	tests := []struct {
		name     string
		cmd      *CommandAPDU
		expected []byte
	}{
		{
			name:     "Select tachograph DF by name",
			cmd:      mustCmd(SelectDF(cls, tlv.Hex("FF544143484F"))),
			expected: tlv.Hex("00 A4 04 0C 06", "FF544143484F"),
		},
		{
			name:     "Select EF identification under DF",
			cmd:      mustCmd(SelectEFUnderDF(cls, tlv.Hex("0520"))),
			expected: tlv.Hex("00 A4 02 0C 02", "0520"),
		},
		{
			name:     "Select MF",
			cmd:      SelectMF(cls),
			expected: tlv.Hex("00 A4 00 0C 02", "3F00"),
		},
		{
			name:     "Generic select FCI without data asks for 256 bytes",
			cmd:      NewSelectCommand(cls, SelectByFileID, FirstOrOnlyOccurrence, ReturnFCI, nil),
			expected: tlv.Hex("00 A4 00 00", "00"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.cmd.Bytes()
			if err != nil {
				t.Fatalf("Failed to encode bytes: %v", err)
			}
			if !bytes.Equal(got, tt.expected) {
				t.Errorf("Mismatch:\nExpected: %X\nGot:      %X", tt.expected, got)
			}
		})
	}
}

func TestSelectCommands_InvalidSelector(t *testing.T) {
	tests := []struct {
		name string
		sel  []byte
	}{
		{"Empty", nil},
		{"Too long", make([]byte, 256)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := SelectDF(Class{}, tt.sel); !errors.Is(err, ErrInvalidParameter) {
				t.Errorf("SelectDF error = %v, want ErrInvalidParameter", err)
			}
			if _, err := SelectEFUnderDF(Class{}, tt.sel); !errors.Is(err, ErrInvalidParameter) {
				t.Errorf("SelectEFUnderDF error = %v, want ErrInvalidParameter", err)
			}
		})
	}

	if _, err := SelectDF(Class{}, make([]byte, 255)); err != nil {
		t.Errorf("255-byte DF name should be accepted, got %v", err)
	}
}

func TestSelectionNames(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{SelectEFUnderCurrentDF.String(), "EF under current DF"},
		{SelectionMethod(0x08).String(), "path from MF"},
		{SelectionMethod(0x42).String(), "unknown method (0x42)"},
		{FileOccurrence(0x02).String(), "next"},
		{ReturnFCP.String(), "FCP"},
		{ReturnNoData.String(), "no response data"},
	}

	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}
