package iso7816

import (
	"errors"
	"testing"
)

func TestNewClass(t *testing.T) {
	tests := []struct {
		name      string
		raw       byte
		wantCh    uint8
		wantChain bool
		wantProp  bool
		wantErr   bool
	}{
		{name: "Basic 00", raw: 0x00, wantCh: 0},
		{name: "Channel 3", raw: 0x03, wantCh: 3},
		{name: "Chained channel 1", raw: 0x11, wantCh: 1, wantChain: true},
		{name: "Further channel 4", raw: 0x40, wantCh: 4},
		{name: "Further channel 19", raw: 0x4F, wantCh: 19},
		{name: "Proprietary", raw: 0x80, wantProp: true},
		{name: "Reserved FF", raw: 0xFF, wantErr: true},
		{name: "First SM bits set", raw: 0x0C, wantErr: true},
		{name: "Further SM bit set", raw: 0x60, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewClass(tt.raw)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidParameter) {
					t.Fatalf("NewClass(0x%02X) error = %v, want ErrInvalidParameter", tt.raw, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewClass(0x%02X) unexpected error: %v", tt.raw, err)
			}
			if c.Channel != tt.wantCh || c.IsChained != tt.wantChain || c.IsProprietary != tt.wantProp {
				t.Errorf("NewClass(0x%02X) = %+v", tt.raw, c)
			}
			if got := c.Encode(); got != tt.raw {
				t.Errorf("Encode() = 0x%02X, want 0x%02X", got, tt.raw)
			}
		})
	}
}

func TestNewInterindustryClass(t *testing.T) {
	c, err := NewInterindustryClass(false, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Raw != 0x41 {
		t.Errorf("Raw = 0x%02X, want 0x41", c.Raw)
	}

	if _, err := NewInterindustryClass(false, 20); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("channel 20 error = %v, want ErrInvalidParameter", err)
	}
}
