package tacho

import (
	"bytes"
	"testing"

	"github.com/gregLibert/tachograph-card/pkg/iso7816"
	"github.com/gregLibert/tachograph-card/pkg/tlv"
)

type exchange struct {
	cmd  []byte
	resp []byte
	err  error
}

// stubCard answers a scripted conversation and fails the test on any other command.
type stubCard struct {
	t     *testing.T
	steps []exchange
	pos   int
}

func newStubClient(t *testing.T, steps ...exchange) (*iso7816.Client, *stubCard) {
	card := &stubCard{t: t, steps: steps}
	return iso7816.NewClient(card), card
}

func (s *stubCard) Transmit(cmd []byte) ([]byte, error) {
	s.t.Helper()
	if s.pos >= len(s.steps) {
		s.t.Fatalf("unexpected command %X after end of script", cmd)
	}
	step := s.steps[s.pos]
	s.pos++
	if !bytes.Equal(cmd, step.cmd) {
		s.t.Fatalf("step %d: got command %X, want %X", s.pos, cmd, step.cmd)
	}
	return step.resp, step.err
}

func (s *stubCard) done() bool {
	return s.pos == len(s.steps)
}

var (
	cmdSelectDF      = tlv.Hex("00 A4 04 0C 06 FF544143484F")
	cmdSelectGen2DF  = tlv.Hex("00 A4 04 0C 06 FF534D524454")
	cmdSelectEF      = tlv.Hex("00 A4 02 0C 02 0520")
	cmdReadCard      = tlv.Hex("00 B0 00 00 41")
	cmdReadHolder    = tlv.Hex("00 B0 00 41 4E")
	cmdSelectMF      = tlv.Hex("00 A4 00 0C 02 3F00")
	cmdSelectEFDir   = tlv.Hex("00 A4 02 0C 02 2F00")
	cmdReadEFDir     = tlv.Hex("00 B0 00 00 00")
	swOK             = tlv.Hex("9000")
	swFileNotFound   = tlv.Hex("6A82")
	swSecurityStatus = tlv.Hex("6982")
)

func padded(s string, width int) []byte {
	return append([]byte(s), bytes.Repeat([]byte{' '}, width-len(s))...)
}

// cardIdentificationBytes is a 65-byte record for card number 1234567890123456.
func cardIdentificationBytes() []byte {
	data := []byte{0x11}
	data = append(data, []byte("1234567890123456")...)
	data = append(data, 0x01)
	data = append(data, padded("KBA", 35)...)
	data = append(data, tlv.Hex("5F5E1000", "5F5E1000", "6B49D200")...)
	return data
}

// holderIdentificationBytes is a 78-byte record for JOHN DOE born 1985-03-15.
func holderIdentificationBytes() []byte {
	data := padded("DOE", 36)
	data = append(data, padded("JOHN", 36)...)
	data = append(data, 0x19, 0x85, 0x03, 0x15)
	data = append(data, []byte("en")...)
	return data
}

func withSW(data, sw []byte) []byte {
	return append(append([]byte(nil), data...), sw...)
}
