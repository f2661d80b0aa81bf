package iso7816

import (
	"errors"
	"testing"
)

func makeTx(sw StatusWord) Transaction {
	return Transaction{
		Command:  &CommandAPDU{Instruction: mustInstruction(INS_READ_BINARY)},
		Response: &ResponseAPDU{Status: sw},
	}
}

func TestTransaction_IsSuccess(t *testing.T) {
	tests := []struct {
		name string
		tx   Transaction
		want bool
	}{
		{name: "Successful Transaction (9000)", tx: makeTx(SW_NO_ERROR), want: true},
		{name: "Process Completed (6110)", tx: makeTx(NewStatusWord(0x61, 0x10)), want: true},
		{name: "Error Transaction (6A82)", tx: makeTx(SW_ERR_FILE_NOT_FOUND), want: false},
		{name: "Nil Response", tx: Transaction{Command: &CommandAPDU{}}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.tx.IsSuccess(); got != tt.want {
				t.Errorf("Transaction.IsSuccess() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTrace_Logic(t *testing.T) {
	t.Run("Empty Trace", func(t *testing.T) {
		var tr Trace
		if tr.Last() != nil {
			t.Error("Empty trace Last() should be nil")
		}
		if tr.IsSuccess() {
			t.Error("Empty trace IsSuccess() should be false")
		}
		if tr.Data() != nil {
			t.Error("Empty trace Data() should be nil")
		}
	})

	t.Run("Multi-Step Trace (61XX then 9000)", func(t *testing.T) {
		tr := Trace{
			makeTx(NewStatusWord(0x61, 0x10)),
			makeTx(SW_NO_ERROR),
		}
		if !tr.IsSuccess() {
			t.Error("Trace should be successful if the last action succeeded")
		}
		if err := tr.Check(); err != nil {
			t.Errorf("Check() = %v, want nil", err)
		}
	})

	t.Run("Failure at the end", func(t *testing.T) {
		tr := Trace{
			makeTx(SW_NO_ERROR),
			makeTx(SW_ERR_FILE_NOT_FOUND),
		}
		if tr.IsSuccess() {
			t.Error("Trace should fail if the last action failed")
		}
	})
}

func TestTrace_Check(t *testing.T) {
	tests := []struct {
		name   string
		trace  Trace
		wantSW StatusWord
		wantOK bool
	}{
		{name: "9000", trace: Trace{makeTx(SW_NO_ERROR)}, wantOK: true},
		{name: "Dangling 61XX", trace: Trace{makeTx(NewStatusWord(0x61, 0x04))}, wantSW: 0x6104},
		{name: "Warning EOF", trace: Trace{makeTx(SW_WARN_EOF_REACHED)}, wantSW: SW_WARN_EOF_REACHED},
		{name: "Empty", trace: nil, wantSW: SW_ERR_UNKNOWN},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.trace.Check()
			if tt.wantOK {
				if err != nil {
					t.Fatalf("Check() = %v, want nil", err)
				}
				return
			}
			var se *StatusError
			if !errors.As(err, &se) {
				t.Fatalf("Check() = %v, want *StatusError", err)
			}
			if se.Status != tt.wantSW {
				t.Errorf("Status = %04X, want %04X", uint16(se.Status), uint16(tt.wantSW))
			}
		})
	}
}
