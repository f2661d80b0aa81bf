package iso7816

import (
	"fmt"
	"strings"

	"github.com/gregLibert/tachograph-card/pkg/tlv"
)

// SelectResult represents the outcome of a SELECT command execution.
type SelectResult struct {
	Trace
}

// NewSelectResult creates a SelectResult from a raw transaction trace.
// The trace must start with a SELECT command (INS 0xA4).
func NewSelectResult(t Trace) (*SelectResult, error) {
	if len(t) == 0 {
		return nil, fmt.Errorf("cannot create result from empty trace")
	}

	if t[0].Command.Instruction.Raw != INS_SELECT {
		return nil, fmt.Errorf("trace must start with SELECT command (got %02X)", byte(t[0].Command.Instruction.Raw))
	}

	return &SelectResult{Trace: t}, nil
}

// Describe generates an ASCII report of the selection.
func (r *SelectResult) Describe() string {
	var sb strings.Builder

	sb.WriteString("=== SELECT COMMAND REPORT ===\n")

	tx0 := r.Trace[0]
	cmd := tx0.Command

	method := SelectionMethod(cmd.P1)
	occ := FileOccurrence(cmd.P2 & 0x03)
	ctrl := SelectionControl(cmd.P2 & 0x0C)

	sb.WriteString("[1] Command: SELECT FILE\n")
	sb.WriteString(fmt.Sprintf("    + Method:  %02X -> %s\n", cmd.P1, method))
	sb.WriteString(fmt.Sprintf("    + Control: %02X -> %s | %s\n", cmd.P2, occ, ctrl))
	if len(cmd.Data) > 0 {
		sb.WriteString(fmt.Sprintf("    + Target:  %X (%q)\n", cmd.Data, tlv.MakeSafeASCII(cmd.Data)))
	}
	writeResultLine(&sb, tx0)
	sb.WriteString("\n")

	writeFollowUps(&sb, r.Trace)

	sb.WriteString("[=] FINAL OUTCOME:\n")
	if r.Check() == nil {
		sb.WriteString("    + File selected.\n")
	} else {
		sb.WriteString(fmt.Sprintf("    - Selection failed: %s\n", r.Last().Response.Status.Verbose()))
	}
	if data := r.Data(); len(data) > 0 {
		sb.WriteString(fmt.Sprintf("    + Payload: %X\n", data))
	}

	return strings.TrimRight(sb.String(), "\n")
}
