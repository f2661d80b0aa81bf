package iso7816

import (
	"fmt"
	"strings"
)

// ReadBinaryResult represents the outcome of a READ BINARY command execution.
type ReadBinaryResult struct {
	Trace
}

// NewReadBinaryResult creates a ReadBinaryResult from a raw transaction trace.
func NewReadBinaryResult(t Trace) (*ReadBinaryResult, error) {
	if len(t) == 0 {
		return nil, fmt.Errorf("cannot create result from empty trace")
	}

	if t[0].Command.Instruction.Raw != INS_READ_BINARY {
		return nil, fmt.Errorf("trace must start with READ BINARY command (got %02X)", byte(t[0].Command.Instruction.Raw))
	}

	return &ReadBinaryResult{Trace: t}, nil
}

// Describe generates an ASCII report of the read operation.
func (r *ReadBinaryResult) Describe() string {
	var sb strings.Builder

	sb.WriteString("=== READ BINARY COMMAND REPORT ===\n")

	tx0 := r.Trace[0]
	cmd := tx0.Command

	sb.WriteString("[1] Command: READ BINARY (Current EF)\n")
	sb.WriteString(fmt.Sprintf("    + Offset:  %04X (%d)\n", cmd.Offset(), cmd.Offset()))
	sb.WriteString(fmt.Sprintf("    + Le:      %d bytes\n", cmd.Ne))
	writeResultLine(&sb, tx0)
	sb.WriteString("\n")

	writeFollowUps(&sb, r.Trace)
	writeDataOutcome(&sb, r.Data())

	return strings.TrimRight(sb.String(), "\n")
}
