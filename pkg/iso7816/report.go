package iso7816

import (
	"fmt"
	"strings"

	"github.com/gregLibert/tachograph-card/pkg/tlv"
)

// writeResultLine renders the outcome of the first transaction of a trace.
func writeResultLine(sb *strings.Builder, tx Transaction) {
	if tx.Response == nil {
		sb.WriteString("    + Result:  no response\n")
		return
	}

	sw := tx.Response.Status
	sw1, sw2 := sw.SW1(), sw.SW2()

	resultMsg := "[OK]"
	resultDesc := "SW_NO_ERROR"

	switch {
	case sw1 == 0x61:
		resultDesc = fmt.Sprintf("%02X (%d) bytes still available", sw2, sw2)
	case sw1 == 0x6C:
		resultMsg = "[!!]"
		resultDesc = fmt.Sprintf("Wrong length, correct is %02X (%d)", sw2, sw2)
	case sw != SW_NO_ERROR:
		resultMsg = "[!!]"
		resultDesc = sw.Verbose()
	}

	sb.WriteString(fmt.Sprintf("    + Result:  [%02X %02X] %s %s\n", sw1, sw2, resultMsg, resultDesc))
}

// writeFollowUps describes the 61XX / 6CXX exchanges the client added.
func writeFollowUps(sb *strings.Builder, t Trace) {
	if len(t) < 2 {
		return
	}

	sb.WriteString(fmt.Sprintf("[2] Protocol: Auto-handling (%d steps)\n", len(t)))
	for _, tx := range t[1:] {
		opName := "RE-ISSUE (Corrected Le)"
		if tx.Command.Instruction.Raw == INS_GET_RESPONSE {
			opName = "GET RESPONSE"
		}
		status := "no response"
		if tx.Response != nil {
			status = fmt.Sprintf("%04X", uint16(tx.Response.Status))
		}
		sb.WriteString(fmt.Sprintf("    + %s, Le %d -> [%s]\n", opName, tx.Command.Ne, status))
	}
	sb.WriteString("\n")
}

func writeDataOutcome(sb *strings.Builder, data []byte) {
	sb.WriteString("[=] DATA OUTCOME:\n")
	if len(data) == 0 {
		sb.WriteString("    - No Data Received.\n")
		return
	}
	sb.WriteString(fmt.Sprintf("    + Length: %d bytes\n", len(data)))
	sb.WriteString(fmt.Sprintf("    + Dump:   %X\n", data))
	sb.WriteString(fmt.Sprintf("    + ASCII:  %q\n", tlv.MakeSafeASCII(data)))
}
