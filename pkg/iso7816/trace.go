package iso7816

// TRANSACTION:
// One Command APDU sent by the terminal followed by one Response APDU from the card.
//
// TRACE:
// The chronological list of transactions behind one logical command. A SELECT
// answered with '61 XX' is followed by a GET RESPONSE, a READ BINARY answered
// with '6C XX' is re-issued with the corrected Le. The final transaction decides
// the outcome.

// Transaction represents a completed Command-Response pair.
type Transaction struct {
	Command  *CommandAPDU
	Response *ResponseAPDU
}

// IsSuccess checks if the transaction ended with a successful status.
// It returns false if the response is missing.
func (t *Transaction) IsSuccess() bool {
	if t.Response == nil {
		return false
	}
	return t.Response.Status.IsSuccess()
}

// Trace is a sequence of transactions (Command-Response pairs).
type Trace []Transaction

// Last returns the final transaction of the trace.
// Returns nil if the trace is empty.
func (t Trace) Last() *Transaction {
	if len(t) == 0 {
		return nil
	}
	return &t[len(t)-1]
}

// IsSuccess checks if the FINAL transaction in the trace was successful.
func (t Trace) IsSuccess() bool {
	last := t.Last()
	if last == nil {
		return false
	}
	return last.IsSuccess()
}

// Data returns the response data of the final transaction.
func (t Trace) Data() []byte {
	last := t.Last()
	if last == nil || last.Response == nil {
		return nil
	}
	return last.Response.Data
}

// Check returns a *StatusError unless the final status word is exactly 9000.
// A trailing 61XX means the data was not fully retrieved and counts as a failure.
func (t Trace) Check() error {
	last := t.Last()
	if last == nil || last.Response == nil {
		return &StatusError{Status: SW_ERR_UNKNOWN}
	}
	if last.Response.Status != SW_NO_ERROR {
		var ins InsCode
		if len(t) > 0 && t[0].Command != nil {
			ins = t[0].Command.Instruction.Raw
		}
		return &StatusError{Command: ins, Status: last.Response.Status}
	}
	return nil
}
