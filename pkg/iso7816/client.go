package iso7816

import (
	"fmt"
)

// CLIENT & PROTOCOL LOGIC:
// The Client is the only place where bytes meet the Transmitter. It handles the
// ISO 7816-3 transport behaviors that T=0 readers expose to the application:
//
// 1. "61 XX" (Response Available): a GET RESPONSE with Le = XX is sent.
// 2. "6C XX" (Wrong Length): the command is re-sent with Le = XX.
//
// Send() returns every exchange as a Trace. The client never retries on
// transport failures and never interprets the final status word; that is
// left to Trace.Check.

// maxExchanges bounds the 61XX/6CXX follow-ups of one logical command.
const maxExchanges = 8

// Client manages the high-level communication with the card.
type Client struct {
	Card Transmitter
}

// NewClient creates a new Client instance.
func NewClient(card Transmitter) *Client {
	return &Client{Card: card}
}

// Send transmits a command and follows 61XX / 6CXX answers.
func (c *Client) Send(cmd *CommandAPDU) (Trace, error) {
	var trace Trace

	next := cmd
	for len(trace) < maxExchanges {
		resp, err := c.exchange(next)
		if err != nil {
			return trace, err
		}
		trace = append(trace, Transaction{Command: next, Response: resp})

		sw1, sw2 := resp.Status.SW1(), resp.Status.SW2()
		switch sw1 {
		case 0x61:
			// GET RESPONSE stays on the logical channel of the command it completes.
			respCls := cmd.Class
			respCls.IsChained = false
			next = NewCommandAPDU(respCls, mustInstruction(INS_GET_RESPONSE), 0x00, 0x00, nil, shortLe(sw2))
		case 0x6C:
			retry := *cmd
			retry.Ne = shortLe(sw2)
			next = &retry
		default:
			return trace, nil
		}
	}

	return trace, fmt.Errorf("%s: card kept requesting follow-up exchanges (%d)", cmd.Instruction.Raw, maxExchanges)
}

func (c *Client) exchange(cmd *CommandAPDU) (*ResponseAPDU, error) {
	rawCmd, err := cmd.Bytes()
	if err != nil {
		return nil, fmt.Errorf("encoding error: %w", err)
	}

	rawResp, err := c.Card.Transmit(rawCmd)
	if err != nil {
		return nil, fmt.Errorf("transmission error: %w", asTransportError(err))
	}

	return ParseResponseAPDU(rawResp)
}

// shortLe maps an SW2 length hint to Ne; 00 stands for 256.
func shortLe(sw2 byte) int {
	if sw2 == 0 {
		return MaxShortLe
	}
	return int(sw2)
}
