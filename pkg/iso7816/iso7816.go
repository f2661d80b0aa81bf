/*
Package iso7816 implements the parts of ISO/IEC 7816-3 and 7816-4 needed to read
transparent files from a contact smart card.

# Fundamentals

The communication with a smart card is strictly synchronous:
 1. The Host sends a Command APDU (Header + Optional Body).
 2. The Card processes it and returns a Response APDU (Optional Body + Trailer SW1/SW2).

Commands are encoded in short form only (Lc up to 255, Le up to 256).

# File Access

Reading a file is stateful on the card: a SELECT makes a DF or EF current and
READ BINARY then reads from the current EF at a given offset.

	cls := iso7816.Class{}
	client := iso7816.NewClient(card)

	sel, _ := iso7816.SelectDF(cls, []byte{0xFF, 0x54, 0x41, 0x43, 0x48, 0x4F})
	trace, err := client.Send(sel)
	if err != nil {
	    log.Fatal(err) // transport failure
	}
	if err := trace.Check(); err != nil {
	    log.Fatal(err) // card answered with something other than 9000
	}

# Status Words

  - 0x9000: Success.
  - 0x61XX: XX bytes still available, fetched by the Client with GET RESPONSE.
  - 0x6CXX: Wrong Le, the Client re-issues the command with Le = XX.
  - Other: warnings (62XX, 63XX) and errors (64XX-6FXX), reported as *StatusError by Trace.Check.

# Transport

The Client talks to the card through a Transmitter. Transmit failures surface as
*TransportError, matching ErrNoCard, ErrReaderUnavailable or ErrIOFailure with errors.Is.
*/
package iso7816
