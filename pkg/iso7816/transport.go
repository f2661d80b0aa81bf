package iso7816

import (
	"errors"
	"fmt"
)

// Transmitter abstracts the physical card connection.
// Implementations exchange one raw C-APDU for one raw R-APDU (data + SW1 SW2),
// blocking until the card answers. Failures should be reported as *TransportError.
type Transmitter interface {
	Transmit(cmd []byte) ([]byte, error)
}

// TransportErrorKind classifies why an exchange with the card could not happen.
type TransportErrorKind int

const (
	IOFailure TransportErrorKind = iota
	NoCard
	ReaderUnavailable
)

// Sentinels matched by errors.Is against a *TransportError of the same kind.
var (
	ErrIOFailure         = errors.New("i/o failure")
	ErrNoCard            = errors.New("no card present")
	ErrReaderUnavailable = errors.New("reader unavailable")
)

func (k TransportErrorKind) sentinel() error {
	switch k {
	case NoCard:
		return ErrNoCard
	case ReaderUnavailable:
		return ErrReaderUnavailable
	default:
		return ErrIOFailure
	}
}

func (k TransportErrorKind) String() string {
	return k.sentinel().Error()
}

// TransportError wraps a failure of the underlying reader.
type TransportError struct {
	Kind TransportErrorKind
	Err  error
}

func (e *TransportError) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *TransportError) Unwrap() []error {
	return []error{e.Kind.sentinel(), e.Err}
}

// asTransportError keeps typed transport errors and classifies anything else as an I/O failure.
func asTransportError(err error) *TransportError {
	var te *TransportError
	if errors.As(err, &te) {
		return te
	}
	return &TransportError{Kind: IOFailure, Err: err}
}
