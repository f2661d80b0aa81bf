// Package pcsc connects to a contact card through the platform PC/SC service
// and exposes it as an iso7816.Transmitter.
package pcsc

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ebfe/scard"
	"github.com/gregLibert/tachograph-card/pkg/iso7816"
)

// Options selects the reader to use.
type Options struct {
	// Reader is matched case-insensitively as a substring of the reader name.
	// Empty picks the first reader.
	Reader string
	// WaitForCard blocks Open until a card is inserted or ctx is done.
	WaitForCard bool
}

// Reader is a card connected through one PC/SC reader.
type Reader struct {
	ctx  *scard.Context
	card *scard.Card
	name string
}

// ListReaders returns the names of the readers known to the PC/SC service.
func ListReaders() ([]string, error) {
	ctx, err := scard.EstablishContext()
	if err != nil {
		return nil, fmt.Errorf("failed to establish context: %w", classify(err))
	}
	defer ctx.Release()

	readers, err := ctx.ListReaders()
	if err != nil {
		if errors.Is(err, scard.ErrNoReadersAvailable) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list readers: %w", classify(err))
	}
	return readers, nil
}

// Open connects to the card in the reader chosen by opts.
func Open(ctx context.Context, opts Options) (*Reader, error) {
	sctx, err := scard.EstablishContext()
	if err != nil {
		return nil, fmt.Errorf("failed to establish context: %w", classify(err))
	}

	r, err := open(ctx, sctx, opts)
	if err != nil {
		_ = sctx.Release()
		return nil, err
	}
	return r, nil
}

func open(ctx context.Context, sctx *scard.Context, opts Options) (*Reader, error) {
	readers, err := sctx.ListReaders()
	if err != nil {
		return nil, fmt.Errorf("failed to list readers: %w", classify(err))
	}

	name, err := pickReader(readers, opts.Reader)
	if err != nil {
		return nil, err
	}

	if opts.WaitForCard {
		if err := waitForCard(ctx, sctx, name); err != nil {
			return nil, err
		}
	}

	// Force T=0 or T=1 to avoid "Parameter Incorrect" errors
	card, err := sctx.Connect(name, scard.ShareShared, scard.ProtocolT0|scard.ProtocolT1)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", name, classify(err))
	}

	return &Reader{ctx: sctx, card: card, name: name}, nil
}

// Name is the PC/SC name of the reader in use.
func (r *Reader) Name() string {
	return r.name
}

// Transmit sends one raw command APDU and returns the raw response.
func (r *Reader) Transmit(cmd []byte) ([]byte, error) {
	resp, err := r.card.Transmit(cmd)
	if err != nil {
		return nil, classify(err)
	}
	return resp, nil
}

// Close disconnects the card and releases the PC/SC context.
func (r *Reader) Close() error {
	var errs []error
	if r.card != nil {
		if err := r.card.Disconnect(scard.LeaveCard); err != nil {
			errs = append(errs, fmt.Errorf("failed to disconnect card: %w", err))
		}
	}
	if r.ctx != nil {
		if err := r.ctx.Release(); err != nil {
			errs = append(errs, fmt.Errorf("failed to release context: %w", err))
		}
	}
	return errors.Join(errs...)
}

func pickReader(readers []string, want string) (string, error) {
	if len(readers) == 0 {
		return "", &iso7816.TransportError{Kind: iso7816.ReaderUnavailable, Err: errors.New("no smart card reader found")}
	}
	if want == "" {
		return readers[0], nil
	}

	needle := strings.ToLower(want)
	for _, name := range readers {
		if strings.Contains(strings.ToLower(name), needle) {
			return name, nil
		}
	}
	return "", &iso7816.TransportError{
		Kind: iso7816.ReaderUnavailable,
		Err:  fmt.Errorf("no reader matching %q among %q", want, readers),
	}
}

// statusWatcher is the part of *scard.Context used while waiting for a card.
type statusWatcher interface {
	GetStatusChange(states []scard.ReaderState, timeout time.Duration) error
	Cancel() error
}

// waitForCard blocks until a card is present in reader. Cancelling ctx
// interrupts the pending GetStatusChange.
func waitForCard(ctx context.Context, sctx statusWatcher, reader string) error {
	stop := context.AfterFunc(ctx, func() {
		_ = sctx.Cancel()
	})
	defer stop()

	states := []scard.ReaderState{
		{Reader: reader, CurrentState: scard.StateUnaware},
	}
	for {
		if states[0].EventState&scard.StatePresent != 0 {
			return nil
		}
		if err := sctx.GetStatusChange(states, -1); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return fmt.Errorf("waiting for card in %s: %w", reader, ctxErr)
			}
			return fmt.Errorf("waiting for card in %s: %w", reader, classify(err))
		}
		states[0].CurrentState = states[0].EventState
	}
}

// classify maps PC/SC failures onto transport error kinds.
func classify(err error) *iso7816.TransportError {
	kind := iso7816.IOFailure
	switch {
	case errors.Is(err, scard.ErrNoSmartcard),
		errors.Is(err, scard.ErrRemovedCard):
		kind = iso7816.NoCard
	case errors.Is(err, scard.ErrReaderUnavailable),
		errors.Is(err, scard.ErrUnknownReader),
		errors.Is(err, scard.ErrNoReadersAvailable),
		errors.Is(err, scard.ErrNoService):
		kind = iso7816.ReaderUnavailable
	}
	return &iso7816.TransportError{Kind: kind, Err: err}
}
