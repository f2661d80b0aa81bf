package tacho

import (
	"errors"
	"fmt"

	"github.com/gregLibert/tachograph-card/pkg/iso7816"
)

// State is a position in the fixed read sequence.
type State int

const (
	StateStart State = iota
	StateDFSelected
	StateEFSelected
	StateIdentificationRead
	StateHolderIdentificationRead
	StateDone
)

var stateNames = map[State]string{
	StateStart:                    "Start",
	StateDFSelected:               "DFSelected",
	StateEFSelected:               "EFSelected",
	StateIdentificationRead:       "IdentificationRead",
	StateHolderIdentificationRead: "HolderIdentificationRead",
	StateDone:                     "Done",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// action names the transition leaving s.
func (s State) action() string {
	switch s {
	case StateStart:
		return "select application DF"
	case StateDFSelected:
		return "select identification EF"
	case StateEFSelected:
		return "read card identification"
	case StateIdentificationRead:
		return "read card holder identification"
	default:
		return "finish"
	}
}

// ErrSessionDone is returned by Step once the sequence has completed.
var ErrSessionDone = errors.New("session already done")

// StepError reports the transition that aborted a session.
type StepError struct {
	State State
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s (from %s): %v", e.State.action(), e.State, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Step pairs a transition with the exchange it caused.
type Step struct {
	From  State
	Trace iso7816.Trace
}

// Session walks the card through the identification read sequence.
// A session is single use and not safe for concurrent use.
type Session struct {
	client *iso7816.Client
	cls    iso7816.Class
	df     FileSelector

	state  State
	err    error
	steps  []Step
	result Identification
}

// Option configures a Session.
type Option func(*Session)

// WithDF selects another application DF, e.g. SmartTachographDF.
func WithDF(df FileSelector) Option {
	return func(s *Session) {
		s.df = df
	}
}

// WithClass overrides the class byte of every command (logical channel).
func WithClass(cls iso7816.Class) Option {
	return func(s *Session) {
		s.cls = cls
	}
}

// NewSession prepares a session in StateStart. No command is sent yet.
func NewSession(client *iso7816.Client, opts ...Option) *Session {
	s := &Session{
		client: client,
		df:     TachographDF,
		state:  StateStart,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current position in the sequence.
func (s *Session) State() State {
	return s.state
}

// Steps returns the exchanges performed so far, including the failing one.
func (s *Session) Steps() []Step {
	return s.steps
}

// Step performs the single transition leaving the current state.
// After a failure the session stays put and keeps returning the same error.
func (s *Session) Step() error {
	if s.err != nil {
		return s.err
	}

	var err error
	switch s.state {
	case StateStart:
		err = s.selectDF()
	case StateDFSelected:
		err = s.selectEF()
	case StateEFSelected:
		err = s.readCardIdentification()
	case StateIdentificationRead:
		err = s.readHolderIdentification()
	case StateHolderIdentificationRead:
		s.state = StateDone
	default:
		return ErrSessionDone
	}

	if err != nil {
		s.err = &StepError{State: s.state, Err: err}
		return s.err
	}
	return nil
}

// Run drives the session to StateDone and returns the decoded records.
func (s *Session) Run() (*Identification, error) {
	for s.state != StateDone {
		if err := s.Step(); err != nil {
			return nil, err
		}
	}
	id := s.result
	return &id, nil
}

func (s *Session) selectDF() error {
	if s.df.Kind() != KindDF {
		return fmt.Errorf("%w: %s is not a DF", iso7816.ErrInvalidParameter, s.df)
	}
	cmd, err := s.df.Command(s.cls)
	if err != nil {
		return err
	}
	if _, err := s.exchange(cmd); err != nil {
		return err
	}
	s.state = StateDFSelected
	return nil
}

func (s *Session) selectEF() error {
	cmd, err := IdentificationEF.Command(s.cls)
	if err != nil {
		return err
	}
	if _, err := s.exchange(cmd); err != nil {
		return err
	}
	s.state = StateEFSelected
	return nil
}

func (s *Session) readCardIdentification() error {
	data, err := s.read(CardIdentificationOffset, CardIdentificationLength)
	if err != nil {
		return err
	}
	rec, err := decodeCardIdentification(data)
	if err != nil {
		return err
	}
	s.result.Card = rec
	s.state = StateIdentificationRead
	return nil
}

func (s *Session) readHolderIdentification() error {
	data, err := s.read(HolderIdentificationOffset, HolderIdentificationLength)
	if err != nil {
		return err
	}
	rec, err := decodeHolderIdentification(data)
	if err != nil {
		return err
	}
	s.result.Holder = rec
	s.state = StateHolderIdentificationRead
	return nil
}

func (s *Session) read(offset uint16, length byte) ([]byte, error) {
	cmd, err := iso7816.ReadBinary(s.cls, offset, length)
	if err != nil {
		return nil, err
	}
	trace, err := s.exchange(cmd)
	if err != nil {
		return nil, err
	}
	return trace.Data(), nil
}

// exchange sends cmd and accepts nothing but a final 9000.
func (s *Session) exchange(cmd *iso7816.CommandAPDU) (iso7816.Trace, error) {
	trace, err := s.client.Send(cmd)
	s.steps = append(s.steps, Step{From: s.state, Trace: trace})
	if err != nil {
		return nil, err
	}
	if err := trace.Check(); err != nil {
		return nil, err
	}
	return trace, nil
}
