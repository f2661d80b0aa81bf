package tacho

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/gregLibert/tachograph-card/pkg/iso7816"
	"github.com/gregLibert/tachograph-card/pkg/record"
	"github.com/gregLibert/tachograph-card/pkg/tlv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fullScript() []exchange {
	return []exchange{
		{cmd: cmdSelectDF, resp: swOK},
		{cmd: cmdSelectEF, resp: swOK},
		{cmd: cmdReadCard, resp: withSW(cardIdentificationBytes(), swOK)},
		{cmd: cmdReadHolder, resp: withSW(holderIdentificationBytes(), swOK)},
	}
}

func TestSession_Run(t *testing.T) {
	client, card := newStubClient(t, fullScript()...)

	id, err := NewSession(client).Run()
	require.NoError(t, err)
	require.True(t, card.done(), "all four commands must be sent")

	assert.Equal(t, byte(0x11), id.Card.IssuingMemberState)
	assert.Equal(t, "1234567890123456", id.Card.CardNumber)
	authority, err := id.Card.AuthorityName()
	require.NoError(t, err)
	assert.Equal(t, "KBA", authority)
	assert.Equal(t, time.Date(2020, 9, 13, 12, 26, 40, 0, time.UTC), id.Card.IssueDate)
	assert.Equal(t, time.Unix(1800000000, 0).UTC(), id.Card.ExpiryDate)

	assert.Equal(t, "DOE", id.Holder.Surname)
	assert.Equal(t, "JOHN", id.Holder.FirstNames)
	assert.Equal(t, Datef{Year: "1985", Month: "03", Day: "15"}, id.Holder.BirthDate)
	assert.Equal(t, "en", id.Holder.PreferredLanguage)
}

func TestSession_CardNumberOnly(t *testing.T) {
	raw := make([]byte, CardIdentificationLength)
	copy(raw[1:], "1234567890123456")

	client, _ := newStubClient(t,
		exchange{cmd: cmdSelectDF, resp: swOK},
		exchange{cmd: cmdSelectEF, resp: swOK},
		exchange{cmd: cmdReadCard, resp: withSW(raw, swOK)},
	)

	s := NewSession(client)
	for s.State() != StateIdentificationRead {
		require.NoError(t, s.Step())
	}

	// The record is kept once read; the holder read has not happened yet.
	id := s.result
	assert.Equal(t, "1234567890123456", id.Card.CardNumber)
	assert.True(t, id.Card.IssueDate.IsZero())
}

func TestSession_CardNumberWithUndecodableFiller(t *testing.T) {
	for _, fill := range []byte{0x0B, 0x0C, 0x11, 0x85, 0x7F, 0x0A, 0xFF} {
		t.Run(fmt.Sprintf("fill %02X", fill), func(t *testing.T) {
			raw := bytes.Repeat([]byte{fill}, CardIdentificationLength)
			copy(raw[1:], "1234567890123456")

			script := fullScript()
			script[2].resp = withSW(raw, swOK)
			client, card := newStubClient(t, script...)

			id, err := NewSession(client).Run()
			require.NoError(t, err)
			assert.True(t, card.done())
			assert.Equal(t, "1234567890123456", id.Card.CardNumber)
		})
	}
}

func TestCardIdentification_AuthorityName(t *testing.T) {
	var card CardIdentification
	card.IssuingAuthorityName[0] = 0x0B
	copy(card.IssuingAuthorityName[1:], "KBA")

	_, err := card.AuthorityName()
	assert.ErrorIs(t, err, record.ErrInvalidEncoding)
	assert.Equal(t, "0B4B4241"+strings.Repeat("00", 32)+" (undecodable)", card.IssuingAuthorityName.String())
}

func TestSession_StepOrder(t *testing.T) {
	client, _ := newStubClient(t, fullScript()...)
	s := NewSession(client)

	want := []State{StateDFSelected, StateEFSelected, StateIdentificationRead, StateHolderIdentificationRead, StateDone}
	for _, next := range want {
		require.NoError(t, s.Step())
		assert.Equal(t, next, s.State())
	}

	assert.ErrorIs(t, s.Step(), ErrSessionDone)
	assert.Len(t, s.Steps(), 4)
	assert.Equal(t, StateEFSelected, s.Steps()[2].From)
}

func TestSession_Gen2DF(t *testing.T) {
	script := fullScript()
	script[0].cmd = cmdSelectGen2DF

	client, card := newStubClient(t, script...)
	_, err := NewSession(client, WithDF(SmartTachographDF)).Run()
	require.NoError(t, err)
	assert.True(t, card.done())
}

func TestSession_WithClass(t *testing.T) {
	cls, err := iso7816.NewInterindustryClass(false, 1)
	require.NoError(t, err)

	client, _ := newStubClient(t,
		exchange{cmd: tlv.Hex("01 A4 04 0C 06 FF544143484F"), resp: swOK},
	)
	s := NewSession(client, WithClass(cls))
	require.NoError(t, s.Step())
	assert.Equal(t, StateDFSelected, s.State())
}

func TestSession_RejectsEFAsApplication(t *testing.T) {
	client, card := newStubClient(t)

	err := NewSession(client, WithDF(IdentificationEF)).Step()
	require.ErrorIs(t, err, iso7816.ErrInvalidParameter)
	assert.True(t, card.done(), "nothing may be sent")
}

func TestSession_Failures(t *testing.T) {
	tests := []struct {
		name      string
		script    []exchange
		wantState State
		check     func(t *testing.T, err error)
	}{
		{
			name:      "DF not found",
			script:    []exchange{{cmd: cmdSelectDF, resp: swFileNotFound}},
			wantState: StateStart,
			check: func(t *testing.T, err error) {
				var se *iso7816.StatusError
				require.True(t, errors.As(err, &se))
				assert.Equal(t, iso7816.SW_ERR_FILE_NOT_FOUND, se.Status)
				assert.Equal(t, iso7816.INS_SELECT, se.Command)
			},
		},
		{
			name: "Read refused",
			script: []exchange{
				{cmd: cmdSelectDF, resp: swOK},
				{cmd: cmdSelectEF, resp: swOK},
				{cmd: cmdReadCard, resp: swSecurityStatus},
			},
			wantState: StateEFSelected,
			check: func(t *testing.T, err error) {
				var se *iso7816.StatusError
				require.True(t, errors.As(err, &se))
				assert.Equal(t, iso7816.SW_ERR_SECURITY_STATUS_NOT_SAT, se.Status)
			},
		},
		{
			name: "Warning is not success",
			script: []exchange{
				{cmd: cmdSelectDF, resp: swOK},
				{cmd: cmdSelectEF, resp: tlv.Hex("6283")},
			},
			wantState: StateDFSelected,
			check: func(t *testing.T, err error) {
				var se *iso7816.StatusError
				require.True(t, errors.As(err, &se))
				assert.Equal(t, iso7816.SW_WARN_FILE_DEACTIVATED, se.Status)
			},
		},
		{
			name: "Truncated card identification",
			script: []exchange{
				{cmd: cmdSelectDF, resp: swOK},
				{cmd: cmdSelectEF, resp: swOK},
				{cmd: cmdReadCard, resp: withSW(cardIdentificationBytes()[:40], swOK)},
			},
			wantState: StateEFSelected,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, record.ErrTruncatedData)
			},
		},
		{
			name: "Invalid birth date",
			script: []exchange{
				{cmd: cmdSelectDF, resp: swOK},
				{cmd: cmdSelectEF, resp: swOK},
				{cmd: cmdReadCard, resp: withSW(cardIdentificationBytes(), swOK)},
				{cmd: cmdReadHolder, resp: withSW(append(holderIdentificationBytes()[:72], 0x19, 0x8A, 0x03, 0x15, 'e', 'n'), swOK)},
			},
			wantState: StateIdentificationRead,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, record.ErrInvalidBCDDigit)
				var fe *record.FieldError
				require.True(t, errors.As(err, &fe))
				assert.Equal(t, "BirthDate.Year", fe.Field)
				assert.Equal(t, 72, fe.Offset)
			},
		},
		{
			name: "Card removed",
			script: []exchange{
				{cmd: cmdSelectDF, resp: swOK},
				{cmd: cmdSelectEF, err: &iso7816.TransportError{Kind: iso7816.NoCard, Err: errors.New("removed")}},
			},
			wantState: StateDFSelected,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, iso7816.ErrNoCard)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, card := newStubClient(t, tt.script...)
			s := NewSession(client)

			id, err := s.Run()
			require.Error(t, err)
			assert.Nil(t, id)
			assert.True(t, card.done(), "no command may follow a failure")

			var stepErr *StepError
			require.True(t, errors.As(err, &stepErr))
			assert.Equal(t, tt.wantState, stepErr.State)
			assert.Equal(t, tt.wantState, s.State())
			tt.check(t, err)

			// Fail-fast: the session does not move on.
			assert.Same(t, err, s.Step())
		})
	}
}

func TestStepError_Message(t *testing.T) {
	err := &StepError{State: StateEFSelected, Err: record.ErrTruncatedData}
	assert.Equal(t, "read card identification (from EFSelected): truncated data", err.Error())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "HolderIdentificationRead", StateHolderIdentificationRead.String())
	assert.Equal(t, "State(42)", State(42).String())
}
