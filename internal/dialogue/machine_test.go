package dialogue

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drive(t *testing.T, m *Machine, s *State, transcript string) *State {
	t.Helper()
	next, err := m.Resume(s, transcript)
	require.NoError(t, err)
	return next
}

func TestRunScriptedConversation(t *testing.T) {
	m := New()

	s, err := m.Run(NewState("sess-1"))
	require.NoError(t, err)
	assert.Equal(t, PhaseName, s.Phase)
	assert.True(t, s.AwaitingInput)
	assert.NotEmpty(t, s.Response)

	s = drive(t, m, s, "My name is John Smith")
	assert.Equal(t, PhaseCompany, s.Phase)
	assert.Equal(t, "John Smith", s.Lead.Name)

	s = drive(t, m, s, "I'm with Acme")
	assert.Equal(t, PhasePainPoint, s.Phase)
	assert.Equal(t, "Acme", s.Lead.Company)

	s = drive(t, m, s, "We spend hours on manual data entry every week")
	assert.Equal(t, PhaseEmail, s.Phase)
	assert.NotEmpty(t, s.Lead.PainPoint)
	require.NotNil(t, s.UIAction)
	assert.Equal(t, UIShowTextInput, s.UIAction.Type)
	assert.Equal(t, InputEmail, s.UIAction.InputType)

	s = drive(t, m, s, "john@acme.com")
	assert.Equal(t, PhaseEmailConfirm, s.Phase)
	assert.Equal(t, "john@acme.com", s.Lead.Email)
	require.NotNil(t, s.UIAction)
	assert.Equal(t, UIHideTextInput, s.UIAction.Type)

	s = drive(t, m, s, "yes")
	assert.Equal(t, PhasePhone, s.Phase)
	assert.True(t, s.EmailConfirmed)
	require.NotNil(t, s.UIAction)
	assert.Equal(t, InputPhone, s.UIAction.InputType)

	s = drive(t, m, s, "5551234567")
	assert.Equal(t, PhasePhoneConfirm, s.Phase)
	assert.Equal(t, "5551234567", s.Lead.Phone)
	assert.Contains(t, s.Response, "(555) 123-4567")

	s = drive(t, m, s, "yes")
	assert.Equal(t, PhaseQualified, s.Phase)
	assert.True(t, s.PhoneConfirmed)
	assert.True(t, s.Qualified())
	assert.True(t, s.AwaitingInput)
	assert.Empty(t, s.Err)

	assert.Equal(t, "John Smith", s.Lead.Name)
	assert.Equal(t, "Acme", s.Lead.Company)
	assert.NotEmpty(t, s.Lead.PainPoint)

	s = drive(t, m, s, "no that's everything, thanks")
	assert.Equal(t, PhaseCompleted, s.Phase)
	assert.False(t, s.AwaitingInput)
	assert.NotEmpty(t, s.Response)
}

func TestRunRetriesThenSkipsName(t *testing.T) {
	m := New()
	s, err := m.Run(NewState("sess-2"))
	require.NoError(t, err)

	// every failure up to and including the limit gets a re-prompt
	for i := 1; i <= m.RetryLimit(); i++ {
		s = drive(t, m, s, "mmmh")
		assert.Equal(t, PhaseName, s.Phase, "failure %d of %d should re-prompt", i, m.RetryLimit())
		assert.Equal(t, promptRetryName, s.Response)
		assert.Equal(t, i, s.Retries[FieldName])
	}

	// the failure after the last re-prompt force-advances
	s = drive(t, m, s, "mmmh")
	assert.Equal(t, PhaseCompany, s.Phase)
	assert.Empty(t, s.Lead.Name)
	assert.Equal(t, m.RetryLimit()+1, s.Retries[FieldName])
}

func TestRunEmailExhaustionDegrades(t *testing.T) {
	m := New(WithRetryLimit(2))
	s := NewState("sess-3")
	s.Phase = PhaseEmail
	s.Lead.Name = "Jane Doe"
	s.Consumed = true

	s = drive(t, m, s, "mumble mumble")
	assert.Equal(t, PhaseEmail, s.Phase)

	s = drive(t, m, s, "mumble mumble")
	assert.Equal(t, PhaseEmail, s.Phase, "second failure still within the retry budget")
	assert.Equal(t, 2, s.Retries[FieldEmail])

	s = drive(t, m, s, "mumble mumble")
	assert.Equal(t, PhaseQualified, s.Phase)
	assert.True(t, s.AwaitingInput)
	assert.False(t, s.Qualified())
	assert.Contains(t, s.Err, "degraded")
	require.NotNil(t, s.UIAction)
	assert.Equal(t, UIHideTextInput, s.UIAction.Type)
}

func TestRunEmailRejectionLoops(t *testing.T) {
	m := New()
	s := NewState("sess-4")
	s.Phase = PhaseEmailConfirm
	s.Lead.Email = "wrong@acme.com"
	s.Consumed = true

	s = drive(t, m, s, "no, that's wrong")
	assert.Equal(t, PhaseEmail, s.Phase)
	assert.Empty(t, s.Lead.Email)
	assert.False(t, s.EmailConfirmed)
	require.NotNil(t, s.UIAction)
	assert.Equal(t, UIShowTextInput, s.UIAction.Type)
	assert.Equal(t, InputEmail, s.UIAction.InputType)

	s = drive(t, m, s, "it's jane@acme.com")
	assert.Equal(t, PhaseEmailConfirm, s.Phase)
	assert.Equal(t, "jane@acme.com", s.Lead.Email)

	s = drive(t, m, s, "yes")
	assert.Equal(t, PhasePhone, s.Phase)
	assert.True(t, s.EmailConfirmed)
}

func TestRunPhoneRejectionLoops(t *testing.T) {
	m := New()
	s := NewState("sess-5")
	s.Phase = PhasePhoneConfirm
	s.Lead.Email = "jane@acme.com"
	s.EmailConfirmed = true
	s.Lead.Phone = "5550000000"
	s.Consumed = true

	s = drive(t, m, s, "no")
	assert.Equal(t, PhasePhone, s.Phase)
	assert.Empty(t, s.Lead.Phone)

	s = drive(t, m, s, "555 123 4567")
	assert.Equal(t, PhasePhoneConfirm, s.Phase)
	assert.Equal(t, "5551234567", s.Lead.Phone)

	s = drive(t, m, s, "yep")
	assert.Equal(t, PhaseQualified, s.Phase)
	assert.True(t, s.Qualified())
}

func TestRunRedirectsPhoneWithoutConfirmedEmail(t *testing.T) {
	m := New()

	// checkpointed state that skipped ahead illegally
	s := NewState("sess-6")
	s.Phase = PhasePhone
	s.Lead.Email = "jane@acme.com"
	s.Consumed = true

	out, err := m.Run(s)
	require.NoError(t, err)
	assert.Equal(t, PhaseEmailConfirm, out.Phase)
	assert.Contains(t, out.Response, "jane@acme.com")

	// no email captured at all goes back to collection
	s2 := NewState("sess-7")
	s2.Phase = PhasePhoneConfirm
	s2.Consumed = true

	out2, err := m.Run(s2)
	require.NoError(t, err)
	assert.Equal(t, PhaseEmail, out2.Phase)
}

func TestRunFeedbackDoesNotChargeRetry(t *testing.T) {
	m := New()
	s := NewState("sess-8")
	s.Phase = PhaseEmail
	s.Consumed = true

	s = drive(t, m, s, "the box is not showing up for me")
	assert.Equal(t, PhaseEmail, s.Phase)
	assert.Zero(t, s.Retries[FieldEmail])
	require.NotNil(t, s.UIAction)
	assert.Equal(t, UIShowTextInput, s.UIAction.Type)

	s = drive(t, m, s, "where do I type it?")
	assert.Equal(t, PhaseEmail, s.Phase)
	assert.Zero(t, s.Retries[FieldEmail])
}

func TestRunUnclassifiedConfirmationRetries(t *testing.T) {
	m := New()
	s := NewState("sess-9")
	s.Phase = PhaseEmailConfirm
	s.Lead.Email = "jane@acme.com"
	s.Consumed = true

	s = drive(t, m, s, "banana")
	assert.Equal(t, PhaseEmailConfirm, s.Phase)
	assert.Equal(t, 1, s.Retries[FieldEmailConfirm])
	assert.True(t, strings.Contains(s.Response, "yes") || strings.Contains(s.Response, "no"))

	s = drive(t, m, s, "yes please")
	assert.Equal(t, PhasePhone, s.Phase)
	assert.True(t, s.EmailConfirmed)
}

func TestRunConfirmationRetriesThroughLimit(t *testing.T) {
	m := New()
	s := NewState("sess-13")
	s.Phase = PhaseEmailConfirm
	s.Lead.Email = "jane@acme.com"
	s.Consumed = true

	for i := 1; i <= m.RetryLimit(); i++ {
		s = drive(t, m, s, "banana")
		assert.Equal(t, PhaseEmailConfirm, s.Phase, "failure %d of %d should re-ask", i, m.RetryLimit())
		assert.Equal(t, promptRetryConfirm, s.Response)
	}

	s = drive(t, m, s, "banana")
	assert.Equal(t, PhaseQualified, s.Phase)
	assert.Contains(t, s.Err, "not confirmed")
	assert.False(t, s.Qualified())
}

func TestRunCompletedIsTerminal(t *testing.T) {
	m := New()
	s := NewState("sess-10")
	s.Phase = PhaseCompleted
	s.Consumed = true

	out, err := m.Run(s)
	require.NoError(t, err)
	assert.Equal(t, PhaseCompleted, out.Phase)
	assert.False(t, out.AwaitingInput)
	assert.NotEmpty(t, out.Response)
}

func TestRunRejectsUnknownPhase(t *testing.T) {
	m := New()
	s := NewState("sess-11")
	s.Phase = Phase("bogus")

	_, err := m.Run(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown phase")
}

func TestRunDoesNotMutateInput(t *testing.T) {
	m := New()
	in := NewState("sess-12")
	out, err := m.Run(in)
	require.NoError(t, err)

	assert.Equal(t, PhaseGreeting, in.Phase)
	assert.False(t, in.AwaitingInput)
	assert.NotEqual(t, in.Phase, out.Phase)
}
