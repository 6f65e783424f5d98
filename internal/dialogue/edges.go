package dialogue

import "github.com/dioinnovo/voicelead/internal/validate"

// edgeFunc picks the next phase after a node's patch has been applied.
// Returning the current phase keeps the dialogue parked there.
type edgeFunc func(*State) Phase

func (m *Machine) greetingEdge(s *State) Phase {
	return PhaseName
}

func (m *Machine) nameEdge(s *State) Phase {
	if s.Lead.Name != "" || m.exhausted(s, FieldName) {
		return PhaseCompany
	}
	return PhaseName
}

func (m *Machine) companyEdge(s *State) Phase {
	if s.Lead.Company != "" || m.exhausted(s, FieldCompany) {
		return PhasePainPoint
	}
	return PhaseCompany
}

func (m *Machine) painPointEdge(s *State) Phase {
	if s.Lead.PainPoint != "" || m.exhausted(s, FieldPainPoint) {
		return PhaseEmail
	}
	return PhasePainPoint
}

func (m *Machine) emailEdge(s *State) Phase {
	if s.Lead.Email != "" {
		return PhaseEmailConfirm
	}
	if m.exhausted(s, FieldEmail) {
		return PhaseQualified
	}
	return PhaseEmail
}

func (m *Machine) emailConfirmEdge(s *State) Phase {
	switch {
	case s.EmailConfirmed:
		return PhasePhone
	case s.Lead.Email == "":
		// rejection cleared the value, collect it again
		return PhaseEmail
	case m.exhausted(s, FieldEmailConfirm):
		return PhaseQualified
	}
	return PhaseEmailConfirm
}

func (m *Machine) phoneEdge(s *State) Phase {
	if s.Lead.Phone != "" {
		return PhasePhoneConfirm
	}
	if m.exhausted(s, FieldPhone) {
		return PhaseQualified
	}
	return PhasePhone
}

func (m *Machine) phoneConfirmEdge(s *State) Phase {
	switch {
	case s.PhoneConfirmed:
		return PhaseQualified
	case s.Lead.Phone == "":
		return PhasePhone
	case m.exhausted(s, FieldPhoneConfirm):
		return PhaseQualified
	}
	return PhasePhoneConfirm
}

func (m *Machine) qualifiedEdge(s *State) Phase {
	if s.AwaitingInput {
		return PhaseQualified
	}
	return PhaseClosing
}

func (m *Machine) closingEdge(s *State) Phase {
	return PhaseCompleted
}

func (m *Machine) completedEdge(s *State) Phase {
	return PhaseCompleted
}

// exhausted is true only once a failure has landed past the retry budget.
// At exactly the limit the field still has its last re-prompt outstanding,
// so the phase must hold.
func (m *Machine) exhausted(s *State, field string) bool {
	return validate.ExceededLimit(s.Retries, field, m.retryLimit)
}
