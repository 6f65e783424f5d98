package dialogue

import (
	"fmt"

	"github.com/dioinnovo/voicelead/internal/validate"
)

// nodeFunc runs the phase's logic against the current state and returns a
// partial update. Nodes never mutate the state they receive.
type nodeFunc func(*State) Patch

// maxSteps bounds a single run. The graph has no cycles other than the
// confirm-rejection back-edges, so a legitimate run always settles well
// under this.
const maxSteps = 16

// Machine drives a session through the qualification phases. It is
// stateless apart from its configuration and safe for concurrent use;
// all per-conversation data lives in the State it is handed.
type Machine struct {
	retryLimit int
	nodes      map[Phase]nodeFunc
	edges      map[Phase]edgeFunc
}

// Option configures a Machine.
type Option func(*Machine)

// WithRetryLimit overrides the per-field retry ceiling.
func WithRetryLimit(n int) Option {
	return func(m *Machine) {
		if n > 0 {
			m.retryLimit = n
		}
	}
}

// New builds the dialogue machine with every phase wired to its node and
// outgoing edge.
func New(opts ...Option) *Machine {
	m := &Machine{retryLimit: validate.DefaultRetryLimit}
	for _, opt := range opts {
		opt(m)
	}
	m.nodes = map[Phase]nodeFunc{
		PhaseGreeting:     m.greetingNode,
		PhaseName:         m.nameNode,
		PhaseCompany:      m.companyNode,
		PhasePainPoint:    m.painPointNode,
		PhaseEmail:        m.emailNode,
		PhaseEmailConfirm: m.emailConfirmNode,
		PhasePhone:        m.phoneNode,
		PhasePhoneConfirm: m.phoneConfirmNode,
		PhaseQualified:    m.qualifiedNode,
		PhaseClosing:      m.closingNode,
		PhaseCompleted:    m.completedNode,
	}
	m.edges = map[Phase]edgeFunc{
		PhaseGreeting:     m.greetingEdge,
		PhaseName:         m.nameEdge,
		PhaseCompany:      m.companyEdge,
		PhasePainPoint:    m.painPointEdge,
		PhaseEmail:        m.emailEdge,
		PhaseEmailConfirm: m.emailConfirmEdge,
		PhasePhone:        m.phoneEdge,
		PhasePhoneConfirm: m.phoneConfirmEdge,
		PhaseQualified:    m.qualifiedEdge,
		PhaseClosing:      m.closingEdge,
		PhaseCompleted:    m.completedEdge,
	}
	return m
}

// RetryLimit returns the configured per-field retry ceiling.
func (m *Machine) RetryLimit() int { return m.retryLimit }

// Run advances the state until a node needs user input or the dialogue
// reaches a terminal phase. The input state is never mutated.
func (m *Machine) Run(s *State) (*State, error) {
	if s == nil {
		return nil, fmt.Errorf("dialogue: nil state")
	}
	cur := s.Clone()
	for i := 0; i < maxSteps; i++ {
		if !cur.Phase.Valid() {
			return nil, fmt.Errorf("dialogue: unknown phase %q", cur.Phase)
		}
		m.enforcePhaseInvariant(cur)

		patch := m.nodes[cur.Phase](cur)
		next := cur.apply(patch)
		next.Phase = m.edges[cur.Phase](next)
		cur = next

		if cur.AwaitingInput {
			return cur, nil
		}
		if cur.Phase.Terminal() {
			return cur, nil
		}
	}
	return nil, fmt.Errorf("dialogue: run exceeded %d steps at phase %q", maxSteps, cur.Phase)
}

// Resume records a fresh user transcript on the state and runs the machine.
func (m *Machine) Resume(s *State, transcript string) (*State, error) {
	if s == nil {
		return nil, fmt.Errorf("dialogue: nil state")
	}
	cur := s.Clone()
	cur.LastTranscript = transcript
	cur.LastRole = RoleUser
	cur.Consumed = false
	cur.Response = ""
	return m.Run(cur)
}

// IsAwaitingInput reports whether the last run stopped to wait on the user.
func (m *Machine) IsAwaitingInput(s *State) bool {
	return s != nil && s.AwaitingInput
}

// enforcePhaseInvariant redirects the dialogue when persisted state would
// otherwise enter the phone phases without a confirmed email. Phone contact
// is only collected after the email is locked in.
func (m *Machine) enforcePhaseInvariant(s *State) {
	if s.Phase != PhasePhone && s.Phase != PhasePhoneConfirm {
		return
	}
	if s.EmailConfirmed {
		return
	}
	if s.Lead.Email != "" {
		s.Phase = PhaseEmailConfirm
		return
	}
	s.Phase = PhaseEmail
}
