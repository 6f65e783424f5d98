package dialogue

// Phase is a named step in the lead-qualification dialogue graph.
type Phase string

const (
	PhaseGreeting     Phase = "greeting"
	PhaseName         Phase = "name"
	PhaseCompany      Phase = "company"
	PhasePainPoint    Phase = "painPoint"
	PhaseEmail        Phase = "email"
	PhaseEmailConfirm Phase = "emailConfirm"
	PhasePhone        Phase = "phone"
	PhasePhoneConfirm Phase = "phoneConfirm"
	PhaseQualified    Phase = "qualified"
	PhaseClosing      Phase = "closing"
	PhaseCompleted    Phase = "completed"
)

// phaseOrder defines the forward ordering of the dialogue graph. Rejection
// edges (emailConfirm -> email, phoneConfirm -> phone) are the only
// back-edges; every other path is strictly monotonic in this ordering.
var phaseOrder = []Phase{
	PhaseGreeting,
	PhaseName,
	PhaseCompany,
	PhasePainPoint,
	PhaseEmail,
	PhaseEmailConfirm,
	PhasePhone,
	PhasePhoneConfirm,
	PhaseQualified,
	PhaseClosing,
	PhaseCompleted,
}

var phaseIndex = func() map[Phase]int {
	m := make(map[Phase]int, len(phaseOrder))
	for i, p := range phaseOrder {
		m[p] = i
	}
	return m
}()

// Index returns the position of p in the forward ordering, or -1 for an
// unknown phase.
func (p Phase) Index() int {
	if i, ok := phaseIndex[p]; ok {
		return i
	}
	return -1
}

// Valid reports whether p names a known phase.
func (p Phase) Valid() bool {
	return p.Index() >= 0
}

// Terminal reports whether the dialogue is finished at p.
func (p Phase) Terminal() bool {
	return p == PhaseCompleted
}
