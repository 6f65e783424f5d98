package dialogue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dioinnovo/voicelead/internal/lead"
)

// Role identifies the speaker of a transcript.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// UIActionType tells the rendering layer what to do with the text input.
type UIActionType string

const (
	UIShowTextInput UIActionType = "show_text_input"
	UIHideTextInput UIActionType = "hide_text_input"
)

// InputType narrows the text input to a specific field widget.
type InputType string

const (
	InputEmail InputType = "email"
	InputPhone InputType = "phone"
)

// UIAction instructs the UI layer to show or hide a typed input control.
type UIAction struct {
	Type      UIActionType `json:"type"`
	InputType InputType    `json:"input_type,omitempty"`
}

// Retry-counter field keys, one per collectible field.
const (
	FieldName         = "name"
	FieldCompany      = "company"
	FieldPainPoint    = "painPoint"
	FieldEmail        = "email"
	FieldEmailConfirm = "emailConfirm"
	FieldPhone        = "phone"
	FieldPhoneConfirm = "phoneConfirm"
)

// State is the checkpointed conversation state for one session. It is owned
// by the orchestrator and mutated only through node patches.
type State struct {
	SessionID      string         `json:"session_id"`
	Phase          Phase          `json:"phase"`
	Lead           lead.Info      `json:"lead_info"`
	EmailConfirmed bool           `json:"email_confirmed"`
	PhoneConfirmed bool           `json:"phone_confirmed"`
	Retries        map[string]int `json:"retries,omitempty"`
	LastTranscript string         `json:"last_transcript,omitempty"`
	LastRole       Role           `json:"last_role,omitempty"`
	// Consumed marks LastTranscript as already processed by a node, so a
	// resumed run does not re-extract from stale input.
	Consumed bool      `json:"transcript_consumed"`
	UIAction *UIAction `json:"ui_action,omitempty"`
	Response string    `json:"ai_response,omitempty"`
	Err      string    `json:"error,omitempty"`
	// AwaitingInput is true when the last run stopped at a node that needs
	// a fresh user transcript before it can transition.
	AwaitingInput bool      `json:"awaiting_input"`
	StartedAt     time.Time `json:"started_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// NewState creates the initial state for a session.
func NewState(sessionID string) *State {
	now := time.Now().UTC()
	return &State{
		SessionID: sessionID,
		Phase:     PhaseGreeting,
		Retries:   map[string]int{},
		StartedAt: now,
		UpdatedAt: now,
	}
}

// Qualified reports whether every required field has been collected and
// confirmed.
func (s *State) Qualified() bool {
	return s.Lead.Email != "" && s.EmailConfirmed &&
		s.Lead.Phone != "" && s.PhoneConfirmed
}

// Clone returns a deep copy of the state.
func (s *State) Clone() *State {
	out := *s
	out.Retries = make(map[string]int, len(s.Retries))
	for k, v := range s.Retries {
		out.Retries[k] = v
	}
	if s.UIAction != nil {
		ua := *s.UIAction
		out.UIAction = &ua
	}
	return &out
}

// Marshal serializes the state for checkpointing.
func (s *State) Marshal() ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("dialogue: marshal state: %w", err)
	}
	return data, nil
}

// UnmarshalState restores a checkpointed state.
func UnmarshalState(data []byte) (*State, error) {
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("dialogue: unmarshal state: %w", err)
	}
	if s.Retries == nil {
		s.Retries = map[string]int{}
	}
	return &s, nil
}

// Patch is the partial update returned by a node function. Zero-value
// fields leave the corresponding state untouched.
type Patch struct {
	Lead           *lead.Info
	EmailConfirmed *bool
	PhoneConfirmed *bool
	Retries        map[string]int
	UIAction       *UIAction
	ClearUIAction  bool
	// ClearEmail and ClearPhone drop a captured value the caller rejected
	// during confirmation. Merge never removes fields, so rejection needs
	// an explicit reset.
	ClearEmail bool
	ClearPhone bool
	Response   string
	Err        string
	// AwaitInput stops the run after routing: the node needs a fresh user
	// transcript before the dialogue can progress.
	AwaitInput bool
	// ConsumeTranscript marks the current transcript as processed.
	ConsumeTranscript bool
}

// apply folds a node patch into a copy of the state.
func (s *State) apply(p Patch) *State {
	out := s.Clone()
	if p.Lead != nil {
		out.Lead = out.Lead.Merge(*p.Lead)
	}
	if p.ClearEmail {
		out.Lead.Email = ""
		out.EmailConfirmed = false
	}
	if p.ClearPhone {
		out.Lead.Phone = ""
		out.PhoneConfirmed = false
	}
	if p.EmailConfirmed != nil {
		out.EmailConfirmed = *p.EmailConfirmed
	}
	if p.PhoneConfirmed != nil {
		out.PhoneConfirmed = *p.PhoneConfirmed
	}
	if p.Retries != nil {
		out.Retries = p.Retries
	}
	if p.UIAction != nil {
		out.UIAction = p.UIAction
	} else if p.ClearUIAction {
		out.UIAction = nil
	}
	if p.Response != "" {
		out.Response = p.Response
	}
	if p.Err != "" {
		out.Err = p.Err
	}
	if p.ConsumeTranscript {
		out.Consumed = true
	}
	out.AwaitingInput = p.AwaitInput
	out.UpdatedAt = time.Now().UTC()
	return out
}

func boolPtr(b bool) *bool { return &b }
