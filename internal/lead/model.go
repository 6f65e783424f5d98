package lead

import "time"

// Info holds the structured fields collected during lead qualification.
// All fields are optional; empty string means "not yet collected".
type Info struct {
	Name      string `json:"name,omitempty"`
	Company   string `json:"company,omitempty"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	PainPoint string `json:"pain_point,omitempty"`
	Budget    string `json:"budget,omitempty"`
	Timeline  string `json:"timeline,omitempty"`
}

// Merge overlays non-empty fields from other onto a copy of i.
// Existing values are never dropped, only replaced by newer non-empty ones.
func (i Info) Merge(other Info) Info {
	if other.Name != "" {
		i.Name = other.Name
	}
	if other.Company != "" {
		i.Company = other.Company
	}
	if other.Email != "" {
		i.Email = other.Email
	}
	if other.Phone != "" {
		i.Phone = other.Phone
	}
	if other.PainPoint != "" {
		i.PainPoint = other.PainPoint
	}
	if other.Budget != "" {
		i.Budget = other.Budget
	}
	if other.Timeline != "" {
		i.Timeline = other.Timeline
	}
	return i
}

// Record is a qualified lead persisted after a conversation reaches the
// qualified phase.
type Record struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"session_id"`
	Info        Info      `json:"info"`
	QualifiedAt time.Time `json:"qualified_at"`
}
