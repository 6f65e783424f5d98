package dialogue

import (
	"fmt"

	"github.com/dioinnovo/voicelead/internal/extract"
	"github.com/dioinnovo/voicelead/internal/lead"
	"github.com/dioinnovo/voicelead/internal/validate"
)

// Assistant prompts. Collection prompts double as the acknowledgment of the
// previous answer so a single response covers both.
const (
	promptGreeting = "Hi! I'm the Innovoco assistant. I'd love to learn a bit about you and what you're working on. May I have your name?"

	promptAskName      = "May I have your name, please?"
	promptRetryName    = "Sorry, I didn't catch your name. Could you say it again?"
	promptSkipName     = "No worries, we can come back to that. What company are you with?"
	promptAskCompany   = "What company are you with?"
	promptRetryCompany = "Sorry, I missed that. What's the name of your company?"
	promptSkipCompany  = "That's alright. What's the biggest challenge you're hoping to solve?"
	promptAskPain      = "What's the biggest challenge you're hoping to solve?"
	promptRetryPain    = "Could you tell me a little more about the problem you're trying to solve?"
	promptSkipPain     = "We can dig into details later. What's the best email to reach you at?"

	promptAskEmail     = "What's the best email to reach you at? You can also type it below."
	promptRetryEmail   = "I didn't get a valid email. Could you spell it out, or type it in the box below?"
	promptAskPhone     = "Great. And what's a good phone number for you? You can type it below too."
	promptRetryPhone   = "I couldn't make out a full phone number. Could you repeat it, or type it below?"
	promptRetryConfirm = "Sorry, was that a yes or a no?"

	promptQualified = "Perfect, you're all set! Our team will reach out shortly to schedule your consultation. Is there anything else I can help you with?"
	promptDegraded  = "No problem, I have enough to get started. Our team will follow up to fill in the rest."
	promptClosing   = "Thanks so much for your time. Have a great day!"
	promptCompleted = "This conversation has wrapped up. Feel free to start a new one anytime."
)

// hasFreshInput reports whether the state carries a user transcript that no
// node has consumed yet.
func hasFreshInput(s *State) bool {
	return s.LastRole == RoleUser && s.LastTranscript != "" && !s.Consumed
}

// feedbackPatch re-shows the phase's UI control and re-prompts without
// charging a retry: the user was talking about the interface, not answering.
func feedbackPatch(prompt string, ui *UIAction) Patch {
	return Patch{
		Response:          prompt,
		UIAction:          ui,
		AwaitInput:        true,
		ConsumeTranscript: true,
	}
}

func (m *Machine) greetingNode(s *State) Patch {
	return Patch{
		Response:          promptGreeting,
		AwaitInput:        true,
		ConsumeTranscript: true,
	}
}

func (m *Machine) nameNode(s *State) Patch {
	if !hasFreshInput(s) {
		return Patch{Response: promptAskName, AwaitInput: true}
	}
	if validate.IsFeedback(s.LastTranscript) {
		return feedbackPatch(promptAskName, nil)
	}
	if name, ok := extract.Name(s.LastTranscript); ok {
		return Patch{
			Lead:              &lead.Info{Name: name},
			Response:          fmt.Sprintf("Nice to meet you, %s! What company are you with?", name),
			AwaitInput:        true,
			ConsumeTranscript: true,
		}
	}
	return m.retryOrAdvance(s, FieldName, promptRetryName, promptSkipName)
}

func (m *Machine) companyNode(s *State) Patch {
	if !hasFreshInput(s) {
		return Patch{Response: promptAskCompany, AwaitInput: true}
	}
	if validate.IsFeedback(s.LastTranscript) {
		return feedbackPatch(promptAskCompany, nil)
	}
	if company, ok := extract.Company(s.LastTranscript); ok {
		return Patch{
			Lead:              &lead.Info{Company: company},
			Response:          fmt.Sprintf("Got it, %s. What's the biggest challenge you're hoping to solve?", company),
			AwaitInput:        true,
			ConsumeTranscript: true,
		}
	}
	return m.retryOrAdvance(s, FieldCompany, promptRetryCompany, promptSkipCompany)
}

func (m *Machine) painPointNode(s *State) Patch {
	if !hasFreshInput(s) {
		return Patch{Response: promptAskPain, AwaitInput: true}
	}
	if validate.IsFeedback(s.LastTranscript) {
		return feedbackPatch(promptAskPain, nil)
	}
	if pain, ok := extract.PainPoint(s.LastTranscript); ok {
		return Patch{
			Lead:              &lead.Info{PainPoint: pain},
			Response:          "That's exactly the kind of problem we help with. " + promptAskEmail,
			UIAction:          &UIAction{Type: UIShowTextInput, InputType: InputEmail},
			AwaitInput:        true,
			ConsumeTranscript: true,
		}
	}
	return m.retryOrAdvance(s, FieldPainPoint, promptRetryPain, promptSkipPain)
}

func (m *Machine) emailNode(s *State) Patch {
	if !hasFreshInput(s) {
		return Patch{
			Response:   promptAskEmail,
			UIAction:   &UIAction{Type: UIShowTextInput, InputType: InputEmail},
			AwaitInput: true,
		}
	}
	if validate.IsFeedback(s.LastTranscript) {
		return feedbackPatch(promptAskEmail, &UIAction{Type: UIShowTextInput, InputType: InputEmail})
	}
	if email, ok := extract.Email(s.LastTranscript); ok {
		return Patch{
			Lead:              &lead.Info{Email: email},
			Response:          fmt.Sprintf("I have your email as %s, did I get that right?", email),
			UIAction:          &UIAction{Type: UIHideTextInput},
			AwaitInput:        true,
			ConsumeTranscript: true,
		}
	}
	retries := validate.Increment(s.Retries, FieldEmail)
	if validate.ReachedLimit(s.Retries, FieldEmail, m.retryLimit) {
		return Patch{
			Retries:           retries,
			Err:               "degraded: email not collected",
			UIAction:          &UIAction{Type: UIHideTextInput},
			ConsumeTranscript: true,
		}
	}
	return Patch{
		Retries:           retries,
		Response:          promptRetryEmail,
		UIAction:          &UIAction{Type: UIShowTextInput, InputType: InputEmail},
		AwaitInput:        true,
		ConsumeTranscript: true,
	}
}

func (m *Machine) emailConfirmNode(s *State) Patch {
	if !hasFreshInput(s) {
		return Patch{
			Response:   fmt.Sprintf("Just to confirm, your email is %s, is that correct?", s.Lead.Email),
			AwaitInput: true,
		}
	}
	switch {
	case validate.IsNegative(s.LastTranscript):
		return Patch{
			ClearEmail:        true,
			Response:          "My mistake. " + promptAskEmail,
			UIAction:          &UIAction{Type: UIShowTextInput, InputType: InputEmail},
			AwaitInput:        true,
			ConsumeTranscript: true,
		}
	case validate.IsAffirmative(s.LastTranscript):
		return Patch{
			EmailConfirmed:    boolPtr(true),
			Response:          promptAskPhone,
			UIAction:          &UIAction{Type: UIShowTextInput, InputType: InputPhone},
			AwaitInput:        true,
			ConsumeTranscript: true,
		}
	case validate.IsFeedback(s.LastTranscript):
		return feedbackPatch(
			fmt.Sprintf("Just to confirm, your email is %s, is that correct?", s.Lead.Email), nil)
	default:
		retries := validate.Increment(s.Retries, FieldEmailConfirm)
		if validate.ReachedLimit(s.Retries, FieldEmailConfirm, m.retryLimit) {
			return Patch{
				Retries:           retries,
				Err:               "degraded: email not confirmed",
				ConsumeTranscript: true,
			}
		}
		return Patch{
			Retries:           retries,
			Response:          promptRetryConfirm,
			AwaitInput:        true,
			ConsumeTranscript: true,
		}
	}
}

func (m *Machine) phoneNode(s *State) Patch {
	if !hasFreshInput(s) {
		return Patch{
			Response:   promptAskPhone,
			UIAction:   &UIAction{Type: UIShowTextInput, InputType: InputPhone},
			AwaitInput: true,
		}
	}
	if validate.IsFeedback(s.LastTranscript) {
		return feedbackPatch(promptAskPhone, &UIAction{Type: UIShowTextInput, InputType: InputPhone})
	}
	if phone, ok := extract.Phone(s.LastTranscript); ok {
		return Patch{
			Lead:              &lead.Info{Phone: phone},
			Response:          fmt.Sprintf("I have your number as %s, is that correct?", extract.FormatPhone(phone)),
			UIAction:          &UIAction{Type: UIHideTextInput},
			AwaitInput:        true,
			ConsumeTranscript: true,
		}
	}
	retries := validate.Increment(s.Retries, FieldPhone)
	if validate.ReachedLimit(s.Retries, FieldPhone, m.retryLimit) {
		return Patch{
			Retries:           retries,
			Err:               "degraded: phone not collected",
			UIAction:          &UIAction{Type: UIHideTextInput},
			ConsumeTranscript: true,
		}
	}
	return Patch{
		Retries:           retries,
		Response:          promptRetryPhone,
		UIAction:          &UIAction{Type: UIShowTextInput, InputType: InputPhone},
		AwaitInput:        true,
		ConsumeTranscript: true,
	}
}

func (m *Machine) phoneConfirmNode(s *State) Patch {
	if !hasFreshInput(s) {
		return Patch{
			Response:   fmt.Sprintf("Just to confirm, your number is %s, is that correct?", extract.FormatPhone(s.Lead.Phone)),
			AwaitInput: true,
		}
	}
	switch {
	case validate.IsNegative(s.LastTranscript):
		return Patch{
			ClearPhone:        true,
			Response:          "Let's fix that. " + promptAskPhone,
			UIAction:          &UIAction{Type: UIShowTextInput, InputType: InputPhone},
			AwaitInput:        true,
			ConsumeTranscript: true,
		}
	case validate.IsAffirmative(s.LastTranscript):
		return Patch{
			PhoneConfirmed:    boolPtr(true),
			ConsumeTranscript: true,
		}
	case validate.IsFeedback(s.LastTranscript):
		return feedbackPatch(
			fmt.Sprintf("Just to confirm, your number is %s, is that correct?", extract.FormatPhone(s.Lead.Phone)), nil)
	default:
		retries := validate.Increment(s.Retries, FieldPhoneConfirm)
		if validate.ReachedLimit(s.Retries, FieldPhoneConfirm, m.retryLimit) {
			return Patch{
				Retries:           retries,
				Err:               "degraded: phone not confirmed",
				ConsumeTranscript: true,
			}
		}
		return Patch{
			Retries:           retries,
			Response:          promptRetryConfirm,
			AwaitInput:        true,
			ConsumeTranscript: true,
		}
	}
}

func (m *Machine) qualifiedNode(s *State) Patch {
	if hasFreshInput(s) {
		// anything the caller says at this point winds the call down
		return Patch{ConsumeTranscript: true}
	}
	response := promptQualified
	if !s.Qualified() {
		response = promptDegraded
	}
	return Patch{
		Response:   response,
		UIAction:   &UIAction{Type: UIHideTextInput},
		AwaitInput: true,
	}
}

func (m *Machine) closingNode(s *State) Patch {
	return Patch{
		Response:          promptClosing,
		ConsumeTranscript: true,
	}
}

func (m *Machine) completedNode(s *State) Patch {
	return Patch{
		Response:          promptCompleted,
		ConsumeTranscript: true,
	}
}

// retryOrAdvance re-prompts on a failed extraction until the field's retry
// budget is spent, then emits the degraded skip prompt. The budget check is
// on the counter before this failure, so every allowed re-prompt happens
// before the skip; the final increment pushes the counter past the limit,
// which is what the phase edge reads as exhaustion.
func (m *Machine) retryOrAdvance(s *State, field, retryPrompt, skipPrompt string) Patch {
	retries := validate.Increment(s.Retries, field)
	if validate.ReachedLimit(s.Retries, field, m.retryLimit) {
		return Patch{
			Retries:           retries,
			Response:          skipPrompt,
			AwaitInput:        true,
			ConsumeTranscript: true,
		}
	}
	return Patch{
		Retries:           retries,
		Response:          retryPrompt,
		AwaitInput:        true,
		ConsumeTranscript: true,
	}
}
