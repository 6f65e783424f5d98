// Package validate classifies user replies during lead qualification and
// tracks per-field retry bookkeeping.
package validate

import (
	"regexp"
	"strings"
)

// DefaultRetryLimit is the number of re-prompts a field gets after failed
// extractions. The failure after the last re-prompt force-advances.
const DefaultRetryLimit = 3

// Closed lexicons for confirmation classification. Matching is by prefix so
// "yes, that's right" and "no that is wrong" both classify.
var (
	affirmativePrefixes = []string{
		"yes", "yeah", "yep", "yup", "correct", "right", "sure", "ok",
		"okay", "absolutely", "exactly", "that's right", "thats right",
		"si", "sí", "claro", "affirmative", "indeed", "perfect",
	}
	negativePrefixes = []string{
		"no", "nope", "nah", "wrong", "incorrect", "that's wrong",
		"thats wrong", "not right", "negative", "never",
	}
)

// Phrases that indicate the user is talking about the interface rather than
// answering the question ("the input is not showing").
var feedbackPhrases = []string{
	"not showing", "not working", "don't see", "dont see", "can't see",
	"cant see", "nothing happened", "the phone", "the input", "the box",
	"the form", "should", "supposed to", "where is", "where's",
}

var questionWordRE = regexp.MustCompile(`(?i)^\s*(who|what|when|where|why|how|can you|could you|would you|do you|are you|is this|is it)\b`)

// IsAffirmative reports whether the text reads as a "yes".
func IsAffirmative(text string) bool {
	return hasPrefix(text, affirmativePrefixes)
}

// IsNegative reports whether the text reads as a "no". Checked before
// IsAffirmative by callers, since "no" prefixes never overlap "yes" ones.
func IsNegative(text string) bool {
	return hasPrefix(text, negativePrefixes)
}

func hasPrefix(text string, lexicon []string) bool {
	normalized := strings.ToLower(strings.TrimSpace(text))
	normalized = strings.TrimLeft(normalized, ".,!? ")
	if normalized == "" {
		return false
	}
	for _, p := range lexicon {
		if normalized == p || strings.HasPrefix(normalized, p+" ") ||
			strings.HasPrefix(normalized, p+",") || strings.HasPrefix(normalized, p+".") ||
			strings.HasPrefix(normalized, p+"!") {
			return true
		}
	}
	return false
}

// IsFeedback reports whether the text is a UI complaint or a question rather
// than an answer, so collection nodes can re-show their control instead of
// mis-extracting the complaint as a field value.
func IsFeedback(text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return false
	}
	if strings.HasSuffix(trimmed, "?") {
		return true
	}
	if questionWordRE.MatchString(trimmed) {
		return true
	}
	lower := strings.ToLower(trimmed)
	for _, p := range feedbackPhrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// Increment returns a copy of counters with the given field bumped by one.
// The input map is never mutated; nil is treated as empty.
func Increment(counters map[string]int, field string) map[string]int {
	out := make(map[string]int, len(counters)+1)
	for k, v := range counters {
		out[k] = v
	}
	out[field]++
	return out
}

// ReachedLimit reports whether the field has used up its retry budget, so
// the next failure must force-advance instead of re-prompting.
// A limit <= 0 falls back to DefaultRetryLimit.
func ReachedLimit(counters map[string]int, field string, limit int) bool {
	if limit <= 0 {
		limit = DefaultRetryLimit
	}
	return counters[field] >= limit
}

// ExceededLimit reports whether the field has gone past its retry budget,
// meaning a failure arrived after the last allowed re-prompt.
// A limit <= 0 falls back to DefaultRetryLimit.
func ExceededLimit(counters map[string]int, field string, limit int) bool {
	if limit <= 0 {
		limit = DefaultRetryLimit
	}
	return counters[field] > limit
}
