// Package extract maps free-form speech transcripts to typed lead fields.
// All extractors are deterministic and side-effect free: they return the
// extracted value and true, or ("", false) when the text is ambiguous.
package extract

import (
	"regexp"
	"strings"
	"unicode"
)

// ---------- package-level compiled regexes ----------

var (
	greetingRE = regexp.MustCompile(`(?i)^\s*(hi|hey|hello|howdy|good\s+(morning|afternoon|evening)|yo|sup|what'?s up)\b[\s!.,]*$`)

	namePhraseRE = []*regexp.Regexp{
		regexp.MustCompile(`(?i)my name is\s+([\p{L}][\p{L}'-]*(?:\s+[\p{L}][\p{L}'-]*){0,2})`),
		regexp.MustCompile(`(?i)\bi'?m\s+([\p{L}][\p{L}'-]*(?:\s+[\p{L}][\p{L}'-]*){0,2})(?:\s*$|[,.!])`),
		regexp.MustCompile(`(?i)\bi am\s+([\p{L}][\p{L}'-]*(?:\s+[\p{L}][\p{L}'-]*){0,2})(?:\s*$|[,.!])`),
		regexp.MustCompile(`(?i)\bthis is\s+([\p{L}][\p{L}'-]*(?:\s+[\p{L}][\p{L}'-]*){0,2})`),
		regexp.MustCompile(`(?i)\bcall me\s+([\p{L}][\p{L}'-]*(?:\s+[\p{L}][\p{L}'-]*){0,2})`),
	}

	// Standalone "First Last" reply, both words capitalized.
	bareFullNameRE = regexp.MustCompile(`^\s*([A-Z][a-z'-]+\s+[A-Z][a-z'-]+)\s*[.!]?\s*$`)

	companyPhraseRE = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bi work (?:at|for)\s+([\p{L}\d][\p{L}\d&.' -]{1,60}?)(?:\s*$|[,.!])`),
		regexp.MustCompile(`(?i)\bi'?m (?:with|from|at)\s+([\p{L}\d][\p{L}\d&.' -]{1,60}?)(?:\s*$|[,.!])`),
		regexp.MustCompile(`(?i)\bmy company is\s+([\p{L}\d][\p{L}\d&.' -]{1,60}?)(?:\s*$|[,.!])`),
		regexp.MustCompile(`(?i)\bwe'?re called\s+([\p{L}\d][\p{L}\d&.' -]{1,60}?)(?:\s*$|[,.!])`),
	}

	emailRE = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)

	formattedPhoneRE = regexp.MustCompile(`\(?\d{3}\)?[\s.\-]?\d{3}[\s.\-]?\d{4}`)
	digitRunRE       = regexp.MustCompile(`\d+`)
	digitGapRE       = regexp.MustCompile(`(\d)[\s.\-]+(\d)`)
)

// Words that indicate the "company" capture is actually a statement of
// intent, not an employer name.
var companyStopWords = []string{
	"automate", "automating", "looking", "look", "want", "wanting",
	"need", "needing", "trying", "interested", "hoping", "searching",
}

// Keywords that mark an utterance as a pain-point description.
var painPointKeywords = []string{
	"need", "needs", "challenge", "challenges", "struggle", "struggling",
	"problem", "problems", "pain", "automate", "automation", "automating",
	"manual", "manually", "inefficient", "time-consuming", "time consuming",
	"bottleneck", "issue", "issues", "difficult", "slow", "tedious",
	"waste", "wasting", "help with", "improve", "streamline",
}

const minPainPointLen = 15

// spokenDigits maps number words heard in transcripts to digits.
var spokenDigits = map[string]string{
	"zero": "0", "oh": "0", "one": "1", "two": "2", "three": "3",
	"four": "4", "five": "5", "six": "6", "seven": "7", "eight": "8",
	"nine": "9",
}

// ---------- name ----------

// Name extracts a person's name from a transcript. Bare greetings and
// short single tokens are rejected as false positives.
func Name(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if text == "" || greetingRE.MatchString(text) {
		return "", false
	}

	for _, re := range namePhraseRE {
		if m := re.FindStringSubmatch(text); len(m) >= 2 {
			candidate := cleanName(m[1])
			if isPlausibleName(candidate) {
				return candidate, true
			}
		}
	}

	if m := bareFullNameRE.FindStringSubmatch(text); len(m) >= 2 {
		candidate := cleanName(m[1])
		if isPlausibleName(candidate) {
			return candidate, true
		}
	}

	return "", false
}

func cleanName(raw string) string {
	fields := strings.Fields(strings.TrimSpace(raw))
	// Drop trailing filler the phrase patterns tend to swallow
	// ("this is Robert Johnson calling").
trim:
	for len(fields) > 0 {
		switch strings.ToLower(strings.Trim(fields[len(fields)-1], ".,!?")) {
		case "calling", "speaking", "here", "again":
			fields = fields[:len(fields)-1]
		default:
			break trim
		}
	}
	for i, f := range fields {
		fields[i] = capitalize(strings.Trim(f, ".,!?"))
	}
	return strings.Join(fields, " ")
}

// isPlausibleName filters out single short tokens ("ok", "yes") that the
// name patterns occasionally capture from filler speech.
func isPlausibleName(name string) bool {
	if name == "" {
		return false
	}
	if !strings.Contains(name, " ") && len(name) < 5 {
		return false
	}
	lower := strings.ToLower(name)
	switch lower {
	case "sorry", "ready", "going", "gonna", "doing", "really", "trying", "calling", "interested", "wondering":
		return false
	}
	return true
}

func capitalize(w string) string {
	if w == "" {
		return w
	}
	runes := []rune(w)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

// ---------- company ----------

// Company extracts an employer or company name from phrases like
// "I work at X" or "I'm with X".
func Company(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", false
	}

	for _, re := range companyPhraseRE {
		m := re.FindStringSubmatch(text)
		if len(m) < 2 {
			continue
		}
		candidate := strings.TrimSpace(strings.Trim(m[1], ".,!? "))
		if candidate == "" {
			continue
		}
		if containsCompanyStopWord(candidate) {
			continue
		}
		return candidate, true
	}
	return "", false
}

func containsCompanyStopWord(candidate string) bool {
	lower := strings.ToLower(candidate)
	for _, w := range companyStopWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

// ---------- pain point ----------

// PainPoint returns the verbatim utterance when it reads like a business
// problem: it must carry a need/challenge/automation keyword and exceed a
// minimum length.
func PainPoint(text string) (string, bool) {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) < minPainPointLen {
		return "", false
	}
	lower := strings.ToLower(trimmed)
	for _, kw := range painPointKeywords {
		if strings.Contains(lower, kw) {
			return trimmed, true
		}
	}
	return "", false
}

// ---------- email ----------

// Email extracts the first email address from the text, lowercased.
func Email(text string) (string, bool) {
	m := emailRE.FindString(text)
	if m == "" {
		return "", false
	}
	return strings.ToLower(m), true
}

// ---------- phone ----------

// Phone extracts a US phone number, accepting digit and spoken-word forms
// ("five five five, one two three four..."). The canonical output is the
// 10-digit string with any leading country 1 stripped.
func Phone(text string) (string, bool) {
	normalized := normalizeSpokenDigits(text)

	// Digits may be separated by spaces or dashes ("5 5 5 1 2 3 ..." after
	// spoken-word normalization). Join adjacent groups, then look for a run
	// of exactly 10 digits, or 11 with a leading 1.
	joined := normalized
	for digitGapRE.MatchString(joined) {
		joined = digitGapRE.ReplaceAllString(joined, "$1$2")
	}
	for _, run := range digitRunRE.FindAllString(joined, -1) {
		if canonical, ok := canonicalTenDigits(run); ok {
			return canonical, true
		}
	}

	// Punctuated forms like (555) 123-4567 survive the join with their
	// parentheses intact; match them directly.
	if m := formattedPhoneRE.FindString(normalized); m != "" {
		if canonical, ok := canonicalTenDigits(onlyDigits(m)); ok {
			return canonical, true
		}
	}

	return "", false
}

func canonicalTenDigits(digits string) (string, bool) {
	switch {
	case len(digits) == 10:
		return digits, true
	case len(digits) == 11 && digits[0] == '1':
		return digits[1:], true
	default:
		return "", false
	}
}

// normalizeSpokenDigits rewrites spoken number words as digits so that the
// phone patterns can match voice transcripts.
func normalizeSpokenDigits(text string) string {
	words := strings.Fields(strings.ToLower(text))
	out := make([]string, 0, len(words))
	for _, w := range words {
		stripped := strings.Trim(w, ".,!?")
		if d, ok := spokenDigits[stripped]; ok {
			out = append(out, d)
			continue
		}
		out = append(out, w)
	}
	return strings.Join(out, " ")
}

func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FormatPhone renders a canonical digit string for display as
// (NNN) NNN-NNNN, or +1 (NNN) NNN-NNNN for 11-digit input.
func FormatPhone(digits string) string {
	d := onlyDigits(digits)
	switch len(d) {
	case 10:
		return "(" + d[0:3] + ") " + d[3:6] + "-" + d[6:10]
	case 11:
		if d[0] != '1' {
			return digits
		}
		return "+1 (" + d[1:4] + ") " + d[4:7] + "-" + d[7:11]
	default:
		return digits
	}
}
