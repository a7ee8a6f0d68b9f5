package intelligence

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Tunable heuristics for interpreting technician replies.
const (
	// PlausibleLaborMin and PlausibleLaborMax bound numbers accepted from
	// mixed-content sentences that carry no hour unit.
	PlausibleLaborMin = 0.5
	PlausibleLaborMax = 20.0

	// ImplicitConfirmMaxLen is the rune length under which an unrecognized
	// reply counts as accepting the current estimate.
	ImplicitConfirmMaxLen = 30
)

var (
	unitNumberRe = regexp.MustCompile(`(?i)` + numberPattern + `\s*(?:hours?|hrs?|horas?|часов|часа|час|ч|h)(?:[^\p{L}]|$)`)
	bareNumberRe = regexp.MustCompile(`^\s*` + numberPattern + `\s*$`)
	anyNumberRe  = regexp.MustCompile(numberPattern)
)

// confirmationRules implement the unit / bare / embedded number cascade.
var confirmationRules = laborRuleChain{
	{name: "unit_number", pattern: unitNumberRe, extract: firstGroupHours},
	{name: "bare_number", pattern: bareNumberRe, extract: firstGroupHours},
}

var affirmativeWords = map[string]bool{
	// English
	"confirm": true, "confirmed": true, "ok": true, "okay": true, "yes": true,
	"yep": true, "yeah": true, "agree": true, "agreed": true, "accept": true,
	"accepted": true, "good": true, "fine": true, "correct": true, "right": true,
	"approve": true, "approved": true,
	// Russian
	"да": true, "ок": true, "подтверждаю": true, "согласен": true, "согласна": true,
	"верно": true, "правильно": true, "хорошо": true, "принято": true, "норм": true,
	// Spanish
	"sí": true, "si": true, "acepto": true, "correcto": true, "bien": true,
	"vale": true, "confirmo": true, "aprobado": true,
}

var affirmativePhrases = []string{"de acuerdo", "looks good", "sounds good"}

var negativeWords = map[string]bool{
	"no": true, "not": true, "nope": true, "don't": true, "dont": true,
	"нет": true, "не": true, "nunca": true,
}

// InterpretConfirmation decides whether a technician reply sets the labor
// total. current is the estimate on record, nil when none exists. It never
// guesses: anything ambiguous yields false and the caller must ask again.
func InterpretConfirmation(technicianText string, current *float64) (float64, bool) {
	text := strings.TrimSpace(technicianText)
	if text == "" {
		return 0, false
	}

	if v, _, ok := confirmationRules.apply(text); ok {
		return v, true
	}

	numbers := anyNumberRe.FindAllString(text, -1)
	for _, n := range numbers {
		v, ok := parseHours(n)
		if ok && v >= PlausibleLaborMin && v <= PlausibleLaborMax {
			return v, true
		}
	}
	if len(numbers) > 0 {
		// A number we cannot trust as labor; do not read the rest as a yes.
		return 0, false
	}

	if current == nil || *current <= 0 {
		return 0, false
	}

	words := tokenize(text)
	for _, w := range words {
		if negativeWords[w] {
			return 0, false
		}
	}
	if isAffirmative(text, words) {
		return *current, true
	}
	if utf8.RuneCountInString(text) < ImplicitConfirmMaxLen {
		return *current, true
	}
	return 0, false
}

func isAffirmative(text string, words []string) bool {
	for _, w := range words {
		if affirmativeWords[w] {
			return true
		}
	}
	lower := strings.ToLower(text)
	for _, p := range affirmativePhrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// tokenize lowercases and splits on anything that is not a letter or an
// apostrophe.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})
}
