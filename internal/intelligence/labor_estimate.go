package intelligence

import "regexp"

// englishHourUnit covers the unit spellings the assistant prompt produces.
const englishHourUnit = `(?:hours?|hrs?|h)\b`

// statedEstimateRules only match an estimate written out as a labor total,
// the form the assistant uses when it puts a number to the technician.
var statedEstimateRules = laborRuleChain{
	{
		name:    "estimated_total_labor",
		pattern: regexp.MustCompile(`(?i)estimated\s+total\s+labor\s*[:\-–]?\s*` + numberPattern + `\s*` + englishHourUnit),
		extract: firstGroupHours,
	},
	{
		name:    "total_labor",
		pattern: regexp.MustCompile(`(?i)total\s+labor\s*[:\-–]?\s*` + numberPattern + `\s*` + englishHourUnit),
		extract: firstGroupHours,
	},
}

// estimateRules run strictest first so paraphrase drift only reaches the
// loose proximity rules when nothing structured is present.
var estimateRules = append(append(laborRuleChain{}, statedEstimateRules...),
	laborRule{
		name:    "labor_proximity",
		pattern: regexp.MustCompile(`(?i)(?:labor|estimate)\D{0,40}?` + numberPattern),
		extract: firstGroupHours,
	},
	laborRule{
		name:    "labor_proximity_trailing",
		pattern: regexp.MustCompile(`(?i)` + numberPattern + `\s*(?:hours?|hrs?|h)?\s*(?:of\s+)?(?:labor|estimated)`),
		extract: firstGroupHours,
	},
)

// ExtractEstimate finds the labor-hour estimate in assistant-authored text.
func ExtractEstimate(assistantText string) (float64, bool) {
	v, _, ok := estimateRules.apply(assistantText)
	return v, ok
}

// ExtractStatedEstimate is ExtractEstimate restricted to explicit labor
// totals. A number that merely sits near "labor" or "estimate" in running
// text (a voltage in a labor-check question) does not count.
func ExtractStatedEstimate(assistantText string) (float64, bool) {
	v, _, ok := statedEstimateRules.apply(assistantText)
	return v, ok
}
