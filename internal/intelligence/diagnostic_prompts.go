package intelligence

import (
	"fmt"
	"sort"
	"strings"

	"github.com/blackredfox/rv-service-desk-v1.0-sub002/internal/domain"
)

const diagnoseSystemPrompt = `You are a diagnostic assistant for RV service technicians.

Guide the technician one step at a time toward the root cause. Ask a single,
concrete question or give a single test to perform per reply. Keep replies short;
the technician is reading on a phone in a service bay.

Facts already established are listed under "Known facts". NEVER ask again about
a fact that is already listed there.

When you have enough information to propose a repair, state the labor estimate
on its own line exactly as:
Estimated total labor: N hours

You must output ONLY a JSON object with these fields:
{
  "reply": "text shown to the technician",
  "facts": {"short_fact_key": "value learned from the technician's last message"}
}
Output ONLY the JSON object, no markdown fences, no text before or after.`

const reportSystemPrompt = `You write the final repair report for an RV service case.

Use ONLY the facts and conversation provided. Structure:
Complaint:
Diagnosis:
Repair performed:
Labor:
- <step description> N hr
(one line per labor step, each starting with "- ")
Total labor: N hr

The confirmed total labor is %s hours. The itemized steps MUST add up to exactly
this total, and the "Total labor" line MUST state exactly this total.
Output plain text only.`

const repairSystemPrompt = `You correct labor figures in an RV repair report.

The confirmed total labor is %s hours. Rewrite the report so that every itemized
labor line ("- <step> N hr") sums to exactly the confirmed total and the
"Total labor: N hr" line states exactly the confirmed total. Change nothing else.
Output the full corrected report as plain text only.`

func buildReportSystemPrompt(confirmedHours float64) string {
	return fmt.Sprintf(reportSystemPrompt, domain.FormatHours(confirmedHours))
}

func buildRepairSystemPrompt(confirmedHours float64) string {
	return fmt.Sprintf(repairSystemPrompt, domain.FormatHours(confirmedHours))
}

func buildCaseHeader(title, unit string, facts map[string]string) string {
	var b strings.Builder
	b.WriteString("## Case\n")
	b.WriteString(title)
	if unit != "" {
		b.WriteString(" (unit: ")
		b.WriteString(unit)
		b.WriteString(")")
	}
	b.WriteString("\n\n## Known facts\n")
	if len(facts) == 0 {
		b.WriteString("(none)\n")
	}
	for _, key := range sortedKeys(facts) {
		fmt.Fprintf(&b, "- %s: %s\n", key, facts[key])
	}
	return b.String()
}

func buildRepairUserPrompt(draft string, check LaborCheck) string {
	var b strings.Builder
	b.WriteString("## Problems found\n")
	for _, v := range check.Violations {
		b.WriteString("- ")
		b.WriteString(v.Message())
		b.WriteString("\n")
	}
	b.WriteString("\n## Report\n")
	b.WriteString(draft)
	return b.String()
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
