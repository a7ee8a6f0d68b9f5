package formatter

import (
	"fmt"
	"strings"

	"github.com/blackredfox/rv-service-desk-v1.0-sub002/internal/reportdiff"
	"github.com/blackredfox/rv-service-desk-v1.0-sub002/internal/service"
)

// FormatReportOutcome renders the result of validating a drafted report.
func FormatReportOutcome(o *service.ReportOutcome) string {
	var b strings.Builder
	switch {
	case o.PreconditionUnmet:
		b.WriteString(StyleYellow.Render("No report produced."))
		b.WriteString(Dim(fmt.Sprintf(" Missing: %s", o.Missing)))
		b.WriteString("\n")
		return b.String()
	case o.Valid():
		b.WriteString(StyleGreen.Render(fmt.Sprintf("✔ Labor matches the confirmed %s", Hours(o.ConfirmedHours))))
		b.WriteString("\n")
	default:
		b.WriteString(StyleRed.Render("✖ Labor check failed"))
		b.WriteString("\n")
		for _, v := range o.Violations {
			b.WriteString(fmt.Sprintf("  %s %s\n", StyleRed.Render(string(v.Code)), v.Message()))
		}
	}
	if o.ComputedSum > 0 {
		b.WriteString(Dim(fmt.Sprintf("  itemized sum %s, confirmed %s", Hours(o.ComputedSum), Hours(o.ConfirmedHours))))
		b.WriteString("\n")
	}
	return b.String()
}

// FormatRepairDiff shows the lines the repair pass changed.
func FormatRepairDiff(o *service.ReportOutcome) string {
	if o.Repair == nil {
		return ""
	}
	added, removed := o.Repair.Counts()
	var b strings.Builder
	b.WriteString(Dim(fmt.Sprintf("  Report corrected (+%d -%d):", added, removed)))
	b.WriteString("\n")
	for _, l := range o.Repair.Changes() {
		switch l.Op {
		case reportdiff.OpAdded:
			b.WriteString("  " + StyleGreen.Render("+ "+l.Text) + "\n")
		case reportdiff.OpRemoved:
			b.WriteString("  " + StyleRed.Render("- "+l.Text) + "\n")
		}
	}
	return b.String()
}
