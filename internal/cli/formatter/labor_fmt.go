package formatter

import (
	"fmt"
	"strings"

	"github.com/blackredfox/rv-service-desk-v1.0-sub002/internal/service"
)

// FormatLaborStatus renders the labor ledger entry of a case.
func FormatLaborStatus(st *service.LaborStatus) string {
	var b strings.Builder
	if !st.Known {
		b.WriteString(Dim("No labor estimate or confirmation recorded yet.") + "\n")
	} else {
		est := Dim("--")
		if st.Entry.HasEstimate() {
			est = Hours(st.Entry.EstimatedHours)
		}
		conf := StyleYellow.Render("not confirmed")
		if st.Entry.IsConfirmed() {
			conf = StyleGreen.Render(Hours(st.Entry.ConfirmedHours))
			if st.Entry.ConfirmedAt != nil {
				conf += Dim(" (" + HumanTimestamp(*st.Entry.ConfirmedAt) + ")")
			}
		}
		b.WriteString(fmt.Sprintf("%s  %s\n", Bold("Estimated:"), est))
		b.WriteString(fmt.Sprintf("%s  %s\n", Bold("Confirmed:"), conf))
	}
	if st.Pending != nil {
		b.WriteString(fmt.Sprintf("\n%s %s\n",
			StyleYellow.Render("Report pending:"),
			Dim(fmt.Sprintf("waiting for %s since %s", st.Pending.Missing, HumanTimestamp(st.Pending.RequestedAt)))))
	}
	b.WriteString("\n" + StateIndicator(st.State) + "\n")
	return RenderBox("Labor", b.String())
}
