package formatter

import (
	"fmt"
	"strings"

	"github.com/blackredfox/rv-service-desk-v1.0-sub002/internal/domain"
	"github.com/blackredfox/rv-service-desk-v1.0-sub002/internal/service"
)

// FormatTurn renders the assistant side of one technician turn.
func FormatTurn(res *service.TurnResult) string {
	var b strings.Builder
	b.WriteString(SourceBadge(res.Source))
	b.WriteString("\n")
	b.WriteString(indentWrapped(res.Reply, 2, wrapWidth))
	b.WriteString("\n")

	if res.Report != nil && res.Report.Repair != nil && res.Report.Repair.Changed() {
		b.WriteString("\n")
		b.WriteString(FormatRepairDiff(res.Report))
	}

	var notes []string
	if res.Estimate != nil {
		notes = append(notes, fmt.Sprintf("estimate %s", Hours(*res.Estimate)))
	}
	if res.LaborConfirmed != nil {
		notes = append(notes, StyleGreen.Render(fmt.Sprintf("labor confirmed %s", Hours(*res.LaborConfirmed))))
	}
	b.WriteString("\n  ")
	b.WriteString(StateIndicator(res.State))
	if len(notes) > 0 {
		b.WriteString(Dim("  " + strings.Join(notes, " · ")))
	}
	b.WriteString("\n")
	return b.String()
}

// FormatChatWelcome renders the banner for interactive chat.
func FormatChatWelcome(c *domain.Case) string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(StylePurple.Render("  rvdesk") + StyleDim.Render(" diagnostic chat"))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("  ─────────────────────────────") + "\n")
	b.WriteString("  " + Bold(c.Title))
	if c.Unit != "" {
		b.WriteString(Dim(" · " + c.Unit))
	}
	b.WriteString("\n\n")
	b.WriteString(StyleDim.Render("  Describe what you see. Ask for the final report when the repair is done.") + "\n")
	b.WriteString(StyleDim.Render("  /report asks for the report, /cancel drops a pending one, /quit exits.") + "\n\n")
	return b.String()
}
