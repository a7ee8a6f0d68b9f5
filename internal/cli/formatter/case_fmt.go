package formatter

import (
	"fmt"
	"strings"

	"github.com/blackredfox/rv-service-desk-v1.0-sub002/internal/domain"
)

// FormatCaseList renders cases as a table inside a box.
func FormatCaseList(cases []*domain.Case) string {
	if len(cases) == 0 {
		return Dim("No cases found.") + "\n"
	}
	headers := []string{"ID", "TITLE", "UNIT", "STATUS", "UPDATED"}
	rows := make([][]string, 0, len(cases))
	for _, c := range cases {
		title := c.Title
		if len(title) > 40 {
			title = title[:37] + "..."
		}
		unit := c.Unit
		if unit == "" {
			unit = "--"
		}
		rows = append(rows, []string{
			TruncID(c.ID),
			title,
			Dim(unit),
			CaseStatusPill(c.Status),
			HumanTimestamp(c.UpdatedAt),
		})
	}
	return RenderBox("Cases", RenderTable(headers, rows)) + "\n"
}

// FormatCaseHeader is the one-line summary printed above chats and
// transcripts.
func FormatCaseHeader(c *domain.Case, state domain.SessionState) string {
	var b strings.Builder
	b.WriteString(Bold(c.Title))
	if c.Unit != "" {
		b.WriteString(Dim(" · " + c.Unit))
	}
	b.WriteString("  ")
	b.WriteString(StateIndicator(state))
	b.WriteString("\n")
	b.WriteString(Dim(fmt.Sprintf("case %s", c.ID)))
	b.WriteString("\n")
	return b.String()
}

// FormatCaseCreated confirms a new case and how to continue it.
func FormatCaseCreated(c *domain.Case) string {
	short := c.ID
	if len(short) > 8 {
		short = short[:8]
	}
	return fmt.Sprintf("%s %s\n%s\n",
		StyleGreen.Render("Created case"), Bold(c.Title),
		Dim(fmt.Sprintf("Continue with: rvdesk chat %s", short)))
}

// FormatTranscript renders the stored conversation of a case.
func FormatTranscript(msgs []*domain.Message) string {
	if len(msgs) == 0 {
		return Dim("No messages yet.") + "\n"
	}
	var b strings.Builder
	for _, m := range msgs {
		b.WriteString(FormatMessage(m))
		b.WriteString("\n")
	}
	return b.String()
}

// FormatMessage renders one message with its speaker label.
func FormatMessage(m *domain.Message) string {
	var label string
	switch m.Role {
	case domain.RoleTechnician:
		label = StyleGreen.Render("tech")
	case domain.RoleSystem:
		label = Dim("system")
	default:
		label = SourceBadge(m.Source)
		if label == "" {
			label = StylePurple.Render("[assistant]")
		}
	}
	header := fmt.Sprintf("%s %s", label, Dim(HumanTimestamp(m.CreatedAt)))
	return header + "\n" + indentWrapped(m.Content, 2, wrapWidth) + "\n"
}
