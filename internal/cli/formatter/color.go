package formatter

import (
	"fmt"
	"strings"

	"github.com/blackredfox/rv-service-desk-v1.0-sub002/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

// Gruvbox-inspired color palette.
var (
	ColorGreen  = lipgloss.Color("#8ec07c")
	ColorYellow = lipgloss.Color("#fabd2f")
	ColorRed    = lipgloss.Color("#fb4934")
	ColorBlue   = lipgloss.Color("#83a598")
	ColorPurple = lipgloss.Color("#d3869b")
	ColorDim    = lipgloss.Color("#928374")
	ColorFg     = lipgloss.Color("#ebdbb2")
	ColorHeader = lipgloss.Color("#fe8019")
)

var (
	StyleGreen  = lipgloss.NewStyle().Foreground(ColorGreen)
	StyleYellow = lipgloss.NewStyle().Foreground(ColorYellow)
	StyleRed    = lipgloss.NewStyle().Foreground(ColorRed)
	StyleBlue   = lipgloss.NewStyle().Foreground(ColorBlue)
	StylePurple = lipgloss.NewStyle().Foreground(ColorPurple)
	StyleDim    = lipgloss.NewStyle().Foreground(ColorDim)
	StyleFg     = lipgloss.NewStyle().Foreground(ColorFg)
	StyleHeader = lipgloss.NewStyle().Foreground(ColorHeader).Bold(true)
	StyleBold   = lipgloss.NewStyle().Foreground(ColorFg).Bold(true)
)

// StateIndicator renders the session state as a colored pill, e.g.
// "● REPORT PENDING (labor_confirmation)".
func StateIndicator(s domain.SessionState) string {
	switch s.Kind {
	case domain.StateReportPending:
		label := "● REPORT PENDING"
		if s.Missing != "" {
			label += fmt.Sprintf(" (%s)", s.Missing)
		}
		return StyleYellow.Render(label)
	case domain.StateFallback:
		return StyleRed.Render("● CHECKLIST FALLBACK")
	default:
		return StyleGreen.Render("● DIAGNOSING")
	}
}

// SourceBadge names who wrote an assistant message.
func SourceBadge(src domain.TurnSource) string {
	switch src {
	case domain.SourceLLM:
		return StylePurple.Render("[assistant]")
	case domain.SourceChecklist:
		return StyleYellow.Render("[checklist]")
	case domain.SourceOrchestrator:
		return StyleBlue.Render("[desk]")
	default:
		return ""
	}
}

// CaseStatusPill returns a colored indicator for a case status.
func CaseStatusPill(status domain.CaseStatus) string {
	switch status {
	case domain.CaseOpen:
		return StyleGreen.Render("● Open")
	case domain.CaseReported:
		return StyleDim.Render("✔ Reported")
	default:
		return StyleDim.Render(string(status))
	}
}

// Header renders a section header with the orange header style and an underline.
func Header(text string) string {
	upper := strings.ToUpper(text)
	line := strings.Repeat("─", lipgloss.Width(upper))
	return fmt.Sprintf("%s\n%s", StyleHeader.Render(upper), StyleDim.Render(line))
}

func Dim(text string) string {
	return StyleDim.Render(text)
}

func Bold(text string) string {
	return StyleBold.Render(text)
}
