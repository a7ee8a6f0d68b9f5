package cli

import (
	"io"
	"os"

	"github.com/blackredfox/rv-service-desk-v1.0-sub002/internal/service"
	"github.com/spf13/cobra"
)

// App holds references to all service interfaces used by CLI commands.
type App struct {
	Cases       service.CaseService
	Diagnostics service.DiagnosticService

	// IsInteractive reports whether stdin is a terminal. Nil means never,
	// which keeps chat and labor commands in line mode.
	IsInteractive func() bool

	// Stdin is read by line-mode chat and draft checks; nil means os.Stdin.
	Stdin io.Reader
}

func (a *App) interactive() bool {
	return a.IsInteractive != nil && a.IsInteractive()
}

func (a *App) stdin() io.Reader {
	if a.Stdin != nil {
		return a.Stdin
	}
	return os.Stdin
}

// NewRootCmd creates the top-level "rvdesk" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:          "rvdesk",
		Short:        "RV service desk: guided diagnostics and labor-checked repair reports",
		SilenceUsage: true,
	}

	root.AddCommand(
		newCaseCmd(app),
		newChatCmd(app),
		newReportCmd(app),
		newLaborCmd(app),
	)

	return root
}
