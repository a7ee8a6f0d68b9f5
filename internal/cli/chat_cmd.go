package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/blackredfox/rv-service-desk-v1.0-sub002/internal/cli/formatter"
	"github.com/blackredfox/rv-service-desk-v1.0-sub002/internal/domain"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

func newChatCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "chat CASE [MESSAGE...]",
		Short: "Talk through a diagnosis (or send a single message)",
		Long: `Send one technician message to a case, or start a chat when no
message is given. On a terminal the chat is interactive; otherwise each
line read from stdin is one turn.

Commands during chat:
  /report   Ask for the final report
  /cancel   Drop a pending report request
  /quit     Leave the chat

Examples:
  rvdesk chat 3f2a "pump hums but no water at the faucets"
  rvdesk chat 3f2a`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := resolveCase(ctx, app, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if len(args) > 1 {
				return runChatTurn(ctx, app, out, c.ID, strings.Join(args[1:], " "))
			}
			if app.interactive() {
				_, err := tea.NewProgram(newChatView(ctx, app, c)).Run()
				return err
			}
			return runChatLines(ctx, app, out, c)
		},
	}
}

func runChatTurn(ctx context.Context, app *App, out io.Writer, caseID, text string) error {
	res, err := app.Diagnostics.HandleTurn(ctx, caseID, text)
	if err != nil {
		return err
	}
	fmt.Fprint(out, formatter.FormatTurn(res))
	return nil
}

// runChatLines treats every stdin line as one turn until EOF or /quit.
func runChatLines(ctx context.Context, app *App, out io.Writer, c *domain.Case) error {
	fmt.Fprint(out, formatter.FormatChatWelcome(c))

	scanner := bufio.NewScanner(app.stdin())
	for scanner.Scan() {
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		switch chatCommand(input) {
		case chatQuit:
			return nil
		case chatReport:
			res, err := app.Diagnostics.RequestFinalReport(ctx, c.ID)
			if err != nil {
				return err
			}
			fmt.Fprint(out, formatter.FormatTurn(res))
		case chatCancel:
			if err := app.Diagnostics.AbandonReport(ctx, c.ID); err != nil {
				return err
			}
			fmt.Fprintln(out, formatter.Dim("Report request cancelled."))
		default:
			if err := runChatTurn(ctx, app, out, c.ID, input); err != nil {
				return err
			}
		}
	}
	return scanner.Err()
}

type chatCmdKind int

const (
	chatMessage chatCmdKind = iota
	chatQuit
	chatReport
	chatCancel
)

func chatCommand(input string) chatCmdKind {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "/quit", "/exit", "/q":
		return chatQuit
	case "/report":
		return chatReport
	case "/cancel":
		return chatCancel
	default:
		return chatMessage
	}
}
