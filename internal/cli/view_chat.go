package cli

import (
	"context"
	"strings"

	"github.com/blackredfox/rv-service-desk-v1.0-sub002/internal/cli/formatter"
	"github.com/blackredfox/rv-service-desk-v1.0-sub002/internal/domain"
	"github.com/blackredfox/rv-service-desk-v1.0-sub002/internal/service"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type chatKeyMap struct {
	Send key.Binding
	Quit key.Binding
}

var chatKeys = chatKeyMap{
	Send: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "send")),
	Quit: key.NewBinding(key.WithKeys("esc", "ctrl+c"), key.WithHelp("esc", "quit")),
}

// turnDoneMsg carries the outcome of a service call run off the UI loop.
type turnDoneMsg struct {
	res    *service.TurnResult
	notice string
	err    error
}

// chatView is the interactive diagnostic chat for one case.
type chatView struct {
	ctx     context.Context
	app     *App
	c       *domain.Case
	input   textinput.Model
	spinner spinner.Model

	messages []string
	busy     bool
}

func newChatView(ctx context.Context, app *App, c *domain.Case) *chatView {
	ti := textinput.New()
	ti.Focus()
	ti.Prompt = ""
	ti.CharLimit = 2000
	ti.Placeholder = "describe what you see"

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = formatter.StylePurple

	return &chatView{
		ctx:      ctx,
		app:      app,
		c:        c,
		input:    ti,
		spinner:  sp,
		messages: []string{formatter.FormatChatWelcome(c)},
	}
}

func (v *chatView) Init() tea.Cmd {
	return textinput.Blink
}

func (v *chatView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, chatKeys.Quit):
			return v, tea.Quit
		case key.Matches(msg, chatKeys.Send):
			if v.busy {
				return v, nil
			}
			input := strings.TrimSpace(v.input.Value())
			v.input.Reset()
			if input == "" {
				return v, nil
			}
			return v.handleInput(input)
		}

	case turnDoneMsg:
		v.busy = false
		switch {
		case msg.err != nil:
			v.messages = append(v.messages, formatter.StyleRed.Render("Error: "+msg.err.Error()))
		case msg.res != nil:
			v.messages = append(v.messages, formatter.FormatTurn(msg.res))
		default:
			v.messages = append(v.messages, formatter.Dim(msg.notice))
		}
		return v, nil

	case spinner.TickMsg:
		if !v.busy {
			return v, nil
		}
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		return v, cmd
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *chatView) View() string {
	var b strings.Builder
	for _, msg := range v.messages {
		b.WriteString(msg)
		b.WriteString("\n")
	}

	if v.busy {
		b.WriteString(v.spinner.View() + formatter.Dim(" working..."))
		return b.String()
	}
	b.WriteString(formatter.StyleGreen.Render("tech") + formatter.Dim("> "))
	b.WriteString(v.input.View())
	b.WriteString("\n")
	b.WriteString(formatter.Dim(chatKeys.Send.Help().Key + " " + chatKeys.Send.Help().Desc + " · " +
		chatKeys.Quit.Help().Key + " " + chatKeys.Quit.Help().Desc))
	return b.String()
}

func (v *chatView) handleInput(input string) (tea.Model, tea.Cmd) {
	ctx, app, caseID := v.ctx, v.app, v.c.ID

	var run tea.Cmd
	switch chatCommand(input) {
	case chatQuit:
		return v, tea.Quit
	case chatReport:
		run = func() tea.Msg {
			res, err := app.Diagnostics.RequestFinalReport(ctx, caseID)
			return turnDoneMsg{res: res, err: err}
		}
	case chatCancel:
		run = func() tea.Msg {
			err := app.Diagnostics.AbandonReport(ctx, caseID)
			return turnDoneMsg{notice: "Report request cancelled.", err: err}
		}
	default:
		run = func() tea.Msg {
			res, err := app.Diagnostics.HandleTurn(ctx, caseID, input)
			return turnDoneMsg{res: res, err: err}
		}
	}

	v.messages = append(v.messages, formatter.StyleGreen.Render("tech")+formatter.Dim("> ")+input)
	v.busy = true
	return v, tea.Batch(v.spinner.Tick, run)
}
