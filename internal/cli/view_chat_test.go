package cli

import (
	"context"
	"testing"
	"time"

	"github.com/blackredfox/rv-service-desk-v1.0-sub002/internal/teatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newChatDriver(t *testing.T, title string) (*teatest.Driver, *chatView, *App) {
	t.Helper()
	app := testApp(t)
	c := seedCase(t, app, title)
	v := newChatView(context.Background(), app, c)
	return teatest.New(t, v, teatest.WithCmdTimeout(5*time.Second)), v, app
}

func submit(d *teatest.Driver, v *chatView, text string) {
	v.input.SetValue(text)
	d.PressEnter()
}

func lastTurn(t *testing.T, d *teatest.Driver) turnDoneMsg {
	t.Helper()
	for i := len(d.Seen) - 1; i >= 0; i-- {
		if done, ok := d.Seen[i].(turnDoneMsg); ok {
			return done
		}
	}
	require.FailNow(t, "no turnDoneMsg produced")
	return turnDoneMsg{}
}

func TestChatView_TurnRoundTrip(t *testing.T) {
	d, v, _ := newChatDriver(t, "Water pump not running")

	submit(d, v, "pump is dead")

	done := lastTurn(t, d)
	require.NoError(t, done.err)
	assert.False(t, v.busy)
	view := stripANSI(d.View())
	assert.Contains(t, view, "diagnostic chat")
	assert.Contains(t, view, "tech> pump is dead")
	assert.Contains(t, view, "[checklist]")
	assert.Empty(t, v.input.Value())
}

func TestChatView_ReportAndCancelCommands(t *testing.T) {
	d, v, app := newChatDriver(t, "Furnace won't light")

	submit(d, v, "/report")
	done := lastTurn(t, d)
	require.NotNil(t, done.res)
	assert.True(t, done.res.Report.PreconditionUnmet)
	assert.Contains(t, stripANSI(d.View()), "How many hours")

	submit(d, v, "/cancel")
	require.NoError(t, lastTurn(t, d).err)
	assert.Contains(t, stripANSI(d.View()), "Report request cancelled.")

	st, err := app.Diagnostics.LaborStatus(context.Background(), v.c.ID)
	require.NoError(t, err)
	assert.Nil(t, st.Pending)
}

func TestChatView_IgnoresBlankInputAndEnterWhileBusy(t *testing.T) {
	d, v, _ := newChatDriver(t, "Generator won't start")

	d.PressEnter()
	assert.Empty(t, d.Seen)
	assert.False(t, v.busy)

	v.busy = true
	submit(d, v, "hello")
	assert.Empty(t, d.Seen)
	assert.Equal(t, "hello", v.input.Value())
	assert.Contains(t, stripANSI(d.View()), "working...")
}

func TestChatView_Quit(t *testing.T) {
	d, _, _ := newChatDriver(t, "Generator won't start")
	d.PressEsc()
	assert.True(t, d.Quitting)

	d2, v2, _ := newChatDriver(t, "Generator won't start")
	submit(d2, v2, "/quit")
	assert.True(t, d2.Quitting)
}

func TestChatView_ShowsServiceErrors(t *testing.T) {
	_, v, _ := newChatDriver(t, "Generator won't start")

	v.busy = true
	v.Update(turnDoneMsg{err: assert.AnError})

	assert.False(t, v.busy)
	assert.Contains(t, stripANSI(v.View()), "Error: "+assert.AnError.Error())
}
