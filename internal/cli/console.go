package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"

	"prompt-feeder/internal/automator"
	"prompt-feeder/internal/model"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

const clearLine = "\r\033[2K"

// consoleObserver renders run progress as status lines with a countdown that
// rewrites itself in place.
type consoleObserver struct {
	out         io.Writer
	countdown   bool
	promptWidth int
}

func newConsoleObserver(out io.Writer) *consoleObserver {
	return &consoleObserver{out: out, promptWidth: 72}
}

func (c *consoleObserver) endCountdown() {
	if c.countdown {
		fmt.Fprint(c.out, clearLine)
		c.countdown = false
	}
}

func (c *consoleObserver) StateChanged(_, to model.RunState) {
	switch to {
	case model.StateCheckpoint:
		c.endCountdown()
		fmt.Fprintln(c.out, titleStyle.Render("checkpoint"))
	case model.StateDrained:
		c.endCountdown()
		fmt.Fprintln(c.out, okStyle.Render("backlog drained"))
	case model.StateStopped:
		c.endCountdown()
		fmt.Fprintln(c.out, warnStyle.Render("stopped"))
	}
}

func (c *consoleObserver) WaitStarted(kind automator.WaitKind, d time.Duration) {
	c.endCountdown()
	switch kind {
	case automator.WaitSetup:
		fmt.Fprintf(c.out, "%s focus the target input now; first prompt in %s\n",
			titleStyle.Render("setup:"), formatSeconds(d))
	case automator.WaitResume:
		fmt.Fprintf(c.out, "%s refocus the target input; resuming in %s\n",
			titleStyle.Render("resume:"), formatSeconds(d))
	case automator.WaitPacing:
		fmt.Fprintln(c.out, mutedStyle.Render("next prompt in "+formatSeconds(d)))
	case automator.WaitSettle:
		fmt.Fprintln(c.out, mutedStyle.Render("page reloaded; settling for "+formatSeconds(d)))
	}
}

func (c *consoleObserver) WaitTick(kind automator.WaitKind, remaining time.Duration) {
	c.countdown = true
	fmt.Fprint(c.out, clearLine+mutedStyle.Render(fmt.Sprintf("  %s: %s left", kind, formatSeconds(remaining))))
}

func (c *consoleObserver) DeliveryStarted(index, pending int, prompt string) {
	c.endCountdown()
	fmt.Fprintf(c.out, "%s %s %s\n",
		titleStyle.Render(fmt.Sprintf("[%d]", index)),
		truncate(prompt, c.promptWidth),
		mutedStyle.Render(fmt.Sprintf("(%d pending)", pending)),
	)
}

func (c *consoleObserver) Delivered(int, string) {}

func (c *consoleObserver) CommitFailed(prompt string, err error) {
	c.endCountdown()
	fmt.Fprintln(c.out, errorStyle.Render("not recorded: ")+truncate(prompt, c.promptWidth)+mutedStyle.Render(" ("+err.Error()+"); it will be sent again"))
}

func (c *consoleObserver) RefreshFailed(err error) {
	c.endCountdown()
	fmt.Fprintln(c.out, warnStyle.Render("refresh failed: "+err.Error()))
}

func formatSeconds(d time.Duration) string {
	return fmt.Sprintf("%.1fs", d.Seconds())
}
