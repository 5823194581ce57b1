package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"prompt-feeder/internal/automator"
)

type confirmKeyMap struct {
	Continue key.Binding
	Stop     key.Binding
}

var confirmKeys = confirmKeyMap{
	Continue: key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "continue")),
	Stop:     key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "stop")),
}

// confirmModel is the checkpoint question shown on a terminal.
type confirmModel struct {
	delivered int
	decided   bool
	decision  automator.Decision
}

func (m confirmModel) Init() tea.Cmd { return nil }

func (m confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(keyMsg, confirmKeys.Continue):
		m.decided = true
		m.decision = automator.DecisionContinue
		return m, tea.Quit
	case key.Matches(keyMsg, confirmKeys.Stop):
		m.decided = true
		m.decision = automator.DecisionStop
		return m, tea.Quit
	}
	return m, nil
}

func (m confirmModel) View() string {
	if m.decided {
		return ""
	}
	help := mutedStyle.Render(fmt.Sprintf("%s %s  •  %s %s",
		confirmKeys.Continue.Help().Key, confirmKeys.Continue.Help().Desc,
		confirmKeys.Stop.Help().Key, confirmKeys.Stop.Help().Desc,
	))
	return fmt.Sprintf("%s %d prompts delivered. Check the target, then continue?\n%s\n",
		titleStyle.Render("checkpoint:"), m.delivered, help)
}

// teaConfirmer asks through a bubbletea program on the terminal.
type teaConfirmer struct {
	in  io.Reader
	out io.Writer
}

func (c teaConfirmer) Confirm(ctx context.Context, delivered int) (automator.Decision, error) {
	p := tea.NewProgram(confirmModel{delivered: delivered},
		tea.WithContext(ctx),
		tea.WithInput(c.in),
		tea.WithOutput(c.out),
	)
	final, err := p.Run()
	if err != nil {
		if ctx.Err() != nil {
			return automator.DecisionStop, ctx.Err()
		}
		return automator.DecisionStop, fmt.Errorf("checkpoint prompt: %w", err)
	}
	if m, ok := final.(confirmModel); ok && m.decided {
		return m.decision, nil
	}
	return automator.DecisionStop, nil
}

// lineConfirmer reads one line per checkpoint when stdin is not a terminal.
// Any answer continues except q or stop; end of input stops.
//
// At most one read is in flight. A line that arrives after a cancelled
// Confirm is kept and answers the next call.
type lineConfirmer struct {
	in      *bufio.Reader
	out     io.Writer
	lines   chan lineResult
	reading bool
	closed  error
}

func newLineConfirmer(in io.Reader, out io.Writer) *lineConfirmer {
	return &lineConfirmer{in: bufio.NewReader(in), out: out, lines: make(chan lineResult, 1)}
}

type lineResult struct {
	line string
	err  error
}

func (c *lineConfirmer) readLine() {
	line, err := c.in.ReadString('\n')
	c.lines <- lineResult{line: line, err: err}
}

func (c *lineConfirmer) Confirm(ctx context.Context, delivered int) (automator.Decision, error) {
	fmt.Fprintf(c.out, "checkpoint: %d prompts delivered. Press Enter to continue, q to stop: ", delivered)
	if c.closed != nil {
		fmt.Fprintln(c.out)
		return stopOnInputEnd(c.closed)
	}
	if !c.reading {
		c.reading = true
		go c.readLine()
	}

	select {
	case <-ctx.Done():
		fmt.Fprintln(c.out)
		return automator.DecisionStop, ctx.Err()
	case r := <-c.lines:
		c.reading = false
		if r.err != nil {
			c.closed = r.err
			if !errors.Is(r.err, io.EOF) || r.line == "" {
				fmt.Fprintln(c.out)
				return stopOnInputEnd(r.err)
			}
		}
		switch strings.ToLower(strings.TrimSpace(r.line)) {
		case "q", "stop":
			return automator.DecisionStop, nil
		default:
			return automator.DecisionContinue, nil
		}
	}
}

func stopOnInputEnd(err error) (automator.Decision, error) {
	if errors.Is(err, io.EOF) {
		return automator.DecisionStop, nil
	}
	return automator.DecisionStop, err
}

func newConfirmer(in io.Reader, out io.Writer) automator.Confirmer {
	if isTerminal(in) {
		return teaConfirmer{in: in, out: out}
	}
	return newLineConfirmer(in, out)
}
