package cli

import (
	"context"
	"encoding/json"
	"io"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"prompt-feeder/internal/automator"
	"prompt-feeder/internal/backlog"
	"prompt-feeder/internal/model"
)

func TestStatusReportsSequenceBacklog(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "prompts.txt")
	writeFile(t, path, "1→third\n2→fourth\n")
	writeFile(t, filepath.Join(tmp, "prompts.processed.txt"), "first\nsecond\n")

	out, _, err := runCLI(t, "", "status", path, "--json")
	require.NoError(t, err)

	var st backlog.Stats
	require.NoError(t, json.Unmarshal([]byte(out), &st))
	require.Equal(t, backlog.KindSequence, st.Kind)
	require.Equal(t, 2, st.Pending)
	require.Equal(t, 2, st.Delivered)
	require.Equal(t, "third", st.Next)
}

func TestStatusMissingBacklog(t *testing.T) {
	_, _, err := runCLI(t, "", "status", filepath.Join(t.TempDir(), "nope.csv"))
	var cfgErr *model.ConfigError
	require.ErrorAs(t, err, &cfgErr)
}

func TestProfilesListsBuiltins(t *testing.T) {
	out, _, err := runCLI(t, "", "profiles")
	require.NoError(t, err)
	require.Contains(t, out, "leonardo")
	require.Contains(t, out, "openai")
	require.Contains(t, out, "create image: {prompt} 16:9")
}

func TestProfilesJSON(t *testing.T) {
	out, _, err := runCLI(t, "", "profiles", "--json")
	require.NoError(t, err)
	var profiles []model.Profile
	require.NoError(t, json.Unmarshal([]byte(out), &profiles))
	require.Len(t, profiles, 2)
	require.Equal(t, "leonardo", profiles[0].Name)
}

func TestUnknownCommand(t *testing.T) {
	_, _, err := runCLI(t, "", "launch")
	require.Error(t, err)
}

func TestConfirmModelKeys(t *testing.T) {
	cases := []struct {
		name string
		msg  tea.KeyMsg
		want automator.Decision
	}{
		{"enter", tea.KeyMsg{Type: tea.KeyEnter}, automator.DecisionContinue},
		{"space", tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}, automator.DecisionContinue},
		{"q", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}}, automator.DecisionStop},
		{"esc", tea.KeyMsg{Type: tea.KeyEsc}, automator.DecisionStop},
		{"ctrl+c", tea.KeyMsg{Type: tea.KeyCtrlC}, automator.DecisionStop},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			next, cmd := confirmModel{delivered: 8}.Update(tc.msg)
			m := next.(confirmModel)
			require.True(t, m.decided)
			require.Equal(t, tc.want, m.decision)
			require.NotNil(t, cmd)
		})
	}
}

func TestConfirmModelIgnoresOtherKeys(t *testing.T) {
	next, cmd := confirmModel{delivered: 8}.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}})
	require.False(t, next.(confirmModel).decided)
	require.Nil(t, cmd)
	require.Contains(t, next.View(), "8 prompts delivered")
}

func TestLineConfirmer(t *testing.T) {
	cases := map[string]automator.Decision{
		"\n":      automator.DecisionContinue,
		"yes\n":   automator.DecisionContinue,
		"q\n":     automator.DecisionStop,
		" STOP\n": automator.DecisionStop,
		"":        automator.DecisionStop,
		"go":      automator.DecisionContinue,
	}
	for input, want := range cases {
		var out strings.Builder
		got, err := newLineConfirmer(strings.NewReader(input), &out).Confirm(context.Background(), 8)
		require.NoError(t, err, "input %q", input)
		require.Equal(t, want, got, "input %q", input)
		require.Contains(t, out.String(), "8 prompts delivered")
	}
}

func TestLineConfirmerKeepsAnswerReadAfterCancel(t *testing.T) {
	pr, pw := io.Pipe()
	t.Cleanup(func() { _ = pw.Close() })
	var out strings.Builder
	c := newLineConfirmer(pr, &out)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	got, err := c.Confirm(ctx, 3)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, automator.DecisionStop, got)

	writes := make(chan error, 1)
	go func() {
		_, err := io.WriteString(pw, "q\n")
		writes <- err
	}()
	got, err = c.Confirm(context.Background(), 3)
	require.NoError(t, err)
	require.Equal(t, automator.DecisionStop, got, "the line typed after the cancel answers the next checkpoint")
	require.NoError(t, <-writes)

	go func() {
		_, err := io.WriteString(pw, "\n")
		writes <- err
	}()
	got, err = c.Confirm(context.Background(), 6)
	require.NoError(t, err)
	require.Equal(t, automator.DecisionContinue, got)
	require.NoError(t, <-writes)

	require.NoError(t, pw.Close())
	got, err = c.Confirm(context.Background(), 9)
	require.NoError(t, err)
	require.Equal(t, automator.DecisionStop, got)
	// Input is gone; later checkpoints stop without another read.
	got, err = c.Confirm(context.Background(), 12)
	require.NoError(t, err)
	require.Equal(t, automator.DecisionStop, got)
}
