package backlog

import (
	"os"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

const storyCSV = `Sent,Shot,PromptID,Prompt
true,1,P1,opening shot
FALSE,1,P2,"a fox, running"
false,2,P3,"she said ""hello"" twice"

false,3,P4,plain
short,row
`

func TestKindFor(t *testing.T) {
	cases := map[string]Kind{
		"story.csv":     KindTabular,
		"STORY.CSV":     KindTabular,
		"fox.txt":       KindSequence,
		"prompts":       KindSequence,
		"fox.processed": KindSequence,
	}
	for path, want := range cases {
		if got := KindFor(path); got != want {
			t.Fatalf("KindFor(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestTabularLoad_SkipsHeaderAndDeliveredRows(t *testing.T) {
	path := writeBacklog(t, "story.csv", storyCSV)
	store := Open(path, Options{})
	require.Equal(t, KindTabular, store.Kind())
	require.Empty(t, store.DeliveredLogPath())

	got, err := store.Load()
	require.NoError(t, err)

	want := []string{"a fox, running", `she said "hello" twice`, "plain"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("pending mismatch (-want +got):\n%s", diff)
	}
}

func TestTabularLoad_HeaderOnly(t *testing.T) {
	path := writeBacklog(t, "empty.csv", "Sent,Shot,PromptID,Prompt\n")
	got, err := Open(path, Options{}).Load()
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestTabularCommit_FlipsFlagInPlace(t *testing.T) {
	path := writeBacklog(t, "story.csv", storyCSV)
	store := Open(path, Options{})

	ok, err := store.Commit(`she said "hello" twice`)
	require.NoError(t, err)
	require.True(t, ok)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	want := `Sent,Shot,PromptID,Prompt
true,1,P1,opening shot
FALSE,1,P2,"a fox, running"
true,2,P3,"she said ""hello"" twice"

false,3,P4,plain
short,row
`
	require.Equal(t, want, string(data))

	pending, err := store.Load()
	require.NoError(t, err)
	require.Equal(t, []string{"a fox, running", "plain"}, pending)

	_, statErr := os.Stat(DeliveredLogPath(path))
	require.True(t, os.IsNotExist(statErr), "tabular commits must not write a delivered log")
}

func TestTabularCommit_FirstMatchWins(t *testing.T) {
	path := writeBacklog(t, "dup.csv", "Sent,Shot,PromptID,Prompt\nfalse,1,A,same\nfalse,2,B,same\n")
	store := Open(path, Options{})

	ok, err := store.Commit("same")
	require.NoError(t, err)
	require.True(t, ok)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "Sent,Shot,PromptID,Prompt\ntrue,1,A,same\nfalse,2,B,same\n", string(data))
}

func TestTabularCommit_PreservesCRLFAndMissingTrailingNewline(t *testing.T) {
	path := writeBacklog(t, "win.csv", "Sent,Shot,PromptID,Prompt\r\nfalse,1,A,first\r\nfalse,2,B,last")
	store := Open(path, Options{})

	ok, err := store.Commit("last")
	require.NoError(t, err)
	require.True(t, ok)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "Sent,Shot,PromptID,Prompt\r\nfalse,1,A,first\r\ntrue,2,B,last", string(data))
}

func TestTabularCommit_HeaderIsNeverData(t *testing.T) {
	path := writeBacklog(t, "odd.csv", "false,0,H,header text\nfalse,1,A,body\n")
	store := Open(path, Options{})

	ok, err := store.Commit("header text")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestTabularStats(t *testing.T) {
	path := writeBacklog(t, "story.csv", storyCSV)
	st, err := Open(path, Options{}).Stats()
	require.NoError(t, err)
	require.Equal(t, 3, st.Pending)
	require.Equal(t, 1, st.Delivered)
	require.Equal(t, "a fox, running", st.Next)
}

func TestRecordRoundTrip(t *testing.T) {
	rows := []string{
		`false,1,P1,plain text`,
		`false,1,P2,"a, b, and c"`,
		`true,2,P3,"she said ""hi"""`,
		`false,3,"id,with,commas","""quoted"" at start, then comma"`,
		`false,4,P5,`,
	}
	for _, row := range rows {
		fields, err := decodeRecord(row)
		require.NoError(t, err, row)
		encoded, err := encodeRecord(fields)
		require.NoError(t, err, row)
		require.Equal(t, row, encoded)
	}
}

func TestTabularLoad_SpacedQuotedFields(t *testing.T) {
	content := "Sent, Shot, PromptID, Prompt\nfalse, 1, P1, \"a fox, running\"\nfalse, 2, P2, \"she said \"\"hi\"\"\"\n"
	path := writeBacklog(t, "spaced.csv", content)
	store := Open(path, Options{})

	got, err := store.Load()
	require.NoError(t, err)
	if diff := cmp.Diff([]string{"a fox, running", `she said "hi"`}, got); diff != "" {
		t.Fatalf("pending mismatch (-want +got):\n%s", diff)
	}

	ok, err := store.Commit("a fox, running")
	require.NoError(t, err)
	require.True(t, ok)

	got, err = store.Load()
	require.NoError(t, err)
	require.Equal(t, []string{`she said "hi"`}, got)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(string(data), "\n")
	require.Equal(t, "Sent, Shot, PromptID, Prompt", lines[0])
	require.Equal(t, "false, 2, P2, \"she said \"\"hi\"\"\"", lines[2])
}
