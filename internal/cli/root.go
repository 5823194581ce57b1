package cli

import (
	"io"
	"os"

	"github.com/spf13/cobra"
)

func Run(args []string) error {
	return execute(args, os.Stdin, os.Stdout, os.Stderr)
}

func execute(args []string, in io.Reader, out, errOut io.Writer) error {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)
	return root.Execute()
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "prompt-feeder",
		Short: "Feed a backlog of prompts into a generation UI, one at a time",
		Long: `prompt-feeder pastes each pending prompt of a backlog file into the
focused input of an image or chat UI, presses Enter, records the delivery
and waits a randomized delay before the next one. Interrupt at any time;
the next run resumes with the first prompt not yet delivered.

Quick Start:
  prompt-feeder doctor --backlog prompts.txt
  prompt-feeder run leonardo prompts.txt
  prompt-feeder status prompts.txt`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newRunCmd())
	root.AddCommand(newStatusCmd())
	root.AddCommand(newProfilesCmd())
	root.AddCommand(newDoctorCmd())
	return root
}
