package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"prompt-feeder/internal/backlog"
	"prompt-feeder/internal/model"
	"prompt-feeder/internal/settings"
)

func newStatusCmd() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "status <backlog>",
		Short: "Show pending and delivered counts of a backlog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := backlog.Open(strings.TrimSpace(args[0]), backlog.Options{}).Stats()
			if err != nil {
				if errors.Is(err, model.ErrBacklogNotFound) {
					return &model.ConfigError{Field: "backlog", Err: err}
				}
				return err
			}
			out := cmd.OutOrStdout()
			if jsonOut {
				return printJSON(out, st)
			}

			fmt.Fprintf(out, "%s %s (%s)\n", titleStyle.Render("backlog:"), st.Path, st.Kind)
			fmt.Fprintf(out, "pending: %d\n", st.Pending)
			fmt.Fprintf(out, "delivered: %d\n", st.Delivered)
			if st.Next != "" {
				fmt.Fprintf(out, "next: %s\n", truncate(st.Next, 96))
			} else {
				fmt.Fprintln(out, okStyle.Render("nothing pending"))
			}
			if st.DeliveredLog != "" {
				fmt.Fprintf(out, "delivered log: %s\n", st.DeliveredLog)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print JSON output")
	return cmd
}

func newProfilesCmd() *cobra.Command {
	var (
		profilesPath string
		jsonOut      bool
	)

	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "List target profiles and their pacing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := settings.LoadCatalog(profilesPath)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if jsonOut {
				return printJSON(out, cat.List())
			}

			fmt.Fprintln(out, mutedStyle.Render("source: "+cat.Source))
			for _, p := range cat.List() {
				fmt.Fprintf(out, "%s  %s\n", titleStyle.Render(fmt.Sprintf("%-12s", p.Name)), p.Title)
				fmt.Fprintf(out, "  delay %s ± %s  template %q", formatSeconds(p.BaseDelay), formatSeconds(p.Jitter), p.Template)
				if p.Refresh {
					fmt.Fprintf(out, "  refresh, settle %s", formatSeconds(p.SettleDelay))
				}
				fmt.Fprintln(out)
				if p.Description != "" {
					fmt.Fprintln(out, "  "+mutedStyle.Render(p.Description))
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&profilesPath, "profiles", "", "YAML file with extra or overriding profiles")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print JSON output")
	return cmd
}

func newDoctorCmd() *cobra.Command {
	var (
		backlogPath string
		jsonOut     bool
	)

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Run clipboard, keystroke tool and filesystem preflight checks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := settings.Doctor(settings.DoctorOptions{BacklogPath: strings.TrimSpace(backlogPath)})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if jsonOut {
				if err := printJSON(out, res); err != nil {
					return err
				}
			} else {
				for _, c := range res.Checks {
					status := okStyle.Render("ok")
					if !c.OK {
						status = errorStyle.Render("fail")
					}
					fmt.Fprintf(out, "%s: %s (%s)\n", c.Name, status, c.Message)
				}
			}
			if !res.OK {
				return errors.New("doctor checks failed")
			}
			if !jsonOut {
				fmt.Fprintln(out, "doctor: all checks passed")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&backlogPath, "backlog", "", "backlog file to check")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print JSON output")
	return cmd
}
