package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"prompt-feeder/internal/automator"
	"prompt-feeder/internal/backlog"
	"prompt-feeder/internal/injector"
	"prompt-feeder/internal/model"
	"prompt-feeder/internal/pacing"
	"prompt-feeder/internal/runstore"
	"prompt-feeder/internal/settings"
)

type runFlags struct {
	baseDelay       time.Duration
	setupDelay      time.Duration
	checkpointEvery int
	profilesPath    string
	injector        string
	debuggerURL     string
	pageURL         string
	startURL        string
	selector        string
	headless        bool
	logFile         string
	verbose         bool
	jsonOut         bool
}

type injectorOptions struct {
	Kind        string
	DebuggerURL string
	PageURL     string
	StartURL    string
	Selector    string
	Headless    bool
	Logger      *zap.Logger
}

// Seams swapped by tests; production wiring lives in the defaults.
var (
	newInjector = defaultInjector
	newPacer    = func() automator.Pacer { return pacing.New() }
)

type runSummary struct {
	RunID        string         `json:"run_id"`
	Profile      string         `json:"profile"`
	Backlog      string         `json:"backlog"`
	State        model.RunState `json:"state"`
	Delivered    int            `json:"delivered"`
	Unconfirmed  int            `json:"unconfirmed"`
	Pending      int            `json:"pending"`
	DeliveredLog string         `json:"delivered_log,omitempty"`
	Interrupted  bool           `json:"interrupted"`
}

func newRunCmd() *cobra.Command {
	var f runFlags

	cmd := &cobra.Command{
		Use:   "run <profile> <backlog> [baseDelaySeconds] [setupDelaySeconds]",
		Short: "Deliver pending prompts until the backlog is empty",
		Long: `Deliver every pending prompt of <backlog> to the target described by
<profile>. Files ending in .csv are read as tables with columns
Sent,Shot,PromptID,Prompt; any other file is a numbered list of prompts.

Delivered prompts are removed from a list backlog and appended to
<name>.processed<ext>; table rows get Sent=true. Press Ctrl+C to stop.`,
		Args: cobra.RangeArgs(2, 4),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := applyPositionalDelays(cmd, &f, args[2:]); err != nil {
				cmd.PrintErrln(cmd.UsageString())
				return err
			}
			err := runFeed(cmd, f, args[0], args[1])
			var cfgErr *model.ConfigError
			if errors.As(err, &cfgErr) {
				cmd.PrintErrln(cmd.UsageString())
			}
			return err
		},
	}

	cmd.Flags().DurationVar(&f.baseDelay, "base-delay", 0, "override the profile's base delay between prompts (min 1s)")
	cmd.Flags().DurationVar(&f.setupDelay, "setup-delay", settings.DefaultSetupDelay, "time to focus the target before the first prompt and after each checkpoint")
	cmd.Flags().IntVar(&f.checkpointEvery, "checkpoint-every", settings.DefaultCheckpointEvery, "ask for confirmation after this many prompts (0 disables)")
	cmd.Flags().StringVar(&f.profilesPath, "profiles", "", "YAML file with extra or overriding profiles")
	cmd.Flags().StringVar(&f.injector, "injector", settings.DefaultInjector, "delivery method: desktop or browser")
	cmd.Flags().StringVar(&f.debuggerURL, "debugger-url", "", "browser: DevTools websocket of a running Chrome (empty launches one)")
	cmd.Flags().StringVar(&f.pageURL, "page-url", "", "browser: regex selecting the target tab by URL")
	cmd.Flags().StringVar(&f.startURL, "start-url", "", "browser: page to open when Chrome is launched")
	cmd.Flags().StringVar(&f.selector, "selector", injector.DefaultInputSelector, "browser: CSS selector of the prompt input")
	cmd.Flags().BoolVar(&f.headless, "headless", false, "browser: launch Chrome without a window")
	cmd.Flags().StringVar(&f.logFile, "log-file", "", "write the structured run log to this file")
	cmd.Flags().BoolVar(&f.verbose, "verbose", false, "debug-level run log")
	cmd.Flags().BoolVar(&f.jsonOut, "json", false, "print the run summary as JSON")
	return cmd
}

// applyPositionalDelays maps the optional [baseDelaySeconds] [setupDelaySeconds]
// arguments onto flags that were not set explicitly.
func applyPositionalDelays(cmd *cobra.Command, f *runFlags, extra []string) error {
	targets := []struct {
		flag string
		dst  *time.Duration
	}{
		{"base-delay", &f.baseDelay},
		{"setup-delay", &f.setupDelay},
	}
	for i, raw := range extra {
		t := targets[i]
		secs, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return &model.ConfigError{Field: t.flag, Err: fmt.Errorf("%q is not a number of seconds", raw)}
		}
		if cmd.Flags().Changed(t.flag) {
			return &model.ConfigError{Field: t.flag, Err: errors.New("given both as argument and flag")}
		}
		*t.dst = time.Duration(secs * float64(time.Second))
		if err := cmd.Flags().Set(t.flag, t.dst.String()); err != nil {
			return err
		}
	}
	return nil
}

func runFeed(cmd *cobra.Command, f runFlags, profileName, backlogPath string) error {
	out := cmd.OutOrStdout()
	console := out
	if f.jsonOut {
		console = cmd.ErrOrStderr()
	}

	catalog, err := settings.LoadCatalog(f.profilesPath)
	if err != nil {
		return err
	}
	profile, err := catalog.Resolve(profileName)
	if err != nil {
		return err
	}
	overrides := settings.RunOverrides{BaseDelay: f.baseDelay}
	if cmd.Flags().Changed("base-delay") && f.baseDelay <= 0 {
		return &model.ConfigError{Field: "base delay", Err: fmt.Errorf("must be >= %s, got %s", settings.MinBaseDelay, f.baseDelay)}
	}
	if cmd.Flags().Changed("setup-delay") {
		setup := f.setupDelay
		overrides.SetupDelay = &setup
	}
	if cmd.Flags().Changed("checkpoint-every") {
		overrides.CheckpointEvery = intPtr(f.checkpointEvery)
	}
	rs, err := settings.ResolveRunSettings(profile, overrides)
	if err != nil {
		return err
	}
	kind := strings.ToLower(strings.TrimSpace(f.injector))
	if kind != settings.InjectorDesktop && kind != settings.InjectorBrowser {
		return &model.ConfigError{Field: "injector", Err: fmt.Errorf("unknown injector %q (use desktop or browser)", f.injector)}
	}

	backlogPath = strings.TrimSpace(backlogPath)
	if _, err := os.Stat(backlogPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &model.ConfigError{Field: "backlog", Err: fmt.Errorf("%w: %s", model.ErrBacklogNotFound, backlogPath)}
		}
		return fmt.Errorf("stat backlog %s: %w", backlogPath, err)
	}

	runID := uuid.NewString()
	logger, err := newRunLogger(f.verbose, f.logFile, runID)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	lock, err := runstore.AcquireBacklogLock(backlogPath, runID)
	if err != nil {
		return err
	}
	defer func() { _ = lock.Release() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	inj, closeInjector, err := newInjector(ctx, injectorOptions{
		Kind:        kind,
		DebuggerURL: f.debuggerURL,
		PageURL:     f.pageURL,
		StartURL:    f.startURL,
		Selector:    f.selector,
		Headless:    f.headless,
		Logger:      logger,
	})
	if err != nil {
		return err
	}
	defer func() { _ = closeInjector() }()

	store := backlog.Open(backlogPath, backlog.Options{Format: rs.Profile.Format, Logger: logger})
	logger.Info("run starting",
		zap.String("profile", rs.Profile.Name),
		zap.String("backlog", backlogPath),
		zap.String("format", string(store.Kind())),
		zap.Duration("base_delay", rs.Profile.BaseDelay),
		zap.Duration("jitter", rs.Profile.Jitter),
		zap.Duration("setup_delay", rs.SetupDelay),
		zap.Int("checkpoint_every", rs.CheckpointEvery),
		zap.String("injector", kind),
	)
	fmt.Fprintf(console, "%s %s -> %s (%s ± %s)\n",
		titleStyle.Render("prompt-feeder"),
		backlogPath, rs.Profile.Title,
		formatSeconds(rs.Profile.BaseDelay), formatSeconds(rs.Profile.Jitter),
	)

	res, runErr := automator.New(automator.Config{
		Profile:         rs.Profile,
		Store:           store,
		Pacer:           newPacer(),
		Injector:        inj,
		Confirmer:       newConfirmer(cmd.InOrStdin(), console),
		Observer:        newConsoleObserver(console),
		Logger:          logger,
		SetupDelay:      rs.SetupDelay,
		CheckpointEvery: rs.CheckpointEvery,
	}).Run(ctx)

	summary := runSummary{
		RunID:        runID,
		Profile:      rs.Profile.Name,
		Backlog:      backlogPath,
		State:        res.State,
		Delivered:    res.Delivered,
		Unconfirmed:  res.Unconfirmed,
		DeliveredLog: res.DeliveredLog,
		Interrupted:  res.State == model.StateStopped && ctx.Err() != nil,
	}
	if st, err := store.Stats(); err == nil {
		summary.Pending = st.Pending
	}
	logger.Info("run finished",
		zap.String("state", string(res.State)),
		zap.Int("delivered", res.Delivered),
		zap.Int("unconfirmed", res.Unconfirmed),
		zap.Bool("interrupted", summary.Interrupted),
	)
	if runErr != nil {
		logger.Error("run failed", zap.Error(runErr))
		printSummary(console, summary)
		return runErr
	}
	if f.jsonOut {
		return printJSON(out, summary)
	}
	printSummary(console, summary)
	return nil
}

func printSummary(w io.Writer, s runSummary) {
	if s.Interrupted {
		fmt.Fprintln(w, "interrupted by signal")
	}
	fmt.Fprintf(w, "delivered: %d  pending: %d", s.Delivered, s.Pending)
	if s.Unconfirmed > 0 {
		fmt.Fprint(w, errorStyle.Render(fmt.Sprintf("  unrecorded: %d", s.Unconfirmed)))
	}
	fmt.Fprintln(w)
	if s.DeliveredLog != "" {
		fmt.Fprintf(w, "delivered prompts are logged in %s\n", s.DeliveredLog)
	}
}

func defaultInjector(ctx context.Context, opts injectorOptions) (automator.Injector, func() error, error) {
	noop := func() error { return nil }
	if !injector.ClipboardSupported() {
		return nil, noop, &model.ConfigError{
			Field: "clipboard",
			Err:   errors.New("no clipboard backend found (install xclip, xsel or wl-clipboard)"),
		}
	}

	switch opts.Kind {
	case settings.InjectorBrowser:
		b, err := injector.ConnectBrowser(ctx, injector.BrowserOptions{
			DebuggerURL: opts.DebuggerURL,
			PageURL:     opts.PageURL,
			StartURL:    opts.StartURL,
			Selector:    opts.Selector,
			Headless:    opts.Headless,
			Logger:      opts.Logger,
		})
		if err != nil {
			return nil, noop, err
		}
		return b, b.Close, nil
	default:
		keys, err := injector.DetectKeySender()
		if err != nil {
			return nil, noop, &model.ConfigError{Field: "injector", Err: err}
		}
		return injector.NewDesktop(injector.DesktopOptions{Keys: keys, Logger: opts.Logger}), noop, nil
	}
}
