// Package automator runs the delivery loop: it pulls the next pending prompt
// from the backlog, hands it to an injector, records the delivery and paces
// itself until the backlog drains or the run is interrupted.
package automator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"prompt-feeder/internal/model"
)

// PromptStore is the backlog as seen by the loop.
type PromptStore interface {
	Load() ([]string, error)
	// Commit errors other than *model.CommitError stop the run.
	Commit(prompt string) (bool, error)
	DeliveredLogPath() string
}

// Pacer computes and performs every timed pause of a run.
type Pacer interface {
	JitteredDelay(p model.Profile) time.Duration
	Wait(ctx context.Context, d time.Duration, onTick func(remaining time.Duration)) bool
}

// Injector delivers one formatted prompt to the target surface.
type Injector interface {
	Deliver(ctx context.Context, text string) error
	Refresh(ctx context.Context) error
}

type Decision int

const (
	DecisionContinue Decision = iota
	DecisionStop
)

// Confirmer asks the operator whether to keep going at a checkpoint.
type Confirmer interface {
	Confirm(ctx context.Context, delivered int) (Decision, error)
}

// AlwaysContinue is a Confirmer that never stops the run.
type AlwaysContinue struct{}

func (AlwaysContinue) Confirm(context.Context, int) (Decision, error) {
	return DecisionContinue, nil
}

type Config struct {
	Profile   model.Profile
	Store     PromptStore
	Pacer     Pacer
	Injector  Injector
	Confirmer Confirmer
	Observer  Observer
	Logger    *zap.Logger

	// SetupDelay is the focus window before the first delivery and after
	// every confirmed checkpoint.
	SetupDelay time.Duration
	// CheckpointEvery pauses for confirmation after this many deliveries.
	// Zero or negative disables checkpoints.
	CheckpointEvery int
}

type Result struct {
	Delivered    int
	Unconfirmed  int
	State        model.RunState
	DeliveredLog string
}

type Automator struct {
	cfg Config
	obs Observer
	log *zap.Logger
}

func New(cfg Config) *Automator {
	a := &Automator{cfg: cfg, obs: cfg.Observer, log: cfg.Logger}
	if a.cfg.Confirmer == nil {
		a.cfg.Confirmer = AlwaysContinue{}
	}
	if a.obs == nil {
		a.obs = NopObserver{}
	}
	if a.log == nil {
		a.log = zap.NewNop()
	}
	return a
}

// Run drives the loop until the backlog is drained, the operator stops at a
// checkpoint, ctx is cancelled or a fatal error occurs. Interruption is not
// an error: Run returns the partial result with State set to stopped.
func (a *Automator) Run(ctx context.Context) (Result, error) {
	var res Result
	if err := a.validate(); err != nil {
		return res, err
	}
	res.DeliveredLog = a.cfg.Store.DeliveredLogPath()

	initial, err := a.cfg.Store.Load()
	if err != nil {
		if errors.Is(err, model.ErrBacklogNotFound) {
			return res, &model.ConfigError{Field: "backlog", Err: err}
		}
		return res, fmt.Errorf("load backlog: %w", err)
	}

	if err := a.enter(&res, model.StateSetup); err != nil {
		return res, err
	}
	if len(initial) == 0 {
		return res, a.enter(&res, model.StateDrained)
	}
	a.log.Info("setup window", zap.Int("pending", len(initial)), zap.Duration("delay", a.cfg.SetupDelay))
	if !a.wait(ctx, WaitSetup, a.cfg.SetupDelay) {
		return res, a.enter(&res, model.StateStopped)
	}
	if err := a.enter(&res, model.StateDelivering); err != nil {
		return res, err
	}

	for {
		if ctx.Err() != nil {
			return res, a.enter(&res, model.StateStopped)
		}

		pending, err := a.cfg.Store.Load()
		if err != nil {
			_ = a.enter(&res, model.StateStopped)
			return res, fmt.Errorf("reload backlog: %w", err)
		}
		if len(pending) == 0 {
			return res, a.enter(&res, model.StateDrained)
		}

		prompt := pending[0]
		a.obs.DeliveryStarted(res.Delivered+1, len(pending), prompt)
		if err := a.cfg.Injector.Deliver(ctx, a.cfg.Profile.Format(prompt)); err != nil {
			a.log.Error("delivery failed", zap.Int("delivered", res.Delivered), zap.Error(err))
			_ = a.enter(&res, model.StateStopped)
			return res, err
		}

		committed, err := a.cfg.Store.Commit(prompt)
		if model.IsFatal(err) {
			res.Delivered++
			res.Unconfirmed++
			a.log.Error("backlog unusable after delivery", zap.String("prompt", prompt), zap.Error(err))
			_ = a.enter(&res, model.StateStopped)
			return res, err
		}
		if err != nil || !committed {
			res.Unconfirmed++
			if err == nil {
				err = errors.New("prompt no longer pending in backlog")
			}
			a.log.Warn("delivery not recorded; prompt stays pending",
				zap.String("prompt", prompt),
				zap.Error(err),
			)
			a.obs.CommitFailed(prompt, err)
		}
		res.Delivered++
		a.obs.Delivered(res.Delivered, prompt)
		a.log.Info("prompt delivered", zap.Int("delivered", res.Delivered), zap.Int("remaining", len(pending)-1))

		if len(pending) <= 1 {
			continue
		}

		if every := a.cfg.CheckpointEvery; every > 0 && res.Delivered%every == 0 {
			stop, err := a.checkpoint(ctx, &res)
			if err != nil || stop {
				return res, err
			}
			continue
		}

		if !a.wait(ctx, WaitPacing, a.cfg.Pacer.JitteredDelay(a.cfg.Profile)) {
			return res, a.enter(&res, model.StateStopped)
		}
		if a.cfg.Profile.Refresh {
			if err := a.cfg.Injector.Refresh(ctx); err != nil {
				a.log.Warn("refresh failed", zap.Error(err))
				a.obs.RefreshFailed(err)
			}
			if !a.wait(ctx, WaitSettle, a.cfg.Profile.SettleDelay) {
				return res, a.enter(&res, model.StateStopped)
			}
		}
	}
}

// checkpoint reports stop=true when the run ended here; res.State is final
// in that case.
func (a *Automator) checkpoint(ctx context.Context, res *Result) (bool, error) {
	if err := a.enter(res, model.StateCheckpoint); err != nil {
		return true, err
	}
	decision, err := a.cfg.Confirmer.Confirm(ctx, res.Delivered)
	if err != nil {
		if ctx.Err() != nil {
			return true, a.enter(res, model.StateStopped)
		}
		_ = a.enter(res, model.StateStopped)
		return true, fmt.Errorf("checkpoint confirmation: %w", err)
	}
	if decision == DecisionStop || ctx.Err() != nil {
		a.log.Info("stopped at checkpoint", zap.Int("delivered", res.Delivered))
		return true, a.enter(res, model.StateStopped)
	}
	if err := a.enter(res, model.StateDelivering); err != nil {
		return true, err
	}
	if !a.wait(ctx, WaitResume, a.cfg.SetupDelay) {
		return true, a.enter(res, model.StateStopped)
	}
	return false, nil
}

func (a *Automator) wait(ctx context.Context, kind WaitKind, d time.Duration) bool {
	a.obs.WaitStarted(kind, d)
	return a.cfg.Pacer.Wait(ctx, d, func(remaining time.Duration) {
		a.obs.WaitTick(kind, remaining)
	})
}

func (a *Automator) enter(res *Result, to model.RunState) error {
	from := res.State
	if err := model.Transition(&res.State, to); err != nil {
		return err
	}
	a.log.Debug("state", zap.String("from", string(from)), zap.String("to", string(to)))
	a.obs.StateChanged(from, to)
	return nil
}

func (a *Automator) validate() error {
	switch {
	case a.cfg.Store == nil:
		return &model.ConfigError{Field: "store", Err: errors.New("is required")}
	case a.cfg.Pacer == nil:
		return &model.ConfigError{Field: "pacer", Err: errors.New("is required")}
	case a.cfg.Injector == nil:
		return &model.ConfigError{Field: "injector", Err: errors.New("is required")}
	case a.cfg.SetupDelay < 0:
		return &model.ConfigError{Field: "setup delay", Err: fmt.Errorf("must be >= 0, got %s", a.cfg.SetupDelay)}
	}
	return nil
}
