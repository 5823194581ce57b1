package automator

import (
	"time"

	"prompt-feeder/internal/model"
)

// WaitKind tells an Observer which pause is running.
type WaitKind string

const (
	WaitSetup  WaitKind = "setup"
	WaitPacing WaitKind = "pacing"
	WaitSettle WaitKind = "settle"
	WaitResume WaitKind = "resume"
)

// Observer receives progress events from a run. Calls happen on the run's
// goroutine and must not block.
type Observer interface {
	StateChanged(from, to model.RunState)
	WaitStarted(kind WaitKind, d time.Duration)
	WaitTick(kind WaitKind, remaining time.Duration)
	DeliveryStarted(index, pending int, prompt string)
	Delivered(total int, prompt string)
	CommitFailed(prompt string, err error)
	RefreshFailed(err error)
}

type NopObserver struct{}

func (NopObserver) StateChanged(model.RunState, model.RunState) {}
func (NopObserver) WaitStarted(WaitKind, time.Duration) {}
func (NopObserver) WaitTick(WaitKind, time.Duration) {}
func (NopObserver) DeliveryStarted(int, int, string) {}
func (NopObserver) Delivered(int, string) {}
func (NopObserver) CommitFailed(string, error) {}
func (NopObserver) RefreshFailed(error) {}
