package model

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestProfileFormat_ReplacesFirstPlaceholderOnly(t *testing.T) {
	p := Profile{Template: "create image: {prompt} 16:9"}
	if got := p.Format("a fox"); got != "create image: a fox 16:9" {
		t.Fatalf("format mismatch: %q", got)
	}

	raw := Profile{Template: "{prompt}"}
	if got := raw.Format("uses {prompt} literally"); got != "uses {prompt} literally" {
		t.Fatalf("prompt text must not be re-expanded: %q", got)
	}
}

func TestProfileWithBaseDelay_DoesNotMutateReceiver(t *testing.T) {
	p := Profile{Name: "leonardo", BaseDelay: 40 * time.Second}
	q := p.WithBaseDelay(30 * time.Second)
	if p.BaseDelay != 40*time.Second {
		t.Fatalf("receiver profile mutated: %v", p.BaseDelay)
	}
	if q.BaseDelay != 30*time.Second {
		t.Fatalf("override not applied: %v", q.BaseDelay)
	}
}

func TestIsFatal(t *testing.T) {
	commit := fmt.Errorf("wrapped: %w", &CommitError{Path: "x", Err: errors.New("disk full")})
	if IsFatal(commit) {
		t.Fatalf("commit errors must not be fatal")
	}
	if !IsFatal(&DeliveryError{Err: errors.New("xdotool exited 1")}) {
		t.Fatalf("delivery errors must be fatal")
	}
	if !IsFatal(&ClipboardError{Err: errors.New("no clipboard")}) {
		t.Fatalf("clipboard errors must be fatal")
	}
	if IsFatal(nil) {
		t.Fatalf("nil is not fatal")
	}
}
