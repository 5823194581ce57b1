// Package injector puts a formatted prompt into the target interface.
package injector

import (
	"context"
	"time"

	"github.com/atotto/clipboard"
)

// Injector delivers text to the focused target surface.
//
// Deliver returns a *model.ClipboardError when the clipboard could not be
// written and a *model.DeliveryError when simulated input failed. Refresh
// is a best-effort secondary action; callers treat its error as non-fatal.
type Injector interface {
	Deliver(ctx context.Context, text string) error
	Refresh(ctx context.Context) error
}

// Clipboard is the system clipboard as seen by an injector.
type Clipboard interface {
	WriteAll(text string) error
}

// SystemClipboard writes through github.com/atotto/clipboard.
type SystemClipboard struct{}

func (SystemClipboard) WriteAll(text string) error {
	return clipboard.WriteAll(text)
}

// ClipboardSupported reports whether a clipboard backend was found at startup.
func ClipboardSupported() bool {
	return !clipboard.Unsupported
}

// keyGap is the pause between consecutive key chords so the target UI can
// settle before the next one.
const keyGap = 100 * time.Millisecond

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
