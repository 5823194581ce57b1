package injector

import (
	"context"
	"time"

	"go.uber.org/zap"

	"prompt-feeder/internal/model"
)

type DesktopOptions struct {
	Clipboard Clipboard
	Keys      KeySender
	KeyGap    time.Duration
	Logger    *zap.Logger
}

// Desktop pastes through the system clipboard into the focused window.
type Desktop struct {
	clip   Clipboard
	keys   KeySender
	gap    time.Duration
	logger *zap.Logger
}

func NewDesktop(opts DesktopOptions) *Desktop {
	d := &Desktop{
		clip:   opts.Clipboard,
		keys:   opts.Keys,
		gap:    opts.KeyGap,
		logger: opts.Logger,
	}
	if d.clip == nil {
		d.clip = SystemClipboard{}
	}
	if d.gap <= 0 {
		d.gap = keyGap
	}
	if d.logger == nil {
		d.logger = zap.NewNop()
	}
	return d
}

// Deliver copies text, then selects the current input, pastes over it and
// submits.
func (d *Desktop) Deliver(ctx context.Context, text string) error {
	if err := d.clip.WriteAll(text); err != nil {
		return &model.ClipboardError{Err: err}
	}

	// An interrupt must not split paste from submit; finish the sequence.
	keyCtx := context.WithoutCancel(ctx)
	steps := []Chord{ChordSelectAll, ChordPaste, ChordSubmit}
	for i, chord := range steps {
		if i > 0 {
			if err := sleepCtx(keyCtx, d.gap); err != nil {
				return &model.DeliveryError{Step: string(chord), Err: err}
			}
		}
		if err := d.keys.Send(keyCtx, chord); err != nil {
			return &model.DeliveryError{Step: string(chord), Err: err}
		}
	}
	d.logger.Debug("keys sent", zap.String("sender", d.keys.Name()), zap.Int("chars", len(text)))
	return nil
}

func (d *Desktop) Refresh(ctx context.Context) error {
	return d.keys.Send(ctx, ChordReload)
}
