package injector

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// Chord is a logical key combination; senders map it to platform keys.
type Chord string

const (
	ChordSelectAll Chord = "select_all"
	ChordPaste     Chord = "paste"
	ChordSubmit    Chord = "submit"
	ChordReload    Chord = "reload"
)

// KeySender synthesizes key chords into whatever window has focus.
type KeySender interface {
	Name() string
	Send(ctx context.Context, chord Chord) error
}

// XdotoolSender drives X11 through the xdotool binary.
type XdotoolSender struct {
	Bin string
}

var xdotoolKeys = map[Chord]string{
	ChordSelectAll: "ctrl+a",
	ChordPaste:     "ctrl+v",
	ChordSubmit:    "Return",
	ChordReload:    "ctrl+r",
}

func (x XdotoolSender) Name() string { return "xdotool" }

func (x XdotoolSender) Send(ctx context.Context, chord Chord) error {
	key, ok := xdotoolKeys[chord]
	if !ok {
		return fmt.Errorf("xdotool: unsupported chord %q", chord)
	}
	return runKeyCommand(ctx, firstNonEmpty(x.Bin, "xdotool"), "key", "--clearmodifiers", key)
}

// OsascriptSender drives macOS System Events through osascript.
type OsascriptSender struct {
	Bin string
}

var osascriptScripts = map[Chord]string{
	ChordSelectAll: `tell application "System Events" to keystroke "a" using command down`,
	ChordPaste:     `tell application "System Events" to keystroke "v" using command down`,
	ChordSubmit:    `tell application "System Events" to key code 36`,
	ChordReload:    `tell application "System Events" to keystroke "r" using command down`,
}

func (o OsascriptSender) Name() string { return "osascript" }

func (o OsascriptSender) Send(ctx context.Context, chord Chord) error {
	script, ok := osascriptScripts[chord]
	if !ok {
		return fmt.Errorf("osascript: unsupported chord %q", chord)
	}
	return runKeyCommand(ctx, firstNonEmpty(o.Bin, "osascript"), "-e", script)
}

func runKeyCommand(ctx context.Context, bin string, args ...string) error {
	out, err := exec.CommandContext(ctx, bin, args...).CombinedOutput()
	if err != nil {
		msg := strings.TrimSpace(string(out))
		if msg == "" {
			return fmt.Errorf("%s %s: %w", bin, strings.Join(args, " "), err)
		}
		return fmt.Errorf("%s %s: %w: %s", bin, strings.Join(args, " "), err, msg)
	}
	return nil
}

// KeyToolFor names the key tool used on goos.
func KeyToolFor(goos string) string {
	if goos == "darwin" {
		return "osascript"
	}
	return "xdotool"
}

// KeyToolStatus reports whether the platform key tool is on PATH.
func KeyToolStatus() (name string, path string, found bool) {
	name = KeyToolFor(runtime.GOOS)
	p, err := exec.LookPath(name)
	if err != nil {
		return name, "", false
	}
	return name, p, true
}

// DetectKeySender returns the sender for the current platform, or an error
// naming the missing tool.
func DetectKeySender() (KeySender, error) {
	name, path, found := KeyToolStatus()
	if !found {
		return nil, fmt.Errorf("missing dependency: %s is not installed or not on PATH", name)
	}
	if name == "osascript" {
		return OsascriptSender{Bin: path}, nil
	}
	return XdotoolSender{Bin: path}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
