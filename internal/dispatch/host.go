package dispatch

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/atotto/clipboard"
	"github.com/aymanbagabas/go-osc52/v2"
	"github.com/pkg/browser"
)

// SystemHost performs effects on the local machine: URLs open in the default
// browser, copies go to the system clipboard with an OSC 52 fallback for
// terminals without one. The native selection lives in the page, so
// ClearSelection only invokes the optional hook.
type SystemHost struct {
	openURL   func(string) error
	writeClip func(string) error
	tty       func() (io.WriteCloser, error)
	onClear   func(context.Context) error
}

// HostOption configures a SystemHost.
type HostOption func(*SystemHost)

// WithClearHook sets the function ClearSelection calls.
func WithClearHook(fn func(context.Context) error) HostOption {
	return func(h *SystemHost) { h.onClear = fn }
}

// SilenceBrowserLauncher discards what the launched browser process prints.
// It changes process-wide settings of the launcher package and affects every
// SystemHost; call it once at startup when stdout carries a protocol.
func SilenceBrowserLauncher() {
	browser.Stdout = io.Discard
	browser.Stderr = io.Discard
}

// NewSystemHost returns a host backed by the OS.
func NewSystemHost(opts ...HostOption) *SystemHost {
	h := &SystemHost{
		openURL:   browser.OpenURL,
		writeClip: clipboard.WriteAll,
		tty:       openTTY,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// OpenURL opens url in a new browser tab.
func (h *SystemHost) OpenURL(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return h.openURL(url)
}

// WriteClipboard copies text to the system clipboard. When no clipboard
// utility is available it emits an OSC 52 sequence to the controlling
// terminal instead.
func (h *SystemHost) WriteClipboard(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !clipboard.Unsupported {
		if err := h.writeClip(text); err == nil {
			return nil
		}
	}
	return h.writeOSC52(text)
}

// ClearSelection runs the clear hook, if any.
func (h *SystemHost) ClearSelection(ctx context.Context) error {
	if h.onClear == nil {
		return nil
	}
	return h.onClear(ctx)
}

func (h *SystemHost) writeOSC52(text string) error {
	w, err := h.tty()
	if err != nil {
		return fmt.Errorf("no clipboard available: %w", err)
	}
	defer w.Close()

	seq := osc52.New(text)
	switch {
	case os.Getenv("TMUX") != "":
		seq = seq.Tmux()
	case os.Getenv("STY") != "":
		seq = seq.Screen()
	}
	if _, err := seq.WriteTo(w); err != nil {
		return fmt.Errorf("write osc52: %w", err)
	}
	return nil
}

func openTTY() (io.WriteCloser, error) {
	return os.OpenFile("/dev/tty", os.O_WRONLY, 0)
}

// RecordingHost captures effects instead of performing them. It backs dry
// runs and tests.
type RecordingHost struct {
	mu       sync.Mutex
	Opened   []string
	Copied   []string
	Clears   int
	OpenErr  error
	CopyErr  error
	ClearErr error
}

// OpenURL records url.
func (h *RecordingHost) OpenURL(_ context.Context, url string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.OpenErr != nil {
		return h.OpenErr
	}
	h.Opened = append(h.Opened, url)
	return nil
}

// WriteClipboard records text.
func (h *RecordingHost) WriteClipboard(_ context.Context, text string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.CopyErr != nil {
		return h.CopyErr
	}
	h.Copied = append(h.Copied, text)
	return nil
}

// ClearSelection counts the call.
func (h *RecordingHost) ClearSelection(context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.ClearErr != nil {
		return h.ClearErr
	}
	h.Clears++
	return nil
}
