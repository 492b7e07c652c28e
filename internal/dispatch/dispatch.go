// Package dispatch implements the Dispatcher (spec §4.9): opening a URL in
// the user's default browser after a configurable, cancellable delay.
package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/browser"
	"github.com/rs/zerolog"
)

// Launcher opens url in the default browser. browser.OpenURL satisfies
// this; tests inject a fake so Open can be exercised without a real
// desktop environment.
type Launcher func(url string) error

// Dispatcher opens URLs after a delay. Every call to Open is independent
// and cancellable via its context; Dispatcher holds no goroutines of its
// own between calls.
type Dispatcher struct {
	log    zerolog.Logger
	launch Launcher
}

// New builds a Dispatcher that logs failures via log and opens urls with
// the platform's default browser.
func New(log zerolog.Logger) *Dispatcher {
	return NewWithLauncher(log, browser.OpenURL)
}

// NewWithLauncher builds a Dispatcher using a caller-supplied Launcher,
// for injecting a fake in tests.
func NewWithLauncher(log zerolog.Logger, launch Launcher) *Dispatcher {
	return &Dispatcher{log: log.With().Str("component", "dispatch").Logger(), launch: launch}
}

// Open waits delay (or returns early if ctx is cancelled first), then opens
// url in the default browser. A cancelled context before the delay elapses
// means the open never happens — satisfies §8's "shutdown mid-delay cancels
// the pending open." A Dispatch failure is logged and returned, never
// panics the caller.
func (d *Dispatcher) Open(ctx context.Context, url string, delay time.Duration) error {
	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	} else if ctx.Err() != nil {
		return ctx.Err()
	}

	// pkg/browser always execs the platform launcher with url as a single
	// argv element (xdg-open / open / rundll32 url.dll,FileProtocolHandler)
	// rather than through a shell, so the url reaches the launcher exactly
	// as given — no quoting or escaping of it is ever needed or performed.
	if err := d.launch(url); err != nil {
		d.log.Error().Err(err).Str("url", url).Msg("dispatch: failed to open browser")
		return fmt.Errorf("dispatch: open %q: %w", url, err)
	}
	return nil
}
